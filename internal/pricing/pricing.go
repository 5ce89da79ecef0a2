// Package pricing computes net, VAT and gross amounts for quote, order and
// shipment lines. All persisted amounts are whole forints.
package pricing

// LineInput represents a single billable line: a fee, an accessory, a
// material pricing row or a received shipment item.
type LineInput struct {
	Quantity     float64 `json:"quantity"`
	UnitPriceNet float64 `json:"unit_price_net"`
	VATPercent   float64 `json:"vat_percent"`
}

// LineTotal contains the integer totals of a line. Gross is always Net + VAT.
type LineTotal struct {
	Net   int64 `json:"net_total"`
	VAT   int64 `json:"vat_amount"`
	Gross int64 `json:"gross_total"`
}

// Add returns the field-wise sum of two line totals.
func (t LineTotal) Add(o LineTotal) LineTotal {
	return LineTotal{Net: t.Net + o.Net, VAT: t.VAT + o.VAT, Gross: t.Gross + o.Gross}
}

// Line computes the totals of a line item.
//
// The net total is rounded first and the VAT is derived from the rounded net.
// The invoicing system recomputes VAT the same way and rejects documents where
// the two disagree by a forint, so the order must not be changed.
func Line(in LineInput) LineTotal {
	net := RoundHalfUp(finite(in.Quantity) * finite(in.UnitPriceNet))
	vat := RoundHalfUp(float64(net) * finite(in.VATPercent) / 100)
	return LineTotal{Net: net, VAT: vat, Gross: net + vat}
}

// SumLines computes every line and the aggregated totals across them.
func SumLines(lines []LineInput) ([]LineTotal, LineTotal) {
	per := make([]LineTotal, len(lines))
	var sum LineTotal
	for i, l := range lines {
		per[i] = Line(l)
		sum = sum.Add(per[i])
	}
	return per, sum
}
