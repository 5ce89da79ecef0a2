package quotes

import (
	"github.com/Simplici0/shopfloor/internal/pricing"
)

// Recalculate recomputes every line of q from its quantity, unit price and
// VAT and refreshes q.Totals.
func Recalculate(q *Quote) {
	for i := range q.Materials {
		q.Materials[i].Totals = pricing.Line(q.Materials[i].LineInput())
	}
	for i := range q.Fees {
		q.Fees[i].Totals = pricing.Line(q.Fees[i].LineInput())
	}
	for i := range q.Accessories {
		q.Accessories[i].Totals = pricing.Line(q.Accessories[i].LineInput())
	}
	q.Totals = ComputeTotals(q)
}

// ComputeTotals sums the stored line totals of q, applies the discount and
// derives the payment status.
func ComputeTotals(q *Quote) Totals {
	var t Totals
	for _, m := range q.Materials {
		t.MaterialsGross += m.Totals.Gross
	}
	for _, f := range q.Fees {
		t.FeesGross += f.Totals.Gross
	}
	for _, a := range q.Accessories {
		t.AccessoriesGross += a.Totals.Gross
	}
	for _, p := range q.Payments {
		t.TotalPaid += p.Amount
	}

	summary := pricing.ApplyDiscount(pricing.Aggregate{
		MaterialsGross:   float64(t.MaterialsGross),
		FeesGross:        float64(t.FeesGross),
		AccessoriesGross: float64(t.AccessoriesGross),
		DiscountPercent:  q.DiscountPercent,
	})
	t.Subtotal = summary.Subtotal
	t.DiscountAmount = summary.DiscountAmount
	t.FinalTotal = summary.FinalTotal

	t.RemainingBalance = pricing.RoundHalfUp(t.FinalTotal) - t.TotalPaid
	t.PaymentStatus = pricing.StatusFor(t.FinalTotal, float64(t.TotalPaid))
	return t
}

// BreakdownRow is a line as printed on quote and order documents.
type BreakdownRow struct {
	Kind    string          `json:"kind"`
	Name    string          `json:"name"`
	Display pricing.Display `json:"display"`
}

// Breakdown returns the display rows of q. Unit prices are rounded to two
// decimals and the shown totals recomputed from them.
func Breakdown(q *Quote) []BreakdownRow {
	rows := make([]BreakdownRow, 0, len(q.Materials)+len(q.Fees)+len(q.Accessories))
	for _, m := range q.Materials {
		name := m.MaterialName
		if name == "" {
			name = m.MaterialID
		}
		rows = append(rows, BreakdownRow{
			Kind:    "material",
			Name:    name,
			Display: pricing.Redisplay(float64(m.Totals.Net), float64(m.Totals.Gross), m.Quantity),
		})
	}
	for _, lines := range [][]Line{q.Fees, q.Accessories} {
		for _, l := range lines {
			rows = append(rows, BreakdownRow{
				Kind:    string(l.Kind),
				Name:    l.Name,
				Display: pricing.Redisplay(float64(l.Totals.Net), float64(l.Totals.Gross), l.Quantity),
			})
		}
	}
	return rows
}
