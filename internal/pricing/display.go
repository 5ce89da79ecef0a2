package pricing

// Display is a total as shown on printed and exported documents, where the
// unit price times the quantity must equal the shown total.
type Display struct {
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Gross     float64 `json:"gross"`
	Net       float64 `json:"net"`
}

// UnitPrice divides total by quantity and rounds to two decimals. A zero
// quantity yields a zero unit price.
func UnitPrice(total, quantity float64) float64 {
	if quantity == 0 {
		return 0
	}
	return RoundTo(total/quantity, 2)
}

// Redisplay recomputes a stored net/gross pair from the rounded unit price.
// The shown gross may drift a few forints from the stored gross; the net is
// scaled by the same ratio, or kept as is when the stored gross is zero.
func Redisplay(net, gross, quantity float64) Display {
	net, gross, quantity = finite(net), finite(gross), finite(quantity)

	unit := UnitPrice(gross, quantity)
	shown := unit * quantity
	if quantity == 0 {
		shown = gross
	}

	scaledNet := net
	if gross > 0 {
		scaledNet = net * (shown / gross)
	}

	return Display{
		Quantity:  quantity,
		UnitPrice: unit,
		Gross:     shown,
		Net:       scaledNet,
	}
}
