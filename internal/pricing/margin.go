package pricing

// ApplyMultiplier returns the net and gross selling price for a purchase
// price and margin multiplier.
func ApplyMultiplier(basePrice, multiplier, vatPercent float64) (net, gross int64) {
	net = RoundHalfUp(finite(basePrice) * finite(multiplier))
	gross = RoundHalfUp(float64(net) * (1 + finite(vatPercent)/100))
	return net, gross
}

// MultiplierFromGross derives the multiplier, rounded to two decimals, that
// turns basePrice into the given gross selling price. A zero base price
// yields zero.
func MultiplierFromGross(grossSellingPrice, basePrice, vatPercent float64) float64 {
	basePrice = finite(basePrice)
	if basePrice == 0 {
		return 0
	}
	net := finite(grossSellingPrice) / (1 + finite(vatPercent)/100)
	return RoundTo(net/basePrice, 2)
}

// PieceAreaM2 returns the area of a board piece in square metres.
func PieceAreaM2(lengthMM, widthMM float64) float64 {
	return finite(lengthMM) * finite(widthMM) / 1_000_000
}

// PieceLengthM returns the length of a linear piece in metres.
func PieceLengthM(lengthMM float64) float64 {
	return finite(lengthMM) / 1000
}

// PiecePrice converts a per m² or per m price into a whole-piece price.
func PiecePrice(perUnit, size float64) float64 {
	return finite(perUnit) * finite(size)
}

// PerUnitPrice converts a whole-piece price back into a per m² or per m
// price. A zero size yields zero.
func PerUnitPrice(piecePrice, size float64) float64 {
	size = finite(size)
	if size == 0 {
		return 0
	}
	return finite(piecePrice) / size
}
