package pricing

import (
	"math"

	"github.com/shopspring/decimal"
)

// RoundHalfUp rounds x to the nearest integer, with ties going toward +Inf.
// Non-finite input rounds to 0.
func RoundHalfUp(x float64) int64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	f := math.Floor(x)
	if x-f >= 0.5 {
		f++
	}
	return int64(f)
}

var half = decimal.NewFromFloat(0.5)

// RoundTo rounds x to the given number of decimal places using its shortest
// decimal representation, so 1.005 becomes 1.01 rather than 1.00. Ties go
// toward +Inf like RoundHalfUp, so -1.005 becomes -1.
func RoundTo(x float64, places int32) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return decimal.NewFromFloat(x).Shift(places).Add(half).Floor().Shift(-places).InexactFloat64()
}

func finite(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}
