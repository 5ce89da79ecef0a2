package pricing

import "testing"

func TestApplyMultiplier_RoundTrip(t *testing.T) {
	net, gross := ApplyMultiplier(1000, 1.38, 27)
	if net != 1380 || gross != 1753 {
		t.Fatalf("ApplyMultiplier = (%d, %d), want (1380, 1753)", net, gross)
	}

	nearlyEqual(t, "multiplier", MultiplierFromGross(float64(gross), 1000, 27), 1.38)
}

func TestMultiplierFromGross_ZeroBase(t *testing.T) {
	nearlyEqual(t, "multiplier", MultiplierFromGross(1753, 0, 27), 0)
}

func TestPieceConversions(t *testing.T) {
	area := PieceAreaM2(2800, 2070)
	nearlyEqual(t, "area", area, 5.796)
	nearlyEqual(t, "length", PieceLengthM(4200), 4.2)

	piece := PiecePrice(5000, area)
	nearlyEqual(t, "piece price", piece, 28980)
	nearlyEqual(t, "per unit", PerUnitPrice(piece, area), 5000)
	nearlyEqual(t, "zero size", PerUnitPrice(piece, 0), 0)
}

func TestRedisplay_KeepsUnitPriceConsistent(t *testing.T) {
	got := Redisplay(78740, 100000, 3)

	nearlyEqual(t, "unit", got.UnitPrice, 33333.33)
	nearlyEqual(t, "gross", got.Gross, 99999.99)
	nearlyEqual(t, "net", got.Net, 78740*(99999.99/100000))
	nearlyEqual(t, "quantity", got.Gross/got.UnitPrice, 3)
}

func TestRedisplay_ZeroGrossKeepsNet(t *testing.T) {
	got := Redisplay(500, 0, 2)

	nearlyEqual(t, "net", got.Net, 500)
	nearlyEqual(t, "gross", got.Gross, 0)
}

func TestUnitPrice_ZeroQuantity(t *testing.T) {
	nearlyEqual(t, "unit", UnitPrice(1000, 0), 0)
}
