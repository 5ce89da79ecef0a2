package pricing

import "math"

// Aggregate holds the gross sums of a quote or order. Fees and accessories may
// be negative when they carry refunds or credits.
type Aggregate struct {
	MaterialsGross   float64 `json:"materials_gross"`
	FeesGross        float64 `json:"fees_gross"`
	AccessoriesGross float64 `json:"accessories_gross"`
	DiscountPercent  float64 `json:"discount_percent"`
}

// Summary is the result of applying the discount to an Aggregate.
type Summary struct {
	Subtotal       float64 `json:"subtotal"`
	DiscountAmount float64 `json:"discount_amount"`
	FinalTotal     float64 `json:"final_total"`
}

// ApplyDiscount discounts only the billable part of the aggregate. Negative
// fee and accessory sums are added back undiscounted.
//
// DiscountAmount is not rounded; totals already stored by earlier versions
// were computed the same way.
func ApplyDiscount(a Aggregate) Summary {
	feesGross := finite(a.FeesGross)
	accessoriesGross := finite(a.AccessoriesGross)

	feesPositive, feesNegative := math.Max(0, feesGross), math.Min(0, feesGross)
	accPositive, accNegative := math.Max(0, accessoriesGross), math.Min(0, accessoriesGross)

	subtotal := finite(a.MaterialsGross) + feesPositive + accPositive
	discount := subtotal * finite(a.DiscountPercent) / 100

	return Summary{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		FinalTotal:     subtotal - discount + feesNegative + accNegative,
	}
}
