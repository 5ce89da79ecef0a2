package pricing

// PaymentTolerance is the rounding slack, in forints, allowed when deciding
// whether an order is fully paid and how much may still be collected.
const PaymentTolerance = 1

// PaymentStatus is the collection state of an order.
type PaymentStatus string

const (
	PaymentNotPaid PaymentStatus = "not_paid"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
)

// PaymentInput describes a candidate payment against an order. Amount is
// negative for refunds.
type PaymentInput struct {
	FinalTotal float64 `json:"final_total"`
	TotalPaid  float64 `json:"total_paid"`
	Amount     float64 `json:"candidate_amount"`
}

// PaymentResult is the outcome of evaluating a candidate payment.
type PaymentResult struct {
	RemainingBalance int64         `json:"remaining_balance"`
	NewStatus        PaymentStatus `json:"new_status"`
	Valid            bool          `json:"is_valid"`
}

// StatusFor derives the payment status from an order total and the amount
// paid so far.
func StatusFor(finalTotal, totalPaid float64) PaymentStatus {
	return statusFor(RoundHalfUp(finalTotal), RoundHalfUp(totalPaid))
}

func statusFor(final, paid int64) PaymentStatus {
	switch {
	case paid == 0:
		return PaymentNotPaid
	case paid >= final-PaymentTolerance:
		return PaymentPaid
	default:
		return PaymentPartial
	}
}

// EvaluatePayment computes the remaining balance before the payment, the
// status the order would have after it, and whether a positive amount stays
// within the balance plus tolerance. Refunds are never rejected here.
func EvaluatePayment(in PaymentInput) PaymentResult {
	final := RoundHalfUp(in.FinalTotal)
	paid := RoundHalfUp(in.TotalPaid)
	amount := RoundHalfUp(in.Amount)

	remaining := final - paid
	return PaymentResult{
		RemainingBalance: remaining,
		NewStatus:        statusFor(final, paid+amount),
		Valid:            amount <= 0 || amount <= remaining+PaymentTolerance,
	}
}
