// Package quotes manages quotes and the orders created from them.
package quotes

import (
	"context"
	"errors"
	"time"

	"github.com/Simplici0/shopfloor/internal/machine"
	"github.com/Simplici0/shopfloor/internal/pricing"
)

var (
	ErrNotFound              = errors.New("quote not found")
	ErrQuoteLocked           = errors.New("quote can no longer be modified")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrInvalidLine           = errors.New("invalid line item")
	ErrInvalidDiscount       = errors.New("discount percent must be between 0 and 100")
	ErrZeroPayment           = errors.New("payment amount must not be zero")
	ErrPaymentExceedsBalance = errors.New("payment exceeds remaining balance")
	ErrRefundExceedsPaid     = errors.New("refund exceeds amount paid")
)

// Status is the lifecycle state of a quote or order.
type Status string

const (
	StatusDraft        Status = "draft"
	StatusOrdered      Status = "ordered"
	StatusInProduction Status = "in_production"
	StatusReady        Status = "ready"
	StatusFinished     Status = "finished"
	StatusCancelled    Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusDraft:        {StatusOrdered, StatusCancelled},
	StatusOrdered:      {StatusInProduction, StatusCancelled},
	StatusInProduction: {StatusReady, StatusCancelled},
	StatusReady:        {StatusFinished},
}

// CanTransition reports whether a quote may move from s to next.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Locked reports whether lines and discount of a quote in this status are
// frozen.
func (s Status) Locked() bool {
	return s == StatusReady || s == StatusFinished || s == StatusCancelled
}

// MaterialRow is the pricing of one board material in a quote.
type MaterialRow struct {
	ID              string            `json:"id"`
	MaterialID      string            `json:"material_id"`
	MaterialName    string            `json:"material_name"`
	Quantity        float64           `json:"quantity"`
	UnitPriceNet    float64           `json:"unit_price_net"`
	VATPercent      float64           `json:"vat_percent"`
	BoardWidthMM    float64           `json:"board_width_mm"`
	BoardLengthMM   float64           `json:"board_length_mm"`
	BoardsUsed      int               `json:"boards_used"`
	UsagePercentage float64           `json:"usage_percentage"`
	ChargedSqm      float64           `json:"charged_sqm"`
	WasteMulti      float64           `json:"waste_multi"`
	Totals          pricing.LineTotal `json:"totals"`
}

// LineInput returns the pricing input of the row.
func (m MaterialRow) LineInput() pricing.LineInput {
	return pricing.LineInput{Quantity: m.Quantity, UnitPriceNet: m.UnitPriceNet, VATPercent: m.VATPercent}
}

// Panel is a cut panel of a quote.
type Panel struct {
	ID         string  `json:"id"`
	MaterialID string  `json:"material_id"`
	WidthMM    float64 `json:"width_mm"`
	LengthMM   float64 `json:"length_mm"`
	Quantity   float64 `json:"quantity"`
}

// LineKind separates fees from accessories.
type LineKind string

const (
	LineFee       LineKind = "fee"
	LineAccessory LineKind = "accessory"
)

// Line is a fee or accessory line. Negative unit prices are credits.
type Line struct {
	ID           string            `json:"id"`
	Kind         LineKind          `json:"kind"`
	Name         string            `json:"name"`
	Quantity     float64           `json:"quantity"`
	UnitPriceNet float64           `json:"unit_price_net"`
	VATPercent   float64           `json:"vat_percent"`
	Totals       pricing.LineTotal `json:"totals"`
	CreatedAt    time.Time         `json:"created_at"`
}

// LineInput returns the pricing input of the line.
func (l Line) LineInput() pricing.LineInput {
	return pricing.LineInput{Quantity: l.Quantity, UnitPriceNet: l.UnitPriceNet, VATPercent: l.VATPercent}
}

// Payment is money received for an order. Refunds are negative.
type Payment struct {
	ID      string    `json:"id"`
	Amount  int64     `json:"amount"`
	Method  string    `json:"method"`
	Comment string    `json:"comment"`
	PaidAt  time.Time `json:"paid_at"`
}

// Totals are the derived amounts of a quote.
type Totals struct {
	MaterialsGross   int64                 `json:"materials_gross"`
	FeesGross        int64                 `json:"fees_gross"`
	AccessoriesGross int64                 `json:"accessories_gross"`
	Subtotal         float64               `json:"subtotal"`
	DiscountAmount   float64               `json:"discount_amount"`
	FinalTotal       float64               `json:"final_total"`
	TotalPaid        int64                 `json:"total_paid"`
	RemainingBalance int64                 `json:"remaining_balance"`
	PaymentStatus    pricing.PaymentStatus `json:"payment_status"`
}

// Quote is a quote or, once ordered, an order.
type Quote struct {
	ID              string        `json:"id"`
	QuoteNumber     string        `json:"quote_number"`
	OrderNumber     string        `json:"order_number,omitempty"`
	CustomerName    string        `json:"customer_name"`
	Status          Status        `json:"status"`
	DiscountPercent float64       `json:"discount_percent"`
	Materials       []MaterialRow `json:"materials"`
	Panels          []Panel       `json:"panels"`
	Fees            []Line        `json:"fees"`
	Accessories     []Line        `json:"accessories"`
	Payments        []Payment     `json:"payments"`
	Totals          Totals        `json:"totals"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// Repository persists quotes.
type Repository interface {
	CreateQuote(ctx context.Context, q *Quote) error
	GetQuote(ctx context.Context, id string) (*Quote, error)
	UpdateQuote(ctx context.Context, q *Quote) error
	AddLine(ctx context.Context, q *Quote, l Line) error
	AddPayment(ctx context.Context, q *Quote, p Payment) error
}

// MachineLister lists the configured production machines.
type MachineLister interface {
	ListMachines(ctx context.Context) ([]machine.Machine, error)
}

// ThresholdReader returns the current classifier threshold.
type ThresholdReader interface {
	Threshold(ctx context.Context) float64
}
