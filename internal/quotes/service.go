package quotes

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Simplici0/shopfloor/internal/machine"
	"github.com/Simplici0/shopfloor/internal/pricing"
)

// Recorder receives business events for metrics. Implementations must be
// safe for concurrent use.
type Recorder interface {
	MachineSuggested(role string)
	PaymentRecorded(status string)
}

// Service runs the quote and order workflows on top of a Repository.
type Service struct {
	repo      Repository
	machines  MachineLister
	threshold ThresholdReader
	log       *zap.Logger
	recorder  Recorder
	now       func() time.Time
}

// NewService wires the quote service. recorder may be nil.
func NewService(repo Repository, machines MachineLister, threshold ThresholdReader, log *zap.Logger, recorder Recorder) *Service {
	return &Service{
		repo:      repo,
		machines:  machines,
		threshold: threshold,
		log:       log,
		recorder:  recorder,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateRequest describes a new draft quote.
type CreateRequest struct {
	CustomerName    string        `json:"customer_name"`
	DiscountPercent float64       `json:"discount_percent"`
	Materials       []MaterialRow `json:"materials"`
	Panels          []Panel       `json:"panels"`
	Fees            []LineRequest `json:"fees"`
	Accessories     []LineRequest `json:"accessories"`
}

// LineRequest describes a fee or accessory line to add.
type LineRequest struct {
	Name         string  `json:"name"`
	Quantity     float64 `json:"quantity"`
	UnitPriceNet float64 `json:"unit_price_net"`
	VATPercent   float64 `json:"vat_percent"`
}

// PaymentRequest describes a payment or, with a negative amount, a refund.
type PaymentRequest struct {
	Amount  float64 `json:"amount"`
	Method  string  `json:"method"`
	Comment string  `json:"comment"`
}

// Create stores a new draft quote with all lines priced.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Quote, error) {
	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		return nil, fmt.Errorf("%w: customer name is required", ErrInvalidLine)
	}
	if err := validatePercent(req.DiscountPercent); err != nil {
		return nil, ErrInvalidDiscount
	}

	now := s.now()
	q := &Quote{
		ID:              uuid.NewString(),
		CustomerName:    name,
		Status:          StatusDraft,
		DiscountPercent: req.DiscountPercent,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	q.QuoteNumber = documentNumber("Q", now, q.ID)

	for _, m := range req.Materials {
		if m.MaterialID == "" {
			return nil, fmt.Errorf("%w: material id is required", ErrInvalidLine)
		}
		if err := validateQuantity(m.Quantity, m.VATPercent); err != nil {
			return nil, err
		}
		if m.WasteMulti <= 0 {
			m.WasteMulti = 1
		}
		m.ID = uuid.NewString()
		q.Materials = append(q.Materials, m)
	}
	for _, p := range req.Panels {
		if p.MaterialID == "" || p.Quantity < 0 {
			return nil, fmt.Errorf("%w: panel needs a material and a non-negative quantity", ErrInvalidLine)
		}
		p.ID = uuid.NewString()
		q.Panels = append(q.Panels, p)
	}
	for _, lr := range req.Fees {
		l, err := s.newLine(LineFee, lr)
		if err != nil {
			return nil, err
		}
		q.Fees = append(q.Fees, l)
	}
	for _, lr := range req.Accessories {
		l, err := s.newLine(LineAccessory, lr)
		if err != nil {
			return nil, err
		}
		q.Accessories = append(q.Accessories, l)
	}

	Recalculate(q)
	if err := s.repo.CreateQuote(ctx, q); err != nil {
		return nil, fmt.Errorf("create quote: %w", err)
	}

	s.log.Info("quote created",
		zap.String("quote_id", q.ID),
		zap.String("quote_number", q.QuoteNumber),
		zap.Float64("final_total", q.Totals.FinalTotal),
	)
	return q, nil
}

// Get loads a quote and derives its totals from the stored line totals.
func (s *Service) Get(ctx context.Context, id string) (*Quote, error) {
	q, err := s.repo.GetQuote(ctx, id)
	if err != nil {
		return nil, err
	}
	q.Totals = ComputeTotals(q)
	return q, nil
}

// AddLine prices and appends a fee or accessory line.
func (s *Service) AddLine(ctx context.Context, id string, kind LineKind, req LineRequest) (*Quote, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.Status.Locked() {
		return nil, ErrQuoteLocked
	}

	l, err := s.newLine(kind, req)
	if err != nil {
		return nil, err
	}
	switch kind {
	case LineFee:
		q.Fees = append(q.Fees, l)
	case LineAccessory:
		q.Accessories = append(q.Accessories, l)
	}
	q.Totals = ComputeTotals(q)
	q.UpdatedAt = s.now()

	if err := s.repo.AddLine(ctx, q, l); err != nil {
		return nil, fmt.Errorf("add %s line: %w", kind, err)
	}
	return q, nil
}

// SetDiscount changes the discount percent of an unlocked quote.
func (s *Service) SetDiscount(ctx context.Context, id string, percent float64) (*Quote, error) {
	if err := validatePercent(percent); err != nil {
		return nil, ErrInvalidDiscount
	}

	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.Status.Locked() {
		return nil, ErrQuoteLocked
	}

	q.DiscountPercent = percent
	q.Totals = ComputeTotals(q)
	q.UpdatedAt = s.now()
	if err := s.repo.UpdateQuote(ctx, q); err != nil {
		return nil, fmt.Errorf("update discount: %w", err)
	}
	return q, nil
}

// RecordPayment validates and stores a payment or refund.
func (s *Service) RecordPayment(ctx context.Context, id string, req PaymentRequest) (*Quote, pricing.PaymentResult, error) {
	amount := pricing.RoundHalfUp(req.Amount)
	if amount == 0 {
		return nil, pricing.PaymentResult{}, ErrZeroPayment
	}

	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, pricing.PaymentResult{}, err
	}
	if q.Status == StatusCancelled && amount > 0 {
		return nil, pricing.PaymentResult{}, ErrQuoteLocked
	}

	result := pricing.EvaluatePayment(pricing.PaymentInput{
		FinalTotal: q.Totals.FinalTotal,
		TotalPaid:  float64(q.Totals.TotalPaid),
		Amount:     float64(amount),
	})
	if !result.Valid {
		return nil, result, fmt.Errorf("%w: %d > %d", ErrPaymentExceedsBalance, amount, result.RemainingBalance+pricing.PaymentTolerance)
	}
	if amount < 0 && q.Totals.TotalPaid+amount < 0 {
		return nil, result, ErrRefundExceedsPaid
	}

	p := Payment{
		ID:      uuid.NewString(),
		Amount:  amount,
		Method:  strings.TrimSpace(req.Method),
		Comment: strings.TrimSpace(req.Comment),
		PaidAt:  s.now(),
	}
	q.Payments = append(q.Payments, p)
	q.Totals = ComputeTotals(q)
	q.UpdatedAt = p.PaidAt

	if err := s.repo.AddPayment(ctx, q, p); err != nil {
		return nil, result, fmt.Errorf("record payment: %w", err)
	}
	if s.recorder != nil {
		s.recorder.PaymentRecorded(string(q.Totals.PaymentStatus))
	}

	s.log.Info("payment recorded",
		zap.String("quote_id", q.ID),
		zap.Int64("amount", amount),
		zap.String("payment_status", string(q.Totals.PaymentStatus)),
	)
	return q, result, nil
}

// CreateOrder turns a draft quote into an order. Every line is recomputed
// so the order carries totals produced by the current rounding rules.
func (s *Service) CreateOrder(ctx context.Context, id string) (*Quote, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !q.Status.CanTransition(StatusOrdered) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, q.Status, StatusOrdered)
	}

	now := s.now()
	Recalculate(q)
	q.Status = StatusOrdered
	q.OrderNumber = documentNumber("R", now, q.ID)
	q.UpdatedAt = now

	if err := s.repo.UpdateQuote(ctx, q); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.log.Info("order created",
		zap.String("quote_id", q.ID),
		zap.String("order_number", q.OrderNumber),
	)
	return q, nil
}

// Advance moves an order to the next lifecycle status.
func (s *Service) Advance(ctx context.Context, id string, next Status) (*Quote, error) {
	if next == StatusOrdered {
		return s.CreateOrder(ctx, id)
	}

	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !q.Status.CanTransition(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, q.Status, next)
	}

	q.Status = next
	q.UpdatedAt = s.now()
	if err := s.repo.UpdateQuote(ctx, q); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	return q, nil
}

// SuggestMachine runs the machine classifier on a stored quote. It reports
// false when there is not enough information for a recommendation.
func (s *Service) SuggestMachine(ctx context.Context, id string) (machine.Suggestion, bool, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return machine.Suggestion{}, false, err
	}

	machines, err := s.machines.ListMachines(ctx)
	if err != nil {
		return machine.Suggestion{}, false, fmt.Errorf("list machines: %w", err)
	}

	in := ClassifierInput(q)
	in.Machines = machines

	suggestion, ok := machine.Suggest(in, s.threshold.Threshold(ctx))
	if ok && s.recorder != nil {
		s.recorder.MachineSuggested(string(suggestion.Role))
	}
	return suggestion, ok, nil
}

// ClassifierInput extracts the panels and board usage of q.
func ClassifierInput(q *Quote) machine.Input {
	in := machine.Input{
		Panels:      make([]machine.Panel, 0, len(q.Panels)),
		PricingRows: make([]machine.PricingRow, 0, len(q.Materials)),
	}
	for _, p := range q.Panels {
		in.Panels = append(in.Panels, machine.Panel{MaterialID: p.MaterialID, Quantity: p.Quantity})
	}
	for _, m := range q.Materials {
		in.PricingRows = append(in.PricingRows, machine.PricingRow{
			MaterialID:      m.MaterialID,
			BoardWidthMM:    m.BoardWidthMM,
			BoardLengthMM:   m.BoardLengthMM,
			BoardsUsed:      m.BoardsUsed,
			UsagePercentage: m.UsagePercentage,
			ChargedSqm:      m.ChargedSqm,
			WasteMulti:      m.WasteMulti,
		})
	}
	return in
}

func (s *Service) newLine(kind LineKind, req LineRequest) (Line, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return Line{}, fmt.Errorf("%w: name is required", ErrInvalidLine)
	}
	if kind != LineFee && kind != LineAccessory {
		return Line{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidLine, kind)
	}
	if err := validateQuantity(req.Quantity, req.VATPercent); err != nil {
		return Line{}, err
	}
	if math.IsNaN(req.UnitPriceNet) || math.IsInf(req.UnitPriceNet, 0) {
		return Line{}, fmt.Errorf("%w: unit price must be a finite number", ErrInvalidLine)
	}

	l := Line{
		ID:           uuid.NewString(),
		Kind:         kind,
		Name:         name,
		Quantity:     req.Quantity,
		UnitPriceNet: req.UnitPriceNet,
		VATPercent:   req.VATPercent,
		CreatedAt:    s.now(),
	}
	l.Totals = pricing.Line(l.LineInput())
	return l, nil
}

func validateQuantity(quantity, vatPercent float64) error {
	if math.IsNaN(quantity) || math.IsInf(quantity, 0) || quantity < 0 {
		return fmt.Errorf("%w: quantity must be a non-negative number", ErrInvalidLine)
	}
	if err := validatePercent(vatPercent); err != nil {
		return fmt.Errorf("%w: vat percent must be between 0 and 100", ErrInvalidLine)
	}
	return nil
}

func validatePercent(v float64) error {
	if math.IsNaN(v) || v < 0 || v > 100 {
		return ErrInvalidDiscount
	}
	return nil
}

func documentNumber(prefix string, at time.Time, id string) string {
	short := strings.ToUpper(strings.ReplaceAll(id, "-", ""))
	if len(short) > 6 {
		short = short[:6]
	}
	return fmt.Sprintf("%s-%s-%s", prefix, at.Format("20060102"), short)
}
