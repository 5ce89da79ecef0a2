// Package shipments records incoming supplier shipments.
package shipments

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Simplici0/shopfloor/internal/pricing"
)

var (
	ErrNotFound        = errors.New("shipment not found")
	ErrAlreadyReceived = errors.New("shipment already received")
	ErrInvalidItem     = errors.New("invalid shipment item")
)

// Status is the receiving state of a shipment.
type Status string

const (
	StatusPending  Status = "pending"
	StatusReceived Status = "received"
)

// Item is a received product line priced at purchase price.
type Item struct {
	ID               string            `json:"id"`
	ProductName      string            `json:"product_name"`
	Quantity         float64           `json:"quantity"`
	PurchasePriceNet float64           `json:"purchase_price_net"`
	VATPercent       float64           `json:"vat_percent"`
	Totals           pricing.LineTotal `json:"totals"`
	CreatedAt        time.Time         `json:"created_at"`
}

// Shipment is a supplier delivery and its summed totals.
type Shipment struct {
	ID           string            `json:"id"`
	SupplierName string            `json:"supplier_name"`
	Status       Status            `json:"status"`
	Items        []Item            `json:"items"`
	Totals       pricing.LineTotal `json:"totals"`
	CreatedAt    time.Time         `json:"created_at"`
	ReceivedAt   *time.Time        `json:"received_at,omitempty"`
}

// ReceiveItem is a line of a delivery note.
type ReceiveItem struct {
	ProductName      string  `json:"product_name"`
	Quantity         float64 `json:"quantity"`
	PurchasePriceNet float64 `json:"purchase_price_net"`
	VATPercent       float64 `json:"vat_percent"`
}

// Repository persists shipments.
type Repository interface {
	CreateShipment(ctx context.Context, s *Shipment) error
	GetShipment(ctx context.Context, id string) (*Shipment, error)
	SaveReceived(ctx context.Context, s *Shipment) error
}

// Service creates and receives shipments.
type Service struct {
	repo Repository
	log  *zap.Logger
	now  func() time.Time
}

// NewService wires the shipment service.
func NewService(repo Repository, log *zap.Logger) *Service {
	return &Service{repo: repo, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// Create opens a pending shipment for a supplier.
func (s *Service) Create(ctx context.Context, supplierName string) (*Shipment, error) {
	supplierName = strings.TrimSpace(supplierName)
	if supplierName == "" {
		return nil, fmt.Errorf("%w: supplier name is required", ErrInvalidItem)
	}

	sh := &Shipment{
		ID:           uuid.NewString(),
		SupplierName: supplierName,
		Status:       StatusPending,
		CreatedAt:    s.now(),
	}
	if err := s.repo.CreateShipment(ctx, sh); err != nil {
		return nil, fmt.Errorf("create shipment: %w", err)
	}
	return sh, nil
}

// Receive prices every delivered item at quantity times purchase net price
// and marks the shipment received.
func (s *Service) Receive(ctx context.Context, id string, items []ReceiveItem) (*Shipment, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", ErrInvalidItem)
	}

	sh, err := s.repo.GetShipment(ctx, id)
	if err != nil {
		return nil, err
	}
	if sh.Status == StatusReceived {
		return nil, ErrAlreadyReceived
	}

	now := s.now()
	for _, in := range items {
		item, err := newItem(in, now)
		if err != nil {
			return nil, err
		}
		sh.Items = append(sh.Items, item)
		sh.Totals = sh.Totals.Add(item.Totals)
	}
	sh.Status = StatusReceived
	sh.ReceivedAt = &now

	if err := s.repo.SaveReceived(ctx, sh); err != nil {
		return nil, fmt.Errorf("save received shipment: %w", err)
	}

	s.log.Info("shipment received",
		zap.String("shipment_id", sh.ID),
		zap.Int("items", len(sh.Items)),
		zap.Int64("gross_total", sh.Totals.Gross),
	)
	return sh, nil
}

func newItem(in ReceiveItem, at time.Time) (Item, error) {
	name := strings.TrimSpace(in.ProductName)
	switch {
	case name == "":
		return Item{}, fmt.Errorf("%w: product name is required", ErrInvalidItem)
	case math.IsNaN(in.Quantity) || math.IsInf(in.Quantity, 0) || in.Quantity < 0:
		return Item{}, fmt.Errorf("%w: quantity must be non-negative", ErrInvalidItem)
	case math.IsNaN(in.PurchasePriceNet) || math.IsInf(in.PurchasePriceNet, 0) || in.PurchasePriceNet < 0:
		return Item{}, fmt.Errorf("%w: purchase price must be non-negative", ErrInvalidItem)
	case math.IsNaN(in.VATPercent) || in.VATPercent < 0 || in.VATPercent > 100:
		return Item{}, fmt.Errorf("%w: vat percent must be between 0 and 100", ErrInvalidItem)
	}

	item := Item{
		ID:               uuid.NewString(),
		ProductName:      name,
		Quantity:         in.Quantity,
		PurchasePriceNet: in.PurchasePriceNet,
		VATPercent:       in.VATPercent,
		CreatedAt:        at,
	}
	item.Totals = pricing.Line(pricing.LineInput{
		Quantity:     item.Quantity,
		UnitPriceNet: item.PurchasePriceNet,
		VATPercent:   item.VATPercent,
	})
	return item, nil
}
