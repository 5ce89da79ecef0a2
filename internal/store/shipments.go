package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Simplici0/shopfloor/internal/shipments"
)

// CreateShipment stores a new shipment header.
func (s *Store) CreateShipment(ctx context.Context, sh *shipments.Shipment) error {
	err := s.exec(ctx, s.db, `
		INSERT INTO shipments (id, supplier_name, status, net_total, vat_amount, gross_total, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, sh.ID, sh.SupplierName, string(sh.Status), sh.Totals.Net, sh.Totals.VAT, sh.Totals.Gross, sh.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert shipment: %w", err)
	}
	return nil
}

// GetShipment loads a shipment with its items or returns
// shipments.ErrNotFound.
func (s *Store) GetShipment(ctx context.Context, id string) (*shipments.Shipment, error) {
	var sh shipments.Shipment
	var status string
	var receivedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, supplier_name, status, net_total, vat_amount, gross_total, created_at, received_at
		FROM shipments
		WHERE id = ?
	`), id).Scan(&sh.ID, &sh.SupplierName, &status, &sh.Totals.Net, &sh.Totals.VAT, &sh.Totals.Gross, &sh.CreatedAt, &receivedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shipments.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query shipment: %w", err)
	}
	sh.Status = shipments.Status(status)
	if receivedAt.Valid {
		sh.ReceivedAt = &receivedAt.Time
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, product_name, quantity, purchase_price_net, vat_percent, net_total, vat_amount, gross_total, created_at
		FROM shipment_items
		WHERE shipment_id = ?
		ORDER BY position ASC
	`), id)
	if err != nil {
		return nil, fmt.Errorf("query shipment items: %w", err)
	}
	defer rows.Close()

	sh.Items = make([]shipments.Item, 0)
	for rows.Next() {
		var it shipments.Item
		if err := rows.Scan(
			&it.ID, &it.ProductName, &it.Quantity, &it.PurchasePriceNet, &it.VATPercent,
			&it.Totals.Net, &it.Totals.VAT, &it.Totals.Gross, &it.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan shipment item: %w", err)
		}
		sh.Items = append(sh.Items, it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shipment items: %w", err)
	}

	return &sh, nil
}

// SaveReceived stores items not yet persisted and the received header.
func (s *Store) SaveReceived(ctx context.Context, sh *shipments.Shipment) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for i, it := range sh.Items {
			err := s.exec(ctx, tx, `
				INSERT INTO shipment_items (
					id, shipment_id, position, product_name, quantity, purchase_price_net, vat_percent,
					net_total, vat_amount, gross_total, created_at
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT (id) DO NOTHING
			`,
				it.ID, sh.ID, i, it.ProductName, it.Quantity, it.PurchasePriceNet, it.VATPercent,
				it.Totals.Net, it.Totals.VAT, it.Totals.Gross, it.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("insert shipment item: %w", err)
			}
		}

		var receivedAt sql.NullTime
		if sh.ReceivedAt != nil {
			receivedAt = sql.NullTime{Time: *sh.ReceivedAt, Valid: true}
		}
		err := s.exec(ctx, tx, `
			UPDATE shipments
			SET status = ?, net_total = ?, vat_amount = ?, gross_total = ?, received_at = ?
			WHERE id = ?
		`, string(sh.Status), sh.Totals.Net, sh.Totals.VAT, sh.Totals.Gross, receivedAt, sh.ID)
		if err != nil {
			return fmt.Errorf("update shipment: %w", err)
		}
		return nil
	})
}
