package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Simplici0/shopfloor/internal/pricing"
	"github.com/Simplici0/shopfloor/internal/quotes"
)

// CreateQuote stores q with its material, fee and accessory lines.
func (s *Store) CreateQuote(ctx context.Context, q *quotes.Quote) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		err := s.exec(ctx, tx, `
			INSERT INTO quotes (
				id, quote_number, order_number, customer_name, status, discount_percent,
				materials_gross, fees_gross, accessories_gross, subtotal, discount_amount, final_total,
				payment_status, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			q.ID, q.QuoteNumber, nullString(q.OrderNumber), q.CustomerName, string(q.Status), q.DiscountPercent,
			q.Totals.MaterialsGross, q.Totals.FeesGross, q.Totals.AccessoriesGross,
			q.Totals.Subtotal, q.Totals.DiscountAmount, q.Totals.FinalTotal,
			string(q.Totals.PaymentStatus), q.CreatedAt, q.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert quote: %w", err)
		}

		for i, m := range q.Materials {
			err := s.exec(ctx, tx, `
				INSERT INTO quote_materials (
					id, quote_id, position, material_id, material_name, quantity, unit_price_net, vat_percent,
					board_width_mm, board_length_mm, boards_used, usage_percentage, charged_sqm, waste_multi,
					net_total, vat_amount, gross_total
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
				m.ID, q.ID, i, m.MaterialID, m.MaterialName, m.Quantity, m.UnitPriceNet, m.VATPercent,
				m.BoardWidthMM, m.BoardLengthMM, m.BoardsUsed, m.UsagePercentage, m.ChargedSqm, m.WasteMulti,
				m.Totals.Net, m.Totals.VAT, m.Totals.Gross,
			)
			if err != nil {
				return fmt.Errorf("insert quote material: %w", err)
			}
		}

		for i, p := range q.Panels {
			err := s.exec(ctx, tx, `
				INSERT INTO quote_panels (id, quote_id, position, material_id, width_mm, length_mm, quantity)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, p.ID, q.ID, i, p.MaterialID, p.WidthMM, p.LengthMM, p.Quantity)
			if err != nil {
				return fmt.Errorf("insert quote panel: %w", err)
			}
		}

		for _, lines := range [][]quotes.Line{q.Fees, q.Accessories} {
			for i, l := range lines {
				if err := s.insertLine(ctx, tx, q.ID, i, l); err != nil {
					return err
				}
			}
		}

		for _, p := range q.Payments {
			if err := s.insertPayment(ctx, tx, q.ID, p); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetQuote loads a quote with its lines and payments or returns
// quotes.ErrNotFound.
func (s *Store) GetQuote(ctx context.Context, id string) (*quotes.Quote, error) {
	var q quotes.Quote
	var orderNumber sql.NullString
	var status, paymentStatus string
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT
			id, quote_number, order_number, customer_name, status, discount_percent,
			materials_gross, fees_gross, accessories_gross, subtotal, discount_amount, final_total,
			payment_status, created_at, updated_at
		FROM quotes
		WHERE id = ?
	`), id).Scan(
		&q.ID, &q.QuoteNumber, &orderNumber, &q.CustomerName, &status, &q.DiscountPercent,
		&q.Totals.MaterialsGross, &q.Totals.FeesGross, &q.Totals.AccessoriesGross,
		&q.Totals.Subtotal, &q.Totals.DiscountAmount, &q.Totals.FinalTotal,
		&paymentStatus, &q.CreatedAt, &q.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, quotes.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query quote: %w", err)
	}
	q.OrderNumber = orderNumber.String
	q.Status = quotes.Status(status)
	q.Totals.PaymentStatus = pricing.PaymentStatus(paymentStatus)

	if q.Materials, err = s.listQuoteMaterials(ctx, id); err != nil {
		return nil, err
	}
	if q.Panels, err = s.listQuotePanels(ctx, id); err != nil {
		return nil, err
	}
	if q.Fees, err = s.listQuoteLines(ctx, id, quotes.LineFee); err != nil {
		return nil, err
	}
	if q.Accessories, err = s.listQuoteLines(ctx, id, quotes.LineAccessory); err != nil {
		return nil, err
	}
	if q.Payments, err = s.listQuotePayments(ctx, id); err != nil {
		return nil, err
	}
	return &q, nil
}

// UpdateQuote stores the header, cached totals and material line totals of q.
func (s *Store) UpdateQuote(ctx context.Context, q *quotes.Quote) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.updateHeader(ctx, tx, q); err != nil {
			return err
		}
		for _, m := range q.Materials {
			err := s.exec(ctx, tx, `
				UPDATE quote_materials
				SET net_total = ?, vat_amount = ?, gross_total = ?
				WHERE id = ?
			`, m.Totals.Net, m.Totals.VAT, m.Totals.Gross, m.ID)
			if err != nil {
				return fmt.Errorf("update quote material totals: %w", err)
			}
		}
		for _, lines := range [][]quotes.Line{q.Fees, q.Accessories} {
			for _, l := range lines {
				err := s.exec(ctx, tx, `
					UPDATE quote_lines
					SET net_total = ?, vat_amount = ?, gross_total = ?
					WHERE id = ?
				`, l.Totals.Net, l.Totals.VAT, l.Totals.Gross, l.ID)
				if err != nil {
					return fmt.Errorf("update quote line totals: %w", err)
				}
			}
		}
		return nil
	})
}

// AddLine stores a new fee or accessory line and the refreshed totals of q.
func (s *Store) AddLine(ctx context.Context, q *quotes.Quote, l quotes.Line) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.insertLine(ctx, tx, q.ID, linePosition(q, l.Kind), l); err != nil {
			return err
		}
		return s.updateHeader(ctx, tx, q)
	})
}

// AddPayment stores a payment and the refreshed totals of q.
func (s *Store) AddPayment(ctx context.Context, q *quotes.Quote, p quotes.Payment) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.insertPayment(ctx, tx, q.ID, p); err != nil {
			return err
		}
		return s.updateHeader(ctx, tx, q)
	})
}

func (s *Store) updateHeader(ctx context.Context, tx *sql.Tx, q *quotes.Quote) error {
	err := s.exec(ctx, tx, `
		UPDATE quotes
		SET
			order_number = ?,
			status = ?,
			discount_percent = ?,
			materials_gross = ?,
			fees_gross = ?,
			accessories_gross = ?,
			subtotal = ?,
			discount_amount = ?,
			final_total = ?,
			payment_status = ?,
			updated_at = ?
		WHERE id = ?
	`,
		nullString(q.OrderNumber), string(q.Status), q.DiscountPercent,
		q.Totals.MaterialsGross, q.Totals.FeesGross, q.Totals.AccessoriesGross,
		q.Totals.Subtotal, q.Totals.DiscountAmount, q.Totals.FinalTotal,
		string(q.Totals.PaymentStatus), q.UpdatedAt, q.ID,
	)
	if err != nil {
		return fmt.Errorf("update quote: %w", err)
	}
	return nil
}

// linePosition is the index of the last line of the given kind, which is
// the one being added.
func linePosition(q *quotes.Quote, kind quotes.LineKind) int {
	if kind == quotes.LineAccessory {
		return len(q.Accessories) - 1
	}
	return len(q.Fees) - 1
}

func (s *Store) insertLine(ctx context.Context, tx *sql.Tx, quoteID string, position int, l quotes.Line) error {
	err := s.exec(ctx, tx, `
		INSERT INTO quote_lines (
			id, quote_id, kind, position, name, quantity, unit_price_net, vat_percent,
			net_total, vat_amount, gross_total, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		l.ID, quoteID, string(l.Kind), position, l.Name, l.Quantity, l.UnitPriceNet, l.VATPercent,
		l.Totals.Net, l.Totals.VAT, l.Totals.Gross, l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert quote line: %w", err)
	}
	return nil
}

func (s *Store) insertPayment(ctx context.Context, tx *sql.Tx, quoteID string, p quotes.Payment) error {
	err := s.exec(ctx, tx, `
		INSERT INTO quote_payments (id, quote_id, amount, method, comment, paid_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.ID, quoteID, p.Amount, p.Method, p.Comment, p.PaidAt)
	if err != nil {
		return fmt.Errorf("insert quote payment: %w", err)
	}
	return nil
}

func (s *Store) listQuoteMaterials(ctx context.Context, quoteID string) ([]quotes.MaterialRow, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT
			id, material_id, material_name, quantity, unit_price_net, vat_percent,
			board_width_mm, board_length_mm, boards_used, usage_percentage, charged_sqm, waste_multi,
			net_total, vat_amount, gross_total
		FROM quote_materials
		WHERE quote_id = ?
		ORDER BY position ASC
	`), quoteID)
	if err != nil {
		return nil, fmt.Errorf("query quote materials: %w", err)
	}
	defer rows.Close()

	materials := make([]quotes.MaterialRow, 0)
	for rows.Next() {
		var m quotes.MaterialRow
		if err := rows.Scan(
			&m.ID, &m.MaterialID, &m.MaterialName, &m.Quantity, &m.UnitPriceNet, &m.VATPercent,
			&m.BoardWidthMM, &m.BoardLengthMM, &m.BoardsUsed, &m.UsagePercentage, &m.ChargedSqm, &m.WasteMulti,
			&m.Totals.Net, &m.Totals.VAT, &m.Totals.Gross,
		); err != nil {
			return nil, fmt.Errorf("scan quote material: %w", err)
		}
		materials = append(materials, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quote materials: %w", err)
	}

	return materials, nil
}

func (s *Store) listQuotePanels(ctx context.Context, quoteID string) ([]quotes.Panel, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, material_id, width_mm, length_mm, quantity
		FROM quote_panels
		WHERE quote_id = ?
		ORDER BY position ASC
	`), quoteID)
	if err != nil {
		return nil, fmt.Errorf("query quote panels: %w", err)
	}
	defer rows.Close()

	panels := make([]quotes.Panel, 0)
	for rows.Next() {
		var p quotes.Panel
		if err := rows.Scan(&p.ID, &p.MaterialID, &p.WidthMM, &p.LengthMM, &p.Quantity); err != nil {
			return nil, fmt.Errorf("scan quote panel: %w", err)
		}
		panels = append(panels, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quote panels: %w", err)
	}

	return panels, nil
}

func (s *Store) listQuoteLines(ctx context.Context, quoteID string, kind quotes.LineKind) ([]quotes.Line, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, kind, name, quantity, unit_price_net, vat_percent, net_total, vat_amount, gross_total, created_at
		FROM quote_lines
		WHERE quote_id = ? AND kind = ?
		ORDER BY position ASC
	`), quoteID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("query quote lines: %w", err)
	}
	defer rows.Close()

	lines := make([]quotes.Line, 0)
	for rows.Next() {
		var l quotes.Line
		var k string
		if err := rows.Scan(
			&l.ID, &k, &l.Name, &l.Quantity, &l.UnitPriceNet, &l.VATPercent,
			&l.Totals.Net, &l.Totals.VAT, &l.Totals.Gross, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan quote line: %w", err)
		}
		l.Kind = quotes.LineKind(k)
		lines = append(lines, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quote lines: %w", err)
	}

	return lines, nil
}

func (s *Store) listQuotePayments(ctx context.Context, quoteID string) ([]quotes.Payment, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, amount, method, comment, paid_at
		FROM quote_payments
		WHERE quote_id = ?
		ORDER BY paid_at ASC, id ASC
	`), quoteID)
	if err != nil {
		return nil, fmt.Errorf("query quote payments: %w", err)
	}
	defer rows.Close()

	payments := make([]quotes.Payment, 0)
	for rows.Next() {
		var p quotes.Payment
		if err := rows.Scan(&p.ID, &p.Amount, &p.Method, &p.Comment, &p.PaidAt); err != nil {
			return nil, fmt.Errorf("scan quote payment: %w", err)
		}
		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quote payments: %w", err)
	}

	return payments, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
