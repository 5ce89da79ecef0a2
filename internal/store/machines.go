package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Simplici0/shopfloor/internal/machine"
)

// ListMachines returns all machines, oldest first.
func (s *Store) ListMachines(ctx context.Context) ([]machine.Machine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, comment, role, usage_limit_per_day, created_at
		FROM machines
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query machines: %w", err)
	}
	defer rows.Close()

	machines := make([]machine.Machine, 0)
	for rows.Next() {
		var m machine.Machine
		var role string
		if err := rows.Scan(&m.ID, &m.Name, &m.Comment, &role, &m.UsageLimitPerDay, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan machine: %w", err)
		}
		m.Role = machine.Role(role)
		machines = append(machines, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate machines: %w", err)
	}

	return machines, nil
}

// CreateMachine stores a new machine.
func (s *Store) CreateMachine(ctx context.Context, m machine.Machine) error {
	err := s.exec(ctx, s.db, `
		INSERT INTO machines (id, name, comment, role, usage_limit_per_day, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, m.ID, m.Name, m.Comment, string(m.Role), m.UsageLimitPerDay, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert machine: %w", err)
	}
	return nil
}

// SetMachineRoles stores the given roles, keyed by machine ID.
func (s *Store) SetMachineRoles(ctx context.Context, roles map[string]machine.Role) error {
	if len(roles) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for id, role := range roles {
			if err := s.exec(ctx, tx, `UPDATE machines SET role = ? WHERE id = ?`, string(role), id); err != nil {
				return fmt.Errorf("update role of machine %s: %w", id, err)
			}
		}
		return nil
	})
}
