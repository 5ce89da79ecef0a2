package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Simplici0/shopfloor/internal/machine"
	"github.com/Simplici0/shopfloor/internal/settings"
)

// Store is the subset of the data store the seed writes to.
type Store interface {
	GetSetting(ctx context.Context, key string) (float64, error)
	SetSetting(ctx context.Context, key string, value float64) error
	ListMachines(ctx context.Context) ([]machine.Machine, error)
	CreateMachine(ctx context.Context, m machine.Machine) error
	SetMachineRoles(ctx context.Context, roles map[string]machine.Role) error
}

// Config contains the values required by startup seed.
type Config struct {
	MachineThreshold float64
	Now              func() time.Time
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Updates int
}

var defaultMachines = []machine.Machine{
	{Name: "Holzma 1", Comment: "sok kis lap", Role: machine.RoleSmallPanel, UsageLimitPerDay: 40},
	{Name: "Holzma 2", Comment: "nagy lapok", Role: machine.RoleLargePanel, UsageLimitPerDay: 30},
	{Name: "Kis rendelések", Comment: "kis rendelés, maradék lapok", Role: machine.RoleSmallOrder, UsageLimitPerDay: 20},
}

// Run executes the startup seed in an idempotent way. Machines created
// before roles were stored get their role assigned once here.
func Run(ctx context.Context, st Store, cfg Config) (Stats, error) {
	if cfg.MachineThreshold <= 0 {
		cfg.MachineThreshold = machine.DefaultThreshold
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}

	stats := Stats{}

	if err := ensureThreshold(ctx, st, cfg.MachineThreshold, &stats); err != nil {
		return Stats{}, err
	}
	if err := ensureMachines(ctx, st, cfg.Now, &stats); err != nil {
		return Stats{}, err
	}
	if err := backfillRoles(ctx, st, &stats); err != nil {
		return Stats{}, err
	}

	return stats, nil
}

func ensureThreshold(ctx context.Context, st Store, value float64, stats *Stats) error {
	_, err := st.GetSetting(ctx, settings.MachineThresholdKey)
	if err == nil {
		return nil
	}
	if !errors.Is(err, settings.ErrNotFound) {
		return fmt.Errorf("check machine threshold existence: %w", err)
	}

	if err := st.SetSetting(ctx, settings.MachineThresholdKey, value); err != nil {
		return fmt.Errorf("insert machine threshold: %w", err)
	}
	stats.Inserts++
	return nil
}

func ensureMachines(ctx context.Context, st Store, now func() time.Time, stats *Stats) error {
	existing, err := st.ListMachines(ctx)
	if err != nil {
		return fmt.Errorf("check machines existence: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	created := now()
	for i, m := range defaultMachines {
		m.ID = uuid.NewString()
		m.CreatedAt = created.Add(time.Duration(i) * time.Second)
		if err := st.CreateMachine(ctx, m); err != nil {
			return fmt.Errorf("insert default machine %q: %w", m.Name, err)
		}
		stats.Inserts++
	}
	return nil
}

func backfillRoles(ctx context.Context, st Store, stats *Stats) error {
	machines, err := st.ListMachines(ctx)
	if err != nil {
		return fmt.Errorf("list machines for role backfill: %w", err)
	}

	roles := machine.InferRoles(machines)
	if len(roles) == 0 {
		return nil
	}
	if err := st.SetMachineRoles(ctx, roles); err != nil {
		return fmt.Errorf("store inferred machine roles: %w", err)
	}
	stats.Updates += len(roles)
	return nil
}
