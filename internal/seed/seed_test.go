package seed

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/Simplici0/shopfloor/internal/config"
	"github.com/Simplici0/shopfloor/internal/db"
	"github.com/Simplici0/shopfloor/internal/machine"
	"github.com/Simplici0/shopfloor/internal/migrations"
	"github.com/Simplici0/shopfloor/internal/settings"
	"github.com/Simplici0/shopfloor/internal/store"
)

func openStore(t *testing.T) (*sql.DB, *store.Store) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "seed-test.db")
	database, err := db.OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := migrations.Up(database, config.DriverSQLite); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return database, store.New(database, config.DriverSQLite)
}

func TestRunIsIdempotent(t *testing.T) {
	database, st := openStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		stats, err := Run(ctx, st, Config{})
		if err != nil {
			t.Fatalf("run seed (iteration=%d): %v", i, err)
		}
		if i == 0 {
			if stats.Inserts != 4 {
				t.Fatalf("expected 4 inserts in first run, got %d", stats.Inserts)
			}
			continue
		}
		if stats.Inserts != 0 || stats.Updates != 0 {
			t.Fatalf("expected no writes in iteration %d, got %+v", i, stats)
		}
	}

	assertCount(t, database, `SELECT COUNT(*) FROM machines`, 3)
	assertCount(t, database, `SELECT COUNT(*) FROM settings WHERE key = 'machine_threshold'`, 1)

	threshold, err := st.GetSetting(ctx, settings.MachineThresholdKey)
	if err != nil {
		t.Fatalf("get threshold: %v", err)
	}
	if threshold != machine.DefaultThreshold {
		t.Fatalf("expected threshold %v, got %v", machine.DefaultThreshold, threshold)
	}

	machines, err := st.ListMachines(ctx)
	if err != nil {
		t.Fatalf("list machines: %v", err)
	}
	if _, ok := machine.ResolveRoles(machines); !ok {
		t.Fatalf("expected seeded machines to cover every role: %+v", machines)
	}
}

func TestRunKeepsExistingThreshold(t *testing.T) {
	_, st := openStore(t)
	ctx := context.Background()

	if err := st.SetSetting(ctx, settings.MachineThresholdKey, 0.5); err != nil {
		t.Fatalf("set threshold: %v", err)
	}
	if _, err := Run(ctx, st, Config{MachineThreshold: 0.2}); err != nil {
		t.Fatalf("run seed: %v", err)
	}

	got, err := st.GetSetting(ctx, settings.MachineThresholdKey)
	if err != nil {
		t.Fatalf("get threshold: %v", err)
	}
	if got != 0.5 {
		t.Fatalf("expected existing threshold 0.5 to be kept, got %v", got)
	}
}

func TestRunBackfillsLegacyMachineRoles(t *testing.T) {
	_, st := openStore(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	legacy := []machine.Machine{
		{ID: "m-late", Name: "Holzma B", CreatedAt: base.Add(2 * time.Hour)},
		{ID: "m-gyuri", Name: "Gyuri gépe", CreatedAt: base.Add(time.Hour)},
		{ID: "m-early", Name: "Holzma A", CreatedAt: base},
	}
	for _, m := range legacy {
		if err := st.CreateMachine(ctx, m); err != nil {
			t.Fatalf("create machine %s: %v", m.ID, err)
		}
	}

	stats, err := Run(ctx, st, Config{})
	if err != nil {
		t.Fatalf("run seed: %v", err)
	}
	if stats.Updates != 3 {
		t.Fatalf("expected 3 role updates, got %d", stats.Updates)
	}

	machines, err := st.ListMachines(ctx)
	if err != nil {
		t.Fatalf("list machines: %v", err)
	}
	if len(machines) != 3 {
		t.Fatalf("expected no default machines next to existing ones, got %d", len(machines))
	}

	want := map[string]machine.Role{
		"m-early": machine.RoleSmallPanel,
		"m-late":  machine.RoleLargePanel,
		"m-gyuri": machine.RoleSmallOrder,
	}
	for _, m := range machines {
		if m.Role != want[m.ID] {
			t.Fatalf("machine %s: expected role %q, got %q", m.ID, want[m.ID], m.Role)
		}
	}
}

func assertCount(t *testing.T, database *sql.DB, query string, expected int) {
	t.Helper()

	var count int
	if err := database.QueryRow(query).Scan(&count); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != expected {
		t.Fatalf("expected count %d, got %d", expected, count)
	}
}
