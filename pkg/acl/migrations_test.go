package acl

import (
	"context"
	"strings"
	"testing"
)

func TestGetMigrations(t *testing.T) {
	migrations := GetMigrations()
	if len(migrations) == 0 {
		t.Fatal("Expected at least one migration")
	}

	for i, m := range migrations {
		if m.Version != i+1 {
			t.Errorf("Expected version %d at position %d, got %d", i+1, i, m.Version)
		}
		if m.Description == "" {
			t.Errorf("Migration %d has no description", m.Version)
		}
		if strings.TrimSpace(m.SQL) == "" {
			t.Errorf("Migration %d has no SQL", m.Version)
		}
	}

	if !strings.Contains(migrations[0].SQL, "acl_grants") {
		t.Errorf("Expected the first migration to create acl_grants")
	}
}

func TestRunMigrations_Postgres(t *testing.T) {
	db := RequireDatabase(t)
	defer db.Close()
	ctx := context.Background()

	if err := RunMigrations(ctx, db); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}

	// Running twice is a no-op: applied versions are tracked.
	if err := RunMigrations(ctx, db); err != nil {
		t.Fatalf("Second RunMigrations failed: %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM acl_migrations").Scan(&count); err != nil {
		t.Fatalf("Failed to count applied migrations: %v", err)
	}
	if count != len(GetMigrations()) {
		t.Errorf("Expected %d applied migrations, got %d", len(GetMigrations()), count)
	}
}

func TestMigrationsCoverAuditLog(t *testing.T) {
	var found bool
	for _, m := range GetMigrations() {
		if strings.Contains(m.SQL, "acl_audit_log") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected a migration to create acl_audit_log")
	}
}
