package acl

import (
	"context"
	"database/sql"
	"fmt"
)

// Migration is one numbered schema change.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// GetMigrations returns the schema owned by this core: the grant table and
// the audit trail. Resource tables (documents, annotations, comments,
// chats, groups, group_members, document_groups) belong to the surrounding
// system.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create acl_grants table",
			SQL: `
				CREATE TABLE IF NOT EXISTS acl_grants (
					resource_type VARCHAR(20) NOT NULL,
					resource_id VARCHAR(255) NOT NULL,
					principal_type VARCHAR(20) NOT NULL,
					principal_id VARCHAR(255) NOT NULL DEFAULT '',
					level VARCHAR(10) NOT NULL,
					granted_by VARCHAR(255),
					granted_at TIMESTAMP NOT NULL DEFAULT NOW(),
					expires_at TIMESTAMP,
					PRIMARY KEY (resource_type, resource_id, principal_type, principal_id)
				);

				CREATE INDEX idx_acl_grants_resource ON acl_grants(resource_type, resource_id);
				CREATE INDEX idx_acl_grants_principal ON acl_grants(principal_type, principal_id);
				CREATE INDEX idx_acl_grants_expires_at ON acl_grants(expires_at);
			`,
		},
		{
			Version:     2,
			Description: "Create acl_audit_log table",
			SQL: `
				CREATE TABLE IF NOT EXISTS acl_audit_log (
					id BIGSERIAL PRIMARY KEY,
					event_type VARCHAR(50) NOT NULL,
					actor_id VARCHAR(255) NOT NULL,
					resource_type VARCHAR(20) NOT NULL,
					resource_id VARCHAR(255) NOT NULL,
					principal_type VARCHAR(20),
					principal_id VARCHAR(255),
					level VARCHAR(10),
					created_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_acl_audit_log_resource ON acl_audit_log(resource_type, resource_id);
				CREATE INDEX idx_acl_audit_log_actor_id ON acl_audit_log(actor_id);
				CREATE INDEX idx_acl_audit_log_created_at ON acl_audit_log(created_at DESC);
			`,
		},
	}
}

// RunMigrations executes all pending migrations, tracking applied versions
// in acl_migrations. Each migration runs in its own transaction.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS acl_migrations (
			version INT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	rows, err := db.QueryContext(ctx, "SELECT version FROM acl_migrations ORDER BY version")
	if err != nil {
		return fmt.Errorf("failed to query migrations: %w", err)
	}

	appliedVersions := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		appliedVersions[version] = true
	}
	rows.Close()

	for _, migration := range GetMigrations() {
		if appliedVersions[migration.Version] {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}

		if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO acl_migrations (version, description) VALUES ($1, $2)",
			migration.Version, migration.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}
