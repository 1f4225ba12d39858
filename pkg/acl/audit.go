package acl

import (
	"context"
	"database/sql"
	"time"

	"github.com/sirupsen/logrus"
)

// Audit event types recorded by the service.
const (
	AuditGrantUpsert = "grant.upsert"
	AuditGrantDelete = "grant.delete"
	AuditMakePrivate = "resource.make_private"
)

// AuditEntry is one row of the access-control audit trail.
type AuditEntry struct {
	ID            int64         `json:"id"`
	EventType     string        `json:"event_type"`
	ActorID       string        `json:"actor_id"`
	ResourceType  ResourceType  `json:"resource_type"`
	ResourceID    string        `json:"resource_id"`
	PrincipalType PrincipalType `json:"principal_type,omitempty"`
	PrincipalID   string        `json:"principal_id,omitempty"`
	Level         string        `json:"level,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Auditor records grant mutations and make-private operations to the
// acl_audit_log table. Writes are fire-and-forget: an audit failure is
// logged but never fails the guarded operation that triggered it.
type Auditor struct {
	db  *sql.DB
	log *logrus.Logger
}

// NewAuditor creates an auditor over an existing database handle. A nil
// logger falls back to the logrus standard logger.
func NewAuditor(db *sql.DB, log *logrus.Logger) *Auditor {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Auditor{db: db, log: log}
}

// Record writes the entry, logging on failure instead of returning it.
func (a *Auditor) Record(ctx context.Context, entry *AuditEntry) {
	if a == nil {
		return
	}

	entry.CreatedAt = time.Now()
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO acl_audit_log (event_type, actor_id, resource_type, resource_id, principal_type, principal_id, level, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		entry.EventType,
		entry.ActorID,
		entry.ResourceType,
		entry.ResourceID,
		entry.PrincipalType,
		entry.PrincipalID,
		entry.Level,
		entry.CreatedAt,
	)
	if err != nil {
		a.log.WithError(err).WithFields(logrus.Fields{
			"event_type":    entry.EventType,
			"actor_id":      entry.ActorID,
			"resource_type": entry.ResourceType,
			"resource_id":   entry.ResourceID,
		}).Warn("failed to write audit entry")
	}
}

// ListForResource returns the audit trail for one resource, newest first.
func (a *Auditor) ListForResource(ctx context.Context, typ ResourceType, id string, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT id, event_type, actor_id, resource_type, resource_id, principal_type, principal_id, level, created_at
		FROM acl_audit_log
		WHERE resource_type = $1 AND resource_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`, typ, id, limit)
	if err != nil {
		return nil, storageErr("list audit entries", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(
			&e.ID,
			&e.EventType,
			&e.ActorID,
			&e.ResourceType,
			&e.ResourceID,
			&e.PrincipalType,
			&e.PrincipalID,
			&e.Level,
			&e.CreatedAt,
		); err != nil {
			return nil, storageErr("scan audit entry", err)
		}
		entries = append(entries, e)
	}
	return entries, storageErr("list audit entries", rows.Err())
}
