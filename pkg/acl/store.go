package acl

import (
	"context"
	"database/sql"
	"time"
)

// GrantSource is what the evaluator needs from the grant table.
type GrantSource interface {
	// GrantsForResource returns the live (non-expired) grants on a resource.
	GrantsForResource(ctx context.Context, typ ResourceType, id string) ([]Grant, error)
}

// GrantStore persists explicit ACL grants. The
// (resource_type, resource_id, principal_type, principal_id) tuple is the
// primary key; UpsertGrant overwrites the level for an existing tuple.
type GrantStore struct {
	db *sql.DB
}

// NewGrantStore creates a grant store over an existing database handle.
func NewGrantStore(db *sql.DB) *GrantStore {
	return &GrantStore{db: db}
}

const grantColumns = `resource_type, resource_id, principal_type, principal_id, level, granted_by, granted_at, expires_at`

// UpsertGrant writes a grant, overwriting the level if the tuple already
// exists. Re-issuing the same tuple never appends a second row.
func (s *GrantStore) UpsertGrant(ctx context.Context, grant *Grant) error {
	if err := grant.Validate(); err != nil {
		return err
	}

	now := time.Now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO acl_grants (resource_type, resource_id, principal_type, principal_id, level, granted_by, granted_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (resource_type, resource_id, principal_type, principal_id)
		DO UPDATE SET level = EXCLUDED.level, granted_by = EXCLUDED.granted_by,
		              granted_at = EXCLUDED.granted_at, expires_at = EXCLUDED.expires_at
	`,
		grant.ResourceType,
		grant.ResourceID,
		grant.PrincipalType,
		grant.PrincipalID,
		grant.Level.String(),
		grant.GrantedBy,
		now,
		grant.ExpiresAt,
	)
	if err != nil {
		return storageErr("upsert grant", err)
	}

	grant.GrantedAt = now
	return nil
}

// DeleteGrant removes the exact grant tuple. A tuple that does not exist is
// a NotFoundError so callers can tell "already absent" from "removed".
func (s *GrantStore) DeleteGrant(ctx context.Context, typ ResourceType, id string, principalType PrincipalType, principalID string) error {
	if !typ.Valid() {
		return &BadRequestError{Field: "resource_type", Value: string(typ), Reason: "unknown resource type"}
	}
	if !principalType.Valid() {
		return &BadRequestError{Field: "principal_type", Value: string(principalType), Reason: "unknown principal type"}
	}

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM acl_grants
		WHERE resource_type = $1 AND resource_id = $2
		  AND principal_type = $3 AND principal_id = $4
	`, typ, id, principalType, principalID)
	if err != nil {
		return storageErr("delete grant", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return storageErr("delete grant", err)
	}
	if affected == 0 {
		return &NotFoundError{Kind: "grant", ID: string(typ) + "/" + id + "/" + string(principalType) + "/" + principalID}
	}
	return nil
}

// ListForResource returns the live grants on a resource.
func (s *GrantStore) ListForResource(ctx context.Context, typ ResourceType, id string) ([]Grant, error) {
	if !typ.Valid() {
		return nil, &BadRequestError{Field: "resource_type", Value: string(typ), Reason: "unknown resource type"}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+grantColumns+`
		FROM acl_grants
		WHERE resource_type = $1 AND resource_id = $2
		  AND (expires_at IS NULL OR expires_at > $3)
		ORDER BY principal_type, principal_id
	`, typ, id, time.Now())
	if err != nil {
		return nil, storageErr("list grants for resource", err)
	}
	defer rows.Close()

	return scanGrants(rows)
}

// ListForPrincipal returns the live grants held by a principal.
func (s *GrantStore) ListForPrincipal(ctx context.Context, principalType PrincipalType, principalID string) ([]Grant, error) {
	if !principalType.Valid() {
		return nil, &BadRequestError{Field: "principal_type", Value: string(principalType), Reason: "unknown principal type"}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+grantColumns+`
		FROM acl_grants
		WHERE principal_type = $1 AND principal_id = $2
		  AND (expires_at IS NULL OR expires_at > $3)
		ORDER BY resource_type, resource_id
	`, principalType, principalID, time.Now())
	if err != nil {
		return nil, storageErr("list grants for principal", err)
	}
	defer rows.Close()

	return scanGrants(rows)
}

// GrantsForResource implements GrantSource for the evaluator.
func (s *GrantStore) GrantsForResource(ctx context.Context, typ ResourceType, id string) ([]Grant, error) {
	return s.ListForResource(ctx, typ, id)
}

// PurgeExpired deletes grants whose expiry has passed. Expired rows are
// already invisible to lookups; this reclaims the storage.
func (s *GrantStore) PurgeExpired(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM acl_grants WHERE expires_at IS NOT NULL AND expires_at <= $1`,
		time.Now())
	if err != nil {
		return 0, storageErr("purge expired grants", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, storageErr("purge expired grants", err)
	}
	return affected, nil
}

// deleteNonOwnerGrantsTx removes every grant on a resource except ones keyed
// to the owner's own user id, inside the caller's transaction. Used by the
// make-private composite so the visibility flip and the purge commit or roll
// back together.
func deleteNonOwnerGrantsTx(ctx context.Context, tx *sql.Tx, typ ResourceType, id, ownerID string) (int64, error) {
	result, err := tx.ExecContext(ctx, `
		DELETE FROM acl_grants
		WHERE resource_type = $1 AND resource_id = $2
		  AND NOT (principal_type = $3 AND principal_id = $4)
	`, typ, id, PrincipalUser, ownerID)
	if err != nil {
		return 0, storageErr("purge non-owner grants", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, storageErr("purge non-owner grants", err)
	}
	return affected, nil
}

func scanGrants(rows *sql.Rows) ([]Grant, error) {
	var grants []Grant
	for rows.Next() {
		var g Grant
		var level string
		var grantedBy sql.NullString
		var expiresAt sql.NullTime

		if err := rows.Scan(
			&g.ResourceType,
			&g.ResourceID,
			&g.PrincipalType,
			&g.PrincipalID,
			&level,
			&grantedBy,
			&g.GrantedAt,
			&expiresAt,
		); err != nil {
			return nil, storageErr("scan grant", err)
		}

		parsed, err := ParseLevel(level)
		if err != nil {
			return nil, storageErr("scan grant", err)
		}
		g.Level = parsed

		if grantedBy.Valid {
			by := grantedBy.String
			g.GrantedBy = &by
		}
		if expiresAt.Valid {
			at := expiresAt.Time
			g.ExpiresAt = &at
		}

		grants = append(grants, g)
	}
	return grants, storageErr("scan grants", rows.Err())
}
