package acl

import (
	"context"
	"database/sql"
	"time"

	"github.com/sirupsen/logrus"
)

// Service ties the evaluator, guard, grant store, and membership index
// together behind the surface the surrounding system consumes: route
// handlers, tool-calling chat logic, and UI actions all come through here.
// The database handle is injected; its lifecycle (connect at startup, close
// at shutdown) belongs to the host application.
type Service struct {
	db        *sql.DB
	gateway   ResourceGateway
	store     *GrantStore
	groups    *GroupMembershipIndex
	evaluator *Evaluator
	guard     *Guard
	auditor   *Auditor
	metrics   *Metrics
}

// NewService wires the access-control core over an existing database
// handle. log and metrics may be nil.
func NewService(db *sql.DB, log *logrus.Logger, metrics *Metrics) *Service {
	gateway := NewSQLGateway(db)
	store := NewGrantStore(db)
	groups := NewGroupMembershipIndex(db)
	evaluator := NewEvaluator(gateway, store, groups)

	return &Service{
		db:        db,
		gateway:   gateway,
		store:     store,
		groups:    groups,
		evaluator: evaluator,
		guard:     NewGuard(evaluator, gateway),
		auditor:   NewAuditor(db, log),
		metrics:   metrics,
	}
}

// Groups exposes the membership index for collaborators that need group
// resolution outside an evaluation (for example UI membership listings).
func (s *Service) Groups() *GroupMembershipIndex {
	return s.groups
}

// Store exposes the grant store for the janitor and for tests.
func (s *Service) Store() *GrantStore {
	return s.store
}

// Evaluate resolves the user's effective level on a resource. Missing or
// forbidden resources resolve to LevelNone; storage failures propagate.
func (s *Service) Evaluate(ctx context.Context, userID string, typ ResourceType, id string) (Level, error) {
	start := time.Now()
	level, err := s.evaluator.Evaluate(ctx, userID, typ, id)
	s.metrics.observeEvaluation(typ, level, start, err)
	return level, err
}

// Require rejects with ForbiddenError when the user's level is below min,
// and with NotFoundError when the resource does not exist.
func (s *Service) Require(ctx context.Context, userID string, typ ResourceType, id string, min Level) error {
	err := s.guard.Require(ctx, userID, typ, id, min)
	if IsForbidden(err) {
		s.metrics.observeDenied(typ)
	}
	return err
}

// RequireExists rejects with NotFoundError when the resource is absent,
// independent of the caller's visibility into it.
func (s *Service) RequireExists(ctx context.Context, typ ResourceType, id string) error {
	return s.guard.RequireExists(ctx, typ, id)
}

// UpsertGrant writes a grant after verifying the caller holds write on the
// target resource.
func (s *Service) UpsertGrant(ctx context.Context, callerID string, grant *Grant) error {
	if err := grant.Validate(); err != nil {
		return err
	}
	if err := s.Require(ctx, callerID, grant.ResourceType, grant.ResourceID, LevelWrite); err != nil {
		return err
	}

	if grant.GrantedBy == nil {
		by := callerID
		grant.GrantedBy = &by
	}
	if err := s.store.UpsertGrant(ctx, grant); err != nil {
		return err
	}

	s.metrics.observeMutation("upsert")
	s.auditor.Record(ctx, &AuditEntry{
		EventType:     AuditGrantUpsert,
		ActorID:       callerID,
		ResourceType:  grant.ResourceType,
		ResourceID:    grant.ResourceID,
		PrincipalType: grant.PrincipalType,
		PrincipalID:   grant.PrincipalID,
		Level:         grant.Level.String(),
	})
	return nil
}

// DeleteGrant removes the exact grant tuple after verifying the caller
// holds write on the target resource. An absent tuple is a NotFoundError.
func (s *Service) DeleteGrant(ctx context.Context, callerID string, typ ResourceType, id string, principalType PrincipalType, principalID string) error {
	if err := s.Require(ctx, callerID, typ, id, LevelWrite); err != nil {
		return err
	}
	if err := s.store.DeleteGrant(ctx, typ, id, principalType, principalID); err != nil {
		return err
	}

	s.metrics.observeMutation("delete")
	s.auditor.Record(ctx, &AuditEntry{
		EventType:     AuditGrantDelete,
		ActorID:       callerID,
		ResourceType:  typ,
		ResourceID:    id,
		PrincipalType: principalType,
		PrincipalID:   principalID,
	})
	return nil
}

// ListForResource returns the live grants on a resource; the caller must
// hold write on it.
func (s *Service) ListForResource(ctx context.Context, callerID string, typ ResourceType, id string) ([]Grant, error) {
	if err := s.Require(ctx, callerID, typ, id, LevelWrite); err != nil {
		return nil, err
	}
	return s.store.ListForResource(ctx, typ, id)
}

// ListForPrincipal returns the live grants held by a principal. User
// principals may only be listed by themselves; group principals only by the
// group's owner. Public and share_link rows apply to everyone, so listing
// them is unrestricted.
func (s *Service) ListForPrincipal(ctx context.Context, callerID string, principalType PrincipalType, principalID string) ([]Grant, error) {
	switch principalType {
	case PrincipalUser:
		if callerID != principalID {
			return nil, &ForbiddenError{ResourceType: "", ResourceID: principalID, Required: LevelWrite, Actual: LevelNone}
		}
	case PrincipalGroup:
		owner, err := s.groups.IsOwner(ctx, callerID, principalID)
		if err != nil {
			return nil, err
		}
		if !owner {
			return nil, &ForbiddenError{ResourceType: ResourceGroup, ResourceID: principalID, Required: LevelWrite, Actual: LevelNone}
		}
	}
	return s.store.ListForPrincipal(ctx, principalType, principalID)
}

// MakePrivate flips the resource to private visibility and purges every
// grant on it except ones keyed to the owner's own user id, in a single
// transaction: a reader never observes the flag without the purge or the
// reverse. Only the owner may do this, and only for resource types that
// carry a visibility flag.
func (s *Service) MakePrivate(ctx context.Context, callerID string, typ ResourceType, id string) error {
	if !typ.Valid() {
		return &BadRequestError{Field: "resource_type", Value: string(typ), Reason: "unknown resource type"}
	}
	table, ok := visibilityTable(typ)
	if !ok {
		return &BadRequestError{Field: "resource_type", Value: string(typ), Reason: "resource type carries no visibility flag"}
	}

	res, err := s.gateway.Get(ctx, typ, id)
	if err != nil {
		return err
	}
	if res.OwnerID != callerID {
		actual, evalErr := s.evaluator.Evaluate(ctx, callerID, typ, id)
		if evalErr != nil {
			return evalErr
		}
		return &ForbiddenError{ResourceType: typ, ResourceID: id, Required: LevelWrite, Actual: actual}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin make-private", err)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE `+table+` SET visibility = $1 WHERE id = $2`,
		VisibilityPrivate, id)
	if err != nil {
		tx.Rollback()
		return storageErr("set visibility private", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		tx.Rollback()
		return storageErr("set visibility private", err)
	}
	if affected == 0 {
		tx.Rollback()
		return &NotFoundError{Kind: string(typ), ID: id}
	}

	if _, err := deleteNonOwnerGrantsTx(ctx, tx, typ, id, res.OwnerID); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return storageErr("commit make-private", err)
	}

	s.metrics.observeMutation("make_private")
	s.auditor.Record(ctx, &AuditEntry{
		EventType:    AuditMakePrivate,
		ActorID:      callerID,
		ResourceType: typ,
		ResourceID:   id,
	})
	return nil
}
