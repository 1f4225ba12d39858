package acl

import (
	"context"
	"errors"
	"testing"
)

func TestRequire_MissingResourceIsNotFound(t *testing.T) {
	db := setupTestDB(t)
	ev := newTestEvaluator(db)
	guard := NewGuard(ev, NewSQLGateway(db))
	ctx := context.Background()

	// A write check against a nonexistent resource must surface not-found,
	// not forbidden: the caller's missing access is not the problem.
	err := guard.Require(ctx, "bob", ResourceAnnotation, "missing", LevelWrite)
	if !IsNotFound(err) {
		t.Errorf("Expected NotFoundError for missing resource, got %v", err)
	}
	if IsForbidden(err) {
		t.Errorf("Missing resource must not be reported as forbidden")
	}
}

func TestRequire_ForbiddenCarriesLevels(t *testing.T) {
	db := setupTestDB(t)
	ev := newTestEvaluator(db)
	guard := NewGuard(ev, NewSQLGateway(db))
	ctx := context.Background()

	insertDocument(t, db, "doc1")
	insertAnnotation(t, db, "ann1", "doc1", "alice", "")

	// bob holds an explicit read grant but no write.
	mustUpsert(t, NewGrantStore(db), &Grant{
		ResourceType:  ResourceAnnotation,
		ResourceID:    "ann1",
		PrincipalType: PrincipalUser,
		PrincipalID:   "bob",
		Level:         LevelRead,
	})
	err := guard.Require(ctx, "bob", ResourceAnnotation, "ann1", LevelWrite)
	if !IsForbidden(err) {
		t.Fatalf("Expected ForbiddenError, got %v", err)
	}

	var forbidden *ForbiddenError
	if !errors.As(err, &forbidden) {
		t.Fatalf("Expected *ForbiddenError, got %T", err)
	}
	if forbidden.Required != LevelWrite {
		t.Errorf("Expected required write, got %s", forbidden.Required)
	}
	if forbidden.Actual != LevelRead {
		t.Errorf("Expected actual read, got %s", forbidden.Actual)
	}
	if forbidden.ResourceType != ResourceAnnotation || forbidden.ResourceID != "ann1" {
		t.Errorf("Expected resource identity on the error, got %+v", forbidden)
	}
}

func TestRequire_Satisfied(t *testing.T) {
	db := setupTestDB(t)
	ev := newTestEvaluator(db)
	guard := NewGuard(ev, NewSQLGateway(db))
	ctx := context.Background()

	insertDocument(t, db, "doc1")
	insertAnnotation(t, db, "ann1", "doc1", "alice", "")
	mustUpsert(t, NewGrantStore(db), &Grant{
		ResourceType:  ResourceAnnotation,
		ResourceID:    "ann1",
		PrincipalType: PrincipalUser,
		PrincipalID:   "bob",
		Level:         LevelRead,
	})

	if err := guard.Require(ctx, "alice", ResourceAnnotation, "ann1", LevelWrite); err != nil {
		t.Errorf("Expected owner to pass a write check, got %v", err)
	}
	if err := guard.Require(ctx, "bob", ResourceAnnotation, "ann1", LevelRead); err != nil {
		t.Errorf("Expected granted read to pass a read check, got %v", err)
	}
	// A higher level satisfies a lower requirement.
	if err := guard.Require(ctx, "alice", ResourceAnnotation, "ann1", LevelRead); err != nil {
		t.Errorf("Expected write to satisfy a read check, got %v", err)
	}
}

func TestRequireExists(t *testing.T) {
	db := setupTestDB(t)
	ev := newTestEvaluator(db)
	guard := NewGuard(ev, NewSQLGateway(db))
	ctx := context.Background()

	insertDocument(t, db, "doc1")

	if err := guard.RequireExists(ctx, ResourceDocument, "doc1"); err != nil {
		t.Errorf("Expected existing document to pass, got %v", err)
	}
	if err := guard.RequireExists(ctx, ResourceDocument, "missing"); !IsNotFound(err) {
		t.Errorf("Expected NotFoundError, got %v", err)
	}
	if err := guard.RequireExists(ctx, ResourceType("folder"), "x"); !IsBadRequest(err) {
		t.Errorf("Expected BadRequestError for unknown type, got %v", err)
	}
}
