package acl

import (
	"context"
	"testing"
	"time"
)

func TestNewJanitor_RejectsBadSchedule(t *testing.T) {
	db := setupTestDB(t)
	store := NewGrantStore(db)

	_, err := NewJanitor(store, "not a cron expression", nil, nil)
	if !IsBadRequest(err) {
		t.Errorf("Expected BadRequestError for malformed schedule, got %v", err)
	}
}

func TestJanitorSweep(t *testing.T) {
	db := setupTestDB(t)
	store := NewGrantStore(db)
	ctx := context.Background()

	expired := time.Now().Add(-time.Minute)
	mustUpsert(t, store, &Grant{
		ResourceType:  ResourceAnnotation,
		ResourceID:    "ann1",
		PrincipalType: PrincipalUser,
		PrincipalID:   "bob",
		Level:         LevelRead,
		ExpiresAt:     &expired,
	})
	mustUpsert(t, store, &Grant{
		ResourceType:  ResourceAnnotation,
		ResourceID:    "ann2",
		PrincipalType: PrincipalUser,
		PrincipalID:   "bob",
		Level:         LevelRead,
	})

	j, err := NewJanitor(store, "*/30 * * * *", nil, nil)
	if err != nil {
		t.Fatalf("NewJanitor failed: %v", err)
	}
	j.sweep()

	grants, err := store.ListForPrincipal(ctx, PrincipalUser, "bob")
	if err != nil {
		t.Fatalf("ListForPrincipal failed: %v", err)
	}
	if len(grants) != 1 || grants[0].ResourceID != "ann2" {
		t.Errorf("Expected only the permanent grant to survive the sweep, got %+v", grants)
	}
}

func TestJanitorStartStop(t *testing.T) {
	db := setupTestDB(t)
	store := NewGrantStore(db)

	j, err := NewJanitor(store, "*/30 * * * *", nil, nil)
	if err != nil {
		t.Fatalf("NewJanitor failed: %v", err)
	}

	j.Start()
	done := make(chan struct{})
	go func() {
		j.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}
}
