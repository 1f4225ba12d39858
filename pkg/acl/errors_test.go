package acl

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorPredicates(t *testing.T) {
	badReq := &BadRequestError{Field: "level", Value: "superuser", Reason: "unknown permission level"}
	notFound := &NotFoundError{Kind: "annotation", ID: "ann1"}
	forbidden := &ForbiddenError{ResourceType: ResourceAnnotation, ResourceID: "ann1", Required: LevelWrite, Actual: LevelRead}
	storage := &StorageError{Op: "get annotation", Err: errors.New("connection reset")}

	if !IsBadRequest(badReq) || IsBadRequest(notFound) {
		t.Errorf("IsBadRequest misclassified")
	}
	if !IsNotFound(notFound) || IsNotFound(forbidden) {
		t.Errorf("IsNotFound misclassified")
	}
	if !IsForbidden(forbidden) || IsForbidden(storage) {
		t.Errorf("IsForbidden misclassified")
	}
	if !IsStorage(storage) || IsStorage(badReq) {
		t.Errorf("IsStorage misclassified")
	}

	// Predicates see through wrapping.
	wrapped := fmt.Errorf("failed to check access: %w", forbidden)
	if !IsForbidden(wrapped) {
		t.Errorf("Expected predicate to unwrap")
	}
}

func TestStorageErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := storageErr("get annotation", cause)
	if !errors.Is(err, cause) {
		t.Errorf("Expected StorageError to unwrap to the cause")
	}
}

func TestStorageErrSkipsTypedErrors(t *testing.T) {
	if err := storageErr("op", nil); err != nil {
		t.Errorf("Expected nil passthrough, got %v", err)
	}

	notFound := &NotFoundError{Kind: "grant", ID: "x"}
	if got := storageErr("op", notFound); got != error(notFound) {
		t.Errorf("Expected typed error to pass through unwrapped, got %v", got)
	}
	if IsStorage(storageErr("op", notFound)) {
		t.Errorf("A typed error must not be re-wrapped as storage")
	}
}

func TestErrorMessages(t *testing.T) {
	forbidden := &ForbiddenError{ResourceType: ResourceAnnotation, ResourceID: "ann1", Required: LevelWrite, Actual: LevelRead}
	msg := forbidden.Error()
	if !strings.Contains(msg, "write") || !strings.Contains(msg, "read") {
		t.Errorf("Expected both levels in the message, got %q", msg)
	}

	notFound := &NotFoundError{Kind: "annotation", ID: "ann1"}
	if !strings.Contains(notFound.Error(), "ann1") {
		t.Errorf("Expected the id in the message, got %q", notFound.Error())
	}
}
