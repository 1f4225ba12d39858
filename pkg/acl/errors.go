package acl

import (
	"errors"
	"fmt"
)

// BadRequestError reports an invalid resource type, principal type, or level
// supplied to a mutating call. The caller must fix the input; retrying is
// pointless.
type BadRequestError struct {
	Field  string
	Value  string
	Reason string
}

func (e *BadRequestError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("bad request: %s %q: %s", e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("bad request: %s: %s", e.Field, e.Reason)
}

// NotFoundError reports that a referenced resource, grant tuple, or
// membership row does not exist. Distinct from ForbiddenError: existence
// checking is a separate concern from visibility, and masking not-found as
// forbidden is a presentation-layer decision.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// ForbiddenError reports that a resource exists but the caller's computed
// level is below the required threshold. It carries both levels for
// diagnostics; whether they reach the end user is the caller's call.
type ForbiddenError struct {
	ResourceType ResourceType
	ResourceID   string
	Required     Level
	Actual       Level
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("forbidden: %s %s requires %s, caller has %s",
		e.ResourceType, e.ResourceID, e.Required, e.Actual)
}

// StorageError wraps a backing-store failure. Fatal: propagated unmodified,
// never swallowed into a "none" decision, and not retried by this core.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsBadRequest reports whether err is a BadRequestError.
func IsBadRequest(err error) bool {
	var target *BadRequestError
	return errors.As(err, &target)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsForbidden reports whether err is a ForbiddenError.
func IsForbidden(err error) bool {
	var target *ForbiddenError
	return errors.As(err, &target)
}

// IsStorage reports whether err is a StorageError.
func IsStorage(err error) bool {
	var target *StorageError
	return errors.As(err, &target)
}

// storageErr wraps a driver error unless it is already typed.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsStorage(err) || IsNotFound(err) || IsBadRequest(err) || IsForbidden(err) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
