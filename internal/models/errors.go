package models

import (
	"errors"
	"fmt"
)

// ErrNothingToCancel is returned by the ledger when a cancellation targets
// an article the customer has no active purchase of. It is recoverable:
// the caller's state is untouched.
var ErrNothingToCancel = errors.New("nothing to cancel")

// NotFoundError reports an unknown customer or article identity. The call
// that produced it has had no effect.
type NotFoundError struct {
	Entity string // "customer" or "article"
	Name   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.Name)
}

// PermissionDeniedError reports that the principal lacks the capability for
// a resource. Resource carries the exact table-equivalent name so callers
// can assert on which access was denied.
type PermissionDeniedError struct {
	Resource string
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("permission denied for table %s", e.Resource)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsPermissionDenied reports whether err is a PermissionDeniedError.
func IsPermissionDenied(err error) bool {
	var pd *PermissionDeniedError
	return errors.As(err, &pd)
}
