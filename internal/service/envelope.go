// Package service contains the business logic layer: validation,
// orchestration, and the uniform outcome envelope the presentation layer
// consumes.
package service

import (
	"errors"

	"github.com/sakif/pressroom/internal/apperror"
)

// Fault kinds. The presentation layer branches on Kind — validation faults
// re-render the form, auth faults redirect to sign-in, not-found renders a
// 404 page, storage faults show a generic "try again" banner.
const (
	KindValidation = "validation"
	KindAuth       = "auth"
	KindNotFound   = "not_found"
	KindStorage    = "storage"
	KindInternal   = "internal"
)

// Fault is the failure half of an envelope: a machine-readable kind, a
// human-readable message, and optional detail (the offending field for
// validation faults).
type Fault struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Envelope is the uniform outcome of every facade operation:
// success-with-data or failure-with-fault, never both, never a raised error.
//
// WHY AN ENVELOPE INSTEAD OF (T, error)?
// The facade is the boundary where faults stop propagating. Callers of the
// facade (HTTP handlers, the dashboard renderer) must handle both branches
// explicitly — a tagged result makes forgetting the failure branch a
// compile-time inconvenience instead of a runtime surprise. Inside the
// service and below, ordinary Go errors still flow as usual.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   *Fault `json:"error,omitempty"`
}

// Ok wraps data in a successful envelope.
func Ok[T any](data T) Envelope[T] {
	return Envelope[T]{Success: true, Data: data}
}

// Fail wraps a fault in a failed envelope. The Data field stays at its zero
// value.
func Fail[T any](f *Fault) Envelope[T] {
	return Envelope[T]{Success: false, Error: f}
}

// faultFor maps a domain error onto the caller-visible fault.
//
// Two deliberate properties:
//   - Conflict never appears here: the identity reconciler recovers it
//     internally, so by the time an error reaches the facade boundary a
//     conflict is a bug — it maps to the generic internal kind.
//   - Storage faults carry only the AppError's generic message. The real
//     cause stays in the wrapped chain, which the facade logs server-side.
func faultFor(err error) *Fault {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		switch {
		case errors.Is(err, apperror.ErrValidation):
			return &Fault{Kind: KindValidation, Message: appErr.Message, Details: appErr.Field}
		case errors.Is(err, apperror.ErrNotFound):
			return &Fault{Kind: KindNotFound, Message: appErr.Message}
		case errors.Is(err, apperror.ErrUnauthorized):
			return &Fault{Kind: KindAuth, Message: appErr.Message}
		case errors.Is(err, apperror.ErrStorage):
			return &Fault{Kind: KindStorage, Message: appErr.Message}
		}
	}

	// Unknown error — keep the details server-side.
	return &Fault{Kind: KindInternal, Message: "an internal error occurred"}
}
