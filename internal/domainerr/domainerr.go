// Package domainerr defines the error taxonomy shared by all core services.
// Every business failure carries a Kind so that the HTTP layer can map it to
// a status code without string matching, and so that callers can branch on
// the category with errors.As.
package domainerr

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Kind classifies a domain failure.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindConflict          Kind = "conflict"
	KindNotFound          Kind = "not_found"
	KindCreditLimit       Kind = "credit_limit_exceeded"
	KindInsufficientFunds Kind = "insufficient_funds"
	KindStock             Kind = "stock"
	KindHasPayments       Kind = "has_payments"
	KindClientInactive    Kind = "client_inactive"
	KindTransient         Kind = "transient"
	KindUnauthenticated   Kind = "unauthenticated"
	KindInternal          Kind = "internal"
)

// Error is the canonical domain error. Msg is safe to show to API clients.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an error of the given kind with a printf-style message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...interface{}) *Error {
	return New(KindValidation, format, args...)
}

func Conflict(format string, args ...interface{}) *Error {
	return New(KindConflict, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return New(KindNotFound, format, args...)
}

func CreditLimit(format string, args ...interface{}) *Error {
	return New(KindCreditLimit, format, args...)
}

func InsufficientFunds(format string, args ...interface{}) *Error {
	return New(KindInsufficientFunds, format, args...)
}

func Stock(format string, args ...interface{}) *Error {
	return New(KindStock, format, args...)
}

func HasPayments(format string, args ...interface{}) *Error {
	return New(KindHasPayments, format, args...)
}

func ClientInactive(format string, args ...interface{}) *Error {
	return New(KindClientInactive, format, args...)
}

func Transient(format string, args ...interface{}) *Error {
	return New(KindTransient, format, args...)
}

func Unauthenticated(format string, args ...interface{}) *Error {
	return New(KindUnauthenticated, format, args...)
}

// KindOf extracts the Kind of err, or KindInternal when err is not a domain
// error.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool { return KindOf(err) == kind }

// FromDB translates persistence-layer failures into the taxonomy.
// gorm's not-found stays a not-found with the caller's message; context
// timeouts and cancellations become transient so callers can distinguish
// an I/O hiccup from a business rejection.
func FromDB(err error, notFoundMsg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return NotFound("%s", notFoundMsg)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return &Error{Kind: KindTransient, Msg: "operación interrumpida por timeout", Err: err}
	default:
		return &Error{Kind: KindTransient, Msg: "error de almacenamiento", Err: err}
	}
}
