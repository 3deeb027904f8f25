package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindValidation       ErrorKind = "VALIDATION"
	KindNotFound         ErrorKind = "NOT_FOUND"
	KindStoreUnavailable ErrorKind = "STORE_UNAVAILABLE"
	KindReconciliation   ErrorKind = "RECONCILIATION"
	KindInternal         ErrorKind = "INTERNAL"
)

// Error is the error value returned by the panel core. Kind decides how the
// error is reported; UserMessage is only shown to callers for validation
// errors. Reconciliation carries a failure that happened while restoring
// state after Err, and never replaces Err.
type Error struct {
	Kind           ErrorKind
	UserMessage    string
	Err            error
	Reconciliation error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.UserMessage != "" {
		msg += ": " + e.UserMessage
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Reconciliation != nil {
		msg += " (reconciliation failed: " + e.Reconciliation.Error() + ")"
	}
	return msg
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if e.Reconciliation != nil {
		errs = append(errs, e.Reconciliation)
	}
	return errs
}

func NewValidationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, UserMessage: fmt.Sprintf(format, args...)}
}

func NewNotFoundError(what string, err error) *Error {
	return &Error{Kind: KindNotFound, UserMessage: what + " not found", Err: err}
}

func NewStoreUnavailableError(err error) *Error {
	return &Error{Kind: KindStoreUnavailable, Err: err}
}

func NewReconciliationError(err error) *Error {
	return &Error{Kind: KindReconciliation, Err: err}
}

func NewInternalError(err error) *Error {
	return &Error{Kind: KindInternal, Err: err}
}

// KindOf reports the kind of err, or KindInternal for errors that did not
// come from the core.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// AsError returns the core error inside err, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
