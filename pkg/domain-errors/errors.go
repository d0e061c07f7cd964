// Package domainerrors provides coded errors for the application core.
//
// Services translate store sentinels and rule violations into coded errors so
// the transport layer can map them to HTTP statuses without inspecting
// free-form messages.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies the class of a domain error.
type Code string

const (
	// Transport-facing codes.
	CodeBadRequest   Code = "bad_request"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeInternal     Code = "internal"

	// Domain-rule codes. These are rejected operations, never silently absorbed.
	CodeIneligibleDonor       Code = "ineligible_donor"
	CodeInvalidTransition     Code = "invalid_transition"
	CodeInsufficientInventory Code = "insufficient_inventory"
	CodeRequestClosed         Code = "request_closed"
	CodeLedgerIntegrity       Code = "ledger_integrity_violation"
)

// DomainError carries a machine-readable code alongside a human message and an
// optional wrapped cause.
type DomainError struct {
	Code    Code
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error { return e.Err }

// New creates a coded error without a cause.
func New(code Code, message string) error {
	return &DomainError{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) error {
	return &DomainError{Code: code, Message: message, Err: err}
}

// Is reports whether err (or anything it wraps) carries the given code.
func Is(err error, code Code) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to its HTTP response status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeIneligibleDonor, CodeInvalidTransition, CodeRequestClosed:
		return http.StatusUnprocessableEntity
	case CodeInsufficientInventory:
		return http.StatusConflict
	case CodeLedgerIntegrity:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
