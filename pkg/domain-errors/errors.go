// Package domainerrors defines the typed error values passed across every
// call boundary in the MCI. Each category of failure the API can surface is
// a distinct code, so handlers translate errors to HTTP statuses without
// string matching and services never lean on generic exceptions.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error.
type Code string

const (
	// CodeBadRequest covers malformed input, such as an unparseable or
	// empty request body.
	CodeBadRequest Code = "bad_request"

	// CodeValidation covers accumulated field-level validation failures.
	// Errors with this code carry the full problem list from normalization.
	CodeValidation Code = "validation"

	// CodeNotFound signals an identifier that does not resolve to any
	// individual. The API reports it as 410 Gone: the id will never
	// resolve, it is not temporarily absent.
	CodeNotFound Code = "not_found"

	// CodeMatchingUnavailable signals that the matching service could not
	// be reached or answered with a failure. Distinct from "no match
	// found": the system does not know whether a duplicate exists, so no
	// identity may be created.
	CodeMatchingUnavailable Code = "matching_unavailable"

	// CodeInternal covers unexpected failures. The boundary renders these
	// with a non-specific message and never leaks internal error text.
	CodeInternal Code = "internal"
)

// DomainError is the concrete error type carried between layers.
type DomainError struct {
	Code    Code
	Message string
	// Problems holds the accumulated field validation errors for
	// CodeValidation; empty for every other code.
	Problems []string
	Err      error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// New creates a DomainError with the given code and message.
func New(code Code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *DomainError {
	return &DomainError{Code: code, Message: message, Err: err}
}

// Validation builds a CodeValidation error carrying the accumulated
// field-level problem list.
func Validation(problems []string) *DomainError {
	return &DomainError{
		Code:     CodeValidation,
		Message:  "validation failed",
		Problems: problems,
	}
}

// Is reports whether err is a DomainError with the given code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// CodeOf extracts the code from err, or CodeInternal when err carries none.
func CodeOf(err error) Code {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ProblemsOf extracts the validation problem list from err, if any.
func ProblemsOf(err error) []string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Problems
	}
	return nil
}

// ToHTTPStatus maps a code to the status the reference deployment uses.
// Internal errors deliberately map to 400 with a generic body rather than
// 500, matching the observed boundary behavior.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeNotFound:
		return http.StatusGone
	case CodeBadRequest, CodeValidation, CodeMatchingUnavailable, CodeInternal:
		return http.StatusBadRequest
	default:
		return http.StatusBadRequest
	}
}
