// Package apperr defines the error taxonomy shared by services and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindReference
	KindNotFound
	KindUnauthorized
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindReference:
		return "reference"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

// Violation is a single broken input rule.
type Violation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Error carries a Kind, a machine-readable Code and, for validation
// failures, every violated rule.
type Error struct {
	Kind       Kind
	Code       string
	Message    string
	Violations []Violation
	// Status overrides the HTTP status derived from Kind when non-zero.
	Status int
	Err    error
}

func (e *Error) Error() string {
	if len(e.Violations) > 0 {
		parts := make([]string, 0, len(e.Violations))
		for _, v := range e.Violations {
			parts = append(parts, v.Field+": "+v.Message)
		}
		return e.Message + ": " + strings.Join(parts, "; ")
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus maps the error to the status code rendered at the boundary.
func (e *Error) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	switch e.Kind {
	case KindValidation, KindConflict, KindReference:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func Validation(code, message string, violations ...Violation) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message, Violations: violations}
}

func Conflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

func Reference(code, message string) *Error {
	return &Error{Kind: KindReference, Code: code, Message: message}
}

func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

// MissingRelation reports a user/recipe or follower/author pair that does
// not exist. It is a NotFound error rendered as 400: the primary entity
// exists, only the link between the two is absent.
func MissingRelation(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message, Status: http.StatusBadRequest}
}

func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Code: "not_authenticated", Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Code: "permission_denied", Message: message}
}

// Wrap attaches cause to a new error of the given kind.
func Wrap(kind Kind, code, message string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: cause}
}

// As extracts an *Error from the chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns KindInternal for errors outside the taxonomy.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind and code.
func Is(err error, kind Kind, code string) bool {
	e, ok := As(err)
	return ok && e.Kind == kind && e.Code == code
}
