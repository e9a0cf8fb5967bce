package directory

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure for the caller.
type Kind string

const (
	KindMissingField    Kind = "MissingField"
	KindInvalidFormat   Kind = "InvalidFormat"
	KindNotFound        Kind = "NotFound"
	KindForbidden       Kind = "Forbidden"
	KindConflict        Kind = "Conflict"
	KindUpstreamFailure Kind = "UpstreamFailure"
)

// HTTPStatus maps the kind to its HTTP status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindMissingField, KindInvalidFormat:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure with a human-readable detail.
type Error struct {
	Kind   Kind
	Detail string

	// Err is the underlying store or channel error for UpstreamFailure.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err. Errors that are not an *Error are UpstreamFailure.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUpstreamFailure
}

func errMissingField(field string) error {
	return &Error{Kind: KindMissingField, Detail: field + " is required"}
}

func errInvalidFormat(detail string) error {
	return &Error{Kind: KindInvalidFormat, Detail: detail}
}

func errNotFound(detail string) error {
	return &Error{Kind: KindNotFound, Detail: detail}
}

func errForbidden(detail string) error {
	return &Error{Kind: KindForbidden, Detail: detail}
}

func errConflict(detail string) error {
	return &Error{Kind: KindConflict, Detail: detail}
}

// upstream wraps a collaborator failure. Already classified errors pass through.
func upstream(detail string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindUpstreamFailure, Detail: detail, Err: err}
}
