// Package errs classifies failures so handlers can pick a status code and a
// caller-safe message without inspecting error strings.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUpstream
	KindContent
	KindPersistence
	KindSession
	KindNotFound
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUpstream:
		return "upstream"
	case KindContent:
		return "content"
	case KindPersistence:
		return "persistence"
	case KindSession:
		return "session"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// Error is a classified error. Msg is safe to show to callers; Err keeps
// the full cause for server-side logs.
type Error struct {
	Kind   Kind
	Msg    string
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func Validation(msg string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Msg: msg, Fields: fields}
}

func Upstream(err error) *Error {
	return &Error{Kind: KindUpstream, Msg: "itinerary generation failed, please retry", Err: err}
}

func Content(err error) *Error {
	return &Error{Kind: KindContent, Msg: "model did not return valid structured data", Err: err}
}

func Persistence(err error) *Error {
	return &Error{Kind: KindPersistence, Msg: "storage unavailable", Err: err}
}

func Session(msg string, err error) *Error {
	return &Error{Kind: KindSession, Msg: msg, Err: err}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Msg: msg}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// PublicMessage returns the message a caller may see.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return "internal server error"
}

// FieldsOf returns per-field validation details, if any.
func FieldsOf(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindUpstream:
		return http.StatusBadGateway
	case KindContent:
		return http.StatusUnprocessableEntity
	case KindPersistence:
		return http.StatusServiceUnavailable
	case KindSession:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
