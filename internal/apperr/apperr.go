// Package apperr defines the error taxonomy shared by the server, the client
// SDK and the sync store, and maps it onto HTTP status codes and gRPC codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
)

// Kind classifies an error for propagation decisions.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindAuth
	KindNotFound
	KindUpload
	KindStorage
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindUpload:
		return "upload"
	case KindStorage:
		return "storage"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

const genericMessage = "Internal server error. Please try again later."

// Error carries a kind, a short human-readable message and an optional cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, apperr.ErrNotFound) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrAuth       = &Error{Kind: KindAuth}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrUpload     = &Error{Kind: KindUpload}
	ErrStorage    = &Error{Kind: KindStorage}
	ErrTransport  = &Error{Kind: KindTransport}
)

func Validation(msg string) error { return &Error{Kind: KindValidation, Msg: msg} }
func Auth(msg string) error       { return &Error{Kind: KindAuth, Msg: msg} }
func NotFound(msg string) error   { return &Error{Kind: KindNotFound, Msg: msg} }

// Upload wraps a media provider failure. The detail is surfaced to the caller.
func Upload(msg string, err error) error { return &Error{Kind: KindUpload, Msg: msg, Err: err} }

// Storage wraps an opaque persistence failure.
func Storage(err error) error { return &Error{Kind: KindStorage, Msg: "storage failure", Err: err} }

// Transport wraps a realtime push failure.
func Transport(err error) error { return &Error{Kind: KindTransport, Msg: "push failed", Err: err} }

// New builds an error of the given kind, used when decoding remote failures.
func New(kind Kind, msg string) error { return &Error{Kind: kind, Msg: msg} }

// KindOf returns the kind of the first *Error in the chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// HTTPStatus maps an error onto a response status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindAuth:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Public returns the message safe to show to an end user.
func Public(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return genericMessage
	}
	switch e.Kind {
	case KindValidation, KindAuth, KindNotFound:
		return e.Msg
	case KindUpload:
		if e.Err != nil {
			return e.Err.Error()
		}
		return e.Msg
	default:
		return genericMessage
	}
}

// GRPCCode maps an error onto a gRPC status code.
func GRPCCode(err error) codes.Code {
	switch KindOf(err) {
	case KindValidation:
		return codes.InvalidArgument
	case KindAuth:
		return codes.Unauthenticated
	case KindNotFound:
		return codes.NotFound
	default:
		return codes.Internal
	}
}

// FromStatus maps an HTTP status code back onto a kind.
func FromStatus(status int) Kind {
	switch {
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status >= 400 && status < 500:
		return KindValidation
	default:
		return KindStorage
	}
}
