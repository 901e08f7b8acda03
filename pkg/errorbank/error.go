// Package errorbank classifies failures of the order store for callers.
//
// Storage and service code return plain errors; the edges (HTTP, gRPC, CLI)
// translate them into an AppError whose Kind decides the status shown to the
// user.
package errorbank

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
)

// Kind enumerates supported application error categories.
type Kind string

const (
	// KindBadRequest marks caller input that never reached the store, such as
	// a malformed order id or payload.
	KindBadRequest Kind = "bad_request"
	// KindNotFound marks an order id with no stored row.
	KindNotFound Kind = "not_found"
	// KindUnprocessableEntity marks a row the store refused (required field
	// empty or too long).
	KindUnprocessableEntity Kind = "unprocessable_entity"
	KindInternal            Kind = "internal"
)

type transportCodes struct {
	status int
	grpc   codes.Code
}

var kindCodes = map[Kind]transportCodes{
	KindBadRequest:          {status: http.StatusBadRequest, grpc: codes.InvalidArgument},
	KindNotFound:            {status: http.StatusNotFound, grpc: codes.NotFound},
	KindUnprocessableEntity: {status: http.StatusUnprocessableEntity, grpc: codes.FailedPrecondition},
	KindInternal:            {status: http.StatusInternalServerError, grpc: codes.Internal},
}

func (k Kind) codes() transportCodes {
	if c, ok := kindCodes[k]; ok {
		return c
	}
	return kindCodes[KindInternal]
}

// KindForStatus classifies an HTTP status produced outside the handlers, for
// example by the router for an unknown route or method.
func KindForStatus(status int) Kind {
	switch {
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusUnprocessableEntity:
		return KindUnprocessableEntity
	case status >= http.StatusBadRequest && status < http.StatusInternalServerError:
		return KindBadRequest
	default:
		return KindInternal
	}
}

// AppError carries a kind, a user-facing message, optional details and the
// underlying cause.
type AppError struct {
	kind    Kind
	message string
	details map[string]any
	cause   error
}

// Option mutates an AppError during construction.
type Option func(*AppError)

// WithCause attaches an underlying error.
func WithCause(err error) Option {
	return func(appErr *AppError) {
		appErr.cause = err
	}
}

// WithDetail adds a single named detail value, e.g. the offending order id.
func WithDetail(key string, value any) Option {
	return func(appErr *AppError) {
		if appErr.details == nil {
			appErr.details = make(map[string]any)
		}
		appErr.details[key] = value
	}
}

func newError(kind Kind, message string, opts []Option) *AppError {
	if message == "" {
		message = string(kind)
	}
	appErr := &AppError{kind: kind, message: message}
	for _, opt := range opts {
		opt(appErr)
	}
	return appErr
}

// BadRequest constructs an input error (HTTP 400).
func BadRequest(message string, opts ...Option) *AppError {
	return newError(KindBadRequest, message, opts)
}

// NotFound constructs a missing-order error (HTTP 404).
func NotFound(message string, opts ...Option) *AppError {
	return newError(KindNotFound, message, opts)
}

// Unprocessable constructs a store-rejection error (HTTP 422).
func Unprocessable(message string, opts ...Option) *AppError {
	return newError(KindUnprocessableEntity, message, opts)
}

// Internal constructs a generic failure (HTTP 500).
func Internal(message string, opts ...Option) *AppError {
	return newError(KindInternal, message, opts)
}

func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Kind returns the error category; a nil error counts as internal.
func (e *AppError) Kind() Kind {
	if e == nil {
		return KindInternal
	}
	return e.kind
}

// Message returns the user-facing message without the cause.
func (e *AppError) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

// Details returns optional metadata about the error.
func (e *AppError) Details() map[string]any {
	if e == nil {
		return nil
	}
	return e.details
}

// StatusCode resolves the HTTP status for the error kind.
func (e *AppError) StatusCode() int {
	return e.Kind().codes().status
}

// GRPCCode maps the error kind onto a gRPC status code.
func (e *AppError) GRPCCode() codes.Code {
	return e.Kind().codes().grpc
}

// IsKind reports whether err carries an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind() == kind
}

// From returns the AppError inside err, or wraps err as an internal failure.
func From(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("internal error", WithCause(err))
}
