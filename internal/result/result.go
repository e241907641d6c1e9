// internal/result/result.go

// Package result holds the error taxonomy shared by every workflow and the
// uniform success/error envelope returned at the HTTP boundary.
package result

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a workflow failure.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindUnauthorized      Kind = "unauthorized"
	KindBookUnavailable   Kind = "book_unavailable"
	KindInsufficientStock Kind = "insufficient_stock"
	KindAlreadyExists     Kind = "already_exists"
	KindInvalidInput      Kind = "invalid_input"
	KindConflict          Kind = "conflict"
	KindOperationFailed   Kind = "operation_failed"
)

// Error is a classified workflow error. Message is user-facing.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind so errors.Is(err, result.ErrNotFound) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// Kind sentinels for errors.Is.
var (
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrUnauthorized      = &Error{Kind: KindUnauthorized}
	ErrBookUnavailable   = &Error{Kind: KindBookUnavailable}
	ErrInsufficientStock = &Error{Kind: KindInsufficientStock}
	ErrAlreadyExists     = &Error{Kind: KindAlreadyExists}
	ErrInvalidInput      = &Error{Kind: KindInvalidInput}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrOperationFailed   = &Error{Kind: KindOperationFailed}
)

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error { return newf(KindNotFound, format, args...) }

func Unauthorized(format string, args ...any) *Error {
	return newf(KindUnauthorized, format, args...)
}

func BookUnavailable(format string, args ...any) *Error {
	return newf(KindBookUnavailable, format, args...)
}

func InsufficientStock(format string, args ...any) *Error {
	return newf(KindInsufficientStock, format, args...)
}

func AlreadyExists(format string, args ...any) *Error {
	return newf(KindAlreadyExists, format, args...)
}

func InvalidInput(format string, args ...any) *Error {
	return newf(KindInvalidInput, format, args...)
}

func Conflict(format string, args ...any) *Error { return newf(KindConflict, format, args...) }

// Failed wraps an untyped store or transport error as OperationFailed with
// the message passed through verbatim. Typed errors and nil pass unchanged.
func Failed(err error) error {
	if err == nil {
		return nil
	}
	return classify(err)
}

func classify(err error) *Error {
	var re *Error
	if errors.As(err, &re) {
		return re
	}
	return &Error{Kind: KindOperationFailed, Message: err.Error(), Err: err}
}

// KindOf reports the kind of err, or KindOperationFailed for untyped errors.
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindOperationFailed
}

// Result is the discriminated outcome of a workflow call.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Kind    Kind   `json:"kind,omitempty"`
}

// Of folds a (value, error) pair into a Result.
func Of[T any](v T, err error) Result[T] {
	if err != nil {
		re := classify(err)
		return Result[T]{Success: false, Error: re.Error(), Kind: re.Kind}
	}
	return Result[T]{Success: true, Data: v}
}

// OK is an empty payload for operations with nothing to return.
type OK struct{}

// Done folds an error-only outcome.
func Done(err error) Result[*OK] {
	if err != nil {
		return Of[*OK](nil, err)
	}
	return Of(&OK{}, nil)
}

// Write encodes r as JSON with status 200. Workflow failures are reported in
// the body, not the status line.
func Write[T any](w http.ResponseWriter, r Result[T]) {
	WriteJSON(w, http.StatusOK, r)
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes {"error": msg} with the given status. Used for transport
// level failures such as malformed requests.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"error": msg})
}
