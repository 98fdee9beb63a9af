// Package apperr holds the error taxonomy shared by services and handlers,
// and the JSON rendering used by every HTTP handler.
package apperr

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// Kind classifies a failure for the transport layer.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindValidation
	KindUnauthorized
	KindInvalidCredentials
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindInvalidCredentials:
		return "invalid_credentials"
	default:
		return "internal"
	}
}

// Status maps a Kind to its HTTP status code.
func (k Kind) Status() int {
	switch k {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden, KindUnauthorized:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindValidation, KindInvalidCredentials:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure. Fields is only set for KindValidation.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *Error { return &Error{Kind: kind, Message: msg} }

func Unauthenticated(msg string) *Error { return New(KindUnauthenticated, msg) }

func Forbidden(msg string) *Error { return New(KindForbidden, msg) }

func NotFound(msg string) *Error { return New(KindNotFound, msg) }

func Conflict(msg string, err error) *Error {
	return &Error{Kind: KindConflict, Message: msg, Err: err}
}

func Unauthorized(msg string) *Error { return New(KindUnauthorized, msg) }

func InvalidCredentials(msg string) *Error { return New(KindInvalidCredentials, msg) }

// Validation carries a field -> message map.
func Validation(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: "invalid payload", Fields: fields}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
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

// Response is the body written for failed requests.
type Response struct {
	Message string            `json:"message"`
	Data    map[string]string `json:"data"`
}

// WriteJSON writes v as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError renders err. Unclassified errors are logged and hidden behind a
// generic message.
func WriteError(w http.ResponseWriter, logger *zap.SugaredLogger, err error) {
	var e *Error
	if !errors.As(err, &e) {
		if logger != nil {
			logger.Errorw("unhandled error", "err", err)
		}
		WriteJSON(w, http.StatusInternalServerError, Response{Message: "internal error"})
		return
	}
	if e.Kind == KindInternal && logger != nil {
		logger.Errorw("internal error", "err", err)
	}
	WriteJSON(w, e.Kind.Status(), Response{Message: e.Message, Data: e.Fields})
}
