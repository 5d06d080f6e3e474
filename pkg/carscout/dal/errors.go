package dal

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies failures so the transport layer can pick a status.
type ErrorKind string

const (
	KindUpstream   ErrorKind = "upstream"
	KindConfig     ErrorKind = "config"
	KindValidation ErrorKind = "validation"
	KindTimeout    ErrorKind = "timeout"
	KindNotFound   ErrorKind = "not_found"
)

// Error is a classified service error
type Error struct {
	Kind    ErrorKind
	Message string
	// Status is the upstream HTTP status for upstream errors, when known.
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error kind onto the response status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindUpstream:
		return http.StatusBadGateway
	case KindValidation:
		return http.StatusBadRequest
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func UpstreamError(message string, status int, err error) *Error {
	return &Error{Kind: KindUpstream, Message: message, Status: status, Err: err}
}

func ConfigError(message string) *Error {
	return &Error{Kind: KindConfig, Message: message}
}

func ValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func TimeoutError(message string, err error) *Error {
	return &Error{Kind: KindTimeout, Message: message, Err: err}
}

func NotFoundError(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
