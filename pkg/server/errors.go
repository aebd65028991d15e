package server

import (
	"fmt"
	"net/http"
)

// Error planner error with a kind the transport layer can map to a status code.
type Error struct {
	orig error
	msg  string
	code ErrorCode
}

type ErrorCode uint

const (
	ErrInternalServerError ErrorCode = iota
	ErrInvalidInput
	ErrEndpointUnresolvable
	ErrNoRouteFound
	ErrNoRoutesFound
	ErrGraphUnavailable
	ErrModelUnavailable
)

func (c ErrorCode) String() string {
	switch c {
	case ErrInvalidInput:
		return "InvalidInput"
	case ErrEndpointUnresolvable:
		return "EndpointUnresolvable"
	case ErrNoRouteFound:
		return "NoRouteFound"
	case ErrNoRoutesFound:
		return "NoRoutesFound"
	case ErrGraphUnavailable:
		return "GraphUnavailable"
	case ErrModelUnavailable:
		return "ModelUnavailable"
	default:
		return "Internal"
	}
}

// HTTPStatus status code a kind is reported with.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case ErrInvalidInput, ErrEndpointUnresolvable:
		return http.StatusBadRequest
	case ErrNoRouteFound, ErrNoRoutesFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func WrapErrorf(orig error, code ErrorCode, format string, a ...interface{}) error {
	return &Error{
		code: code,
		orig: orig,
		msg:  fmt.Sprintf(format, a...),
	}
}

func NewErrorf(code ErrorCode, format string, a ...interface{}) error {
	return WrapErrorf(nil, code, format, a...)
}

func (e *Error) Error() string {
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.orig)
	}
	return e.msg
}

func (e *Error) Unwrap() error {
	return e.orig
}

func (e *Error) Code() ErrorCode {
	return e.code
}

// Message the user facing message, without the wrapped error.
func (e *Error) Message() string {
	return e.msg
}
