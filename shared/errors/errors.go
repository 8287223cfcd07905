package errors

import (
	"errors"
	"net/http"
)

// default error is internal service error at handler level
// if error has different status code use ErrorWithStatusCode
type ErrorWithStatusCode struct {
	Message    string
	StatusCode int
}

func (e *ErrorWithStatusCode) Error() string {
	return e.Message
}

// NotFound: referenced entity does not exist at operation time.
func NotFound(message string) error {
	return &ErrorWithStatusCode{Message: message, StatusCode: http.StatusNotFound}
}

// PermissionDenied: caller's role or identity does not satisfy the operation.
func PermissionDenied(message string) error {
	return &ErrorWithStatusCode{Message: message, StatusCode: http.StatusForbidden}
}

// InvalidArgument: the request doesn't make sense as sent.
func InvalidArgument(message string) error {
	return &ErrorWithStatusCode{Message: message, StatusCode: http.StatusBadRequest}
}

// Unauthorized: no usable identity on the request.
func Unauthorized(message string) error {
	return &ErrorWithStatusCode{Message: message, StatusCode: http.StatusUnauthorized}
}

// Conflict: existing state violates a precondition.
func Conflict(message string) error {
	return &ErrorWithStatusCode{Message: message, StatusCode: http.StatusConflict}
}

func StatusCode(err error) int {
	var e *ErrorWithStatusCode
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return http.StatusInternalServerError
}

func IsNotFound(err error) bool {
	return err != nil && StatusCode(err) == http.StatusNotFound
}

func IsPermissionDenied(err error) bool {
	return err != nil && StatusCode(err) == http.StatusForbidden
}

func IsInvalidArgument(err error) bool {
	return err != nil && StatusCode(err) == http.StatusBadRequest
}

func IsConflict(err error) bool {
	return err != nil && StatusCode(err) == http.StatusConflict
}
