package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// AppError is an error with an HTTP status and a stable code.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func NewAppError(code, field, message string, status int) *AppError {
	return &AppError{Code: code, Field: field, Message: message, Status: status}
}

// FromHTTPError maps echo's router errors (404, 405, bind failures) onto
// AppError; anything else becomes ERR_INTERNAL.
func FromHTTPError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code := "ERR_INTERNAL"
		switch he.Code {
		case http.StatusNotFound:
			code = "ERR_NOT_FOUND"
		case http.StatusMethodNotAllowed:
			code = "ERR_METHOD_NOT_ALLOWED"
		case http.StatusBadRequest:
			code = "ERR_BAD_REQUEST"
		}
		return &AppError{Code: code, Message: fmt.Sprint(he.Message), Status: he.Code, Err: err}
	}
	return &AppError{Code: "ERR_INTERNAL", Message: "Something went wrong", Status: http.StatusInternalServerError, Err: err}
}
