package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeNotFound   = "not_found"
	CodeExtraction = "extraction_failed"
	CodeValidation = "validation_failed"
	CodeUpstream   = "upstream_failed"
	CodeUnauth     = "unauthorized"
)

// Error carries an HTTP status and a stable code alongside the cause.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("app error (%d)", e.Status)
	}
	return "app error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// NotFound reports that a referenced entity id does not exist.
func NotFound(entity, id string) *Error {
	return New(http.StatusNotFound, CodeNotFound, fmt.Errorf("%s %s not found", entity, id))
}

// Extraction wraps a failure to read or parse an uploaded file.
func Extraction(err error) *Error {
	return New(http.StatusUnprocessableEntity, CodeExtraction, fmt.Errorf("extract text: %w", err))
}

// Validation rejects a value at a strict boundary.
func Validation(field, msg string) *Error {
	return New(http.StatusBadRequest, CodeValidation, fmt.Errorf("invalid %s: %s", field, msg))
}

// Upstream reports a failed call to an external dependency such as the LLM.
func Upstream(err error) *Error {
	return New(http.StatusBadGateway, CodeUpstream, err)
}

func Unauthorized(err error) *Error {
	return New(http.StatusUnauthorized, CodeUnauth, err)
}

func IsNotFound(err error) bool   { return hasCode(err, CodeNotFound) }
func IsExtraction(err error) bool { return hasCode(err, CodeExtraction) }
func IsValidation(err error) bool { return hasCode(err, CodeValidation) }

func hasCode(err error, code string) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// Status maps any error to an HTTP status; unknown errors are 500.
func Status(err error) int {
	var e *Error
	if errors.As(err, &e) && e.Status != 0 {
		return e.Status
	}
	return http.StatusInternalServerError
}
