package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Validation error taxonomy. Only ErrUnsupportedFormat escapes the validation
// boundary; the rest are folded into the record's anomaly list.
var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrExtraction        = errors.New("extraction error")
	ErrOracleParse       = errors.New("oracle response parse error")
	ErrIndexUnavailable  = errors.New("similarity index unavailable")
	ErrInvalidInput      = errors.New("invalid input")
)

// NewAppError builds an AppError with a stable code for logs and API payloads.
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
