package errors

import (
	"fmt"
	"net/http"
	"time"
)

// AppError is the error type handlers translate into API responses
type AppError struct {
	Raw       error
	HTTPCode  int
	Code      ErrorCode
	Message   string
	Details   map[string]string
	Timestamp time.Time
}

// Error implements error interface
func (e AppError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Raw)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap exposes the underlying cause
func (e AppError) Unwrap() error {
	return e.Raw
}

// WithDetail adds a detail to the error
func (e AppError) WithDetail(key, value string) AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// General Errors
func ErrInternal(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTERNAL,
		Message:  "Internal server error",
	}
}

func ErrInvalidArgument(message string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_ARGUMENT,
		Message:  message,
	}
}

func ErrInvalidPayload() AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_PAYLOAD,
		Message:  "Invalid payload",
	}
}

// Tester Errors
func ErrTesterNotFound(testerID string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_TESTER_NOT_FOUND,
		Message:  "Tester not found",
	}.WithDetail("tester_id", testerID)
}

func ErrTesterAlreadyExists(email string) AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_TESTER_ALREADY_EXIST,
		Message:  "Tester already registered",
	}.WithDetail("email", email)
}

func ErrAgentAlreadyLinked(agentID string) AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_ALREADY_EXISTS,
		Message:  "Agent already linked to another tester",
	}.WithDetail("agent_id", agentID)
}

func ErrAgentNotLinked(agentID string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_AGENT_NOT_LINKED,
		Message:  "No tester linked to agent",
	}.WithDetail("agent_id", agentID)
}

// Webhook Errors
func ErrInvalidSignature() AppError {
	return AppError{
		HTTPCode: http.StatusUnauthorized,
		Code:     ErrorCode_WEBHOOK_INVALID_SIGNATURE,
		Message:  "Invalid webhook signature",
	}
}

func ErrUnknownAgent(agentID string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_WEBHOOK_UNKNOWN_AGENT,
		Message:  "No tester linked to agent",
	}.WithDetail("agent_id", agentID)
}

// Export Errors

func ErrUnsupportedFormat(format string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_ARGUMENT,
		Message:  "Unsupported export format",
	}.WithDetail("format", format)
}

// Integration Errors
func ErrStorageDisabled() AppError {
	return AppError{
		HTTPCode: http.StatusServiceUnavailable,
		Code:     ErrorCode_INTEGRATION_STORAGE_FAILED,
		Message:  "Object storage is not configured",
	}
}

