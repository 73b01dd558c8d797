package errors

import "errors"

// Common errors
var (
	ErrInvalidInput = errors.New("invalid input")
)

// Tester errors
var (
	ErrAgentAlreadyLinked = errors.New("agent already linked to another tester")
	ErrEmptyAgentID       = errors.New("agent id is required")
)

// Webhook errors
var (
	ErrInvalidSignature      = errors.New("invalid webhook signature")
	ErrMissingConversationID = errors.New("conversation id is required")
)

// Export errors
var (
	ErrStorageDisabled   = errors.New("object storage not configured")
	ErrUnsupportedFormat = errors.New("unsupported export format")
)
