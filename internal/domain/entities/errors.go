package entities

import "errors"

// Domain errors
var (
	// Tester errors
	ErrTesterNotFound      = errors.New("tester not found")
	ErrTesterAlreadyExists = errors.New("tester already exists")
	ErrAgentNotLinked      = errors.New("no tester linked to agent")
	ErrInvalidTesterID     = errors.New("invalid tester id")

	// Conversation errors
	ErrConversationExists   = errors.New("conversation already archived")
	ErrInvalidConversation  = errors.New("invalid conversation record")
	ErrKnowledgeBaseMissing = errors.New("knowledge base not found")
)
