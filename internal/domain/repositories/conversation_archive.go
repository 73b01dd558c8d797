package repositories

import (
	"context"

	"github.com/telaila/companion/internal/domain/entities"
)

// ConversationArchive stores the per-tester conversation history. Records
// are write-once; readers never see a partially written record.
type ConversationArchive interface {
	// EnsureTester creates the tester's folders if they do not exist
	EnsureTester(ctx context.Context, testerID string) error

	// SaveConversation archives a record. It returns
	// entities.ErrConversationExists when the conversation is already stored.
	SaveConversation(ctx context.Context, testerID string, record *entities.ConversationRecord) error

	// HasConversation reports whether a conversation is archived
	HasConversation(ctx context.Context, testerID, conversationID string) (bool, error)

	// ListConversations returns every readable record, oldest first.
	// Unreadable files are skipped.
	ListConversations(ctx context.Context, testerID string) ([]entities.ConversationRecord, error)

	// ReadKnowledgeBase returns the tester's knowledge base document
	ReadKnowledgeBase(ctx context.Context, testerID string) (string, error)

	// WriteKnowledgeBase replaces the knowledge base document
	WriteKnowledgeBase(ctx context.Context, testerID, content string) error

	// SaveFamilyUpdate stores a family update and returns its name
	SaveFamilyUpdate(ctx context.Context, testerID string, update *entities.FamilyUpdate) (string, error)

	// ListFamilyUpdates returns stored family updates, newest first
	ListFamilyUpdates(ctx context.Context, testerID string, limit int) ([]entities.FamilyUpdate, error)
}
