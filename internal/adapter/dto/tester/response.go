package tester

import (
	"time"

	"github.com/telaila/companion/internal/domain/entities"
)

// TesterResponse is a tester as shown to operators. The access token is only
// returned once, on registration.
type TesterResponse struct {
	ID                 string                `json:"beta_id"`
	ElderName          string                `json:"elder_name"`
	ElderAge           int                   `json:"elder_age,omitempty"`
	FamilyName         string                `json:"family_name"`
	FamilyEmail        string                `json:"family_email"`
	Relationship       string                `json:"relationship,omitempty"`
	PrimaryLanguage    string                `json:"primary_language,omitempty"`
	AgentID            *string               `json:"agent_id"`
	Status             entities.TesterStatus `json:"status"`
	ConversationCount  int                   `json:"conversation_count"`
	LastConversationAt *time.Time            `json:"last_conversation,omitempty"`
	RegisteredAt       time.Time             `json:"registered_at"`
	AccessToken        string                `json:"access_token,omitempty"`
}

// RegisterResponse is returned after signup
type RegisterResponse struct {
	Tester    TesterResponse `json:"tester"`
	NextSteps []string       `json:"next_steps"`
}

// ListResponse wraps a list of testers
type ListResponse struct {
	Testers []TesterResponse `json:"testers"`
	Total   int              `json:"total"`
}

// KnowledgeBaseResponse is the memory document the agent starts a call with
type KnowledgeBaseResponse struct {
	BetaID              string `json:"beta_id"`
	ElderName           string `json:"elder_name"`
	KnowledgeBase       string `json:"knowledge_base"`
	ConversationCount   int    `json:"conversation_count"`
	IsFirstConversation bool   `json:"is_first_conversation"`
}
