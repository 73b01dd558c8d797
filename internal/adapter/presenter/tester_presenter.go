package presenter

import (
	testerDTO "github.com/telaila/companion/internal/adapter/dto/tester"
	"github.com/telaila/companion/internal/domain/entities"
)

// ToTesterResponse converts a Tester entity to TesterResponse DTO. The access
// token is left out.
func ToTesterResponse(t *entities.Tester) *testerDTO.TesterResponse {
	if t == nil {
		return nil
	}
	return &testerDTO.TesterResponse{
		ID:                 t.ID,
		ElderName:          t.ElderName,
		ElderAge:           t.ElderAge,
		FamilyName:         t.FamilyName,
		FamilyEmail:        t.FamilyEmail,
		Relationship:       t.Relationship,
		PrimaryLanguage:    t.PrimaryLanguage,
		AgentID:            t.AgentID,
		Status:             t.Status,
		ConversationCount:  t.ConversationCount,
		LastConversationAt: t.LastConversationAt,
		RegisteredAt:       t.RegisteredAt,
	}
}

// ToRegisterResponse converts a freshly registered tester, including the
// access token for the family dashboard link
func ToRegisterResponse(t *entities.Tester) *testerDTO.RegisterResponse {
	if t == nil {
		return nil
	}
	resp := ToTesterResponse(t)
	resp.AccessToken = t.AccessToken
	return &testerDTO.RegisterResponse{
		Tester: *resp,
		NextSteps: []string{
			"Create the companion agent for " + t.ElderName,
			"Link the agent with POST /v1/testers/" + t.ID + "/agent",
			"Share the conversation link with the family",
		},
	}
}

// ToTesterListResponse converts a list of testers
func ToTesterListResponse(testers []*entities.Tester) *testerDTO.ListResponse {
	out := &testerDTO.ListResponse{Testers: make([]testerDTO.TesterResponse, 0, len(testers))}
	for _, t := range testers {
		out.Testers = append(out.Testers, *ToTesterResponse(t))
	}
	out.Total = len(out.Testers)
	return out
}

// ToKnowledgeBaseResponse pairs the memory document with its tester
func ToKnowledgeBaseResponse(t *entities.Tester, kb string) *testerDTO.KnowledgeBaseResponse {
	return &testerDTO.KnowledgeBaseResponse{
		BetaID:              t.ID,
		ElderName:           t.ElderName,
		KnowledgeBase:       kb,
		ConversationCount:   t.ConversationCount,
		IsFirstConversation: t.ConversationCount == 0,
	}
}
