package tester

// RegisterRequest is the family signup form. Field names follow the signup
// page so the raw form can be stored as signup data.
type RegisterRequest struct {
	FamilyName      string `json:"yourName" validate:"required,min=1,max=255"`
	FamilyEmail     string `json:"yourEmail" validate:"required,email,max=255"`
	FamilyPhone     string `json:"yourPhone,omitempty" validate:"omitempty,max=50"`
	ElderName       string `json:"theirName" validate:"required,min=1,max=255"`
	ElderAge        int    `json:"theirAge,omitempty" validate:"omitempty,min=40,max=120"`
	Relationship    string `json:"relationship,omitempty" validate:"omitempty,max=100"`
	PrimaryLanguage string `json:"primaryLanguage,omitempty" validate:"omitempty,max=50"`
	BestTime        string `json:"bestTime,omitempty" validate:"omitempty,max=100"`
	SpecialNotes    string `json:"specialNotes,omitempty" validate:"omitempty,max=2000"`
}

// LinkAgentRequest attaches a conversational agent to a tester
type LinkAgentRequest struct {
	AgentID string `json:"agent_id" validate:"required,min=1,max=128"`
}

// TesterPathParam is the :id route parameter
type TesterPathParam struct {
	ID string `param:"id" validate:"required,tester_id"`
}
