package entities

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// TesterStatus is the lifecycle state of a beta tester
type TesterStatus string

const (
	TesterStatusPendingSetup TesterStatus = "pending_setup"
	TesterStatusActive       TesterStatus = "active"
	TesterStatusCompleted    TesterStatus = "completed"
)

// IsValid checks if the status is known
func (s TesterStatus) IsValid() bool {
	switch s {
	case TesterStatusPendingSetup, TesterStatusActive, TesterStatusCompleted:
		return true
	}
	return false
}

// Tester is a registered beta tester: an elder plus the family contact who
// signed them up.
type Tester struct {
	ID                 string         `json:"beta_id" gorm:"column:beta_id;type:varchar(16);primaryKey"`
	RecordID           uuid.UUID      `json:"record_id" gorm:"type:uuid;uniqueIndex;not null"`
	ElderName          string         `json:"elder_name" gorm:"type:varchar(255);not null"`
	ElderAge           int            `json:"elder_age,omitempty" gorm:"default:0"`
	FamilyName         string         `json:"family_name" gorm:"type:varchar(255);not null"`
	FamilyEmail        string         `json:"family_email" gorm:"type:varchar(255);uniqueIndex;not null"`
	FamilyPhone        string         `json:"family_phone,omitempty" gorm:"type:varchar(50)"`
	Relationship       string         `json:"relationship,omitempty" gorm:"type:varchar(100)"`
	PrimaryLanguage    string         `json:"primary_language,omitempty" gorm:"type:varchar(50);default:'English'"`
	SpecialNotes       string         `json:"special_notes,omitempty" gorm:"type:text"`
	SignupData         datatypes.JSON `json:"signup_data,omitempty" gorm:"type:jsonb;default:'{}'"`
	AccessToken        string         `json:"access_token" gorm:"type:varchar(128);not null"`
	AgentID            *string        `json:"agent_id" gorm:"type:varchar(128);uniqueIndex"`
	Status             TesterStatus   `json:"status" gorm:"type:varchar(32);default:'pending_setup';not null"`
	ConversationCount  int            `json:"conversation_count" gorm:"default:0;not null"`
	LastConversationAt *time.Time     `json:"last_conversation,omitempty" gorm:"type:timestamp"`
	RegisteredAt       time.Time      `json:"registered_at" gorm:"autoCreateTime"`
	UpdatedAt          time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName overrides the table name
func (Tester) TableName() string {
	return "beta_testers"
}

// NewTester creates a tester in pending_setup. The beta ID is assigned by
// the registry on create.
func NewTester(elderName, familyName, familyEmail, accessToken string) *Tester {
	return &Tester{
		RecordID:        uuid.New(),
		ElderName:       elderName,
		FamilyName:      familyName,
		FamilyEmail:     familyEmail,
		AccessToken:     accessToken,
		PrimaryLanguage: "English",
		Status:          TesterStatusPendingSetup,
		RegisteredAt:    time.Now().UTC(),
	}
}

// Profile returns the tester fields shown on the dashboard
func (t *Tester) Profile() TesterProfile {
	return TesterProfile{
		ID:           t.ID,
		ElderName:    t.ElderName,
		FamilyName:   t.FamilyName,
		Relationship: t.Relationship,
		Status:       t.Status,
	}
}

// LinkAgent attaches a conversational agent and activates the tester
func (t *Tester) LinkAgent(agentID string) {
	t.AgentID = &agentID
	t.Status = TesterStatusActive
}

// RecordConversation bumps the conversation counter
func (t *Tester) RecordConversation(at time.Time) {
	t.ConversationCount++
	at = at.UTC()
	t.LastConversationAt = &at
}

var testerIDPattern = regexp.MustCompile(`^BT(\d{3,})$`)

// FormatTesterID renders a beta tester sequence number, e.g. BT007
func FormatTesterID(seq int) string {
	return fmt.Sprintf("BT%03d", seq)
}

// ParseTesterSeq returns the sequence number of a beta tester ID
func ParseTesterSeq(id string) (int, error) {
	m := testerIDPattern.FindStringSubmatch(id)
	if m == nil {
		return 0, ErrInvalidTesterID
	}
	return strconv.Atoi(m[1])
}

// IsValidTesterID reports whether id looks like BT001
func IsValidTesterID(id string) bool {
	return testerIDPattern.MatchString(id)
}
