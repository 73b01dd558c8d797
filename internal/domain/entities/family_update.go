package entities

import "strings"

// AlertLevel is the urgency attached to a per-call family update
type AlertLevel string

const (
	AlertLevelLow      AlertLevel = "low"
	AlertLevelModerate AlertLevel = "moderate"
	AlertLevelHigh     AlertLevel = "high"
)

// FamilyUpdate is written to family_updates/ after every call
type FamilyUpdate struct {
	ConversationID  string     `json:"conversation_id"`
	Date            string     `json:"date"`
	ElderName       string     `json:"user_name"`
	FamilyName      string     `json:"family_name"`
	AlertLevel      AlertLevel `json:"alert_level"`
	HealthSummary   string     `json:"health_summary"`
	Mood            string     `json:"mood"`
	Engagement      string     `json:"engagement"`
	NotableMoments  []string   `json:"notable_moments"`
	Concerns        []string   `json:"concerns"`
	Recommendations []string   `json:"recommendations"`
	RedFlags        []string   `json:"red_flags"`
}

// AlertLevelFor rates an analysis: any red flag is high, a health summary
// that mentions a concern is moderate, everything else is low.
func AlertLevelFor(a Analysis) AlertLevel {
	if len(a.Health.RedFlags) > 0 {
		return AlertLevelHigh
	}
	if strings.Contains(strings.ToLower(string(a.Health.Summary)), "concern") || len(a.FamilyDashboard.Concerns) > 0 {
		return AlertLevelModerate
	}
	return AlertLevelLow
}

// NewFamilyUpdate builds the update for one analyzed call
func NewFamilyUpdate(record ConversationRecord, elderName, familyName, date string) FamilyUpdate {
	a := record.Analysis
	return FamilyUpdate{
		ConversationID:  record.ConversationID,
		Date:            date,
		ElderName:       elderName,
		FamilyName:      familyName,
		AlertLevel:      AlertLevelFor(a),
		HealthSummary:   a.Health.Summary.String(),
		Mood:            a.Mood(),
		Engagement:      a.Engagement(),
		NotableMoments:  nonNil(a.FamilyDashboard.NotableMoments),
		Concerns:        nonNil(a.FamilyDashboard.Concerns),
		Recommendations: nonNil(a.FamilyDashboard.Recommendations),
		RedFlags:        nonNil(a.Health.RedFlags),
	}
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
