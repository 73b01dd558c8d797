package entities

import "time"

// HealthEventType is the kind of health event
type HealthEventType string

const (
	HealthEventInjury  HealthEventType = "injury"
	HealthEventSymptom HealthEventType = "symptom"
)

// Severity ranks how urgently a family should look at an event
type Severity string

const (
	SeverityHigh     Severity = "high"
	SeverityModerate Severity = "moderate"
	SeverityLow      Severity = "low"
)

// Rank orders severities with high first
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 0
	case SeverityModerate:
		return 1
	default:
		return 2
	}
}

// HealthEventStatusActive is the only status; events are never resolved
const HealthEventStatusActive = "active"

// HealthEvent is a consolidated injury or symptom cluster. It is derived on
// every report build and never stored.
type HealthEvent struct {
	EventID             string           `json:"event_id"`
	Type                HealthEventType  `json:"type"`
	Severity            Severity         `json:"severity"`
	Title               string           `json:"title"`
	Description         string           `json:"description"`
	Keyword             string           `json:"keyword"`
	BodyPart            string           `json:"body_part,omitempty"`
	DetectedOn          *time.Time       `json:"detected_on"`
	LastMentioned       *time.Time       `json:"last_mentioned"`
	RelatedSymptoms     []RelatedSymptom `json:"related_symptoms"`
	LinkedTo            string           `json:"linked_to,omitempty"`
	LinkedToTitle       string           `json:"linked_to_title,omitempty"`
	Status              string           `json:"status"`
	NeedsFamilyFollowup bool             `json:"needs_family_followup"`
	MentionsCount       int              `json:"mentions_count"`
	Sources             []string         `json:"sources"`
}

// RelatedSymptom is the link from an injury to a symptom it likely caused
type RelatedSymptom struct {
	EventID string `json:"event_id"`
	Title   string `json:"title"`
}

// IsFall reports whether the event is the fall cluster
func (e HealthEvent) IsFall() bool {
	return e.Type == HealthEventInjury && e.Keyword == "fall"
}
