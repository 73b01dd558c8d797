package entities

import "time"

// Biography is the narrative document built from a tester's archive
type Biography struct {
	TesterID       string           `json:"tester_id"`
	ElderName      string           `json:"elder_name"`
	GeneratedAt    time.Time        `json:"generated_at"`
	TotalSessions  int              `json:"total_sessions"`
	Stories        []BiographyStory `json:"stories"`
	People         []PersonProfile  `json:"people"`
	Timeline       []TimelineEntry  `json:"timeline"`
	Themes         []TopicCount     `json:"themes"`
	Quotes         []QuoteInContext `json:"quotes"`
	SensoryDetails []string         `json:"sensory_details"`
	WordCount      int              `json:"word_count"`
}

// BiographyStory is a story with the session it came from
type BiographyStory struct {
	Session        int      `json:"session"`
	Date           string   `json:"date"`
	Topic          string   `json:"topic"`
	Details        string   `json:"details"`
	People         []string `json:"people"`
	Context        string   `json:"context,omitempty"`
	Significance   string   `json:"significance,omitempty"`
	EmotionalTone  string   `json:"emotional_tone,omitempty"`
	SensoryDetails []string `json:"sensory_details,omitempty"`
}

// PersonProfile is one entry of the character map
type PersonProfile struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship,omitempty"`
	Description  string `json:"description,omitempty"`
	FirstMention string `json:"first_mention"`
	Mentions     int    `json:"mentions"`
}

// TimelineEntry is a life event with the session it was told in
type TimelineEntry struct {
	Event   string `json:"event"`
	When    string `json:"when,omitempty"`
	Session int    `json:"session"`
	Date    string `json:"date"`
}

// QuoteInContext pairs a quote with the conversation it came from
type QuoteInContext struct {
	Quote   string   `json:"quote"`
	Date    string   `json:"date"`
	Session int      `json:"session"`
	Topics  []string `json:"topics"`
	Mood    string   `json:"mood"`
}
