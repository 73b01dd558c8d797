package entities

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ConversationRecord is one archived call. Records are written once when the
// call ends and never modified afterwards.
type ConversationRecord struct {
	ConversationID  string   `json:"conversation_id"`
	TesterID        string   `json:"tester_id,omitempty"`
	AgentID         string   `json:"agent_id,omitempty"`
	Timestamp       string   `json:"timestamp"`
	Transcript      string   `json:"transcript"`
	DurationSeconds float64  `json:"duration_seconds,omitempty"`
	Analysis        Analysis `json:"analysis"`
}

// Time returns the parsed record timestamp in UTC
func (r ConversationRecord) Time() (time.Time, bool) {
	return ParseTimestamp(r.Timestamp)
}

var speakerLine = regexp.MustCompile(`(?m)^[ \t]*[A-Za-z][\w .'-]{0,30}:[ \t]`)

// TurnCount counts speaker-tagged lines in the transcript
func (r ConversationRecord) TurnCount() int {
	return len(speakerLine.FindAllStringIndex(r.Transcript, -1))
}

// Analysis is the structured output of the conversation analyzer. Any section
// may be missing or malformed; decoding never fails and leaves zero values.
type Analysis struct {
	Health          HealthAnalysis    `json:"health"`
	Biography       BiographyAnalysis `json:"biography"`
	Conversation    ConversationInfo  `json:"conversation"`
	FamilyDashboard FamilyDashboard   `json:"family_dashboard"`
}

// HealthAnalysis holds health indicators mentioned during the call
type HealthAnalysis struct {
	Summary     FlexString      `json:"summary"`
	RedFlags    StringList      `json:"red_flags"`
	Pain        json.RawMessage `json:"pain,omitempty"`
	Sleep       json.RawMessage `json:"sleep,omitempty"`
	Appetite    json.RawMessage `json:"appetite,omitempty"`
	Medications json.RawMessage `json:"medications,omitempty"`
	Energy      FlexString      `json:"energy,omitempty"`
	Mood        FlexString      `json:"mood,omitempty"`
}

// BiographyAnalysis holds life-story material shared during the call
type BiographyAnalysis struct {
	Stories        Stories        `json:"stories"`
	People         People         `json:"people"`
	TimelineEvents TimelineEvents `json:"timeline_events"`
	SensoryDetails StringList     `json:"sensory_details"`
	Places         StringList     `json:"places,omitempty"`
}

// ConversationInfo describes the call itself
type ConversationInfo struct {
	Mood            FlexString `json:"mood"`
	Engagement      FlexString `json:"engagement"`
	Topics          StringList `json:"topics"`
	MemorableQuotes StringList `json:"memorable_quotes"`
	FollowUps       StringList `json:"follow_ups"`
	Summary         FlexString `json:"summary,omitempty"`
}

// FamilyDashboard is the analyzer's note to the family
type FamilyDashboard struct {
	HealthSummary   FlexString `json:"health_summary"`
	NotableMoments  StringList `json:"notable_moments"`
	Concerns        StringList `json:"concerns"`
	Recommendations StringList `json:"recommendations"`
	AlertLevel      FlexString `json:"alert_level,omitempty"`
}

// UnmarshalJSON decodes each section independently so one malformed section
// does not discard the others.
func (a *Analysis) UnmarshalJSON(data []byte) error {
	*a = Analysis{}
	var sections map[string]json.RawMessage
	if err := json.Unmarshal(data, &sections); err != nil {
		return nil
	}
	decodeSection(sections["health"], &a.Health)
	decodeSection(sections["biography"], &a.Biography)
	decodeSection(sections["conversation"], &a.Conversation)
	decodeSection(sections["family_dashboard"], &a.FamilyDashboard)
	return nil
}

func decodeSection[T any](data json.RawMessage, dst *T) {
	if len(data) == 0 {
		return
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return
	}
	*dst = v
}

// Mood returns the lower-cased conversation mood, "neutral" when absent
func (a Analysis) Mood() string {
	mood := strings.ToLower(strings.TrimSpace(string(a.Conversation.Mood)))
	if mood == "" {
		return "neutral"
	}
	return mood
}

// Engagement returns high, moderate or low. Missing values read as moderate.
func (a Analysis) Engagement() string {
	engagement := strings.ToLower(string(a.Conversation.Engagement))
	switch {
	case strings.Contains(engagement, "high"):
		return "high"
	case strings.Contains(engagement, "low"):
		return "low"
	default:
		return "moderate"
	}
}

// Story is a life story. A bare string is read as the story details.
type Story struct {
	Topic          string   `json:"topic,omitempty"`
	Details        string   `json:"details"`
	PeopleInvolved []string `json:"people_involved,omitempty"`
	Context        string   `json:"context,omitempty"`
	Significance   string   `json:"significance,omitempty"`
	EmotionalTone  string   `json:"emotional_tone,omitempty"`
	TimePeriod     string   `json:"time_period,omitempty"`
	SensoryDetails []string `json:"sensory_details,omitempty"`
}

func (s *Story) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*s = Story{Details: strings.TrimSpace(text)}
		return nil
	}

	var obj struct {
		Topic          FlexString `json:"topic"`
		Title          FlexString `json:"title"`
		Details        FlexString `json:"details"`
		Story          FlexString `json:"story"`
		Description    FlexString `json:"description"`
		PeopleInvolved StringList `json:"people_involved"`
		Context        FlexString `json:"context"`
		Significance   FlexString `json:"significance"`
		EmotionalTone  FlexString `json:"emotional_tone"`
		TimePeriod     FlexString `json:"time_period"`
		SensoryDetails StringList `json:"sensory_details"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		*s = Story{}
		return nil
	}

	*s = Story{
		Topic:          firstNonEmpty(string(obj.Topic), string(obj.Title)),
		Details:        firstNonEmpty(string(obj.Details), string(obj.Story), string(obj.Description)),
		PeopleInvolved: obj.PeopleInvolved,
		Context:        string(obj.Context),
		Significance:   string(obj.Significance),
		EmotionalTone:  string(obj.EmotionalTone),
		TimePeriod:     string(obj.TimePeriod),
		SensoryDetails: obj.SensoryDetails,
	}
	return nil
}

// IsEmpty reports whether the story carries no text
func (s Story) IsEmpty() bool {
	return s.Topic == "" && s.Details == ""
}

// Person is someone mentioned in a conversation. A bare string is the name.
type Person struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship,omitempty"`
	Description  string `json:"description,omitempty"`
}

func (p *Person) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*p = Person{Name: strings.TrimSpace(text)}
		return nil
	}

	var obj struct {
		Name         FlexString `json:"name"`
		Relationship FlexString `json:"relationship"`
		Relation     FlexString `json:"relation"`
		Description  FlexString `json:"description"`
		Context      FlexString `json:"context"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		*p = Person{}
		return nil
	}

	*p = Person{
		Name:         string(obj.Name),
		Relationship: firstNonEmpty(string(obj.Relationship), string(obj.Relation)),
		Description:  firstNonEmpty(string(obj.Description), string(obj.Context)),
	}
	return nil
}

// TimelineEvent is a dated life event. A bare string is the event text.
type TimelineEvent struct {
	Event string `json:"event"`
	Date  string `json:"date,omitempty"`
	Year  string `json:"year,omitempty"`
	Age   string `json:"age,omitempty"`
}

func (e *TimelineEvent) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*e = TimelineEvent{Event: strings.TrimSpace(text)}
		return nil
	}

	var obj struct {
		Event       FlexString `json:"event"`
		Description FlexString `json:"description"`
		Date        FlexString `json:"date"`
		Year        FlexString `json:"year"`
		Age         FlexString `json:"age"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		*e = TimelineEvent{}
		return nil
	}

	*e = TimelineEvent{
		Event: firstNonEmpty(string(obj.Event), string(obj.Description)),
		Date:  string(obj.Date),
		Year:  string(obj.Year),
		Age:   string(obj.Age),
	}
	return nil
}

// Stories accepts an array, a single object or a single string
type Stories []Story

func (s *Stories) UnmarshalJSON(data []byte) error {
	*s = decodeFlexList[Story](data)
	return nil
}

// People accepts an array, a single object or a single string
type People []Person

func (p *People) UnmarshalJSON(data []byte) error {
	*p = decodeFlexList[Person](data)
	return nil
}

// TimelineEvents accepts an array, a single object or a single string
type TimelineEvents []TimelineEvent

func (t *TimelineEvents) UnmarshalJSON(data []byte) error {
	*t = decodeFlexList[TimelineEvent](data)
	return nil
}

func decodeFlexList[T any](data []byte) []T {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	if trimmed[0] != '[' {
		var v T
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return nil
		}
		return []T{v}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err == nil {
			out = append(out, v)
		}
	}
	return out
}

// FlexString decodes a string, number, boolean or text-bearing object as text
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		*f = ""
		return nil
	}
	*f = FlexString(textOf(raw))
	return nil
}

// String returns the text value
func (f FlexString) String() string {
	return string(f)
}

// StringList decodes a list whose items may be strings or objects. Objects
// contribute their first text-bearing field; empty items are dropped.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		*l = nil
		return nil
	}

	var out []string
	switch v := raw.(type) {
	case []interface{}:
		for _, item := range v {
			if text := textOf(item); text != "" {
				out = append(out, text)
			}
		}
	default:
		if text := textOf(v); text != "" {
			out = append(out, text)
		}
	}
	*l = out
	return nil
}

// textKeys are the object fields read, in order, when an object stands in for text
var textKeys = []string{
	"text", "quote", "flag", "concern", "description", "event", "name",
	"topic", "title", "details", "summary", "issue", "note", "value",
}

func textOf(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case map[string]interface{}:
		for _, key := range textKeys {
			if text := textOf(t[key]); text != "" {
				return text
			}
		}
	case []interface{}:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if text := textOf(item); text != "" {
				parts = append(parts, text)
			}
		}
		return strings.Join(parts, "; ")
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
