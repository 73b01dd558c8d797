package conversation

import (
	"strings"

	"github.com/telaila/companion/internal/domain/entities"
	"github.com/telaila/companion/internal/usecase/memory"
)

// EventPostCallTranscription is the only webhook event that is processed
const EventPostCallTranscription = "post_call_transcription"

// WebhookEvent is the conversation-ended webhook body
type WebhookEvent struct {
	Type           string      `json:"type"`
	EventTimestamp int64       `json:"event_timestamp"`
	Data           WebhookData `json:"data"`
}

// WebhookData carries the finished conversation
type WebhookData struct {
	AgentID        string           `json:"agent_id"`
	ConversationID string           `json:"conversation_id"`
	Status         string           `json:"status"`
	Transcript     []TranscriptTurn `json:"transcript"`
	Metadata       CallMetadata     `json:"metadata"`
}

// TranscriptTurn is one utterance
type TranscriptTurn struct {
	Role           string  `json:"role"`
	Message        string  `json:"message"`
	TimeInCallSecs float64 `json:"time_in_call_secs"`
}

// CallMetadata holds call timing
type CallMetadata struct {
	StartTimeUnixSecs int64   `json:"start_time_unix_secs"`
	CallDurationSecs  float64 `json:"call_duration_secs"`
}

// FormatTranscript renders turns as speaker-tagged lines. Turns with an
// unknown role or no text are dropped.
func FormatTranscript(turns []TranscriptTurn, agentName string) string {
	var b strings.Builder
	for _, turn := range turns {
		message := strings.TrimSpace(turn.Message)
		if message == "" {
			continue
		}
		switch strings.ToLower(turn.Role) {
		case "agent":
			b.WriteString("\n" + agentName + ": " + message + "\n")
		case "user":
			b.WriteString("\nUser: " + message + "\n")
		}
	}
	return b.String()
}

// FallbackAnalysis is stored when the analyzer is unavailable or fails
func FallbackAnalysis() entities.Analysis {
	return entities.Analysis{
		Health: entities.HealthAnalysis{
			Summary:  memory.FallbackHealthSummary,
			RedFlags: entities.StringList{},
		},
		Conversation: entities.ConversationInfo{
			Mood:            "neutral",
			Engagement:      "moderate",
			Topics:          entities.StringList{},
			MemorableQuotes: entities.StringList{},
			FollowUps:       entities.StringList{},
		},
		FamilyDashboard: entities.FamilyDashboard{
			HealthSummary:   "Conversation completed - manual review needed",
			NotableMoments:  entities.StringList{},
			Concerns:        entities.StringList{},
			Recommendations: entities.StringList{"Review full transcript"},
		},
	}
}
