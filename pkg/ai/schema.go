package ai

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// GenerateSchema reflects T into a strict structured-output schema
func GenerateSchema[T any]() map[string]interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	schema := reflector.Reflect(v)
	schemaObj, err := schemaToMap(schema)
	if err != nil {
		panic(err)
	}
	ensureStrict(schemaObj)
	delete(schemaObj, "$schema")
	delete(schemaObj, "$id")
	return schemaObj
}

func schemaToMap(schema *jsonschema.Schema) (map[string]interface{}, error) {
	b, err := schema.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ensureStrict marks every object closed and every property required, as
// strict mode rejects optional fields.
func ensureStrict(schema map[string]interface{}) {
	if t, ok := schema["type"].(string); ok && t == "object" {
		schema["additionalProperties"] = false
		if props, ok := schema["properties"].(map[string]interface{}); ok {
			required := make([]string, 0, len(props))
			for name := range props {
				required = append(required, name)
			}
			schema["required"] = required
		}
	}

	if props, ok := schema["properties"].(map[string]interface{}); ok {
		for _, prop := range props {
			if propMap, ok := prop.(map[string]interface{}); ok {
				ensureStrict(propMap)
			}
		}
	}
	if items, ok := schema["items"].(map[string]interface{}); ok {
		ensureStrict(items)
	}
}

// AnalysisOutput is the shape the model is asked to fill. It is decoded into
// entities.Analysis, which tolerates anything the model gets wrong.
type AnalysisOutput struct {
	Health          HealthOutput          `json:"health"`
	Biography       BiographyOutput       `json:"biography"`
	Conversation    ConversationOutput    `json:"conversation"`
	FamilyDashboard FamilyDashboardOutput `json:"family_dashboard"`
}

type HealthOutput struct {
	Summary     string   `json:"summary" jsonschema:"description=One or two sentences on physical and emotional health"`
	RedFlags    []string `json:"red_flags" jsonschema:"description=Urgent concerns such as chest pain or falls. Never technical problems with the call"`
	Pain        []string `json:"pain" jsonschema:"description=Pain mentions with location and severity when given"`
	Sleep       string   `json:"sleep"`
	Appetite    string   `json:"appetite"`
	Medications []string `json:"medications"`
	Energy      string   `json:"energy"`
	Mood        string   `json:"mood"`
}

type BiographyOutput struct {
	Stories        []StoryOutput         `json:"stories"`
	People         []PersonOutput        `json:"people"`
	TimelineEvents []TimelineEventOutput `json:"timeline_events"`
	SensoryDetails []string              `json:"sensory_details"`
	Places         []string              `json:"places"`
}

type StoryOutput struct {
	Topic          string   `json:"topic"`
	Details        string   `json:"details"`
	PeopleInvolved []string `json:"people_involved"`
	Context        string   `json:"context"`
	Significance   string   `json:"significance"`
	EmotionalTone  string   `json:"emotional_tone"`
	TimePeriod     string   `json:"time_period"`
	SensoryDetails []string `json:"sensory_details"`
}

type PersonOutput struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Description  string `json:"description"`
}

type TimelineEventOutput struct {
	Event string `json:"event"`
	Date  string `json:"date"`
	Year  string `json:"year"`
	Age   string `json:"age"`
}

type ConversationOutput struct {
	Mood            string   `json:"mood"`
	Engagement      string   `json:"engagement" jsonschema:"enum=high,enum=moderate,enum=low"`
	Topics          []string `json:"topics"`
	MemorableQuotes []string `json:"memorable_quotes" jsonschema:"description=Exact wording of things the person said"`
	FollowUps       []string `json:"follow_ups"`
	Summary         string   `json:"summary"`
}

type FamilyDashboardOutput struct {
	HealthSummary   string   `json:"health_summary"`
	NotableMoments  []string `json:"notable_moments"`
	Concerns        []string `json:"concerns"`
	Recommendations []string `json:"recommendations"`
}
