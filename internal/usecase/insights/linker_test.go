package insights

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telaila/companion/internal/domain/entities"
)

func event(id string, typ entities.HealthEventType, severity entities.Severity, title, bodyPart string, d int) entities.HealthEvent {
	ev := entities.HealthEvent{
		EventID:         id,
		Type:            typ,
		Severity:        severity,
		Title:           title,
		BodyPart:        bodyPart,
		RelatedSymptoms: []entities.RelatedSymptom{},
		Status:          entities.HealthEventStatusActive,
	}
	if d > 0 {
		ev.DetectedOn = day(d)
	}
	return ev
}

func byID(events []entities.HealthEvent) map[string]entities.HealthEvent {
	out := make(map[string]entities.HealthEvent, len(events))
	for _, ev := range events {
		out[ev.EventID] = ev
	}
	return out
}

func TestLink_CauseMustNotPostdateSymptom(t *testing.T) {
	events := []entities.HealthEvent{
		event("fall", entities.HealthEventInjury, entities.SeverityHigh, "Fall Incident - Back Injury", "back", 5),
		event("sore-early", entities.HealthEventSymptom, entities.SeverityLow, "Sore (Back)", "back", 2),
	}

	linked := byID(Link(events))
	assert.Empty(t, linked["sore-early"].LinkedTo)
	assert.Empty(t, linked["fall"].RelatedSymptoms)
}

func TestLink_MostRecentCompatibleInjuryWins(t *testing.T) {
	events := []entities.HealthEvent{
		event("fall", entities.HealthEventInjury, entities.SeverityHigh, "Fall Incident - Back Injury", "back", 5),
		event("knee", entities.HealthEventInjury, entities.SeverityHigh, "Knee Sprain", "knee", 8),
		event("later", entities.HealthEventInjury, entities.SeverityHigh, "Wrist Fracture", "wrist", 20),
		event("sleep", entities.HealthEventSymptom, entities.SeverityLow, "Trouble Sleeping", "", 10),
		event("sore", entities.HealthEventSymptom, entities.SeverityLow, "Sore (Back)", "back", 12),
	}

	linked := byID(Link(events))

	assert.Equal(t, "knee", linked["sleep"].LinkedTo)
	assert.Equal(t, "Knee Sprain", linked["sleep"].LinkedToTitle)
	assert.Equal(t, "fall", linked["sore"].LinkedTo)
	assert.Equal(t, []entities.RelatedSymptom{{EventID: "sore", Title: "Sore (Back)"}}, linked["fall"].RelatedSymptoms)
	assert.Equal(t, []entities.RelatedSymptom{{EventID: "sleep", Title: "Trouble Sleeping"}}, linked["knee"].RelatedSymptoms)
	assert.Empty(t, linked["later"].RelatedSymptoms)
}

func TestLink_SameBodyPartBeatsUnknownBodyPart(t *testing.T) {
	events := []entities.HealthEvent{
		event("fall", entities.HealthEventInjury, entities.SeverityHigh, "Fall Incident - Back Injury", "back", 2),
		event("burn", entities.HealthEventInjury, entities.SeverityHigh, "Burn Injury", "", 6),
		event("sore", entities.HealthEventSymptom, entities.SeverityLow, "Sore (Back)", "back", 9),
		event("tired", entities.HealthEventSymptom, entities.SeverityLow, "Tired", "", 9),
	}

	linked := byID(Link(events))
	assert.Equal(t, "fall", linked["sore"].LinkedTo)
	assert.Equal(t, "burn", linked["tired"].LinkedTo)
	assert.Equal(t, []entities.RelatedSymptom{{EventID: "sore", Title: "Sore (Back)"}}, linked["fall"].RelatedSymptoms)
	assert.Equal(t, []entities.RelatedSymptom{{EventID: "tired", Title: "Tired"}}, linked["burn"].RelatedSymptoms)
}

func TestLink_UnknownBodyPartIsFallback(t *testing.T) {
	events := []entities.HealthEvent{
		event("knee", entities.HealthEventInjury, entities.SeverityHigh, "Knee Sprain", "knee", 2),
		event("burn", entities.HealthEventInjury, entities.SeverityHigh, "Burn Injury", "", 4),
		event("sore", entities.HealthEventSymptom, entities.SeverityLow, "Sore (Back)", "back", 9),
	}

	linked := byID(Link(events))
	assert.Equal(t, "burn", linked["sore"].LinkedTo)
	assert.Empty(t, linked["knee"].RelatedSymptoms)
}

func TestLink_UndatedCauseSatisfiesOrdering(t *testing.T) {
	events := []entities.HealthEvent{
		event("burn", entities.HealthEventInjury, entities.SeverityHigh, "Burn Injury", "", 0),
		event("pain", entities.HealthEventSymptom, entities.SeverityLow, "Pain", "", 3),
	}

	linked := byID(Link(events))
	assert.Equal(t, "burn", linked["pain"].LinkedTo)
}

func TestLink_DoesNotMutateInput(t *testing.T) {
	events := []entities.HealthEvent{
		event("fall", entities.HealthEventInjury, entities.SeverityHigh, "Fall Incident", "", 1),
		event("dizzy", entities.HealthEventSymptom, entities.SeverityLow, "Dizzy", "", 2),
	}

	_ = Link(events)
	assert.Empty(t, events[0].RelatedSymptoms)
	assert.Empty(t, events[1].LinkedTo)
}

func TestLink_SortOrder(t *testing.T) {
	events := []entities.HealthEvent{
		event("a", entities.HealthEventSymptom, entities.SeverityLow, "Tired", "", 1),
		event("b", entities.HealthEventSymptom, entities.SeverityModerate, "Dizzy", "", 0),
		event("c", entities.HealthEventInjury, entities.SeverityHigh, "Knee Hurt", "knee", 0),
		event("d", entities.HealthEventInjury, entities.SeverityHigh, "Fall Incident", "", 4),
		event("e", entities.HealthEventSymptom, entities.SeverityModerate, "Ache", "", 2),
	}

	out := Link(events)
	require.Len(t, out, 5)

	ids := make([]string, len(out))
	for i, ev := range out {
		ids[i] = ev.EventID
	}
	assert.Equal(t, []string{"d", "c", "e", "b", "a"}, ids)
}
