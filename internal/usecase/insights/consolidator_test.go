package insights

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telaila/companion/internal/domain/entities"
)

func fallMention(src Source, bodyPart string, ts int) RawMention {
	m := RawMention{
		Type:     entities.HealthEventInjury,
		Keyword:  FallClass,
		Matched:  "fell",
		BodyPart: bodyPart,
		Context:  "fell in the kitchen",
		Source:   src,
	}
	if ts > 0 {
		m.Timestamp = day(ts)
	}
	return m
}

func TestConsolidate_AllFallsMergeIntoOne(t *testing.T) {
	c := NewConsolidator(DefaultPolicy())
	mentions := []RawMention{
		fallMention(SourceHealthSummary, "", 1),
		fallMention(SourceRedFlag, "back", 1),
		fallMention(SourceTranscript, "", 3),
		fallMention(SourceKnowledgeBase, "hip", 0),
	}
	mentions[2].Context = "I fell off the ladder while cleaning the gutters and landed hard on the driveway"

	events := c.Consolidate(mentions)

	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, "Fall Incident - Back Injury", ev.Title)
	assert.Equal(t, "back", ev.BodyPart)
	assert.Equal(t, 4, ev.MentionsCount)
	assert.Equal(t, day(1), ev.DetectedOn)
	assert.Equal(t, day(3), ev.LastMentioned)
	assert.Equal(t, entities.SeverityHigh, ev.Severity)
	assert.True(t, ev.NeedsFamilyFollowup)
	assert.Equal(t, entities.HealthEventStatusActive, ev.Status)
	assert.Equal(t, []string{"health_summary", "knowledge_base", "red_flag", "transcript"}, ev.Sources)
	assert.Contains(t, ev.Description, "gutters")
	assert.NotNil(t, ev.RelatedSymptoms)
}

func TestConsolidate_FallWithoutBodyPart(t *testing.T) {
	c := NewConsolidator(DefaultPolicy())
	events := c.Consolidate([]RawMention{
		fallMention(SourceHealthSummary, "", 2),
		fallMention(SourceRedFlag, "", 2),
	})

	require.Len(t, events, 1)
	assert.Equal(t, "Fall Incident", events[0].Title)
}

func TestConsolidate_FallBodyPartIsDeterministic(t *testing.T) {
	c := NewConsolidator(DefaultPolicy())
	mentions := []RawMention{
		fallMention(SourceTranscript, "knee", 4),
		fallMention(SourceHealthSummary, "back", 4),
		fallMention(SourceRedFlag, "wrist", 2),
	}

	first := c.Consolidate(mentions)
	reversed := c.Consolidate([]RawMention{mentions[2], mentions[1], mentions[0]})

	require.Len(t, first, 1)
	assert.Equal(t, "Fall Incident - Wrist Injury", first[0].Title)
	assert.Equal(t, first, reversed)

	sameDay := c.Consolidate(mentions[:2])
	require.Len(t, sameDay, 1)
	assert.Equal(t, "Fall Incident - Back Injury", sameDay[0].Title)
}

func TestConsolidate_InjuriesCollapseByBodyPart(t *testing.T) {
	c := NewConsolidator(DefaultPolicy())
	events := c.Consolidate([]RawMention{
		{Type: entities.HealthEventInjury, Keyword: "sprain", BodyPart: "ankle", Timestamp: day(2), Source: SourceTranscript, Context: "sprained my ankle"},
		{Type: entities.HealthEventInjury, Keyword: "twisted", BodyPart: "ankle", Timestamp: day(5), Source: SourceHealthSummary, Context: "twisted ankle"},
		{Type: entities.HealthEventInjury, Keyword: "burn", Timestamp: day(6), Source: SourceTranscript, Context: "burned myself"},
	})

	require.Len(t, events, 2)
	assert.Equal(t, "Ankle Sprain", events[0].Title)
	assert.Equal(t, 2, events[0].MentionsCount)
	assert.Equal(t, day(2), events[0].DetectedOn)
	assert.Equal(t, day(5), events[0].LastMentioned)
	assert.Equal(t, "Burn Injury", events[1].Title)
}

func TestConsolidate_InjuryOnFallBodyPartJoinsFall(t *testing.T) {
	c := NewConsolidator(DefaultPolicy())
	events := c.Consolidate([]RawMention{
		fallMention(SourceTranscript, "back", 1),
		{Type: entities.HealthEventInjury, Keyword: "hurt", BodyPart: "back", Timestamp: day(2), Source: SourceHealthSummary},
		{Type: entities.HealthEventInjury, Keyword: "hurt", BodyPart: "knee", Timestamp: day(2), Source: SourceHealthSummary},
	})

	require.Len(t, events, 2)
	assert.Equal(t, "Fall Incident - Back Injury", events[0].Title)
	assert.Equal(t, 2, events[0].MentionsCount)
	assert.Equal(t, "Knee Hurt", events[1].Title)
}

func TestConsolidate_SymptomSeverity(t *testing.T) {
	c := NewConsolidator(DefaultPolicy())
	symptom := func(keyword string, d int) RawMention {
		return RawMention{Type: entities.HealthEventSymptom, Keyword: keyword, Timestamp: day(d), Source: SourceTranscript}
	}
	events := c.Consolidate([]RawMention{
		symptom("dizzy", 1), symptom("dizzy", 2), symptom("dizzy", 3),
		symptom("trouble sleeping", 1), symptom("trouble sleeping", 4),
		{Type: entities.HealthEventSymptom, Keyword: "sore", BodyPart: "back", Timestamp: day(5), Source: SourceHealthSummary},
	})

	byTitle := make(map[string]entities.HealthEvent)
	for _, ev := range events {
		byTitle[ev.Title] = ev
	}
	require.Len(t, byTitle, 3)
	assert.Equal(t, entities.SeverityModerate, byTitle["Dizzy"].Severity)
	assert.Equal(t, entities.SeverityLow, byTitle["Trouble Sleeping"].Severity)
	assert.False(t, byTitle["Trouble Sleeping"].NeedsFamilyFollowup)
	assert.Equal(t, "back", byTitle["Sore (Back)"].BodyPart)
	assert.Equal(t, "Dizzy", events[0].Title)
}

func TestConsolidate_DescriptionTruncated(t *testing.T) {
	policy := DefaultPolicy()
	policy.DescriptionMaxLength = 80
	c := NewConsolidator(policy)

	m := fallMention(SourceTranscript, "", 1)
	m.Context = "I fell near the mailbox. " + strings.Repeat("It was icy and nobody was around to help me up. ", 5)

	events := c.Consolidate([]RawMention{m})
	require.Len(t, events, 1)
	assert.LessOrEqual(t, len(events[0].Description), 80)
	assert.True(t, strings.HasSuffix(events[0].Description, "."))
}

func TestEventID_Stable(t *testing.T) {
	a := EventID(entities.HealthEventInjury, FallClass, "back", day(1))
	b := EventID(entities.HealthEventInjury, FallClass, "back", day(1))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, EventID(entities.HealthEventInjury, FallClass, "back", day(2)))
	assert.NotEqual(t, a, EventID(entities.HealthEventInjury, FallClass, "", day(1)))
	assert.Equal(t, EventID(entities.HealthEventSymptom, "pain", "", nil), EventID(entities.HealthEventSymptom, "pain", "general", nil))
}
