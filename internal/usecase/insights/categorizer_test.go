package insights

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCategorizer(t *testing.T) *Categorizer {
	t.Helper()
	c, err := NewCategorizer(DefaultKeywords(), DefaultPolicy())
	require.NoError(t, err)
	return c
}

func TestCategorizer_FiltersMetaQuotes(t *testing.T) {
	c := newTestCategorizer(t)

	quotes := []string{
		"Are you real?",
		"You're an AI, aren't you, my dear friend from the club",
		"I really enjoyed talking to you about my family today",
		"Are you a robot or a real person on the phone with me",
		"Yes",
		"I don't know",
		"Not really sure",
		`"Thank you."`,
	}
	for _, q := range quotes {
		t.Run(q, func(t *testing.T) {
			assert.True(t, c.IsMeta(q))
			_, ok := c.Categorize(q, []string{"family"})
			assert.False(t, ok)
		})
	}
}

func TestCategorizer_Priority(t *testing.T) {
	c := newTestCategorizer(t)

	tests := []struct {
		name   string
		quote  string
		topics []string
		want   string
	}{
		{"specific phrase beats generic keywords", "Feeling much better, poker night was fun", nil, "friends"},
		{"phrase table order", "My daughter took me to the doctor yesterday afternoon", nil, "family"},
		{"snowbird is travel not nature", "We were snowbirds for years, chasing the sunshine every winter", nil, "travel"},
		{"keyword with most hits", "We used to spend every summer at the lake watching the birds", nil, "nature"},
		{"topic keyword fallback", "That was a really special time for all of us", []string{"Woodworking projects"}, "hobbies"},
		{"topic matches theme id", "That was a really special time for all of us", []string{"Career"}, "career"},
		{"curly quotes are stripped", "“My son called me from Toronto last night”", nil, "family"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			theme, ok := c.Categorize(tt.quote, tt.topics)
			require.True(t, ok)
			assert.Equal(t, tt.want, theme.ID)
		})
	}
}

func TestCategorizer_AdHocTopicTheme(t *testing.T) {
	c := newTestCategorizer(t)

	theme, ok := c.Categorize("That was a really special time for all of us", []string{"", "Stamp collecting"})
	require.True(t, ok)
	assert.Equal(t, "stamp_collecting", theme.ID)
	assert.Equal(t, "Stamp Collecting", theme.Name)
	assert.Equal(t, adHocThemeIcon, theme.Icon)
	assert.Equal(t, len(c.Themes()), c.ThemeOrder(theme.ID))
}

func TestCategorizer_GeneralIsDropped(t *testing.T) {
	c := newTestCategorizer(t)

	_, ok := c.Categorize("That was a really special time for all of us", nil)
	assert.False(t, ok)

	_, ok = c.Categorize("That was a really special time for all of us", []string{"general"})
	assert.False(t, ok)
}

func TestCategorizer_UnknownPhraseTheme(t *testing.T) {
	kw := DefaultKeywords()
	kw.SpecificPhrases = append(kw.SpecificPhrases, PhraseRule{Phrase: "bowling", ThemeID: "sports"})

	_, err := NewCategorizer(kw, DefaultPolicy())
	assert.Error(t, err)
}

func TestCategorizer_BadMetaPattern(t *testing.T) {
	kw := DefaultKeywords()
	kw.MetaPatterns = []string{"("}

	_, err := NewCategorizer(kw, DefaultPolicy())
	assert.Error(t, err)
}

func TestSentiment_OverridesConversationMood(t *testing.T) {
	c := newTestCategorizer(t)

	tests := []struct {
		name  string
		quote string
		mood  string
		want  string
	}{
		{"pain in a positive call", "The pain in my shoulder has been tough to deal with", "positive", "Struggling"},
		{"struggle", "It has been a difficult winter without him around", "positive", "Persevering"},
		{"joy in a sad call", "We laughed all night at the wedding reception", "sad", "Happy"},
		{"nostalgia", "I remember the smell of my mother's bread on Sundays", "neutral", "Nostalgic"},
		{"falls back to positive mood", "We drove up the coast in the old station wagon", "positive and engaged", "Happy"},
		{"falls back to anxious mood", "We drove up the coast in the old station wagon", "a little anxious", "Concerned"},
		{"falls back to negative mood", "We drove up the coast in the old station wagon", "lonely", "Down"},
		{"falls back to calm", "We drove up the coast in the old station wagon", "", "Calm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Sentiment(tt.quote, tt.mood).Label)
		})
	}
}

func TestMoodReader_Scores(t *testing.T) {
	r := NewMoodReader(DefaultKeywords())

	assert.Equal(t, MoodScorePositive, r.Score("positive and engaged"))
	assert.Equal(t, MoodScoreNegative, r.Score("sad, lonely"))
	assert.Equal(t, MoodScoreNeutral, r.Score(""))
	assert.Equal(t, MoodScoreNeutral, r.Score("neutral"))
	assert.Equal(t, "positive", r.Label("Cheerful"))

	assert.Equal(t, 4, r.HealthScore("Feeling much better", "positive"))
	assert.Equal(t, 0, r.HealthScore("Back pain is worse", "down"))
	assert.Equal(t, 2, r.HealthScore("No complaints", "neutral"))
}
