package dashboard

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/telaila/companion/internal/adapter/repository"
	"github.com/telaila/companion/internal/domain/entities"
	"github.com/telaila/companion/internal/domain/repositories"
	"github.com/telaila/companion/internal/usecase/insights"
	"github.com/telaila/companion/pkg/config"
)

type fixture struct {
	svc     *Service
	archive repositories.ConversationArchive
	tester  *entities.Tester
}

func testConfig() *config.Config {
	return &config.Config{
		Dashboard: config.DashboardConfig{
			Timezone:                    "America/Vancouver",
			ActiveWithinDays:            7,
			RecentMoodWindow:            5,
			WeeklyFallbackCount:         3,
			MaxAlerts:                   5,
			MinRegularConversations:     3,
			EngagementHighThreshold:     2.5,
			EngagementModerateThreshold: 1.5,
			ScanKnowledgeBase:           true,
			SecondsPerTurn:              30,
		},
	}
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	testers := repository.NewRegistryRepository(filepath.Join(dir, "beta_testers.json"))
	archive := repository.NewFileArchive(filepath.Join(dir, "beta_testers"), zap.NewNop())

	tester := entities.NewTester("Walter", "Anna", "anna@example.com", "token")
	require.NoError(t, testers.Create(ctx, tester))
	require.NoError(t, archive.EnsureTester(ctx, tester.ID))

	pipeline, err := insights.NewPipeline(insights.DefaultKeywords(), insights.DefaultPolicy())
	require.NoError(t, err)

	svc := NewService(testers, archive, pipeline, testConfig(), zap.NewNop())
	svc.now = func() time.Time { return now }
	return &fixture{svc: svc, archive: archive, tester: tester}
}

func (f *fixture) save(t *testing.T, raw string) {
	t.Helper()
	var rec entities.ConversationRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))
	require.NoError(t, f.archive.SaveConversation(context.Background(), f.tester.ID, &rec))
}

func (f *fixture) saveLadderStory(t *testing.T) {
	f.save(t, `{
		"conversation_id": "c1",
		"timestamp": "2026-03-01T10:00:00",
		"transcript": "\nUser: I fell off a ladder, hurt my back\n\nAila: That sounds painful.\n",
		"analysis": {
			"health": {"summary": "Fell off a ladder and hurt back", "red_flags": [{"flag": "Fall from ladder"}]},
			"conversation": {"mood": "worried", "engagement": "moderate", "topics": ["ladder", "garden"]}
		}
	}`)
	f.save(t, `{
		"conversation_id": "c2",
		"timestamp": "2026-03-03T10:00:00Z",
		"transcript": "\nUser: My back is still sore, and I have trouble sleeping.\n",
		"analysis": {
			"health": {"summary": "Back still sore; trouble sleeping", "red_flags": []},
			"conversation": {"mood": "tired", "engagement": "low", "topics": ["sleep"]}
		}
	}`)
	f.save(t, `{
		"conversation_id": "c3",
		"timestamp": "2026-03-10T10:00:00Z",
		"transcript": "\nUser: Feeling much better, poker night was fun.\n",
		"analysis": {
			"health": {"summary": "Feeling much better overall"},
			"conversation": {
				"mood": "positive",
				"engagement": "high",
				"topics": ["poker", "friends"],
				"memorable_quotes": ["Feeling much better, poker night was fun", "Are you a robot?"]
			}
		}
	}`)
}

func TestGenerate_EmptyHistory(t *testing.T) {
	f := newFixture(t, time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC))

	report, err := f.svc.Generate(context.Background(), f.tester.ID)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Summary.TotalConversations)
	assert.Equal(t, StatusWaiting, report.Summary.Status)
	assert.Nil(t, report.Summary.DaysSinceLast)
	assert.NotNil(t, report.HealthEvents)
	assert.NotNil(t, report.HealthInsights.ActiveConcerns)
	assert.NotNil(t, report.HealthInsights.Patterns)
	assert.Equal(t, TrendInsufficientData, report.HealthInsights.Trend)
	assert.NotNil(t, report.InTheirWords)
	assert.NotNil(t, report.LifeStory.RecentStories)
	assert.NotNil(t, report.WeeklyUpdates.Days)
	assert.NotNil(t, report.Alerts)
	assert.NotNil(t, report.Trends.MoodTimeline)
	assert.NotNil(t, report.Trends.WeeklyFrequency)
	assert.Equal(t, 8, report.BiographyProgress.TotalChapters)
	assert.Len(t, report.BiographyProgress.NextAreas, 3)

	require.Len(t, report.Recommendations, 1)
	assert.Equal(t, RecommendGettingStarted, report.Recommendations[0].Type)
	assert.Equal(t, "Schedule the first call", report.Recommendations[0].Title)

	// every section serializes as a value, never null
	data, err := json.Marshal(report)
	require.NoError(t, err)
	var sections map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &sections))
	for name, raw := range sections {
		assert.NotEqual(t, "null", string(raw), name)
	}
}

func TestGenerate_UnknownTester(t *testing.T) {
	f := newFixture(t, time.Now())

	_, err := f.svc.Generate(context.Background(), "BT999")
	assert.ErrorIs(t, err, entities.ErrTesterNotFound)
}

func TestGenerate_LadderFallScenario(t *testing.T) {
	f := newFixture(t, time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC))
	f.saveLadderStory(t)

	report, err := f.svc.Generate(context.Background(), f.tester.ID)
	require.NoError(t, err)

	sum := report.Summary
	assert.Equal(t, 3, sum.TotalConversations)
	assert.Equal(t, "March 1, 2026", sum.FirstConversation)
	assert.Equal(t, "March 10, 2026", sum.LastConversation)
	require.NotNil(t, sum.DaysSinceLast)
	assert.Equal(t, 1, *sum.DaysSinceLast)
	assert.Equal(t, StatusActive, sum.Status)
	assert.Equal(t, "moderate", sum.AverageEngagement)
	assert.Equal(t, 2.0, sum.EngagementScore)

	require.Len(t, report.HealthEvents, 3)
	fall := report.HealthEvents[0]
	assert.Equal(t, "Fall Incident - Back Injury", fall.Title)
	require.NotNil(t, fall.DetectedOn)
	assert.True(t, fall.DetectedOn.Equal(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Sore (Back)", report.HealthEvents[1].Title)
	assert.Equal(t, fall.EventID, report.HealthEvents[1].LinkedTo)

	assert.Equal(t, TrendImproving, report.HealthInsights.Trend)
	assert.Equal(t, "Feeling much better overall", report.HealthInsights.CurrentStatus)
	assert.Equal(t, 3, report.HealthInsights.TotalHealthMentions)
	assert.Equal(t, []string{"Fall from ladder"}, report.HealthInsights.ActiveConcerns)

	// the red flag is explained by the fall event
	require.Len(t, report.Alerts, 1)
	assert.Equal(t, AlertHealthEvent, report.Alerts[0].Type)
	assert.Equal(t, fall.EventID, report.Alerts[0].EventID)

	require.Len(t, report.InTheirWords, 1)
	bucket := report.InTheirWords[0]
	assert.Equal(t, "friends", bucket.ThemeID)
	require.Len(t, bucket.Quotes, 1)
	assert.Equal(t, "Feeling much better, poker night was fun", bucket.Quotes[0].Quote)
	assert.Equal(t, "March 10, 2026", bucket.Quotes[0].Date)

	require.Len(t, report.Recommendations, 1)
	assert.Equal(t, RecommendHealth, report.Recommendations[0].Type)
	assert.Equal(t, "Follow up on Fall Incident - Back Injury", report.Recommendations[0].Title)

	weekly := report.WeeklyUpdates
	assert.Equal(t, "last_7_days", weekly.Period)
	require.Len(t, weekly.Days, 1)
	assert.Equal(t, "Tuesday", weekly.Days[0].Weekday)
	assert.Equal(t, []string{"poker", "friends"}, weekly.Days[0].Topics)

	trends := report.Trends
	assert.Equal(t, 3, trends.DataPoints)
	require.Len(t, trends.MoodTimeline, 3)
	assert.Equal(t, "negative", trends.MoodTimeline[0].Label)
	assert.Equal(t, "positive", trends.MoodTimeline[2].Label)
	assert.Equal(t, []entities.WeekCount{
		{Week: "2026-W09", Conversations: 1},
		{Week: "2026-W10", Conversations: 1},
		{Week: "2026-W11", Conversations: 1},
	}, trends.WeeklyFrequency)
}

func TestGenerate_SymptomRedFlagStillAlerts(t *testing.T) {
	f := newFixture(t, time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC))
	f.save(t, `{
		"conversation_id": "c1",
		"timestamp": "2026-03-10T09:00:00Z",
		"analysis": {
			"health": {"red_flags": ["Mentioned chest pain and shortness of breath this morning"]},
			"conversation": {"mood": "worried"}
		}
	}`)

	report, err := f.svc.Generate(context.Background(), f.tester.ID)
	require.NoError(t, err)

	require.NotEmpty(t, report.HealthEvents)
	for _, ev := range report.HealthEvents {
		assert.NotEqual(t, entities.SeverityHigh, ev.Severity, ev.Title)
	}
	require.Len(t, report.Alerts, 1)
	assert.Equal(t, AlertHealthConcern, report.Alerts[0].Type)
	assert.Equal(t, "high", report.Alerts[0].Severity)
	assert.Equal(t, "Mentioned chest pain and shortness of breath this morning", report.Alerts[0].Message)
	assert.Equal(t, "March 10, 2026", report.Alerts[0].Date)
}

func TestGenerate_WeeklyFallback(t *testing.T) {
	f := newFixture(t, time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC))
	f.saveLadderStory(t)

	report, err := f.svc.Generate(context.Background(), f.tester.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusInactive, report.Summary.Status)
	assert.Equal(t, "recent", report.WeeklyUpdates.Period)
	require.Len(t, report.WeeklyUpdates.Days, 3)
	assert.Equal(t, "March 10, 2026", report.WeeklyUpdates.Days[0].Date)
	assert.Equal(t, "March 1, 2026", report.WeeklyUpdates.Days[2].Date)
}

func TestGenerate_MoodOverrideAndConcerns(t *testing.T) {
	f := newFixture(t, time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC))
	f.save(t, `{
		"conversation_id": "c1",
		"timestamp": "2026-03-09T18:00:00Z",
		"analysis": {
			"conversation": {
				"mood": "positive",
				"topics": ["family"],
				"memorable_quotes": ["The pain in my shoulder has been tough to deal with"]
			},
			"biography": {"stories": [{"topic": "Wedding", "details": "Married Harold in 1962 at the old church"}]},
			"family_dashboard": {"concerns": ["Seems lonely since the move", "AI repetition glitch during the call"]}
		}
	}`)

	report, err := f.svc.Generate(context.Background(), f.tester.ID)
	require.NoError(t, err)

	require.Len(t, report.InTheirWords, 1)
	quote := report.InTheirWords[0].Quotes[0]
	assert.Equal(t, "Struggling", quote.MoodLabel)
	assert.NotEqual(t, "Happy", quote.MoodLabel)

	var messages []string
	for _, a := range report.Alerts {
		messages = append(messages, a.Message)
	}
	assert.Contains(t, messages, "Seems lonely since the move")
	assert.NotContains(t, messages, "AI repetition glitch during the call")

	var types []string
	for _, r := range report.Recommendations {
		types = append(types, r.Type)
	}
	assert.Equal(t, []string{RecommendEngagement, RecommendSocial, RecommendConnection}, types)

	assert.Equal(t, 1, report.LifeStory.TotalStories)
	assert.GreaterOrEqual(t, report.BiographyProgress.ChaptersCaptured, 1)
}
