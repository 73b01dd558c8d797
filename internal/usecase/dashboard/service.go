package dashboard

import (
	"context"
	stdErrors "errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/telaila/companion/internal/domain/entities"
	"github.com/telaila/companion/internal/domain/repositories"
	"github.com/telaila/companion/internal/usecase/insights"
	"github.com/telaila/companion/pkg/config"
)

const (
	dateLayout = "January 2, 2006"
	dayLayout  = "2006-01-02"

	unknownDate = "Unknown"
)

// Summary statuses
const (
	StatusWaiting  = "waiting_for_first_call"
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Service builds the family dashboard from a tester's archive. Nothing is
// cached; every call rescans the archive.
type Service struct {
	testers  repositories.TesterRepository
	archive  repositories.ConversationArchive
	pipeline *insights.Pipeline
	policy   config.DashboardConfig
	loc      *time.Location
	now      func() time.Time
	logger   *zap.Logger

	falseAlarms insights.TermSet
	loneliness  insights.TermSet
	patterns    []insights.TermSet
	chapters    []chapterMatcher
}

type chapterMatcher struct {
	chapter insights.Chapter
	terms   insights.TermSet
}

// NewService creates a dashboard service
func NewService(
	testers repositories.TesterRepository,
	archive repositories.ConversationArchive,
	pipeline *insights.Pipeline,
	cfg *config.Config,
	logger *zap.Logger,
) *Service {
	kw := pipeline.Keywords
	s := &Service{
		testers:     testers,
		archive:     archive,
		pipeline:    pipeline,
		policy:      cfg.Dashboard,
		loc:         cfg.Location(),
		now:         time.Now,
		logger:      logger,
		falseAlarms: insights.NewTermSet("false_alarm", kw.FalseAlarmTerms),
		loneliness:  insights.NewTermSet("loneliness", kw.LonelinessTerms),
		patterns:    insights.TermSets(kw.HealthPatterns),
	}
	for _, ch := range kw.LifeChapters {
		s.chapters = append(s.chapters, chapterMatcher{chapter: ch, terms: insights.NewTermSet(ch.ID, ch.Keywords)})
	}
	return s
}

// entry is a conversation with its local time resolved
type entry struct {
	rec   entities.ConversationRecord
	at    time.Time
	dated bool
}

func (e entry) date() string {
	if !e.dated {
		return unknownDate
	}
	return e.at.Format(dateLayout)
}

// Generate builds the report for one tester. A tester without conversations
// gets the empty report rather than an error.
func (s *Service) Generate(ctx context.Context, testerID string) (*entities.DashboardReport, error) {
	tester, err := s.testers.FindByID(ctx, testerID)
	if err != nil {
		return nil, err
	}

	records, err := s.archive.ListConversations(ctx, tester.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversations: %w", err)
	}

	kb, err := s.archive.ReadKnowledgeBase(ctx, tester.ID)
	if err != nil {
		if !stdErrors.Is(err, entities.ErrKnowledgeBaseMissing) {
			s.warn("⚠️ Knowledge base unreadable, continuing without it", zap.String("beta_id", tester.ID), zap.Error(err))
		}
		kb = ""
	}

	now := s.now().In(s.loc)
	if len(records) == 0 {
		return s.emptyReport(tester, now, kb), nil
	}

	entries := s.entries(records)

	scanned := ""
	if s.policy.ScanKnowledgeBase {
		scanned = kb
	}
	events := s.pipeline.HealthEvents(records, scanned)

	report := &entities.DashboardReport{
		Tester:            tester.Profile(),
		GeneratedAt:       now,
		Summary:           s.summary(tester, entries, now),
		HealthEvents:      events,
		HealthInsights:    s.healthInsights(entries),
		InTheirWords:      s.inTheirWords(entries),
		LifeStory:         s.lifeStory(entries),
		WeeklyUpdates:     s.weeklyUpdates(entries, now),
		Alerts:            s.alerts(entries, events),
		Trends:            s.trends(entries),
		BiographyProgress: s.biographyProgress(entries, kb),
	}
	report.Recommendations = s.recommendations(tester, entries, events)

	s.info("📊 Dashboard generated",
		zap.String("beta_id", tester.ID),
		zap.Int("conversations", len(records)),
		zap.Int("health_events", len(events)),
	)
	return report, nil
}

// entries resolves local times and orders conversations oldest first with
// undated ones last.
func (s *Service) entries(records []entities.ConversationRecord) []entry {
	out := make([]entry, 0, len(records))
	for _, rec := range records {
		e := entry{rec: rec}
		if t, ok := rec.Time(); ok {
			e.at, e.dated = t.In(s.loc), true
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].dated != out[j].dated {
			return out[i].dated
		}
		return out[i].at.Before(out[j].at)
	})
	return out
}

// FamilyUpdates returns the per-call family updates, newest first. A limit
// of zero or less returns all of them.
func (s *Service) FamilyUpdates(ctx context.Context, testerID string, limit int) ([]entities.FamilyUpdate, error) {
	tester, err := s.testers.FindByID(ctx, testerID)
	if err != nil {
		return nil, err
	}
	updates, err := s.archive.ListFamilyUpdates(ctx, tester.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load family updates: %w", err)
	}
	return updates, nil
}

func (s *Service) emptyReport(tester *entities.Tester, now time.Time, kb string) *entities.DashboardReport {
	return &entities.DashboardReport{
		Tester:      tester.Profile(),
		GeneratedAt: now,
		Summary: entities.DashboardSummary{
			Status:            StatusWaiting,
			AverageEngagement: "moderate",
			DominantMood:      "neutral",
			Message:           "No conversations yet",
		},
		HealthEvents: []entities.HealthEvent{},
		HealthInsights: entities.HealthInsights{
			CurrentStatus:  noHealthInfo,
			ActiveConcerns: []string{},
			Patterns:       []entities.HealthPattern{},
			Trend:          TrendInsufficientData,
		},
		InTheirWords: []entities.ThemeBucket{},
		LifeStory: entities.LifeStory{
			Themes:        []string{},
			RecentStories: []entities.StorySummary{},
		},
		WeeklyUpdates: entities.WeeklyUpdates{Period: periodLastWeek, Days: []entities.DayDigest{}},
		Alerts:        []entities.Alert{},
		Trends: entities.Trends{
			MoodTimeline:       []entities.TimelinePoint{},
			EngagementTimeline: []entities.TimelinePoint{},
			WeeklyFrequency:    []entities.WeekCount{},
			TopTopics:          []entities.TopicCount{},
		},
		Recommendations:   s.recommendations(tester, nil, nil),
		BiographyProgress: s.biographyProgress(nil, kb),
	}
}

func (s *Service) info(msg string, fields ...zap.Field) {
	if s.logger != nil {
		s.logger.Info(msg, fields...)
	}
}

func (s *Service) warn(msg string, fields ...zap.Field) {
	if s.logger != nil {
		s.logger.Warn(msg, fields...)
	}
}
