package biography

import (
	"context"
	stdErrors "errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/telaila/companion/internal/domain/entities"
	"github.com/telaila/companion/internal/domain/repositories"
	"github.com/telaila/companion/internal/infrastructure/storage"
	usecaseErrors "github.com/telaila/companion/internal/usecase/errors"
	"github.com/telaila/companion/internal/usecase/insights"
	"github.com/telaila/companion/internal/usecase/memory"
	"github.com/telaila/companion/pkg/config"
)

const (
	dateLayout  = "January 2, 2006"
	unknownDate = "Unknown"

	downloadExpiry = 24 * time.Hour
)

// ExportStore receives rendered biography documents
type ExportStore interface {
	UploadText(ctx context.Context, objectName, content, contentType string) error
	GetFileURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
	ListFiles(ctx context.Context, prefix string) ([]string, error)
}

// Upload describes a stored export
type Upload struct {
	Format      string `json:"format"`
	Key         string `json:"key"`
	DownloadURL string `json:"download_url"`
}

// Service turns a tester's full conversation archive into a life story
type Service struct {
	testers repositories.TesterRepository
	archive repositories.ConversationArchive
	quotes  *insights.Categorizer
	exports ExportStore
	loc     *time.Location
	now     func() time.Time
	logger  *zap.Logger
}

// NewService creates a biography service. exports may be nil when object
// storage is not configured.
func NewService(
	testers repositories.TesterRepository,
	archive repositories.ConversationArchive,
	pipeline *insights.Pipeline,
	exports ExportStore,
	cfg *config.Config,
	logger *zap.Logger,
) *Service {
	return &Service{
		testers: testers,
		archive: archive,
		quotes:  pipeline.Categorizer,
		exports: exports,
		loc:     cfg.Location(),
		now:     time.Now,
		logger:  logger,
	}
}

type session struct {
	number int
	date   string
	rec    entities.ConversationRecord
}

// Build aggregates every archived conversation, oldest first. Session numbers
// follow that order.
func (s *Service) Build(ctx context.Context, testerID string) (*entities.Biography, error) {
	tester, err := s.testers.FindByID(ctx, testerID)
	if err != nil {
		return nil, err
	}

	records, err := s.archive.ListConversations(ctx, tester.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversations: %w", err)
	}

	bio := &entities.Biography{
		TesterID:       tester.ID,
		ElderName:      tester.ElderName,
		GeneratedAt:    s.now().In(s.loc),
		TotalSessions:  len(records),
		Stories:        []entities.BiographyStory{},
		People:         []entities.PersonProfile{},
		Timeline:       []entities.TimelineEntry{},
		Themes:         []entities.TopicCount{},
		Quotes:         []entities.QuoteInContext{},
		SensoryDetails: []string{},
	}

	sessions := s.sessions(records)
	people := newCharacterMap()
	topics := map[string]int{}
	seenSensory := map[string]bool{}

	for _, sess := range sessions {
		analysis := sess.rec.Analysis
		b := analysis.Biography
		mood := analysis.Mood()

		for _, d := range b.SensoryDetails {
			key := strings.ToLower(strings.TrimSpace(d))
			if key != "" && !seenSensory[key] {
				seenSensory[key] = true
				bio.SensoryDetails = append(bio.SensoryDetails, strings.TrimSpace(d))
			}
		}

		for _, story := range b.Stories {
			if story.IsEmpty() {
				continue
			}
			bio.Stories = append(bio.Stories, s.story(sess, story, mood))
			bio.WordCount += len(strings.Fields(story.Details))
		}

		for _, p := range b.People {
			people.mention(p, sess.date)
		}

		for _, ev := range b.TimelineEvents {
			if strings.TrimSpace(ev.Event) == "" {
				continue
			}
			bio.Timeline = append(bio.Timeline, entities.TimelineEntry{
				Event:   ev.Event,
				When:    when(ev),
				Session: sess.number,
				Date:    sess.date,
			})
		}

		conv := analysis.Conversation
		for _, topic := range conv.Topics {
			if key := strings.ToLower(strings.TrimSpace(topic)); key != "" {
				topics[key]++
			}
		}
		for _, raw := range conv.MemorableQuotes {
			quote := insights.CleanQuote(raw)
			if quote == "" || s.quotes.IsMeta(quote) {
				continue
			}
			bio.Quotes = append(bio.Quotes, entities.QuoteInContext{
				Quote:   quote,
				Date:    sess.date,
				Session: sess.number,
				Topics:  append([]string{}, conv.Topics...),
				Mood:    mood,
			})
		}
	}

	bio.People = people.profiles()
	bio.Themes = themes(topics)

	if s.logger != nil {
		s.logger.Info("📖 Biography built",
			zap.String("beta_id", tester.ID),
			zap.Int("sessions", bio.TotalSessions),
			zap.Int("stories", len(bio.Stories)),
			zap.Int("people", len(bio.People)),
		)
	}
	return bio, nil
}

func (s *Service) sessions(records []entities.ConversationRecord) []session {
	type dated struct {
		rec entities.ConversationRecord
		at  time.Time
		ok  bool
	}
	list := make([]dated, 0, len(records))
	for _, rec := range records {
		at, ok := rec.Time()
		list = append(list, dated{rec: rec, at: at, ok: ok})
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].ok != list[j].ok {
			return list[i].ok
		}
		return list[i].at.Before(list[j].at)
	})

	out := make([]session, len(list))
	for i, d := range list {
		date := unknownDate
		if d.ok {
			date = d.at.In(s.loc).Format(dateLayout)
		}
		out[i] = session{number: i + 1, date: date, rec: d.rec}
	}
	return out
}

// story enriches a story with its session. Sensory details and tone fall back
// to what the conversation as a whole recorded.
func (s *Service) story(sess session, story entities.Story, mood string) entities.BiographyStory {
	out := entities.BiographyStory{
		Session:        sess.number,
		Date:           sess.date,
		Topic:          story.Topic,
		Details:        story.Details,
		People:         append([]string{}, story.PeopleInvolved...),
		Context:        story.Context,
		Significance:   story.Significance,
		EmotionalTone:  story.EmotionalTone,
		SensoryDetails: story.SensoryDetails,
	}
	if out.Topic == "" {
		out.Topic = "Untitled"
	}
	if out.EmotionalTone == "" {
		out.EmotionalTone = mood
	}
	if len(out.SensoryDetails) == 0 {
		out.SensoryDetails = sess.rec.Analysis.Biography.SensoryDetails
	}
	return out
}

func when(ev entities.TimelineEvent) string {
	switch {
	case ev.Date != "":
		return ev.Date
	case ev.Year != "":
		return ev.Year
	case ev.Age != "":
		return "age " + ev.Age
	}
	return ""
}

// characterMap merges people by case-insensitive name, keeping the first
// spelling seen.
type characterMap struct {
	order  []string
	byName map[string]*entities.PersonProfile
}

func newCharacterMap() *characterMap {
	return &characterMap{byName: map[string]*entities.PersonProfile{}}
}

func (c *characterMap) mention(p entities.Person, date string) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return
	}
	key := strings.ToLower(name)
	profile, ok := c.byName[key]
	if !ok {
		profile = &entities.PersonProfile{Name: name, FirstMention: date}
		c.byName[key] = profile
		c.order = append(c.order, key)
	}
	profile.Mentions++
	if profile.Relationship == "" {
		profile.Relationship = p.Relationship
	}
	if profile.Description == "" {
		profile.Description = p.Description
	}
}

func (c *characterMap) profiles() []entities.PersonProfile {
	out := make([]entities.PersonProfile, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, *c.byName[key])
	}
	return out
}

// themes orders topics by frequency, then alphabetically
func themes(counts map[string]int) []entities.TopicCount {
	out := make([]entities.TopicCount, 0, len(counts))
	for topic, n := range counts {
		out = append(out, entities.TopicCount{Topic: topic, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Topic < out[j].Topic
	})
	return out
}

// Export renders the biography in the requested format
func (s *Service) Export(ctx context.Context, testerID, format string) (*Document, error) {
	renderer, ok := renderers[strings.ToLower(strings.TrimSpace(format))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", usecaseErrors.ErrUnsupportedFormat, format)
	}
	bio, err := s.Build(ctx, testerID)
	if err != nil {
		return nil, err
	}
	content, err := renderer.render(bio, s.now().In(s.loc))
	if err != nil {
		return nil, fmt.Errorf("failed to render biography: %w", err)
	}
	return &Document{
		Format:      renderer.format,
		ContentType: renderer.contentType,
		Extension:   renderer.ext,
		Content:     content,
	}, nil
}

// ExportMarkdown renders the biography as a Markdown document
func (s *Service) ExportMarkdown(ctx context.Context, testerID string) (string, error) {
	doc, err := s.Export(ctx, testerID, FormatMarkdown)
	if err != nil {
		return "", err
	}
	return doc.Content, nil
}

// ExportHTML renders the biography as a standalone HTML page
func (s *Service) ExportHTML(ctx context.Context, testerID string) (string, error) {
	doc, err := s.Export(ctx, testerID, FormatHTML)
	if err != nil {
		return "", err
	}
	return doc.Content, nil
}

// UploadExport stores a rendered export in object storage and returns a
// presigned download link.
func (s *Service) UploadExport(ctx context.Context, testerID, format string) (*Upload, error) {
	if s.exports == nil {
		return nil, usecaseErrors.ErrStorageDisabled
	}

	doc, err := s.Export(ctx, testerID, format)
	if err != nil {
		return nil, err
	}

	key := storage.BiographyKey(testerID, doc.Extension, s.now())
	if err := s.exports.UploadText(ctx, key, doc.Content, doc.ContentType); err != nil {
		return nil, fmt.Errorf("failed to upload biography: %w", err)
	}

	upload := &Upload{Format: doc.Format, Key: key}
	url, err := s.exports.GetFileURL(ctx, key, downloadExpiry)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("⚠️ Biography uploaded without download link", zap.String("key", key), zap.Error(err))
		}
	} else {
		upload.DownloadURL = url
	}

	if s.logger != nil {
		s.logger.Info("☁️ Biography exported", zap.String("beta_id", testerID), zap.String("key", key))
	}
	return upload, nil
}

// ListExports returns the stored exports of a tester, newest first
func (s *Service) ListExports(ctx context.Context, testerID string) ([]Upload, error) {
	if s.exports == nil {
		return nil, usecaseErrors.ErrStorageDisabled
	}
	tester, err := s.testers.FindByID(ctx, testerID)
	if err != nil {
		return nil, err
	}

	keys, err := s.exports.ListFiles(ctx, storage.BiographyPrefix(tester.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to list biography exports: %w", err)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	uploads := make([]Upload, 0, len(keys))
	for _, key := range keys {
		format, ok := formatForKey(key)
		if !ok {
			continue
		}
		upload := Upload{Format: format, Key: key}
		if url, err := s.exports.GetFileURL(ctx, key, downloadExpiry); err == nil {
			upload.DownloadURL = url
		} else if s.logger != nil {
			s.logger.Warn("⚠️ No download link for export", zap.String("key", key), zap.Error(err))
		}
		uploads = append(uploads, upload)
	}
	return uploads, nil
}

// BuildingBlocks returns the story bullets kept in the knowledge base
func (s *Service) BuildingBlocks(ctx context.Context, testerID string) ([]memory.BuildingBlock, error) {
	tester, err := s.testers.FindByID(ctx, testerID)
	if err != nil {
		return nil, err
	}
	kb, err := s.archive.ReadKnowledgeBase(ctx, tester.ID)
	if err != nil {
		if stdErrors.Is(err, entities.ErrKnowledgeBaseMissing) {
			return []memory.BuildingBlock{}, nil
		}
		return nil, fmt.Errorf("failed to read knowledge base: %w", err)
	}
	return memory.BuildingBlocks(kb), nil
}
