package conversation

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/telaila/companion/internal/domain/entities"
	"github.com/telaila/companion/internal/domain/repositories"
	"github.com/telaila/companion/internal/infrastructure/storage"
	usecaseErrors "github.com/telaila/companion/internal/usecase/errors"
	"github.com/telaila/companion/internal/usecase/memory"
	pkgai "github.com/telaila/companion/pkg/ai"
	"github.com/telaila/companion/pkg/config"
)

// Result statuses
const (
	StatusProcessed = "processed"
	StatusDuplicate = "duplicate"
	StatusIgnored   = "ignored"
)

// Analyzer turns a transcript into structured analysis and shrinks
// knowledge bases that grew too large
type Analyzer interface {
	Analyze(ctx context.Context, transcript, elderName, knowledgeBase string) (entities.Analysis, error)
	Compress(ctx context.Context, knowledgeBase, elderName string, keepSessions int) (string, error)
}

// ClaimStore marks a conversation as being processed
type ClaimStore interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// ObjectStore mirrors archive files to object storage
type ObjectStore interface {
	UploadText(ctx context.Context, objectName, content, contentType string) error
}

// Result is what the webhook caller gets back
type Result struct {
	Success        bool                `json:"success"`
	Status         string              `json:"status"`
	Message        string              `json:"message"`
	ConversationID string              `json:"conversation_id,omitempty"`
	TesterID       string              `json:"beta_id,omitempty"`
	Session        int                 `json:"session,omitempty"`
	AlertLevel     entities.AlertLevel `json:"alert_level,omitempty"`
}

// Service defines conversation ingestion
type Service interface {
	HandleConversationEnded(ctx context.Context, payload []byte, signature string) (*Result, error)
}

type conversationService struct {
	testers  repositories.TesterRepository
	archive  repositories.ConversationArchive
	analyzer Analyzer
	claims   ClaimStore
	objects  ObjectStore
	cfg      *config.Config
	loc      *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// NewService constructs the ingestion service. objects may be nil when
// object storage is disabled.
func NewService(
	testers repositories.TesterRepository,
	archive repositories.ConversationArchive,
	analyzer Analyzer,
	claims ClaimStore,
	objects ObjectStore,
	cfg *config.Config,
	logger *zap.Logger,
) Service {
	return &conversationService{
		testers:  testers,
		archive:  archive,
		analyzer: analyzer,
		claims:   claims,
		objects:  objects,
		cfg:      cfg,
		loc:      cfg.Location(),
		now:      time.Now,
		logger:   logger,
	}
}

// HandleConversationEnded archives a finished call, updates the knowledge
// base and writes the family update. A conversation is processed once; later
// deliveries report StatusDuplicate.
func (s *conversationService) HandleConversationEnded(ctx context.Context, payload []byte, signature string) (*Result, error) {
	if secret := s.cfg.Webhook.Secret; secret != "" {
		if err := pkgai.VerifyWebhookSignature(secret, signature, payload, s.now(), s.cfg.Webhook.Tolerance); err != nil {
			s.warn("invalid webhook signature", zap.Error(err))
			return nil, fmt.Errorf("%w: %v", usecaseErrors.ErrInvalidSignature, err)
		}
	}

	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", usecaseErrors.ErrInvalidInput, err)
	}
	if event.Type != "" && event.Type != EventPostCallTranscription {
		s.info("⏭️ Ignoring webhook event", zap.String("type", event.Type))
		return &Result{Success: true, Status: StatusIgnored, Message: "Event ignored"}, nil
	}

	data := event.Data
	if data.ConversationID == "" {
		return nil, usecaseErrors.ErrMissingConversationID
	}

	s.info("📞 Conversation ended webhook received",
		zap.String("agent_id", data.AgentID),
		zap.String("conversation_id", data.ConversationID),
	)

	tester, err := s.testers.FindByAgentID(ctx, data.AgentID)
	if err != nil {
		if stdErrors.Is(err, entities.ErrTesterNotFound) {
			return nil, entities.ErrAgentNotLinked
		}
		return nil, fmt.Errorf("failed to find tester: %w", err)
	}

	claimKey := "conversation:" + data.ConversationID
	claimed, err := s.claims.Claim(ctx, claimKey, s.cfg.Redis.DedupTTL)
	if err != nil {
		// the write-once archive still rejects a second copy
		s.warn("claim store unavailable", zap.Error(err))
		claimed = true
	}
	if !claimed {
		return s.duplicate(tester.ID, data.ConversationID), nil
	}

	result, err := s.process(ctx, tester, data)
	if err != nil {
		if releaseErr := s.claims.Release(ctx, claimKey); releaseErr != nil {
			s.warn("failed to release claim", zap.Error(releaseErr))
		}
		return nil, err
	}
	return result, nil
}

func (s *conversationService) process(ctx context.Context, tester *entities.Tester, data WebhookData) (*Result, error) {
	exists, err := s.archive.HasConversation(ctx, tester.ID, data.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to check archive: %w", err)
	}
	if exists {
		return s.duplicate(tester.ID, data.ConversationID), nil
	}

	at := s.now().UTC()
	if data.Metadata.StartTimeUnixSecs > 0 {
		at = time.Unix(data.Metadata.StartTimeUnixSecs, 0).UTC()
	}

	transcript := FormatTranscript(data.Transcript, s.cfg.Webhook.AgentName)

	kb, err := s.archive.ReadKnowledgeBase(ctx, tester.ID)
	if err != nil {
		if !stdErrors.Is(err, entities.ErrKnowledgeBaseMissing) {
			return nil, fmt.Errorf("failed to read knowledge base: %w", err)
		}
		kb = memory.New(tester.ElderName)
	}

	analysis := s.analyze(ctx, transcript, tester.ElderName, kb)

	record := &entities.ConversationRecord{
		ConversationID:  data.ConversationID,
		TesterID:        tester.ID,
		AgentID:         data.AgentID,
		Timestamp:       at.Format(time.RFC3339),
		Transcript:      transcript,
		DurationSeconds: data.Metadata.CallDurationSecs,
		Analysis:        analysis,
	}
	if err := s.archive.SaveConversation(ctx, tester.ID, record); err != nil {
		if stdErrors.Is(err, entities.ErrConversationExists) {
			return s.duplicate(tester.ID, data.ConversationID), nil
		}
		return nil, fmt.Errorf("failed to archive conversation: %w", err)
	}

	// The record is archived; from here on failures are logged, not returned,
	// so a retried delivery does not look like a new call.
	session := s.updateKnowledgeBase(ctx, tester, kb, record, at)

	update := entities.NewFamilyUpdate(*record, tester.ElderName, tester.FamilyName, at.In(s.loc).Format("January 2, 2006"))
	if _, err := s.archive.SaveFamilyUpdate(ctx, tester.ID, &update); err != nil {
		s.error("❌ Failed to save family update", err, zap.String("beta_id", tester.ID))
	}
	if update.AlertLevel == entities.AlertLevelHigh {
		s.warn("🔴 Red flags detected",
			zap.String("beta_id", tester.ID),
			zap.Strings("red_flags", update.RedFlags),
		)
	}

	tester.RecordConversation(at)
	if err := s.testers.Update(ctx, tester); err != nil {
		s.error("❌ Failed to update conversation count", err, zap.String("beta_id", tester.ID))
	}

	s.mirror(ctx, tester.ID, record)

	s.info("✅ Conversation processed",
		zap.String("beta_id", tester.ID),
		zap.String("conversation_id", record.ConversationID),
		zap.Int("session", session),
		zap.String("alert_level", string(update.AlertLevel)),
	)

	return &Result{
		Success:        true,
		Status:         StatusProcessed,
		Message:        "Conversation processed",
		ConversationID: record.ConversationID,
		TesterID:       tester.ID,
		Session:        session,
		AlertLevel:     update.AlertLevel,
	}, nil
}

func (s *conversationService) analyze(ctx context.Context, transcript, elderName, kb string) entities.Analysis {
	if s.analyzer == nil || transcript == "" {
		return FallbackAnalysis()
	}
	analysis, err := s.analyzer.Analyze(ctx, transcript, elderName, kb)
	if err != nil {
		s.warn("⚠️ Analysis failed, storing minimal analysis", zap.Error(err))
		return FallbackAnalysis()
	}
	return analysis
}

func (s *conversationService) updateKnowledgeBase(ctx context.Context, tester *entities.Tester, kb string, record *entities.ConversationRecord, at time.Time) int {
	minutes := int(math.Round(record.DurationSeconds / 60))
	if minutes == 0 {
		minutes = (record.TurnCount()*s.cfg.Dashboard.SecondsPerTurn + 59) / 60
	}

	updated, session := memory.AppendSession(kb, memory.Session{
		At:         at.In(s.loc),
		Minutes:    minutes,
		Transcript: record.Transcript,
		Analysis:   record.Analysis,
	})
	updated = s.compress(ctx, tester, updated)

	if err := s.archive.WriteKnowledgeBase(ctx, tester.ID, updated); err != nil {
		s.error("❌ Failed to write knowledge base", err, zap.String("beta_id", tester.ID))
	}
	return session
}

// compress shrinks an oversized knowledge base with the analyzer, falling
// back to dropping old transcripts when that fails.
func (s *conversationService) compress(ctx context.Context, tester *entities.Tester, kb string) string {
	threshold := s.cfg.Memory.CompressThreshold
	if !memory.NeedsCompression(kb, threshold) {
		return kb
	}
	keep := s.cfg.Memory.KeepSessions

	s.info("🗜️ Compressing knowledge base", zap.String("beta_id", tester.ID), zap.Int("chars", len(kb)))
	if s.analyzer != nil {
		compressed, err := s.analyzer.Compress(ctx, kb, tester.ElderName, keep)
		if err == nil {
			err = memory.ValidateCompressed(kb, compressed)
		}
		if err == nil {
			return compressed
		}
		s.warn("⚠️ Compression failed, trimming transcripts", zap.Error(err))
	}
	return memory.TrimTranscripts(kb, keep)
}

func (s *conversationService) mirror(ctx context.Context, testerID string, record *entities.ConversationRecord) {
	if s.objects == nil {
		return
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		s.error("❌ Failed to encode conversation for mirror", err)
		return
	}
	if err := s.objects.UploadText(ctx, storage.ConversationKey(testerID, record.ConversationID), string(data), storage.ContentTypeJSON); err != nil {
		s.error("❌ Failed to mirror conversation", err, zap.String("beta_id", testerID))
	}
	kb, err := s.archive.ReadKnowledgeBase(ctx, testerID)
	if err != nil {
		return
	}
	if err := s.objects.UploadText(ctx, storage.KnowledgeBaseKey(testerID), kb, storage.ContentTypeMarkdown); err != nil {
		s.error("❌ Failed to mirror knowledge base", err, zap.String("beta_id", testerID))
	}
}

func (s *conversationService) duplicate(testerID, conversationID string) *Result {
	s.info("♻️ Duplicate conversation ignored",
		zap.String("beta_id", testerID),
		zap.String("conversation_id", conversationID),
	)
	return &Result{
		Success:        true,
		Status:         StatusDuplicate,
		Message:        "Conversation already processed",
		ConversationID: conversationID,
		TesterID:       testerID,
	}
}

func (s *conversationService) info(msg string, fields ...zap.Field) {
	if s.logger != nil {
		s.logger.Info(msg, fields...)
	}
}

func (s *conversationService) warn(msg string, fields ...zap.Field) {
	if s.logger != nil {
		s.logger.Warn(msg, fields...)
	}
}

func (s *conversationService) error(msg string, err error, fields ...zap.Field) {
	if s.logger != nil {
		s.logger.Error(msg, append(fields, zap.Error(err))...)
	}
}
