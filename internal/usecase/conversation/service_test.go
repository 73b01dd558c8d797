package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/telaila/companion/internal/adapter/repository"
	"github.com/telaila/companion/internal/domain/entities"
	"github.com/telaila/companion/internal/domain/repositories"
	"github.com/telaila/companion/internal/infrastructure/cache"
	usecaseErrors "github.com/telaila/companion/internal/usecase/errors"
	"github.com/telaila/companion/internal/usecase/memory"
	pkgai "github.com/telaila/companion/pkg/ai"
	"github.com/telaila/companion/pkg/config"
)

type fakeAnalyzer struct {
	analysis   entities.Analysis
	err        error
	compressed string
	compressFn func(kb string) string
	calls      int
	compresses int
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, transcript, elderName, knowledgeBase string) (entities.Analysis, error) {
	f.calls++
	return f.analysis, f.err
}

func (f *fakeAnalyzer) Compress(ctx context.Context, knowledgeBase, elderName string, keepSessions int) (string, error) {
	f.compresses++
	if f.compressFn != nil {
		return f.compressFn(knowledgeBase), nil
	}
	return f.compressed, nil
}

type fakeObjects struct {
	mu      sync.Mutex
	objects map[string]string
}

func (f *fakeObjects) UploadText(ctx context.Context, objectName, content, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objects == nil {
		f.objects = map[string]string{}
	}
	f.objects[objectName] = content
	return nil
}

type fixture struct {
	svc      *conversationService
	testers  repositories.TesterRepository
	archive  repositories.ConversationArchive
	analyzer *fakeAnalyzer
	objects  *fakeObjects
	tester   *entities.Tester
	cfg      *config.Config
}

func testConfig() *config.Config {
	return &config.Config{
		Redis:     config.RedisConfig{DedupTTL: time.Hour},
		Webhook:   config.WebhookConfig{AgentName: "Aila", Tolerance: 30 * time.Minute},
		Dashboard: config.DashboardConfig{Timezone: "America/Vancouver", SecondsPerTurn: 30},
		Memory:    config.MemoryConfig{CompressThreshold: 15000, KeepSessions: 3},
	}
}

func newFixture(t *testing.T, cfg *config.Config) *fixture {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	testers := repository.NewRegistryRepository(filepath.Join(dir, "beta_testers.json"))
	archive := repository.NewFileArchive(filepath.Join(dir, "beta_testers"), zap.NewNop())

	tester := entities.NewTester("Walter", "Anna", "anna@example.com", "token")
	require.NoError(t, testers.Create(ctx, tester))
	tester.LinkAgent("agent_walter")
	require.NoError(t, testers.Update(ctx, tester))
	require.NoError(t, archive.EnsureTester(ctx, tester.ID))

	claims := cache.NewMemoryStore()
	t.Cleanup(func() { _ = claims.Close() })

	analyzer := &fakeAnalyzer{}
	objects := &fakeObjects{}
	svc := NewService(testers, archive, analyzer, claims, objects, cfg, zap.NewNop()).(*conversationService)
	svc.now = func() time.Time { return time.Date(2026, 3, 2, 22, 30, 0, 0, time.UTC) }

	return &fixture{
		svc:      svc,
		testers:  testers,
		archive:  archive,
		analyzer: analyzer,
		objects:  objects,
		tester:   tester,
		cfg:      cfg,
	}
}

func webhookBody(t *testing.T, conversationID, agentID string) []byte {
	t.Helper()
	event := WebhookEvent{
		Type: EventPostCallTranscription,
		Data: WebhookData{
			AgentID:        agentID,
			ConversationID: conversationID,
			Transcript: []TranscriptTurn{
				{Role: "agent", Message: "Good evening Walter, how was your day?"},
				{Role: "user", Message: "I fell off the ladder and my back hurts."},
				{Role: "user", Message: "   "},
			},
			Metadata: CallMetadata{
				StartTimeUnixSecs: time.Date(2026, 3, 2, 22, 0, 0, 0, time.UTC).Unix(),
				CallDurationSecs:  610,
			},
		},
	}
	body, err := json.Marshal(event)
	require.NoError(t, err)
	return body
}

func redFlagAnalysis(t *testing.T) entities.Analysis {
	t.Helper()
	var a entities.Analysis
	require.NoError(t, json.Unmarshal([]byte(`{
		"health": {"summary": "Fell from a ladder, back pain", "red_flags": ["fall"]},
		"conversation": {"mood": "tired", "engagement": "high", "topics": ["ladder"]},
		"family_dashboard": {"health_summary": "Walter had a fall", "concerns": ["back pain"]}
	}`), &a))
	return a
}

func TestHandleConversationEnded_Processes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testConfig())
	f.analyzer.analysis = redFlagAnalysis(t)

	result, err := f.svc.HandleConversationEnded(ctx, webhookBody(t, "conv_1", "agent_walter"), "")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, StatusProcessed, result.Status)
	assert.Equal(t, "Conversation processed", result.Message)
	assert.Equal(t, f.tester.ID, result.TesterID)
	assert.Equal(t, 1, result.Session)
	assert.Equal(t, entities.AlertLevelHigh, result.AlertLevel)

	records, err := f.archive.ListConversations(ctx, f.tester.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "2026-03-02T22:00:00Z", records[0].Timestamp)
	assert.Equal(t, "\nAila: Good evening Walter, how was your day?\n\nUser: I fell off the ladder and my back hurts.\n", records[0].Transcript)
	assert.Equal(t, 610.0, records[0].DurationSeconds)

	kb, err := f.archive.ReadKnowledgeBase(ctx, f.tester.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, memory.SessionCount(kb))
	// 22:00 UTC is 2pm in Vancouver
	assert.Contains(t, kb, "**Time:** 2:00 PM\n**Duration:** Approx 10 minutes\n")

	updates, err := f.archive.ListFamilyUpdates(ctx, f.tester.ID, 0)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, "March 2, 2026", updates[0].Date)
	assert.Equal(t, []string{"fall"}, updates[0].RedFlags)

	stored, err := f.testers.FindByID(ctx, f.tester.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.ConversationCount)
	require.NotNil(t, stored.LastConversationAt)

	assert.Contains(t, f.objects.objects, f.tester.ID+"/conversations/conv_1.json")
	assert.Contains(t, f.objects.objects, f.tester.ID+"/knowledge_base.md")
	assert.Len(t, f.objects.objects, 2)
}

func TestHandleConversationEnded_Duplicate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testConfig())
	body := webhookBody(t, "conv_1", "agent_walter")

	_, err := f.svc.HandleConversationEnded(ctx, body, "")
	require.NoError(t, err)

	again, err := f.svc.HandleConversationEnded(ctx, body, "")
	require.NoError(t, err)
	assert.Equal(t, StatusDuplicate, again.Status)
	assert.Equal(t, 1, f.analyzer.calls)

	records, err := f.archive.ListConversations(ctx, f.tester.ID)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	stored, err := f.testers.FindByID(ctx, f.tester.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.ConversationCount)
}

func TestHandleConversationEnded_DuplicateAfterClaimExpired(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testConfig())
	body := webhookBody(t, "conv_1", "agent_walter")

	_, err := f.svc.HandleConversationEnded(ctx, body, "")
	require.NoError(t, err)

	// a fresh claim store has forgotten the first delivery
	claims := cache.NewMemoryStore()
	defer claims.Close()
	f.svc.claims = claims

	again, err := f.svc.HandleConversationEnded(ctx, body, "")
	require.NoError(t, err)
	assert.Equal(t, StatusDuplicate, again.Status)
	assert.Equal(t, 1, f.analyzer.calls)
}

func TestHandleConversationEnded_Signature(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Webhook.Secret = "whsec_test"
	f := newFixture(t, cfg)
	body := webhookBody(t, "conv_1", "agent_walter")

	_, err := f.svc.HandleConversationEnded(ctx, body, "")
	assert.ErrorIs(t, err, usecaseErrors.ErrInvalidSignature)

	_, err = f.svc.HandleConversationEnded(ctx, body, pkgai.SignWebhook("other", body, f.svc.now()))
	assert.ErrorIs(t, err, usecaseErrors.ErrInvalidSignature)

	stale := pkgai.SignWebhook(cfg.Webhook.Secret, body, f.svc.now().Add(-time.Hour))
	_, err = f.svc.HandleConversationEnded(ctx, body, stale)
	assert.ErrorIs(t, err, usecaseErrors.ErrInvalidSignature)

	result, err := f.svc.HandleConversationEnded(ctx, body, pkgai.SignWebhook(cfg.Webhook.Secret, body, f.svc.now()))
	require.NoError(t, err)
	assert.Equal(t, StatusProcessed, result.Status)
}

func TestHandleConversationEnded_Rejects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testConfig())

	_, err := f.svc.HandleConversationEnded(ctx, []byte(`{not json`), "")
	assert.ErrorIs(t, err, usecaseErrors.ErrInvalidInput)

	_, err = f.svc.HandleConversationEnded(ctx, webhookBody(t, "", "agent_walter"), "")
	assert.ErrorIs(t, err, usecaseErrors.ErrMissingConversationID)

	_, err = f.svc.HandleConversationEnded(ctx, webhookBody(t, "conv_1", "agent_unknown"), "")
	assert.ErrorIs(t, err, entities.ErrAgentNotLinked)

	ignored, err := f.svc.HandleConversationEnded(ctx, []byte(`{"type":"call_initiation_failure","data":{}}`), "")
	require.NoError(t, err)
	assert.Equal(t, StatusIgnored, ignored.Status)

	assert.Zero(t, f.analyzer.calls)
}

func TestHandleConversationEnded_AnalyzerFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testConfig())
	f.analyzer.err = errors.New("model unavailable")

	result, err := f.svc.HandleConversationEnded(ctx, webhookBody(t, "conv_1", "agent_walter"), "")
	require.NoError(t, err)
	assert.Equal(t, entities.AlertLevelLow, result.AlertLevel)

	records, err := f.archive.ListConversations(ctx, f.tester.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, memory.FallbackHealthSummary, records[0].Analysis.Health.Summary.String())

	kb, err := f.archive.ReadKnowledgeBase(ctx, f.tester.ID)
	require.NoError(t, err)
	assert.NotContains(t, kb, "- "+memory.FallbackHealthSummary+"\n")
}

func TestHandleConversationEnded_Compression(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Memory.CompressThreshold = 100
	f := newFixture(t, cfg)
	f.analyzer.compressFn = func(kb string) string {
		return "# Conversation Memory for Walter\n- Total conversations: 1\n"
	}

	_, err := f.svc.HandleConversationEnded(ctx, webhookBody(t, "conv_1", "agent_walter"), "")
	require.NoError(t, err)
	assert.Equal(t, 1, f.analyzer.compresses)

	kb, err := f.archive.ReadKnowledgeBase(ctx, f.tester.ID)
	require.NoError(t, err)
	assert.Equal(t, "# Conversation Memory for Walter\n- Total conversations: 1\n", kb)
}

func TestHandleConversationEnded_CompressionRejected(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Memory.CompressThreshold = 100
	f := newFixture(t, cfg)
	// the model dropped the conversation count
	f.analyzer.compressed = "# Conversation Memory for Walter\n"

	_, err := f.svc.HandleConversationEnded(ctx, webhookBody(t, "conv_1", "agent_walter"), "")
	require.NoError(t, err)

	kb, err := f.archive.ReadKnowledgeBase(ctx, f.tester.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, memory.SessionCount(kb))
	assert.True(t, strings.Contains(kb, memory.SectionTranscripts))
}

func TestFormatTranscript(t *testing.T) {
	got := FormatTranscript([]TranscriptTurn{
		{Role: "agent", Message: " Hello "},
		{Role: "USER", Message: "Hi there"},
		{Role: "system", Message: "ignored"},
	}, "Aila")

	assert.Equal(t, "\nAila: Hello\n\nUser: Hi there\n", got)
	assert.Empty(t, FormatTranscript(nil, "Aila"))
}
