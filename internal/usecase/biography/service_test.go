package biography

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/telaila/companion/internal/adapter/repository"
	"github.com/telaila/companion/internal/domain/entities"
	"github.com/telaila/companion/internal/domain/repositories"
	usecaseErrors "github.com/telaila/companion/internal/usecase/errors"
	"github.com/telaila/companion/internal/usecase/insights"
	"github.com/telaila/companion/internal/usecase/memory"
	"github.com/telaila/companion/pkg/config"
)

type fakeExports struct {
	objects map[string]string
	types   map[string]string
	urlErr  error
}

func newFakeExports() *fakeExports {
	return &fakeExports{objects: map[string]string{}, types: map[string]string{}}
}

func (f *fakeExports) UploadText(_ context.Context, objectName, content, contentType string) error {
	f.objects[objectName] = content
	f.types[objectName] = contentType
	return nil
}

func (f *fakeExports) ListFiles(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	for key := range f.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (f *fakeExports) GetFileURL(_ context.Context, objectName string, _ time.Duration) (string, error) {
	if f.urlErr != nil {
		return "", f.urlErr
	}
	return "https://files.example.com/" + objectName + "?sig=1", nil
}

type fixture struct {
	svc     *Service
	archive repositories.ConversationArchive
	tester  *entities.Tester
}

var fixedNow = time.Date(2026, 3, 12, 20, 0, 0, 0, time.UTC)

func newFixture(t *testing.T, exports ExportStore) *fixture {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	testers := repository.NewRegistryRepository(filepath.Join(dir, "beta_testers.json"))
	archive := repository.NewFileArchive(filepath.Join(dir, "beta_testers"), zap.NewNop())

	tester := entities.NewTester("Walter", "Anna", "anna@example.com", "token")
	require.NoError(t, testers.Create(ctx, tester))
	require.NoError(t, archive.EnsureTester(ctx, tester.ID))

	cfg := &config.Config{Dashboard: config.DashboardConfig{Timezone: "America/Vancouver"}}
	pipeline, err := insights.NewPipeline(insights.DefaultKeywords(), insights.DefaultPolicy())
	require.NoError(t, err)

	svc := NewService(testers, archive, pipeline, exports, cfg, zap.NewNop())
	svc.now = func() time.Time { return fixedNow }
	return &fixture{svc: svc, archive: archive, tester: tester}
}

func (f *fixture) save(t *testing.T, raw string) {
	t.Helper()
	var rec entities.ConversationRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))
	require.NoError(t, f.archive.SaveConversation(context.Background(), f.tester.ID, &rec))
}

func (f *fixture) saveHistory(t *testing.T) {
	// saved out of order on purpose; sessions follow the timestamps
	f.save(t, `{
		"conversation_id": "c2",
		"timestamp": "2026-03-08T18:00:00Z",
		"analysis": {
			"conversation": {"mood": "happy", "topics": ["family", "church"], "memorable_quotes": ["\"Harold could dance all night\""]},
			"biography": {
				"stories": [{"topic": "wedding day", "details": "Married Harold at the old stone church", "people_involved": ["Harold"]}],
				"people": [{"name": "harold", "relationship": "husband"}, "Margaret"],
				"timeline_events": [{"event": "Married Harold", "year": "1962"}],
				"sensory_details": ["church bells"]
			}
		}
	}`)
	f.save(t, `{
		"conversation_id": "c1",
		"timestamp": "2026-03-01T18:00:00Z",
		"analysis": {
			"conversation": {"mood": "neutral", "topics": ["family"]},
			"biography": {
				"stories": ["Grew up on a farm near Regina", {"topic": "", "details": ""}],
				"people": ["Harold"],
				"timeline_events": ["Moved to Vancouver"]
			}
		}
	}`)
}

func TestBuild(t *testing.T) {
	f := newFixture(t, nil)
	f.saveHistory(t)

	bio, err := f.svc.Build(context.Background(), f.tester.ID)
	require.NoError(t, err)

	assert.Equal(t, "Walter", bio.ElderName)
	assert.Equal(t, 2, bio.TotalSessions)

	require.Len(t, bio.Stories, 2)
	farm := bio.Stories[0]
	assert.Equal(t, 1, farm.Session)
	assert.Equal(t, "March 1, 2026", farm.Date)
	assert.Equal(t, "Untitled", farm.Topic)
	assert.Equal(t, "neutral", farm.EmotionalTone)

	wedding := bio.Stories[1]
	assert.Equal(t, 2, wedding.Session)
	assert.Equal(t, "happy", wedding.EmotionalTone)
	assert.Equal(t, []string{"church bells"}, wedding.SensoryDetails)
	assert.Equal(t, []string{"Harold"}, wedding.People)

	assert.Equal(t, 13, bio.WordCount)

	require.Len(t, bio.People, 2)
	assert.Equal(t, entities.PersonProfile{Name: "Harold", Relationship: "husband", FirstMention: "March 1, 2026", Mentions: 2}, bio.People[0])
	assert.Equal(t, "Margaret", bio.People[1].Name)
	assert.Equal(t, 1, bio.People[1].Mentions)

	require.Len(t, bio.Timeline, 2)
	assert.Equal(t, "Moved to Vancouver", bio.Timeline[0].Event)
	assert.Equal(t, "", bio.Timeline[0].When)
	assert.Equal(t, "1962", bio.Timeline[1].When)

	assert.Equal(t, []entities.TopicCount{{Topic: "family", Count: 2}, {Topic: "church", Count: 1}}, bio.Themes)

	require.Len(t, bio.Quotes, 1)
	assert.Equal(t, "Harold could dance all night", bio.Quotes[0].Quote)
	assert.Equal(t, 2, bio.Quotes[0].Session)
	assert.Equal(t, "happy", bio.Quotes[0].Mood)
}

func TestBuild_SkipsMetaQuotes(t *testing.T) {
	f := newFixture(t, nil)
	f.save(t, `{
		"conversation_id": "c1",
		"timestamp": "2026-03-01T18:00:00Z",
		"analysis": {"conversation": {"mood": "happy", "memorable_quotes": [
			"Are you a robot?",
			"Yes",
			"You're just an AI program, aren't you, dear",
			"We danced every Saturday at the Legion hall"
		]}}
	}`)

	bio, err := f.svc.Build(context.Background(), f.tester.ID)
	require.NoError(t, err)
	require.Len(t, bio.Quotes, 1)
	assert.Equal(t, "We danced every Saturday at the Legion hall", bio.Quotes[0].Quote)

	md, err := f.svc.ExportMarkdown(context.Background(), f.tester.ID)
	require.NoError(t, err)
	assert.Contains(t, md, "We danced every Saturday at the Legion hall")
	assert.NotContains(t, md, "Are you a robot?")
	assert.NotContains(t, md, "just an AI program")
}

func TestBuild_EmptyArchive(t *testing.T) {
	f := newFixture(t, nil)

	bio, err := f.svc.Build(context.Background(), f.tester.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, bio.TotalSessions)
	assert.NotNil(t, bio.Stories)
	assert.NotNil(t, bio.People)
	assert.NotNil(t, bio.Timeline)
	assert.NotNil(t, bio.Themes)
	assert.NotNil(t, bio.Quotes)
}

func TestBuild_UnknownTester(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.Build(context.Background(), "BT404")
	assert.ErrorIs(t, err, entities.ErrTesterNotFound)
}

func TestExportMarkdown(t *testing.T) {
	f := newFixture(t, nil)
	f.saveHistory(t)

	md, err := f.svc.ExportMarkdown(context.Background(), f.tester.ID)
	require.NoError(t, err)

	for _, want := range []string{
		"# The Life Story of Walter\n",
		"*Captured through 2 conversations*",
		"## Their Stories (2 captured)",
		"### Wedding Day\n*Shared on March 8, 2026 (session 2)*",
		"**Sensory memories:** church bells",
		"## People in Their Life\n\n### Harold\n- Relationship: husband\n- First mentioned: March 1, 2026\n- Total mentions: 2",
		"## Timeline\n\n- Moved to Vancouver *(told on March 1, 2026)*\n- **1962**: Married Harold",
		"## Life Themes\n\n### Family\n- Discussed 2 times",
		"## In Their Own Words\n\n> \"Harold could dance all night\"\n\n*Said on March 8, 2026 while discussing family, church*",
		"*Generated on March 12, 2026*",
	} {
		assert.Contains(t, md, want)
	}
}

func TestExportHTML(t *testing.T) {
	f := newFixture(t, nil)
	f.save(t, `{
		"conversation_id": "c1",
		"timestamp": "2026-03-01T18:00:00Z",
		"analysis": {"biography": {"stories": [{"topic": "first job", "details": "Worked at the <b>mill</b> for forty years"}]}}
	}`)

	page, err := f.svc.ExportHTML(context.Background(), f.tester.ID)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
	assert.Contains(t, page, "<title>The Life Story of Walter</title>")
	assert.Contains(t, page, "<h1>The Life Story of Walter</h1>")
	assert.Contains(t, page, "<h3>First Job</h3>")
	assert.NotContains(t, page, "<b>mill</b>")
}

func TestExport_UnsupportedFormat(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.Export(context.Background(), f.tester.ID, "pdf")
	assert.ErrorIs(t, err, usecaseErrors.ErrUnsupportedFormat)
}

func TestUploadExport(t *testing.T) {
	exports := newFakeExports()
	f := newFixture(t, exports)
	f.saveHistory(t)

	upload, err := f.svc.UploadExport(context.Background(), f.tester.ID, FormatMarkdown)
	require.NoError(t, err)

	wantKey := f.tester.ID + "/biography/biography_20260312_200000.md"
	assert.Equal(t, wantKey, upload.Key)
	assert.Equal(t, "https://files.example.com/"+wantKey+"?sig=1", upload.DownloadURL)
	assert.Contains(t, exports.objects[wantKey], "# The Life Story of Walter")
	assert.Equal(t, "text/markdown; charset=utf-8", exports.types[wantKey])
}

func TestUploadExport_LinkFailureKeepsUpload(t *testing.T) {
	exports := newFakeExports()
	exports.urlErr = errors.New("presign failed")
	f := newFixture(t, exports)

	upload, err := f.svc.UploadExport(context.Background(), f.tester.ID, FormatHTML)
	require.NoError(t, err)
	assert.Empty(t, upload.DownloadURL)
	assert.Contains(t, exports.objects, upload.Key)
}

func TestUploadExport_StorageDisabled(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.UploadExport(context.Background(), f.tester.ID, FormatMarkdown)
	assert.ErrorIs(t, err, usecaseErrors.ErrStorageDisabled)
}

func TestListExports(t *testing.T) {
	exports := newFakeExports()
	f := newFixture(t, exports)
	ctx := context.Background()

	_, err := f.svc.UploadExport(ctx, f.tester.ID, FormatMarkdown)
	require.NoError(t, err)
	f.svc.now = func() time.Time { return fixedNow.Add(time.Hour) }
	_, err = f.svc.UploadExport(ctx, f.tester.ID, FormatHTML)
	require.NoError(t, err)
	exports.objects["BT999/biography/biography_20260312_200000.md"] = "other tester"
	exports.objects[f.tester.ID+"/biography/notes.txt"] = "not an export"

	uploads, err := f.svc.ListExports(ctx, f.tester.ID)
	require.NoError(t, err)
	require.Len(t, uploads, 2)
	assert.Equal(t, FormatHTML, uploads[0].Format)
	assert.Equal(t, f.tester.ID+"/biography/biography_20260312_210000.html", uploads[0].Key)
	assert.Equal(t, FormatMarkdown, uploads[1].Format)
	assert.NotEmpty(t, uploads[1].DownloadURL)
}

func TestListExports_Errors(t *testing.T) {
	_, err := newFixture(t, nil).svc.ListExports(context.Background(), "BT001")
	assert.ErrorIs(t, err, usecaseErrors.ErrStorageDisabled)

	_, err = newFixture(t, newFakeExports()).svc.ListExports(context.Background(), "BT999")
	assert.ErrorIs(t, err, entities.ErrTesterNotFound)
}

func TestBuildingBlocks(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	blocks, err := f.svc.BuildingBlocks(ctx, f.tester.ID)
	require.NoError(t, err)
	assert.Empty(t, blocks)

	kb, _ := memory.AppendSession(memory.New("Walter"), memory.Session{
		At:      fixedNow,
		Minutes: 5,
		Analysis: entities.Analysis{Biography: entities.BiographyAnalysis{
			Stories: entities.Stories{{Topic: "Farm", Details: "Grew up on a farm"}},
		}},
	})
	require.NoError(t, f.archive.WriteKnowledgeBase(ctx, f.tester.ID, kb))

	blocks, err = f.svc.BuildingBlocks(ctx, f.tester.ID)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, 1, blocks[0].Session)
	assert.Contains(t, blocks[0].Text, "Grew up on a farm")
}
