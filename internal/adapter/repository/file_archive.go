package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/telaila/companion/internal/domain/entities"
	repo "github.com/telaila/companion/internal/domain/repositories"
)

const (
	conversationsDir  = "conversations"
	familyUpdatesDir  = "family_updates"
	knowledgeBaseFile = "knowledge_base.md"
	fileTimeLayout    = "20060102_150405"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// FileArchive keeps each tester's history in a folder under root:
//
//	<root>/<beta_id>/conversations/<YYYYMMDD_HHMMSS>_<conversation_id>.json
//	<root>/<beta_id>/family_updates/<YYYYMMDD_HHMMSS>.json
//	<root>/<beta_id>/knowledge_base.md
type FileArchive struct {
	root   string
	logger *zap.Logger
	now    func() time.Time
}

// NewFileArchive creates a file-backed conversation archive
func NewFileArchive(root string, logger *zap.Logger) repo.ConversationArchive {
	return &FileArchive{root: root, logger: logger, now: time.Now}
}

func (a *FileArchive) testerDir(testerID string) (string, error) {
	if !entities.IsValidTesterID(testerID) {
		return "", entities.ErrInvalidTesterID
	}
	return filepath.Join(a.root, testerID), nil
}

// EnsureTester creates the tester's folders
func (a *FileArchive) EnsureTester(ctx context.Context, testerID string) error {
	dir, err := a.testerDir(testerID)
	if err != nil {
		return err
	}
	for _, sub := range []string{conversationsDir, familyUpdatesDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return fmt.Errorf("failed to create %s folder: %w", sub, err)
		}
	}
	return nil
}

// conversationKey is the file-safe form of a conversation ID. IDs that need
// rewriting get a hash suffix so "a.b" and "a/b" stay distinct.
func conversationKey(conversationID string) string {
	key := unsafeName.ReplaceAllString(conversationID, "-")
	if key == conversationID {
		return key
	}
	sum := sha256.Sum256([]byte(conversationID))
	return key + "-" + hex.EncodeToString(sum[:4])
}

func conversationFileName(record *entities.ConversationRecord) string {
	stamp := "00000000_000000"
	if t, ok := record.Time(); ok {
		stamp = t.Format(fileTimeLayout)
	}
	return stamp + "_" + conversationKey(record.ConversationID) + ".json"
}

// SaveConversation writes the record once. An existing conversation with the
// same ID is never overwritten.
func (a *FileArchive) SaveConversation(ctx context.Context, testerID string, record *entities.ConversationRecord) error {
	if record == nil || strings.TrimSpace(record.ConversationID) == "" {
		return entities.ErrInvalidConversation
	}
	exists, err := a.HasConversation(ctx, testerID, record.ConversationID)
	if err != nil {
		return err
	}
	if exists {
		return entities.ErrConversationExists
	}

	dir, _ := a.testerDir(testerID)
	data, err := marshalIndent(record)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, conversationsDir, conversationFileName(record))
	if err := createFileAtomic(path, data, 0o644); err != nil {
		if stdErrors.Is(err, fs.ErrExist) {
			return entities.ErrConversationExists
		}
		return fmt.Errorf("failed to write conversation: %w", err)
	}
	return nil
}

// HasConversation looks for a stored file carrying exactly the conversation ID
func (a *FileArchive) HasConversation(ctx context.Context, testerID, conversationID string) (bool, error) {
	dir, err := a.testerDir(testerID)
	if err != nil {
		return false, err
	}
	name := conversationKey(conversationID) + ".json"
	matches, err := filepath.Glob(filepath.Join(dir, conversationsDir, "*_"+name))
	if err != nil {
		return false, fmt.Errorf("failed to scan conversations: %w", err)
	}
	// the glob also matches longer IDs ending in "_<id>"
	for _, m := range matches {
		if len(filepath.Base(m)) == len(fileTimeLayout)+1+len(name) {
			return true, nil
		}
	}
	return false, nil
}

// ListConversations loads every conversation file, oldest first. Corrupt
// files are logged and skipped; undated records sort last.
func (a *FileArchive) ListConversations(ctx context.Context, testerID string) ([]entities.ConversationRecord, error) {
	dir, err := a.testerDir(testerID)
	if err != nil {
		return nil, err
	}
	paths, err := filepath.Glob(filepath.Join(dir, conversationsDir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan conversations: %w", err)
	}
	sort.Strings(paths)

	records := make([]entities.ConversationRecord, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			a.warn("⚠️ Skipping unreadable conversation file", path, err)
			continue
		}
		var rec entities.ConversationRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			a.warn("⚠️ Skipping corrupt conversation file", path, err)
			continue
		}
		if rec.ConversationID == "" {
			rec.ConversationID = strings.TrimSuffix(filepath.Base(path), ".json")
		}
		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		ti, okI := records[i].Time()
		tj, okJ := records[j].Time()
		switch {
		case okI && okJ:
			return ti.Before(tj)
		default:
			return okI && !okJ
		}
	})
	return records, nil
}

func (a *FileArchive) warn(msg, path string, err error) {
	if a.logger != nil {
		a.logger.Warn(msg, zap.String("path", path), zap.Error(err))
	}
}

// ReadKnowledgeBase returns the knowledge base document
func (a *FileArchive) ReadKnowledgeBase(ctx context.Context, testerID string) (string, error) {
	dir, err := a.testerDir(testerID)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(filepath.Join(dir, knowledgeBaseFile))
	if err != nil {
		if os.IsNotExist(err) {
			return "", entities.ErrKnowledgeBaseMissing
		}
		return "", fmt.Errorf("failed to read knowledge base: %w", err)
	}
	return string(data), nil
}

// WriteKnowledgeBase replaces the knowledge base document atomically
func (a *FileArchive) WriteKnowledgeBase(ctx context.Context, testerID, content string) error {
	dir, err := a.testerDir(testerID)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(filepath.Join(dir, knowledgeBaseFile), []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write knowledge base: %w", err)
	}
	return nil
}

// SaveFamilyUpdate stores the update as family_updates/<YYYYMMDD_HHMMSS>.json
func (a *FileArchive) SaveFamilyUpdate(ctx context.Context, testerID string, update *entities.FamilyUpdate) (string, error) {
	dir, err := a.testerDir(testerID)
	if err != nil {
		return "", err
	}
	data, err := marshalIndent(update)
	if err != nil {
		return "", err
	}

	stamp := a.now().UTC().Format(fileTimeLayout)
	name := stamp + ".json"
	for i := 1; ; i++ {
		err = createFileAtomic(filepath.Join(dir, familyUpdatesDir, name), data, 0o644)
		if !stdErrors.Is(err, fs.ErrExist) {
			break
		}
		name = fmt.Sprintf("%s_%d.json", stamp, i)
	}
	if err != nil {
		return "", fmt.Errorf("failed to write family update: %w", err)
	}
	return name, nil
}

// ListFamilyUpdates returns up to limit updates, newest first. A limit of
// zero or less returns all of them.
func (a *FileArchive) ListFamilyUpdates(ctx context.Context, testerID string, limit int) ([]entities.FamilyUpdate, error) {
	dir, err := a.testerDir(testerID)
	if err != nil {
		return nil, err
	}
	paths, err := filepath.Glob(filepath.Join(dir, familyUpdatesDir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan family updates: %w", err)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(paths)))

	updates := make([]entities.FamilyUpdate, 0, len(paths))
	for _, path := range paths {
		if limit > 0 && len(updates) >= limit {
			break
		}
		data, err := os.ReadFile(path)
		if err != nil {
			a.warn("⚠️ Skipping unreadable family update", path, err)
			continue
		}
		var update entities.FamilyUpdate
		if err := json.Unmarshal(data, &update); err != nil {
			a.warn("⚠️ Skipping corrupt family update", path, err)
			continue
		}
		updates = append(updates, update)
	}
	return updates, nil
}
