package tester

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/telaila/companion/internal/domain/entities"
	"github.com/telaila/companion/internal/domain/repositories"
	usecaseErrors "github.com/telaila/companion/internal/usecase/errors"
	"github.com/telaila/companion/internal/usecase/memory"
)

// Service handles beta tester registration and agent linking
type Service struct {
	testers repositories.TesterRepository
	archive repositories.ConversationArchive
	logger  *zap.Logger
}

// NewService creates a new tester service
func NewService(
	testers repositories.TesterRepository,
	archive repositories.ConversationArchive,
	logger *zap.Logger,
) *Service {
	return &Service{
		testers: testers,
		archive: archive,
		logger:  logger,
	}
}

// RegisterInput represents the family signup form
type RegisterInput struct {
	FamilyName      string
	FamilyEmail     string
	FamilyPhone     string
	ElderName       string
	ElderAge        int
	Relationship    string
	PrimaryLanguage string
	SpecialNotes    string
	SignupData      map[string]interface{}
}

// Register creates a tester in pending_setup, its archive folders and an
// empty knowledge base.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*entities.Tester, error) {
	if strings.TrimSpace(input.ElderName) == "" || strings.TrimSpace(input.FamilyEmail) == "" {
		return nil, usecaseErrors.ErrInvalidInput
	}

	token, err := newAccessToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	t := entities.NewTester(strings.TrimSpace(input.ElderName), strings.TrimSpace(input.FamilyName), strings.TrimSpace(input.FamilyEmail), token)
	t.ElderAge = input.ElderAge
	t.FamilyPhone = input.FamilyPhone
	t.Relationship = input.Relationship
	t.SpecialNotes = input.SpecialNotes
	if input.PrimaryLanguage != "" {
		t.PrimaryLanguage = input.PrimaryLanguage
	}
	if len(input.SignupData) > 0 {
		raw, err := json.Marshal(input.SignupData)
		if err != nil {
			return nil, usecaseErrors.ErrInvalidInput
		}
		t.SignupData = datatypes.JSON(raw)
	}

	if err := s.testers.Create(ctx, t); err != nil {
		if stdErrors.Is(err, entities.ErrTesterAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to register tester: %w", err)
	}

	if err := s.archive.EnsureTester(ctx, t.ID); err != nil {
		return nil, fmt.Errorf("failed to create tester folders: %w", err)
	}
	if err := s.archive.WriteKnowledgeBase(ctx, t.ID, memory.New(t.ElderName)); err != nil {
		return nil, fmt.Errorf("failed to create knowledge base: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("🎉 Beta tester registered",
			zap.String("beta_id", t.ID),
			zap.String("elder_name", t.ElderName),
		)
	}
	return t, nil
}

// LinkAgent attaches a conversational agent and activates the tester
func (s *Service) LinkAgent(ctx context.Context, testerID, agentID string) (*entities.Tester, error) {
	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		return nil, usecaseErrors.ErrEmptyAgentID
	}

	t, err := s.testers.FindByID(ctx, testerID)
	if err != nil {
		return nil, err
	}

	owner, err := s.testers.FindByAgentID(ctx, agentID)
	switch {
	case err == nil && owner.ID != t.ID:
		return nil, usecaseErrors.ErrAgentAlreadyLinked
	case err != nil && !stdErrors.Is(err, entities.ErrTesterNotFound):
		return nil, fmt.Errorf("failed to check agent: %w", err)
	}

	t.LinkAgent(agentID)
	if err := s.testers.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to link agent: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("🔗 Agent linked",
			zap.String("beta_id", t.ID),
			zap.String("agent_id", agentID),
		)
	}
	return t, nil
}

// Get returns a tester by beta ID
func (s *Service) Get(ctx context.Context, testerID string) (*entities.Tester, error) {
	return s.testers.FindByID(ctx, testerID)
}

// FindByAgent returns the tester linked to an agent
func (s *Service) FindByAgent(ctx context.Context, agentID string) (*entities.Tester, error) {
	t, err := s.testers.FindByAgentID(ctx, agentID)
	if stdErrors.Is(err, entities.ErrTesterNotFound) {
		return nil, entities.ErrAgentNotLinked
	}
	return t, err
}

// List returns every tester
func (s *Service) List(ctx context.Context) ([]*entities.Tester, error) {
	testers, err := s.testers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list testers: %w", err)
	}
	return testers, nil
}

// KnowledgeBase returns the tester's memory document, or a fresh one when
// none was written yet.
func (s *Service) KnowledgeBase(ctx context.Context, t *entities.Tester) (string, error) {
	kb, err := s.archive.ReadKnowledgeBase(ctx, t.ID)
	if stdErrors.Is(err, entities.ErrKnowledgeBaseMissing) {
		return memory.New(t.ElderName), nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read knowledge base: %w", err)
	}
	return kb, nil
}

func newAccessToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
