package repository

import (
	"context"
	stdErrors "errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/telaila/companion/internal/domain/entities"
	repo "github.com/telaila/companion/internal/domain/repositories"
)

// TesterRepository implements the tester repository interface using GORM
type TesterRepository struct {
	db *gorm.DB
}

// NewTesterRepository creates a new tester repository
func NewTesterRepository(db *gorm.DB) repo.TesterRepository {
	return &TesterRepository{
		db: db,
	}
}

// Create assigns the next beta ID inside a transaction and inserts the tester
func (r *TesterRepository) Create(ctx context.Context, tester *entities.Tester) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("LOCK TABLE beta_testers IN SHARE ROW EXCLUSIVE MODE").Error; err != nil {
			return fmt.Errorf("failed to lock testers: %w", err)
		}

		var lastID string
		if err := tx.Model(&entities.Tester{}).
			Select("beta_id").
			Order("length(beta_id) DESC, beta_id DESC").
			Limit(1).
			Scan(&lastID).Error; err != nil {
			return fmt.Errorf("failed to read last beta id: %w", err)
		}

		next := 1
		if lastID != "" {
			seq, err := entities.ParseTesterSeq(lastID)
			if err != nil {
				return err
			}
			next = seq + 1
		}
		tester.ID = entities.FormatTesterID(next)

		return tx.Create(tester).Error
	})
	if err != nil {
		if stdErrors.Is(err, gorm.ErrDuplicatedKey) {
			return entities.ErrTesterAlreadyExists
		}
		return fmt.Errorf("failed to create tester: %w", err)
	}
	return nil
}

// FindByID finds a tester by beta ID
func (r *TesterRepository) FindByID(ctx context.Context, id string) (*entities.Tester, error) {
	return r.first(ctx, "beta_id = ?", id)
}

// FindByAgentID finds the tester linked to an agent
func (r *TesterRepository) FindByAgentID(ctx context.Context, agentID string) (*entities.Tester, error) {
	return r.first(ctx, "agent_id = ?", agentID)
}

// FindByEmail finds a tester by family email
func (r *TesterRepository) FindByEmail(ctx context.Context, email string) (*entities.Tester, error) {
	return r.first(ctx, "LOWER(family_email) = LOWER(?)", email)
}

func (r *TesterRepository) first(ctx context.Context, query string, arg interface{}) (*entities.Tester, error) {
	var tester entities.Tester
	if err := r.db.WithContext(ctx).Where(query, arg).First(&tester).Error; err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrTesterNotFound
		}
		return nil, fmt.Errorf("failed to find tester: %w", err)
	}
	return &tester, nil
}

// Update updates a tester
func (r *TesterRepository) Update(ctx context.Context, tester *entities.Tester) error {
	result := r.db.WithContext(ctx).Save(tester)
	if result.Error != nil {
		if stdErrors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return entities.ErrTesterAlreadyExists
		}
		return fmt.Errorf("failed to update tester: %w", result.Error)
	}
	return nil
}

// List returns every tester ordered by beta ID
func (r *TesterRepository) List(ctx context.Context) ([]*entities.Tester, error) {
	var testers []*entities.Tester
	if err := r.db.WithContext(ctx).
		Order("length(beta_id), beta_id").
		Find(&testers).Error; err != nil {
		return nil, fmt.Errorf("failed to list testers: %w", err)
	}
	return testers, nil
}
