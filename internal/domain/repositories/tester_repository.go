package repositories

import (
	"context"

	"github.com/telaila/companion/internal/domain/entities"
)

// TesterRepository defines the interface for beta tester data access
type TesterRepository interface {
	// Create assigns the next beta ID and stores the tester
	Create(ctx context.Context, tester *entities.Tester) error

	// FindByID finds a tester by beta ID
	FindByID(ctx context.Context, id string) (*entities.Tester, error)

	// FindByAgentID finds the tester a conversational agent is linked to
	FindByAgentID(ctx context.Context, agentID string) (*entities.Tester, error)

	// FindByEmail finds a tester by family email
	FindByEmail(ctx context.Context, email string) (*entities.Tester, error)

	// Update updates a tester
	Update(ctx context.Context, tester *entities.Tester) error

	// List returns every tester ordered by beta ID
	List(ctx context.Context) ([]*entities.Tester, error)
}
