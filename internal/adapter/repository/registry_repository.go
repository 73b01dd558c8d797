package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/telaila/companion/internal/domain/entities"
	repo "github.com/telaila/companion/internal/domain/repositories"
)

// registryFile is the on-disk shape of the JSON tester registry
type registryFile struct {
	Testers map[string]*entities.Tester `json:"testers"`
	NextID  int                         `json:"next_id"`
}

// RegistryRepository keeps testers in a single JSON file. It is used when no
// database is configured.
type RegistryRepository struct {
	path string
	mu   sync.Mutex
}

// NewRegistryRepository creates a JSON file backed tester repository
func NewRegistryRepository(path string) repo.TesterRepository {
	return &RegistryRepository{path: path}
}

func (r *RegistryRepository) load() (*registryFile, error) {
	reg := &registryFile{Testers: make(map[string]*entities.Tester), NextID: 1}
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return reg, nil
		}
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}
	if err := json.Unmarshal(data, reg); err != nil {
		return nil, fmt.Errorf("failed to parse registry: %w", err)
	}
	if reg.Testers == nil {
		reg.Testers = make(map[string]*entities.Tester)
	}
	if reg.NextID < 1 {
		reg.NextID = 1
	}
	return reg, nil
}

func (r *RegistryRepository) save(reg *registryFile) error {
	data, err := marshalIndent(reg)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(r.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write registry: %w", err)
	}
	return nil
}

// Create assigns the next BT### id and stores the tester
func (r *RegistryRepository) Create(ctx context.Context, tester *entities.Tester) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, err := r.load()
	if err != nil {
		return err
	}
	for _, existing := range reg.Testers {
		if strings.EqualFold(existing.FamilyEmail, tester.FamilyEmail) {
			return entities.ErrTesterAlreadyExists
		}
	}

	id := entities.FormatTesterID(reg.NextID)
	for reg.Testers[id] != nil {
		reg.NextID++
		id = entities.FormatTesterID(reg.NextID)
	}
	tester.ID = id
	now := time.Now().UTC()
	if tester.RegisteredAt.IsZero() {
		tester.RegisteredAt = now
	}
	tester.UpdatedAt = now

	reg.Testers[id] = tester
	reg.NextID++
	return r.save(reg)
}

// FindByID finds a tester by beta ID
func (r *RegistryRepository) FindByID(ctx context.Context, id string) (*entities.Tester, error) {
	return r.find(func(t *entities.Tester) bool { return t.ID == id })
}

// FindByAgentID finds the tester linked to an agent
func (r *RegistryRepository) FindByAgentID(ctx context.Context, agentID string) (*entities.Tester, error) {
	return r.find(func(t *entities.Tester) bool { return t.AgentID != nil && *t.AgentID == agentID })
}

// FindByEmail finds a tester by family email, ignoring case
func (r *RegistryRepository) FindByEmail(ctx context.Context, email string) (*entities.Tester, error) {
	return r.find(func(t *entities.Tester) bool { return strings.EqualFold(t.FamilyEmail, email) })
}

func (r *RegistryRepository) find(match func(*entities.Tester) bool) (*entities.Tester, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, err := r.load()
	if err != nil {
		return nil, err
	}
	for _, t := range reg.Testers {
		if match(t) {
			return t, nil
		}
	}
	return nil, entities.ErrTesterNotFound
}

// Update replaces a stored tester
func (r *RegistryRepository) Update(ctx context.Context, tester *entities.Tester) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, err := r.load()
	if err != nil {
		return err
	}
	if _, ok := reg.Testers[tester.ID]; !ok {
		return entities.ErrTesterNotFound
	}
	tester.UpdatedAt = time.Now().UTC()
	reg.Testers[tester.ID] = tester
	return r.save(reg)
}

// List returns every tester ordered by beta ID
func (r *RegistryRepository) List(ctx context.Context) ([]*entities.Tester, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, err := r.load()
	if err != nil {
		return nil, err
	}
	testers := make([]*entities.Tester, 0, len(reg.Testers))
	for _, t := range reg.Testers {
		testers = append(testers, t)
	}
	sortTesters(testers)
	return testers, nil
}

// sortTesters orders BT002 before BT010 and BT999 before BT1000
func sortTesters(testers []*entities.Tester) {
	sort.Slice(testers, func(i, j int) bool {
		a, errA := entities.ParseTesterSeq(testers[i].ID)
		b, errB := entities.ParseTesterSeq(testers[j].ID)
		if errA != nil || errB != nil {
			return testers[i].ID < testers[j].ID
		}
		return a < b
	})
}
