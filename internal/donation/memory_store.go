package donation

import (
	"context"
	"sort"
	"strings"
	"sync"

	"food-rescue-api-server/internal/models"
)

// MemoryStore implements Store in process memory.
// A single mutex makes the conditional update a compare-and-set.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]models.Donation
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]models.Donation)}
}

func (m *MemoryStore) Insert(_ context.Context, d models.Donation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[d.ID] = d
	return nil
}

func (m *MemoryStore) GetByID(_ context.Context, id string) (models.Donation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.data[id]
	if !ok {
		return models.Donation{}, ErrNotFound
	}
	return d, nil
}

func (m *MemoryStore) UpdateStatusAndAssignee(_ context.Context, id string, expected, next models.DonationStatus, field AssigneeField, assigneeID string) (models.Donation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.data[id]
	if !ok {
		return models.Donation{}, ErrNotFound
	}
	if d.Status != expected {
		return d, ErrStatusMismatch
	}

	d.Status = next
	switch field {
	case AssignBroker:
		d.BrokerID = assigneeID
	case AssignCarrier:
		d.CarrierID = assigneeID
	}
	m.data[id] = d
	return d, nil
}

func (m *MemoryStore) SetPhotoURL(_ context.Context, id, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.data[id]
	if !ok {
		return ErrNotFound
	}
	d.PhotoURL = url
	m.data[id] = d
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[id]; !ok {
		return ErrNotFound
	}
	delete(m.data, id)
	return nil
}

func (m *MemoryStore) ListByFilter(_ context.Context, f Filter) ([]models.Donation, error) {
	m.mu.RLock()
	out := make([]models.Donation, 0, len(m.data))
	for _, d := range m.data {
		if f.Matches(d) {
			out = append(out, d)
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// MemoryActors implements ActorRegistry in process memory.
type MemoryActors struct {
	mu     sync.RWMutex
	actors map[string]models.Actor
}

// NewMemoryActors creates a registry pre-populated with actors.
func NewMemoryActors(actors ...models.Actor) *MemoryActors {
	m := &MemoryActors{actors: make(map[string]models.Actor)}
	for _, a := range actors {
		m.actors[a.ID] = a
	}
	return m
}

func (m *MemoryActors) Create(_ context.Context, a models.Actor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.actors {
		if strings.EqualFold(existing.Email, a.Email) {
			return ErrDuplicateEmail
		}
	}
	m.actors[a.ID] = a
	return nil
}

func (m *MemoryActors) Get(_ context.Context, id string) (models.Actor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.actors[id]
	if !ok {
		return models.Actor{}, ErrNotFound
	}
	return a, nil
}

func (m *MemoryActors) FindByEmail(_ context.Context, email string) (models.Actor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.actors {
		if strings.EqualFold(a.Email, email) {
			return a, nil
		}
	}
	return models.Actor{}, ErrNotFound
}

func (m *MemoryActors) List(_ context.Context) ([]models.Actor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Actor, 0, len(m.actors))
	for _, a := range m.actors {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryActors) Exists(_ context.Context, id string, role models.Role) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.actors[id]
	return ok && a.Role == role, nil
}

func (m *MemoryActors) LocationOf(_ context.Context, id string) (*models.Coordinate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.actors[id]
	if !ok {
		return nil, ErrNotFound
	}
	if a.Location == nil {
		return nil, nil
	}
	loc := *a.Location
	return &loc, nil
}
