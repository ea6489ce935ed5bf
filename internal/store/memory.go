package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/reclaim-app/reclaim/pkg/models"
)

// Memory is an in-memory Store used for tests and local development without
// Firestore credentials. Semantics mirror the Firestore implementation: the
// store assigns IDs and timestamps, and MarkCollected is conditional on the
// item not being collected yet.
type Memory struct {
	mu    sync.RWMutex
	items map[string]models.Item
	now   func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		items: make(map[string]models.Item),
		now:   time.Now,
	}
}

// SetClock replaces the store's time source. Tests use this to create items
// with distinct, known timestamps.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Create assigns an ID and server timestamp and stores a copy of the item.
func (m *Memory) Create(ctx context.Context, item *models.Item) (*models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *item
	stored.ID = uuid.New().String()
	ts := m.now().UTC()
	stored.CreatedAt = &ts

	m.items[stored.ID] = stored
	out := stored
	return &out, nil
}

// Get returns a copy of the item, or ErrNotFound.
func (m *Memory) Get(ctx context.Context, id string) (*models.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := item
	return &out, nil
}

// ListActive returns active items matching the optional filters.
func (m *Memory) ListActive(ctx context.Context, status models.Status, category models.Category) ([]models.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Item
	for _, item := range m.items {
		if !item.IsActive {
			continue
		}
		if status != "" && item.Status != status {
			continue
		}
		if category != "" && item.Category != category {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

// ListByUser returns every item reported by userID.
func (m *Memory) ListByUser(ctx context.Context, userID string) ([]models.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Item
	for _, item := range m.items {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	return out, nil
}

// SetActive updates the isActive flag only.
func (m *Memory) SetActive(ctx context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[id]
	if !ok {
		return ErrNotFound
	}
	item.IsActive = active
	m.items[id] = item
	return nil
}

// MarkCollected applies the collection fields under the store lock, failing
// if the item is missing or already collected.
func (m *Memory) MarkCollected(ctx context.Context, id string, rec CollectionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[id]
	if !ok {
		return ErrNotFound
	}
	if item.Collected() {
		return ErrAlreadyCollected
	}

	ts := m.now().UTC()
	item.CollectedBy = rec.CollectorID
	item.CollectedByEmail = rec.CollectorEmail
	item.CollectedAt = &ts
	item.IsActive = false
	if rec.Details != nil {
		details := *rec.Details
		item.CollectionDetails = &details
	}

	m.items[id] = item
	return nil
}
