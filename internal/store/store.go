// Package store defines the document-store contract for item reports and
// provides Firestore and in-memory implementations of it.
package store

import (
	"context"
	"errors"
	"sort"

	"github.com/reclaim-app/reclaim/pkg/models"
)

var (
	// ErrNotFound means the referenced item document does not exist.
	ErrNotFound = errors.New("item not found")

	// ErrAlreadyCollected means the item's collection fields are already set.
	// Collection is a one-shot transition; a second attempt fails rather than
	// silently succeeding.
	ErrAlreadyCollected = errors.New("item already collected")
)

// CollectionRecord is the set of fields applied by MarkCollected. The store
// stamps collectedAt with its own server time.
type CollectionRecord struct {
	CollectorID    string
	CollectorEmail string
	Details        *models.CollectionDetails
}

// Store is the persistence contract for item reports. Implementations must
// assign document IDs and createdAt timestamps themselves; clients never
// supply either.
type Store interface {
	// Create persists a new item, assigning its ID and createdAt, and
	// returns the stored item.
	Create(ctx context.Context, item *models.Item) (*models.Item, error)

	// Get returns a single item, or ErrNotFound.
	Get(ctx context.Context, id string) (*models.Item, error)

	// ListActive returns items with isActive == true, optionally narrowed by
	// exact status/category match. Order is unspecified; callers sort.
	ListActive(ctx context.Context, status models.Status, category models.Category) ([]models.Item, error)

	// ListByUser returns every item reported by userID, including inactive
	// and collected ones. Order is unspecified; callers sort.
	ListByUser(ctx context.Context, userID string) ([]models.Item, error)

	// SetActive updates only the isActive flag, or returns ErrNotFound.
	SetActive(ctx context.Context, id string, active bool) error

	// MarkCollected atomically applies the collection fields (collectedBy,
	// collectedByEmail, collectedAt, isActive=false, collectionDetails) to a
	// single document, but only if collectedBy is currently unset. Returns
	// ErrAlreadyCollected if the item was collected before, ErrNotFound if it
	// does not exist. Partial application is never observable.
	MarkCollected(ctx context.Context, id string, rec CollectionRecord) error
}

// SortNewestFirst orders items by createdAt descending. Items without a
// timestamp sort last.
func SortNewestFirst(items []models.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].CreatedAt, items[j].CreatedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
}
