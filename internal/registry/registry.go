// Package registry implements the item report lifecycle: creation with field
// defaults, public listing with filters, owner history, and owner-scoped
// activation.
package registry

import (
	"context"
	"strings"

	"github.com/reclaim-app/reclaim/internal/auth"
	"github.com/reclaim-app/reclaim/internal/store"
	"github.com/reclaim-app/reclaim/pkg/models"
)

// Defaults substituted for absent textual fields at creation.
const (
	DefaultTitle    = "Untitled Item"
	DefaultLocation = "Unknown"
)

// Service is the item registry.
type Service struct {
	store store.Store
}

// New creates a registry over the given store.
func New(s store.Store) *Service {
	return &Service{store: s}
}

// CreateInput are the caller-supplied fields for a new report. All fields are
// optional; absent ones get the documented defaults. The calling layer is
// responsible for ensuring at least one contact field is present.
type CreateInput struct {
	Title        string
	Description  string
	Category     models.Category
	Location     string
	Status       models.Status
	ImageURL     string
	ContactPhone string
	ContactEmail string
}

// Create registers a new item report for the actor. The store assigns the ID
// and the authoritative createdAt timestamp.
func (s *Service) Create(ctx context.Context, in CreateInput, actor auth.Actor) (*models.Item, error) {
	if !actor.Authenticated() {
		return nil, auth.ErrUnauthenticated
	}

	item := &models.Item{
		Title:        in.Title,
		Description:  in.Description,
		Category:     in.Category,
		Location:     in.Location,
		Status:       in.Status,
		ImageURL:     in.ImageURL,
		ContactPhone: in.ContactPhone,
		ContactEmail: in.ContactEmail,
		UserID:       actor.ID,
		UserEmail:    actor.Email,
		IsActive:     true,
	}
	if item.Title == "" {
		item.Title = DefaultTitle
	}
	if item.Location == "" {
		item.Location = DefaultLocation
	}
	if item.Category == "" {
		item.Category = models.CategoryOther
	}
	if item.Status == "" {
		item.Status = models.StatusLost
	}

	return s.store.Create(ctx, item)
}

// Filter narrows the public listing. Status and Category are exact matches
// pushed to the store; Search is a case-insensitive substring match over
// title, description, and location, applied after retrieval because substring
// matching is not a store-native query.
type Filter struct {
	Status   models.Status
	Category models.Category
	Search   string
}

// List returns active items matching the filter, newest first. Public read,
// no actor required.
func (s *Service) List(ctx context.Context, f Filter) ([]models.Item, error) {
	items, err := s.store.ListActive(ctx, f.Status, f.Category)
	if err != nil {
		return nil, err
	}

	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		filtered := items[:0]
		for _, item := range items {
			if matchesSearch(item, needle) {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	}

	store.SortNewestFirst(items)
	return items, nil
}

func matchesSearch(item models.Item, needle string) bool {
	return strings.Contains(strings.ToLower(item.Title), needle) ||
		strings.Contains(strings.ToLower(item.Description), needle) ||
		strings.Contains(strings.ToLower(item.Location), needle)
}

// ListOwned returns the actor's full report history, including inactive and
// collected items, newest first.
func (s *Service) ListOwned(ctx context.Context, actor auth.Actor) ([]models.Item, error) {
	if !actor.Authenticated() {
		return nil, auth.ErrUnauthenticated
	}

	items, err := s.store.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	store.SortNewestFirst(items)
	return items, nil
}

// Get returns a single item by ID. Public read.
func (s *Service) Get(ctx context.Context, id string) (*models.Item, error) {
	return s.store.Get(ctx, id)
}

// SetActive flips the isActive flag on an item the actor owns. Only that one
// field is touched; collection state is not re-validated.
func (s *Service) SetActive(ctx context.Context, id string, active bool, actor auth.Actor) error {
	if !actor.Authenticated() {
		return auth.ErrUnauthenticated
	}

	item, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if item.UserID != actor.ID {
		return ErrPermissionDenied
	}

	return s.store.SetActive(ctx, id, active)
}
