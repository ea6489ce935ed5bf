// Package collection implements the one-shot handoff that marks an active
// item as collected.
package collection

import (
	"context"

	"github.com/reclaim-app/reclaim/internal/auth"
	"github.com/reclaim-app/reclaim/internal/store"
	"github.com/reclaim-app/reclaim/pkg/models"
)

// Service runs the collection workflow.
type Service struct {
	store store.Store
}

// New creates a collection service over the given store.
func New(s store.Store) *Service {
	return &Service{store: s}
}

// Collect marks an item as collected by the actor. Any authenticated actor
// may collect any item; ownership is deliberately not checked here — the
// reporter curates their listing, but the handoff itself is open to the
// community.
//
// details are trusted as pre-validated by the calling layer and are recorded
// verbatim; HasPhotos is an attestation, not proof. The store applies all
// collection fields in a single conditional update, so a second collect
// attempt (or a concurrent one) fails with store.ErrAlreadyCollected and
// leaves the first collector's record untouched.
func (s *Service) Collect(ctx context.Context, itemID string, details *models.CollectionDetails, actor auth.Actor) error {
	if !actor.Authenticated() {
		return auth.ErrUnauthenticated
	}

	return s.store.MarkCollected(ctx, itemID, store.CollectionRecord{
		CollectorID:    actor.ID,
		CollectorEmail: actor.Email,
		Details:        details,
	})
}
