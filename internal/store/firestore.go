package store

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/reclaim-app/reclaim/pkg/models"
)

// Firestore is the production Store, backed by one Firestore collection with
// one document per item report.
type Firestore struct {
	client     *firestore.Client
	collection string
}

// NewFirestore wraps an existing Firestore client. collection is the items
// collection name.
func NewFirestore(client *firestore.Client, collection string) *Firestore {
	return &Firestore{client: client, collection: collection}
}

// itemDoc mirrors the persisted document layout. Field names match the
// original items collection so existing documents remain readable.
type itemDoc struct {
	Title        string `firestore:"title"`
	Description  string `firestore:"description"`
	Category     string `firestore:"category"`
	Location     string `firestore:"location"`
	Status       string `firestore:"status"`
	ImageURL     string `firestore:"imageUrl"`
	ContactPhone string `firestore:"contactPhone"`
	ContactEmail string `firestore:"contactEmail"`

	UserID    string    `firestore:"userId"`
	UserEmail string    `firestore:"userEmail"`
	CreatedAt time.Time `firestore:"createdAt"`
	IsActive  bool      `firestore:"isActive"`

	CollectedBy       string      `firestore:"collectedBy"`
	CollectedByEmail  string      `firestore:"collectedByEmail"`
	CollectedAt       time.Time   `firestore:"collectedAt"`
	CollectionDetails *detailsDoc `firestore:"collectionDetails"`
}

type detailsDoc struct {
	CollectorName string `firestore:"collectorName"`
	RollNumber    string `firestore:"rollNumber"`
	Phone         string `firestore:"phone"`
	Email         string `firestore:"email"`
	HasPhotos     bool   `firestore:"hasPhotos"`
}

func (d *itemDoc) toModel(id string) models.Item {
	item := models.Item{
		ID:               id,
		Title:            d.Title,
		Description:      d.Description,
		Category:         models.Category(d.Category),
		Location:         d.Location,
		Status:           models.Status(d.Status),
		ImageURL:         d.ImageURL,
		ContactPhone:     d.ContactPhone,
		ContactEmail:     d.ContactEmail,
		UserID:           d.UserID,
		UserEmail:        d.UserEmail,
		IsActive:         d.IsActive,
		CollectedBy:      d.CollectedBy,
		CollectedByEmail: d.CollectedByEmail,
	}
	if !d.CreatedAt.IsZero() {
		ts := d.CreatedAt
		item.CreatedAt = &ts
	}
	if !d.CollectedAt.IsZero() {
		ts := d.CollectedAt
		item.CollectedAt = &ts
	}
	if d.CollectionDetails != nil {
		item.CollectionDetails = &models.CollectionDetails{
			CollectorName: d.CollectionDetails.CollectorName,
			RollNumber:    d.CollectionDetails.RollNumber,
			Phone:         d.CollectionDetails.Phone,
			Email:         d.CollectionDetails.Email,
			HasPhotos:     d.CollectionDetails.HasPhotos,
		}
	}
	return item
}

func (f *Firestore) col() *firestore.CollectionRef {
	return f.client.Collection(f.collection)
}

// Create inserts a new document. createdAt is written with the Firestore
// server timestamp sentinel, never a client clock; the stored document is
// read back so the caller sees the authoritative value.
func (f *Firestore) Create(ctx context.Context, item *models.Item) (*models.Item, error) {
	data := map[string]interface{}{
		"title":        item.Title,
		"description":  item.Description,
		"category":     string(item.Category),
		"location":     item.Location,
		"status":       string(item.Status),
		"imageUrl":     item.ImageURL,
		"contactPhone": item.ContactPhone,
		"contactEmail": item.ContactEmail,
		"userId":       item.UserID,
		"userEmail":    item.UserEmail,
		"createdAt":    firestore.ServerTimestamp,
		"isActive":     item.IsActive,
	}

	ref, _, err := f.col().Add(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}

	snap, err := ref.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("read back created item: %w", err)
	}
	var doc itemDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode created item: %w", err)
	}
	created := doc.toModel(ref.ID)
	return &created, nil
}

// Get returns a single item by document ID.
func (f *Firestore) Get(ctx context.Context, id string) (*models.Item, error) {
	snap, err := f.col().Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get item %s: %w", id, err)
	}

	var doc itemDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode item %s: %w", id, err)
	}
	item := doc.toModel(snap.Ref.ID)
	return &item, nil
}

// ListActive queries active documents with optional equality filters.
// Ordering is left to the caller; combining these filters with a server-side
// orderBy would require a composite index per filter combination.
func (f *Firestore) ListActive(ctx context.Context, st models.Status, category models.Category) ([]models.Item, error) {
	q := f.col().Where("isActive", "==", true)
	if st != "" {
		q = q.Where("status", "==", string(st))
	}
	if category != "" {
		q = q.Where("category", "==", string(category))
	}
	return f.queryItems(ctx, q)
}

// ListByUser returns the full report history for one user.
func (f *Firestore) ListByUser(ctx context.Context, userID string) ([]models.Item, error) {
	return f.queryItems(ctx, f.col().Where("userId", "==", userID))
}

func (f *Firestore) queryItems(ctx context.Context, q firestore.Query) ([]models.Item, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	var items []models.Item
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterate items: %w", err)
		}
		var doc itemDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode item %s: %w", snap.Ref.ID, err)
		}
		items = append(items, doc.toModel(snap.Ref.ID))
	}
	return items, nil
}

// SetActive updates only the isActive flag.
func (f *Firestore) SetActive(ctx context.Context, id string, active bool) error {
	_, err := f.col().Doc(id).Update(ctx, []firestore.Update{
		{Path: "isActive", Value: active},
	})
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("set active on item %s: %w", id, err)
	}
	return nil
}

// MarkCollected applies the collection fields in a transaction. The terminal
// check (collectedBy already set) happens on the transactional read, so two
// concurrent collectors cannot both succeed.
func (f *Firestore) MarkCollected(ctx context.Context, id string, rec CollectionRecord) error {
	ref := f.col().Doc(id)

	err := f.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		var doc itemDoc
		if err := snap.DataTo(&doc); err != nil {
			return err
		}
		if doc.CollectedBy != "" {
			return ErrAlreadyCollected
		}

		updates := []firestore.Update{
			{Path: "collectedBy", Value: rec.CollectorID},
			{Path: "collectedByEmail", Value: rec.CollectorEmail},
			{Path: "collectedAt", Value: firestore.ServerTimestamp},
			{Path: "isActive", Value: false},
		}
		if rec.Details != nil {
			updates = append(updates, firestore.Update{
				Path: "collectionDetails",
				Value: &detailsDoc{
					CollectorName: rec.Details.CollectorName,
					RollNumber:    rec.Details.RollNumber,
					Phone:         rec.Details.Phone,
					Email:         rec.Details.Email,
					HasPhotos:     rec.Details.HasPhotos,
				},
			})
		}
		return tx.Update(ref, updates)
	})

	switch err {
	case nil, ErrNotFound, ErrAlreadyCollected:
		return err
	default:
		return fmt.Errorf("mark item %s collected: %w", id, err)
	}
}
