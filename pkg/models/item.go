package models

import "time"

// Status says whether the reporter lost the item or found it. It is set at
// creation and never changes afterwards.
type Status string

const (
	StatusLost  Status = "lost"
	StatusFound Status = "found"
)

// Category is the fixed classification set for reported items.
type Category string

const (
	CategoryElectronics Category = "electronics"
	CategoryBooks       Category = "books"
	CategoryClothing    Category = "clothing"
	CategoryAccessories Category = "accessories"
	CategoryOther       Category = "other"
)

// ValidStatus reports whether s is a known status value.
func ValidStatus(s Status) bool {
	return s == StatusLost || s == StatusFound
}

// ValidCategory reports whether c is a known category value.
func ValidCategory(c Category) bool {
	switch c {
	case CategoryElectronics, CategoryBooks, CategoryClothing, CategoryAccessories, CategoryOther:
		return true
	}
	return false
}

// Item is a single lost/found report.
//
// CreatedAt is assigned by the store at creation time, never by the client.
// The four collection fields stay unset until the item is collected; once any
// of them is set the item is permanently collected.
type Item struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Category     Category `json:"category"`
	Location     string   `json:"location"`
	Status       Status   `json:"status"`
	ImageURL     string   `json:"image_url,omitempty"`
	ContactPhone string   `json:"contact_phone,omitempty"`
	ContactEmail string   `json:"contact_email,omitempty"`

	UserID    string     `json:"user_id"`
	UserEmail string     `json:"user_email"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	IsActive  bool       `json:"is_active"`

	CollectedBy       string             `json:"collected_by,omitempty"`
	CollectedByEmail  string             `json:"collected_by_email,omitempty"`
	CollectedAt       *time.Time         `json:"collected_at,omitempty"`
	CollectionDetails *CollectionDetails `json:"collection_details,omitempty"`
}

// Collected reports whether the item has completed the collection handoff.
func (i *Item) Collected() bool {
	return i.CollectedBy != ""
}

// CollectionDetails records who physically collected an item. HasPhotos is an
// attestation that the three required photo artifacts were supplied at
// submission time; the photos themselves are never persisted here.
type CollectionDetails struct {
	CollectorName string `json:"collector_name"`
	RollNumber    string `json:"roll_number"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	HasPhotos     bool   `json:"has_photos"`
}
