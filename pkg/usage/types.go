package usage

import (
	"context"
	"time"

	"listingforge/gateway/pkg/sanitizer"
)

// Listing is a generated marketing document as persisted for an account.
type Listing struct {
	// Identity
	ID        string `json:"id"`         // UUID v4
	AccountID string `json:"account_id"` // Owning account
	RequestID string `json:"request_id"` // From the proxy, may be empty

	// Property input
	Address      string `json:"address"`
	Price        string `json:"price"`
	PropertyType string `json:"type"`
	Tone         string `json:"tone"`

	// Output
	Content     sanitizer.Content `json:"content"`
	ContentHash string            `json:"content_hash"` // SHA-256 of the content JSON
	Fallback    bool              `json:"fallback"`     // Placeholder content was returned

	// Billing context
	Plan      string    `json:"plan"`
	CreatedAt time.Time `json:"created_at"`
}

// Query selects listings. Zero fields do not filter.
type Query struct {
	// AccountID restricts results to one account.
	AccountID string

	// Before matches listings created strictly before this time.
	Before *time.Time

	// Limit caps the number of results. Zero means no limit.
	Limit int
}

// ListingStore persists generated listings.
//
// List returns newest listings first.
type ListingStore interface {
	Store(ctx context.Context, listing *Listing) error
	List(ctx context.Context, query *Query) ([]*Listing, error)
	Delete(ctx context.Context, query *Query) (int64, error)
	Count(ctx context.Context, query *Query) (int64, error)
	Close() error
}
