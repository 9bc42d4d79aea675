package types

import (
	"time"

	"listingforge/gateway/pkg/sanitizer"
)

// GenerateResponse is the successful POST /generate body.
type GenerateResponse struct {
	Success bool              `json:"success"`
	Content sanitizer.Content `json:"content"`
	Usage   UsageSummary      `json:"usage"`

	// ListingID identifies the stored listing.
	ListingID string `json:"listingId,omitempty"`
}

// UsageSummary is the account's listing usage after a charge.
type UsageSummary struct {
	Used  int    `json:"used"`
	Limit int    `json:"limit"`
	Plan  string `json:"plan"`
}

// Counter is a used/limit pair.
type Counter struct {
	Used  int `json:"used"`
	Limit int `json:"limit"`
}

// UsageResponse is the GET /usage body.
type UsageResponse struct {
	Plan      string    `json:"plan"`
	PlanLabel string    `json:"planLabel"`
	Listings  Counter   `json:"listings"`
	Leads     Counter   `json:"leads"`
	ResetsAt  time.Time `json:"resetsAt"`
}

// ListingSummary is one entry of GET /listings.
type ListingSummary struct {
	ID           string            `json:"id"`
	Address      string            `json:"address"`
	Price        string            `json:"price"`
	PropertyType string            `json:"type,omitempty"`
	Tone         string            `json:"tone"`
	Content      sanitizer.Content `json:"content"`
	CreatedAt    time.Time         `json:"createdAt"`
}

// ListingsResponse is the GET /listings body.
type ListingsResponse struct {
	Listings []ListingSummary `json:"listings"`
}
