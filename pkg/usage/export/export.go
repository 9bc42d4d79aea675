package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"listingforge/gateway/pkg/usage"
)

// Exporter writes listings to w.
type Exporter interface {
	Export(ctx context.Context, listings []*usage.Listing, w io.Writer) error
}

// New returns the exporter for format ("json" or "csv").
func New(format string) (Exporter, error) {
	switch format {
	case "json":
		return NewJSONExporter(true), nil
	case "csv":
		return NewCSVExporter(true), nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// JSONExporter exports listings as a JSON array.
type JSONExporter struct {
	// Pretty enables indentation.
	Pretty bool
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{Pretty: pretty}
}

// Export writes listings as one JSON array. An empty slice writes [].
func (e *JSONExporter) Export(ctx context.Context, listings []*usage.Listing, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if listings == nil {
		listings = []*usage.Listing{}
	}

	encoder := json.NewEncoder(w)
	if e.Pretty {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(listings); err != nil {
		return &usage.ExportError{Format: "json", Cause: err}
	}
	return nil
}

// CSVExporter exports listings with one row per listing.
type CSVExporter struct {
	// IncludeHeader writes a header row first.
	IncludeHeader bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{IncludeHeader: includeHeader}
}

// Header is the CSV column order.
var Header = []string{
	"id", "account_id", "request_id", "created_at", "plan",
	"address", "price", "type", "tone",
	"mls", "posts", "email", "video",
	"content_hash", "fallback",
}

// Export writes listings as CSV. It stops early when ctx is done.
func (e *CSVExporter) Export(ctx context.Context, listings []*usage.Listing, w io.Writer) error {
	writer := csv.NewWriter(w)

	if e.IncludeHeader {
		if err := writer.Write(Header); err != nil {
			return &usage.ExportError{Format: "csv", Cause: err}
		}
	}

	for i, l := range listings {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writer.Write(row(l)); err != nil {
			return &usage.ExportError{Format: "csv", Count: i, Cause: err}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return &usage.ExportError{Format: "csv", Count: len(listings), Cause: err}
	}
	return nil
}

func row(l *usage.Listing) []string {
	return []string{
		l.ID,
		l.AccountID,
		l.RequestID,
		l.CreatedAt.UTC().Format(time.RFC3339),
		l.Plan,
		l.Address,
		l.Price,
		l.PropertyType,
		l.Tone,
		l.Content.MLS,
		strings.Join(l.Content.Posts, "\n"),
		l.Content.Email,
		l.Content.Video,
		l.ContentHash,
		strconv.FormatBool(l.Fallback),
	}
}
