package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"listingforge/gateway/pkg/sanitizer"
	"listingforge/gateway/pkg/usage"
)

func testListings() []*usage.Listing {
	created := time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC)
	return []*usage.Listing{
		{
			ID:           "lst-1",
			AccountID:    "acct_1",
			RequestID:    "req-1",
			Address:      "Av. Reforma 222, CDMX",
			Price:        "$4,500,000 MXN",
			PropertyType: "departamento",
			Tone:         "lujo",
			Content: sanitizer.Content{
				MLS:   "Departamento, con vista",
				Posts: []string{"Post uno", "Post dos", "Post tres"},
				Email: "Hola",
				Video: "Guion",
			},
			ContentHash: "abc123",
			Plan:        "pro",
			CreatedAt:   created,
		},
		{
			ID:        "lst-2",
			AccountID: "acct_1",
			Address:   "Calle 5",
			Fallback:  true,
			Plan:      "free",
			CreatedAt: created.Add(-time.Hour),
		},
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		format  string
		want    interface{}
		wantErr bool
	}{
		{format: "json", want: &JSONExporter{}},
		{format: "csv", want: &CSVExporter{}},
		{format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		got, err := New(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("New(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
			continue
		}
		if tt.wantErr {
			continue
		}
		switch tt.want.(type) {
		case *JSONExporter:
			if _, ok := got.(*JSONExporter); !ok {
				t.Errorf("New(%q) = %T", tt.format, got)
			}
		case *CSVExporter:
			if _, ok := got.(*CSVExporter); !ok {
				t.Errorf("New(%q) = %T", tt.format, got)
			}
		}
	}
}

func TestJSONExporter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONExporter(false).Export(context.Background(), testListings(), &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}

	var got []usage.Listing
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d listings, want 2", len(got))
	}
	if got[0].ID != "lst-1" || len(got[0].Content.Posts) != 3 {
		t.Errorf("first listing = %+v", got[0])
	}
	if !got[1].Fallback {
		t.Error("second listing should keep the fallback flag")
	}
}

func TestJSONExporter_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONExporter(true).Export(context.Background(), nil, &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Errorf("output = %q, want []", got)
	}
}

func TestCSVExporter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewCSVExporter(true).Export(context.Background(), testListings(), &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header plus 2", len(rows))
	}
	if strings.Join(rows[0], ",") != strings.Join(Header, ",") {
		t.Errorf("header = %v", rows[0])
	}

	first := rows[1]
	if first[3] != "2026-02-14T09:30:00Z" {
		t.Errorf("created_at = %q", first[3])
	}
	if first[5] != "Av. Reforma 222, CDMX" {
		t.Errorf("address = %q", first[5])
	}
	if first[10] != "Post uno\nPost dos\nPost tres" {
		t.Errorf("posts = %q", first[10])
	}
	if rows[2][14] != "true" {
		t.Errorf("fallback = %q, want true", rows[2][14])
	}
}

func TestCSVExporter_NoHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := NewCSVExporter(false).Export(context.Background(), testListings()[:1], &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(rows) != 1 || rows[0][0] != "lst-1" {
		t.Errorf("rows = %v", rows)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestExporters_WriteFailure(t *testing.T) {
	for _, format := range []string{"json", "csv"} {
		exporter, err := New(format)
		if err != nil {
			t.Fatal(err)
		}
		err = exporter.Export(context.Background(), testListings(), failingWriter{})
		var exportErr *usage.ExportError
		if !errors.As(err, &exportErr) {
			t.Errorf("%s: error = %v, want ExportError", format, err)
			continue
		}
		if exportErr.Format != format {
			t.Errorf("%s: Format = %q", format, exportErr.Format)
		}
	}
}

func TestExporters_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, format := range []string{"json", "csv"} {
		exporter, _ := New(format)
		if err := exporter.Export(ctx, testListings(), &bytes.Buffer{}); !errors.Is(err, context.Canceled) {
			t.Errorf("%s: error = %v, want context.Canceled", format, err)
		}
	}
}
