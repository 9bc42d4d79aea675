package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"listingforge/gateway/pkg/config"
)

func newTestLogger(t *testing.T, cfg Config) (*Logger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	cfg.Writer = buf
	logger, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return logger, buf
}

// lastEntry decodes the last JSON line written to buf.
func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &entry); err != nil {
		t.Fatalf("failed to decode log line %q: %v", lines[len(lines)-1], err)
	}
	return entry
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
		format  LogFormat
		level   slog.Level
	}{
		{name: "defaults", cfg: Config{}, format: FormatJSON, level: slog.LevelInfo},
		{name: "text debug", cfg: Config{Level: "debug", Format: "text"}, format: FormatText, level: slog.LevelDebug},
		{name: "upper case", cfg: Config{Level: "WARN", Format: "JSON"}, format: FormatJSON, level: slog.LevelWarn},
		{name: "bad level", cfg: Config{Level: "loud"}, wantErr: true},
		{name: "bad format", cfg: Config{Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.Writer = &bytes.Buffer{}
			logger, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if logger.Format() != tt.format {
				t.Errorf("Format() = %v, want %v", logger.Format(), tt.format)
			}
			if logger.Level() != tt.level {
				t.Errorf("Level() = %v, want %v", logger.Level(), tt.level)
			}
		})
	}
}

func TestLogger_SetLevel(t *testing.T) {
	logger, buf := newTestLogger(t, Config{Level: "warn"})
	derived := logger.With("component", "test")

	derived.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info logged at warn level: %s", buf.String())
	}

	if err := logger.SetLevel("debug"); err != nil {
		t.Fatalf("SetLevel() error = %v", err)
	}
	derived.Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Error("derived logger did not follow the new level")
	}

	if err := logger.SetLevel("chatty"); err == nil {
		t.Error("SetLevel accepted an unknown level")
	}
	if logger.Level() != slog.LevelDebug {
		t.Errorf("Level() = %v after rejected change", logger.Level())
	}
}

func TestLogger_SensitiveKeysAlwaysMasked(t *testing.T) {
	logger, buf := newTestLogger(t, Config{RedactPII: false})

	logger.Info("upstream configured",
		"api_key", "gsk_live_0123456789",
		"authorization", "Bearer abc.def.ghi",
		"jwt_secret", "0123456789abcdef0123456789abcdef",
		"total_tokens", 412,
		"account_id", "acct_9",
	)

	entry := lastEntry(t, buf)
	if entry["api_key"] != "gsk_***" {
		t.Errorf("api_key = %v", entry["api_key"])
	}
	if entry["authorization"] != "Bear***" {
		t.Errorf("authorization = %v", entry["authorization"])
	}
	if entry["jwt_secret"] != "0123***" {
		t.Errorf("jwt_secret = %v", entry["jwt_secret"])
	}
	if entry["total_tokens"] != float64(412) {
		t.Errorf("total_tokens = %v", entry["total_tokens"])
	}
	if entry["account_id"] != "acct_9" {
		t.Errorf("account_id = %v", entry["account_id"])
	}
}

func TestLogger_PIIRedaction(t *testing.T) {
	logger, buf := newTestLogger(t, Config{RedactPII: true})

	logger.Error("upstream rejected", "detail", "contact ana@example.mx", "error", errString("key gsk_abcdefghijkl invalid"))

	entry := lastEntry(t, buf)
	if got := entry["detail"]; got != "contact ***@***" {
		t.Errorf("detail = %v", got)
	}
	if got := entry["error"]; got != "key gsk_*** invalid" {
		t.Errorf("error = %v", got)
	}
}

type errString string

func (e errString) Error() string { return string(e) }

func TestLogger_ContextExtractors(t *testing.T) {
	type ridKey struct{}
	extract := func(ctx context.Context) []slog.Attr {
		if id, ok := ctx.Value(ridKey{}).(string); ok {
			return []slog.Attr{slog.String("request_id", id)}
		}
		return nil
	}

	logger, buf := newTestLogger(t, Config{Extractors: []ContextExtractor{extract}})

	ctx := context.WithValue(context.Background(), ridKey{}, "req-7")
	ctx = WithAttrs(ctx, slog.String("account_id", "acct_1"))
	logger.InfoContext(ctx, "listing generated")

	entry := lastEntry(t, buf)
	if entry["request_id"] != "req-7" || entry["account_id"] != "acct_1" {
		t.Errorf("entry = %v", entry)
	}

	logger.Info("no context")
	entry = lastEntry(t, buf)
	if _, ok := entry["request_id"]; ok {
		t.Errorf("background context produced request_id: %v", entry)
	}
}

func TestLogger_TextFormat(t *testing.T) {
	logger, buf := newTestLogger(t, Config{Format: "text"})
	logger.Info("started", "addr", "127.0.0.1:8080")

	if !strings.Contains(buf.String(), "msg=started") || !strings.Contains(buf.String(), "addr=127.0.0.1:8080") {
		t.Errorf("text output = %q", buf.String())
	}
}

func TestFromConfig(t *testing.T) {
	cfg := FromConfig(config.LoggingConfig{Level: "debug", Format: "text", AddSource: true, RedactPII: true})
	if cfg.Level != "debug" || cfg.Format != "text" || !cfg.AddSource || !cfg.RedactPII {
		t.Errorf("FromConfig() = %+v", cfg)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"", slog.LevelInfo, false},
		{"Warning", slog.LevelWarn, false},
		{"ERROR", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
}
