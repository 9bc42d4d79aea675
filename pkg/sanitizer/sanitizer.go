package sanitizer

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Placeholders used when the provider output is missing a field or cannot
// be parsed at all.
const (
	FallbackMLS   = "Error generando contenido. Intenta de nuevo."
	FallbackPost  = "Intenta generar de nuevo para obtener los posts."
	FallbackEmail = "Intenta generar de nuevo para obtener el email."
	FallbackVideo = "Intenta generar de nuevo para obtener el script de video."
)

// maxRawMLS caps the raw text reused as the MLS description in fallback.
const maxRawMLS = 500

// Content is the marketing document returned to the client.
type Content struct {
	MLS   string   `json:"mls"`
	Posts []string `json:"posts"`
	Email string   `json:"email"`
	Video string   `json:"video"`
}

// Report describes how a Content value was obtained.
type Report struct {
	// Fallback is true when no JSON document could be parsed.
	Fallback bool

	// Narrowed is true when the document was found by trimming text
	// around the outermost braces.
	Narrowed bool

	// Fenced is true when a markdown code fence was stripped.
	Fenced bool
}

var (
	openingFence = regexp.MustCompile("(?i)^```[a-z0-9_-]*[ \\t]*\\r?\\n?")
	closingFence = regexp.MustCompile("\\r?\\n?[ \\t]*```\\s*$")
)

// document mirrors Content with loosely typed fields so that partially
// valid model output still decodes.
type document struct {
	MLS   any `json:"mls"`
	Posts any `json:"posts"`
	Email any `json:"email"`
	Video any `json:"video"`
}

// Extract recovers a Content document from raw provider output.
func Extract(raw string) Content {
	c, _ := ExtractWithReport(raw)
	return c
}

// ExtractWithReport is Extract plus a description of the recovery path.
func ExtractWithReport(raw string) (Content, Report) {
	var rep Report

	text := strings.TrimSpace(raw)
	if stripped, ok := stripFence(text); ok {
		text = stripped
		rep.Fenced = true
	}

	doc, ok := parse(text)
	if !ok {
		if inner, found := narrow(text); found {
			doc, ok = parse(inner)
			rep.Narrowed = ok
		}
	}

	if !ok {
		rep.Fallback = true
		return fallback(raw), rep
	}
	return normalize(doc), rep
}

// stripFence removes a leading ``` fence, with optional language tag, and
// the matching trailing fence.
func stripFence(s string) (string, bool) {
	loc := openingFence.FindStringIndex(s)
	if loc == nil {
		return s, false
	}
	s = s[loc[1]:]
	s = closingFence.ReplaceAllString(s, "")
	return strings.TrimSpace(s), true
}

// narrow returns the text between the first '{' and the last '}'.
func narrow(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

func parse(s string) (document, bool) {
	var doc document
	if s == "" {
		return doc, false
	}
	// A top-level array or scalar decodes into a struct with an error, so
	// only JSON objects are accepted here.
	if err := json.Unmarshal([]byte(s), &doc); err != nil {
		return doc, false
	}
	// null, {} and objects without any known key carry no content.
	if doc.MLS == nil && doc.Posts == nil && doc.Email == nil && doc.Video == nil {
		return doc, false
	}
	return doc, true
}

func normalize(doc document) Content {
	return Content{
		MLS:   stringOr(doc.MLS, FallbackMLS),
		Posts: posts(doc.Posts),
		Email: stringOr(doc.Email, FallbackEmail),
		Video: stringOr(doc.Video, FallbackVideo),
	}
}

func stringOr(v any, def string) string {
	if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
		return s
	}
	return def
}

// posts keeps the string entries of the posts field in order. Non-string
// entries become blank; a field with no usable text yields the
// placeholder set.
func posts(v any) []string {
	items, ok := v.([]any)
	if !ok || len(items) == 0 {
		return fallbackPosts()
	}

	out := make([]string, len(items))
	usable := false
	for i, item := range items {
		if s, ok := item.(string); ok {
			out[i] = s
			if strings.TrimSpace(s) != "" {
				usable = true
			}
		}
	}
	if !usable {
		return fallbackPosts()
	}
	return out
}

func fallbackPosts() []string {
	return []string{FallbackPost, "", ""}
}

func fallback(raw string) Content {
	mls := FallbackMLS
	if trimmed := strings.TrimSpace(raw); trimmed != "" {
		r := []rune(trimmed)
		if len(r) > maxRawMLS {
			r = r[:maxRawMLS]
		}
		mls = string(r)
	}
	return Content{
		MLS:   mls,
		Posts: fallbackPosts(),
		Email: FallbackEmail,
		Video: FallbackVideo,
	}
}
