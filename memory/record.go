package memory

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PriorityAlphaTag is stamped on every record at admission.
const PriorityAlphaTag = "#Priority_Alpha"

// Record is the persisted unit of accepted knowledge.
//
// A record is created exactly once at successful admission and is
// immutable thereafter: the embedding is produced once and never
// recomputed on read, and there is no update or delete path in the
// admission flow.
type Record struct {
	// ID is generated at admission time.
	ID string

	// Content is the sanitized text (control characters stripped,
	// NFC-normalized, invalid byte sequences dropped).
	Content string

	// Embedding is the fixed-dimension vector produced at admission.
	Embedding []float32

	// Score is the evidence score [0,10] at admission; always at or
	// above the admission threshold for persisted records.
	Score float64

	// Priority is "alpha" for admitted records, "system" for the
	// store sentinel.
	Priority string

	// Source identifies the producing agent or caller.
	Source string

	// Tags always include PriorityAlphaTag for admitted records.
	Tags []string

	CreatedAt time.Time

	// Metadata holds caller-supplied fields, stringified for storage.
	Metadata map[string]string
}

// NewRecord builds an admitted record from sanitized content.
// It stamps the priority tag, generates the ID, and stringifies the
// caller-supplied metadata. The embedding is attached separately.
func NewRecord(content string, score float64, metadata map[string]any) *Record {
	rec := &Record{
		ID:        uuid.New().String(),
		Content:   content,
		Score:     score,
		Priority:  "alpha",
		Source:    "archivist",
		Tags:      []string{PriorityAlphaTag},
		CreatedAt: time.Now(),
		Metadata:  make(map[string]string, len(metadata)),
	}

	for k, v := range metadata {
		switch k {
		case "source":
			if s, ok := v.(string); ok && s != "" {
				rec.Source = s
				continue
			}
		case "tags":
			if tags, ok := v.([]string); ok {
				rec.Tags = append(append([]string{}, tags...), PriorityAlphaTag)
				continue
			}
		}
		rec.Metadata[k] = stringifyValue(v)
	}

	return rec
}

// stringifyValue converts a metadata value to its storage form.
// Strings pass through; everything else is JSON-encoded.
func stringifyValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	bytes, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(bytes)
}
