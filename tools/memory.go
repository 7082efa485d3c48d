// Package tools provides the integration points agent orchestrators
// call into. Tools are plain interfaces; no framework-specific base
// class is required.
package tools

import (
	"context"

	"github.com/trinitylabs/archivarius/memory"
)

// Searcher is the single-method contract any orchestrator can invoke
// directly for memory recall.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// Descriptive strings for orchestrators that list their tools.
const (
	SearchToolName        = "search_personal_memory"
	SearchToolDescription = "Search the user's personal knowledge base for relevant " +
		"information about skills, goals, projects, and preferences."
)

// MemorySearch exposes the archivist's recall as a Searcher.
type MemorySearch struct {
	archivist *memory.Archivist
	limit     int
}

// NewMemorySearch creates a memory search tool returning up to limit
// results per query (default 3).
func NewMemorySearch(a *memory.Archivist, limit int) *MemorySearch {
	if limit <= 0 {
		limit = 3
	}
	return &MemorySearch{
		archivist: a,
		limit:     limit,
	}
}

// Search returns formatted recall results for the query.
func (t *MemorySearch) Search(ctx context.Context, query string) (string, error) {
	return t.archivist.Recall(ctx, query, t.limit)
}
