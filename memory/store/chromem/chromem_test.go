package chromem_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/trinitylabs/archivarius/memory"
	"github.com/trinitylabs/archivarius/memory/embedder/mock"
	"github.com/trinitylabs/archivarius/memory/store/chromem"
)

// renamedEmbedder reports a different model identifier than the
// embedder it wraps.
type renamedEmbedder struct {
	memory.Embedder
	id string
}

func (e *renamedEmbedder) ModelID() string { return e.id }

func open(t *testing.T, path string) *chromem.Store {
	t.Helper()
	store, err := chromem.Open(context.Background(), path, mock.New())
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	return store
}

func TestStore_CreatesSentinel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")
	store := open(t, path)

	if store.Count() != 1 {
		t.Errorf("Expected fresh store with sentinel only, got %d records", store.Count())
	}

	// Reopening must not seed a second sentinel.
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	store = open(t, path)
	if store.Count() != 1 {
		t.Errorf("Expected 1 record after reopen, got %d", store.Count())
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db")
	store := open(t, path)

	rec := memory.NewRecord("CUDA kernel fusion notes from github.com", 8.5, nil)
	if err := store.Add(ctx, rec); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	store = open(t, path)
	if store.Count() != 2 {
		t.Fatalf("Expected 2 records after reopen, got %d", store.Count())
	}

	results, err := store.Search(ctx, "CUDA kernel fusion notes from github.com", 1)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	got := results[0].Record
	if got.ID != rec.ID {
		t.Errorf("Expected record %s, got %s", rec.ID, got.ID)
	}
	if got.Score != 8.5 {
		t.Errorf("Expected score 8.5, got %v", got.Score)
	}
	if got.Priority != "alpha" {
		t.Errorf("Expected priority alpha, got %q", got.Priority)
	}
}

func TestStore_ExactContentSimilarity(t *testing.T) {
	ctx := context.Background()
	store := open(t, filepath.Join(t.TempDir(), "db"))

	content := "Mixed precision training on an RTX 4090"
	if err := store.Add(ctx, memory.NewRecord(content, 9.0, nil)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := store.Add(ctx, memory.NewRecord("Unrelated note about gardening", 7.0, nil)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	results, err := store.Search(ctx, content, 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) < 1 {
		t.Fatal("Expected results")
	}
	top := results[0]
	if top.Record.Content != content {
		t.Errorf("Expected exact-content match first, got %q", top.Record.Content)
	}
	if top.Similarity < 0.99 {
		t.Errorf("Expected similarity near 1.0 for identical text, got %v", top.Similarity)
	}
}

func TestStore_SearchClampsK(t *testing.T) {
	ctx := context.Background()
	store := open(t, filepath.Join(t.TempDir(), "db"))

	// Only the sentinel exists; asking for more results than records
	// must not error.
	results, err := store.Search(ctx, "anything", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("Expected 1 result, got %d", len(results))
	}
}

func TestStore_EmbeddingModelMismatch(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db")

	store := open(t, path)
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	other := &renamedEmbedder{Embedder: mock.New(), id: "some-other-model"}
	if _, err := chromem.Open(ctx, path, other); err == nil {
		t.Error("Expected error reopening with a different embedding model")
	}
}

func TestStore_ConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	store := open(t, filepath.Join(t.TempDir(), "db"))

	var wg sync.WaitGroup
	contents := []string{
		"GSoC 2026 proposal draft for a CUDA project",
		"RAM optimization checklist for the workstation",
	}
	for _, content := range contents {
		wg.Add(1)
		go func(text string) {
			defer wg.Done()
			if err := store.Add(ctx, memory.NewRecord(text, 8.0, nil)); err != nil {
				t.Errorf("Concurrent Add failed: %v", err)
			}
		}(content)
	}
	wg.Wait()

	if store.Count() != 3 {
		t.Errorf("Expected sentinel + 2 records, got %d", store.Count())
	}
}

func TestStore_CorruptPathFallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db")

	// A regular file where the store directory should be makes the
	// initial load fail.
	if err := os.WriteFile(path, []byte("not a database"), 0o644); err != nil {
		t.Fatalf("Failed to write blocking file: %v", err)
	}

	store := open(t, path)
	if store.Count() != 1 {
		t.Errorf("Expected fresh store after fallback, got %d records", store.Count())
	}

	// The unreadable original is preserved next to the new store.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	backup := false
	for _, entry := range entries {
		if entry.Name() != "db" {
			backup = true
		}
	}
	if !backup {
		t.Error("Expected the unreadable store to be moved aside, not deleted")
	}
}
