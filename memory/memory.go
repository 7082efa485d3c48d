package memory

import (
	"context"
)

// Verdict is the relevance oracle's binary classification.
type Verdict string

const (
	// VerdictRelevant means the text helps the user's standing goals.
	VerdictRelevant Verdict = "RELEVANT"

	// VerdictNoise means the text is generic noise, unrelated, or the
	// backend could not classify it (fail-closed).
	VerdictNoise Verdict = "NOISE"
)

// Oracle classifies a text blob against the user's standing goals.
//
// Implementations must fail closed: any backend error, timeout, or
// malformed output results in VerdictNoise, never in a thrown error and
// never in a default accept. Inability to classify must not silently
// admit junk into permanent memory.
type Oracle interface {
	Classify(ctx context.Context, text string) Verdict
}

// SearchResult pairs a recalled record with its similarity to the query.
type SearchResult struct {
	Record     *Record
	Similarity float32
}

// Store is the vector storage backend interface.
// It is the sole writer of its backing index; concurrent pipelines
// sharing one store must go through the same instance (single-writer
// discipline).
//
// Implementations: chromem.Store (local, embedded).
type Store interface {
	// Add embeds the record's content if no embedding is attached,
	// appends it to the index, and persists before returning
	// (write-through).
	Add(ctx context.Context, rec *Record) error

	// Search returns up to k records by vector similarity, nearest
	// first. The query is embedded with the same embedding function
	// used at insertion time.
	Search(ctx context.Context, query string, k int) ([]SearchResult, error)

	// Count returns the number of records in the index, including the
	// sentinel seeded at creation.
	Count() int

	// Close releases resources.
	Close() error
}

// Embedder converts text to vector embeddings.
//
// Every insert and every query against one store instance must use the
// same embedder (same model, same normalization); mixing embedders
// silently degrades search quality, so stores record ModelID alongside
// the index and refuse mismatched opens.
//
// Implementations: mock.Embedder (testing), onnx.Embedder (local).
type Embedder interface {
	// Embed converts a single text to an embedding vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int

	// ModelID identifies the embedding model, e.g. "all-MiniLM-L6-v2".
	ModelID() string
}

// EmbeddingError wraps a failure of the embedding function.
// Admission treats it as fatal to the one candidate (rejected with
// reason "embedding_error") rather than inserting a vectorless record.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	return "embedding failed: " + e.Err.Error()
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}
