// Package chromem persists memory records in chromem-go, a pure Go
// embedded vector database.
package chromem

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/trinitylabs/archivarius/memory"
)

const (
	collectionName = "memories"

	// sentinelID identifies the seed record every fresh store starts
	// with, so the index is never structurally empty.
	sentinelID      = "sentinel"
	sentinelContent = "Archive memory store initialized."
)

// Reserved metadata keys written alongside every document.
const (
	metaScore          = "score"
	metaPriority       = "priority"
	metaTimestamp      = "timestamp"
	metaSource         = "source"
	metaTags           = "tags"
	metaEmbeddingModel = "embedding_model"
)

// Store wraps a persistent chromem-go collection.
//
// Writes are write-through: AddDocument persists each record to the
// backing directory before returning. The store has a single internal
// writer lock; concurrent pipelines must share one Store instance
// rather than racing on the same path.
type Store struct {
	db       *chromem.DB
	col      *chromem.Collection
	embedder memory.Embedder
	path     string
	mu       sync.Mutex
}

// Open loads the store at path, or creates a fresh one seeded with a
// sentinel record. A missing path is not an error, it is "first run".
//
// An unreadable existing store is moved aside and replaced with a fresh
// one; prior data is lost but the fallback is logged loudly, never
// hidden.
//
// The sentinel records the embedder's model identifier; reopening a
// store with a different embedder fails, since mixing embedding
// functions silently degrades search quality.
func Open(ctx context.Context, path string, embedder memory.Embedder) (*Store, error) {
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		log.Printf("[CHROMEM] FAILED to load store at %s: %v", path, err)

		backup := fmt.Sprintf("%s.corrupt-%d", path, time.Now().Unix())
		if renameErr := os.Rename(path, backup); renameErr != nil {
			return nil, fmt.Errorf("load store at %s: %w", path, err)
		}
		log.Printf("[CHROMEM] Moved unreadable store to %s, creating fresh store", backup)

		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, fmt.Errorf("create store at %s: %w", path, err)
		}
	}

	// Embeddings are always provided by our embedder, so no collection
	// embedding func is needed.
	col, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("open collection: %w", err)
	}

	s := &Store{
		db:       db,
		col:      col,
		embedder: embedder,
		path:     path,
	}

	if col.Count() == 0 {
		if err := s.seedSentinel(ctx); err != nil {
			return nil, err
		}
		log.Printf("[CHROMEM] Created new store at %s", path)
		return s, nil
	}

	if err := s.checkEmbeddingModel(ctx); err != nil {
		return nil, err
	}
	log.Printf("[CHROMEM] Loaded existing store at %s (%d records)", path, col.Count())
	return s, nil
}

// seedSentinel inserts the initial system record and persists it.
func (s *Store) seedSentinel(ctx context.Context) error {
	embedding, err := s.embedder.Embed(ctx, sentinelContent)
	if err != nil {
		return &memory.EmbeddingError{Err: err}
	}

	doc := chromem.Document{
		ID:        sentinelID,
		Content:   sentinelContent,
		Embedding: embedding,
		Metadata: map[string]string{
			metaScore:          "10",
			metaPriority:       "system",
			metaSource:         "system",
			metaTimestamp:      time.Now().Format(time.RFC3339),
			metaEmbeddingModel: s.embedder.ModelID(),
		},
	}
	if err := s.col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("seed sentinel: %w", err)
	}
	return nil
}

// checkEmbeddingModel verifies that the configured embedder matches the
// one the index was built with.
func (s *Store) checkEmbeddingModel(ctx context.Context) error {
	doc, err := s.col.GetByID(ctx, sentinelID)
	if err != nil {
		// Store predates the model guard; usable, but warn.
		log.Printf("[CHROMEM] Store at %s has no sentinel, cannot verify embedding model", s.path)
		return nil
	}

	stored := doc.Metadata[metaEmbeddingModel]
	if stored != "" && stored != s.embedder.ModelID() {
		return fmt.Errorf("embedding model mismatch: store built with %q, embedder is %q",
			stored, s.embedder.ModelID())
	}
	return nil
}

// Add appends a record to the index and persists it before returning.
// The record is embedded first if no embedding is attached.
func (s *Store) Add(ctx context.Context, rec *memory.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.Embedding == nil {
		embedding, err := s.embedder.Embed(ctx, rec.Content)
		if err != nil {
			return &memory.EmbeddingError{Err: err}
		}
		rec.Embedding = embedding
	}

	doc := chromem.Document{
		ID:        rec.ID,
		Content:   rec.Content,
		Embedding: rec.Embedding,
		Metadata:  encodeMetadata(rec),
	}

	if err := s.col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("add document: %w", err)
	}

	log.Printf("[CHROMEM] Stored record %s (score %.1f)", rec.ID, rec.Score)
	return nil
}

// Search returns up to k records by cosine similarity, nearest first.
// The query is embedded with the store's configured embedder.
func (s *Store) Search(ctx context.Context, query string, k int) ([]memory.SearchResult, error) {
	count := s.col.Count()
	if count == 0 {
		return nil, nil
	}
	if k <= 0 {
		k = 1
	}
	// chromem requires nResults <= collection size.
	if k > count {
		k = count
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, &memory.EmbeddingError{Err: err}
	}

	results, err := s.col.QueryEmbedding(ctx, embedding, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query embedding: %w", err)
	}

	out := make([]memory.SearchResult, 0, len(results))
	for i, res := range results {
		rec, err := decodeRecord(res)
		if err != nil {
			log.Printf("[CHROMEM] Skipping result #%d: %v", i+1, err)
			continue
		}
		out = append(out, memory.SearchResult{Record: rec, Similarity: res.Similarity})
	}
	return out, nil
}

// Count returns the number of records in the index, sentinel included.
func (s *Store) Count() int {
	return s.col.Count()
}

// Close releases resources. chromem persists on every write, so there
// is nothing to flush.
func (s *Store) Close() error {
	return nil
}

// encodeMetadata flattens a record into chromem's string metadata map.
// Caller-supplied fields never overwrite the reserved keys.
func encodeMetadata(rec *memory.Record) map[string]string {
	metadata := make(map[string]string, len(rec.Metadata)+5)
	for k, v := range rec.Metadata {
		metadata[k] = v
	}

	metadata[metaScore] = strconv.FormatFloat(rec.Score, 'f', -1, 64)
	metadata[metaPriority] = rec.Priority
	metadata[metaSource] = rec.Source
	metadata[metaTimestamp] = rec.CreatedAt.Format(time.RFC3339)
	if len(rec.Tags) > 0 {
		metadata[metaTags] = strings.Join(rec.Tags, ",")
	}
	return metadata
}

// decodeRecord converts a chromem result back to a Record.
func decodeRecord(res chromem.Result) (*memory.Record, error) {
	rec := &memory.Record{
		ID:        res.ID,
		Content:   res.Content,
		Embedding: res.Embedding,
		Priority:  res.Metadata[metaPriority],
		Source:    res.Metadata[metaSource],
		Metadata:  make(map[string]string),
	}

	if raw, ok := res.Metadata[metaScore]; ok {
		score, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("parse score %q: %w", raw, err)
		}
		rec.Score = score
	}

	if raw, ok := res.Metadata[metaTimestamp]; ok {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			rec.CreatedAt = ts
		}
	}

	if raw, ok := res.Metadata[metaTags]; ok && raw != "" {
		rec.Tags = strings.Split(raw, ",")
	}

	for k, v := range res.Metadata {
		switch k {
		case metaScore, metaPriority, metaSource, metaTimestamp, metaTags, metaEmbeddingModel:
		default:
			rec.Metadata[k] = v
		}
	}

	return rec, nil
}
