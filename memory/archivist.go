package memory

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/trinitylabs/archivarius/guard"
)

// Reason explains why a candidate was rejected.
// Gate rejections are expected, frequent outcomes reported as values,
// never as errors.
type Reason string

const (
	// ReasonBlacklist: the lexical gate matched a banned pattern.
	ReasonBlacklist Reason = "blacklist"

	// ReasonNoise: the relevance oracle classified the text as noise
	// (or could not classify it at all).
	ReasonNoise Reason = "noise"

	// ReasonLowScore: the evidence score fell below the admission
	// threshold.
	ReasonLowScore Reason = "low_score"

	// ReasonEmbedding: embedding generation failed; nothing was
	// inserted.
	ReasonEmbedding Reason = "embedding_error"
)

// Admission is the terminal outcome of one pipeline run.
type Admission struct {
	Accepted bool
	Reason   Reason
	Score    float64
	RecordID string
}

// Config holds Archivist configuration.
type Config struct {
	// AdmissionThreshold is the minimum evidence score for storage.
	// Deliberately stricter than guard.DefaultPrefilterThreshold, which
	// upstream callers use to decide whether to attempt admission at all.
	// Default: guard.DefaultAdmissionThreshold (7.0).
	AdmissionThreshold float64

	// RecallLimit is the default number of results for Recall.
	// Default: 3.
	RecallLimit int

	// ContextLimit is the default number of records spliced into
	// prompts by RetrieveContext. Default: 2.
	ContextLimit int
}

// DefaultConfig returns sensible defaults.
var DefaultConfig = &Config{
	AdmissionThreshold: guard.DefaultAdmissionThreshold,
	RecallLimit:        3,
	ContextLimit:       2,
}

// Archivist is the active memory agent: the ordered funnel deciding
// whether a candidate becomes a permanent record, plus recall over the
// same store.
//
// The funnel is strictly sequential with no branching back:
//
//	blacklist check -> relevance check -> evidence score -> commit
//
// Cheapest checks run first; the expensive LLM call only sees items
// that already passed the free filter, and the persisted score is
// recomputed after relevance so it reflects evidence quality alone.
type Archivist struct {
	guard    *guard.Guard
	oracle   Oracle
	store    Store
	embedder Embedder
	cfg      *Config
}

// NewArchivist creates an Archivist. A nil config uses DefaultConfig.
func NewArchivist(store Store, embedder Embedder, g *guard.Guard, o Oracle, cfg *Config) *Archivist {
	if cfg == nil {
		cfg = DefaultConfig
	}
	return &Archivist{
		guard:    g,
		oracle:   o,
		store:    store,
		embedder: embedder,
		cfg:      cfg,
	}
}

// Learn runs the admission pipeline and reports whether the candidate
// was stored. Rejections are normal outcomes; only a store failure
// surfaces as an error.
func (a *Archivist) Learn(ctx context.Context, text string, metadata map[string]any) (bool, error) {
	adm, err := a.Admit(ctx, text, metadata)
	if err != nil {
		return false, err
	}
	return adm.Accepted, nil
}

// Admit runs the full funnel and returns the terminal outcome.
// On acceptance the store gains one new record, persisted before
// Admit returns.
func (a *Archivist) Admit(ctx context.Context, text string, metadata map[string]any) (*Admission, error) {
	log.Printf("[ARCHIVIST] New learning request (%d bytes)", len(text))

	// Step 1: blacklist. Free and deterministic, so it runs first.
	if reason, blocked := a.guard.Match(text); blocked {
		log.Printf("[ARCHIVIST] Rejected (blacklist): %s", reason)
		return &Admission{Reason: ReasonBlacklist}, nil
	}

	// Step 2: relevance. The only external call in the funnel;
	// fail-closed, so an unreachable backend rejects.
	if a.oracle.Classify(ctx, text) == VerdictNoise {
		log.Printf("[ARCHIVIST] Rejected (noise): not relevant to goals")
		return &Admission{Reason: ReasonNoise}, nil
	}

	// Step 3: evidence score, recomputed after relevance passes so the
	// persisted score reflects evidence quality independent of the
	// relevance verdict.
	score := a.guard.Score(text, metadata)
	if score < a.cfg.AdmissionThreshold {
		log.Printf("[ARCHIVIST] Rejected (low_score): %.1f < %.1f", score, a.cfg.AdmissionThreshold)
		return &Admission{Reason: ReasonLowScore, Score: score}, nil
	}

	// Step 4: commit. Sanitize, stamp, embed, persist.
	rec := NewRecord(Sanitize(text), score, metadata)

	embedding, err := a.embedder.Embed(ctx, rec.Content)
	if err != nil {
		// Fatal to this one candidate only; never insert a vectorless
		// record.
		log.Printf("[ARCHIVIST] Rejected (embedding_error): %v", err)
		return &Admission{Reason: ReasonEmbedding, Score: score}, nil
	}
	rec.Embedding = embedding

	if err := a.store.Add(ctx, rec); err != nil {
		return nil, fmt.Errorf("store record: %w", err)
	}

	log.Printf("[ARCHIVIST] Archived %s (score %.1f, priority %s)", rec.ID, score, rec.Priority)
	return &Admission{Accepted: true, Score: score, RecordID: rec.ID}, nil
}

// Recall searches memory and returns a formatted block per result:
//
//	[Memory 1] (Score: 8.5, Priority: alpha)
//	<content>
//
// Empty result sets return the "No relevant memories found." sentinel
// string rather than an error.
func (a *Archivist) Recall(ctx context.Context, query string, k int) (string, error) {
	if k <= 0 {
		k = a.cfg.RecallLimit
	}

	results, err := a.store.Search(ctx, query, k)
	if err != nil {
		return "", fmt.Errorf("search memories: %w", err)
	}

	if len(results) == 0 {
		return "No relevant memories found.", nil
	}

	parts := make([]string, 0, len(results))
	for i, res := range results {
		parts = append(parts, fmt.Sprintf("[Memory %d] (Score: %.1f, Priority: %s)\n%s",
			i+1, res.Record.Score, res.Record.Priority, res.Record.Content))
	}
	return strings.Join(parts, "\n\n"), nil
}

// RecallRecords is the raw-record variant of Recall.
func (a *Archivist) RecallRecords(ctx context.Context, query string, k int) ([]*Record, error) {
	if k <= 0 {
		k = a.cfg.RecallLimit
	}

	results, err := a.store.Search(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("search memories: %w", err)
	}

	records := make([]*Record, 0, len(results))
	for _, res := range results {
		records = append(records, res.Record)
	}
	return records, nil
}

// RetrieveContext splices prior memory into a new prompt as a bullet
// list. Context augmentation is always best-effort: a missing store or
// any retrieval failure returns an empty string, never an error.
func (a *Archivist) RetrieveContext(ctx context.Context, query string, k int) string {
	if a.store == nil {
		return ""
	}
	if k <= 0 {
		k = a.cfg.ContextLimit
	}

	results, err := a.store.Search(ctx, query, k)
	if err != nil {
		log.Printf("[ARCHIVIST] Context retrieval failed: %v", err)
		return ""
	}
	if len(results) == 0 {
		return ""
	}

	lines := make([]string, 0, len(results))
	for _, res := range results {
		lines = append(lines, "- "+res.Record.Content)
	}
	return strings.Join(lines, "\n")
}
