// Package oracle implements the relevance oracle: a single binary
// RELEVANT/NOISE classification delegated to a text-generation model,
// used as the second admission gate independent of lexical scoring.
package oracle

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/trinitylabs/archivarius/memory"
)

// Generator is the only contract the oracle needs from a text
// generation backend: one request/response shape, no streaming, no
// tool calls.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userText string, temperature float64) (string, error)
}

// Config holds classifier configuration.
type Config struct {
	// Goals are the user's standing goals the candidate is judged
	// against, enumerated into the system instruction.
	Goals []string

	// Timeout bounds each backend call. A timed-out call is treated as
	// NOISE per the fail-closed contract. Default: 30s.
	Timeout time.Duration

	// Temperature for the generation call. Default: 0.3.
	Temperature float64
}

// DefaultConfig returns the reference goals and call settings.
// The goal list is example data tied to one user's roadmap; callers
// should supply their own.
func DefaultConfig() *Config {
	return &Config{
		Goals: []string{
			"Buy an RTX 4090 GPU",
			"Win Google Summer of Code (GSoC) 2026",
			"Optimize RAM usage and system performance",
		},
		Timeout:     30 * time.Second,
		Temperature: 0.3,
	}
}

// Classifier classifies text against the configured goals.
//
// It fails closed: any backend error, timeout, or output that does not
// contain the RELEVANT token maps to VerdictNoise. The caller never
// sees an error and never gets a default accept.
//
// Successful verdicts are cached per candidate text, so re-ingesting
// the same item does not spend a second backend call. Failed calls are
// not cached; a later retry gets a fresh classification.
type Classifier struct {
	gen   Generator
	cfg   *Config
	cache *ristretto.Cache
}

// New creates a Classifier. A nil config uses DefaultConfig.
func New(gen Generator, cfg *Config) (*Classifier, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000,
		MaxCost:     1_000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create verdict cache: %w", err)
	}

	return &Classifier{
		gen:   gen,
		cfg:   cfg,
		cache: cache,
	}, nil
}

// Classify returns RELEVANT if the backend's output contains the token
// "RELEVANT" (case-insensitive substring match), NOISE otherwise.
func (c *Classifier) Classify(ctx context.Context, text string) memory.Verdict {
	if cached, ok := c.cache.Get(text); ok {
		if verdict, ok := cached.(memory.Verdict); ok {
			return verdict
		}
	}

	verdict, ok := c.classify(ctx, text)
	if ok {
		c.cache.Set(text, verdict, 1)
		c.cache.Wait()
	}
	return verdict
}

// classify performs one bounded backend call. The second return value
// reports whether the backend answered at all (cacheable verdict).
func (c *Classifier) classify(ctx context.Context, text string) (memory.Verdict, bool) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	out, err := c.gen.Generate(ctx, c.systemPrompt(), text, c.cfg.Temperature)
	if err != nil {
		// Fail closed: inability to classify must not admit junk.
		log.Printf("[ORACLE] Classification failed, treating as noise: %v", err)
		return memory.VerdictNoise, false
	}

	if strings.Contains(strings.ToUpper(out), string(memory.VerdictRelevant)) {
		return memory.VerdictRelevant, true
	}
	return memory.VerdictNoise, true
}

// systemPrompt builds the fixed instruction enumerating the user's
// standing goals.
func (c *Classifier) systemPrompt() string {
	var b strings.Builder
	b.WriteString("You are an internal relevance filter.\n\nUSER GOALS:\n")
	for i, goal := range c.cfg.Goals {
		fmt.Fprintf(&b, "%d. %s\n", i+1, goal)
	}
	b.WriteString("\nDoes this information help achieve these goals?\n\n")
	b.WriteString("If YES (relevant, actionable, technical): Return exactly \"RELEVANT\"\n")
	b.WriteString("If NO (generic noise, unrelated topics, vague advice): Return exactly \"NOISE\"")
	return b.String()
}
