// Package guard implements the lexical gate: a cheap, deterministic,
// pre-LLM filter over raw candidate text.
//
// The gate has two jobs:
//   - IsGarbage: blacklist check against known spam patterns
//   - Score: additive evidence-based quality score [0-10]
//
// Both run locally with no I/O, so they sit in front of the expensive
// relevance classification in the admission funnel.
package guard

import (
	"fmt"
	"regexp"
	"strings"
)

// Two independent thresholds, deliberately asymmetric:
// upstream batch callers use the loose pre-filter bar to decide whether a
// candidate is worth an LLM call at all, while the admission pipeline
// enforces the strict bar before anything is permanently stored.
const (
	// DefaultAdmissionThreshold is the minimum evidence score for a
	// candidate to enter long-term memory.
	DefaultAdmissionThreshold = 7.0

	// DefaultPrefilterThreshold is the looser bar used by callers to
	// skip obviously low-quality candidates before downstream analysis.
	DefaultPrefilterThreshold = 4.0
)

// Rule is a single blacklist entry: a case-insensitive regex pattern
// paired with a human-readable reason for the block.
type Rule struct {
	Pattern string
	Reason  string
}

// Config holds the gate's vocabulary and scoring weights.
// All fields are constructor-injected so tests can swap in alternate
// vocabularies without touching package state.
type Config struct {
	// Blacklist patterns. Any match marks the text as garbage.
	Blacklist []Rule

	// TrustedDomains are substrings awarding DomainBonus (once).
	TrustedDomains []string

	// AuthorityNames are domain experts awarding AuthorityBonus (once).
	AuthorityNames []string

	// RelevanceKeywords are roadmap terms awarding KeywordBonus (once).
	RelevanceKeywords []string

	// BaseScore is the starting score for any non-garbage text.
	BaseScore float64

	// Per-category bonuses, each awarded at most once.
	DomainBonus    float64
	CodeBonus      float64
	AuthorityBonus float64
	KeywordBonus   float64

	// AdmissionThreshold is the strict bar enforced by the admission
	// pipeline (default 7.0).
	AdmissionThreshold float64

	// PrefilterThreshold is the loose bar for upstream callers
	// (default 4.0).
	PrefilterThreshold float64
}

// DefaultConfig returns the reference vocabulary and weights.
// The lists are example data tied to one user's goals; callers with
// different goals should supply their own.
func DefaultConfig() *Config {
	return &Config{
		Blacklist: []Rule{
			{Pattern: `chatgpt\s+wrapper`, Reason: "ChatGPT wrapper spam"},
			{Pattern: `passive\s+income`, Reason: "Passive income noise"},
			{Pattern: `course\s+selling`, Reason: "Course selling spam"},
			{Pattern: `no-code\s+builder`, Reason: "No-code builder spam"},
			{Pattern: `crypto\s+pump`, Reason: "Crypto pump spam"},
		},
		TrustedDomains:     []string{"github.com", "arxiv.org", "huggingface.co"},
		AuthorityNames:     []string{"karpathy", "lecun", "altman", "hassabis"},
		RelevanceKeywords:  []string{"rtx 4090", "gsoc", "optimization", "cuda", "agentic"},
		BaseScore:          5.0,
		DomainBonus:        2.0,
		CodeBonus:          1.5,
		AuthorityBonus:     2.0,
		KeywordBonus:       2.0,
		AdmissionThreshold: DefaultAdmissionThreshold,
		PrefilterThreshold: DefaultPrefilterThreshold,
	}
}

// Evaluation is the combined result of a garbage check and scoring pass.
type Evaluation struct {
	Passed bool
	Score  float64
	Reason string
}

// Guard filters garbage and calculates evidence-based quality scores.
type Guard struct {
	cfg       *Config
	blacklist []compiledRule
	codeRe    *regexp.Regexp
}

type compiledRule struct {
	re     *regexp.Regexp
	reason string
}

// Shell-prompt / drive-letter heuristic for terminal logs.
var codePattern = regexp.MustCompile(`\$\s+[a-z]+|>\s+[A-Z]:|[A-Z]:\\`)

// New creates a Guard from the given config. A nil config uses
// DefaultConfig. Returns an error if a blacklist pattern fails to
// compile.
func New(cfg *Config) (*Guard, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	compiled := make([]compiledRule, 0, len(cfg.Blacklist))
	for _, rule := range cfg.Blacklist {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compile blacklist pattern %q: %w", rule.Pattern, err)
		}
		compiled = append(compiled, compiledRule{re: re, reason: rule.Reason})
	}

	return &Guard{
		cfg:       cfg,
		blacklist: compiled,
		codeRe:    codePattern,
	}, nil
}

// IsGarbage reports whether the case-folded text matches any blacklist
// pattern. Pure function, no side effects.
func (g *Guard) IsGarbage(text string) bool {
	_, blocked := g.Match(text)
	return blocked
}

// Match returns the human-readable reason of the first matching
// blacklist rule, if any.
func (g *Guard) Match(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, rule := range g.blacklist {
		if rule.re.MatchString(lower) {
			return rule.reason, true
		}
	}
	return "", false
}

// Score calculates the evidence-based quality score for text.
//
// Starts from BaseScore and adds fixed bonuses, each awarded at most
// once regardless of how many triggers match:
//   - DomainBonus if any trusted domain substring appears
//   - CodeBonus if the text contains a code fence or terminal log
//   - AuthorityBonus if any authority name appears
//   - KeywordBonus if any relevance keyword appears
//
// The result is clamped to [0, 10]. Metadata is accepted for future
// bonus rules but currently unused.
func (g *Guard) Score(text string, metadata map[string]any) float64 {
	score := g.cfg.BaseScore
	lower := strings.ToLower(text)

	for _, domain := range g.cfg.TrustedDomains {
		if strings.Contains(lower, domain) {
			score += g.cfg.DomainBonus
			break // Only count once
		}
	}

	if strings.Contains(text, "```") || g.codeRe.MatchString(text) {
		score += g.cfg.CodeBonus
	}

	for _, name := range g.cfg.AuthorityNames {
		if strings.Contains(lower, name) {
			score += g.cfg.AuthorityBonus
			break // Only count once
		}
	}

	for _, keyword := range g.cfg.RelevanceKeywords {
		if strings.Contains(lower, keyword) {
			score += g.cfg.KeywordBonus
			break // Only count once
		}
	}

	if score > 10.0 {
		score = 10.0
	}
	if score < 0.0 {
		score = 0.0
	}
	return score
}

// Evaluate composes the garbage check and scoring pass.
// Garbage text fails with score 0; everything else passes with its
// evidence score.
func (g *Guard) Evaluate(text string, metadata map[string]any) Evaluation {
	if reason, blocked := g.Match(text); blocked {
		return Evaluation{
			Passed: false,
			Score:  0.0,
			Reason: "Blocked by blacklist: " + reason,
		}
	}

	score := g.Score(text, metadata)
	return Evaluation{
		Passed: true,
		Score:  score,
		Reason: fmt.Sprintf("Evidence score: %.1f/10", score),
	}
}

// Prefilter applies the loose pre-filter bar for upstream batch callers
// deciding whether a candidate is worth an expensive downstream call.
// Returns the evidence score and whether the candidate passed.
func (g *Guard) Prefilter(text string) (float64, bool) {
	if g.IsGarbage(text) {
		return 0.0, false
	}
	score := g.Score(text, nil)
	return score, score >= g.cfg.PrefilterThreshold
}

// AdmissionThreshold returns the configured strict admission bar.
func (g *Guard) AdmissionThreshold() float64 {
	return g.cfg.AdmissionThreshold
}
