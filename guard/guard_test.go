package guard_test

import (
	"strings"
	"testing"

	"github.com/trinitylabs/archivarius/guard"
)

func mustNew(t *testing.T, cfg *guard.Config) *guard.Guard {
	t.Helper()
	g, err := guard.New(cfg)
	if err != nil {
		t.Fatalf("Failed to create guard: %v", err)
	}
	return g
}

func TestGuard_Blacklist(t *testing.T) {
	g := mustNew(t, nil)

	spam := []string{
		"This chatgpt wrapper will make you rich!",
		"Learn passive income with my system",
		"Use this no-code builder for apps",
		"Get into this crypto pump before it moons",
		"CHATGPT   WRAPPER in caps with extra spaces",
	}
	for _, sample := range spam {
		if !g.IsGarbage(sample) {
			t.Errorf("Expected garbage: %q", sample)
		}
	}

	clean := []string{
		"CUDA kernel optimization notes",
		"",
		"An article about income tax",
	}
	for _, sample := range clean {
		if g.IsGarbage(sample) {
			t.Errorf("Expected clean: %q", sample)
		}
	}
}

func TestGuard_MatchReason(t *testing.T) {
	g := mustNew(t, nil)

	reason, blocked := g.Match("buy my crypto pump signals")
	if !blocked {
		t.Fatal("Expected blacklist match")
	}
	if reason != "Crypto pump spam" {
		t.Errorf("Expected reason %q, got %q", "Crypto pump spam", reason)
	}
}

func TestGuard_ScoreDeterministic(t *testing.T) {
	g := mustNew(t, nil)

	text := "CUDA guide on github.com by karpathy"
	first := g.Score(text, nil)
	second := g.Score(text, nil)
	if first != second {
		t.Errorf("Score not deterministic: %v vs %v", first, second)
	}
}

func TestGuard_ScoreCases(t *testing.T) {
	g := mustNew(t, nil)

	cases := []struct {
		text string
		want float64
	}{
		// Base only.
		{"Random text about cooking recipes", 5.0},
		// Domain + authority.
		{"arxiv.org paper by LeCun", 9.0},
		// Two trusted domains still award the domain bonus once.
		{"See github.com and arxiv.org", 7.0},
		// Code fence.
		{"Snippet: ```python\nprint(1)\n```", 6.5},
		// Terminal log heuristic.
		{"Run this: $ make build", 6.5},
		// Empty input treated as empty string.
		{"", 5.0},
	}

	for _, tc := range cases {
		got := g.Score(tc.text, nil)
		if got != tc.want {
			t.Errorf("Score(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestGuard_ScoreClamped(t *testing.T) {
	g := mustNew(t, nil)

	// Every bonus category triggers: 5.0 + 2.0 + 1.5 + 2.0 + 2.0 = 12.5,
	// clamped to 10.0.
	text := "github.com and arxiv.org post by karpathy on cuda ```go\ncode\n```"
	got := g.Score(text, nil)
	if got != 10.0 {
		t.Errorf("Expected clamp to 10.0, got %v", got)
	}
}

func TestGuard_Evaluate(t *testing.T) {
	g := mustNew(t, nil)

	eval := g.Evaluate("passive income no-code builder", nil)
	if eval.Passed {
		t.Error("Expected garbage to fail evaluation")
	}
	if eval.Score != 0.0 {
		t.Errorf("Expected score 0 for garbage, got %v", eval.Score)
	}
	if !strings.Contains(eval.Reason, "blacklist") {
		t.Errorf("Expected blacklist reason, got %q", eval.Reason)
	}

	eval = g.Evaluate("CUDA optimization guide on github.com", nil)
	if !eval.Passed {
		t.Error("Expected clean text to pass evaluation")
	}
	if eval.Score != 9.0 {
		t.Errorf("Expected score 9.0, got %v", eval.Score)
	}
}

func TestGuard_Prefilter(t *testing.T) {
	g := mustNew(t, nil)

	if score, ok := g.Prefilter("this chatgpt wrapper earns money"); ok || score != 0.0 {
		t.Errorf("Expected garbage to fail prefilter, got (%v, %v)", score, ok)
	}

	// Plain text sits at the base score, above the loose bar but below
	// the strict admission bar.
	score, ok := g.Prefilter("Plain forum post about keyboards")
	if !ok {
		t.Error("Expected plain text to pass prefilter")
	}
	if score >= g.AdmissionThreshold() {
		t.Errorf("Prefilter pass should not imply admission: score %v", score)
	}
}

func TestGuard_PrefilterThresholdConfigurable(t *testing.T) {
	cfg := guard.DefaultConfig()
	cfg.BaseScore = 3.0
	g := mustNew(t, cfg)

	if score, ok := g.Prefilter("Plain forum post about keyboards"); ok {
		t.Errorf("Expected score %v below prefilter bar to fail", score)
	}
}

func TestGuard_CustomVocabulary(t *testing.T) {
	cfg := guard.DefaultConfig()
	cfg.Blacklist = []guard.Rule{{Pattern: `lottery\s+tickets`, Reason: "Lottery spam"}}
	cfg.TrustedDomains = []string{"pkg.go.dev"}
	g := mustNew(t, cfg)

	if !g.IsGarbage("cheap lottery tickets here") {
		t.Error("Expected custom blacklist to match")
	}
	if g.IsGarbage("passive income") {
		t.Error("Default blacklist should not apply with custom config")
	}
	if got := g.Score("see pkg.go.dev/context", nil); got != 7.0 {
		t.Errorf("Expected custom domain bonus, got %v", got)
	}
}

func TestGuard_InvalidPattern(t *testing.T) {
	cfg := guard.DefaultConfig()
	cfg.Blacklist = append(cfg.Blacklist, guard.Rule{Pattern: `[`, Reason: "broken"})

	if _, err := guard.New(cfg); err == nil {
		t.Error("Expected error for invalid blacklist pattern")
	}
}
