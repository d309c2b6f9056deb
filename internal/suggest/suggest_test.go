package suggest_test

import (
	"testing"

	"github.com/termscribe/termscribe/internal/suggest"
	"github.com/termscribe/termscribe/internal/terms"
)

func testContexts(t *testing.T) []*terms.Context {
	t.Helper()
	store, err := terms.Build(terms.Document{
		Contexts: map[string]terms.ContextDoc{
			"alpha": {
				VoskHotwords: []string{"datagrid", "deployment"},
				Replacements: []terms.RuleDoc{
					{Wrong: "шалайзер", Correct: "initializer", Patterns: []string{"шалайзер"}, Priority: 1},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	ctx, err := store.Context("alpha")
	if err != nil {
		t.Fatalf("Context: %v", err)
	}
	return []*terms.Context{ctx}
}

func TestScan_FindsNearMiss(t *testing.T) {
	t.Parallel()
	s := suggest.New()

	got := s.Scan("the datagrit broke again", testContexts(t))
	if len(got) == 0 {
		t.Fatal("expected a suggestion for datagrit, got none")
	}
	if got[0].Token != "datagrit" || got[0].Term != "datagrid" {
		t.Errorf("suggestion = %+v, want datagrit -> datagrid", got[0])
	}
	if got[0].Context != "alpha" {
		t.Errorf("Context = %q, want alpha", got[0].Context)
	}
	if got[0].Score <= 0 || got[0].Score > 1 {
		t.Errorf("Score = %v, want (0, 1]", got[0].Score)
	}
}

func TestScan_ExactTermNotSuggested(t *testing.T) {
	t.Parallel()
	s := suggest.New()

	for _, sg := range s.Scan("the datagrid works", testContexts(t)) {
		if sg.Token == "datagrid" {
			t.Errorf("exact vocabulary hit must not be suggested: %+v", sg)
		}
	}
}

func TestScan_UnrelatedTokensIgnored(t *testing.T) {
	t.Parallel()
	s := suggest.New()

	if got := s.Scan("совершенно посторонний разговор", testContexts(t)); len(got) != 0 {
		t.Errorf("expected no suggestions, got %+v", got)
	}
}

func TestScan_ShortTokensSkipped(t *testing.T) {
	t.Parallel()
	s := suggest.New()

	if got := s.Scan("da it is", testContexts(t)); len(got) != 0 {
		t.Errorf("tokens under 3 runes must be skipped, got %+v", got)
	}
}

func TestScan_EmptyVocabulary(t *testing.T) {
	t.Parallel()
	s := suggest.New()

	if got := s.Scan("anything at all", nil); got != nil {
		t.Errorf("expected nil for empty vocabulary, got %+v", got)
	}
}

func TestScan_ThresholdOptions(t *testing.T) {
	t.Parallel()
	// With an impossible threshold nothing survives.
	s := suggest.New(
		suggest.WithPhoneticThreshold(1.01),
		suggest.WithFuzzyThreshold(1.01),
	)
	if got := s.Scan("the datagrit broke", testContexts(t)); len(got) != 0 {
		t.Errorf("expected no suggestions above threshold 1.01, got %+v", got)
	}
}
