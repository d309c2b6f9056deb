package correct_test

import (
	"errors"
	"testing"

	"github.com/termscribe/termscribe/internal/correct"
	"github.com/termscribe/termscribe/internal/terms"
)

func buildStore(t *testing.T, docs ...terms.Document) *terms.Store {
	t.Helper()
	store, err := terms.Build(docs...)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return store
}

func meetingDoc() terms.Document {
	// Dictionaries enumerate the inflected forms a term is heard in.
	return terms.Document{
		Contexts: map[string]terms.ContextDoc{
			"alpha": {
				Replacements: []terms.RuleDoc{
					{Wrong: "шалайзер", Correct: "initializer", Patterns: []string{"шалайзер"}, Priority: 1},
					{Wrong: "симпигенератор", Correct: "CMP generator", Patterns: []string{"симпигенератор", "симпигенераторе"}, Priority: 1},
					{Wrong: "конфиг", Correct: "config", Patterns: []string{"конфиг", "конфига"}, Priority: 2},
					{Wrong: "датогрид", Correct: "datagrid", Patterns: []string{"датогрид", "датогрида"}, Priority: 2},
				},
			},
		},
	}
}

func TestApply_MeetingTranscript(t *testing.T) {
	t.Parallel()
	c := correct.New(buildStore(t, meetingDoc()))

	got, err := c.Apply("вот этот шалайзер в симпигенераторе создает конфиг для датогрида", []string{"alpha"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := "вот этот initializer в CMP generator создает config для datagrid"
	if got != want {
		t.Errorf("Apply = %q, want %q", got, want)
	}

	// Inflected forms no pattern covers stay untouched.
	got, err = c.Apply("из шалайзера", []string{"alpha"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got != "из шалайзера" {
		t.Errorf("uncovered inflection rewritten: got %q", got)
	}
}

func TestApply_Idempotent(t *testing.T) {
	t.Parallel()
	c := correct.New(buildStore(t, meetingDoc()))

	in := "шалайзер пишет конфиг"
	once, err := c.Apply(in, []string{"alpha"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	twice, err := c.Apply(once, []string{"alpha"})
	if err != nil {
		t.Fatalf("Apply (second pass): %v", err)
	}
	if once != twice {
		t.Errorf("second pass changed output: %q -> %q", once, twice)
	}
}

func TestApply_NoContextsReturnsUnchanged(t *testing.T) {
	t.Parallel()
	c := correct.New(buildStore(t, meetingDoc()))

	got, err := c.Apply("шалайзер как есть", nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got != "шалайзер как есть" {
		t.Errorf("Apply with no contexts = %q, want input unchanged", got)
	}
}

func TestApply_UnknownContext(t *testing.T) {
	t.Parallel()
	c := correct.New(buildStore(t, meetingDoc()))

	_, err := c.Apply("текст", []string{"alpha", "missing"})
	var nfErr *terms.NotFoundError
	if !errors.As(err, &nfErr) {
		t.Fatalf("expected *terms.NotFoundError, got %v", err)
	}
	if nfErr.Context != "missing" {
		t.Errorf("Context = %q, want %q", nfErr.Context, "missing")
	}
}

func TestApply_ContextOrderPrecedence(t *testing.T) {
	t.Parallel()
	// Both contexts claim the same pattern with different canonical values.
	store := buildStore(t, terms.Document{
		Contexts: map[string]terms.ContextDoc{
			"first": {
				Replacements: []terms.RuleDoc{
					{Wrong: "термин", Correct: "term-A", Patterns: []string{"термин"}, Priority: 1},
				},
			},
			"second": {
				Replacements: []terms.RuleDoc{
					{Wrong: "термин", Correct: "term-B", Patterns: []string{"термин"}, Priority: 1},
				},
			},
		},
	})
	c := correct.New(store)

	got, err := c.Apply("важный термин", []string{"first", "second"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	// "first" rewrites the word, "second" no longer sees its pattern. The
	// last context wins only when its pattern still matches the fed-forward
	// text; with disjoint canonicals the earlier rewrite sticks.
	if got != "важный term-A" {
		t.Errorf("Apply [first,second] = %q, want %q", got, "важный term-A")
	}

	got, err = c.Apply("важный термин", []string{"second", "first"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got != "важный term-B" {
		t.Errorf("Apply [second,first] = %q, want %q", got, "важный term-B")
	}
}

func TestApply_PriorityFilter(t *testing.T) {
	t.Parallel()
	store := buildStore(t, terms.Document{
		Contexts: map[string]terms.ContextDoc{
			"ctx": {
				Replacements: []terms.RuleDoc{
					{Wrong: "критично", Correct: "critical-term", Patterns: []string{"критично"}, Priority: 1},
					{Wrong: "обычно", Correct: "normal-term", Patterns: []string{"обычно"}, Priority: 2},
					{Wrong: "спорно", Correct: "low-term", Patterns: []string{"спорно"}, Priority: 3},
				},
			},
		},
	})
	c := correct.New(store)

	in := "критично обычно спорно"

	got, err := c.Apply(in, []string{"ctx"}, correct.WithPriorities(1))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got != "critical-term обычно спорно" {
		t.Errorf("priorities{1}: got %q", got)
	}

	got, err = c.Apply(in, []string{"ctx"}, correct.WithPriorities(1, 2))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got != "critical-term normal-term спорно" {
		t.Errorf("priorities{1,2}: got %q", got)
	}

	got, err = c.Apply(in, []string{"ctx"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got != "critical-term normal-term low-term" {
		t.Errorf("no filter: got %q", got)
	}
}

func TestMatches_ReportsWithoutRewriting(t *testing.T) {
	t.Parallel()
	store := buildStore(t, terms.Document{
		Contexts: map[string]terms.ContextDoc{
			"ctx": {
				Replacements: []terms.RuleDoc{
					{Wrong: "конфиг", Correct: "config", Patterns: []string{"конфиг"}, Priority: 2},
					{Wrong: "спорно", Correct: "low-term", Patterns: []string{"спорно"}, Priority: 3},
				},
			},
		},
	})
	c := correct.New(store)

	hits, err := c.Matches("конфиг и спорно", []string{"ctx"}, correct.WithPriorities(3))
	if err != nil {
		t.Fatalf("Matches: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("len(hits) = %d, want 1", len(hits))
	}
	if hits[0].Wrong != "спорно" || hits[0].Priority != 3 {
		t.Errorf("hit = %+v", hits[0])
	}

	hits, err = c.Matches("ничего общего", []string{"ctx"})
	if err != nil {
		t.Fatalf("Matches: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits, got %+v", hits)
	}
}
