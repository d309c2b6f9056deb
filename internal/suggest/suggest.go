// Package suggest scans corrected transcripts for tokens that sound like a
// known domain term but are covered by no dictionary rule, and proposes new
// rule candidates for the operator to review.
//
// Candidate selection is two-staged: Double Metaphone codes filter for
// phonetic overlap, Jaro-Winkler similarity ranks the survivors. Suggestions
// are report-only — the correction pass itself stays purely rule-based, and
// nothing here ever rewrites text.
package suggest

import (
	"sort"
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"

	"github.com/termscribe/termscribe/internal/terms"
)

const (
	defaultPhoneticThreshold = 0.70
	defaultFuzzyThreshold    = 0.88
)

// Option is a functional option for configuring a [Scanner].
type Option func(*Scanner)

// WithPhoneticThreshold sets the minimum Jaro-Winkler score required for a
// phonetically overlapping term to be suggested. Default: 0.70.
func WithPhoneticThreshold(threshold float64) Option {
	return func(s *Scanner) { s.phoneticThreshold = threshold }
}

// WithFuzzyThreshold sets the minimum Jaro-Winkler score required when no
// phonetic overlap exists. Default: 0.88.
func WithFuzzyThreshold(threshold float64) Option {
	return func(s *Scanner) { s.fuzzyThreshold = threshold }
}

// Suggestion proposes one new dictionary rule: Token was heard, Term is the
// vocabulary entry it resembles.
type Suggestion struct {
	// Token is the transcript token that resembles a known term.
	Token string

	// Term is the matching vocabulary entry (a hotword or a canonical value).
	Term string

	// Context is the context the term came from.
	Context string

	// Score is the Jaro-Winkler similarity in [0, 1].
	Score float64
}

// Scanner compares transcript tokens against context vocabularies. It is
// read-only after construction and safe for concurrent use.
type Scanner struct {
	phoneticThreshold float64
	fuzzyThreshold    float64
}

// New returns a [Scanner] configured with the supplied options.
func New(opts ...Option) *Scanner {
	s := &Scanner{
		phoneticThreshold: defaultPhoneticThreshold,
		fuzzyThreshold:    defaultFuzzyThreshold,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// vocabEntry is one known term with its precomputed phonetic codes.
type vocabEntry struct {
	term    string
	context string
	codes   map[string]struct{}
}

// Scan tokenises text and returns suggestions for tokens that resemble a
// context vocabulary entry without equalling one. The vocabulary of a
// context is its hotword list plus every rule's canonical value. At most one
// suggestion (the best-scoring) is returned per distinct token.
func (s *Scanner) Scan(text string, contexts []*terms.Context) []Suggestion {
	vocab := buildVocabulary(contexts)
	if len(vocab) == 0 {
		return nil
	}

	known := make(map[string]struct{}, len(vocab))
	for _, v := range vocab {
		known[strings.ToLower(v.term)] = struct{}{}
	}

	best := make(map[string]Suggestion)
	for _, raw := range strings.Fields(text) {
		token := strings.TrimFunc(raw, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if len([]rune(token)) < 3 {
			continue
		}
		lower := strings.ToLower(token)
		if _, ok := known[lower]; ok {
			continue
		}
		if prev, seen := best[lower]; seen && prev.Score > 0 {
			continue
		}

		tokenCodes := phoneticCodes(lower)
		var top Suggestion
		for _, v := range vocab {
			score := matchr.JaroWinkler(lower, strings.ToLower(v.term), false)
			threshold := s.fuzzyThreshold
			if codesOverlap(tokenCodes, v.codes) {
				threshold = s.phoneticThreshold
			}
			if score >= threshold && score > top.Score {
				top = Suggestion{Token: token, Term: v.term, Context: v.context, Score: score}
			}
		}
		if top.Term != "" {
			best[lower] = top
		}
	}

	out := make([]Suggestion, 0, len(best))
	for _, sg := range best {
		out = append(out, sg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Token < out[j].Token
	})
	return out
}

// buildVocabulary collects hotwords and canonical values from contexts with
// precomputed phonetic codes, deduplicated case-insensitively.
func buildVocabulary(contexts []*terms.Context) []vocabEntry {
	seen := make(map[string]struct{})
	var vocab []vocabEntry

	add := func(term, ctxName string) {
		key := strings.ToLower(strings.TrimSpace(term))
		if key == "" {
			return
		}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		vocab = append(vocab, vocabEntry{term: term, context: ctxName, codes: phoneticCodes(key)})
	}

	for _, ctx := range contexts {
		for _, hw := range ctx.Hotwords {
			add(hw, ctx.Name)
		}
		for _, rule := range ctx.Rules {
			add(rule.Correct, ctx.Name)
		}
	}
	return vocab
}

// phoneticCodes returns the Double Metaphone codes of word. The empty set is
// returned for words the encoder cannot handle (e.g. pure Cyrillic input);
// such words fall back to the fuzzy threshold.
func phoneticCodes(word string) map[string]struct{} {
	codes := make(map[string]struct{}, 2)
	p, s := matchr.DoubleMetaphone(word)
	if p != "" {
		codes[p] = struct{}{}
	}
	if s != "" {
		codes[s] = struct{}{}
	}
	return codes
}

// codesOverlap reports whether the two code sets share at least one code.
func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}
