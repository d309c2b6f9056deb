// Package terms implements the terminology dictionary behind the correction
// engine: named contexts, each holding replacement rules, a decoding hint,
// and a hotword list.
//
// Raw ASR output is rarely right for domain vocabulary — product names,
// framework terms, and transliterated jargon are frequently misheard (a
// Russian-language meeting about an "initializer" tends to come back as
// "шалайзер"). Each [Rule] maps the known misrecognition patterns of one term
// to its canonical spelling; a [Context] groups the rules for one project or
// topic so several dictionaries can coexist and be composed per document.
//
// A [Store] is built once per run from parsed [Document] payloads and is
// immutable afterwards. All validation — required fields, priority range,
// pattern compilation, the self-match invariant — happens eagerly in [Build]:
// once a Store exists, applying its rules cannot fail for configuration
// reasons. The Store is safe for concurrent readers.
package terms

// Priority tiers. Tier 1 rules are always safe to apply automatically; tier 3
// rules are candidates that must never be applied without review.
const (
	PriorityCritical = 1
	PriorityNormal   = 2
	PriorityLow      = 3
)

// Rule maps the misrecognition patterns of one term to a single canonical
// replacement string.
type Rule struct {
	// Wrong is a display label for the misrecognition. Informational only.
	Wrong string

	// Correct is the canonical replacement string.
	Correct string

	// Patterns holds the authored match patterns, in authored order. Each is
	// either a literal word (matched case-insensitively with word boundaries)
	// or a raw regular expression (matched as authored). See [IsRawPattern].
	Patterns []string

	// Priority is the rule's tier, [PriorityCritical] through [PriorityLow].
	Priority int

	// Comment is a free-text rationale. Informational only.
	Comment string

	// matchers are the compiled patterns, in pattern order. Populated by
	// [Build]; one matcher per entry in Patterns.
	matchers []Matcher
}

// Matchers returns the rule's compiled matchers in pattern order. The slice
// must not be modified.
func (r *Rule) Matchers() []Matcher { return r.matchers }

// Context is a named, independently loadable group of terminology rules
// scoped to a project or topic.
type Context struct {
	// Name is the context's unique key within a [Store].
	Name string

	// Description is informational.
	Description string

	// Prompt is the hint string handed to engines that accept a decoding-time
	// prompt (the dictionary's "whisper_prompt" field).
	Prompt string

	// Hotwords is the ordered bias-term list for engines that accept
	// word-level biasing (the dictionary's "vosk_hotwords" field).
	Hotwords []string

	// Rules holds the context's replacement rules in authored order.
	Rules []*Rule
}
