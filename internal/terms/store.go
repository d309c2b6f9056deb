package terms

import (
	"fmt"
	"sort"
)

// Document mirrors the on-disk JSON shape of one dictionary file.
type Document struct {
	Contexts map[string]ContextDoc `json:"contexts"`
	Metadata Metadata              `json:"metadata"`
}

// ContextDoc is the JSON form of one context.
type ContextDoc struct {
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	WhisperPrompt string    `json:"whisper_prompt"`
	VoskHotwords  []string  `json:"vosk_hotwords"`
	Replacements  []RuleDoc `json:"replacements"`
}

// RuleDoc is the JSON form of one replacement rule.
type RuleDoc struct {
	Wrong    string   `json:"wrong"`
	Correct  string   `json:"correct"`
	Patterns []string `json:"patterns"`
	Priority int      `json:"priority"`
	Comment  string   `json:"comment"`
}

// Metadata holds the informational trailer of a dictionary file.
type Metadata struct {
	TotalTerms int      `json:"total_terms"`
	Version    string   `json:"version"`
	Changelog  []string `json:"changelog"`
}

// Store owns the mapping from context name to [Context]. It is built once
// per run by [Build] and never mutated afterwards; updates happen by
// re-authoring the dictionary and rebuilding.
type Store struct {
	contexts map[string]*Context
}

// Build constructs a validated, fully compiled [Store] from one or more
// parsed dictionary documents. Contexts from later documents are added to
// the same store; a context name defined twice is a [*ConfigError], never a
// silent overwrite.
//
// All configuration errors surface here: missing required fields and
// self-matching rules as [*ConfigError], uncompilable patterns as
// [*PatternError]. A store that Build returns without error cannot fail for
// configuration reasons during correction.
func Build(docs ...Document) (*Store, error) {
	s := &Store{contexts: make(map[string]*Context)}

	for _, doc := range docs {
		if len(doc.Contexts) == 0 {
			return nil, &ConfigError{Reason: "dictionary defines no contexts"}
		}

		// Map iteration order is random; build deterministically by key.
		names := make([]string, 0, len(doc.Contexts))
		for name := range doc.Contexts {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			if _, dup := s.contexts[name]; dup {
				return nil, &ConfigError{Context: name, Reason: "context defined in more than one dictionary"}
			}
			ctx, err := buildContext(name, doc.Contexts[name])
			if err != nil {
				return nil, err
			}
			s.contexts[name] = ctx
		}
	}

	return s, nil
}

// buildContext validates and compiles one context.
func buildContext(name string, doc ContextDoc) (*Context, error) {
	if len(doc.Replacements) == 0 {
		return nil, &ConfigError{Context: name, Reason: "context has no replacement rules"}
	}

	ctx := &Context{
		Name:        name,
		Description: doc.Description,
		Prompt:      doc.WhisperPrompt,
		Hotwords:    doc.VoskHotwords,
		Rules:       make([]*Rule, 0, len(doc.Replacements)),
	}

	for i, rd := range doc.Replacements {
		rule := &Rule{
			Wrong:    rd.Wrong,
			Correct:  rd.Correct,
			Patterns: rd.Patterns,
			Priority: rd.Priority,
			Comment:  rd.Comment,
		}
		label := rule.Wrong
		if label == "" {
			label = fmt.Sprintf("replacements[%d]", i)
		}

		if rule.Correct == "" {
			return nil, &ConfigError{Context: name, Rule: label, Reason: "correct is required"}
		}
		if len(rule.Patterns) == 0 {
			return nil, &ConfigError{Context: name, Rule: label, Reason: "patterns must not be empty"}
		}
		if rule.Priority < PriorityCritical || rule.Priority > PriorityLow {
			return nil, &ConfigError{
				Context: name,
				Rule:    label,
				Reason:  fmt.Sprintf("priority %d is out of range [1, 3]", rule.Priority),
			}
		}

		if err := compileRule(name, rule); err != nil {
			return nil, err
		}

		// Idempotence invariant: the canonical value must never match the
		// rule's own patterns, or a second pass would rewrite its own output.
		for j, m := range rule.matchers {
			if m.Matches(rule.Correct) {
				return nil, &ConfigError{
					Context: name,
					Rule:    label,
					Reason: fmt.Sprintf("correct value %q matches own pattern %q, correction would not be idempotent",
						rule.Correct, rule.Patterns[j]),
				}
			}
		}

		ctx.Rules = append(ctx.Rules, rule)
	}

	return ctx, nil
}

// Context returns the context registered under name.
// Returns a [*NotFoundError] when the name is unknown.
func (s *Store) Context(name string) (*Context, error) {
	ctx, ok := s.contexts[name]
	if !ok {
		return nil, &NotFoundError{Context: name}
	}
	return ctx, nil
}

// Names returns all context names in sorted order.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.contexts))
	for name := range s.contexts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TotalRules returns the number of rules across all contexts.
func (s *Store) TotalRules() int {
	n := 0
	for _, ctx := range s.contexts {
		n += len(ctx.Rules)
	}
	return n
}
