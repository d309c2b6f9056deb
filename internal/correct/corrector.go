// Package correct implements the terminology correction engine: sequential,
// order-aware application of one or more contexts' compiled rules to a block
// of transcribed text.
//
// The engine is deliberately dumb. It performs no disambiguation and no
// scoring — every decision was already made when the dictionary was authored
// and validated. Apply is a pure function of its inputs: the same text, the
// same context order, and the same priority filter always produce the same
// output, and a [Corrector] holds no mutable state, so one instance may serve
// any number of goroutines.
package correct

import (
	"fmt"

	"github.com/termscribe/termscribe/internal/terms"
)

// CorrectionError reports a matcher fault during application. The run's text
// stays uncorrected; the error names the offending rule so the operator can
// fix the dictionary. It aborts one correction pass, never the whole batch.
type CorrectionError struct {
	Context string
	Wrong   string
	Correct string
	Err     error
}

func (e *CorrectionError) Error() string {
	return fmt.Sprintf("correct: context %q, rule %q→%q: %v", e.Context, e.Wrong, e.Correct, e.Err)
}

func (e *CorrectionError) Unwrap() error { return e.Err }

// ApplyOption is a per-call option for [Corrector.Apply] and
// [Corrector.Matches].
type ApplyOption func(*applyOptions)

type applyOptions struct {
	priorities map[int]bool
}

// WithPriorities restricts application to rules whose priority is in the
// given set. Without this option every rule applies regardless of tier.
func WithPriorities(priorities ...int) ApplyOption {
	return func(o *applyOptions) {
		o.priorities = make(map[int]bool, len(priorities))
		for _, p := range priorities {
			o.priorities[p] = true
		}
	}
}

// Match is one rule hit reported by [Corrector.Matches].
type Match struct {
	// Context is the context the rule belongs to.
	Context string

	// Wrong and Correct are the rule's labels.
	Wrong   string
	Correct string

	// Priority is the rule's tier.
	Priority int
}

// Corrector applies a store's rules to text. It is immutable and safe for
// concurrent use.
type Corrector struct {
	store *terms.Store
}

// New returns a [Corrector] over an already-built store. The store carries
// fully compiled and validated rules, so construction cannot fail.
func New(store *terms.Store) *Corrector {
	return &Corrector{store: store}
}

// Apply rewrites text with the rules of the named contexts, in the exact
// order given. Within a context, rules run in authored order and each rule's
// patterns in pattern order; every replacement feeds the rewritten text
// forward to the next matcher, so later rules see earlier rules' output.
// When contexts define colliding patterns, the last-applied context wins.
//
// An unknown context name is a [*terms.NotFoundError] — a requested context
// is never silently skipped. An empty contexts slice returns text unchanged.
// A matcher fault is a [*CorrectionError]; the caller may fall back to the
// uncorrected input.
func (c *Corrector) Apply(text string, contexts []string, opts ...ApplyOption) (out string, err error) {
	var o applyOptions
	for _, opt := range opts {
		opt(&o)
	}

	resolved, err := c.resolve(contexts)
	if err != nil {
		return "", err
	}

	out = text
	for _, ctx := range resolved {
		for _, rule := range ctx.Rules {
			if o.priorities != nil && !o.priorities[rule.Priority] {
				continue
			}
			if out, err = applyRule(ctx.Name, rule, out); err != nil {
				return "", err
			}
		}
	}
	return out, nil
}

// Matches reports which rules of the named contexts would fire on text,
// without rewriting anything. Unlike [Corrector.Apply] each rule is tested
// against the original text, so hits do not shadow each other. Used to
// surface low-priority candidates that must not be applied automatically.
func (c *Corrector) Matches(text string, contexts []string, opts ...ApplyOption) ([]Match, error) {
	var o applyOptions
	for _, opt := range opts {
		opt(&o)
	}

	resolved, err := c.resolve(contexts)
	if err != nil {
		return nil, err
	}

	var hits []Match
	for _, ctx := range resolved {
		for _, rule := range ctx.Rules {
			if o.priorities != nil && !o.priorities[rule.Priority] {
				continue
			}
			for _, m := range rule.Matchers() {
				if m.Matches(text) {
					hits = append(hits, Match{
						Context:  ctx.Name,
						Wrong:    rule.Wrong,
						Correct:  rule.Correct,
						Priority: rule.Priority,
					})
					break
				}
			}
		}
	}
	return hits, nil
}

// resolve looks up every requested context, preserving caller order.
func (c *Corrector) resolve(names []string) ([]*terms.Context, error) {
	resolved := make([]*terms.Context, 0, len(names))
	for _, name := range names {
		ctx, err := c.store.Context(name)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, ctx)
	}
	return resolved, nil
}

// applyRule runs every matcher of rule over text, feeding the result forward.
// A panic inside the regexp engine is converted into a [*CorrectionError] so
// a single pathological rule cannot take down the surrounding pipeline.
func applyRule(ctxName string, rule *terms.Rule, text string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &CorrectionError{
				Context: ctxName,
				Wrong:   rule.Wrong,
				Correct: rule.Correct,
				Err:     fmt.Errorf("matcher panic: %v", r),
			}
		}
	}()

	out = text
	for _, m := range rule.Matchers() {
		out = m.Replace(out, rule.Correct)
	}
	return out, nil
}
