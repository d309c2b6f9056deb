package terms

import "fmt"

// ConfigError reports a malformed or incomplete dictionary payload. It is
// fatal to store construction: callers must not proceed with a partially
// built store.
type ConfigError struct {
	// Context is the offending context name, when known.
	Context string

	// Rule is the offending rule's Wrong label, when the error concerns a
	// specific rule.
	Rule string

	// Reason describes what is wrong.
	Reason string
}

func (e *ConfigError) Error() string {
	switch {
	case e.Context != "" && e.Rule != "":
		return fmt.Sprintf("terms: context %q, rule %q: %s", e.Context, e.Rule, e.Reason)
	case e.Context != "":
		return fmt.Sprintf("terms: context %q: %s", e.Context, e.Reason)
	default:
		return "terms: " + e.Reason
	}
}

// NotFoundError reports a request for a context name the store does not hold.
// Recoverable: the caller may fall back to a default context or skip
// correction, but must not treat the lookup as a silent no-op.
type NotFoundError struct {
	Context string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("terms: context %q not found", e.Context)
}

// PatternError reports a rule pattern that failed to compile. It is fatal to
// building the store and carries the rule's labels so the operator can locate
// the entry in the dictionary file.
type PatternError struct {
	Context string
	Wrong   string
	Correct string
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("terms: context %q, rule %q→%q: pattern %q: %v",
		e.Context, e.Wrong, e.Correct, e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }
