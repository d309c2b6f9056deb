package terms

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// rawPatternChars are the regexp metacharacters whose presence marks a
// pattern as deliberately authored regex. Patterns without any of them are
// treated as literal words and matched with word boundaries.
const rawPatternChars = `[](){}*+?|^$\`

// IsRawPattern reports whether pattern should be compiled verbatim as a
// regular expression rather than as a word-bounded literal.
func IsRawPattern(pattern string) bool {
	return strings.ContainsAny(pattern, rawPatternChars)
}

// Matcher is one compiled pattern of a rule. Matching is always
// case-insensitive. For literal patterns the regexp carries no anchors —
// RE2's \b only understands ASCII word characters and never fires at
// Cyrillic word edges — so word boundaries are enforced by checking the
// runes adjacent to each candidate match instead.
type Matcher struct {
	re      *regexp.Regexp
	bounded bool
}

// compilePattern compiles one authored pattern string into a [Matcher].
func compilePattern(pattern string) (Matcher, error) {
	if IsRawPattern(pattern) {
		re, err := regexp.Compile("(?i)(?:" + pattern + ")")
		if err != nil {
			return Matcher{}, err
		}
		return Matcher{re: re}, nil
	}
	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(pattern))
	if err != nil {
		return Matcher{}, err
	}
	return Matcher{re: re, bounded: true}, nil
}

// compileRule compiles every pattern of rule in authored order and stores the
// result on the rule. ctxName is used for error reporting only.
func compileRule(ctxName string, rule *Rule) error {
	rule.matchers = make([]Matcher, 0, len(rule.Patterns))
	for _, pattern := range rule.Patterns {
		m, err := compilePattern(pattern)
		if err != nil {
			return &PatternError{
				Context: ctxName,
				Wrong:   rule.Wrong,
				Correct: rule.Correct,
				Pattern: pattern,
				Err:     err,
			}
		}
		rule.matchers = append(rule.matchers, m)
	}
	return nil
}

// Matches reports whether the matcher fires anywhere in text, honouring word
// boundaries for literal patterns.
func (m Matcher) Matches(text string) bool {
	if !m.bounded {
		return m.re.MatchString(text)
	}
	for _, loc := range m.re.FindAllStringIndex(text, -1) {
		if isWordBounded(text, loc[0], loc[1]) {
			return true
		}
	}
	return false
}

// Replace substitutes every non-overlapping match in text with canonical.
// The substitution is literal: canonical is inserted as-is, with no
// capture-group expansion.
func (m Matcher) Replace(text, canonical string) string {
	if !m.bounded {
		return m.re.ReplaceAllLiteralString(text, canonical)
	}

	locs := m.re.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, loc := range locs {
		start, end := loc[0], loc[1]
		if !isWordBounded(text, start, end) {
			continue
		}
		b.WriteString(text[last:start])
		b.WriteString(canonical)
		last = end
	}
	b.WriteString(text[last:])
	return b.String()
}

// isWordBounded reports whether the span [start, end) of text is not
// embedded inside a larger word.
func isWordBounded(text string, start, end int) bool {
	if r, size := utf8.DecodeLastRuneInString(text[:start]); size > 0 && isWordRune(r) {
		return false
	}
	if r, size := utf8.DecodeRuneInString(text[end:]); size > 0 && isWordRune(r) {
		return false
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
