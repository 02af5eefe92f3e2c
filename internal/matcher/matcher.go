// Package matcher filters integration names with glob or regex patterns.
package matcher

import (
	"path"
	"regexp"
	"strings"

	"github.com/agentstation/integrations/pkg/errors"
)

// PatternType is the syntax of a pattern.
type PatternType int

const (
	// Glob uses shell-style patterns (*, ?, []).
	Glob PatternType = iota
	// Regex uses regular expressions.
	Regex
	// Auto picks Glob or Regex from the pattern text.
	Auto
)

// String returns the pattern type name.
func (pt PatternType) String() string {
	switch pt {
	case Glob:
		return "glob"
	case Regex:
		return "regex"
	case Auto:
		return "auto"
	default:
		return "unknown"
	}
}

// Matcher reports whether a name matches a compiled pattern.
// Matching is case-insensitive.
type Matcher struct {
	pattern     string
	patternType PatternType
	glob        string
	re          *regexp.Regexp
}

// New compiles pattern. An empty pattern matches everything.
func New(patternType PatternType, pattern string) (*Matcher, error) {
	if patternType == Auto {
		patternType = detectPatternType(pattern)
	}
	m := &Matcher{pattern: pattern, patternType: patternType}

	switch patternType {
	case Glob:
		m.glob = strings.ToLower(pattern)
		if _, err := path.Match(m.glob, ""); err != nil {
			return nil, errors.NewValidationError("pattern", pattern, "invalid glob: "+err.Error())
		}
	case Regex:
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return nil, errors.NewValidationError("pattern", pattern, "invalid regex: "+err.Error())
		}
		m.re = re
	default:
		return nil, errors.NewValidationError("pattern", pattern, "unsupported pattern type "+patternType.String())
	}
	return m, nil
}

// Match reports whether name matches.
func (m *Matcher) Match(name string) bool {
	if m.pattern == "" {
		return true
	}
	if m.patternType == Regex {
		return m.re.MatchString(name)
	}
	ok, _ := path.Match(m.glob, strings.ToLower(name))
	return ok
}

// Pattern returns the pattern as given.
func (m *Matcher) Pattern() string {
	return m.pattern
}

// Type returns the resolved pattern type.
func (m *Matcher) Type() PatternType {
	return m.patternType
}

// Filter returns the items whose key matches, in order.
func Filter[T any](m *Matcher, items []T, key func(T) string) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if m.Match(key(item)) {
			out = append(out, item)
		}
	}
	return out
}

// detectPatternType treats a pattern as a regex when it carries a
// metacharacter glob does not use.
func detectPatternType(pattern string) PatternType {
	regexIndicators := []string{
		"^", "$", "\\d", "\\w", "\\s", "(?", "{", "}", "+", "|", "(", ")",
	}
	for _, indicator := range regexIndicators {
		if strings.Contains(pattern, indicator) {
			return Regex
		}
	}
	return Glob
}
