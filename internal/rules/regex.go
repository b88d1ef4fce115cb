package rules

import (
	"fmt"
	"regexp"
)

// RegexMatcher reports the leftmost match of a pattern. Patterns that match
// the empty string are rejected since they would match every path.
type RegexMatcher struct {
	re *regexp.Regexp
}

func NewRegexMatcher(pattern string) (*RegexMatcher, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	if re.MatchString("") {
		return nil, fmt.Errorf("pattern %q matches the empty path", pattern)
	}
	return &RegexMatcher{re: re}, nil
}

func (m *RegexMatcher) Match(input string) (bool, string) {
	loc := m.re.FindStringIndex(input)
	if loc == nil {
		return false, ""
	}
	return true, snippet(input[loc[0]:loc[1]])
}

func (m *RegexMatcher) String() string {
	return m.re.String()
}
