package rules

import (
	"errors"

	"github.com/klyr/dotpath/internal/normalize"
)

// PrefixMatcher matches paths that start with one of its prefixes segment
// by segment, so "/etc" matches "/etc/passwd" but not "/etcetera". Prefixes
// are evaluated once up front; inputs are split as given.
type PrefixMatcher struct {
	prefixes []normalize.Stack
}

func NewPrefixMatcher(prefixes []string) (*PrefixMatcher, error) {
	if len(prefixes) == 0 {
		return nil, errors.New("prefixes are required")
	}

	m := &PrefixMatcher{prefixes: make([]normalize.Stack, 0, len(prefixes))}
	for _, prefix := range prefixes {
		stack := normalize.PathStack(prefix, true)
		if len(stack) == 0 {
			return nil, errors.New("prefix must not be empty")
		}
		m.prefixes = append(m.prefixes, stack)
	}
	return m, nil
}

func (m *PrefixMatcher) Match(input string) (bool, string) {
	stack := normalize.PathStack(input, false)
	for _, prefix := range m.prefixes {
		if hasPrefix(stack, prefix) {
			return true, snippet(prefix.String())
		}
	}
	return false, ""
}

func hasPrefix(stack, prefix normalize.Stack) bool {
	if len(prefix) > len(stack) {
		return false
	}
	for i, segment := range prefix {
		if stack[i] != segment {
			return false
		}
	}
	return true
}
