package rules

import "errors"

// AhoMatcher finds any of a fixed set of substrings in one pass. The
// automaton is fully expanded, so every input byte costs one table lookup.
type AhoMatcher struct {
	delta    [][256]int32
	out      []int32 // pattern index reported at each state, -1 for none
	patterns []string
}

func NewAhoMatcher(patterns []string) (*AhoMatcher, error) {
	if len(patterns) == 0 {
		return nil, errors.New("patterns are required")
	}

	m := &AhoMatcher{}
	m.addState()

	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		state := int32(0)
		for i := 0; i < len(pattern); i++ {
			next := m.delta[state][pattern[i]]
			if next <= 0 {
				next = m.addState()
				m.delta[state][pattern[i]] = next
			}
			state = next
		}
		if m.out[state] < 0 {
			m.out[state] = int32(len(m.patterns))
			m.patterns = append(m.patterns, pattern)
		}
	}

	if len(m.delta) == 1 {
		return nil, errors.New("no non-empty patterns")
	}

	m.link()
	return m, nil
}

func (m *AhoMatcher) addState() int32 {
	var row [256]int32
	m.delta = append(m.delta, row)
	m.out = append(m.out, -1)
	return int32(len(m.delta) - 1)
}

// link turns the trie into a DFA: missing edges follow the failure link,
// and every state inherits the output of its failure state.
func (m *AhoMatcher) link() {
	fail := make([]int32, len(m.delta))
	queue := make([]int32, 0, len(m.delta))

	for b := 0; b < 256; b++ {
		if next := m.delta[0][b]; next > 0 {
			fail[next] = 0
			queue = append(queue, next)
		}
	}

	for len(queue) > 0 {
		state := queue[0]
		queue = queue[1:]

		if m.out[state] < 0 {
			m.out[state] = m.out[fail[state]]
		}

		for b := 0; b < 256; b++ {
			next := m.delta[state][b]
			if next <= 0 {
				m.delta[state][b] = m.delta[fail[state]][b]
				continue
			}
			fail[next] = m.delta[fail[state]][b]
			queue = append(queue, next)
		}
	}
}

func (m *AhoMatcher) Match(input string) (bool, string) {
	state := int32(0)
	for i := 0; i < len(input); i++ {
		state = m.delta[state][input[i]]
		if idx := m.out[state]; idx >= 0 {
			return true, snippet(m.patterns[idx])
		}
	}
	return false, ""
}
