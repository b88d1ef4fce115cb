package normalize

import "strings"

const (
	Separator  = '/'
	RootMarker = "/"
)

// Stack is an ordered sequence of path segments. A leading RootMarker
// anchors the sequence at the root. After dot evaluation a leading
// dot-segment of length n records an ascent of n-1 levels past the start;
// the two never appear together.
type Stack []string

// IsDotPattern reports whether every byte of segment is a dot. The empty
// string qualifies.
func IsDotPattern(segment string) bool {
	for i := 0; i < len(segment); i++ {
		if segment[i] != '.' {
			return false
		}
	}
	return true
}

// PathStack splits path into its non-empty segments. With evaluateDots a
// dot-segment of length n removes the n-1 preceding segments, and removals
// that find nothing left are folded into one leading dot-segment, which
// takes precedence over the root marker.
func PathStack(path string, evaluateDots bool) Stack {
	absolute := strings.HasPrefix(path, RootMarker)
	stack := make(Stack, 0, strings.Count(path, RootMarker)+1)
	underflow := 0

	for _, segment := range strings.Split(path, RootMarker) {
		if segment == "" {
			continue
		}
		if !evaluateDots || !IsDotPattern(segment) {
			stack = append(stack, segment)
			continue
		}

		ascent := len(segment) - 1
		if ascent > len(stack) {
			underflow += ascent - len(stack)
			ascent = len(stack)
		}
		stack = stack[:len(stack)-ascent]
	}

	switch {
	case underflow > 0:
		return append(Stack{dotSegment(underflow)}, stack...)
	case absolute:
		return append(Stack{RootMarker}, stack...)
	default:
		return stack
	}
}

func dotSegment(ascent int) string {
	return strings.Repeat(".", ascent+1)
}

// String renders the stack as a path. The stack is read, never modified.
func (s Stack) String() string {
	if len(s) == 0 {
		return ""
	}
	if len(s) == 1 && s[0] == RootMarker {
		return RootMarker
	}

	size := len(s) - 1
	for _, segment := range s {
		size += len(segment)
	}

	var b strings.Builder
	b.Grow(size)
	if s[0] != RootMarker {
		b.WriteString(s[0])
	}
	for i := 1; i < len(s); i++ {
		b.WriteByte(Separator)
		b.WriteString(s[i])
	}
	return b.String()
}

// StackString renders s. It is the function form of Stack.String.
func StackString(s Stack) string {
	return s.String()
}

// Segments returns a copy of the elements, never nil.
func (s Stack) Segments() []string {
	return append(make([]string, 0, len(s)), s...)
}

func (s Stack) IsAbsolute() bool {
	return len(s) > 0 && s[0] == RootMarker
}

// Ascent returns the number of levels encoded by a leading dot-segment, or 0.
func (s Stack) Ascent() int {
	if len(s) == 0 || s[0] == "" || !IsDotPattern(s[0]) {
		return 0
	}
	return len(s[0]) - 1
}

// Compatible returns a copy of s with a leading dot-segment replaced by the
// equivalent run of ".." segments. A leading empty element counts as a
// dot-segment of no ascent and is dropped.
func (s Stack) Compatible() Stack {
	ascent := s.Ascent()
	if len(s) == 0 || !IsDotPattern(s[0]) {
		return append(Stack(nil), s...)
	}

	out := make(Stack, 0, ascent+len(s)-1)
	for i := 0; i < ascent; i++ {
		out = append(out, "..")
	}
	return append(out, s[1:]...)
}
