package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsDotPattern(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"", ".", "..", "...", "........"} {
		assert.True(t, IsDotPattern(s), "IsDotPattern(%q)", s)
	}
	for _, s := range []string{"a", ".a", "a.", "..a..", " .", "/", ". ."} {
		assert.False(t, IsDotPattern(s), "IsDotPattern(%q)", s)
	}
}

func TestPathStackEvaluated(t *testing.T) {
	t.Parallel()

	cases := []struct {
		path string
		want Stack
	}{
		{"", Stack{}},
		{"/", Stack{"/"}},
		{"/foo/bar", Stack{"/", "foo", "bar"}},
		{"foo//bar/", Stack{"foo", "bar"}},
		{"/foo/bar/..../foobar", Stack{"..", "foobar"}},
		{"a/b/../c", Stack{"a", "c"}},
		{"....", Stack{"...."}},
		{"/a/./.", Stack{"/", "a"}},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, PathStack(tc.path, true), "PathStack(%q, true)", tc.path)
	}
}

func TestPathStackVerbatim(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Stack{"/", "foo", "..", "...", "bar"}, PathStack("/foo/../.../bar", false))
	assert.Equal(t, Stack{".", "a"}, PathStack("./a//", false))
	assert.Equal(t, Stack{"/"}, PathStack("///", false))
	assert.Equal(t, Stack{}, PathStack("", false))
}

func TestStackString(t *testing.T) {
	t.Parallel()

	cases := []struct {
		stack Stack
		want  string
	}{
		{nil, ""},
		{Stack{}, ""},
		{Stack{"/"}, "/"},
		{Stack{"/", "a"}, "/a"},
		{Stack{"/", "a", "b"}, "/a/b"},
		{Stack{"a"}, "a"},
		{Stack{"...", "a", "b"}, ".../a/b"},
		{Stack{"a", "b"}, "a/b"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.stack.String())
		assert.Equal(t, tc.want, StackString(tc.stack))
	}
}

func TestStackStringDoesNotConsume(t *testing.T) {
	t.Parallel()

	stack := Stack{"/", "foo", "bar"}
	first := stack.String()
	second := stack.String()

	assert.Equal(t, "/foo/bar", first)
	assert.Equal(t, first, second)
	assert.Equal(t, Stack{"/", "foo", "bar"}, stack)
}

func TestStackAscentAndAbsolute(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, Stack{}.Ascent())
	assert.Equal(t, 0, Stack{"/", "a"}.Ascent())
	assert.Equal(t, 1, Stack{"..", "a"}.Ascent())
	assert.Equal(t, 4, PathStack("/a/....../b", true).Ascent())

	assert.True(t, Stack{"/"}.IsAbsolute())
	assert.False(t, Stack{"..", "a"}.IsAbsolute())
	assert.False(t, PathStack("/..", true).IsAbsolute())
}

func TestStackCompatible(t *testing.T) {
	t.Parallel()

	original := Stack{"....", "x"}
	assert.Equal(t, Stack{"..", "..", "..", "x"}, original.Compatible())
	assert.Equal(t, Stack{"....", "x"}, original)

	assert.Equal(t, Stack{"/", "a"}, Stack{"/", "a"}.Compatible())
	assert.Empty(t, Stack{}.Compatible())
	assert.Equal(t, "x", Stack{"", "x"}.Compatible().String())
}
