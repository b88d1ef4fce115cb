package normalize_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klyr/dotpath/internal/normalize"
)

func ptr(s string) *string {
	return &s
}

func TestResolvePath(t *testing.T) {
	t.Parallel()

	cases := []struct {
		base, path, want string
	}{
		{"foo", "/bar", "/bar"},
		{"/foo", "bar", "/foo/bar"},
		{"/foo", "../bar", "/foo/../bar"},
		{"/foo/", "bar", "/foo/bar"},
		{"", "bar", "bar"},
		{"", "", ""},
		{"/foo", "", "/foo"},
		{"foo", "bar/...", "foo/bar/..."},
		{"/", "bar", "/bar"},
		{"foo//", "bar", "foo//bar"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, normalize.ResolvePath(tc.base, tc.path), "ResolvePath(%q, %q)", tc.base, tc.path)
	}
}

func TestResolvePathIdentities(t *testing.T) {
	t.Parallel()

	for _, p := range []string{"", "/", "a", "/a/b", "../x", "...", "a//b/"} {
		assert.Equal(t, p, normalize.ResolvePath(p, ""))
		assert.Equal(t, p, normalize.ResolvePath("", p))
	}
	for _, b := range []string{"", "x", "/x/y", "..."} {
		assert.Equal(t, "/abs/../p", normalize.ResolvePath(b, "/abs/../p"))
	}
}

func TestResolveStrict(t *testing.T) {
	t.Parallel()

	t.Run("both present", func(t *testing.T) {
		t.Parallel()
		got, err := normalize.ResolveStrict(ptr("/foo"), ptr("bar"))
		require.NoError(t, err)
		assert.Equal(t, "/foo/bar", got)
	})
	t.Run("empty strings are valid", func(t *testing.T) {
		t.Parallel()
		got, err := normalize.ResolveStrict(ptr(""), ptr(""))
		require.NoError(t, err)
		assert.Empty(t, got)
	})
	t.Run("nil base", func(t *testing.T) {
		t.Parallel()
		_, err := normalize.ResolveStrict(nil, ptr("bar"))
		require.ErrorIs(t, err, normalize.ErrInvalidArgument)
		assert.Contains(t, err.Error(), "basePath")
	})
	t.Run("nil path", func(t *testing.T) {
		t.Parallel()
		_, err := normalize.ResolveStrict(ptr("/foo"), nil)
		require.ErrorIs(t, err, normalize.ErrInvalidArgument)

		var argErr *normalize.ArgumentError
		require.ErrorAs(t, err, &argErr)
		assert.Equal(t, "path", argErr.Param)
		assert.Equal(t, normalize.OpResolve, argErr.Op)
	})
}

func TestEvaluatePath(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"/foo/bar/../foobar":   "/foo/foobar",
		"/foo/bar/..../foobar": "../foobar",
		"":                     "",
		"/":                    "/",
		"//":                   "/",
		".":                    "",
		"/.":                   "/",
		"a/./b":                "a/b",
		"a//b///c":             "a/b/c",
		"a/b/":                 "a/b",
		"a/..":                 "",
		"/a/..":                "/",
		"..":                   "..",
		"...":                  "...",
		"a/...":                "..",
		"a/b/c/...":            "a",
		"../..":                "...",
		"/..":                  "..",
		"/a/b/c/..../d":        "/d",
		"../a/../b":            "../b",
		"x/....../y":           "...../y",
		"foo.bar/..baz":        "foo.bar/..baz",
	}

	for input, want := range cases {
		assert.Equal(t, want, normalize.EvaluatePath(input), "EvaluatePath(%q)", input)
	}
}

func TestEvaluatePathIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"", "/", ".", "..", "...", "/..", "/...", "a/b/../../..", "/a/b/..../c",
		"x//y/./z/..", "../../a/b/...", "/a/b/c", "a/.../b/....../c", "....",
	}
	for _, p := range inputs {
		once := normalize.EvaluatePath(p)
		assert.Equal(t, once, normalize.EvaluatePath(once), "EvaluatePath not idempotent for %q", p)
	}
}

func TestEvaluatePathKeepsRootWithoutUnderflow(t *testing.T) {
	t.Parallel()

	for _, p := range []string{"/a", "/a/b/..", "/a/./b", "/a/b/c/...", "//a//"} {
		assert.True(t, strings.HasPrefix(normalize.EvaluatePath(p), "/"), "EvaluatePath(%q)", p)
	}
}

// Underflow on an absolute path discards the root marker.
func TestEvaluatePathUnderflowBeatsRoot(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "..", normalize.EvaluatePath("/.."))
	assert.Equal(t, "../x", normalize.EvaluatePath("/a/.../x"))
	assert.Equal(t, "..../y", normalize.EvaluatePath("/..../y"))
}

func TestAbsolutePath(t *testing.T) {
	t.Parallel()

	t.Run("ascent inside root", func(t *testing.T) {
		t.Parallel()
		got, ok := normalize.AbsolutePath("/foo/bar", "../foobar")
		require.True(t, ok)
		assert.Equal(t, "/foo/foobar", got)
	})
	t.Run("underflow past root", func(t *testing.T) {
		t.Parallel()
		got, ok := normalize.AbsolutePath("/foo/bar", "..../foobar")
		assert.False(t, ok)
		assert.Empty(t, got)
	})
	t.Run("relative base", func(t *testing.T) {
		t.Parallel()
		_, ok := normalize.AbsolutePath("bar", "foobar")
		assert.False(t, ok)
	})
	t.Run("absolute path ignores base", func(t *testing.T) {
		t.Parallel()
		got, ok := normalize.AbsolutePath("bar", "/x/./y")
		require.True(t, ok)
		assert.Equal(t, "/x/y", got)
	})
	t.Run("root", func(t *testing.T) {
		t.Parallel()
		got, ok := normalize.AbsolutePath("/foo", "..")
		require.True(t, ok)
		assert.Equal(t, "/", got)
	})
	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		_, ok := normalize.AbsolutePath("", "")
		assert.False(t, ok)
	})
}

func TestParentPath(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"/foo/bar": "/foo",
		"/foo":     "/",
		"/":        "..",
		"":         "..",
		"foo":      "",
		"foo/bar/": "foo",
		"..":       "...",
		"/a/./b/.": "/a",
	}
	for input, want := range cases {
		assert.Equal(t, want, normalize.ParentPath(input), "ParentPath(%q)", input)
		assert.Equal(t, normalize.EvaluatePath(normalize.ResolvePath(input, "..")), normalize.ParentPath(input))
	}
}

func TestCompatiblePath(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":                     "",
		"/":                    "/",
		"/foo/bar/..../foobar": "../foobar",
		"a/....":               "../..",
		"...":                  "../..",
		"..../x/y":             "../../../x/y",
		"/a/b":                 "/a/b",
		"a/./b/..":             "a",
		"/.../z":               "../../z",
	}
	for input, want := range cases {
		assert.Equal(t, want, normalize.CompatiblePath(input), "CompatiblePath(%q)", input)
	}
}

func TestCompatiblePathHasNoShorthand(t *testing.T) {
	t.Parallel()

	for _, p := range []string{"....../a", "a/b/c/......./d", "/x/.../y/....", "...../..."} {
		compatible := normalize.CompatiblePath(p)
		for _, segment := range strings.Split(compatible, "/") {
			if segment != "" && normalize.IsDotPattern(segment) {
				assert.LessOrEqual(t, len(segment), 2, "CompatiblePath(%q) = %q", p, compatible)
			}
		}
		// Re-evaluating the expanded form folds the ascents back together.
		assert.Equal(t, normalize.EvaluatePath(p), normalize.EvaluatePath(compatible))
	}
}
