package normalize_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klyr/dotpath/internal/logging"
	"github.com/klyr/dotpath/internal/normalize"
)

func boolPtr(b bool) *bool {
	return &b
}

func TestParseOp(t *testing.T) {
	t.Parallel()

	for _, op := range normalize.Ops() {
		got, err := normalize.ParseOp(string(op))
		require.NoError(t, err)
		assert.Equal(t, op, got)
	}

	got, err := normalize.ParseOp(" Evaluate ")
	require.NoError(t, err)
	assert.Equal(t, normalize.OpEvaluate, got)

	_, err = normalize.ParseOp("clean")
	require.ErrorIs(t, err, normalize.ErrUnknownOp)
}

func TestApply(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		req  normalize.Request
		want normalize.Result
	}{
		{
			name: "resolve",
			req:  normalize.Request{Op: normalize.OpResolve, Base: ptr("/foo"), Path: ptr("../bar")},
			want: normalize.Result{Op: normalize.OpResolve, Input: "/foo/../bar", Output: "/foo/../bar"},
		},
		{
			name: "evaluate with underflow",
			req:  normalize.Request{Op: normalize.OpEvaluate, Path: ptr("/foo/bar/..../foobar")},
			want: normalize.Result{Op: normalize.OpEvaluate, Input: "/foo/bar/..../foobar", Output: "../foobar", Ascent: 1},
		},
		{
			name: "absolute",
			req:  normalize.Request{Op: normalize.OpAbsolute, Base: ptr("/foo/bar"), Path: ptr("../foobar")},
			want: normalize.Result{Op: normalize.OpAbsolute, Input: "/foo/bar/../foobar", Output: "/foo/foobar"},
		},
		{
			name: "absolute absent",
			req:  normalize.Request{Op: normalize.OpAbsolute, Base: ptr("/foo/bar"), Path: ptr("..../foobar")},
			want: normalize.Result{Op: normalize.OpAbsolute, Input: "/foo/bar/..../foobar", Absent: true, Ascent: 1},
		},
		{
			name: "parent of root",
			req:  normalize.Request{Op: normalize.OpParent, Path: ptr("/")},
			want: normalize.Result{Op: normalize.OpParent, Input: "/..", Output: "..", Ascent: 1},
		},
		{
			name: "compatible",
			req:  normalize.Request{Op: normalize.OpCompatible, Path: ptr("a/..../b")},
			want: normalize.Result{Op: normalize.OpCompatible, Input: "a/..../b", Output: "../../b", Ascent: 2},
		},
		{
			name: "stack evaluated by default",
			req:  normalize.Request{Op: normalize.OpStack, Path: ptr("/a/b/..")},
			want: normalize.Result{Op: normalize.OpStack, Input: "/a/b/..", Output: "/a", Segments: []string{"/", "a"}},
		},
		{
			name: "stack verbatim",
			req:  normalize.Request{Op: normalize.OpStack, Path: ptr("/a/b/.."), EvaluateDots: boolPtr(false)},
			want: normalize.Result{Op: normalize.OpStack, Input: "/a/b/..", Output: "/a/b/..", Segments: []string{"/", "a", "b", ".."}},
		},
		{
			name: "stack verbatim does not ascend",
			req:  normalize.Request{Op: normalize.OpStack, Path: ptr("../a"), EvaluateDots: boolPtr(false)},
			want: normalize.Result{Op: normalize.OpStack, Input: "../a", Output: "../a", Segments: []string{"..", "a"}},
		},
		{
			name: "stack evaluated ascends",
			req:  normalize.Request{Op: normalize.OpStack, Path: ptr("../a")},
			want: normalize.Result{Op: normalize.OpStack, Input: "../a", Output: "../a", Segments: []string{"..", "a"}, Ascent: 1},
		},
		{
			name: "dot pattern",
			req:  normalize.Request{Op: normalize.OpDotPattern, Path: ptr("...")},
			want: normalize.Result{Op: normalize.OpDotPattern, Input: "...", Output: "true", DotPattern: true},
		},
		{
			name: "dot pattern segment wins",
			req:  normalize.Request{Op: normalize.OpDotPattern, Path: ptr("..."), Segment: ptr("a.")},
			want: normalize.Result{Op: normalize.OpDotPattern, Input: "a.", Output: "false"},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := normalize.Apply(tc.req)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestApplyErrors(t *testing.T) {
	t.Parallel()

	t.Run("missing base", func(t *testing.T) {
		t.Parallel()
		_, err := normalize.Apply(normalize.Request{Op: normalize.OpAbsolute, Path: ptr("x")})
		require.ErrorIs(t, err, normalize.ErrInvalidArgument)
	})
	t.Run("missing path", func(t *testing.T) {
		t.Parallel()
		_, err := normalize.Apply(normalize.Request{Op: normalize.OpEvaluate})
		require.ErrorIs(t, err, normalize.ErrInvalidArgument)
	})
	t.Run("empty path is valid", func(t *testing.T) {
		t.Parallel()
		res, err := normalize.Apply(normalize.Request{Op: normalize.OpParent, Path: ptr("")})
		require.NoError(t, err)
		assert.Equal(t, "..", res.Output)
	})
	t.Run("unknown op", func(t *testing.T) {
		t.Parallel()
		_, err := normalize.Apply(normalize.Request{Op: "clean", Path: ptr("x")})
		require.ErrorIs(t, err, normalize.ErrUnknownOp)
	})
	t.Run("unknown op without operands", func(t *testing.T) {
		t.Parallel()
		_, err := normalize.Apply(normalize.Request{Op: "clean"})
		require.ErrorIs(t, err, normalize.ErrUnknownOp)
	})
}

//nolint:paralleltest // mutates the process-wide diagnostic logger
func TestDiagnosticsDoNotChangeResults(t *testing.T) {
	var buf bytes.Buffer
	logging.SetDiagnosticsOutput(&buf)
	require.NoError(t, logging.ConfigureDiagnostics("debug", "logfmt"))
	t.Cleanup(func() {
		_ = logging.ConfigureDiagnostics("warn", "text")
		logging.SetDiagnosticsOutput(nil)
	})

	got, ok := normalize.AbsolutePath("bar", "foobar")
	assert.False(t, ok)
	assert.Empty(t, got)
	assert.Contains(t, buf.String(), "evaluated path is not absolute")
	assert.Contains(t, buf.String(), "component=normalize")
}
