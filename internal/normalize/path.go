package normalize

import "github.com/klyr/dotpath/internal/logging"

// ResolvePath appends path to basePath unless path is absolute. An empty
// path is relative. Dot-segments are left as they are; use EvaluatePath to
// collapse them.
//
//	ResolvePath("foo", "/bar")    == "/bar"
//	ResolvePath("/foo", "bar")    == "/foo/bar"
//	ResolvePath("/foo", "../bar") == "/foo/../bar"
func ResolvePath(basePath, path string) string {
	switch {
	case basePath == "":
		return path
	case path == "":
		return basePath
	case path[0] == Separator:
		return path
	case basePath[len(basePath)-1] == Separator:
		return basePath + path
	default:
		return basePath + RootMarker + path
	}
}

// ResolveStrict is ResolvePath for operands that may be missing. A nil
// operand yields an error matching ErrInvalidArgument.
func ResolveStrict(basePath, path *string) (string, error) {
	if basePath == nil {
		return "", invalidArgument(OpResolve, "basePath")
	}
	if path == nil {
		return "", invalidArgument(OpResolve, "path")
	}
	return ResolvePath(*basePath, *path), nil
}

// EvaluatePath collapses the dot-segments of path. The result holds at most
// one dot-segment, as its first element:
//
//	EvaluatePath("/foo/bar/../foobar")   == "/foo/foobar"
//	EvaluatePath("/foo/bar/..../foobar") == "../foobar"
func EvaluatePath(path string) string {
	return PathStack(path, true).String()
}

// AbsolutePath evaluates path against basePath and reports whether the
// outcome is absolute. It is not when basePath is relative or when the
// ascents run past the root.
func AbsolutePath(basePath, path string) (string, bool) {
	return absolute(PathStack(ResolvePath(basePath, path), true), basePath, path)
}

func absolute(stack Stack, basePath, path string) (string, bool) {
	result := stack.String()
	if result == "" || result[0] != Separator {
		logging.Diagnostics().Debug("evaluated path is not absolute",
			"component", "normalize", "result", result, "base", basePath, "path", path)
		return "", false
	}
	return result, true
}

// ParentPath is EvaluatePath(ResolvePath(path, "..")). At or above the
// root the result is a dot-segment.
func ParentPath(path string) string {
	return EvaluatePath(ResolvePath(path, ".."))
}

// CompatiblePath evaluates path and spells a leading ascent out as repeated
// ".." segments, e.g. "a/...." becomes "../..".
func CompatiblePath(path string) string {
	return PathStack(path, true).Compatible().String()
}
