// Package normalize evaluates slash-separated paths as plain strings.
//
// Besides "." and "..", a segment made of n dots ascends n-1 levels, so
// "a/b/c/..." is "a" and "..." written on its own is shorthand for "../..".
// Evaluation never clamps at the root: ascents that run out of segments are
// kept as a single leading dot-segment, and that segment replaces the root
// marker of an absolute input.
//
// Nothing here touches the filesystem, and only '/' separates segments.
package normalize
