package scene

import "strings"

// boundEpsilon pads spatial-query rectangles so axis-aligned geometry
// with zero extent along an axis still intersects them (rtreego
// rejects degenerate zero-volume rectangles outright).
const boundEpsilon float64 = 0.0001

// relativePath prepends the directory of original (the part up to its
// last path separator) onto other, so a scene file's own relative
// references resolve against the scene file's location rather than
// the process's working directory.
func relativePath(original, other string) string {
	return strings.Join([]string{
		strings.TrimRightFunc(original, func(ch rune) bool { return ch != '/' && ch != '\\' }),
		strings.TrimLeft(other, "/\\"),
	}, "")
}
