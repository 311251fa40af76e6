package source

import (
	"strconv"

	"fortio.org/safecast"
)

// UnknownLine is rendered in place of a line number when the call site
// carries no debug location.
const UnknownLine = "unknown"

// Line is a 1-based source line. Zero means the line is unknown.
type Line uint32

// Known reports whether the line came from debug metadata.
func (l Line) Known() bool {
	return l != 0
}

func (l Line) String() string {
	if l == 0 {
		return UnknownLine
	}
	return strconv.FormatUint(uint64(l), 10)
}

// LineFromInt64 converts a metadata line number. Negative or oversized values
// collapse to the unknown line instead of failing the analysis.
func LineFromInt64(v int64) Line {
	if v <= 0 {
		return 0
	}
	n, err := safecast.Conv[uint32](v)
	if err != nil {
		return 0
	}
	return Line(n)
}
