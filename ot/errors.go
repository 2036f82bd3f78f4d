package ot

// Error taxonomy for font data problems.
//
// Per the error handling design, font data errors never propagate out of
// lookup application: a malformed subtable degrades to "rule does not
// match". The table parsers (ParseGDEF, ParseGSUB, ParseGPOS,
// CompilePattern) return no error either: a malformed table parses to an
// empty one. These sentinels come from Font.LoadTable implementations
// (internal/sfntfont) and from Reader, which records the first
// out-of-range read for Err().

import "errors"

var (
	// ErrInvalidFont is returned when the top-level font container is
	// not recognized (bad magic, truncated header).
	ErrInvalidFont = errors.New("ot: invalid font data")

	// ErrTruncatedTable is returned when a subtable's declared fields
	// reach past the end of the bytes backing it.
	ErrTruncatedTable = errors.New("ot: truncated table")

	// ErrUnsupportedFormat names a subtable format this engine does not
	// implement. Nothing in this module returns it: a subtable with an
	// unknown format simply does not match.
	ErrUnsupportedFormat = errors.New("ot: unsupported subtable format")

	// ErrOffsetOutOfRange is returned when an offset field points
	// outside the bounds of the table that contains it.
	ErrOffsetOutOfRange = errors.New("ot: offset out of range")

	// ErrTableNotFound is returned when a requested table tag is not
	// present in the font's table directory.
	ErrTableNotFound = errors.New("ot: table not present")
)
