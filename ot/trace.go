package ot

import "github.com/npillmayer/schuko/tracing"

// tracer returns the package's trace sink, selected by key "ot.shaper"
// so callers can route it independently of other schuko-based
// components sharing the same process (gologadapter in cmd/otshape,
// gotestingadapter in tests).
func tracer() tracing.Trace {
	return tracing.Select("ot.shaper")
}
