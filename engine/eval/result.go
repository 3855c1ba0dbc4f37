package eval

import (
	"github.com/fatesmith/fatesmith/engine/vars"
)

// Options controls one evaluation call.
type Options struct {
	// EnableTrace builds the execution trace tree. Without it only text and
	// segments are produced.
	EnableTrace bool
	// Shared pre-memoizes shared variable values, overriding lazy
	// evaluation for the named variables.
	Shared map[string]string
	// Seed fixes the random source for reproducible output. When nil a
	// high-entropy seed is generated and reported on the result.
	Seed *int64
}

// Segment maps one stretch of the source pattern to its evaluated output,
// letting callers re-project results onto source character offsets. Literal
// stretches appear as non-expression segments, so concatenating every
// segment's Text in order reproduces the full output string.
type Segment struct {
	Start      int    `json:"start"`
	End        int    `json:"end"`
	Raw        string `json:"raw"`
	Text       string `json:"text"`
	Expression bool   `json:"expression"`
}

// Result is the outcome of one generation run. On failure Err is set, Text
// is empty, and the segments and trace computed before the failure remain
// for diagnostic display.
type Result struct {
	RunID    string                        `json:"runId"`
	Seed     int64                         `json:"seed"`
	Text     string                        `json:"text"`
	Segments []Segment                     `json:"segments,omitempty"`
	Trace    *Trace                        `json:"trace,omitempty"`
	Captures map[string][]vars.CaptureItem `json:"captures,omitempty"`
	Err      error                         `json:"-"`
}
