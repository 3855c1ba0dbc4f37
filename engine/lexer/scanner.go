// Package lexer scans pattern strings for the double-brace directive spans
// the evaluator dispatches on. It has no knowledge of directive semantics.
package lexer

import "strings"

// Match is one top-level {{...}} span found in a pattern. Start and End are
// byte offsets of the full span (braces included) in the source string.
type Match struct {
	Raw        string // the span including braces
	Expression string // inner text, whitespace-trimmed
	Start      int
	End        int
}

// Scanner walks a pattern left to right yielding directive spans. Spans do
// not nest: a match ends at the first "}}" after its opener. An unmatched
// "{{" is not an error; the remainder of the pattern is literal text.
// Scanners are restartable via Reset and have no side effects on the source.
type Scanner struct {
	source string
	pos    int
}

// New creates a Scanner over the given pattern.
func New(source string) *Scanner {
	return &Scanner{source: source}
}

// Next returns the next directive span, or ok=false when the pattern is
// exhausted.
func (s *Scanner) Next() (Match, bool) {
	for s.pos < len(s.source) {
		open := strings.Index(s.source[s.pos:], "{{")
		if open < 0 {
			s.pos = len(s.source)
			return Match{}, false
		}
		start := s.pos + open
		closer := strings.Index(s.source[start+2:], "}}")
		if closer < 0 {
			// Unmatched opener: the rest is literal.
			s.pos = len(s.source)
			return Match{}, false
		}
		end := start + 2 + closer + 2
		s.pos = end
		raw := s.source[start:end]
		return Match{
			Raw:        raw,
			Expression: strings.TrimSpace(raw[2 : len(raw)-2]),
			Start:      start,
			End:        end,
		}, true
	}
	return Match{}, false
}

// Reset rewinds the scanner to the beginning of the pattern.
func (s *Scanner) Reset() {
	s.pos = 0
}

// Pos returns the current scan offset, i.e. the end of the last match. Text
// between Pos and the next match's Start is literal.
func (s *Scanner) Pos() int {
	return s.pos
}

// Scan returns every directive span in the pattern.
func Scan(source string) []Match {
	s := New(source)
	var out []Match
	for {
		m, ok := s.Next()
		if !ok {
			return out
		}
		out = append(out, m)
	}
}
