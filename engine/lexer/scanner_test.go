package lexer

import (
	"testing"
)

// TestScanSpans tests extraction of directive spans with offsets
func TestScanSpans(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Match
	}{
		{
			name:  "single directive",
			input: "roll {{dice:1d6}} now",
			expected: []Match{
				{Raw: "{{dice:1d6}}", Expression: "dice:1d6", Start: 5, End: 17},
			},
		},
		{
			name:  "multiple directives",
			input: "{{a}} and {{b}}",
			expected: []Match{
				{Raw: "{{a}}", Expression: "a", Start: 0, End: 5},
				{Raw: "{{b}}", Expression: "b", Start: 10, End: 15},
			},
		},
		{
			name:  "whitespace trimmed from expression",
			input: "{{ npc }}",
			expected: []Match{
				{Raw: "{{ npc }}", Expression: "npc", Start: 0, End: 9},
			},
		},
		{
			name:     "no directives",
			input:    "plain text",
			expected: nil,
		},
		{
			name:     "unmatched opener is literal",
			input:    "broken {{ here",
			expected: nil,
		},
		{
			name:  "unmatched opener after valid span",
			input: "{{a}} then {{broken",
			expected: []Match{
				{Raw: "{{a}}", Expression: "a", Start: 0, End: 5},
			},
		},
		{
			name:  "first closer wins",
			input: "{{a {{b}} c}}",
			expected: []Match{
				{Raw: "{{a {{b}}", Expression: "a {{b", Start: 0, End: 9},
			},
		},
		{
			name:     "empty string",
			input:    "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Scan(tt.input)
			if len(got) != len(tt.expected) {
				t.Fatalf("expected %d matches, got %d: %+v", len(tt.expected), len(got), got)
			}
			for i, want := range tt.expected {
				if got[i] != want {
					t.Errorf("match %d: expected %+v, got %+v", i, want, got[i])
				}
			}
		})
	}
}

// TestScannerReset tests that a scanner can be restarted
func TestScannerReset(t *testing.T) {
	s := New("{{a}} {{b}}")

	first, ok := s.Next()
	if !ok || first.Expression != "a" {
		t.Fatalf("expected first match a, got %+v ok=%v", first, ok)
	}

	s.Reset()
	again, ok := s.Next()
	if !ok || again != first {
		t.Errorf("expected reset to replay first match, got %+v", again)
	}
}

// TestScannerPos tests literal boundary tracking
func TestScannerPos(t *testing.T) {
	s := New("ab {{x}} cd")
	if s.Pos() != 0 {
		t.Fatalf("expected initial pos 0, got %d", s.Pos())
	}
	m, ok := s.Next()
	if !ok {
		t.Fatal("expected a match")
	}
	if s.Pos() != m.End {
		t.Errorf("expected pos %d after match, got %d", m.End, s.Pos())
	}
}
