// Package vars implements the variable subsystem of a generation run: static
// document variables, lazily memoized shared variables with forward and
// cyclic reference detection, table/template child scopes, and the capture
// store behind multi-roll captures.
package vars

import (
	"github.com/fatesmith/fatesmith/collection"
	"github.com/fatesmith/fatesmith/engine/evalerr"
)

// Value is a resolved variable: its rendered text plus, when the value came
// from a single table roll, the selected entry's property map. Sets being
// non-nil is what makes a variable capture-aware for @prop access.
type Value struct {
	Text string
	Sets map[string]string
}

// CaptureItem is one structured result of a capture directive.
type CaptureItem struct {
	Text string            `json:"text"`
	Sets map[string]string `json:"sets,omitempty"`
}

// Evaluator computes a shared variable's declared pattern. The store calls
// it exactly once per variable per generation run.
type Evaluator func(pattern string) (Value, *evalerr.Error)

// scope is one table or template shared block pushed during its roll.
type scope struct {
	defs   map[string]string
	values map[string]Value
}

// Store owns the mutable variable state of a single generation run. It is
// never shared across concurrent evaluations; each run constructs its own.
type Store struct {
	static map[string]string

	sharedOrder map[string]int
	sharedDefs  []collection.SharedVariable
	values      map[string]Value
	evaluating  map[string]bool
	// orderStack tracks the declaration positions of shared variables
	// currently being evaluated, for the forward-reference check.
	orderStack []int

	scopes   []scope
	captures map[string][]CaptureItem
}

// NewStore creates the run-scoped store for a document.
func NewStore(static map[string]string, shared []collection.SharedVariable) *Store {
	s := &Store{
		static:      static,
		sharedDefs:  shared,
		sharedOrder: make(map[string]int, len(shared)),
		values:      make(map[string]Value),
		evaluating:  make(map[string]bool),
		captures:    make(map[string][]CaptureItem),
	}
	for i, sv := range shared {
		s.sharedOrder[sv.Name] = i
	}
	return s
}

// Seed pre-memoizes a shared value, used for caller-supplied overrides.
func (s *Store) Seed(name, value string) {
	s.values[name] = Value{Text: value}
}

// Static returns a load-time variable. Static values are plain strings; no
// directive evaluation happens on them.
func (s *Store) Static(name string) (string, bool) {
	v, ok := s.static[name]
	return v, ok
}

// PushScope enters a table or template shared block. Shadowing a
// document-level shared name is a declaration error; load-time validation
// catches it for local tables, and this re-check covers imported ones.
func (s *Store) PushScope(vars []collection.SharedVariable) *evalerr.Error {
	sc := scope{defs: make(map[string]string, len(vars)), values: make(map[string]Value)}
	for _, sv := range vars {
		if _, exists := s.sharedOrder[sv.Name]; exists {
			return evalerr.Declarationf("shared variable %q shadows a document-level declaration", sv.Name)
		}
		sc.defs[sv.Name] = sv.Value
	}
	s.scopes = append(s.scopes, sc)
	return nil
}

// PopScope leaves the innermost shared block, discarding its memoized values.
func (s *Store) PopScope() {
	if len(s.scopes) > 0 {
		s.scopes = s.scopes[:len(s.scopes)-1]
	}
}

// ResolveShared resolves a shared variable by name: first the innermost
// child scopes, then the document declarations. The first reference in a run
// evaluates the declared pattern through eval and memoizes the result;
// later references return the memoized value untouched. A reference to a
// variable declared later in document order, or to one currently being
// evaluated, is a declaration error rather than a silent reorder.
func (s *Store) ResolveShared(name string, eval Evaluator) (Value, bool, *evalerr.Error) {
	// Child scopes, innermost first.
	for i := len(s.scopes) - 1; i >= 0; i-- {
		sc := &s.scopes[i]
		if v, ok := sc.values[name]; ok {
			return v, true, nil
		}
		pattern, ok := sc.defs[name]
		if !ok {
			continue
		}
		v, err := eval(pattern)
		if err != nil {
			return Value{}, true, err
		}
		sc.values[name] = v
		return v, true, nil
	}

	if v, ok := s.values[name]; ok {
		return v, true, nil
	}
	order, declared := s.sharedOrder[name]
	if !declared {
		return Value{}, false, nil
	}
	if s.evaluating[name] {
		return Value{}, true, evalerr.Declarationf("shared variable %q references itself", name)
	}
	if len(s.orderStack) > 0 && order > s.orderStack[len(s.orderStack)-1] {
		return Value{}, true, evalerr.Declarationf("shared variable %q is referenced before its declaration", name)
	}

	s.evaluating[name] = true
	s.orderStack = append(s.orderStack, order)
	v, err := eval(s.sharedDefs[order].Value)
	s.orderStack = s.orderStack[:len(s.orderStack)-1]
	delete(s.evaluating, name)
	if err != nil {
		return Value{}, true, err
	}
	s.values[name] = v
	return v, true, nil
}

// SetCapture stores the structured results of a capture directive.
func (s *Store) SetCapture(name string, items []CaptureItem) {
	s.captures[name] = items
}

// Capture returns a capture's items.
func (s *Store) Capture(name string) ([]CaptureItem, bool) {
	items, ok := s.captures[name]
	return items, ok
}

// Captures returns the full capture map, for inclusion in results.
func (s *Store) Captures() map[string][]CaptureItem {
	return s.captures
}
