// Package evalerr defines the typed error model shared by the Fatesmith
// engine packages. Every public entry point returns one of these instead of
// panicking across a package boundary.
package evalerr

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an evaluation error.
type Kind int

const (
	// KindParse marks malformed directive syntax. Parse errors are
	// recoverable: the evaluator renders the offending span as literal text.
	KindParse Kind = iota
	// KindResolution marks an unknown table, template, alias or variable.
	KindResolution
	// KindDepthExceeded marks a recursion or inheritance chain over its limit.
	KindDepthExceeded
	// KindSelection marks an unsatisfiable draw: empty or zero-weight pool,
	// or unique-overflow under the "error" policy.
	KindSelection
	// KindDeclaration marks shared-variable shadowing, a forward reference,
	// or a cyclic reference.
	KindDeclaration
	// KindDocument marks a structurally invalid collection document.
	KindDocument
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse"
	case KindResolution:
		return "resolution"
	case KindDepthExceeded:
		return "depth_exceeded"
	case KindSelection:
		return "selection"
	case KindDeclaration:
		return "declaration"
	case KindDocument:
		return "document"
	default:
		return "unknown"
	}
}

// Code returns the stable error code for the kind.
func (k Kind) Code() string {
	switch k {
	case KindParse:
		return "P001"
	case KindResolution:
		return "F001"
	case KindDepthExceeded:
		return "F002"
	case KindSelection:
		return "F003"
	case KindDeclaration:
		return "F004"
	case KindDocument:
		return "F005"
	default:
		return "F000"
	}
}

// Error is a typed engine error. Expr carries the raw directive text when the
// error is attributable to a single directive; Chain carries the resolution
// chain for depth errors.
type Error struct {
	Kind    Kind
	Message string
	Expr    string
	Offset  int
	Chain   []string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.Code())
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Expr != "" {
		fmt.Fprintf(&sb, " in {{%s}}", e.Expr)
	}
	if len(e.Chain) > 0 {
		fmt.Fprintf(&sb, " (chain: %s)", strings.Join(e.Chain, " -> "))
	}
	return sb.String()
}

// Fatal reports whether the error aborts the containing evaluation. Only
// parse errors are recoverable.
func (e *Error) Fatal() bool {
	return e.Kind != KindParse
}

// WithExpr returns a copy of the error annotated with the directive text and
// its offset in the source pattern.
func (e *Error) WithExpr(expr string, offset int) *Error {
	c := *e
	c.Expr = expr
	c.Offset = offset
	return &c
}

// MarshalJSON implements json.Marshaler.
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind    string   `json:"kind"`
		Code    string   `json:"code"`
		Message string   `json:"message"`
		Expr    string   `json:"expr,omitempty"`
		Offset  int      `json:"offset,omitempty"`
		Chain   []string `json:"chain,omitempty"`
	}{
		Kind:    e.Kind.String(),
		Code:    e.Kind.Code(),
		Message: e.Message,
		Expr:    e.Expr,
		Offset:  e.Offset,
		Chain:   e.Chain,
	})
}

// Parsef builds a recoverable parse error.
func Parsef(format string, args ...interface{}) *Error {
	return &Error{Kind: KindParse, Message: fmt.Sprintf(format, args...)}
}

// Resolutionf builds a resolution error.
func Resolutionf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindResolution, Message: fmt.Sprintf(format, args...)}
}

// Depthf builds a depth-exceeded error naming the limit and the chain that
// crossed it.
func Depthf(limit int, chain []string, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    KindDepthExceeded,
		Message: fmt.Sprintf(format, args...) + fmt.Sprintf(" (limit %d)", limit),
		Chain:   append([]string(nil), chain...),
	}
}

// Selectionf builds a selection error.
func Selectionf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindSelection, Message: fmt.Sprintf(format, args...)}
}

// Declarationf builds a declaration error.
func Declarationf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindDeclaration, Message: fmt.Sprintf(format, args...)}
}

// Documentf builds a document validation error.
func Documentf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindDocument, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind from an error, reporting false for foreign errors.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsKind reports whether err is an engine error of the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// List aggregates multiple errors, e.g. from document validation.
type List []*Error

// Error implements the error interface.
func (l List) Error() string {
	if len(l) == 0 {
		return "no errors"
	}
	msgs := make([]string, len(l))
	for i, e := range l {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Err returns the list as an error, or nil when empty.
func (l List) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}
