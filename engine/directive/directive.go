// Package directive classifies the inner text of a {{...}} span into a typed
// directive. Classification is a pure function of the string: it never
// consults the document model, so an unknown identifier still classifies as a
// table reference and fails later, at resolution time.
package directive

// Kind is the closed set of directive kinds. The evaluator matches it
// exhaustively, so adding a kind is a compile-time-checked change.
type Kind int

const (
	// KindDice is a dice:XdY[!][+Z] roll.
	KindDice Kind = iota
	// KindMath is a deterministic math:EXPR computation.
	KindMath
	// KindCollect gathers one property across a capture's items.
	KindCollect
	// KindCapture is a multi-roll stored under a variable: N*id >> $var.
	KindCapture
	// KindVariable is a $name reference, optionally indexed or with a
	// property access.
	KindVariable
	// KindPlaceholder is an @key lookup in the current entry's sets.
	KindPlaceholder
	// KindAgain re-executes the preceding table or dice directive.
	KindAgain
	// KindUnique is a without-replacement draw: unique:N:id.
	KindUnique
	// KindSwitch selects a case by a placeholder or variable value.
	KindSwitch
	// KindMultiRoll is N*id without capture.
	KindMultiRoll
	// KindTable is a bare table or template reference, possibly
	// alias-qualified.
	KindTable
)

// String returns the kind name used in traces.
func (k Kind) String() string {
	switch k {
	case KindDice:
		return "dice"
	case KindMath:
		return "math"
	case KindCollect:
		return "collect"
	case KindCapture:
		return "capture"
	case KindVariable:
		return "variable"
	case KindPlaceholder:
		return "placeholder"
	case KindAgain:
		return "again"
	case KindUnique:
		return "unique"
	case KindSwitch:
		return "switch"
	case KindMultiRoll:
		return "multiroll"
	case KindTable:
		return "table"
	default:
		return "unknown"
	}
}

// Directive is the classified form of one expression. Exactly the payload
// matching Kind is populated.
type Directive struct {
	Kind Kind
	Raw  string // inner expression text as written

	Dice        *DiceSpec
	MathExpr    string
	Collect     *CollectSpec
	Capture     *CaptureSpec
	Variable    *VariableRef
	Placeholder string
	Repeat      int // again and multi-roll repetition count
	Unique      *UniqueSpec
	Switch      *SwitchSpec
	Target      string // table or template identifier
}

// CollectSpec is the payload of collect:$var.@prop[|unique].
type CollectSpec struct {
	Var    string
	Prop   string
	Unique bool
}

// CaptureSpec is the payload of N*id >> $var.
type CaptureSpec struct {
	Count  int
	Target string
	Var    string
}

// VariableRef is the payload of $name, $name[i], $name.@prop and
// $name[i].@prop.
type VariableRef struct {
	Name     string
	Index    int
	HasIndex bool
	Prop     string
}

// UniqueSpec is the payload of unique:N:id.
type UniqueSpec struct {
	Count  int
	Target string
}

// SwitchSpec is the payload of SUBJECT switch[k:v,...,default:v]. Subject is
// the raw @key or $name reference whose resolved text picks the case.
type SwitchSpec struct {
	Subject    string
	Cases      []SwitchCase
	Default    string
	HasDefault bool
}

// SwitchCase is one key/value pair of a switch directive.
type SwitchCase struct {
	Key   string
	Value string
}
