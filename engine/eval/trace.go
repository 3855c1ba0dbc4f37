package eval

// TraceNode records one evaluated directive. The root node represents the
// pattern itself; its direct children correspond one to one, in document
// order, to the pattern's top-level directives. Literal text produces no
// node.
type TraceNode struct {
	Kind     string       `json:"kind"`
	Expr     string       `json:"expr,omitempty"`
	Output   string       `json:"output,omitempty"`
	Table    string       `json:"table,omitempty"`
	Entry    *int         `json:"entry,omitempty"`
	Variable string       `json:"variable,omitempty"`
	Rolls    []int        `json:"rolls,omitempty"`
	Children []*TraceNode `json:"children,omitempty"`
}

// TraceStats summarizes a trace.
type TraceStats struct {
	// NodeCount is the number of directive nodes in the tree; the pattern
	// root itself is not counted.
	NodeCount int `json:"nodeCount"`
}

// Trace is the execution record of one generation run.
type Trace struct {
	Root  *TraceNode `json:"root"`
	Stats TraceStats `json:"stats"`
}

// finalize computes the trace statistics.
func (t *Trace) finalize() {
	if t == nil || t.Root == nil {
		return
	}
	t.Stats.NodeCount = countNodes(t.Root) - 1
}

func countNodes(n *TraceNode) int {
	total := 1
	for _, c := range n.Children {
		total += countNodes(c)
	}
	return total
}
