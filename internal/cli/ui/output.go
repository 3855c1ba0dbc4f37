// Package ui renders evaluation results, traces and engine errors for the
// terminal.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/fatesmith/fatesmith/engine/eval"
	"github.com/fatesmith/fatesmith/engine/evalerr"
)

// PrintResult writes one evaluation outcome, colorized unless noColor.
func PrintResult(w io.Writer, res eval.Result, noColor bool) {
	if noColor {
		color.NoColor = true
	}
	if res.Err != nil {
		PrintError(w, res.Err)
		return
	}
	fmt.Fprintln(w, res.Text)
}

// PrintError renders an engine error with its kind highlighted.
func PrintError(w io.Writer, err error) {
	header := color.New(color.FgRed, color.Bold)
	kind, ok := evalerr.KindOf(err)
	if !ok {
		header.Fprint(w, "error: ")
		fmt.Fprintln(w, err)
		return
	}
	header.Fprintf(w, "%s error", strings.ReplaceAll(kind.String(), "_", " "))
	fmt.Fprintf(w, ": %v\n", err)
}

// PrintTrace renders the trace tree with two-space indentation per level.
func PrintTrace(w io.Writer, trace *eval.Trace, noColor bool) {
	if trace == nil || trace.Root == nil {
		return
	}
	if noColor {
		color.NoColor = true
	}
	dim := color.New(color.Faint)
	dim.Fprintf(w, "trace (%d nodes)\n", trace.Stats.NodeCount)
	for _, child := range trace.Root.Children {
		printNode(w, child, 1)
	}
}

func printNode(w io.Writer, n *eval.TraceNode, depth int) {
	indent := strings.Repeat("  ", depth)
	kind := color.New(color.FgCyan)

	fmt.Fprint(w, indent)
	kind.Fprint(w, n.Kind)
	if n.Table != "" {
		fmt.Fprintf(w, " %s", n.Table)
		if n.Entry != nil {
			fmt.Fprintf(w, "[%d]", *n.Entry)
		}
	} else if n.Expr != "" {
		fmt.Fprintf(w, " {{%s}}", n.Expr)
	}
	if len(n.Rolls) > 0 {
		fmt.Fprintf(w, " rolls=%v", n.Rolls)
	}
	if n.Output != "" {
		fmt.Fprintf(w, " => %s", n.Output)
	}
	fmt.Fprintln(w)

	for _, child := range n.Children {
		printNode(w, child, depth+1)
	}
}

// PrintSegments lists the position-mapped segments of a result, useful for
// explaining which span produced which output.
func PrintSegments(w io.Writer, segments []eval.Segment) {
	for _, s := range segments {
		marker := "lit "
		if s.Expression {
			marker = "expr"
		}
		fmt.Fprintf(w, "%s [%d:%d] %q => %q\n", marker, s.Start, s.End, s.Raw, s.Text)
	}
}
