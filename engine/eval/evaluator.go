// Package eval walks a pattern's directive sequence left to right,
// dispatching to the resolver, selection engine and variable store, and
// accumulates the output text, the position-mapped segment list and the
// execution trace of one generation run.
package eval

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/fatesmith/fatesmith/collection"
	"github.com/fatesmith/fatesmith/engine/directive"
	"github.com/fatesmith/fatesmith/engine/evalerr"
	"github.com/fatesmith/fatesmith/engine/lexer"
	"github.com/fatesmith/fatesmith/engine/mathexpr"
	"github.com/fatesmith/fatesmith/engine/resolver"
	"github.com/fatesmith/fatesmith/engine/selection"
	"github.com/fatesmith/fatesmith/engine/vars"
)

// rollSeparator joins the outputs of multi-roll, again and unique directives.
const rollSeparator = ", "

// Engine evaluates patterns against a registry of loaded documents. The
// registry is read-only for the duration of any in-flight evaluation; all
// mutable run state lives in a per-call context, so concurrent evaluations
// are isolated.
type Engine struct {
	reg *collection.Registry
}

// New creates an engine over the registry.
func New(reg *collection.Registry) *Engine {
	return &Engine{reg: reg}
}

// runContext is the isolated mutable state of a single generation run.
type runContext struct {
	res      *resolver.Resolver
	rng      selection.Source
	store    *vars.Store
	trace    bool
	depth    int
	maxDepth int
	chain    []string
	sets     []map[string]string
}

// frame is the per-pattern evaluation state: the document the pattern
// belongs to, the preceding repeatable directive for "again", and the sets
// of the most recent table roll, used for capture-aware shared values.
type frame struct {
	doc        *collection.Collection
	lastRepeat *directive.Directive
	lastSets   map[string]string
}

// EvaluateRawPattern evaluates a pattern against the named collection.
// Repeated calls with the same pattern draw fresh randomness unless
// Options.Seed pins the source. Evaluation is fail-fast: the first
// unrecoverable error aborts the rest of the pattern; text is discarded but
// segments and trace computed before the failure stay on the result.
func (e *Engine) EvaluateRawPattern(pattern, namespace string, opts Options) Result {
	result := Result{RunID: uuid.NewString()}

	doc := e.reg.Get(namespace)
	if doc == nil {
		result.Err = evalerr.Resolutionf("collection %q is not loaded", namespace)
		return result
	}

	seed, err := resolveSeed(opts)
	if err != nil {
		result.Err = err
		return result
	}
	result.Seed = seed

	ctx := &runContext{
		res:      resolver.New(e.reg),
		rng:      selection.NewSource(seed),
		store:    vars.NewStore(doc.Variables, doc.Shared),
		trace:    opts.EnableTrace,
		maxDepth: doc.Metadata.MaxRecursionDepth,
	}
	for name, value := range opts.Shared {
		ctx.store.Seed(name, value)
	}

	var root *TraceNode
	if opts.EnableTrace {
		root = &TraceNode{Kind: "pattern", Expr: pattern}
		result.Trace = &Trace{Root: root}
	}

	fr := &frame{doc: doc}
	var out strings.Builder
	var fatal *evalerr.Error
	pos := 0

	sc := lexer.New(pattern)
	for {
		m, ok := sc.Next()
		if !ok {
			break
		}
		if m.Start > pos {
			lit := pattern[pos:m.Start]
			out.WriteString(lit)
			result.Segments = append(result.Segments, Segment{Start: pos, End: m.Start, Raw: lit, Text: lit})
		}
		pos = m.End

		text, derr := e.evalMatch(ctx, fr, m, root)
		if derr != nil {
			fatal = derr
			break
		}
		out.WriteString(text)
		result.Segments = append(result.Segments, Segment{Start: m.Start, End: m.End, Raw: m.Raw, Text: text, Expression: true})
	}
	if fatal == nil && pos < len(pattern) {
		lit := pattern[pos:]
		out.WriteString(lit)
		result.Segments = append(result.Segments, Segment{Start: pos, End: len(pattern), Raw: lit, Text: lit})
	}

	if caps := ctx.store.Captures(); len(caps) > 0 {
		result.Captures = caps
	}
	result.Trace.finalize()
	if fatal != nil {
		result.Err = fatal
		return result
	}
	result.Text = out.String()
	return result
}

func resolveSeed(opts Options) (int64, *evalerr.Error) {
	if opts.Seed != nil {
		return *opts.Seed, nil
	}
	seed, err := selection.NewSeed()
	if err != nil {
		return 0, evalerr.Selectionf("cannot seed randomness: %v", err)
	}
	return seed, nil
}

// evalMatch classifies one span and dispatches it. A malformed span is
// recoverable and renders as its raw source text.
func (e *Engine) evalMatch(ctx *runContext, fr *frame, m lexer.Match, parent *TraceNode) (string, *evalerr.Error) {
	d, perr := directive.Classify(m.Expression)
	if perr != nil {
		return m.Raw, nil
	}
	text, err := e.evalDirective(ctx, fr, d, m.Raw, parent)
	if err != nil {
		return "", err.WithExpr(m.Expression, m.Start)
	}
	return text, nil
}

// evalDirective dispatches one classified directive. Recoverable conditions
// return the raw span text with a nil error; fatal conditions abort the run.
func (e *Engine) evalDirective(ctx *runContext, fr *frame, d directive.Directive, raw string, parent *TraceNode) (string, *evalerr.Error) {
	fr.lastSets = nil

	switch d.Kind {
	case directive.KindDice:
		return e.evalDice(ctx, fr, d, parent), nil

	case directive.KindMath:
		v, err := mathexpr.Eval(d.MathExpr)
		if err != nil {
			return raw, nil
		}
		text := mathexpr.Format(v)
		if n := ctx.node(parent, "math", d.Raw); n != nil {
			n.Output = text
		}
		return text, nil

	case directive.KindTable:
		n := ctx.node(parent, "table", d.Raw)
		text, sets, err := e.rollTarget(ctx, fr.doc, d.Target, n)
		if err != nil {
			return "", err
		}
		if n != nil {
			n.Output = text
		}
		fr.lastSets = sets
		dd := d
		fr.lastRepeat = &dd
		return text, nil

	case directive.KindMultiRoll:
		n := ctx.node(parent, "multiroll", d.Raw)
		parts := make([]string, 0, d.Repeat)
		for i := 0; i < d.Repeat; i++ {
			text, _, err := e.rollTarget(ctx, fr.doc, d.Target, n)
			if err != nil {
				return "", err
			}
			parts = append(parts, text)
		}
		out := strings.Join(parts, rollSeparator)
		if n != nil {
			n.Output = out
		}
		return out, nil

	case directive.KindCapture:
		n := ctx.node(parent, "capture", d.Raw)
		items := make([]vars.CaptureItem, 0, d.Capture.Count)
		for i := 0; i < d.Capture.Count; i++ {
			text, sets, err := e.rollTarget(ctx, fr.doc, d.Capture.Target, n)
			if err != nil {
				return "", err
			}
			items = append(items, vars.CaptureItem{Text: text, Sets: sets})
		}
		ctx.store.SetCapture(d.Capture.Var, items)
		if n != nil {
			n.Variable = d.Capture.Var
		}
		// Captures render as empty text; their value is accessed later.
		return "", nil

	case directive.KindVariable:
		return e.evalVariable(ctx, fr, d, parent)

	case directive.KindPlaceholder:
		v, ok := ctx.lookupSet(d.Placeholder)
		if !ok {
			return raw, nil
		}
		if n := ctx.node(parent, "placeholder", d.Raw); n != nil {
			n.Output = v
		}
		return v, nil

	case directive.KindAgain:
		return e.evalAgain(ctx, fr, d, raw, parent)

	case directive.KindUnique:
		return e.evalUnique(ctx, fr, d, parent)

	case directive.KindCollect:
		return e.evalCollect(ctx, d, parent)

	case directive.KindSwitch:
		return e.evalSwitch(ctx, fr, d, raw, parent)
	}

	return "", evalerr.Resolutionf("unhandled directive kind %q", d.Kind)
}

func (e *Engine) evalDice(ctx *runContext, fr *frame, d directive.Directive, parent *TraceNode) string {
	res := selection.RollDice(d.Dice, fr.doc.Metadata.MaxExplodingDice, ctx.rng)
	text := strconv.Itoa(res.Total)
	if n := ctx.node(parent, "dice", d.Raw); n != nil {
		n.Rolls = res.Rolls
		n.Output = text
	}
	dd := d
	fr.lastRepeat = &dd
	return text
}

// rollTarget resolves and rolls one table or template reference. It returns
// the rendered text plus the selected entry's merged sets (nil for
// templates). Every delegation through here consumes recursion depth; the
// counter is restored on all return paths.
func (e *Engine) rollTarget(ctx *runContext, doc *collection.Collection, ident string, parent *TraceNode) (string, map[string]string, *evalerr.Error) {
	ctx.depth++
	ctx.chain = append(ctx.chain, ident)
	defer func() {
		ctx.depth--
		ctx.chain = ctx.chain[:len(ctx.chain)-1]
	}()
	if ctx.depth > ctx.maxDepth {
		return "", nil, evalerr.Depthf(ctx.maxDepth, ctx.chain, "recursion depth exceeded at %q", ident)
	}

	res, err := ctx.res.Resolve(ident, doc)
	if err != nil {
		return "", nil, err
	}

	if res.Template != nil {
		if err := ctx.store.PushScope(res.Template.SharedVars); err != nil {
			return "", nil, err
		}
		defer ctx.store.PopScope()
		n := ctx.node(parent, "template", ident)
		text, sets, err := e.evalPattern(ctx, res.Doc, res.Template.Pattern, n)
		if err != nil {
			return "", nil, err
		}
		if n != nil {
			n.Output = text
		}
		return text, sets, nil
	}

	t := res.Table
	if t.Type == collection.TableComposite {
		weights := make([]float64, len(t.Sources))
		for i := range t.Sources {
			weights[i] = t.Sources[i].Weight
		}
		idx, serr := selection.WeightedIndex(weights, ctx.rng)
		if serr != nil {
			return "", nil, serr
		}
		return e.rollTarget(ctx, res.Doc, t.Sources[idx].TableID, parent)
	}

	entries, rerr := ctx.res.Entries(t, res.Doc)
	if rerr != nil {
		return "", nil, rerr
	}
	pick, serr := selection.Select(entries, ctx.rng)
	if serr != nil {
		return "", nil, serr
	}

	n := ctx.node(parent, "roll", ident)
	if n != nil {
		n.Table = t.ID
		idx := pick.Index
		n.Entry = &idx
	}

	sets := mergeSets(t.DefaultSets, pick.Entry.Sets)
	if err := ctx.store.PushScope(t.SharedVars); err != nil {
		return "", nil, err
	}
	ctx.sets = append(ctx.sets, sets)
	text, _, err := e.evalPattern(ctx, res.Doc, pick.Entry.Value, n)
	ctx.sets = ctx.sets[:len(ctx.sets)-1]
	ctx.store.PopScope()
	if err != nil {
		return "", nil, err
	}
	if n != nil {
		n.Output = text
	}
	return text, sets, nil
}

// evalPattern evaluates a nested pattern (entry value, template pattern or
// shared variable declaration). It returns the rendered text plus, when the
// pattern consisted of exactly one table directive, that roll's sets. This is
// the hook that makes shared variables capture-aware.
func (e *Engine) evalPattern(ctx *runContext, doc *collection.Collection, pattern string, parent *TraceNode) (string, map[string]string, *evalerr.Error) {
	fr := &frame{doc: doc}
	var out strings.Builder
	pos := 0
	count := 0
	literal := false
	var soleSets map[string]string

	sc := lexer.New(pattern)
	for {
		m, ok := sc.Next()
		if !ok {
			break
		}
		if m.Start > pos {
			out.WriteString(pattern[pos:m.Start])
			literal = true
		}
		pos = m.End

		text, err := e.evalMatch(ctx, fr, m, parent)
		if err != nil {
			return "", nil, err
		}
		count++
		soleSets = fr.lastSets
		out.WriteString(text)
	}
	if pos < len(pattern) {
		out.WriteString(pattern[pos:])
		literal = true
	}
	// Sets carry through only when the pattern is exactly one table
	// directive; surrounding literal text makes the value plain text.
	if count != 1 || literal {
		soleSets = nil
	}
	return out.String(), soleSets, nil
}

func (e *Engine) evalVariable(ctx *runContext, fr *frame, d directive.Directive, parent *TraceNode) (string, *evalerr.Error) {
	ref := d.Variable
	n := ctx.node(parent, "variable", d.Raw)
	if n != nil {
		n.Variable = ref.Name
	}

	// Captures take precedence: they are created during this run.
	if items, ok := ctx.store.Capture(ref.Name); ok {
		text, err := captureAccess(ref, items)
		if err != nil {
			return "", err
		}
		if n != nil {
			n.Output = text
		}
		return text, nil
	}
	if ref.HasIndex {
		return "", evalerr.Resolutionf("variable %q is not a capture; indexed access needs a capture", ref.Name)
	}

	v, found, err := ctx.store.ResolveShared(ref.Name, func(pattern string) (vars.Value, *evalerr.Error) {
		text, sets, err := e.evalPattern(ctx, fr.doc, pattern, n)
		return vars.Value{Text: text, Sets: sets}, err
	})
	if err != nil {
		return "", err
	}
	if found {
		text := v.Text
		if ref.Prop != "" {
			pv, ok := v.Sets[ref.Prop]
			if !ok {
				return "", evalerr.Resolutionf("variable %q has no property %q", ref.Name, ref.Prop)
			}
			text = pv
		}
		if n != nil {
			n.Output = text
		}
		return text, nil
	}

	if sv, ok := ctx.store.Static(ref.Name); ok {
		if ref.Prop != "" {
			return "", evalerr.Resolutionf("static variable %q has no properties", ref.Name)
		}
		if n != nil {
			n.Output = sv
		}
		return sv, nil
	}
	return "", evalerr.Resolutionf("unknown variable %q", ref.Name)
}

func captureAccess(ref *directive.VariableRef, items []vars.CaptureItem) (string, *evalerr.Error) {
	if ref.HasIndex {
		if ref.Index < 0 || ref.Index >= len(items) {
			return "", evalerr.Resolutionf("capture %q has %d items; index %d is out of range", ref.Name, len(items), ref.Index)
		}
		item := items[ref.Index]
		if ref.Prop == "" {
			return item.Text, nil
		}
		v, ok := item.Sets[ref.Prop]
		if !ok {
			return "", evalerr.Resolutionf("capture %q item %d has no property %q", ref.Name, ref.Index, ref.Prop)
		}
		return v, nil
	}
	if ref.Prop != "" {
		return "", evalerr.Resolutionf("capture %q needs an index for property access; use collect:$%s.@%s", ref.Name, ref.Name, ref.Prop)
	}
	texts := make([]string, len(items))
	for i, item := range items {
		texts[i] = item.Text
	}
	return strings.Join(texts, rollSeparator), nil
}

// evalAgain re-executes the preceding table or dice directive of the current
// pattern with a fresh draw. With no preceding repeatable directive the span
// renders as raw text.
func (e *Engine) evalAgain(ctx *runContext, fr *frame, d directive.Directive, raw string, parent *TraceNode) (string, *evalerr.Error) {
	last := fr.lastRepeat
	if last == nil {
		return raw, nil
	}
	n := ctx.node(parent, "again", d.Raw)

	parts := make([]string, 0, d.Repeat)
	for i := 0; i < d.Repeat; i++ {
		switch last.Kind {
		case directive.KindDice:
			res := selection.RollDice(last.Dice, fr.doc.Metadata.MaxExplodingDice, ctx.rng)
			text := strconv.Itoa(res.Total)
			if c := ctx.node(n, "dice", last.Raw); c != nil {
				c.Rolls = res.Rolls
				c.Output = text
			}
			parts = append(parts, text)
		default:
			text, _, err := e.rollTarget(ctx, fr.doc, last.Target, n)
			if err != nil {
				return "", err
			}
			parts = append(parts, text)
		}
	}
	out := strings.Join(parts, rollSeparator)
	if n != nil {
		n.Output = out
	}
	return out, nil
}

func (e *Engine) evalUnique(ctx *runContext, fr *frame, d directive.Directive, parent *TraceNode) (string, *evalerr.Error) {
	res, err := ctx.res.Resolve(d.Unique.Target, fr.doc)
	if err != nil {
		return "", err
	}
	if res.Table == nil {
		return "", evalerr.Resolutionf("unique target %q is not a table", d.Unique.Target)
	}
	if res.Table.Type == collection.TableComposite {
		return "", evalerr.Resolutionf("unique target %q is a composite table; unique draws need an entry pool", d.Unique.Target)
	}
	entries, rerr := ctx.res.Entries(res.Table, res.Doc)
	if rerr != nil {
		return "", rerr
	}
	picks, serr := selection.Unique(entries, d.Unique.Count, res.Doc.Metadata.UniqueOverflow, ctx.rng)
	if serr != nil {
		return "", serr
	}

	n := ctx.node(parent, "unique", d.Raw)
	parts := make([]string, 0, len(picks))
	for _, pick := range picks {
		c := ctx.node(n, "roll", d.Unique.Target)
		if c != nil {
			c.Table = res.Table.ID
			idx := pick.Index
			c.Entry = &idx
		}
		sets := mergeSets(res.Table.DefaultSets, pick.Entry.Sets)
		ctx.sets = append(ctx.sets, sets)
		text, _, perr := e.evalPattern(ctx, res.Doc, pick.Entry.Value, c)
		ctx.sets = ctx.sets[:len(ctx.sets)-1]
		if perr != nil {
			return "", perr
		}
		if c != nil {
			c.Output = text
		}
		parts = append(parts, text)
	}
	out := strings.Join(parts, rollSeparator)
	if n != nil {
		n.Output = out
	}
	return out, nil
}

func (e *Engine) evalCollect(ctx *runContext, d directive.Directive, parent *TraceNode) (string, *evalerr.Error) {
	items, ok := ctx.store.Capture(d.Collect.Var)
	if !ok {
		return "", evalerr.Resolutionf("unknown capture %q", d.Collect.Var)
	}
	var values []string
	seen := map[string]bool{}
	for _, item := range items {
		v, ok := item.Sets[d.Collect.Prop]
		if !ok {
			continue
		}
		if d.Collect.Unique {
			if seen[v] {
				continue
			}
			seen[v] = true
		}
		values = append(values, v)
	}
	out := strings.Join(values, rollSeparator)
	if n := ctx.node(parent, "collect", d.Raw); n != nil {
		n.Variable = d.Collect.Var
		n.Output = out
	}
	return out, nil
}

// evalSwitch resolves the subject (a placeholder or variable reference) and
// renders the matching case's value as literal text.
func (e *Engine) evalSwitch(ctx *runContext, fr *frame, d directive.Directive, raw string, parent *TraceNode) (string, *evalerr.Error) {
	n := ctx.node(parent, "switch", d.Raw)

	sd, perr := directive.Classify(d.Switch.Subject)
	if perr != nil {
		return raw, nil
	}
	// The subject's recoverable fallback is its own reference text, not the
	// whole switch span, so an unresolved subject reaches the no-match path.
	subject, err := e.evalDirective(ctx, fr, sd, d.Switch.Subject, n)
	if err != nil {
		return "", err
	}

	for _, c := range d.Switch.Cases {
		if c.Key == subject {
			if n != nil {
				n.Output = c.Value
			}
			return c.Value, nil
		}
	}
	if d.Switch.HasDefault {
		if n != nil {
			n.Output = d.Switch.Default
		}
		return d.Switch.Default, nil
	}
	return raw, nil
}

// node appends a trace child under parent, or returns nil when tracing is
// disabled.
func (ctx *runContext) node(parent *TraceNode, kind, expr string) *TraceNode {
	if !ctx.trace || parent == nil {
		return nil
	}
	n := &TraceNode{Kind: kind, Expr: expr}
	parent.Children = append(parent.Children, n)
	return n
}

// lookupSet searches the placeholder scopes innermost first.
func (ctx *runContext) lookupSet(key string) (string, bool) {
	for i := len(ctx.sets) - 1; i >= 0; i-- {
		if v, ok := ctx.sets[i][key]; ok {
			return v, true
		}
	}
	return "", false
}

func mergeSets(defaults, overrides map[string]string) map[string]string {
	if len(defaults) == 0 && len(overrides) == 0 {
		return nil
	}
	merged := make(map[string]string, len(defaults)+len(overrides))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}
