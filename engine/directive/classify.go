package directive

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/fatesmith/fatesmith/engine/evalerr"
)

var (
	identRe     = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)
	tableRefRe  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*(\.[A-Za-z_][A-Za-z0-9_-]*)?$`)
	multiRollRe = regexp.MustCompile(`^(\d+)\s*\*\s*(.+)$`)
	indexedRe   = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_-]*)\[(\d+)\]$`)
)

// Classify maps the inner text of a directive span to its typed form. The
// only errors it returns are parse errors, which are recoverable: callers
// render the span as literal text and continue.
func Classify(expr string) (Directive, *evalerr.Error) {
	d := Directive{Raw: expr, Repeat: 1}
	switch {
	case expr == "":
		return d, evalerr.Parsef("empty directive")

	case strings.HasPrefix(expr, "dice:"):
		spec, err := ParseDiceSpec(strings.TrimPrefix(expr, "dice:"))
		if err != nil {
			return d, err
		}
		d.Kind = KindDice
		d.Dice = spec
		return d, nil

	case strings.HasPrefix(expr, "math:"):
		d.Kind = KindMath
		d.MathExpr = strings.TrimSpace(strings.TrimPrefix(expr, "math:"))
		if d.MathExpr == "" {
			return d, evalerr.Parsef("math directive has no expression")
		}
		return d, nil

	case strings.HasPrefix(expr, "collect:"):
		return classifyCollect(d, strings.TrimPrefix(expr, "collect:"))

	case strings.Contains(expr, " >> $"):
		return classifyCapture(d, expr)

	case strings.Contains(expr, "switch["):
		return classifySwitch(d, expr)

	case strings.HasPrefix(expr, "unique:"):
		return classifyUnique(d, strings.TrimPrefix(expr, "unique:"))

	case expr == "again":
		d.Kind = KindAgain
		return d, nil

	case strings.HasPrefix(expr, "$"):
		return classifyVariable(d, strings.TrimPrefix(expr, "$"))

	case strings.HasPrefix(expr, "@"):
		key := strings.TrimPrefix(expr, "@")
		if !identRe.MatchString(key) {
			return d, evalerr.Parsef("invalid placeholder key %q", key)
		}
		d.Kind = KindPlaceholder
		d.Placeholder = key
		return d, nil
	}

	if m := multiRollRe.FindStringSubmatch(expr); m != nil {
		count, err := strconv.Atoi(m[1])
		if err != nil || count < 1 {
			return d, evalerr.Parsef("invalid repeat count %q", m[1])
		}
		target := strings.TrimSpace(m[2])
		if target == "again" {
			d.Kind = KindAgain
			d.Repeat = count
			return d, nil
		}
		if !tableRefRe.MatchString(target) {
			return d, evalerr.Parsef("invalid multi-roll target %q", target)
		}
		d.Kind = KindMultiRoll
		d.Repeat = count
		d.Target = target
		return d, nil
	}

	if !tableRefRe.MatchString(expr) {
		return d, evalerr.Parsef("unrecognized directive %q", expr)
	}
	d.Kind = KindTable
	d.Target = expr
	return d, nil
}

func classifyCollect(d Directive, rest string) (Directive, *evalerr.Error) {
	unique := false
	if idx := strings.Index(rest, "|"); idx >= 0 {
		mod := strings.TrimSpace(rest[idx+1:])
		if mod != "unique" {
			return d, evalerr.Parsef("unknown collect modifier %q", mod)
		}
		unique = true
		rest = rest[:idx]
	}
	rest = strings.TrimSpace(rest)
	if !strings.HasPrefix(rest, "$") {
		return d, evalerr.Parsef("collect expects a $variable, got %q", rest)
	}
	name, prop, ok := strings.Cut(strings.TrimPrefix(rest, "$"), ".@")
	if !ok || !identRe.MatchString(name) || !identRe.MatchString(prop) {
		return d, evalerr.Parsef("collect expects $var.@prop, got %q", rest)
	}
	d.Kind = KindCollect
	d.Collect = &CollectSpec{Var: name, Prop: prop, Unique: unique}
	return d, nil
}

func classifyCapture(d Directive, expr string) (Directive, *evalerr.Error) {
	lhs, rhs, _ := strings.Cut(expr, " >> $")
	varName := strings.TrimSpace(rhs)
	if !identRe.MatchString(varName) {
		return d, evalerr.Parsef("invalid capture variable %q", varName)
	}
	lhs = strings.TrimSpace(lhs)
	count := 1
	target := lhs
	if m := multiRollRe.FindStringSubmatch(lhs); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 {
			return d, evalerr.Parsef("invalid capture count %q", m[1])
		}
		count = n
		target = strings.TrimSpace(m[2])
	}
	if !tableRefRe.MatchString(target) {
		return d, evalerr.Parsef("invalid capture target %q", target)
	}
	d.Kind = KindCapture
	d.Capture = &CaptureSpec{Count: count, Target: target, Var: varName}
	return d, nil
}

func classifyUnique(d Directive, rest string) (Directive, *evalerr.Error) {
	countStr, target, ok := strings.Cut(rest, ":")
	if !ok {
		return d, evalerr.Parsef("unique expects unique:N:table, got %q", rest)
	}
	count, err := strconv.Atoi(strings.TrimSpace(countStr))
	if err != nil || count < 1 {
		return d, evalerr.Parsef("invalid unique count %q", countStr)
	}
	target = strings.TrimSpace(target)
	if !tableRefRe.MatchString(target) {
		return d, evalerr.Parsef("invalid unique target %q", target)
	}
	d.Kind = KindUnique
	d.Unique = &UniqueSpec{Count: count, Target: target}
	return d, nil
}

func classifyVariable(d Directive, rest string) (Directive, *evalerr.Error) {
	ref := VariableRef{Index: -1}
	if name, prop, ok := strings.Cut(rest, ".@"); ok {
		if !identRe.MatchString(prop) {
			return d, evalerr.Parsef("invalid property %q", prop)
		}
		ref.Prop = prop
		rest = name
	}
	if m := indexedRe.FindStringSubmatch(rest); m != nil {
		idx, err := strconv.Atoi(m[2])
		if err != nil {
			return d, evalerr.Parsef("invalid index %q", m[2])
		}
		ref.Name = m[1]
		ref.Index = idx
		ref.HasIndex = true
	} else {
		if !identRe.MatchString(rest) {
			return d, evalerr.Parsef("invalid variable name %q", rest)
		}
		ref.Name = rest
	}
	d.Kind = KindVariable
	d.Variable = &ref
	return d, nil
}

func classifySwitch(d Directive, expr string) (Directive, *evalerr.Error) {
	open := strings.Index(expr, "switch[")
	if !strings.HasSuffix(expr, "]") {
		return d, evalerr.Parsef("switch is missing its closing bracket")
	}
	subject := strings.TrimSpace(expr[:open])
	if !strings.HasPrefix(subject, "@") && !strings.HasPrefix(subject, "$") {
		return d, evalerr.Parsef("switch subject must be a @placeholder or $variable, got %q", subject)
	}
	body := expr[open+len("switch[") : len(expr)-1]

	spec := SwitchSpec{Subject: subject}
	for _, part := range strings.Split(body, ",") {
		key, value, ok := strings.Cut(part, ":")
		if !ok {
			return d, evalerr.Parsef("switch case %q is missing a colon", part)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "default" {
			spec.Default = value
			spec.HasDefault = true
			continue
		}
		spec.Cases = append(spec.Cases, SwitchCase{Key: key, Value: value})
	}
	if len(spec.Cases) == 0 && !spec.HasDefault {
		return d, evalerr.Parsef("switch has no cases")
	}
	d.Kind = KindSwitch
	d.Switch = &spec
	return d, nil
}
