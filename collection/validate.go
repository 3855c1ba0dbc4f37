package collection

import (
	"regexp"
	"sort"
	"strings"

	"github.com/fatesmith/fatesmith/engine/evalerr"
)

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// Validate checks the document's structural integrity. It returns every
// problem found rather than stopping at the first, so editors can surface a
// complete report. Range partition checks happen here: a gap or overlap is a
// load-time failure, never a selection-time one.
func (c *Collection) Validate() evalerr.List {
	var errs evalerr.List

	if c.Metadata.Name == "" {
		errs = append(errs, evalerr.Documentf("metadata.name is required"))
	}
	if c.Metadata.Namespace == "" {
		errs = append(errs, evalerr.Documentf("metadata.namespace is required"))
	} else if !identifierRe.MatchString(c.Metadata.Namespace) {
		errs = append(errs, evalerr.Documentf("metadata.namespace %q is not a valid identifier", c.Metadata.Namespace))
	}
	switch c.Metadata.UniqueOverflow {
	case "", OverflowStop, OverflowCycle, OverflowError:
	default:
		errs = append(errs, evalerr.Documentf("unknown uniqueOverflowBehavior %q", c.Metadata.UniqueOverflow))
	}

	errs = append(errs, c.validateImports()...)
	errs = append(errs, c.validateTables()...)
	errs = append(errs, c.validateTemplates()...)
	errs = append(errs, c.validateShared()...)

	return errs
}

func (c *Collection) validateImports() evalerr.List {
	var errs evalerr.List
	seen := make(map[string]bool, len(c.Imports))
	for _, imp := range c.Imports {
		if imp.Path == "" {
			errs = append(errs, evalerr.Documentf("import with alias %q has no path", imp.Alias))
		}
		if imp.Alias == "" {
			errs = append(errs, evalerr.Documentf("import %q has no alias", imp.Path))
			continue
		}
		if strings.Contains(imp.Alias, ".") {
			errs = append(errs, evalerr.Documentf("import alias %q must not contain dots", imp.Alias))
		}
		if seen[imp.Alias] {
			errs = append(errs, evalerr.Documentf("duplicate import alias %q", imp.Alias))
		}
		seen[imp.Alias] = true
	}
	return errs
}

func (c *Collection) validateTables() evalerr.List {
	var errs evalerr.List
	ids := make(map[string]bool, len(c.Tables))
	for i := range c.Tables {
		t := &c.Tables[i]
		if t.ID == "" {
			errs = append(errs, evalerr.Documentf("table at index %d has no id", i))
			continue
		}
		if !identifierRe.MatchString(t.ID) {
			errs = append(errs, evalerr.Documentf("table id %q is not a valid identifier", t.ID))
		}
		if ids[t.ID] {
			errs = append(errs, evalerr.Documentf("duplicate table id %q", t.ID))
		}
		ids[t.ID] = true

		switch t.Type {
		case TableSimple:
			errs = append(errs, c.validateSimple(t)...)
		case TableComposite:
			if t.Extends != "" {
				errs = append(errs, evalerr.Documentf("composite table %q may not use extends", t.ID))
			}
			if len(t.Sources) == 0 {
				errs = append(errs, evalerr.Documentf("composite table %q has no sources", t.ID))
			}
			for _, src := range t.Sources {
				if src.TableID == "" {
					errs = append(errs, evalerr.Documentf("composite table %q has a source without tableId", t.ID))
				}
				if src.Weight < 0 {
					errs = append(errs, evalerr.Documentf("composite table %q source %q has negative weight", t.ID, src.TableID))
				}
			}
		case TableCollection:
			if t.Extends != "" {
				errs = append(errs, evalerr.Documentf("collection table %q may not use extends", t.ID))
			}
			if len(t.Collections) == 0 {
				errs = append(errs, evalerr.Documentf("collection table %q has no member tables", t.ID))
			}
		default:
			errs = append(errs, evalerr.Documentf("table %q has unknown type %q", t.ID, t.Type))
		}
	}

	// Extends targets must be local simple tables. Composite and collection
	// tables may not be extended.
	for i := range c.Tables {
		t := &c.Tables[i]
		if t.Extends == "" {
			continue
		}
		parent := c.TableByID(t.Extends)
		if parent == nil {
			errs = append(errs, evalerr.Documentf("table %q extends unknown table %q", t.ID, t.Extends))
		} else if parent.Type != TableSimple {
			errs = append(errs, evalerr.Documentf("table %q extends %q, which is not a simple table", t.ID, t.Extends))
		}
	}
	return errs
}

func (c *Collection) validateSimple(t *Table) evalerr.List {
	var errs evalerr.List
	if len(t.Entries) == 0 && t.Extends == "" {
		errs = append(errs, evalerr.Documentf("simple table %q has no entries", t.ID))
		return errs
	}

	ranged := 0
	for i := range t.Entries {
		e := &t.Entries[i]
		if e.Weight != nil && e.Range != nil {
			errs = append(errs, evalerr.Documentf("table %q entry %d declares both weight and range", t.ID, i))
		}
		if e.Weight != nil && *e.Weight < 0 {
			errs = append(errs, evalerr.Documentf("table %q entry %d has negative weight", t.ID, i))
		}
		if e.Range != nil {
			ranged++
			if e.Range.Start > e.Range.End {
				errs = append(errs, evalerr.Documentf("table %q entry %d has inverted range [%d,%d]", t.ID, i, e.Range.Start, e.Range.End))
			}
		}
	}

	if ranged > 0 {
		if ranged != len(t.Entries) {
			errs = append(errs, evalerr.Documentf("table %q mixes range and weight entries", t.ID))
		} else {
			errs = append(errs, validateRangePartition(t)...)
		}
	}
	return errs
}

// validateRangePartition checks that the declared ranges tile
// [min(start), max(end)] with no gaps and no overlaps, so every draw maps to
// exactly one entry.
func validateRangePartition(t *Table) evalerr.List {
	var errs evalerr.List
	ranges := make([]Range, 0, len(t.Entries))
	for _, e := range t.Entries {
		if e.Range != nil {
			ranges = append(ranges, *e.Range)
		}
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Start < ranges[j].Start })
	for i := 1; i < len(ranges); i++ {
		prev, cur := ranges[i-1], ranges[i]
		if cur.Start <= prev.End {
			errs = append(errs, evalerr.Documentf("table %q ranges [%d,%d] and [%d,%d] overlap", t.ID, prev.Start, prev.End, cur.Start, cur.End))
		} else if cur.Start != prev.End+1 {
			errs = append(errs, evalerr.Documentf("table %q has a gap between %d and %d", t.ID, prev.End, cur.Start))
		}
	}
	return errs
}

func (c *Collection) validateTemplates() evalerr.List {
	var errs evalerr.List
	ids := make(map[string]bool, len(c.Templates))
	for i := range c.Templates {
		tpl := &c.Templates[i]
		if tpl.ID == "" {
			errs = append(errs, evalerr.Documentf("template at index %d has no id", i))
			continue
		}
		if !identifierRe.MatchString(tpl.ID) {
			errs = append(errs, evalerr.Documentf("template id %q is not a valid identifier", tpl.ID))
		}
		if ids[tpl.ID] {
			errs = append(errs, evalerr.Documentf("duplicate template id %q", tpl.ID))
		}
		ids[tpl.ID] = true
		if tpl.Pattern == "" {
			errs = append(errs, evalerr.Documentf("template %q has no pattern", tpl.ID))
		}
		if c.TableByID(tpl.ID) != nil {
			errs = append(errs, evalerr.Documentf("template %q collides with a table id", tpl.ID))
		}
	}
	return errs
}

// validateShared checks document-level shared declarations and rejects table
// or template shared blocks that shadow a document-level name. Shadowing is a
// declaration-time error, reported at load.
func (c *Collection) validateShared() evalerr.List {
	var errs evalerr.List
	docShared := make(map[string]bool, len(c.Shared))
	for _, sv := range c.Shared {
		if sv.Name == "" {
			errs = append(errs, evalerr.Documentf("shared variable with empty name"))
			continue
		}
		if docShared[sv.Name] {
			errs = append(errs, evalerr.Documentf("duplicate shared variable %q", sv.Name))
		}
		docShared[sv.Name] = true
	}

	checkBlock := func(owner string, vars []SharedVariable) {
		seen := make(map[string]bool, len(vars))
		for _, sv := range vars {
			if docShared[sv.Name] {
				errs = append(errs, &evalerr.Error{
					Kind:    evalerr.KindDeclaration,
					Message: owner + " shared variable \"" + sv.Name + "\" shadows a document-level shared variable",
				})
			}
			if seen[sv.Name] {
				errs = append(errs, evalerr.Documentf("%s declares shared variable %q twice", owner, sv.Name))
			}
			seen[sv.Name] = true
		}
	}
	for i := range c.Tables {
		checkBlock("table "+c.Tables[i].ID, c.Tables[i].SharedVars)
	}
	for i := range c.Templates {
		checkBlock("template "+c.Templates[i].ID, c.Templates[i].SharedVars)
	}
	return errs
}
