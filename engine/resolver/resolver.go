// Package resolver maps table and template identifiers to their definitions,
// applying import-alias namespacing and extends-chain inheritance.
package resolver

import (
	"strings"

	"github.com/fatesmith/fatesmith/collection"
	"github.com/fatesmith/fatesmith/engine/evalerr"
)

// Resolved is the outcome of resolving an identifier: exactly one of Table
// or Template is set, along with the document that owns it. Rolls against a
// foreign table evaluate in the foreign document's context.
type Resolved struct {
	Doc      *collection.Collection
	Table    *collection.Table
	Template *collection.Template
}

// Resolver resolves identifiers against a registry of loaded documents.
type Resolver struct {
	reg *collection.Registry
}

// New creates a resolver over the registry.
func New(reg *collection.Registry) *Resolver {
	return &Resolver{reg: reg}
}

// Resolve looks up a bare or alias-qualified identifier relative to doc.
// Resolution order: local templates, local tables, then, for alias.id, the
// import's target document's templates and tables.
func (r *Resolver) Resolve(ident string, doc *collection.Collection) (Resolved, *evalerr.Error) {
	alias, id, qualified := strings.Cut(ident, ".")
	if !qualified {
		id = ident
		if tpl := doc.TemplateByID(id); tpl != nil {
			return Resolved{Doc: doc, Template: tpl}, nil
		}
		if t := doc.TableByID(id); t != nil {
			return Resolved{Doc: doc, Table: t}, nil
		}
		return Resolved{}, evalerr.Resolutionf("unknown table or template %q in %q", id, doc.Metadata.Namespace)
	}

	imp := doc.ImportByAlias(alias)
	if imp == nil {
		return Resolved{}, evalerr.Resolutionf("unknown import alias %q in %q", alias, doc.Metadata.Namespace)
	}
	target := r.reg.Get(imp.Path)
	if target == nil {
		return Resolved{}, evalerr.Resolutionf("import %q (alias %q) is not loaded", imp.Path, alias)
	}
	if tpl := target.TemplateByID(id); tpl != nil {
		return Resolved{Doc: target, Template: tpl}, nil
	}
	if t := target.TableByID(id); t != nil {
		return Resolved{Doc: target, Table: t}, nil
	}
	return Resolved{}, evalerr.Resolutionf("unknown table or template %q in imported %q", id, imp.Path)
}

// Entries returns the selectable entry list of a simple or collection table.
// For simple tables the extends chain is merged; for collection tables every
// member is fully resolved (its own inheritance applied) before its entries
// are pooled. Composite tables have no entry list; their delegation happens
// during evaluation.
func (r *Resolver) Entries(t *collection.Table, doc *collection.Collection) ([]collection.Entry, *evalerr.Error) {
	switch t.Type {
	case collection.TableSimple:
		return r.inheritedEntries(t, doc)
	case collection.TableCollection:
		var pool []collection.Entry
		for _, memberID := range t.Collections {
			res, err := r.Resolve(memberID, doc)
			if err != nil {
				return nil, err
			}
			if res.Table == nil {
				return nil, evalerr.Resolutionf("collection table %q member %q is not a table", t.ID, memberID)
			}
			if res.Table.Type == collection.TableComposite {
				return nil, evalerr.Resolutionf("collection table %q cannot pool composite table %q", t.ID, memberID)
			}
			entries, err := r.Entries(res.Table, res.Doc)
			if err != nil {
				return nil, err
			}
			pool = append(pool, entries...)
		}
		return pool, nil
	default:
		return nil, evalerr.Resolutionf("table %q of type %q has no entry list", t.ID, t.Type)
	}
}

// inheritedEntries walks the extends chain and merges child entries over the
// parent's. Entries match by id: a child entry whose id appears in the
// parent replaces it in place; entries without an id, or with an unmatched
// id, are appended. The chain is bounded by maxInheritanceDepth; exceeding
// it is fatal, not silently truncated.
func (r *Resolver) inheritedEntries(t *collection.Table, doc *collection.Collection) ([]collection.Entry, *evalerr.Error) {
	maxDepth := doc.Metadata.MaxInheritanceDepth

	// Collect the chain from t up to the root ancestor.
	chain := []*collection.Table{t}
	names := []string{t.ID}
	cur := t
	for cur.Extends != "" {
		if len(chain) > maxDepth {
			return nil, evalerr.Depthf(maxDepth, names, "inheritance chain of table %q is too deep", t.ID)
		}
		parent := doc.TableByID(cur.Extends)
		if parent == nil {
			return nil, evalerr.Resolutionf("table %q extends unknown table %q", cur.ID, cur.Extends)
		}
		if parent.Type != collection.TableSimple {
			return nil, evalerr.Resolutionf("table %q extends %q, which is not a simple table", cur.ID, parent.ID)
		}
		chain = append(chain, parent)
		names = append(names, parent.ID)
		cur = parent
	}

	// Merge from the root ancestor down to t.
	var merged []collection.Entry
	index := make(map[string]int)
	for i := len(chain) - 1; i >= 0; i-- {
		for _, e := range chain[i].Entries {
			if e.ID != "" {
				if pos, ok := index[e.ID]; ok {
					merged[pos] = e
					continue
				}
				index[e.ID] = len(merged)
			}
			merged = append(merged, e)
		}
	}
	return merged, nil
}
