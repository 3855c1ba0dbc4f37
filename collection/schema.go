// Package collection defines the declarative document model consumed by the
// Fatesmith engine: tables, templates, variables and imports, plus the
// registry of loaded documents and export closure resolution.
package collection

// TableType discriminates the table tagged union.
type TableType string

const (
	// TableSimple holds an ordered entry list, optionally extending another
	// simple table.
	TableSimple TableType = "simple"
	// TableComposite delegates each roll to one of its weighted sources.
	TableComposite TableType = "composite"
	// TableCollection pools the entries of its member tables.
	TableCollection TableType = "collection"
)

// OverflowBehavior governs unique-without-replacement selection once the
// candidate pool is exhausted.
type OverflowBehavior string

const (
	// OverflowStop returns fewer results than requested.
	OverflowStop OverflowBehavior = "stop"
	// OverflowCycle allows repeats once the pool is exhausted.
	OverflowCycle OverflowBehavior = "cycle"
	// OverflowError fails the evaluation.
	OverflowError OverflowBehavior = "error"
)

// Default limits applied by Metadata.normalize when a document omits them.
const (
	DefaultMaxRecursionDepth   = 10
	DefaultMaxExplodingDice    = 100
	DefaultMaxInheritanceDepth = 5
)

// Collection is a loaded document: the unit of registration and namespacing.
type Collection struct {
	Metadata  Metadata          `json:"metadata" yaml:"metadata"`
	Imports   []Import          `json:"imports,omitempty" yaml:"imports,omitempty"`
	Tables    []Table           `json:"tables,omitempty" yaml:"tables,omitempty"`
	Templates []Template        `json:"templates,omitempty" yaml:"templates,omitempty"`
	Variables map[string]string `json:"variables,omitempty" yaml:"variables,omitempty"`
	Shared    []SharedVariable  `json:"shared,omitempty" yaml:"shared,omitempty"`
}

// Metadata carries document identity and evaluation limits.
type Metadata struct {
	Name                string           `json:"name" yaml:"name"`
	Namespace           string           `json:"namespace" yaml:"namespace"`
	Version             string           `json:"version,omitempty" yaml:"version,omitempty"`
	MaxRecursionDepth   int              `json:"maxRecursionDepth,omitempty" yaml:"maxRecursionDepth,omitempty"`
	MaxExplodingDice    int              `json:"maxExplodingDice,omitempty" yaml:"maxExplodingDice,omitempty"`
	MaxInheritanceDepth int              `json:"maxInheritanceDepth,omitempty" yaml:"maxInheritanceDepth,omitempty"`
	UniqueOverflow      OverflowBehavior `json:"uniqueOverflowBehavior,omitempty" yaml:"uniqueOverflowBehavior,omitempty"`
}

// normalize fills zero-valued limits with engine defaults.
func (m *Metadata) normalize() {
	if m.MaxRecursionDepth <= 0 {
		m.MaxRecursionDepth = DefaultMaxRecursionDepth
	}
	if m.MaxExplodingDice <= 0 {
		m.MaxExplodingDice = DefaultMaxExplodingDice
	}
	if m.MaxInheritanceDepth <= 0 {
		m.MaxInheritanceDepth = DefaultMaxInheritanceDepth
	}
	if m.UniqueOverflow == "" {
		m.UniqueOverflow = OverflowStop
	}
}

// Import references another loaded document. Path identifies the target by
// its declared namespace; Alias is the local qualifier used as "alias.id".
type Import struct {
	Path        string `json:"path" yaml:"path"`
	Alias       string `json:"alias" yaml:"alias"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// SharedVariable is one generation-scoped variable declaration. Declaration
// order is significant: forward references between shared variables fail.
type SharedVariable struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// Table is one rollable table. Which fields apply depends on Type.
type Table struct {
	ID          string            `json:"id" yaml:"id"`
	Name        string            `json:"name,omitempty" yaml:"name,omitempty"`
	Type        TableType         `json:"type" yaml:"type"`
	Extends     string            `json:"extends,omitempty" yaml:"extends,omitempty"`
	Entries     []Entry           `json:"entries,omitempty" yaml:"entries,omitempty"`
	Sources     []CompositeSource `json:"sources,omitempty" yaml:"sources,omitempty"`
	Collections []string          `json:"collections,omitempty" yaml:"collections,omitempty"`
	ResultType  string            `json:"resultType,omitempty" yaml:"resultType,omitempty"`
	Hidden      bool              `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	Shared      bool              `json:"shared,omitempty" yaml:"shared,omitempty"`
	DefaultSets map[string]string `json:"defaultSets,omitempty" yaml:"defaultSets,omitempty"`
	Source      string            `json:"source,omitempty" yaml:"source,omitempty"`
	Tags        []string          `json:"tags,omitempty" yaml:"tags,omitempty"`
	SharedVars  []SharedVariable  `json:"sharedVariables,omitempty" yaml:"sharedVariables,omitempty"`
}

// CompositeSource is one weighted delegate of a composite table.
type CompositeSource struct {
	TableID string  `json:"tableId" yaml:"tableId"`
	Weight  float64 `json:"weight,omitempty" yaml:"weight,omitempty"`
}

// Range is an inclusive draw interval for range-mode entries.
type Range struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// Entry is one selectable row of a simple table. Exactly one of Weight or
// Range applies; an absent weight defaults to 1.
type Entry struct {
	ID          string            `json:"id,omitempty" yaml:"id,omitempty"`
	Value       string            `json:"value" yaml:"value"`
	Weight      *float64          `json:"weight,omitempty" yaml:"weight,omitempty"`
	Range       *Range            `json:"range,omitempty" yaml:"range,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	ResultType  string            `json:"resultType,omitempty" yaml:"resultType,omitempty"`
	Sets        map[string]string `json:"sets,omitempty" yaml:"sets,omitempty"`
	Assets      []string          `json:"assets,omitempty" yaml:"assets,omitempty"`
	Tags        []string          `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// EffectiveWeight returns the entry weight, defaulting to 1.
func (e *Entry) EffectiveWeight() float64 {
	if e.Weight == nil {
		return 1
	}
	return *e.Weight
}

// Template is a standalone pattern, independent of any entry pool.
type Template struct {
	ID         string           `json:"id" yaml:"id"`
	Name       string           `json:"name,omitempty" yaml:"name,omitempty"`
	Pattern    string           `json:"pattern" yaml:"pattern"`
	ResultType string           `json:"resultType,omitempty" yaml:"resultType,omitempty"`
	Shared     bool             `json:"shared,omitempty" yaml:"shared,omitempty"`
	Tags       []string         `json:"tags,omitempty" yaml:"tags,omitempty"`
	SharedVars []SharedVariable `json:"sharedVariables,omitempty" yaml:"sharedVariables,omitempty"`
}

// TableByID returns the table with the given id, or nil.
func (c *Collection) TableByID(id string) *Table {
	for i := range c.Tables {
		if c.Tables[i].ID == id {
			return &c.Tables[i]
		}
	}
	return nil
}

// TemplateByID returns the template with the given id, or nil.
func (c *Collection) TemplateByID(id string) *Template {
	for i := range c.Templates {
		if c.Templates[i].ID == id {
			return &c.Templates[i]
		}
	}
	return nil
}

// ImportByAlias returns the import declared under alias, or nil.
func (c *Collection) ImportByAlias(alias string) *Import {
	for i := range c.Imports {
		if c.Imports[i].Alias == alias {
			return &c.Imports[i]
		}
	}
	return nil
}
