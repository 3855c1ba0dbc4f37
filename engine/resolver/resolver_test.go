package resolver

import (
	"testing"

	"github.com/fatesmith/fatesmith/collection"
	"github.com/fatesmith/fatesmith/engine/evalerr"
)

func simpleTable(id string, values ...string) collection.Table {
	t := collection.Table{ID: id, Type: collection.TableSimple}
	for _, v := range values {
		t.Entries = append(t.Entries, collection.Entry{Value: v})
	}
	return t
}

func testDoc() *collection.Collection {
	return &collection.Collection{
		Metadata: collection.Metadata{
			Namespace:           "dungeon",
			MaxInheritanceDepth: 5,
		},
		Tables: []collection.Table{
			simpleTable("creature", "goblin", "ogre"),
			{
				ID:      "elite_creature",
				Type:    collection.TableSimple,
				Extends: "creature",
			},
		},
		Templates: []collection.Template{
			{ID: "encounter", Pattern: "a {{creature}} appears"},
		},
	}
}

func TestResolveLocalPrecedence(t *testing.T) {
	doc := testDoc()
	// A template and a table sharing an id would be a load error; with
	// distinct ids, templates win the lookup order.
	doc.Templates = append(doc.Templates, collection.Template{ID: "creature_report", Pattern: "x"})

	r := New(collection.NewRegistry())

	res, err := r.Resolve("encounter", doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Template == nil || res.Template.ID != "encounter" {
		t.Errorf("expected template, got %+v", res)
	}
	if res.Doc != doc {
		t.Error("expected owning document to be the local one")
	}

	res, err = r.Resolve("creature", doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Table == nil || res.Table.ID != "creature" {
		t.Errorf("expected table, got %+v", res)
	}
}

func TestResolveUnknownIdent(t *testing.T) {
	r := New(collection.NewRegistry())
	_, err := r.Resolve("phantom", testDoc())
	if err == nil || err.Kind != evalerr.KindResolution {
		t.Fatalf("expected resolution error, got %v", err)
	}
}

func TestResolveImportAlias(t *testing.T) {
	reg := collection.NewRegistry()

	foreign := &collection.Collection{
		Metadata: collection.Metadata{Namespace: "bestiary"},
		Tables:   []collection.Table{simpleTable("dragon", "red dragon")},
	}
	if err := reg.Add(foreign); err != nil {
		t.Fatal(err)
	}

	doc := testDoc()
	doc.Imports = []collection.Import{{Path: "bestiary", Alias: "b"}}

	r := New(reg)
	res, err := r.Resolve("b.dragon", doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Table == nil || res.Table.ID != "dragon" {
		t.Errorf("expected foreign table, got %+v", res)
	}
	if res.Doc != foreign {
		t.Error("foreign rolls must evaluate in the foreign document")
	}
}

func TestResolveImportErrors(t *testing.T) {
	doc := testDoc()
	doc.Imports = []collection.Import{{Path: "bestiary", Alias: "b"}}

	// Alias not declared at all.
	r := New(collection.NewRegistry())
	if _, err := r.Resolve("x.dragon", doc); err == nil || err.Kind != evalerr.KindResolution {
		t.Fatalf("expected resolution error for unknown alias, got %v", err)
	}

	// Alias declared but the target document was never loaded.
	if _, err := r.Resolve("b.dragon", doc); err == nil || err.Kind != evalerr.KindResolution {
		t.Fatalf("expected resolution error for unloaded import, got %v", err)
	}

	// Target loaded but the id does not exist there.
	reg := collection.NewRegistry()
	if err := reg.Add(&collection.Collection{Metadata: collection.Metadata{Namespace: "bestiary"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := New(reg).Resolve("b.dragon", doc); err == nil || err.Kind != evalerr.KindResolution {
		t.Fatalf("expected resolution error for missing foreign id, got %v", err)
	}
}

func TestInheritedEntriesOverrideAndAppend(t *testing.T) {
	w := func(v float64) *float64 { return &v }
	doc := &collection.Collection{
		Metadata: collection.Metadata{Namespace: "d", MaxInheritanceDepth: 5},
		Tables: []collection.Table{
			{
				ID:   "base",
				Type: collection.TableSimple,
				Entries: []collection.Entry{
					{ID: "a", Value: "apple", Weight: w(1)},
					{ID: "b", Value: "bread"},
					{Value: "carrot"},
				},
			},
			{
				ID:      "child",
				Type:    collection.TableSimple,
				Extends: "base",
				Entries: []collection.Entry{
					{ID: "a", Value: "apricot", Weight: w(9)}, // overrides in place
					{ID: "d", Value: "date"},                  // appended
				},
			},
		},
	}

	r := New(collection.NewRegistry())
	entries, err := r.Entries(doc.TableByID("child"), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	values := make([]string, len(entries))
	for i, e := range entries {
		values[i] = e.Value
	}
	expected := []string{"apricot", "bread", "carrot", "date"}
	if len(values) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, values)
	}
	for i := range expected {
		if values[i] != expected[i] {
			t.Fatalf("expected %v, got %v", expected, values)
		}
	}
	if entries[0].EffectiveWeight() != 9 {
		t.Errorf("override must carry the child weight, got %v", entries[0].EffectiveWeight())
	}
}

func TestInheritanceDepthBound(t *testing.T) {
	// A cycle never terminates, so the depth bound must fire.
	doc := &collection.Collection{
		Metadata: collection.Metadata{Namespace: "d", MaxInheritanceDepth: 3},
		Tables: []collection.Table{
			{ID: "a", Type: collection.TableSimple, Extends: "b"},
			{ID: "b", Type: collection.TableSimple, Extends: "a"},
		},
	}

	r := New(collection.NewRegistry())
	_, err := r.Entries(doc.TableByID("a"), doc)
	if err == nil || err.Kind != evalerr.KindDepthExceeded {
		t.Fatalf("expected depth error, got %v", err)
	}
}

func TestExtendsUnknownParent(t *testing.T) {
	doc := &collection.Collection{
		Metadata: collection.Metadata{Namespace: "d", MaxInheritanceDepth: 5},
		Tables: []collection.Table{
			{ID: "a", Type: collection.TableSimple, Extends: "nowhere"},
		},
	}
	_, err := New(collection.NewRegistry()).Entries(doc.TableByID("a"), doc)
	if err == nil || err.Kind != evalerr.KindResolution {
		t.Fatalf("expected resolution error, got %v", err)
	}
}

func TestCollectionPoolsInheritedEntries(t *testing.T) {
	doc := &collection.Collection{
		Metadata: collection.Metadata{Namespace: "d", MaxInheritanceDepth: 5},
		Tables: []collection.Table{
			simpleTable("fish", "trout"),
			{
				ID:      "big_fish",
				Type:    collection.TableSimple,
				Extends: "fish",
				Entries: []collection.Entry{{Value: "pike"}},
			},
			simpleTable("fowl", "duck"),
			{
				ID:          "dinner",
				Type:        collection.TableCollection,
				Collections: []string{"big_fish", "fowl"},
			},
		},
	}

	entries, err := New(collection.NewRegistry()).Entries(doc.TableByID("dinner"), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// big_fish contributes its inherited trout plus pike, fowl its duck.
	if len(entries) != 3 {
		t.Fatalf("expected 3 pooled entries, got %d", len(entries))
	}
}

func TestCollectionRejectsCompositeMember(t *testing.T) {
	doc := &collection.Collection{
		Metadata: collection.Metadata{Namespace: "d", MaxInheritanceDepth: 5},
		Tables: []collection.Table{
			simpleTable("fish", "trout"),
			{
				ID:      "mixed",
				Type:    collection.TableComposite,
				Sources: []collection.CompositeSource{{TableID: "fish"}},
			},
			{
				ID:          "pool",
				Type:        collection.TableCollection,
				Collections: []string{"mixed"},
			},
		},
	}

	_, err := New(collection.NewRegistry()).Entries(doc.TableByID("pool"), doc)
	if err == nil || err.Kind != evalerr.KindResolution {
		t.Fatalf("expected resolution error, got %v", err)
	}
}

func TestEntriesRejectsComposite(t *testing.T) {
	doc := &collection.Collection{
		Metadata: collection.Metadata{Namespace: "d"},
		Tables: []collection.Table{
			{ID: "c", Type: collection.TableComposite},
		},
	}
	if _, err := New(collection.NewRegistry()).Entries(doc.TableByID("c"), doc); err == nil {
		t.Fatal("expected error for composite table entry listing")
	}
}
