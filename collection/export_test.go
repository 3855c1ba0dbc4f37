package collection

import (
	"testing"
)

func TestResolveExportClosure(t *testing.T) {
	reg := NewRegistry()

	// dungeon -> bestiary -> traits, dungeon -> weather. "lost" never loads.
	bestiary := docWithNamespace("bestiary")
	bestiary.Imports = []Import{{Path: "traits", Alias: "t"}, {Path: "lost", Alias: "l"}}
	traits := docWithNamespace("traits")
	weather := docWithNamespace("weather")
	for _, c := range []*Collection{bestiary, traits, weather} {
		if err := reg.Add(c); err != nil {
			t.Fatal(err)
		}
	}

	primary := docWithNamespace("dungeon")
	primary.Imports = []Import{
		{Path: "bestiary", Alias: "b"},
		{Path: "weather", Alias: "w"},
	}

	bundle := ResolveExportClosure(primary, reg)
	if bundle.Primary != primary {
		t.Error("primary must be carried through")
	}

	got := make([]string, len(bundle.Imported))
	for i, c := range bundle.Imported {
		got[i] = c.Metadata.Namespace
	}
	// Breadth-first discovery: direct imports before transitive ones.
	expected := []string{"bestiary", "weather", "traits"}
	if len(got) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("expected %v, got %v", expected, got)
		}
	}

	if len(bundle.Dangling) != 1 || bundle.Dangling[0] != "lost" {
		t.Errorf("expected dangling [lost], got %v", bundle.Dangling)
	}
}

func TestResolveExportClosureDeduplicates(t *testing.T) {
	reg := NewRegistry()
	shared := docWithNamespace("shared")
	mid := docWithNamespace("mid")
	mid.Imports = []Import{{Path: "shared", Alias: "s"}}
	for _, c := range []*Collection{shared, mid} {
		if err := reg.Add(c); err != nil {
			t.Fatal(err)
		}
	}

	// Both paths reach "shared"; it must appear once.
	primary := docWithNamespace("top")
	primary.Imports = []Import{
		{Path: "shared", Alias: "s"},
		{Path: "mid", Alias: "m"},
	}

	bundle := ResolveExportClosure(primary, reg)
	if len(bundle.Imported) != 2 {
		t.Fatalf("expected 2 imported documents, got %d", len(bundle.Imported))
	}
}

func TestResolveExportClosureNoImports(t *testing.T) {
	bundle := ResolveExportClosure(docWithNamespace("solo"), NewRegistry())
	if len(bundle.Imported) != 0 || len(bundle.Dangling) != 0 {
		t.Errorf("expected empty closure, got %+v", bundle)
	}
}

func TestResolveExportClosureIgnoresSelfImport(t *testing.T) {
	reg := NewRegistry()
	primary := docWithNamespace("loop")
	primary.Imports = []Import{{Path: "loop", Alias: "me"}}
	if err := reg.Add(primary); err != nil {
		t.Fatal(err)
	}

	bundle := ResolveExportClosure(primary, reg)
	if len(bundle.Imported) != 0 {
		t.Errorf("a document must not import itself into its own closure, got %v", bundle.Imported)
	}
}
