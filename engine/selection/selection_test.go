package selection

import (
	"math"
	"testing"

	"github.com/fatesmith/fatesmith/collection"
	"github.com/fatesmith/fatesmith/engine/evalerr"
)

func weightedEntry(id string, weight float64) collection.Entry {
	return collection.Entry{ID: id, Value: id, Weight: &weight}
}

func rangedEntry(id string, start, end int) collection.Entry {
	return collection.Entry{ID: id, Value: id, Range: &collection.Range{Start: start, End: end}}
}

func TestWeightedConvergence(t *testing.T) {
	entries := []collection.Entry{
		weightedEntry("common", 6),
		weightedEntry("uncommon", 3),
		weightedEntry("rare", 1),
	}
	rng := NewSource(42)

	const draws = 10000
	counts := make(map[string]int)
	for i := 0; i < draws; i++ {
		p, err := Weighted(entries, rng)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		counts[p.Entry.ID]++
	}

	// Expected proportions 0.6 / 0.3 / 0.1 within a loose tolerance.
	assertProportion(t, counts["common"], draws, 0.6)
	assertProportion(t, counts["uncommon"], draws, 0.3)
	assertProportion(t, counts["rare"], draws, 0.1)
}

func assertProportion(t *testing.T, count, total int, expected float64) {
	t.Helper()
	got := float64(count) / float64(total)
	if math.Abs(got-expected) > 0.03 {
		t.Errorf("proportion %.3f too far from expected %.3f", got, expected)
	}
}

func TestWeightedDefaultWeight(t *testing.T) {
	// Entries without explicit weights select uniformly.
	entries := []collection.Entry{
		{ID: "a", Value: "a"},
		{ID: "b", Value: "b"},
	}
	rng := NewSource(7)
	counts := make(map[string]int)
	for i := 0; i < 2000; i++ {
		p, err := Weighted(entries, rng)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		counts[p.Entry.ID]++
	}
	assertProportion(t, counts["a"], 2000, 0.5)
}

func TestWeightedErrors(t *testing.T) {
	rng := NewSource(1)

	if _, err := Weighted(nil, rng); err == nil {
		t.Error("expected error for empty pool")
	}

	zero := 0.0
	pool := []collection.Entry{{ID: "z", Weight: &zero}}
	if _, err := Weighted(pool, rng); err == nil {
		t.Error("expected error for zero-weight pool")
	}
}

func TestRangedCoversPartition(t *testing.T) {
	entries := []collection.Entry{
		rangedEntry("low", 1, 3),
		rangedEntry("mid", 4, 5),
		rangedEntry("high", 6, 6),
	}
	rng := NewSource(99)

	counts := make(map[string]int)
	for i := 0; i < 6000; i++ {
		p, err := Ranged(entries, rng)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Draw < 1 || p.Draw > 6 {
			t.Fatalf("draw %v outside [1,6]", p.Draw)
		}
		counts[p.Entry.ID]++
	}

	// low spans 3 of 6 faces, mid 2, high 1.
	assertProportion(t, counts["low"], 6000, 0.5)
	assertProportion(t, counts["mid"], 6000, 1.0/3.0)
	assertProportion(t, counts["high"], 6000, 1.0/6.0)
}

func TestRangedSingleValue(t *testing.T) {
	entries := []collection.Entry{rangedEntry("only", 5, 5)}
	p, err := Ranged(entries, NewSource(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Entry.ID != "only" || p.Draw != 5 {
		t.Errorf("unexpected pick: %+v", p)
	}
}

func TestSelectDispatchesByMode(t *testing.T) {
	rng := NewSource(5)

	ranged := []collection.Entry{rangedEntry("r", 1, 2)}
	if !IsRangeMode(ranged) {
		t.Error("expected range mode")
	}
	if _, err := Select(ranged, rng); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	weighted := []collection.Entry{weightedEntry("w", 2)}
	if IsRangeMode(weighted) {
		t.Error("expected weight mode")
	}
	if _, err := Select(weighted, rng); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestUniqueNoRepeats(t *testing.T) {
	entries := []collection.Entry{
		weightedEntry("a", 1),
		weightedEntry("b", 1),
		weightedEntry("c", 1),
		weightedEntry("d", 1),
	}
	picks, err := Unique(entries, 3, collection.OverflowStop, NewSource(11))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(picks) != 3 {
		t.Fatalf("expected 3 picks, got %d", len(picks))
	}
	seen := make(map[string]bool)
	for _, p := range picks {
		if seen[p.Entry.ID] {
			t.Errorf("entry %q drawn twice", p.Entry.ID)
		}
		seen[p.Entry.ID] = true
	}
}

func TestUniquePickIndicesAreOriginal(t *testing.T) {
	entries := []collection.Entry{
		weightedEntry("a", 1),
		weightedEntry("b", 1),
		weightedEntry("c", 1),
	}
	// maxSource always draws the first pool element, so without index
	// remapping every pick would report index 0.
	picks, err := Unique(entries, 3, collection.OverflowStop, maxSource{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for want, p := range picks {
		if p.Index != want {
			t.Errorf("pick %d: expected entry index %d, got %d", want, want, p.Index)
		}
		if p.Entry.ID != entries[want].ID {
			t.Errorf("pick %d: expected entry %q, got %q", want, entries[want].ID, p.Entry.ID)
		}
	}

	// Cycling refills the pool; indices restart from the table's entries.
	picks, err = Unique(entries, 4, collection.OverflowCycle, maxSource{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(picks) != 4 || picks[3].Index != 0 {
		t.Errorf("expected cycled fourth pick at entry index 0, got %+v", picks)
	}
}

func TestUniqueOverflowStop(t *testing.T) {
	entries := []collection.Entry{
		weightedEntry("a", 1),
		weightedEntry("b", 1),
	}
	picks, err := Unique(entries, 5, collection.OverflowStop, NewSource(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(picks) != 2 {
		t.Errorf("expected 2 picks under stop policy, got %d", len(picks))
	}
}

func TestUniqueOverflowCycle(t *testing.T) {
	entries := []collection.Entry{
		weightedEntry("a", 1),
		weightedEntry("b", 1),
	}
	picks, err := Unique(entries, 5, collection.OverflowCycle, NewSource(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(picks) != 5 {
		t.Errorf("expected 5 picks under cycle policy, got %d", len(picks))
	}
}

func TestUniqueOverflowError(t *testing.T) {
	entries := []collection.Entry{weightedEntry("a", 1)}
	_, err := Unique(entries, 3, collection.OverflowError, NewSource(2))
	if err == nil {
		t.Fatal("expected selection error under error policy")
	}
	if err.Kind != evalerr.KindSelection {
		t.Errorf("expected selection kind, got %v", err.Kind)
	}
}

func TestUniqueCycleUnselectablePool(t *testing.T) {
	if _, err := Unique(nil, 2, collection.OverflowCycle, NewSource(2)); err == nil {
		t.Fatal("expected error cycling an empty pool")
	}
}

func TestWeightedIndex(t *testing.T) {
	rng := NewSource(8)

	// Zero weights default to 1, so both sources stay selectable.
	counts := [2]int{}
	for i := 0; i < 4000; i++ {
		idx, err := WeightedIndex([]float64{0, 3}, rng)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		counts[idx]++
	}
	assertProportion(t, counts[0], 4000, 0.25)
	assertProportion(t, counts[1], 4000, 0.75)

	if _, err := WeightedIndex(nil, rng); err == nil {
		t.Error("expected error for empty source list")
	}
}

func TestSeededSourceIsDeterministic(t *testing.T) {
	entries := []collection.Entry{
		weightedEntry("a", 1),
		weightedEntry("b", 2),
		weightedEntry("c", 3),
	}
	var first, second []string
	for _, out := range []*[]string{&first, &second} {
		rng := NewSource(1234)
		for i := 0; i < 50; i++ {
			p, err := Weighted(entries, rng)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			*out = append(*out, p.Entry.ID)
		}
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("draw %d differs: %q vs %q", i, first[i], second[i])
		}
	}
}
