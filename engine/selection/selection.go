// Package selection implements the draw semantics of the engine: weighted
// and range-mode picks over entry lists, unique without-replacement draws,
// and dice rolling with a bounded explosion budget.
package selection

import (
	"github.com/fatesmith/fatesmith/collection"
	"github.com/fatesmith/fatesmith/engine/evalerr"
)

// Pick is one selected entry plus the draw that chose it, kept for traces.
type Pick struct {
	Entry collection.Entry
	Index int
	// Draw is the continuous draw for weight mode, or the integer draw for
	// range mode (stored as float for a single field).
	Draw float64
}

// Weighted draws one entry over the cumulative weight ranges of the list:
// a uniform draw over [0, total weight) selects the first entry whose
// cumulative sum exceeds it. An empty or zero-weight pool is a selection
// error.
func Weighted(entries []collection.Entry, rng Source) (Pick, *evalerr.Error) {
	if len(entries) == 0 {
		return Pick{}, evalerr.Selectionf("cannot select from an empty pool")
	}
	var total float64
	for i := range entries {
		total += entries[i].EffectiveWeight()
	}
	if total <= 0 {
		return Pick{}, evalerr.Selectionf("cannot select from a zero-weight pool")
	}

	draw := rng.Float64() * total
	var cum float64
	for i := range entries {
		cum += entries[i].EffectiveWeight()
		if draw < cum {
			return Pick{Entry: entries[i], Index: i, Draw: draw}, nil
		}
	}
	// Float accumulation can leave the draw a hair past the last boundary.
	last := len(entries) - 1
	return Pick{Entry: entries[last], Index: last, Draw: draw}, nil
}

// Ranged draws uniformly over [min(start), max(end)] of the declared ranges
// and returns the entry whose range contains the draw. Load-time validation
// guarantees the ranges partition the interval.
func Ranged(entries []collection.Entry, rng Source) (Pick, *evalerr.Error) {
	if len(entries) == 0 {
		return Pick{}, evalerr.Selectionf("cannot select from an empty pool")
	}
	lo, hi := 0, 0
	first := true
	for i := range entries {
		r := entries[i].Range
		if r == nil {
			return Pick{}, evalerr.Selectionf("entry %d has no range in a range-mode table", i)
		}
		if first || r.Start < lo {
			lo = r.Start
		}
		if first || r.End > hi {
			hi = r.End
		}
		first = false
	}

	draw := lo + rng.Intn(hi-lo+1)
	for i := range entries {
		r := entries[i].Range
		if draw >= r.Start && draw <= r.End {
			return Pick{Entry: entries[i], Index: i, Draw: float64(draw)}, nil
		}
	}
	return Pick{}, evalerr.Selectionf("draw %d landed outside every range", draw)
}

// IsRangeMode reports whether the entry list selects by range rather than by
// weight. Mixed lists are rejected at load time.
func IsRangeMode(entries []collection.Entry) bool {
	for i := range entries {
		if entries[i].Range != nil {
			return true
		}
	}
	return false
}

// Select draws one entry using the list's mode.
func Select(entries []collection.Entry, rng Source) (Pick, *evalerr.Error) {
	if IsRangeMode(entries) {
		return Ranged(entries, rng)
	}
	return Weighted(entries, rng)
}

// Unique draws n entries without replacement. The overflow policy governs
// what happens when n exceeds the selectable pool: stop returns fewer
// results, cycle refills the pool and allows repeats, error fails.
func Unique(entries []collection.Entry, n int, policy collection.OverflowBehavior, rng Source) ([]Pick, *evalerr.Error) {
	if n < 1 {
		return nil, evalerr.Selectionf("unique draw count must be positive, got %d", n)
	}

	pool := make([]collection.Entry, len(entries))
	copy(pool, entries)
	// origin maps pool positions back to entry positions so Pick.Index stays
	// the table's entry index after removals shift the pool.
	origin := make([]int, len(entries))
	for i := range origin {
		origin[i] = i
	}
	picks := make([]Pick, 0, n)

	for len(picks) < n {
		if len(pool) == 0 || totalWeight(pool) <= 0 {
			switch policy {
			case collection.OverflowStop:
				return picks, nil
			case collection.OverflowCycle:
				if len(entries) == 0 || totalWeight(entries) <= 0 {
					return nil, evalerr.Selectionf("cannot cycle an unselectable pool")
				}
				pool = append(pool[:0], entries...)
				origin = origin[:0]
				for i := range entries {
					origin = append(origin, i)
				}
			case collection.OverflowError:
				return nil, evalerr.Selectionf("unique draw of %d exceeds pool of %d entries", n, len(entries))
			default:
				return nil, evalerr.Selectionf("unknown overflow policy %q", policy)
			}
		}
		p, err := Weighted(pool, rng)
		if err != nil {
			return nil, err
		}
		at := p.Index
		p.Index = origin[at]
		picks = append(picks, p)
		pool = append(pool[:at], pool[at+1:]...)
		origin = append(origin[:at], origin[at+1:]...)
	}
	return picks, nil
}

func totalWeight(entries []collection.Entry) float64 {
	var total float64
	for i := range entries {
		total += entries[i].EffectiveWeight()
	}
	return total
}

// WeightedIndex draws one index over a weight slice; weights default to 1
// when zero-valued. Used for composite source selection.
func WeightedIndex(weights []float64, rng Source) (int, *evalerr.Error) {
	if len(weights) == 0 {
		return 0, evalerr.Selectionf("cannot select from an empty source list")
	}
	var total float64
	effective := make([]float64, len(weights))
	for i, w := range weights {
		if w == 0 {
			w = 1
		}
		effective[i] = w
		total += w
	}
	if total <= 0 {
		return 0, evalerr.Selectionf("cannot select from a zero-weight source list")
	}
	draw := rng.Float64() * total
	var cum float64
	for i, w := range effective {
		cum += w
		if draw < cum {
			return i, nil
		}
	}
	return len(weights) - 1, nil
}
