package selection

import (
	"github.com/fatesmith/fatesmith/engine/directive"
)

// DiceResult is the outcome of one dice directive.
type DiceResult struct {
	Rolls    []int // every die rolled, explosions included, in roll order
	Exploded int   // how many extra dice the explosion rule granted
	Total    int   // sum of rolls plus the flat modifier
}

// RollDice rolls a parsed dice spec. When the spec explodes, a die showing
// its maximum value grants one additional roll; maxExploding caps the total
// number of extra rolls across the whole directive, not per die.
func RollDice(spec *directive.DiceSpec, maxExploding int, rng Source) DiceResult {
	res := DiceResult{Rolls: make([]int, 0, spec.Count)}

	pending := spec.Count
	for pending > 0 {
		pending--
		v := 1 + rng.Intn(spec.Sides)
		res.Rolls = append(res.Rolls, v)
		res.Total += v
		if spec.Exploding && spec.Sides > 1 && v == spec.Sides && res.Exploded < maxExploding {
			res.Exploded++
			pending++
		}
	}

	res.Total += spec.Modifier
	return res
}
