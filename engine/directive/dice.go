package directive

import (
	"regexp"
	"strconv"

	"github.com/fatesmith/fatesmith/engine/evalerr"
)

// DiceSpec is a parsed dice expression: Count dice of Sides sides, an
// optional flat Modifier, and an exploding flag.
type DiceSpec struct {
	Count     int
	Sides     int
	Modifier  int
	Exploding bool
}

var diceRe = regexp.MustCompile(`^(\d+)[dD](\d+)(!)?([+-]\d+)?$`)

// ParseDiceSpec parses the payload of a dice directive, e.g. "2d6", "1d20+3"
// or "3d6!-1". The exploding marker "!" sits between the sides and the
// modifier.
func ParseDiceSpec(s string) (*DiceSpec, *evalerr.Error) {
	m := diceRe.FindStringSubmatch(s)
	if m == nil {
		return nil, evalerr.Parsef("invalid dice expression %q", s)
	}
	count, err := strconv.Atoi(m[1])
	if err != nil || count < 1 {
		return nil, evalerr.Parsef("invalid dice count in %q", s)
	}
	sides, err := strconv.Atoi(m[2])
	if err != nil || sides < 1 {
		return nil, evalerr.Parsef("invalid dice sides in %q", s)
	}
	spec := &DiceSpec{Count: count, Sides: sides, Exploding: m[3] == "!"}
	if m[4] != "" {
		mod, err := strconv.Atoi(m[4])
		if err != nil {
			return nil, evalerr.Parsef("invalid dice modifier in %q", s)
		}
		spec.Modifier = mod
	}
	return spec, nil
}
