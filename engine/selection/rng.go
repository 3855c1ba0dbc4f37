package selection

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
)

// Source is the randomness the engine draws from. *rand.Rand satisfies it;
// tests inject fixed-seed sources for reproducible draws.
type Source interface {
	Float64() float64
	Intn(n int) int
}

// NewSource creates a deterministic source from a seed.
func NewSource(seed int64) Source {
	return rand.New(rand.NewSource(seed))
}

// NewSeed generates a high-entropy seed using crypto/rand, suitable for
// initializing deterministic sources whose seed is reported back to callers
// for replay.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}
