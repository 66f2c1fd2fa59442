package zone

import (
	"math/rand/v2"
	"time"
)

// Rand is the random source used for selection draws and placement points.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	Float64() float64
}

// NewRand returns a PCG-backed source seeded with seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
}

func defaultRand() Rand {
	return NewRand(uint64(time.Now().UnixNano()))
}
