package uid

import (
	"fmt"
	"math/rand/v2"
)

// RandomRange draws uniformly from an inclusive range.
type RandomRange struct {
	min int64
	max int64
}

// NewRandomRange returns a generator over [lo, hi]. It rejects empty ranges.
func NewRandomRange(lo, hi int64) (*RandomRange, error) {
	if hi < lo {
		return nil, fmt.Errorf("uid: invalid range [%d, %d]", lo, hi)
	}
	return &RandomRange{min: lo, max: hi}, nil
}

// Generate returns a random number in the configured range.
func (r *RandomRange) Generate() int64 {
	return r.min + rand.Int64N(r.max-r.min+1)
}

