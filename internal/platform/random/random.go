// Package random provides seed generation and deterministic roll sources.
//
// Seeds come from crypto/rand so live play is unpredictable, while every
// consumer of randomness takes a Source so tests and replays can inject a
// deterministic one.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
)

// Source produces uniform random integers for rules resolution.
// Implementations are not required to be safe for concurrent use; the engine
// scopes one Source per resolution call chain.
type Source interface {
	// IntN returns a uniform random int in [0, n). It panics if n <= 0,
	// matching math/rand semantics.
	IntN(n int) int
}

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// Seeded returns a deterministic Source for the given seed.
// The same seed always yields the same roll sequence.
func Seeded(seed int64) Source {
	return seededSource{rng: rand.New(rand.NewSource(seed))}
}

type seededSource struct {
	rng *rand.Rand
}

func (s seededSource) IntN(n int) int {
	return s.rng.Intn(n)
}
