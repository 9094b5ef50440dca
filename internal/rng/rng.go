// Package rng seeds the measurement random source from OS entropy by
// default, with an explicit seed for reproducible tests.
package rng

import (
	"crypto/rand"
	"encoding/binary"
	"math/big"
	mrand "math/rand"
)

// New returns a *mrand.Rand seeded from OS entropy.
func New() *mrand.Rand {
	return mrand.New(mrand.NewSource(seedFromOS()))
}

// NewSeeded returns a *mrand.Rand seeded deterministically, for tests
// that need a reproducible measurement outcome sequence.
func NewSeeded(seed int64) *mrand.Rand {
	return mrand.New(mrand.NewSource(seed))
}

func seedFromOS() int64 {
	n, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		var buf [8]byte
		_, _ = rand.Read(buf[:])
		return int64(binary.BigEndian.Uint64(buf[:]))
	}
	return n.Int64()
}
