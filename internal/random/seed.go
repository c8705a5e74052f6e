// Package random provides seeded, goroutine-safe pseudo-random sources.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"sync"
)

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// Source is a math/rand generator guarded by a mutex so one instance
// can be shared by every game handled in the process.
type Source struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSource returns a source seeded deterministically.
func NewSource(seed int64) *Source {
	return &Source{rnd: rand.New(rand.NewSource(seed))}
}

// NewCryptoSeededSource returns a source seeded from crypto/rand.
func NewCryptoSeededSource() (*Source, error) {
	seed, err := NewSeed()
	if err != nil {
		return nil, err
	}
	return NewSource(seed), nil
}

// Intn returns a uniform integer in [0, n). It panics if n <= 0, like math/rand.
func (s *Source) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Intn(n)
}

// Int63n returns a uniform int64 in [0, n).
func (s *Source) Int63n(n int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Int63n(n)
}
