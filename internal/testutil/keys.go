package testutil

import (
	"sync"

	"github.com/roach88/provmap/internal/provenance"
)

// KeySequence hands out deterministic, distinct provenance keys for tests.
//
// Keys start at base and advance by stride, mimicking info table addresses
// laid out in a static code region.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type KeySequence struct {
	mu     sync.Mutex
	base   uint64
	stride uint64
	n      uint64
}

// NewKeySequence creates a sequence whose first key is base.
// A zero stride defaults to 8 (one machine word).
func NewKeySequence(base, stride uint64) *KeySequence {
	if stride == 0 {
		stride = 8
	}
	return &KeySequence{base: base, stride: stride}
}

// Next returns the next key.
func (s *KeySequence) Next() provenance.Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := provenance.Key(s.base + s.n*s.stride)
	s.n++
	return k
}

// Issued returns how many keys have been handed out.
func (s *KeySequence) Issued() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int(s.n)
}

// Reset restarts the sequence at base.
func (s *KeySequence) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n = 0
}
