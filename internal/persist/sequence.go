package persist

import "sync/atomic"

// Sequence is a monotonic identity source.
//
// Thread-safety: Sequence is safe for concurrent use (atomic operations).
type Sequence struct {
	last atomic.Int64
}

// NewSequence creates a sequence whose first Next returns 1.
func NewSequence() *Sequence {
	return &Sequence{}
}

// NewSequenceAt creates a sequence whose first Next returns start+1.
func NewSequenceAt(start int64) *Sequence {
	s := &Sequence{}
	s.last.Store(start)
	return s
}

// Next returns the next identity value.
// Calls are linearizable - each call returns a unique, increasing value.
func (s *Sequence) Next() int64 {
	return s.last.Add(1)
}

// Current returns the last value handed out without incrementing.
func (s *Sequence) Current() int64 {
	return s.last.Load()
}

// AdvanceTo moves the sequence forward so the next value is greater than v.
// It never moves the sequence backwards.
func (s *Sequence) AdvanceTo(v int64) {
	for {
		cur := s.last.Load()
		if cur >= v || s.last.CompareAndSwap(cur, v) {
			return
		}
	}
}
