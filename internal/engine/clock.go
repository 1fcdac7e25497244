package engine

import "sync/atomic"

// StepClock stamps sync steps with a sequence number.
// Implemented by Clock and by testutil.DeterministicClock.
type StepClock interface {
	Next() int64
}

// Clock is a monotonic logical clock. Steps are ordered by seq only, never
// by wall-clock time, so the same scenario always yields the same trace.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock whose first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock whose first Next returns start+1.
// Used to continue numbering after steps already in the journal.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next advances the clock and returns the new value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last value handed out, or the start value.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
