package ledger

import "time"

// Clock supplies the current time. The engine trusts it to be monotonic
// enough that lexicographic comparison of formatted timestamps matches
// chronological order.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant. Used by tests to make
// generated identifiers and timestamps deterministic.
type FixedClock struct {
	At time.Time
}

func (c *FixedClock) Now() time.Time { return c.At }

// Advance moves the fixed instant forward.
func (c *FixedClock) Advance(d time.Duration) { c.At = c.At.Add(d) }
