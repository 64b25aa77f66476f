package services

import "time"

// Clock supplies the current UTC time. Workflow services take a Clock instead
// of calling time.Now so tests can pin the clock.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// NewRealClock returns a Clock backed by the system time in UTC.
func NewRealClock() Clock {
	return realClock{}
}

// FixedClock is a Clock pinned to a settable instant, for tests.
type FixedClock struct {
	Current time.Time
}

func (c *FixedClock) Now() time.Time {
	return c.Current.UTC()
}

// Advance moves the fixed clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.Current = c.Current.Add(d)
}
