package clock

import "time"

// Clocker abstracts time so callers can replace real time in tests.
type Clocker interface {
	Now() time.Time
	Since(t time.Time) time.Duration
}

// TimeClocker is the production clock implementation backed by time.Now.
type TimeClocker struct{}

// New returns a TimeClocker that reads the current system time.
func New() *TimeClocker {
	return &TimeClocker{}
}

// Now returns the current system time.
func (*TimeClocker) Now() time.Time {
	return time.Now()
}

// Since returns the time elapsed since t.
func (*TimeClocker) Since(t time.Time) time.Duration {
	return time.Since(t)
}

// Fixed is a Clocker frozen at a single instant; Since always reports Step.
type Fixed struct {
	At   time.Time
	Step time.Duration
}

// Now returns the frozen instant.
func (f Fixed) Now() time.Time {
	return f.At
}

// Since returns the configured step regardless of t.
func (f Fixed) Since(time.Time) time.Duration {
	return f.Step
}
