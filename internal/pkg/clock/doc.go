// Package clock provides a tiny time abstraction.
//
// Step timings and report timestamps read time through Clocker so tests can
// pin them to a deterministic value.
package clock
