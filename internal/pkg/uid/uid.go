// Package uid generates identifiers used to tag a run: a UUID for correlation
// and a bounded random number for collision-avoiding test data.
package uid

// StringID generates string identifiers.
type StringID interface {
	Generate() string
}

// NumberID generates numeric identifiers.
type NumberID interface {
	Generate() int64
}
