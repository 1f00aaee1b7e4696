package config

import (
	"io"
	"time"
)

// TimeConfig defines helpers for retrieving time-based configuration values.
type TimeConfig interface {
	// GetSecond retrieves the configuration value associated with the given key as seconds.
	GetSecond(key string) time.Duration

	// GetMillisecond retrieves the configuration value associated with the given key as milliseconds.
	GetMillisecond(key string) time.Duration
}

// Config defines a set of methods for retrieving configuration values of various types.
//
// Missing keys resolve to the zero value of the requested type unless a default
// was registered by the implementation.
type Config interface {
	io.Closer
	TimeConfig

	// GetInt retrieves the configuration value associated with the given key as an int.
	GetInt(key string) int

	// GetUint retrieves the configuration value associated with the given key as a uint.
	GetUint(key string) uint

	// GetFloat64 retrieves the configuration value associated with the given key as a float64.
	GetFloat64(key string) float64

	// GetBool retrieves the configuration value associated with the given key as a bool.
	GetBool(key string) bool

	// GetString retrieves the configuration value associated with the given key as a string.
	GetString(key string) string

	// GetBinary retrieves the configuration value associated with the given key as a byte slice.
	// Configuration value is stored as base64 encoded.
	GetBinary(key string) []byte

	// GetArray retrieves the configuration value associated with the given key as a slice of strings.
	// Configuration value is stored with format <element1>,<element2>,...
	GetArray(key string) []string

	// ConfigFile returns the file the configuration was read from, or empty
	// when only defaults, environment and flags were used.
	ConfigFile() string
}
