// Package config reads runtime configuration. Keys are dotted paths such as
// "bridge.host.driver"; every key can be overridden by an environment
// variable with the FBTOTP_ prefix and dots replaced by underscores.
package config

import (
	"io"
	"time"
)

// Config exposes typed lookups of configuration keys. Missing keys yield the
// zero value.
type Config interface {
	io.Closer

	GetBool(key string) bool
	GetString(key string) string
	GetInt(key string) int
	GetInt32(key string) int32
	GetUint(key string) uint
	GetFloat64(key string) float64

	// GetSecond reads an integer number of seconds.
	GetSecond(key string) time.Duration
	// GetMinute reads an integer number of minutes.
	GetMinute(key string) time.Duration

	// GetBinary reads a base64 encoded value. Invalid base64 yields nil.
	GetBinary(key string) []byte

	// GetArray reads either a YAML list or a comma separated string.
	GetArray(key string) []string
}
