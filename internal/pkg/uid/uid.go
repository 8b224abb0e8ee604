// Package uid generates identifiers: snowflake numbers for stored factors,
// UUIDs for correlation and token ids, object ids for verification ids.
package uid

// NumberID generates numeric identifiers.
type NumberID interface {
	Generate() int64
}

// StringID generates textual identifiers.
type StringID interface {
	Generate() string
}
