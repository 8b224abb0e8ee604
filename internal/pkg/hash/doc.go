// Package hash provides keyed digests for identifiers that must not be
// stored in the clear, such as pending verification ids.
package hash
