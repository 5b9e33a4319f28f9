// Package assert holds invariant checks that panic on violation. Use only for
// conditions that indicate a programming error, never for user input.
package assert

import (
	"fmt"
	"slices"
)

// Length panics unless value is exactly expected bytes long
func Length(value string, expected int) {
	if len(value) != expected {
		panic(fmt.Sprintf("assert.Length expected %d actual %d", expected, len(value)))
	}
}

// NotEmpty panics when value is empty; name identifies it in the message
func NotEmpty(value, name string) {
	if value == "" {
		panic(fmt.Sprintf("assert.NotEmpty %s is empty", name))
	}
}

// OneOf panics unless value is one of allowed. Callers validate input first.
func OneOf(value string, allowed []string, name string) {
	if !slices.Contains(allowed, value) {
		panic(fmt.Sprintf("assert.OneOf %s %q not in %v", name, value, allowed))
	}
}

// InRange panics unless lo <= value <= hi
func InRange(value, lo, hi float64, name string) {
	if value < lo || value > hi {
		panic(fmt.Sprintf("assert.InRange %s %g outside [%g, %g]", name, value, lo, hi))
	}
}
