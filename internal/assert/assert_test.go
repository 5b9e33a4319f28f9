package assert

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLength(t *testing.T) {
	require.NotPanics(t, func() { Length("abcd", 4) })
	require.PanicsWithValue(t, "assert.Length expected 64 actual 3", func() { Length("abc", 64) })
}

func TestNotEmpty(t *testing.T) {
	require.NotPanics(t, func() { NotEmpty("x", "id") })
	require.PanicsWithValue(t, "assert.NotEmpty user id is empty", func() { NotEmpty("", "user id") })
}

func TestOneOf(t *testing.T) {
	allowed := []string{"active", "archived"}
	require.NotPanics(t, func() { OneOf("active", allowed, "status") })
	require.PanicsWithValue(t, `assert.OneOf status "bogus" not in [active archived]`, func() {
		OneOf("bogus", allowed, "status")
	})
}

func TestInRange(t *testing.T) {
	require.NotPanics(t, func() { InRange(0, 0, 100, "progress") })
	require.NotPanics(t, func() { InRange(100, 0, 100, "progress") })
	require.PanicsWithValue(t, "assert.InRange progress 150 outside [0, 100]", func() {
		InRange(150, 0, 100, "progress")
	})
}
