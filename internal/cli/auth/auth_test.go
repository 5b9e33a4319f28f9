package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestSlot_RoundTrip(t *testing.T) {
	keyring.MockInit()

	slot := NewSlot(nil, "localhost:8080")

	token, err := slot.Load()
	require.NoError(t, err)
	assert.Empty(t, token, "empty slot should load as no token")

	require.NoError(t, slot.Save("abc.def.ghi"))

	token, err = slot.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	require.NoError(t, slot.Delete())
	token, err = slot.Load()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestDeleteToken_Missing(t *testing.T) {
	keyring.MockInit()

	// Deleting an absent credential is not an error
	assert.NoError(t, Default.DeleteToken("never-saved"))
}

func TestLoadToken_PerServer(t *testing.T) {
	keyring.MockInit()

	store := Keyring{Service: "trialdesk-test"}
	require.NoError(t, store.SaveToken("a.example.com", "token-a"))
	require.NoError(t, store.SaveToken("b.example.com", "token-b"))

	a, err := store.LoadToken("a.example.com")
	require.NoError(t, err)
	b, err := store.LoadToken("b.example.com")
	require.NoError(t, err)

	assert.Equal(t, "token-a", a)
	assert.Equal(t, "token-b", b)

	_, err = store.LoadToken("c.example.com")
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestLoadToken_EmptyValue(t *testing.T) {
	keyring.MockInit()

	require.NoError(t, keyring.Set("trialdesk-cli", "token-blank.example.com", ""))

	_, err := Default.LoadToken("blank.example.com")
	assert.ErrorIs(t, err, ErrNoToken)
}
