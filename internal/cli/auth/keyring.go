// Package auth holds the CLI's durable credential: one bearer token per
// server, kept in the OS keychain/credential manager.
package auth

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// ErrNoToken is returned when no credential is stored for a server
var ErrNoToken = errors.New("not authenticated. Please run 'trialdesk login' first")

// TokenStore saves, loads and deletes tokens by server key. Tests substitute
// an in-memory store for the keyring.
type TokenStore interface {
	SaveToken(server, token string) error
	LoadToken(server string) (string, error)
	DeleteToken(server string) error
}

// Keyring stores tokens in the OS keyring under Service
type Keyring struct {
	Service string
}

// Default is the keyring store used by the CLI
var Default TokenStore = Keyring{Service: "trialdesk-cli"}

func (k Keyring) key(server string) string {
	return "token-" + server
}

func (k Keyring) SaveToken(server, token string) error {
	if err := keyring.Set(k.Service, k.key(server), token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// LoadToken returns ErrNoToken when nothing, or an empty value, is stored
func (k Keyring) LoadToken(server string) (string, error) {
	token, err := keyring.Get(k.Service, k.key(server))
	switch {
	case errors.Is(err, keyring.ErrNotFound):
		return "", ErrNoToken
	case err != nil:
		return "", fmt.Errorf("failed to load token: %w", err)
	case token == "":
		return "", ErrNoToken
	}
	return token, nil
}

// DeleteToken succeeds when the token is already gone
func (k Keyring) DeleteToken(server string) error {
	err := keyring.Delete(k.Service, k.key(server))
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
