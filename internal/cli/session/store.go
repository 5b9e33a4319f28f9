// Package session holds the client's authentication session: the credential
// token, the resolved user profile, and the derived authentication and role
// flags. The token is persisted in the durable credential slot; the profile is
// kept in memory only.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/trialdesk-dev/trialdesk/internal/cli/auth"
	"github.com/trialdesk-dev/trialdesk/internal/cli/client"
)

var (
	// ErrNoToken is returned by FetchUser when there is no credential to use
	ErrNoToken = errors.New("no credential stored")
	// ErrSessionChanged is returned when the session was replaced or cleared
	// while a profile request was in flight
	ErrSessionChanged = errors.New("session changed during profile request")
)

// UserFetcher resolves the profile behind the current credential
type UserFetcher interface {
	Me(ctx context.Context) (*client.User, error)
}

// Store is the single owner of the session state
type Store struct {
	mu          sync.RWMutex
	token       string
	user        *client.User
	initialized bool

	slot   auth.Slot
	api    UserFetcher
	logger zerolog.Logger
}

// New creates an empty session store. Call Restore to adopt a stored credential.
func New(slot auth.Slot, api UserFetcher, logger zerolog.Logger) *Store {
	return &Store{
		slot:   slot,
		api:    api,
		logger: logger.With().Str("component", "session").Logger(),
	}
}

// Restore adopts the credential held in durable storage and resolves its
// profile. It returns false when the stored credential could not be read or
// turned out to be unusable, in which case the session has been cleared.
// Calling it again once initialized is a no-op.
func (s *Store) Restore(ctx context.Context) bool {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return true
	}
	s.mu.Unlock()

	token, err := s.slot.Load()
	if err != nil {
		// An unreadable keyring leaves the process usable, just signed out
		s.logger.Warn().Err(err).Msg("Failed to read stored credential, continuing without a session")
		s.Logout()
		s.mu.Lock()
		s.initialized = true
		s.mu.Unlock()
		return false
	}

	if token != "" {
		s.mu.Lock()
		s.token = token
		s.mu.Unlock()

		if _, err := s.FetchUser(ctx); err != nil {
			if errors.Is(err, ErrSessionChanged) {
				s.logger.Debug().Msg("Session replaced while restoring")
			} else {
				s.logger.Info().Err(err).Msg("Stored credential rejected, session cleared")
			}
			return false
		}
	}

	s.mu.Lock()
	s.initialized = true
	s.mu.Unlock()

	s.logger.Debug().Bool("authenticated", token != "").Msg("Session restored")
	return true
}

// SetToken replaces the credential and persists it. The profile is left alone.
func (s *Store) SetToken(token string) error {
	if token == "" {
		return errors.New("token is empty")
	}
	if err := s.slot.Save(token); err != nil {
		return fmt.Errorf("failed to persist token: %w", err)
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

// SetUser stores an already-resolved profile, e.g. the one embedded in a login
// response. It fails when there is no credential.
func (s *Store) SetUser(user *client.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == "" {
		return ErrNoToken
	}
	s.user = user
	return nil
}

// FetchUser retrieves the profile of the current credential. A failure clears
// the session unless the credential was replaced while the request was in
// flight, in which case ErrSessionChanged is returned and the new credential
// is kept. Callers must not assume a profile exists afterwards.
func (s *Store) FetchUser(ctx context.Context) (*client.User, error) {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()

	if token == "" {
		s.Logout()
		return nil, ErrNoToken
	}

	user, err := s.api.Me(ctx)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Failed to fetch user")
		// The failure belongs to a credential that is no longer current
		if !s.logoutIfCurrent(token) {
			return nil, ErrSessionChanged
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// A logout or login raced with the request; the profile belongs to a
	// credential that is no longer current.
	if s.token != token {
		return nil, ErrSessionChanged
	}
	s.user = user
	return user, nil
}

// Logout clears the credential and the profile together. It never fails.
func (s *Store) Logout() {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.initialized = false
	s.mu.Unlock()

	if err := s.slot.Delete(); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to remove stored credential")
	}
}

// logoutIfCurrent clears the session only while token is still the current
// credential, and reports whether it did
func (s *Store) logoutIfCurrent(token string) bool {
	s.mu.Lock()
	if s.token != token {
		s.mu.Unlock()
		return false
	}
	s.token = ""
	s.user = nil
	s.initialized = false
	s.mu.Unlock()

	if err := s.slot.Delete(); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to remove stored credential")
	}
	return true
}

// Token returns the current credential or ""
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the resolved profile, or nil if not loaded
func (s *Store) User() *client.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

func (s *Store) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.IsAdmin()
}

// Initialized reports whether Restore has completed since the last logout
func (s *Store) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}
