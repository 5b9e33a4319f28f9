package navigation

import (
	"context"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/trialdesk-dev/trialdesk/internal/cli/client"
	"github.com/trialdesk-dev/trialdesk/internal/cli/notify"
)

const sessionExpiredMessage = "Your session has expired. Please log in again."

// SessionClearer is the part of the session store forced logout writes
type SessionClearer interface {
	Logout()
}

// Locator reads and replaces the current location
type Locator interface {
	Current() string
	Replace(location string) error
}

// ForcedLogout clears the session and sends the user to login when the server
// rejects the credential. Triggers that arrive while one is being handled are
// dropped.
type ForcedLogout struct {
	session  SessionClearer
	nav      Locator
	notifier notify.Notifier

	inProgress atomic.Bool

	logger zerolog.Logger
}

func NewForcedLogout(session SessionClearer, nav Locator, notifier notify.Notifier, logger zerolog.Logger) *ForcedLogout {
	return &ForcedLogout{
		session:  session,
		nav:      nav,
		notifier: notifier,
		logger:   logger.With().Str("component", "forced-logout").Logger(),
	}
}

// Trigger is installed as the API client's unauthorized handler
func (f *ForcedLogout) Trigger(_ context.Context, cause *client.APIError) {
	if !f.inProgress.CompareAndSwap(false, true) {
		return
	}
	defer f.inProgress.Store(false)

	ev := f.logger.Info()
	if cause != nil {
		ev = ev.Int("status", cause.StatusCode)
	}
	ev.Msg("Credential rejected, logging out")

	f.session.Logout()

	if isLoginLocation(f.nav.Current()) {
		return
	}

	f.notifier.Notify(notify.KindError, sessionExpiredMessage, notify.Options{
		Timeout:  3 * time.Second,
		Position: notify.TopRight,
	})

	if err := f.nav.Replace(PathLogin); err != nil {
		f.logger.Error().Err(err).Msg("Failed to navigate to login")
	}
}

func isLoginLocation(location string) bool {
	u, err := url.Parse(location)
	if err != nil {
		return false
	}
	return cleanPath(u.Path) == PathLogin
}
