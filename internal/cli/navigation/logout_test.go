package navigation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trialdesk-dev/trialdesk/internal/cli/auth"
	"github.com/trialdesk-dev/trialdesk/internal/cli/client"
	"github.com/trialdesk-dev/trialdesk/internal/cli/notify"
	"github.com/trialdesk-dev/trialdesk/internal/cli/session"
)

type recordedNotification struct {
	kind    notify.Kind
	message string
	opts    notify.Options
}

// recordingNotifier captures notifications for assertions
type recordingNotifier struct {
	mu    sync.Mutex
	items []recordedNotification
}

func (r *recordingNotifier) Notify(kind notify.Kind, message string, opts notify.Options) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, recordedNotification{kind, message, opts})
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// countingLocator counts direct navigations
type countingLocator struct {
	*Navigator
	mu       sync.Mutex
	replaces []string
}

func (c *countingLocator) Replace(location string) error {
	c.mu.Lock()
	c.replaces = append(c.replaces, location)
	c.mu.Unlock()
	return c.Navigator.Replace(location)
}

type memoryTokens struct {
	mu     sync.Mutex
	tokens map[string]string
}

func (m *memoryTokens) SaveToken(server, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[server] = token
	return nil
}

func (m *memoryTokens) LoadToken(server string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[server]
	if !ok {
		return "", auth.ErrNoToken
	}
	return t, nil
}

func (m *memoryTokens) DeleteToken(server string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, server)
	return nil
}

func TestScenarioE_ConcurrentUnauthorizedCallsLogOutOnce(t *testing.T) {
	// Every endpoint except the profile rejects the credential
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/user/me":
			w.Write([]byte(`{"id": "u1", "role": "user"}`))
		case "/api/user/first-admin-check":
			w.Write([]byte(`{"allow_first_admin_setup": false}`))
		default:
			<-release
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "Invalid or expired token"}`))
		}
	}))
	defer srv.Close()

	tokens := &memoryTokens{tokens: map[string]string{}}
	api, err := client.New(client.Options{Addr: srv.URL, Tokens: tokens, Logger: zerolog.Nop()})
	require.NoError(t, err)
	require.NoError(t, tokens.SaveToken(api.Server(), "expired-token"))

	store := session.New(api.Slot(), api, zerolog.Nop())
	require.True(t, store.Restore(context.Background()))

	table := NewTable()
	nav := NewNavigator(table, NewGuard(store, setupDone(), table, zerolog.Nop()), zerolog.Nop())
	require.NoError(t, nav.Replace("/projects"))

	locator := &countingLocator{Navigator: nav}
	notes := &recordingNotifier{}
	forced := NewForcedLogout(store, locator, notes, zerolog.Nop())
	api.OnUnauthorized(forced.Trigger)

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = api.ListProjects(context.Background())
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, err := range errs {
		assert.True(t, client.IsAuthFailure(err), "caller still sees the original error")
	}

	assert.False(t, store.IsAuthenticated())
	assert.Nil(t, store.User())
	assert.Equal(t, 1, notes.count())
	assert.Equal(t, []string{PathLogin}, locator.replaces)
	assert.Equal(t, PathLogin, nav.Current())

	_, err = tokens.LoadToken(api.Server())
	assert.ErrorIs(t, err, auth.ErrNoToken)
}

func TestForcedLogout_NotificationOptions(t *testing.T) {
	s := signedIn(client.RoleUser)
	nav, _ := newNavigator(s, setupDone())
	require.NoError(t, nav.Replace("/projects"))

	notes := &recordingNotifier{}
	forced := NewForcedLogout(s, nav, notes, zerolog.Nop())
	forced.Trigger(context.Background(), &client.APIError{StatusCode: http.StatusForbidden})

	require.Equal(t, 1, notes.count())
	n := notes.items[0]
	assert.Equal(t, notify.KindError, n.kind)
	assert.Equal(t, sessionExpiredMessage, n.message)
	assert.Equal(t, 3*time.Second, n.opts.Timeout)
	assert.Equal(t, notify.TopRight, n.opts.Position)
	assert.Equal(t, 1, s.logouts)
}

func TestForcedLogout_AlreadyOnLogin(t *testing.T) {
	s := signedIn(client.RoleUser)
	nav, _ := newNavigator(s, setupDone())
	require.NoError(t, nav.Replace("/login?redirect=/projects"))

	locator := &countingLocator{Navigator: nav}
	notes := &recordingNotifier{}
	forced := NewForcedLogout(s, locator, notes, zerolog.Nop())
	forced.Trigger(context.Background(), nil)

	assert.Equal(t, 1, s.logouts, "session is still cleared")
	assert.Zero(t, notes.count())
	assert.Empty(t, locator.replaces)
	assert.Equal(t, "/login?redirect=/projects", nav.Current())
}

func TestForcedLogout_CoalescesWhileInProgress(t *testing.T) {
	s := signedIn(client.RoleUser)
	nav, _ := newNavigator(s, setupDone())
	require.NoError(t, nav.Replace("/projects"))

	notes := &recordingNotifier{}
	forced := NewForcedLogout(s, nav, notes, zerolog.Nop())

	forced.inProgress.Store(true)
	forced.Trigger(context.Background(), nil)
	assert.Zero(t, s.logouts)
	assert.Zero(t, notes.count())

	forced.inProgress.Store(false)
	forced.Trigger(context.Background(), nil)
	assert.Equal(t, 1, s.logouts)
	assert.Equal(t, 1, notes.count())
}
