package navigation

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trialdesk-dev/trialdesk/internal/cli/client"
)

func newNavigator(s SessionState, b BootstrapState) (*Navigator, *Guard) {
	table := NewTable()
	g := NewGuard(s, b, table, zerolog.Nop())
	return NewNavigator(table, g, zerolog.Nop()), g
}

func TestNavigator_StartsAtLanding(t *testing.T) {
	nav, _ := newNavigator(anonymous(), setupDone())
	assert.Equal(t, PathLanding, nav.Current())
	assert.Equal(t, "landing", nav.CurrentMatch().Route.Name)
}

func TestNavigator_AllowMovesToDestination(t *testing.T) {
	nav, _ := newNavigator(signedIn(client.RoleUser), setupDone())

	d := nav.Navigate(context.Background(), "/projects/p1/trials/t2")

	require.Equal(t, Allow, d.Outcome)
	m := nav.CurrentMatch()
	assert.Equal(t, "trial-results", m.Route.Name)
	assert.Equal(t, "p1", m.Param("id"))
	assert.Equal(t, "t2", m.Param("trialId"))
}

func TestNavigator_RedirectLandsOnTarget(t *testing.T) {
	nav, g := newNavigator(anonymous(), setupDone())

	d := nav.Navigate(context.Background(), "/projects/p1")

	require.Equal(t, Redirect, d.Outcome)
	assert.Equal(t, "/login?redirect=/projects/p1", nav.Current())
	assert.Equal(t, "/projects/p1", nav.CurrentMatch().Query.Get(RedirectParam))
	assert.False(t, g.RedirectInFlight())
}

func TestNavigator_DenyKeepsLocation(t *testing.T) {
	nav, g := newNavigator(signedIn(client.RoleUser), setupDone())
	require.Equal(t, Allow, nav.Navigate(context.Background(), "/projects").Outcome)

	g.redirecting.Store(true)
	d := nav.Navigate(context.Background(), PathLanding)
	g.redirecting.Store(false)

	assert.Equal(t, Deny, d.Outcome)
	assert.Equal(t, "/projects", nav.Current())
}

func TestNavigator_NavigationDuringRedirectIsDropped(t *testing.T) {
	s := anonymous()
	nav, g := newNavigator(s, setupDone())

	var nested Decision
	s.onRead = func() {
		if !g.RedirectInFlight() {
			return
		}
		// Another caller navigates while the redirect resolves
		done := make(chan struct{})
		go func() {
			defer close(done)
			nested = nav.Navigate(context.Background(), "/projects/other")
		}()
		<-done
	}

	d := nav.Navigate(context.Background(), "/projects")

	assert.Equal(t, Redirect, d.Outcome)
	assert.Equal(t, Deny, nested.Outcome)
	assert.Equal(t, RuleReentrancy, nested.Rule)
	assert.Equal(t, "/login?redirect=/projects", nav.Current())
}

func TestNavigator_ReplaceBypassesGuard(t *testing.T) {
	nav, _ := newNavigator(anonymous(), setupDone())

	require.NoError(t, nav.Replace(PathAdminUsers))
	assert.Equal(t, PathAdminUsers, nav.Current())
}

func TestNavigator_ConcurrentNavigationsAreSerialized(t *testing.T) {
	nav, g := newNavigator(signedIn(client.RoleUser), setupPending(false))

	var wg sync.WaitGroup
	results := make([]Decision, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				results[i] = nav.Navigate(context.Background(), "/projects")
			} else {
				results[i] = nav.Navigate(context.Background(), PathLogin)
			}
		}(i)
	}
	wg.Wait()

	for i, d := range results {
		// Navigations arriving during another's redirect are denied, never failed
		assert.NotEqual(t, RuleFailure, d.Rule, "navigation %d", i)
	}
	assert.False(t, g.RedirectInFlight())
}
