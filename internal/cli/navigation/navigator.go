package navigation

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Navigator tracks the current location and runs the guard on every
// transition. Navigations are processed one at a time.
type Navigator struct {
	routes *Table
	guard  *Guard

	navMu sync.Mutex

	locMu   sync.RWMutex
	current Match

	logger zerolog.Logger
}

// NewNavigator starts at the landing page
func NewNavigator(routes *Table, guard *Guard, logger zerolog.Logger) *Navigator {
	landing, _ := routes.Resolve(PathLanding)
	return &Navigator{
		routes:  routes,
		guard:   guard,
		current: landing,
		logger:  logger.With().Str("component", "navigator").Logger(),
	}
}

// Navigate asks to move to location. The returned decision says whether the
// navigation was allowed, redirected (Location is where it landed) or denied;
// a denied navigation leaves the current location unchanged.
func (n *Navigator) Navigate(ctx context.Context, location string) Decision {
	// A navigation issued while a redirect resolves is dropped, not queued.
	if n.guard.RedirectInFlight() {
		n.logger.Debug().Str("to", location).Msg("Navigation dropped, redirect in flight")
		return deny(RuleReentrancy)
	}

	n.navMu.Lock()
	defer n.navMu.Unlock()

	to, err := n.routes.Resolve(location)
	if err != nil {
		n.logger.Warn().Err(err).Msg("Navigation to invalid location denied")
		return deny(RuleFailure)
	}

	from := n.Current()
	d := n.guard.Resolve(ctx, Request{From: from, To: to})

	switch d.Outcome {
	case Allow:
		n.setCurrent(to)
	case Redirect:
		landed, err := n.routes.Resolve(d.Location)
		if err != nil {
			return deny(RuleFailure)
		}
		n.setCurrent(landed)
	}

	n.logger.Debug().
		Str("from", from).
		Str("to", to.FullPath()).
		Str("outcome", d.Outcome.String()).
		Str("rule", d.Rule).
		Str("location", d.Location).
		Msg("Navigation resolved")

	return d
}

// Replace moves to location without consulting the guard
func (n *Navigator) Replace(location string) error {
	m, err := n.routes.Resolve(location)
	if err != nil {
		return err
	}
	n.setCurrent(m)
	n.logger.Debug().Str("location", m.FullPath()).Msg("Location replaced")
	return nil
}

// Current returns the current location with its query
func (n *Navigator) Current() string {
	return n.CurrentMatch().FullPath()
}

func (n *Navigator) CurrentMatch() Match {
	n.locMu.RLock()
	defer n.locMu.RUnlock()
	return n.current
}

func (n *Navigator) setCurrent(m Match) {
	n.locMu.Lock()
	n.current = m
	n.locMu.Unlock()
}
