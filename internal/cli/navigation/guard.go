// Package navigation is the client's router: a page table, the guard that
// decides every transition, and the forced-logout protocol triggered by
// authorization failures.
package navigation

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/trialdesk-dev/trialdesk/internal/cli/client"
)

// Outcome is the guard's verdict on one navigation
type Outcome int

const (
	Allow Outcome = iota
	Redirect
	Deny
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	case Deny:
		return "deny"
	default:
		return "unknown"
	}
}

// Rules, in evaluation order
const (
	RuleReentrancy = "reentrancy"
	RuleBootstrap  = "bootstrap"
	RuleAuth       = "auth"
	RuleRole       = "role"
	RulePublicOnly = "public-only"
	RuleDefault    = "default"
	RuleFailure    = "failure"
)

const defaultMaxHops = 4

// Decision is the result of guarding a navigation. For redirects Location is
// where the navigation lands.
type Decision struct {
	Outcome  Outcome
	Location string
	Rule     string
}

func allow() Decision { return Decision{Outcome: Allow, Rule: RuleDefault} }

func redirect(location, rule string) Decision {
	return Decision{Outcome: Redirect, Location: location, Rule: rule}
}

func deny(rule string) Decision { return Decision{Outcome: Deny, Rule: rule} }

// Request is one navigation from the current location to a resolved destination
type Request struct {
	From string
	To   Match
}

// SessionState is the part of the session store the guard reads
type SessionState interface {
	IsAuthenticated() bool
	IsAdmin() bool
	User() *client.User
	FetchUser(ctx context.Context) (*client.User, error)
}

// BootstrapState is the part of the first-admin check the guard reads
type BootstrapState interface {
	Checked() bool
	NeedsBootstrap() bool
	CheckFirstAdmin(ctx context.Context) bool
}

// Resolver turns a location into a route match
type Resolver interface {
	Resolve(location string) (Match, error)
}

// Guard decides whether a navigation may proceed
type Guard struct {
	session   SessionState
	bootstrap BootstrapState
	routes    Resolver
	maxHops   int

	// set while a guard-issued redirect is being resolved
	redirecting atomic.Bool

	logger zerolog.Logger
}

func NewGuard(session SessionState, bootstrap BootstrapState, routes Resolver, logger zerolog.Logger) *Guard {
	return &Guard{
		session:   session,
		bootstrap: bootstrap,
		routes:    routes,
		maxHops:   defaultMaxHops,
		logger:    logger.With().Str("component", "guard").Logger(),
	}
}

// RedirectInFlight reports whether a guard-issued redirect is being resolved
func (g *Guard) RedirectInFlight() bool {
	return g.redirecting.Load()
}

// Resolve guards a navigation and, when it is redirected, guards the
// redirected navigation too while holding the redirect lock. Navigations
// arriving while the lock is held are denied. Resolve never panics; any
// failure denies the navigation.
func (g *Guard) Resolve(ctx context.Context, req Request) (d Decision) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error().
				Interface("panic", r).
				Str("to", req.To.FullPath()).
				Msg("Navigation guard failed")
			d = deny(RuleFailure)
		}
	}()

	first := g.Decide(ctx, req)
	if first.Outcome != Redirect {
		return first
	}

	if !g.redirecting.CompareAndSwap(false, true) {
		return deny(RuleReentrancy)
	}
	defer g.redirecting.Store(false)

	return g.follow(ctx, req.To.FullPath(), first)
}

func (g *Guard) follow(ctx context.Context, from string, d Decision) Decision {
	for hop := 1; ; hop++ {
		target, err := g.routes.Resolve(d.Location)
		if err != nil {
			g.logger.Error().Err(err).Str("location", d.Location).Msg("Invalid redirect target")
			return deny(RuleFailure)
		}

		next := g.evaluate(ctx, Request{From: from, To: target})
		switch next.Outcome {
		case Allow:
			return d
		case Deny:
			return next
		}

		if hop >= g.maxHops {
			g.logger.Error().
				Str("from", from).
				Str("location", next.Location).
				Msg("Redirect loop detected")
			return deny(RuleFailure)
		}

		from = target.FullPath()
		d = next
	}
}

// Decide evaluates the rules once for req, first match wins:
//
//  1. a redirect in flight denies the navigation
//  2. first-run setup pins every navigation to the setup page, and the setup
//     page is closed once an admin exists
//  3. pages requiring authentication send anonymous users to login, with the
//     original destination as the return-to parameter
//  4. admin-only pages send non-admins to the landing page
//  5. public-only pages send authenticated users to the landing page
//  6. anything else is allowed
func (g *Guard) Decide(ctx context.Context, req Request) Decision {
	if g.redirecting.Load() {
		return deny(RuleReentrancy)
	}
	return g.evaluate(ctx, req)
}

func (g *Guard) evaluate(ctx context.Context, req Request) Decision {
	// Requests started here outlive a superseded navigation.
	ctx = context.WithoutCancel(ctx)

	// Session state is read once; a login completing mid-evaluation applies to
	// the next navigation.
	authenticated := g.session.IsAuthenticated()
	if authenticated && g.session.User() == nil {
		if _, err := g.session.FetchUser(ctx); err != nil {
			g.logger.Debug().Err(err).Msg("Profile unavailable")
		}
		authenticated = g.session.IsAuthenticated()
	}
	admin := authenticated && g.session.IsAdmin()

	dest := req.To
	meta := dest.Route.Meta

	needsBootstrap := g.bootstrap.NeedsBootstrap()
	if !g.bootstrap.Checked() {
		needsBootstrap = g.bootstrap.CheckFirstAdmin(ctx)
	}
	if needsBootstrap && dest.Path != PathFirstAdmin {
		return redirect(PathFirstAdmin, RuleBootstrap)
	}
	if !needsBootstrap && dest.Path == PathFirstAdmin {
		return redirect(PathLanding, RuleBootstrap)
	}

	if (meta.RequiresAuth || meta.AdminOnly) && !authenticated {
		return redirect(LoginLocation(dest.FullPath()), RuleAuth)
	}

	if meta.AdminOnly && !admin {
		return redirect(PathLanding, RuleRole)
	}

	if authenticated && meta.PublicOnly {
		return redirect(PathLanding, RulePublicOnly)
	}

	return allow()
}
