// Package bootstrap answers the one-shot "does an admin account exist yet?"
// question that gates the first-run setup page.
package bootstrap

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// FirstAdminChecker queries the server for first-admin availability
type FirstAdminChecker interface {
	FirstAdminCheck(ctx context.Context) (bool, error)
}

// Check caches the result of the first-admin query for the lifetime of the
// process, or until Reset.
type Check struct {
	mu             sync.Mutex
	checked        bool
	needsBootstrap bool

	api    FirstAdminChecker
	logger zerolog.Logger
}

func New(api FirstAdminChecker, logger zerolog.Logger) *Check {
	return &Check{
		api:    api,
		logger: logger.With().Str("component", "bootstrap").Logger(),
	}
}

// CheckFirstAdmin returns whether first-admin setup is still needed. Only the
// first call reaches the server; concurrent callers wait for it. A failed query
// counts as "not needed" so an unreachable server never pins every user to the
// setup page.
func (c *Check) CheckFirstAdmin(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.checked {
		return c.needsBootstrap
	}

	needed, err := c.api.FirstAdminCheck(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("First-admin check failed, assuming setup is complete")
		needed = false
	}

	c.needsBootstrap = needed
	c.checked = true
	return needed
}

// Reset forgets the cached answer so the next call queries again
func (c *Check) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checked = false
	c.needsBootstrap = false
}

func (c *Check) Checked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checked
}

func (c *Check) NeedsBootstrap() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checked && c.needsBootstrap
}
