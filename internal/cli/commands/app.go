package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/trialdesk-dev/trialdesk/internal/cli/auth"
	"github.com/trialdesk-dev/trialdesk/internal/cli/bootstrap"
	"github.com/trialdesk-dev/trialdesk/internal/cli/client"
	"github.com/trialdesk-dev/trialdesk/internal/cli/navigation"
	"github.com/trialdesk-dev/trialdesk/internal/cli/notify"
	"github.com/trialdesk-dev/trialdesk/internal/cli/session"
)

// App is one CLI invocation's view of a trialdesk server: the API client, the
// session, and the navigator that guards every page a command opens.
type App struct {
	API       *client.Client
	Session   *session.Store
	Bootstrap *bootstrap.Check
	Guard     *navigation.Guard
	Nav       *navigation.Navigator
	Notifier  notify.Notifier
	Logout    *navigation.ForcedLogout

	out    io.Writer
	errOut io.Writer
	in     io.Reader
	logger zerolog.Logger
}

type appConfig struct {
	server     string
	insecure   bool
	tokens     auth.TokenStore
	httpClient *http.Client
	out        io.Writer
	errOut     io.Writer
	in         io.Reader
	logger     zerolog.Logger
}

// AppOption configures NewApp
type AppOption func(*appConfig)

// WithServer sets the server address
func WithServer(addr string) AppOption {
	return func(c *appConfig) { c.server = addr }
}

// WithInsecure accepts self-signed certificates
func WithInsecure(insecure bool) AppOption {
	return func(c *appConfig) { c.insecure = insecure }
}

// WithTokenStore replaces the OS keyring
func WithTokenStore(store auth.TokenStore) AppOption {
	return func(c *appConfig) { c.tokens = store }
}

// WithHTTPClient replaces the API client's HTTP client
func WithHTTPClient(hc *http.Client) AppOption {
	return func(c *appConfig) { c.httpClient = hc }
}

// WithOutput sets where command output is written
func WithOutput(w io.Writer) AppOption {
	return func(c *appConfig) { c.out = w }
}

// WithErrorOutput sets where notifications are written
func WithErrorOutput(w io.Writer) AppOption {
	return func(c *appConfig) { c.errOut = w }
}

// WithInput sets where prompts read from
func WithInput(r io.Reader) AppOption {
	return func(c *appConfig) { c.in = r }
}

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) AppOption {
	return func(c *appConfig) { c.logger = l }
}

// NewApp wires the client-side session subsystem for one server. The API
// client's unauthorized handler is the forced-logout protocol.
func NewApp(opts ...AppOption) (*App, error) {
	cfg := appConfig{
		out:    os.Stdout,
		errOut: os.Stderr,
		in:     os.Stdin,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	api, err := client.New(client.Options{
		Addr:     cfg.server,
		Insecure: cfg.insecure,
		Tokens:   cfg.tokens,
		Logger:   cfg.logger,
	})
	if err != nil {
		return nil, err
	}
	if cfg.httpClient != nil {
		api.SetHTTPClient(cfg.httpClient)
	}

	store := session.New(api.Slot(), api, cfg.logger)
	check := bootstrap.New(api, cfg.logger)
	routes := navigation.NewTable()
	guard := navigation.NewGuard(store, check, routes, cfg.logger)
	nav := navigation.NewNavigator(routes, guard, cfg.logger)
	notifier := notify.NewTerminal(cfg.errOut)
	forced := navigation.NewForcedLogout(store, nav, notifier, cfg.logger)

	api.OnUnauthorized(forced.Trigger)

	return &App{
		API:       api,
		Session:   store,
		Bootstrap: check,
		Guard:     guard,
		Nav:       nav,
		Notifier:  notifier,
		Logout:    forced,
		out:       cfg.out,
		errOut:    cfg.errOut,
		in:        cfg.in,
		logger:    cfg.logger,
	}, nil
}

// Start restores the stored credential, if any. It reports whether a
// usable session, or none at all, was found.
func (a *App) Start(ctx context.Context) bool {
	return a.Session.Restore(ctx)
}

// ErrNavigationDenied is returned when a page could not be opened at all
var ErrNavigationDenied = errors.New("navigation denied")

// ErrSetupRequired is returned while the server has no admin account
var ErrSetupRequired = errors.New("no admin account exists yet: run 'trialdesk setup'")

// LoginRequiredError is returned when a page needs an authenticated session
type LoginRequiredError struct {
	ReturnTo string
}

func (e *LoginRequiredError) Error() string {
	if e.ReturnTo == "" {
		return "not logged in: run 'trialdesk login'"
	}
	return fmt.Sprintf("not logged in: run 'trialdesk login --redirect %s'", e.ReturnTo)
}

// RedirectedError is returned when the guard sent a navigation elsewhere for
// any other reason
type RedirectedError struct {
	From     string
	Location string
	Rule     string
}

func (e *RedirectedError) Error() string {
	switch e.Rule {
	case navigation.RuleRole:
		return fmt.Sprintf("%s requires an admin account", e.From)
	case navigation.RulePublicOnly:
		return fmt.Sprintf("%s is not available while logged in: run 'trialdesk logout' first", e.From)
	case navigation.RuleBootstrap:
		return "setup has already been completed"
	default:
		return fmt.Sprintf("%s redirected to %s", e.From, e.Location)
	}
}

// Open navigates to location and returns the page when the guard allows it.
// Redirects and denials are converted to errors that tell the user what to
// do next; the navigator is left wherever the guard sent it.
func (a *App) Open(ctx context.Context, location string) (navigation.Match, error) {
	d := a.Nav.Navigate(ctx, location)
	current := a.Nav.CurrentMatch()

	switch d.Outcome {
	case navigation.Allow:
		return current, nil
	case navigation.Deny:
		return current, fmt.Errorf("%w: %s (%s)", ErrNavigationDenied, location, d.Rule)
	}

	switch {
	case current.Path == navigation.PathFirstAdmin:
		return current, ErrSetupRequired
	case current.Path == navigation.PathLogin && d.Rule == navigation.RuleAuth:
		return current, &LoginRequiredError{ReturnTo: current.Query.Get(navigation.RedirectParam)}
	default:
		return current, &RedirectedError{From: location, Location: d.Location, Rule: d.Rule}
	}
}

// Env builds the App lazily from the root command's persistent flags, so a
// command that fails flag validation never touches the keyring or network.
type Env struct {
	Server   string
	Insecure bool
	Debug    bool
	Output   string

	opts []AppOption

	mu  sync.Mutex
	app *App
}

// NewEnv returns an Env whose App is built with opts in addition to the
// persistent flags
func NewEnv(opts ...AppOption) *Env {
	return &Env{opts: opts, Output: OutputTable}
}

// App returns the started App, building it on first use
func (e *Env) App(ctx context.Context) (*App, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.app != nil {
		return e.app, nil
	}

	server, err := resolveServer(e.Server)
	if err != nil {
		return nil, err
	}

	opts := []AppOption{
		WithServer(server),
		WithInsecure(e.Insecure),
		WithLogger(newCLILogger(e.Debug)),
	}
	opts = append(opts, e.opts...)

	app, err := NewApp(opts...)
	if err != nil {
		return nil, err
	}
	app.Start(ctx)

	e.app = app
	return app, nil
}

// Printer returns the output printer selected with --output
func (e *Env) Printer(app *App) (*Printer, error) {
	return NewPrinter(app.out, e.Output)
}
