package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/trialdesk-dev/trialdesk/internal/cli/auth"
)

// APIError is a non-2xx response from the trialdesk API
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

// IsAuthFailure reports whether the response status is unauthorized or forbidden
func (e *APIError) IsAuthFailure() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsAuthFailure reports whether err carries a 401/403 API response
func IsAuthFailure(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsAuthFailure()
}

// StatusCode returns the HTTP status carried by err, or 0
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// UnauthorizedHandler is called once for every call that fails with 401 or 403.
type UnauthorizedHandler func(ctx context.Context, err *APIError)

// Client represents an HTTP client for the trialdesk API
type Client struct {
	baseURL        *url.URL
	httpClient     *http.Client
	tokens         auth.Slot
	onUnauthorized UnauthorizedHandler
	logger         zerolog.Logger
}

// Options configures a Client
type Options struct {
	Addr     string
	Insecure bool
	Timeout  time.Duration
	Tokens   auth.TokenStore
	Logger   zerolog.Logger
}

// New creates a new API client
func New(opt Options) (*Client, error) {
	if opt.Addr == "" {
		return nil, errors.New("server address is required")
	}

	addr := opt.Addr
	if !strings.Contains(addr, "://") {
		// Assume HTTPS when no scheme is given
		addr = "https://" + addr
	}
	u, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid server address: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid server address %q", opt.Addr)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")

	timeout := opt.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	transport := &http.Transport{}
	if opt.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	return &Client{
		baseURL: u,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		tokens: auth.NewSlot(opt.Tokens, u.Host),
		logger: opt.Logger,
	}, nil
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// OnUnauthorized registers the handler run when a call is rejected with 401/403
func (c *Client) OnUnauthorized(h UnauthorizedHandler) {
	c.onUnauthorized = h
}

// Server returns the key under which this server's credential is stored
func (c *Client) Server() string {
	return c.baseURL.Host
}

// Slot returns the credential slot the client reads on every request
func (c *Client) Slot() auth.Slot {
	return c.tokens
}

// BaseURL returns the API base URL
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		buf = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, buf)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	// Read the credential at call time so a rotated token is picked up
	token, err := c.tokens.Load()
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to read stored credential")
	}
	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := decodeError(resp)
		c.logger.Debug().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Msg("API request failed")

		if apiErr.IsAuthFailure() && c.onUnauthorized != nil {
			c.onUnauthorized(ctx, apiErr)
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	var er struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &er); err == nil {
		apiErr.Message = er.Error
		if apiErr.Message == "" {
			apiErr.Message = er.Detail
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
