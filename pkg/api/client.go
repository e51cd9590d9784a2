// Package api is the authenticated request gateway. Every outbound call to
// the bookstore API goes through Client, which attaches the bearer token and
// performs a single refresh-and-retry on authorization failure.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"bookpasal/pkg/session"
)

const defaultTimeout = 10 * time.Second

// Client calls the bookstore API over HTTP.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	sessions      *session.Store
	refreshGroup  singleflight.Group
	onAuthFailure func()
	logger        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithAuthFailureHandler installs the navigation hook invoked after an
// irrecoverable refresh failure. The gateway is the only component allowed
// to force the login redirect; everything else surfaces errors upward.
func WithAuthFailureHandler(fn func()) Option {
	return func(c *Client) { c.onAuthFailure = fn }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New constructs a gateway client for the configured API root.
func New(baseURL string, sessions *session.Store, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		sessions:   sessions,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do issues a JSON request and decodes the response into out (out may be
// nil). On the first 401 for this call it refreshes the access token and
// replays the request exactly once with the new token.
func (c *Client) Do(ctx context.Context, method, path string, payload, out any) error {
	var body []byte
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = data
	}
	err := c.send(ctx, method, path, body, out, c.sessions.AccessToken())
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		return err
	}

	// First 401: one refresh, one replay. A 401 on the replay surfaces as a
	// plain error so a broken token can never loop.
	newToken, refreshErr := c.refreshAccessToken(ctx)
	if refreshErr != nil {
		c.logger.Warn("token refresh failed, tearing down session", "err", refreshErr)
		if logoutErr := c.sessions.Logout(); logoutErr != nil {
			c.logger.Error("session teardown failed", "err", logoutErr)
		}
		if c.onAuthFailure != nil {
			c.onAuthFailure()
		}
		return &Error{Status: http.StatusUnauthorized, Message: "session expired", Code: "auth_failed"}
	}
	return c.send(ctx, method, path, body, out, newToken)
}

func (c *Client) send(ctx context.Context, method, path string, body []byte, out any, token string) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// No response at all: not an authorization failure, never a refresh
		// trigger.
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// refreshAccessToken exchanges the stored refresh token for a new access
// token. Concurrent 401s collapse into one refresh call.
func (c *Client) refreshAccessToken(ctx context.Context) (string, error) {
	v, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		refresh := c.sessions.RefreshToken()
		if refresh == "" {
			return "", fmt.Errorf("no refresh token")
		}
		var resp struct {
			Access string `json:"access"`
		}
		if err := c.send(ctx, http.MethodPost, "/users/token/refresh/", mustJSON(map[string]string{"refresh": refresh}), &resp, ""); err != nil {
			return "", fmt.Errorf("refresh token: %w", err)
		}
		if err := c.sessions.SetAccessToken(resp.Access); err != nil {
			return "", err
		}
		c.logger.Debug("access token refreshed")
		return resp.Access, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func decodeError(resp *http.Response) error {
	var errResp struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
		Code   string `json:"code"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&errResp)
	msg := errResp.Detail
	if msg == "" {
		msg = errResp.Error
	}
	if msg == "" {
		msg = resp.Status
	}
	return &Error{Status: resp.StatusCode, Message: msg, Code: strings.TrimSpace(errResp.Code)}
}

func mustJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
