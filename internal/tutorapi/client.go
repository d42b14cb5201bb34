// Package tutorapi is the HTTP client of the remote tutoring API.
package tutorapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ashureev/nia-console/internal/identity"
)

// maxResponseSize bounds how much of a response body is read (4MB).
const maxResponseSize = 4 << 20

// ErrTransport marks network, timeout and decoding failures: the request
// produced no usable server answer.
var ErrTransport = errors.New("transport failure")

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Detail)
}

// Config holds configuration for the API client.
type Config struct {
	BaseURL string
	Timeout time.Duration

	// RequireAuthOnConversationEndpoints sends the bearer token on the
	// folder, conversation, message and feedback endpoints.
	RequireAuthOnConversationEndpoints bool

	// HTTPClient overrides the default client. Timeout is ignored when set.
	HTTPClient *http.Client
}

// DefaultConfig returns default configuration for baseURL.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL: baseURL,
		Timeout: 30 * time.Second,
	}
}

// Client calls the tutoring API. It holds no session state; every
// parent-scoped call takes the bearer token explicitly.
type Client struct {
	baseURL  string
	http     *http.Client
	convAuth bool
	logger   *slog.Logger
}

// New creates a new API client.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid api base url %q", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:  base.String(),
		http:     httpClient,
		convAuth: cfg.RequireAuthOnConversationEndpoints,
		logger:   logger,
	}, nil
}

type authMode int

const (
	authNone authMode = iota
	authBearer
	authConversation
)

type call struct {
	method string
	path   string
	query  url.Values
	token  string
	auth   authMode
	body   any
}

func (c *Client) do(ctx context.Context, req call, out any) error {
	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", req.path, err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", req.path, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.sendsToken(req.auth) && req.token != "" {
		httpReq.Header.Set(identity.HeaderName, identity.BearerHeader(req.token))
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Debug("api request failed", "method", req.method, "path", req.path, "error", err)
		return fmt.Errorf("%w: %s %s: %w", ErrTransport, req.method, req.path, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Debug("failed to close response body", "path", req.path, "error", closeErr)
		}
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("%w: read %s response: %w", ErrTransport, req.path, err)
	}

	c.logger.Debug("api request",
		"method", req.method,
		"path", req.path,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Detail: parseDetail(data)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode %s response: %w", ErrTransport, req.path, err)
	}
	return nil
}

func (c *Client) sendsToken(mode authMode) bool {
	switch mode {
	case authBearer:
		return true
	case authConversation:
		return c.convAuth
	default:
		return false
	}
}

// parseDetail extracts the human readable message of an error body. FastAPI
// sends either {"detail": "..."} or {"detail": [{"msg": "..."}, ...]}.
func parseDetail(data []byte) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}

	if len(body.Detail) > 0 {
		var s string
		if err := json.Unmarshal(body.Detail, &s); err == nil {
			return s
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(body.Detail, &items); err == nil {
			msgs := make([]string, 0, len(items))
			for _, item := range items {
				if item.Msg != "" {
					msgs = append(msgs, item.Msg)
				}
			}
			return strings.Join(msgs, "; ")
		}
	}
	return body.Error
}
