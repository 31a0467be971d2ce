// Package apiclient is the typed client for the portfolio REST API.
//
// LAYERING:
// The services (session, projects, ratings, admin, contact) never build HTTP
// requests themselves; they call methods on *Client, which:
//
//  1. encodes the JSON body,
//  2. sends it through the transport chain (logging → bearer → network),
//  3. decodes either the success body or the {error, message} envelope.
//
// Error envelopes are turned back into the apperror sentinels with
// apperror.FromStatus, so a service can write errors.Is(err, apperror.ErrNotFound)
// whether the failure was local validation or a 404 from the server.
package apiclient

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

	"golang.org/x/oauth2"

	"github.com/sakif/portfolio/internal/middleware"
	"github.com/sakif/portfolio/internal/perf"
)

// Client talks to one API base URL, e.g. https://host/api/v1.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// Option customises a Client at construction.
type Option func(*options)

type options struct {
	base    http.RoundTripper
	timeout time.Duration
	logger  *slog.Logger
	monitor *perf.Monitor
}

// WithTransport replaces the network transport at the bottom of the chain.
// Tests use it to point at an in-memory server.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.base = rt }
}

// WithTimeout sets a whole-request timeout. Zero (the default) means none.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMonitor records the latency of every call.
func WithMonitor(m *perf.Monitor) Option {
	return func(o *options) { o.monitor = m }
}

// New builds a Client. tokens may be nil, in which case no request is ever
// authenticated.
func New(baseURL string, tokens oauth2.TokenSource, opts ...Option) *Client {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	baseURL = strings.TrimRight(baseURL, "/")

	// TRANSPORT CHAIN (outermost first):
	//   logging → bearer → network
	// The logger sits outside so the recorded duration covers everything.
	var rt http.RoundTripper = o.base
	if rt == nil {
		rt = http.DefaultTransport
	}
	if tokens != nil {
		rt = BearerTransport(baseURL, tokens, rt)
	}
	rt = middleware.Transport(rt, o.logger, o.monitor)

	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Transport: rt, Timeout: o.timeout},
		logger:  o.logger,
	}
}

// BaseURL returns the API root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// doJSON sends body (if non-nil) as JSON and decodes the response into out
// (if non-nil).
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req, out)
}

// send executes req and decodes the result. Every endpoint funnels through here.
func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	// 204 No Content (deletes) or a caller that does not care about the body.
	if out == nil || resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decoding %s %s response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}
