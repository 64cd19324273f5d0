package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/roach88/hrsync/internal/queryir"
	"github.com/roach88/hrsync/internal/queryodata"
)

// Option configures a client.
type Option func(*transport)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(t *transport) {
		t.http = c
	}
}

// WithLogger sets the logger used for skipped pages and retries.
func WithLogger(l *slog.Logger) Option {
	return func(t *transport) {
		t.logger = l
	}
}

// WithRateLimit caps requests per second. Zero or negative disables limiting.
func WithRateLimit(perSecond float64) Option {
	return func(t *transport) {
		if perSecond <= 0 {
			t.limiter = nil
			return
		}
		t.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithRetry sets the 429 retry policy: total attempts, first wait and the
// overall elapsed cap.
func WithRetry(maxAttempts int, initial, maxElapsed time.Duration) Option {
	return func(t *transport) {
		t.maxAttempts = maxAttempts
		t.initialInterval = initial
		t.maxElapsed = maxElapsed
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(t *transport) {
		t.headers.Set(key, value)
	}
}

const (
	defaultMaxAttempts     = 5
	defaultInitialInterval = 500 * time.Millisecond
	defaultMaxElapsed      = 30 * time.Second
	maxErrorBody           = 512
)

// transport is the HTTP plumbing shared by the source and destination
// clients: bearer auth, rate limiting, 429 backoff and JSON bodies.
type transport struct {
	base     *url.URL
	token    string
	http     *http.Client
	limiter  *rate.Limiter
	logger   *slog.Logger
	headers  http.Header
	compiler *queryodata.Compiler

	maxAttempts     int
	initialInterval time.Duration
	maxElapsed      time.Duration
}

func newTransport(baseURL, token string, opts []Option) (*transport, error) {
	base, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", baseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	t := &transport{
		base:            base,
		token:           token,
		http:            &http.Client{Timeout: 60 * time.Second},
		logger:          slog.Default(),
		headers:         http.Header{},
		compiler:        queryodata.NewCompiler(),
		maxAttempts:     defaultMaxAttempts,
		initialInterval: defaultInitialInterval,
		maxElapsed:      defaultMaxElapsed,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// response is a fully read 2xx response.
type response struct {
	status int
	body   []byte
}

func (t *transport) resolve(path string, query url.Values) string {
	u := t.base.ResolveReference(&url.URL{Path: strings.TrimPrefix(path, "/")})
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do sends one request, retrying 429 responses with exponential backoff.
// Any other non-2xx status is returned as a *StatusError without retry.
func (t *transport) do(ctx context.Context, method, path string, query url.Values, body any) (*response, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", path, err)
		}
	}
	target := t.resolve(path, query)

	var result *response
	attempt := 0
	op := func() error {
		attempt++
		if t.limiter != nil {
			if err := t.limiter.Wait(ctx); err != nil {
				return backoff.Permanent(err)
			}
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, reader)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}
		for k, vs := range t.headers {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		if t.token != "" {
			req.Header.Set("Authorization", "Bearer "+t.token)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := t.http.Do(req)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("%s %s: %w", method, target, err))
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("read %s %s: %w", method, target, err))
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			result = &response{status: resp.StatusCode, body: data}
			return nil
		}

		se := &StatusError{Status: resp.StatusCode, Method: method, URL: target, Body: truncate(data)}
		if resp.StatusCode == http.StatusTooManyRequests {
			t.logger.Warn("rate limited", "method", method, "url", target, "attempt", attempt)
			return se
		}
		return backoff.Permanent(se)
	}

	if err := backoff.Retry(op, t.policy(ctx)); err != nil {
		return nil, err
	}
	return result, nil
}

func (t *transport) policy(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = t.initialInterval
	exp.MaxElapsedTime = t.maxElapsed

	var b backoff.BackOff = exp
	if t.maxAttempts > 0 {
		b = backoff.WithMaxRetries(b, uint64(t.maxAttempts-1))
	}
	return backoff.WithContext(b, ctx)
}

// getJSON decodes a GET response into out. A 204 leaves out untouched.
func (t *transport) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	resp, err := t.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	if resp.status == http.StatusNoContent || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return &DecodeError{Path: path, Err: err}
	}
	return nil
}

// query compiles q and decodes the response into out.
func (t *transport) query(ctx context.Context, q queryir.Collection, out any) error {
	path, values, err := t.compiler.Compile(q)
	if err != nil {
		return err
	}
	return t.getJSON(ctx, path, values, out)
}

// send issues a write. When out is non-nil and the response has a body it
// is decoded into out.
func (t *transport) send(ctx context.Context, method, path string, body, out any) error {
	resp, err := t.do(ctx, method, path, nil, body)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func truncate(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}
