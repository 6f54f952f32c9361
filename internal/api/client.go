// Package api is the HTTP client for the CRM REST service.
package api

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kingrea/fieldcrm/internal/cache"
	"github.com/kingrea/fieldcrm/internal/logging"
	"github.com/kingrea/fieldcrm/internal/resilience"
)

const (
	defaultTimeout    = 15 * time.Second
	defaultRetryDelay = 300 * time.Millisecond
	defaultCacheTTL   = 30 * time.Second
	maxBodyBytes      = 4 << 20

	generationKey = "fieldcrm:generation"
)

// TokenSource yields the bearer token for the next request; "" sends none.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// Client talks to one CRM service instance. It is safe for concurrent use.
type Client struct {
	baseURL    *url.URL
	http       *http.Client
	log        logging.Printer
	metrics    *metrics
	retries    int
	retryDelay time.Duration

	store    cache.Store
	cacheTTL time.Duration

	mu             sync.RWMutex
	tokens         TokenSource
	onUnauthorized func()
	generation     string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger traces every request to p.
func WithLogger(p logging.Printer) Option {
	return func(c *Client) {
		if p != nil {
			c.log = p
		}
	}
}

// WithRegisterer registers request metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *Client) {
		c.metrics = newMetrics(reg)
	}
}

// WithReadRetries sets how many extra attempts GET requests get after a
// transport error or 5xx response.
func WithReadRetries(n int, delay time.Duration) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retries = n
		}
		if delay > 0 {
			c.retryDelay = delay
		}
	}
}

// WithCache stores GET response bodies in s for ttl.
func WithCache(s cache.Store, ttl time.Duration) Option {
	return func(c *Client) {
		c.store = s
		if ttl > 0 {
			c.cacheTTL = ttl
		}
	}
}

// New builds a client for the service rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("api: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api: base url %q must be http or https", baseURL)
	}
	c := &Client{
		baseURL:    u,
		http:       &http.Client{Timeout: defaultTimeout},
		log:        logging.Nop{},
		retries:    1,
		retryDelay: defaultRetryDelay,
		cacheTTL:   defaultCacheTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = newMetrics(nil)
	}
	return c, nil
}

// BaseURL returns the service root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Authorize installs the token source and the hook fired on any 401
// response to an authenticated request.
func (c *Client) Authorize(tokens TokenSource, onUnauthorized func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = tokens
	c.onUnauthorized = onUnauthorized
}

type request struct {
	method    string
	route     string
	path      string
	query     url.Values
	body      any
	anonymous bool
	fresh     bool
}

func (c *Client) get(ctx context.Context, route, path string, query url.Values, out any) error {
	return c.do(ctx, request{method: http.MethodGet, route: route, path: path, query: query}, out)
}

func (c *Client) send(ctx context.Context, method, route, path string, body, out any) error {
	return c.do(ctx, request{method: method, route: route, path: path, body: body}, out)
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	if r.method != http.MethodGet {
		data, err := c.roundTrip(ctx, r)
		if err != nil {
			return err
		}
		c.invalidate(ctx)
		return decode(data, out)
	}

	key := c.cacheKey(ctx, r)
	if key != "" {
		if data, err := c.store.Get(ctx, key); err == nil {
			c.metrics.cache.WithLabelValues("hit").Inc()
			return decode(data, out)
		}
		c.metrics.cache.WithLabelValues("miss").Inc()
	}

	var data []byte
	err := resilience.Retry(ctx, c.retries+1, c.retryDelay, func() error {
		var err error
		data, err = c.roundTrip(ctx, r)
		if err != nil && (!retryable(err) || ctx.Err() != nil) {
			return resilience.Permanent(err)
		}
		return err
	})
	if err != nil {
		return err
	}
	if err := decode(data, out); err != nil {
		return err
	}
	if key != "" {
		if err := c.store.Set(ctx, key, data, c.cacheTTL); err != nil {
			c.log.Printf("cache set %s: %v", r.path, err)
		}
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, r request) ([]byte, error) {
	target := c.resolve(r.path, r.query)

	var body io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("api: encode %s %s: %w", r.method, r.path, err)
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("api: build %s %s: %w", r.method, r.path, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	c.metrics.duration.WithLabelValues(r.method, r.route).Observe(elapsed.Seconds())
	if err != nil {
		c.metrics.requests.WithLabelValues(r.method, r.route, "error").Inc()
		c.log.Printf("%s %s failed after %s id=%s: %v", r.method, r.path, elapsed.Round(time.Millisecond), requestID, err)
		return nil, fmt.Errorf("api: %s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	c.metrics.requests.WithLabelValues(r.method, r.route, fmt.Sprint(resp.StatusCode)).Inc()
	c.log.Printf("%s %s %d %s id=%s", r.method, r.path, resp.StatusCode, elapsed.Round(time.Millisecond), requestID)
	if err != nil {
		return nil, fmt.Errorf("api: read %s %s: %w", r.method, r.path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newError(r.method, r.path, resp.StatusCode, data)
		if resp.StatusCode == http.StatusUnauthorized && !r.anonymous {
			c.unauthorized()
		}
		return nil, apiErr
	}
	return data, nil
}

func (c *Client) resolve(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}

func (c *Client) unauthorized() {
	c.mu.RLock()
	hook := c.onUnauthorized
	c.mu.RUnlock()
	if hook != nil {
		hook()
	}
}

// cacheKey is empty when caching is off, no token is present or the
// shared generation cannot be read.
func (c *Client) cacheKey(ctx context.Context, r request) string {
	if c.store == nil || r.fresh {
		return ""
	}
	token := c.token()
	if token == "" {
		return ""
	}
	gen, ok := c.currentGeneration(ctx)
	if !ok {
		return ""
	}
	sum := sha256.Sum256([]byte(token))
	target := r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}
	return fmt.Sprintf("fieldcrm:%s:%s:%s", gen, hex.EncodeToString(sum[:6]), target)
}

// currentGeneration reads the shared generation so writes made by another
// terminal sharing the same redis also invalidate this one's entries. The
// key is seeded only when the store reports a miss.
func (c *Client) currentGeneration(ctx context.Context) (string, bool) {
	data, err := c.store.Get(ctx, generationKey)
	switch {
	case err == nil && len(data) > 0:
		gen := string(data)
		c.mu.Lock()
		c.generation = gen
		c.mu.Unlock()
		return gen, true
	case err != nil && !errors.Is(err, cache.ErrMiss):
		c.log.Printf("cache generation: %v", err)
		return "", false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation == "" {
		c.generation = uuid.NewString()
	}
	if err := c.store.Set(ctx, generationKey, []byte(c.generation), 0); err != nil {
		c.log.Printf("cache generation: %v", err)
	}
	return c.generation, true
}

func (c *Client) invalidate(ctx context.Context) {
	if c.store == nil {
		return
	}
	gen := uuid.NewString()
	c.mu.Lock()
	c.generation = gen
	c.mu.Unlock()
	if err := c.store.Set(ctx, generationKey, []byte(gen), 0); err != nil {
		c.log.Printf("cache invalidate: %v", err)
	}
}

func decode(data []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Join(errDecode, err)
	}
	return nil
}
