// Package jwks fetches and caches provider key sets.
//
// One Cache is shared by every extractor of a service instance. Entries are
// keyed by URL, created on first use and replaced wholesale by each
// successful fetch. Concurrent callers for the same URL share one in-flight
// fetch; a failed fetch removes the entry so the next caller starts over.
//
// An optional Store adds a tier shared between instances: a fetch consults
// it before going to the network and saves cacheable documents into it.
package jwks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/kbukum/ssogate/errors"
	"github.com/kbukum/ssogate/httpclient"
	"github.com/kbukum/ssogate/jwt"
	"github.com/kbukum/ssogate/logger"
)

// DefaultTimeout bounds a single key-set fetch.
const DefaultTimeout = 20 * time.Second

const meterName = "github.com/kbukum/ssogate/jwks"

var maxAgePattern = regexp.MustCompile(`(?i)(?:^|,)\s*max-age=(\d+)\s*(?:,|$)`)

// Cache holds one entry per key-set URL.
type Cache struct {
	client  *httpclient.Client
	timeout time.Duration
	now     func() time.Time
	log     *logger.Logger
	fetches metric.Int64Counter
	store   Store

	mu      sync.Mutex
	entries map[string]*entry
}

// entry is either pending (a fetch is running) or resolved. A zero expiry
// means the verifiers are not reused.
type entry struct {
	expires   time.Time
	verifiers []jwt.Verifier
	pending   *fetch
}

type fetch struct {
	done      chan struct{}
	verifiers []jwt.Verifier
	err       error
}

// Store holds raw key-set documents shared between instances. Load returns
// a nil document on a miss.
type Store interface {
	Load(ctx context.Context, url string) (doc []byte, ttl time.Duration, err error)
	Save(ctx context.Context, url string, doc []byte, ttl time.Duration) error
}

// Option customizes a Cache.
type Option func(*Cache)

// WithTimeout overrides the per-fetch timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Cache) { c.log = l.WithComponent("jwks") }
}

// WithMeterProvider sets the meter provider for the fetch counter.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *Cache) { c.fetches = newFetchCounter(mp) }
}

// WithStore sets the shared document tier.
func WithStore(s Store) Option {
	return func(c *Cache) { c.store = s }
}

// New creates an empty cache that fetches through client.
func New(client *httpclient.Client, opts ...Option) *Cache {
	c := &Cache{
		client:  client,
		timeout: DefaultTimeout,
		now:     time.Now,
		log:     logger.Nop(),
		entries: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.fetches == nil {
		c.fetches = newFetchCounter(otel.GetMeterProvider())
	}
	return c
}

func newFetchCounter(mp metric.MeterProvider) metric.Int64Counter {
	counter, err := mp.Meter(meterName).Int64Counter("ssogate.jwks.fetches",
		metric.WithDescription("Key-set fetches by outcome"))
	if err != nil {
		logger.Error("create jwks fetch counter", logger.Fields(logger.FieldError, err.Error()))
	}
	return counter
}

// Get returns the verifiers published at url, fetching them when there is no
// fresh entry. Waiting is bounded by ctx; the fetch itself is bounded by the
// cache timeout and is not cancelled when a single waiter gives up.
func (c *Cache) Get(ctx context.Context, url string) ([]jwt.Verifier, error) {
	c.mu.Lock()
	now := c.now()
	e := c.entries[url]
	if e != nil && now.Before(e.expires) {
		if e.pending == nil {
			verifiers := e.verifiers
			c.mu.Unlock()
			return verifiers, nil
		}
		f := e.pending
		c.mu.Unlock()
		return wait(ctx, f)
	}

	f := &fetch{done: make(chan struct{})}
	c.entries[url] = &entry{expires: now.Add(c.timeout), pending: f}
	c.mu.Unlock()

	go c.run(ctx, url, f, now)
	return wait(ctx, f)
}

// Invalidate drops the entry for url. A running fetch completes for its
// current waiters but is not stored.
func (c *Cache) Invalidate(url string) {
	c.mu.Lock()
	delete(c.entries, url)
	c.mu.Unlock()
}

func wait(ctx context.Context, f *fetch) ([]jwt.Verifier, error) {
	select {
	case <-f.done:
		return f.verifiers, f.err
	case <-ctx.Done():
		return nil, errors.Upstream(ctx.Err())
	}
}

func (c *Cache) run(ctx context.Context, url string, f *fetch, started time.Time) {
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	verifiers, maxAge, source, err := c.fetch(fctx, url)

	c.mu.Lock()
	if cur := c.entries[url]; cur != nil && cur.pending == f {
		if err != nil {
			delete(c.entries, url)
		} else {
			var expires time.Time
			if maxAge > 0 {
				expires = started.Add(maxAge)
			}
			c.entries[url] = &entry{expires: expires, verifiers: verifiers}
		}
	}
	c.mu.Unlock()

	outcome := "success"
	if err != nil {
		outcome = "failure"
		c.log.WithContext(ctx).Warn("key set fetch failed", logger.Fields(
			logger.FieldURL, url,
			logger.FieldError, err.Error(),
			logger.FieldCode, string(errors.CodeOf(err)),
		))
	} else {
		c.log.WithContext(ctx).Debug("key set fetched", logger.Fields(
			logger.FieldURL, url,
			"keys", len(verifiers),
			"source", source,
			"max_age_s", int64(maxAge/time.Second),
			logger.FieldDuration, c.now().Sub(started).Milliseconds(),
		))
	}
	if c.fetches != nil {
		c.fetches.Add(fctx, 1, metric.WithAttributes(
			attribute.String("outcome", outcome),
			attribute.String("source", source),
		))
	}

	f.verifiers, f.err = verifiers, err
	close(f.done)
}

const (
	sourceNetwork = "network"
	sourceStore   = "store"
)

func (c *Cache) fetch(ctx context.Context, url string) ([]jwt.Verifier, time.Duration, string, error) {
	if verifiers, ttl, ok := c.load(ctx, url); ok {
		return verifiers, ttl, sourceStore, nil
	}

	resp, err := c.client.Do(ctx, httpclient.Request{
		Method:  http.MethodGet,
		Path:    url,
		Headers: map[string]string{"Accept": "application/json"},
	})
	if err != nil {
		return nil, 0, sourceNetwork, errors.Upstream(err).WithDetail("url", url)
	}
	verifiers, err := parseDocument(resp.Body, url)
	if err != nil {
		return nil, 0, sourceNetwork, err
	}

	maxAge := MaxAge(resp.Header("Cache-Control"))
	if c.store != nil && maxAge > 0 {
		if err := c.store.Save(ctx, url, resp.Body, maxAge); err != nil {
			c.log.WithContext(ctx).Warn("key set store save failed", logger.Fields(
				logger.FieldURL, url,
				logger.FieldError, err.Error(),
			))
		}
	}
	return verifiers, maxAge, sourceNetwork, nil
}

// load reads url from the shared store. Store failures and unusable
// documents fall through to the network.
func (c *Cache) load(ctx context.Context, url string) ([]jwt.Verifier, time.Duration, bool) {
	if c.store == nil {
		return nil, 0, false
	}
	doc, ttl, err := c.store.Load(ctx, url)
	if err != nil {
		c.log.WithContext(ctx).Warn("key set store load failed", logger.Fields(
			logger.FieldURL, url,
			logger.FieldError, err.Error(),
		))
		return nil, 0, false
	}
	if doc == nil || ttl <= 0 {
		return nil, 0, false
	}
	verifiers, err := parseDocument(doc, url)
	if err != nil {
		c.log.WithContext(ctx).Warn("stored key set unusable", logger.Fields(
			logger.FieldURL, url,
			logger.FieldError, err.Error(),
		))
		return nil, 0, false
	}
	return verifiers, ttl, true
}

func parseDocument(body []byte, url string) ([]jwt.Verifier, error) {
	var doc jwt.JWKS
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, errors.Upstream(err).WithDetail("url", url)
	}
	if doc.Keys == nil {
		return nil, errors.Upstream(fmt.Errorf("unexpected jwks structure")).WithDetail("url", url)
	}
	return jwt.LoadJWKSVerifiers(doc.Keys)
}

// MaxAge extracts the max-age directive of a Cache-Control value, or 0.
func MaxAge(cacheControl string) time.Duration {
	m := maxAgePattern.FindStringSubmatch(cacheControl)
	if m == nil {
		return 0
	}
	secs, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || secs > int64(1<<62/time.Second) {
		return 0
	}
	return time.Duration(secs) * time.Second
}
