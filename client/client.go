// Copyright 2025 Jelly Terra <jellyterra@proton.me>
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	rand "math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/BartWaardenburg/spaceship-mcp/core"
	"github.com/goccy/go-json"
	"github.com/linkdata/rate"
)

const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = time.Second
	DefaultMaxDelay   = 30 * time.Second
)

type Options struct {
	// CacheTTL is how long reads stay cached. Zero disables caching.
	CacheTTL time.Duration
	// MaxRetries bounds how often a throttled request is repeated.
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	// RequestsPerSecond paces outbound requests. Zero means no pacing.
	RequestsPerSecond int32
	// LogWriter receives debug output when not nil.
	LogWriter io.Writer
}

// Client is the only way to reach the registrar. Reads go through the cache,
// throttled requests are retried with backoff, writes invalidate the cache.
type Client struct {
	Transport  Transport
	Cache      *core.Cache
	CacheTTL   time.Duration
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	LogWriter  io.Writer

	// Sleep waits between attempts. Replaced in tests.
	Sleep func(ctx context.Context, d time.Duration) error
	// Jitter returns a random extra delay in [0, d).
	Jitter func(d time.Duration) time.Duration

	rateLimiter <-chan struct{}
}

// New returns a Client. Passing nil for cache builds one from opts.CacheTTL.
func New(transport Transport, cache *core.Cache, opts Options) *Client {
	if cache == nil {
		cache = core.NewCache(opts.CacheTTL)
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = DefaultBaseDelay
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = DefaultMaxDelay
	}

	c := &Client{
		Transport:  transport,
		Cache:      cache,
		CacheTTL:   opts.CacheTTL,
		MaxRetries: opts.MaxRetries,
		BaseDelay:  opts.BaseDelay,
		MaxDelay:   opts.MaxDelay,
		LogWriter:  opts.LogWriter,
		Sleep:      sleepContext,
		Jitter:     randomJitter,
	}
	if maxrate := opts.RequestsPerSecond; maxrate > 0 {
		c.rateLimiter = rate.NewTicker(nil, &maxrate).C
	}
	return c
}

func (c *Client) dbg() bool {
	return c.LogWriter != nil
}

func (c *Client) log(format string, args ...any) {
	_, _ = fmt.Fprintf(c.LogWriter, format, args...)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func randomJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(d)))
}

// backoff returns the wait before retry number attempt+1.
func (c *Client) backoff(attempt int, header http.Header) time.Duration {
	if retryAfter, ok := parseRetryAfter(header, time.Now()); ok {
		return retryAfter
	}

	delay := c.BaseDelay
	for i := 0; i < attempt && delay < c.MaxDelay; i++ {
		delay *= 2
	}
	delay = min(delay, c.MaxDelay)
	return delay + c.Jitter(delay/2)
}

// parseRetryAfter reads a Retry-After header given in seconds or as an HTTP date.
func parseRetryAfter(header http.Header, now time.Time) (time.Duration, bool) {
	v := header.Get("Retry-After")
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	if at, err := http.ParseTime(v); err == nil {
		return max(at.Sub(now), 0), true
	}
	return 0, false
}

// do sends one request, repeating it while the registrar answers 429 and the
// retry budget lasts. Any other failure is returned at once.
func (c *Client) do(ctx context.Context, method, path string, body any) (*Response, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding %s %s: %w", method, path, err)
		}
	}

	for attempt := 0; ; attempt++ {
		if c.rateLimiter != nil {
			select {
			case <-c.rateLimiter:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if c.dbg() {
			c.log("%s %s (attempt %d)\n", method, path, attempt+1)
		}

		resp, err := c.Transport.Do(ctx, method, path, payload)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", method, path, err)
		}

		switch {
		case resp.Status == http.StatusTooManyRequests:
			wait := c.backoff(attempt, resp.Header)
			if attempt >= c.MaxRetries {
				return nil, &RateLimitError{
					APIError:   APIError{Method: method, Path: path, Status: resp.Status, Body: resp.Body},
					Attempts:   attempt + 1,
					RetryAfter: wait,
				}
			}
			if c.dbg() {
				c.log("%s %s throttled, retry in %v\n", method, path, wait.Round(time.Millisecond))
			}
			err = c.Sleep(ctx, wait)
			if err != nil {
				return nil, err
			}
		case resp.Status < 200 || resp.Status > 299:
			return nil, &APIError{Method: method, Path: path, Status: resp.Status, Body: resp.Body}
		default:
			return resp, nil
		}
	}
}

// errEmptyDocument reports a 2xx body of JSON null, which would otherwise
// decode into a nil result.
var errEmptyDocument = errors.New("empty document")

func decode[T any](resp *Response, path string) (T, error) {
	var v T
	if body := bytes.TrimSpace(resp.Body); bytes.Equal(body, []byte("null")) {
		return v, &ParseError{Path: path, Body: resp.Body, Err: errEmptyDocument}
	}
	err := json.Unmarshal(resp.Body, &v)
	if err != nil {
		return v, &ParseError{Path: path, Body: resp.Body, Err: err}
	}
	return v, nil
}

// fetch is a cached GET. The value is shared with the cache; exported
// methods return deep copies of it.
func fetch[T any](ctx context.Context, c *Client, key, path string) (T, error) {
	if v, ok := c.Cache.Get(key); ok {
		if t, ok := v.(T); ok {
			if c.dbg() {
				c.log("cached %s\n", key)
			}
			return t, nil
		}
	}

	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		var zero T
		return zero, err
	}

	v, err := decode[T](resp, path)
	if err != nil {
		return v, err
	}

	c.Cache.Set(key, v, c.CacheTTL)
	return v, nil
}

// write sends a mutating request and afterwards drops every cache prefix it
// may have made stale, whether or not it succeeded.
func (c *Client) write(ctx context.Context, method, path string, body any, prefixes ...string) (*Response, error) {
	defer func() {
		for _, prefix := range prefixes {
			n := c.Cache.InvalidatePrefix(prefix)
			if c.dbg() && n > 0 {
				c.log("invalidated %d cached entries under %s\n", n, prefix)
			}
		}
	}()
	return c.do(ctx, method, path, body)
}
