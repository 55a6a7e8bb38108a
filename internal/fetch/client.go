package fetch

import (
	"context"
	"log/slog"
	"net/http"
)

// Client runs fetches through a Pool and checks status and integrity.
type Client struct {
	fetcher          Fetcher
	pool             *Pool
	enforceIntegrity bool
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithPool sets the concurrency pool.
func WithPool(p *Pool) ClientOption {
	return func(c *Client) {
		c.pool = p
	}
}

// WithEnforceIntegrity makes every fetch without integrity metadata fail.
func WithEnforceIntegrity(enforce bool) ClientOption {
	return func(c *Client) {
		c.enforceIntegrity = enforce
	}
}

// NewClient wraps f. Without WithPool it uses a pool of DefaultPoolSize.
func NewClient(f Fetcher, opts ...ClientOption) *Client {
	c := &Client{fetcher: f}
	for _, opt := range opts {
		opt(c)
	}
	if c.pool == nil {
		c.pool = NewPool(DefaultPoolSize)
	}
	return c
}

// Pool returns the client's pool.
func (c *Client) Pool() *Pool {
	return c.pool
}

// Do performs req. Non-2xx responses become a *FetchError and digest
// mismatches an *IntegrityError.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if c.enforceIntegrity && req.Integrity == "" {
		return nil, &IntegrityError{URL: req.URL, Parent: req.Parent}
	}

	if err := c.pool.Acquire(ctx); err != nil {
		return nil, &FetchError{URL: req.URL, Parent: req.Parent, Err: err}
	}
	slog.Debug("fetching module", "url", req.URL, "in_flight", c.pool.InFlight())
	res, err := c.fetcher.Fetch(ctx, req)
	c.pool.Release()
	if err != nil {
		return nil, &FetchError{URL: req.URL, Parent: req.Parent, Err: err}
	}

	if res.URL == "" {
		res.URL = req.URL
	}
	if !res.OK() {
		text := res.StatusText
		if text == "" {
			text = http.StatusText(res.Status)
		}
		return nil, &FetchError{URL: res.URL, Parent: req.Parent, Status: res.Status, StatusText: text}
	}

	if req.Integrity != "" {
		if err := VerifyIntegrity(req.URL, res.Body, req.Integrity); err != nil {
			if ie, ok := err.(*IntegrityError); ok {
				ie.Parent = req.Parent
			}
			return nil, err
		}
	}
	return res, nil
}
