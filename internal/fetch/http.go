package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxModuleBytes bounds a single module body (64 MB).
const maxModuleBytes = 64 << 20

// HTTPFetcher fetches modules over HTTP(S).
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// HTTPOption configures an HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithHTTPClient sets the underlying client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(f *HTTPFetcher) {
		f.client = c
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) HTTPOption {
	return func(f *HTTPFetcher) {
		f.userAgent = ua
	}
}

// NewHTTPFetcher creates a fetcher using http.DefaultClient.
func NewHTTPFetcher(opts ...HTTPOption) *HTTPFetcher {
	f := &HTTPFetcher{client: http.DefaultClient, userAgent: "modshim"}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch implements Fetcher. Credentials "omit" sends the request without
// cookies from the client's jar.
func (f *HTTPFetcher) Fetch(ctx context.Context, req Request) (*Response, error) {
	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	hreq.Header.Set("User-Agent", f.userAgent)
	hreq.Header.Set("Accept", "*/*")

	client := f.client
	if strings.EqualFold(req.Credentials, "omit") && client.Jar != nil {
		c := *client
		c.Jar = nil
		client = &c
	}

	resp, err := client.Do(hreq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxModuleBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &Response{
		URL:         resp.Request.URL.String(),
		Status:      resp.StatusCode,
		StatusText:  strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprint(resp.StatusCode))),
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}
