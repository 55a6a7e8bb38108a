package fetch

import "context"

// Request describes one module fetch.
type Request struct {
	URL string

	// Integrity is an SRI metadata string ("sha384-..."). Empty means no check.
	Integrity string

	// Credentials mirrors the fetch credentials mode (omit, same-origin,
	// include). Fetchers that have no notion of it ignore it.
	Credentials string

	// Parent is the URL of the importing module, for error context.
	Parent string
}

// Response is the result of a fetch.
type Response struct {
	// URL is the final URL after redirects.
	URL         string
	Status      int
	StatusText  string
	ContentType string
	Body        []byte
}

// OK reports whether the status is in the 2xx range. A zero status counts
// as 200 for fetchers that do not model status codes.
func (r *Response) OK() bool {
	return r.Status == 0 || (r.Status >= 200 && r.Status < 300)
}

// Fetcher retrieves module bytes.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (*Response, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, req Request) (*Response, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}
