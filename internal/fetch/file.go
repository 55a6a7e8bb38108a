package fetch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var moduleTypes = map[string]string{
	".js":   "text/javascript",
	".mjs":  "text/javascript",
	".cjs":  "text/javascript",
	".json": "application/json",
	".css":  "text/css",
	".wasm": "application/wasm",
	".ts":   "application/typescript",
	".mts":  "application/typescript",
}

// ContentTypeFor guesses a content type from a file name.
func ContentTypeFor(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if ct, ok := moduleTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// FileFetcher serves a directory. URLs under BaseURL map to paths under
// Root; file:// URLs are read directly.
type FileFetcher struct {
	Root    string
	BaseURL string
}

// NewFileFetcher serves root at baseURL.
func NewFileFetcher(root, baseURL string) *FileFetcher {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &FileFetcher{Root: root, BaseURL: baseURL}
}

// Fetch implements Fetcher. Missing files produce a 404 response.
func (f *FileFetcher) Fetch(_ context.Context, req Request) (*Response, error) {
	p, err := f.path(req.URL)
	if err != nil {
		return nil, err
	}
	body, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Response{URL: req.URL, Status: http.StatusNotFound, StatusText: http.StatusText(http.StatusNotFound)}, nil
		}
		return nil, err
	}
	return &Response{
		URL:         req.URL,
		Status:      http.StatusOK,
		StatusText:  http.StatusText(http.StatusOK),
		ContentType: ContentTypeFor(p),
		Body:        body,
	}, nil
}

func (f *FileFetcher) path(raw string) (string, error) {
	if strings.HasPrefix(raw, "file://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", fmt.Errorf("parse file url: %w", err)
		}
		return filepath.FromSlash(u.Path), nil
	}
	if f.BaseURL == "" || !strings.HasPrefix(raw, f.BaseURL) {
		return "", fmt.Errorf("%s is outside %s", raw, f.BaseURL)
	}
	rel := strings.TrimPrefix(raw, f.BaseURL)
	if i := strings.IndexAny(rel, "?#"); i >= 0 {
		rel = rel[:i]
	}
	rel, err := url.PathUnescape(rel)
	if err != nil {
		return "", fmt.Errorf("unescape %s: %w", raw, err)
	}
	clean := path.Clean("/" + rel)
	return filepath.Join(f.Root, filepath.FromSlash(clean)), nil
}
