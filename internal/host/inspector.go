package host

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/roach88/modshim/internal/blob"
	"github.com/roach88/modshim/internal/fetch"
	"github.com/roach88/modshim/internal/importmap"
	"github.com/roach88/modshim/internal/lexer"
	"github.com/roach88/modshim/internal/shell"
)

const sourceURLPrefix = "\n//# sourceURL="

// Evaluator stands in for a module body. It receives the namespaces of the
// module's static imports in source order and returns export values.
type Evaluator func(imports []shell.Namespace) map[string]any

// ResolveFunc is the host's own specifier resolution.
type ResolveFunc func(specifier, parentURL string) (string, error)

// Inspector implements the loader's Host interface.
//
// Thread-safety: Import calls are serialized, the way a single-threaded
// engine evaluates modules.
type Inspector struct {
	blobs      *blob.Store
	fetcher    fetch.Fetcher
	resolve    ResolveFunc
	evaluators map[string]Evaluator

	mu      sync.Mutex
	modules map[string]shell.Namespace
	order   []string
}

// Option configures an Inspector.
type Option func(*Inspector)

// WithResolver sets how the host resolves specifiers in modules it fetches
// itself. The default accepts only URLs and relative paths.
func WithResolver(r ResolveFunc) Option {
	return func(i *Inspector) {
		i.resolve = r
	}
}

// WithEvaluator registers the body for the module whose original URL is
// url.
func WithEvaluator(url string, ev Evaluator) Option {
	return func(i *Inspector) {
		i.evaluators[url] = ev
	}
}

// NewInspector creates a host reading blobs from blobs and fetching other
// URLs through fetcher.
func NewInspector(blobs *blob.Store, fetcher fetch.Fetcher, opts ...Option) *Inspector {
	i := &Inspector{
		blobs:      blobs,
		fetcher:    fetcher,
		resolve:    nativeResolve,
		evaluators: make(map[string]Evaluator),
		modules:    make(map[string]shell.Namespace),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Import implements loader.Host.
func (i *Inspector) Import(ctx context.Context, url string) (shell.Namespace, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.load(ctx, url)
}

// Order returns the original URLs of evaluated modules, in evaluation
// order. Rewritten modules are identified by their sourceURL comment.
func (i *Inspector) Order() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]string, len(i.order))
	copy(out, i.order)
	return out
}

// EvaluatedBefore reports whether a was evaluated before b. Both must have
// been evaluated.
func (i *Inspector) EvaluatedBefore(a, b string) bool {
	ia, ib := -1, -1
	for n, u := range i.Order() {
		if u == a && ia == -1 {
			ia = n
		}
		if u == b && ib == -1 {
			ib = n
		}
	}
	return ia != -1 && ib != -1 && ia < ib
}

func (i *Inspector) load(ctx context.Context, url string) (shell.Namespace, error) {
	if ns, ok := i.modules[url]; ok {
		return ns, nil
	}

	source, origin, binds, err := i.source(ctx, url)
	if err != nil {
		return nil, err
	}
	if sh, ok := source.(*shell.Shell); ok {
		i.modules[url] = sh
		return sh, nil
	}
	text := source.(string)

	analysis, err := lexer.Analyze(text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", origin, err)
	}

	// Register before linking so cyclic imports see the same namespace.
	ns := shell.MapNamespace{}
	for _, name := range analysis.ExportNames() {
		ns[name] = nil
	}
	i.modules[url] = ns

	var imported []shell.Namespace
	for _, imp := range analysis.Dependencies() {
		dep, err := i.resolveImport(imp.Specifier, url, origin)
		if err != nil {
			return nil, err
		}
		depNS, err := i.load(ctx, dep)
		if err != nil {
			return nil, err
		}
		imported = append(imported, depNS)
	}

	i.order = append(i.order, origin)
	if ev, ok := i.evaluators[origin]; ok {
		for name, value := range ev(imported) {
			ns[name] = value
		}
	}
	if binds != nil {
		if err := binds.Bind(ns); err != nil && !errors.Is(err, shell.ErrAlreadyBound) {
			return nil, fmt.Errorf("%s: %w", origin, err)
		}
	}
	return ns, nil
}

// source returns the module text, or the shell, behind url along with the
// URL the module originally came from and the cycle shell it binds.
func (i *Inspector) source(ctx context.Context, url string) (any, string, *shell.Shell, error) {
	if blob.IsBlobURL(url) {
		entry, ok := i.blobs.Lookup(url)
		if !ok {
			return nil, "", nil, fmt.Errorf("unknown blob URL %s", url)
		}
		if entry.Shell != nil {
			return entry.Shell, entry.Shell.URL(), nil, nil
		}
		return entry.Source, originOf(entry.Source, url), entry.Binds, nil
	}

	res, err := i.fetcher.Fetch(ctx, fetch.Request{URL: url})
	if err != nil {
		return nil, "", nil, err
	}
	if !res.OK() {
		return nil, "", nil, &fetch.FetchError{URL: url, Status: res.Status, StatusText: res.StatusText}
	}
	if res.URL == "" {
		res.URL = url
	}
	text := string(res.Body)
	if !strings.Contains(res.ContentType, "javascript") {
		// Native non-JS modules expose only a default export.
		text = "export default 0;"
	}
	return text, res.URL, nil, nil
}

func (i *Inspector) resolveImport(specifier, url, origin string) (string, error) {
	if blob.IsBlobURL(specifier) {
		return specifier, nil
	}
	parent := url
	if blob.IsBlobURL(url) {
		parent = origin
	}
	return i.resolve(specifier, parent)
}

// originOf reads the last sourceURL comment, stripping a cycle suffix.
func originOf(source, fallback string) string {
	idx := strings.LastIndex(source, sourceURLPrefix)
	if idx == -1 {
		return fallback
	}
	rest := source[idx+len(sourceURLPrefix):]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[:nl]
	}
	return strings.TrimSpace(rest)
}

func nativeResolve(specifier, parentURL string) (string, error) {
	if r := importmap.ResolveIfNotPlainOrURL(specifier, parentURL); r != "" {
		return r, nil
	}
	if r := importmap.AsURL(specifier); r != "" {
		return r, nil
	}
	return "", &importmap.UnresolvedSpecifierError{Specifier: specifier, Parent: parentURL}
}
