package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/modshim/internal/blob"
	"github.com/roach88/modshim/internal/fetch"
	"github.com/roach88/modshim/internal/importmap"
	"github.com/roach88/modshim/internal/rewrite"
	"github.com/roach88/modshim/internal/shell"
)

// ErrPolyfillMode is returned by operations that require shim mode.
var ErrPolyfillMode = errors.New("unsupported in polyfill mode")

// topLevelCredentials is the credentials mode of loader-initiated imports.
const topLevelCredentials = "same-origin"

// Import loads specifier relative to the base URL and returns the
// evaluated namespace, like import().
func (l *Loader) Import(ctx context.Context, specifier string) (shell.Namespace, error) {
	return l.DynamicImport(ctx, specifier, "")
}

// DynamicImport is the entry point rewritten dynamic imports call:
// importShim(specifier, parentURL). An empty parentURL means the base URL.
func (l *Loader) DynamicImport(ctx context.Context, specifier, parentURL string) (shell.Namespace, error) {
	url, err := l.importTarget(ctx, specifier, parentURL)
	if err != nil {
		return nil, l.report(err)
	}
	ns, err := l.topLevelLoad(ctx, url, fetch.Request{Credentials: topLevelCredentials}, nil)
	if err != nil {
		return nil, l.report(err)
	}
	return ns, nil
}

// LoadInline loads module source that has no URL of its own, such as an
// inline script. url is the document URL it resolves against; empty means
// the base URL.
func (l *Loader) LoadInline(ctx context.Context, source, url string) (shell.Namespace, error) {
	if url == "" {
		url = l.baseURL
	}
	if l.onImport != nil {
		if err := l.onImport(ctx, url, ""); err != nil {
			return nil, l.report(err)
		}
	}
	ns, err := l.topLevelLoad(ctx, url, fetch.Request{Credentials: topLevelCredentials}, &source)
	if err != nil {
		return nil, l.report(err)
	}
	return ns, nil
}

// ImportSource fetches specifier and returns its source-phase artifact,
// like import.source(). Source phase must be enabled.
func (l *Loader) ImportSource(ctx context.Context, specifier, parentURL string) ([]byte, error) {
	if _, err := l.gate.SourcePhase(); err != nil {
		return nil, l.report(err)
	}
	url, err := l.importTarget(ctx, specifier, parentURL)
	if err != nil {
		return nil, l.report(err)
	}
	load := l.getOrCreateLoad(ctx, url, fetch.Request{Credentials: topLevelCredentials}, "", nil)
	if err := load.waitFetched(ctx); err != nil {
		return nil, l.report(err)
	}

	l.mu.Lock()
	needsShim, responseURL := load.needsShim, load.responseURL
	artifact := l.sources[responseURL]
	l.mu.Unlock()
	if needsShim && !l.shimMode {
		l.notePolyfill()
	}
	return artifact, nil
}

// importTarget runs the import hook and resolves specifier for a
// top-level import.
func (l *Loader) importTarget(ctx context.Context, specifier, parentURL string) (string, error) {
	if parentURL == "" {
		parentURL = l.baseURL
	}
	if l.onImport != nil {
		if err := l.onImport(ctx, specifier, parentURL); err != nil {
			return "", err
		}
	}
	res, err := l.resolve(specifier, parentURL)
	if err != nil {
		return "", err
	}
	return res.URL, nil
}

// topLevelLoad loads, links and readies the graph rooted at url, then has
// the host evaluate it. source is set for inline modules.
func (l *Loader) topLevelLoad(ctx context.Context, url string, req fetch.Request, source *string) (shell.Namespace, error) {
	l.mapMu.Lock()
	l.acceptingMaps = false
	l.mapMu.Unlock()

	if !l.shimMode && l.onResolve == nil && l.gate.BaselinePassthrough() {
		slog.Debug("baseline passthrough", "url", url)
		if source != nil {
			return l.evaluate(ctx, l.inlineBlob(*source, url))
		}
		return l.evaluate(ctx, url)
	}

	load := l.getOrCreateLoad(ctx, url, req, "", source)
	l.linkLoad(ctx, load, req)
	seen := newSeenSet()
	if err := l.loadAll(ctx, load, seen); err != nil {
		return nil, err
	}

	l.mu.Lock()
	walk := &rewriteWalk{}
	err := l.resolveDeps(load, seen.m, walk)
	needsShim, ready := load.needsShim, load.blobURL
	l.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("rewrite %s: %w", url, err)
	}
	l.runMetaHooks(walk.metas)

	if source != nil && !l.shimMode && !needsShim {
		return l.evaluate(ctx, l.inlineBlob(*source, url))
	}
	if needsShim && !l.shimMode {
		l.notePolyfill()
	}

	ns, err := l.evaluate(ctx, ready)
	if err != nil {
		return nil, err
	}
	if l.revokeBlobs {
		l.revoke(seen)
	}
	return ns, nil
}

// inlineBlob wraps an unmodified inline source, tagged with the document
// URL it belongs to.
func (l *Loader) inlineBlob(source, url string) string {
	_, trailer := rewrite.SourceOrigin(source, len(source), url)
	return l.blobs.Create(source+trailer, "text/javascript")
}

func (l *Loader) evaluate(ctx context.Context, url string) (shell.Namespace, error) {
	ns, err := l.host.Import(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", url, err)
	}
	return ns, nil
}

func (l *Loader) runMetaHooks(metas []*Meta) {
	if l.onMeta == nil {
		return
	}
	for _, meta := range metas {
		l.onMeta(meta, meta.key)
	}
}

// revoke drops the blob and shell URLs of every record reached by this
// traversal. The host has evaluated them all, so later imports of the same
// ready URLs are served from its module map.
func (l *Loader) revoke(seen *seenSet) {
	var urls []string
	l.mu.Lock()
	for _, key := range l.order {
		if _, ok := seen.m[key]; !ok {
			continue
		}
		load := l.registry[key]
		if blob.IsBlobURL(load.blobURL) {
			urls = append(urls, load.blobURL)
		}
		if load.shellURL != "" {
			urls = append(urls, load.shellURL)
		}
	}
	l.mu.Unlock()

	for _, u := range urls {
		l.blobs.Revoke(u)
	}
	slog.Debug("blob URLs revoked", "count", len(urls))
}

func (l *Loader) notePolyfill() {
	l.polyfillOnce.Do(func() {
		slog.Info("polyfill engaged")
		if l.onPolyfill != nil {
			l.onPolyfill()
		}
	})
}

// report delivers err to the error hook and returns it.
func (l *Loader) report(err error) error {
	slog.Error("module load failed", "error", err, "code", Classify(err))
	if l.onError != nil {
		l.onError(err)
	}
	return err
}

// Resolve resolves specifier synchronously, honoring the resolve hook.
// An empty parentURL means the base URL.
func (l *Loader) Resolve(specifier, parentURL string) (string, error) {
	if parentURL == "" {
		parentURL = l.baseURL
	}
	if l.onResolve != nil {
		url, err := l.onResolve(specifier, parentURL, l.defaultResolve)
		if err != nil || url != "" {
			return url, err
		}
	}
	return l.defaultResolve(specifier, parentURL)
}

// Meta returns the import.meta object of the module loaded from url, or
// nil when that module has not been rewritten or never used import.meta.
func (l *Loader) Meta(url string) *Meta {
	l.mu.Lock()
	defer l.mu.Unlock()
	if load, ok := l.registry[url]; ok {
		return load.meta
	}
	return nil
}

// SourceArtifact returns the source-phase artifact cached for a response
// URL. Inline sources are cached under their record key.
func (l *Loader) SourceArtifact(url string) ([]byte, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.sources[url]
	return a, ok
}

// GetImportMap returns a snapshot of the composed import map.
func (l *Loader) GetImportMap() *importmap.ImportMap {
	l.mapMu.RLock()
	defer l.mapMu.RUnlock()
	return l.composed.Clone()
}

// AddImportMap composes m into the import map at run time. It is only
// available in shim mode.
func (l *Loader) AddImportMap(m *importmap.ImportMap) ([]importmap.Warning, error) {
	if !l.shimMode {
		return nil, ErrPolyfillMode
	}
	l.mapMu.Lock()
	defer l.mapMu.Unlock()
	composed, warnings := importmap.Compose(l.composed, m, l.baseURL, importmap.ComposeOptions{Override: l.mapOverrides})
	l.composed = composed
	return warnings, nil
}

// RegisterImportMap adds a discovered import map document, in discovery
// order. srcURL is set for maps loaded by reference; the document is then
// fetched and keys resolve against srcURL. External maps are ignored
// outside shim mode, matching native engines.
func (l *Loader) RegisterImportMap(ctx context.Context, doc []byte, srcURL string) ([]importmap.Warning, error) {
	external := srcURL != ""
	if external && !l.shimMode {
		slog.Debug("external import map ignored in polyfill mode", "src", srcURL)
		return nil, nil
	}
	base := l.baseURL
	if external {
		base = srcURL
		res, err := l.client.Do(ctx, fetch.Request{URL: srcURL, Credentials: topLevelCredentials})
		if err != nil {
			return nil, l.report(err)
		}
		doc = res.Body
	}

	m, err := importmap.ParseValidated(doc)
	if err != nil {
		return nil, l.report(fmt.Errorf("import map %s: %w", describeMapSource(srcURL), err))
	}

	l.gate.NoteImportMap(external)

	l.mapMu.Lock()
	defer l.mapMu.Unlock()
	composed, warnings := importmap.Compose(l.composed, m, base, importmap.ComposeOptions{Override: l.mapOverrides})
	l.composed = composed
	if l.first == nil && l.acceptingMaps {
		l.first = composed
	}
	l.acceptingMaps = false
	return warnings, nil
}

func describeMapSource(srcURL string) string {
	if srcURL == "" {
		return "(inline)"
	}
	return srcURL
}
