package loader

import (
	"context"
	"fmt"

	"github.com/roach88/modshim/internal/fetch"
	"github.com/roach88/modshim/internal/importmap"
	"github.com/roach88/modshim/internal/lexer"
)

// resolution is a resolved specifier plus the shim flags it implies for
// the importing module.
type resolution struct {
	URL string

	// NeedsShim: the host cannot resolve the specifier at all.
	NeedsShim bool

	// ShouldShim: the host would resolve it to a different URL.
	ShouldShim bool
}

// linkLoad starts linking load once. Linking waits for the fetch, resolves
// every import, creates the child records and starts linking the non
// source-phase ones; it does not wait for the children.
func (l *Loader) linkLoad(ctx context.Context, load *Load, req fetch.Request) {
	load.linkOnce.Do(func() {
		go l.link(context.WithoutCancel(ctx), load, req)
	})
}

func (l *Loader) link(ctx context.Context, load *Load, req fetch.Request) {
	err := l.linkDeps(ctx, load, req)

	l.mu.Lock()
	load.linkErr = err
	l.mu.Unlock()
	close(load.linked)
}

func (l *Loader) linkDeps(ctx context.Context, load *Load, req fetch.Request) error {
	if err := load.waitFetched(ctx); err != nil {
		return err
	}

	l.mu.Lock()
	analysis, parentURL := load.analysis, load.responseURL
	l.mu.Unlock()

	// Integrity applies to the requested module only.
	childReq := req
	childReq.Integrity = ""

	caps := l.gate.Capabilities()
	var deps []Dep
	var needsShim, shouldShim bool
	for _, imp := range analysis.Imports {
		sourcePhase := imp.Kind == lexer.KindSourcePhase || imp.Kind == lexer.KindDynamicSource
		if sourcePhase {
			shim, err := l.gate.SourcePhase()
			if err != nil {
				return fmt.Errorf("%s: %w", parentURL, err)
			}
			needsShim = needsShim || shim
		}
		if imp.IsDynamic() && !caps.DynamicImport {
			needsShim = true
		}
		if imp.Kind == lexer.KindMeta && !caps.ImportMeta {
			needsShim = true
		}

		if imp.IsDynamic() {
			// Run-time imports go through the host's own resolution unless
			// they are rewritten; rewrite when that would differ from ours.
			if !l.gate.MapsNative() || l.onResolve != nil {
				shouldShim = true
			}
			continue
		}
		if !imp.IsDependency() {
			continue
		}

		res, err := l.resolve(imp.Specifier, parentURL)
		if err != nil {
			return err
		}
		needsShim = needsShim || res.NeedsShim
		shouldShim = shouldShim || res.ShouldShim

		if !sourcePhase && l.skipped(res.URL) {
			deps = append(deps, Dep{Load: newPassthroughLoad(res.URL)})
			continue
		}
		child := l.getOrCreateLoad(ctx, res.URL, childReq, parentURL, nil)
		if !sourcePhase {
			l.linkLoad(ctx, child, childReq)
		}
		deps = append(deps, Dep{Load: child, SourcePhase: sourcePhase})
	}

	l.mu.Lock()
	load.deps = deps
	load.needsShim = load.needsShim || needsShim
	load.shouldShim = load.shouldShim || shouldShim
	l.mu.Unlock()
	return nil
}

// resolve resolves a specifier and reports whether the host, with its own
// import map support, would fail to resolve it or resolve it differently.
func (l *Loader) resolve(specifier, parentURL string) (resolution, error) {
	if l.onResolve != nil {
		url, err := l.onResolve(specifier, parentURL, l.defaultResolve)
		if err != nil {
			return resolution{}, err
		}
		if url != "" {
			return resolution{URL: url, NeedsShim: true, ShouldShim: true}, nil
		}
	}

	urlResolved := importmap.ResolveIfNotPlainOrURL(specifier, parentURL)
	if urlResolved == "" {
		urlResolved = importmap.AsURL(specifier)
	}

	l.mapMu.RLock()
	first, composed := l.first, l.composed
	l.mapMu.RUnlock()

	resolved, err := composed.Resolve(specifier, parentURL)
	if err != nil {
		return resolution{}, err
	}
	var firstResolved string
	switch {
	case first == composed:
		firstResolved = resolved
	case first != nil:
		firstResolved, _ = first.Resolve(specifier, parentURL)
	}

	res := resolution{URL: resolved}
	caps := l.gate.Capabilities()
	switch {
	case !caps.ImportMaps:
		if urlResolved == "" {
			res.NeedsShim = true
		} else if urlResolved != resolved {
			res.ShouldShim = true
		}
	case !caps.MultipleImportMaps:
		if urlResolved == "" && firstResolved == "" {
			res.NeedsShim = true
		}
		if firstResolved != "" && resolved != firstResolved {
			res.ShouldShim = true
		}
	}
	return res, nil
}

// defaultResolve resolves through the composed import map only.
func (l *Loader) defaultResolve(specifier, parentURL string) (string, error) {
	l.mapMu.RLock()
	composed := l.composed
	l.mapMu.RUnlock()
	return composed.Resolve(specifier, parentURL)
}

func (l *Loader) mapIntegrity(url string) (string, bool) {
	l.mapMu.RLock()
	defer l.mapMu.RUnlock()
	return l.composed.IntegrityFor(url)
}
