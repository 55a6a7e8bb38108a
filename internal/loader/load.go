package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/modshim/internal/features"
	"github.com/roach88/modshim/internal/fetch"
	"github.com/roach88/modshim/internal/lexer"
	"github.com/roach88/modshim/internal/shell"
)

// maxChain bounds the importer chain attached to fetch errors.
const maxChain = 32

// Load is the registry record for one module.
//
// Lifecycle: fetching -> parsed (fetched closed) -> linked (linked closed)
// -> blob-ready (blobURL set). Fields are guarded by the owning Loader's
// mu; after blob-ready nothing changes except the shell binding.
type Load struct {
	// key is the registry key: the request URL, or a suffixed URL for an
	// inline source that collided with an existing record.
	key         string
	parent      string
	inline      bool
	passthrough bool

	responseURL string
	source      string
	typ         features.ModuleType
	analysis    *lexer.Analysis
	deps        []Dep

	needsShim  bool
	shouldShim bool

	blobURL  string
	shellURL string
	shell    *shell.Shell
	meta     *Meta

	fetched  chan struct{}
	fetchErr error

	linkOnce sync.Once
	linked   chan struct{}
	linkErr  error
}

// Dep is a resolved static dependency edge.
type Dep struct {
	Load        *Load
	SourcePhase bool
}

func newLoad(key, parent string) *Load {
	return &Load{
		key:     key,
		parent:  parent,
		fetched: make(chan struct{}),
		linked:  make(chan struct{}),
	}
}

// newPassthroughLoad is the record for a skipped URL: already blob-ready,
// with its own URL as the ready URL.
func newPassthroughLoad(url string) *Load {
	load := newLoad(url, "")
	load.passthrough = true
	load.responseURL = url
	load.blobURL = url
	close(load.fetched)
	load.linkOnce.Do(func() {})
	close(load.linked)
	return load
}

func (load *Load) waitFetched(ctx context.Context) error {
	select {
	case <-load.fetched:
		return load.fetchErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (load *Load) waitLinked(ctx context.Context) error {
	select {
	case <-load.linked:
		return load.linkErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// getOrCreateLoad returns the record for url, creating it and starting its
// fetch on first use. An inline source whose URL is already registered gets
// a fresh key url#inline-N so each distinct inline body has its own record;
// an identical body reuses the record that already holds it.
func (l *Loader) getOrCreateLoad(ctx context.Context, url string, req fetch.Request, parent string, source *string) *Load {
	l.mu.Lock()
	key := url
	if source != nil {
		for i := 1; ; i++ {
			existing, ok := l.registry[key]
			if !ok || (existing.inline && existing.source == *source) {
				break
			}
			key = fmt.Sprintf("%s#inline-%d", url, i)
		}
	}
	if load, ok := l.registry[key]; ok {
		l.mu.Unlock()
		return load
	}

	load := newLoad(key, parent)
	if source != nil {
		load.inline = true
		load.responseURL = url
		load.source = *source
	}
	l.registry[key] = load
	l.order = append(l.order, key)
	l.mu.Unlock()

	slog.Debug("load created", "url", key, "parent", parent, "inline", source != nil)

	// The pipeline outlives the caller that started it; other requesters
	// may be waiting on the same record.
	go l.fetchLoad(context.WithoutCancel(ctx), load, req)
	return load
}

// fetchLoad fetches, converts and lexes one record, then closes fetched.
func (l *Loader) fetchLoad(ctx context.Context, load *Load, req fetch.Request) {
	err := l.fetchAndParse(ctx, load, req)

	l.mu.Lock()
	load.fetchErr = err
	l.mu.Unlock()
	close(load.fetched)
}

func (l *Loader) fetchAndParse(ctx context.Context, load *Load, req fetch.Request) error {
	l.mu.Lock()
	inline, source, url := load.inline, load.source, load.key
	l.mu.Unlock()

	typ := features.TypeJS
	var needsShim bool
	if !inline {
		req.URL = url
		req.Parent = load.parent
		if req.Integrity == "" {
			if integrity, ok := l.mapIntegrity(url); ok {
				req.Integrity = integrity
			}
		}
		res, err := l.client.Do(ctx, req)
		if err != nil {
			var fe *fetch.FetchError
			if errors.As(err, &fe) {
				fe.Chain = l.chain(load.parent)
			}
			return err
		}
		mod, err := l.conv.Convert(ctx, res, url, load.parent)
		if err != nil {
			return err
		}
		if mod.Type != features.TypeJS && !l.shimMode {
			shim, err := l.gate.UnsupportedType(mod.Type)
			if err != nil {
				return err
			}
			needsShim = shim
		}

		l.mu.Lock()
		load.responseURL = mod.URL
		load.source = mod.Source
		l.sources[mod.URL] = mod.Artifact
		l.mu.Unlock()
		typ, source = mod.Type, mod.Source
	} else {
		l.mu.Lock()
		l.sources[load.key] = []byte(source)
		l.mu.Unlock()
	}

	analysis, err := lexer.Analyze(source)
	if err != nil {
		return fmt.Errorf("parse %s: %w", url, err)
	}

	l.mu.Lock()
	load.typ = typ
	load.analysis = analysis
	if needsShim {
		load.needsShim = true
	}
	l.mu.Unlock()
	return nil
}

// chain lists the importers of parent, outermost first.
func (l *Loader) chain(parent string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var rev []string
	for p := parent; p != "" && len(rev) < maxChain; {
		rev = append(rev, p)
		next, ok := l.registry[p]
		if !ok {
			break
		}
		p = next.parent
	}
	out := make([]string, len(rev))
	for i, p := range rev {
		out[len(rev)-1-i] = p
	}
	return out
}

// seenSet is the per-traversal visited set. A value of 1 means reached by
// loadAll; resolveDeps flips it to 0 once the record has been visited.
type seenSet struct {
	mu sync.Mutex
	m  map[string]int
}

func newSeenSet() *seenSet {
	return &seenSet{m: make(map[string]int)}
}

// mark records url and reports whether it was new.
func (s *seenSet) mark(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[url]; ok {
		return false
	}
	s.m[url] = 1
	return true
}

// loadAll waits until load and every static dependency not yet seen in
// this traversal are linked. Source-phase dependencies are only fetched.
// The first failure cancels the rest and is returned.
func (l *Loader) loadAll(ctx context.Context, load *Load, seen *seenSet) error {
	seen.mark(load.key)
	if err := load.waitLinked(ctx); err != nil {
		return err
	}

	l.mu.Lock()
	deps := load.deps
	l.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, dep := range deps {
		l.mu.Lock()
		ready := dep.Load.blobURL != ""
		l.mu.Unlock()
		if ready {
			continue
		}
		if dep.SourcePhase {
			g.Go(func() error {
				return dep.Load.waitFetched(gctx)
			})
			continue
		}
		if !seen.mark(dep.Load.key) {
			continue
		}
		g.Go(func() error {
			return l.loadAll(gctx, dep.Load, seen)
		})
	}
	return g.Wait()
}
