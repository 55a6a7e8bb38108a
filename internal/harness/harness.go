package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/modshim/internal/blob"
	"github.com/roach88/modshim/internal/features"
	"github.com/roach88/modshim/internal/fetch"
	"github.com/roach88/modshim/internal/graph"
	"github.com/roach88/modshim/internal/host"
	"github.com/roach88/modshim/internal/importmap"
	"github.com/roach88/modshim/internal/loader"
	"github.com/roach88/modshim/internal/shell"
	"github.com/roach88/modshim/internal/store"
)

// inlineEntry names the inline module in EntryOutcome.
const inlineEntry = "(inline)"

// Harness is the scenario execution context: one loader, the host it
// evaluates through, and the fetchers behind both.
type Harness struct {
	scenario *Scenario
	baseURL  string
	loader   *loader.Loader
	host     *host.Inspector
	origin   *fetch.MapFetcher
	cache    *store.Store

	polyfilled bool
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh loader and a fresh in-memory module
// cache. Load failures are recorded in the result and checked by error
// assertions; a returned error means the scenario itself could not be set
// up.
//
// Execution flow:
// 1. Build the site and the loader from the scenario options
// 2. Register import maps in order
// 3. Import each entry, then the inline module
// 4. Snapshot the registry and evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	cache, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create module cache: %w", err)
	}
	defer cache.Close()

	h, err := newHarness(scenario, cache)
	if err != nil {
		return nil, err
	}
	defer h.loader.Close(ctx)

	for i, m := range scenario.ImportMaps {
		if err := h.registerImportMap(ctx, m); err != nil {
			return nil, fmt.Errorf("import_maps[%d]: %w", i, err)
		}
	}

	result := NewResult()
	for _, entry := range scenario.Entries {
		ns, err := h.loader.Import(ctx, entry)
		result.Entries = append(result.Entries, entryOutcome(entry, ns, err))
	}
	if scenario.Inline != "" {
		ns, err := h.loader.LoadInline(ctx, scenario.Inline, "")
		result.Entries = append(result.Entries, entryOutcome(inlineEntry, ns, err))
	}

	if err := h.snapshot(ctx, result); err != nil {
		return nil, err
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions, h.baseURL) {
		result.AddError(msg)
	}
	return result, nil
}

func newHarness(scenario *Scenario, cache *store.Store) (*Harness, error) {
	baseURL := scenario.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	caps, err := capabilitiesFor(scenario)
	if err != nil {
		return nil, err
	}
	enabled, err := features.ParseEnabled(scenario.Enable)
	if err != nil {
		return nil, err
	}

	h := &Harness{
		scenario: scenario,
		baseURL:  baseURL,
		origin:   fetch.NewMapFetcher(),
		cache:    cache,
	}
	for _, m := range scenario.Modules {
		contentType := m.ContentType
		if contentType == "" {
			contentType = fetch.ContentTypeFor(m.URL)
		}
		h.origin.Put(absolute(baseURL, m.URL), fetch.Module{
			ContentType: contentType,
			Body:        m.Source,
			Status:      m.Status,
			RedirectTo:  absoluteOrEmpty(baseURL, m.RedirectTo),
		})
	}

	opts := []loader.Option{
		loader.WithBaseURL(baseURL),
		loader.WithBlobIDs(blob.NewSequenceGenerator()),
		loader.WithCapabilities(caps),
		loader.WithEnabled(enabled),
		loader.WithShimMode(scenario.ShimMode),
		loader.WithMapOverrides(scenario.MapOverrides),
		loader.WithEnforceIntegrity(scenario.EnforceIntegrity),
		loader.WithPolyfillHook(func() { h.polyfilled = true }),
	}
	if len(scenario.Skip) > 0 {
		skip := make([]string, len(scenario.Skip))
		for i, prefix := range scenario.Skip {
			skip[i] = absolute(baseURL, prefix)
		}
		opts = append(opts, loader.WithSkip(skip...))
	}
	if scenario.FetchPoolSize > 0 {
		opts = append(opts, loader.WithFetchPoolSize(scenario.FetchPoolSize))
	}

	// The host reads modules it loads natively straight from the site so
	// fetch counts only reflect the loader.
	h.loader = loader.New(loader.HostFunc(func(ctx context.Context, url string) (shell.Namespace, error) {
		return h.host.Import(ctx, url)
	}), store.NewCachingFetcher(cache, h.origin), opts...)
	h.host = host.NewInspector(h.loader.Blobs(), h.origin.Clone(), host.WithResolver(h.loader.Resolve))
	return h, nil
}

func (h *Harness) registerImportMap(ctx context.Context, m ImportMapDef) error {
	if m.Src != "" {
		_, err := h.loader.RegisterImportMap(ctx, nil, absolute(h.baseURL, m.Src))
		return err
	}
	_, err := h.loader.RegisterImportMap(ctx, []byte(m.Inline), "")
	return err
}

func entryOutcome(entry string, ns shell.Namespace, err error) EntryOutcome {
	out := EntryOutcome{Entry: entry}
	if err != nil {
		out.Error = err.Error()
		out.Code = string(loader.Classify(err))
		return out
	}
	out.Exports = ns.Exports()
	return out
}

// snapshot fills the result from the loader, the host and the cache.
func (h *Harness) snapshot(ctx context.Context, result *Result) error {
	loads := h.loader.Loads()
	for _, info := range loads {
		out := ModuleOutcome{
			URL:         info.URL,
			Type:        string(info.Type),
			Passthrough: info.Passthrough,
			NeedsShim:   info.NeedsShim,
			ShouldShim:  info.ShouldShim,
			Ready:       info.Ready,
			Shell:       info.Shell,
			Error:       info.Error,
		}
		for _, dep := range info.Deps {
			out.Deps = append(out.Deps, dep.URL)
		}
		if info.Ready != "" && !info.Passthrough {
			if entry, ok := h.loader.Blobs().Lookup(info.Ready); ok {
				out.Rewritten = entry.Source
			}
		}
		result.Modules = append(result.Modules, out)
	}
	slices.SortFunc(result.Modules, func(a, b ModuleOutcome) int { return strings.Compare(a.URL, b.URL) })

	result.Evaluated = append(result.Evaluated, h.host.Order()...)
	for url, n := range h.origin.Counts() {
		result.Fetches[url] = n
	}

	cached, err := h.cache.ListModules(ctx)
	if err != nil {
		return fmt.Errorf("list cached modules: %w", err)
	}
	for _, m := range cached {
		result.Cached = append(result.Cached, m.URL)
	}
	slices.Sort(result.Cached)

	result.Cycles = graph.AnalyzeCycles(graph.EdgesFrom(loads))
	result.Polyfilled = h.polyfilled
	return nil
}

// absolute resolves ref against the scenario base URL.
func absolute(baseURL, ref string) string {
	return importmap.ResolveURL(ref, baseURL)
}

func absoluteOrEmpty(baseURL, ref string) string {
	if ref == "" {
		return ""
	}
	return absolute(baseURL, ref)
}
