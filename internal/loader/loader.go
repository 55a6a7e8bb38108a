package loader

import (
	"context"
	"strings"
	"sync"

	"github.com/roach88/modshim/internal/blob"
	"github.com/roach88/modshim/internal/content"
	"github.com/roach88/modshim/internal/features"
	"github.com/roach88/modshim/internal/fetch"
	"github.com/roach88/modshim/internal/importmap"
	"github.com/roach88/modshim/internal/shell"
)

// DefaultBaseURL is the document URL used when none is configured.
const DefaultBaseURL = "https://modshim.local/"

// Host evaluates modules. It is the native dynamic import of the engine
// the loader runs on: given a URL (a blob URL minted by the loader's store,
// or a plain URL the host fetches itself) it returns the evaluated
// namespace. Importing the same URL twice must return the same namespace.
// When a blob entry carries Binds, the host binds that shell to the
// module's namespace as soon as the module has evaluated.
type Host interface {
	Import(ctx context.Context, url string) (shell.Namespace, error)
}

// HostFunc adapts a function to the Host interface.
type HostFunc func(ctx context.Context, url string) (shell.Namespace, error)

// Import implements Host.
func (f HostFunc) Import(ctx context.Context, url string) (shell.Namespace, error) {
	return f(ctx, url)
}

// Loader is one independent module loader instance.
//
// Thread-safety: all exported methods are safe for concurrent use. The
// registry is append-only: a record, once created for a key, is never
// replaced or evicted.
type Loader struct {
	host   Host
	client *fetch.Client
	conv   *content.Dispatcher
	blobs  *blob.Store
	gate   *features.Gate

	// configuration, fixed after New
	shimMode         bool
	mapOverrides     bool
	enforceIntegrity bool
	revokeBlobs      bool
	skip             []string
	caps             features.Capabilities
	enabled          features.Enabled
	poolSize         int
	ids              blob.IDGenerator
	baseURL          string
	transformer      content.Transformer

	onError    ErrorHook
	onImport   ImportHook
	onResolve  ResolveHook
	onMeta     MetaHook
	onPolyfill PolyfillHook

	// mu guards the registry and every mutable field of its records.
	mu       sync.Mutex
	registry map[string]*Load
	order    []string
	sources  map[string][]byte

	// mapMu guards the import map state.
	mapMu         sync.RWMutex
	composed      *importmap.ImportMap
	first         *importmap.ImportMap
	acceptingMaps bool

	polyfillOnce sync.Once
}

// New creates a Loader that fetches through fetcher and evaluates through
// host.
func New(host Host, fetcher fetch.Fetcher, opts ...Option) *Loader {
	l := &Loader{
		host:          host,
		poolSize:      fetch.DefaultPoolSize,
		baseURL:       DefaultBaseURL,
		registry:      make(map[string]*Load),
		sources:       make(map[string][]byte),
		composed:      importmap.New(),
		acceptingMaps: true,
	}
	for _, opt := range opts {
		opt(l)
	}

	l.gate = features.NewGate(l.caps, l.enabled)
	l.client = fetch.NewClient(fetcher,
		fetch.WithPool(fetch.NewPool(l.poolSize)),
		fetch.WithEnforceIntegrity(l.enforceIntegrity),
	)
	var convOpts []content.Option
	if l.enabled.TypeScript {
		convOpts = append(convOpts, content.WithTypeScript(l.transformer))
	}
	l.conv = content.NewDispatcher(convOpts...)
	l.blobs = blob.NewStore(blobOrigin(l.baseURL), l.ids)
	return l
}

// Close releases resources held by content conversion.
func (l *Loader) Close(ctx context.Context) error {
	return l.conv.Close(ctx)
}

// Blobs returns the loader's blob store. Hosts resolve blob URLs through it.
func (l *Loader) Blobs() *blob.Store {
	return l.blobs
}

// Gate returns the loader's feature gate.
func (l *Loader) Gate() *features.Gate {
	return l.gate
}

// Pool returns the fetch pool.
func (l *Loader) Pool() *fetch.Pool {
	return l.client.Pool()
}

// BaseURL returns the document URL.
func (l *Loader) BaseURL() string {
	return l.baseURL
}

// ShimMode reports whether the loader rewrites every module.
func (l *Loader) ShimMode() bool {
	return l.shimMode
}

func (l *Loader) skipped(url string) bool {
	for _, prefix := range l.skip {
		if strings.HasPrefix(url, prefix) {
			return true
		}
	}
	return false
}

// blobOrigin returns scheme://host of base, the origin blob URLs carry.
func blobOrigin(base string) string {
	if i := strings.Index(base, "://"); i >= 0 {
		rest := base[i+3:]
		if j := strings.IndexByte(rest, '/'); j >= 0 {
			rest = rest[:j]
		}
		return base[:i+3] + rest
	}
	return ""
}

// Meta is a module's import.meta object.
type Meta struct {
	// URL is the module's response URL.
	URL string

	// Extra holds properties added by a MetaHook.
	Extra map[string]any

	key    string
	loader *Loader
}

// Resolve resolves specifier relative to the module, like
// import.meta.resolve.
func (m *Meta) Resolve(specifier string) (string, error) {
	return m.loader.Resolve(specifier, m.URL)
}
