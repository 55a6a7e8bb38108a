package loader

import (
	"context"

	"github.com/roach88/modshim/internal/blob"
	"github.com/roach88/modshim/internal/content"
	"github.com/roach88/modshim/internal/features"
)

// ErrorHook receives every failed top-level load.
type ErrorHook func(err error)

// ImportHook runs before each top-level import with the resolved URL.
// Returning an error aborts the import.
type ImportHook func(ctx context.Context, url, parentURL string) error

// ResolveFunc is the default resolution handed to a ResolveHook.
type ResolveFunc func(specifier, parentURL string) (string, error)

// ResolveHook overrides resolution. Returning "" with a nil error falls
// back to the import map. Hooked results always force shimming, since the
// host would not reproduce them.
type ResolveHook func(specifier, parentURL string, next ResolveFunc) (string, error)

// MetaHook decorates a module's import.meta object when it is created.
type MetaHook func(meta *Meta, url string)

// PolyfillHook runs once, on the first top-level load that needs shimming.
type PolyfillHook func()

// Option configures a Loader.
type Option func(*Loader)

// WithShimMode rewrites every module, even when the host could load it
// natively. Shim mode also unlocks AddImportMap and external import maps.
func WithShimMode(enabled bool) Option {
	return func(l *Loader) {
		l.shimMode = enabled
	}
}

// WithMapOverrides lets later import maps replace existing keys.
func WithMapOverrides(enabled bool) Option {
	return func(l *Loader) {
		l.mapOverrides = enabled
	}
}

// WithEnforceIntegrity fails every fetch that has no integrity metadata.
func WithEnforceIntegrity(enabled bool) Option {
	return func(l *Loader) {
		l.enforceIntegrity = enabled
	}
}

// WithRevokeBlobURLs revokes the blob URLs of a graph once the host has
// evaluated it.
func WithRevokeBlobURLs(enabled bool) Option {
	return func(l *Loader) {
		l.revokeBlobs = enabled
	}
}

// WithSkip passes URLs with any of the given prefixes straight to the host
// without fetching or rewriting them.
func WithSkip(prefixes ...string) Option {
	return func(l *Loader) {
		l.skip = append(l.skip, prefixes...)
	}
}

// WithCapabilities sets the host capability vector.
//
// Default: features.None()
func WithCapabilities(caps features.Capabilities) Option {
	return func(l *Loader) {
		l.caps = caps
	}
}

// WithEnabled sets the polyfill enable list.
func WithEnabled(enabled features.Enabled) Option {
	return func(l *Loader) {
		l.enabled = enabled
	}
}

// WithFetchPoolSize caps simultaneous fetches.
//
// Default: 100 (fetch.DefaultPoolSize)
func WithFetchPoolSize(n int) Option {
	return func(l *Loader) {
		l.poolSize = n
	}
}

// WithBlobIDs sets the blob ID generator. Tests use a
// blob.SequenceGenerator for stable URLs.
func WithBlobIDs(ids blob.IDGenerator) Option {
	return func(l *Loader) {
		l.ids = ids
	}
}

// WithBaseURL sets the document URL that import maps and top-level
// specifiers resolve against.
func WithBaseURL(base string) Option {
	return func(l *Loader) {
		l.baseURL = base
	}
}

// WithTransformer supplies the TypeScript transform. It only takes effect
// when TypeScript is enabled.
func WithTransformer(t content.Transformer) Option {
	return func(l *Loader) {
		l.transformer = t
	}
}

// WithErrorHook sets the error hook.
func WithErrorHook(h ErrorHook) Option {
	return func(l *Loader) {
		l.onError = h
	}
}

// WithImportHook sets the import hook.
func WithImportHook(h ImportHook) Option {
	return func(l *Loader) {
		l.onImport = h
	}
}

// WithResolveHook sets the resolve hook.
func WithResolveHook(h ResolveHook) Option {
	return func(l *Loader) {
		l.onResolve = h
	}
}

// WithMetaHook sets the import.meta hook.
func WithMetaHook(h MetaHook) Option {
	return func(l *Loader) {
		l.onMeta = h
	}
}

// WithPolyfillHook sets the polyfill hook.
func WithPolyfillHook(h PolyfillHook) Option {
	return func(l *Loader) {
		l.onPolyfill = h
	}
}
