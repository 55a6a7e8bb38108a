package content

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/tetratelabs/wazero"

	"github.com/roach88/modshim/internal/features"
	"github.com/roach88/modshim/internal/fetch"
)

var (
	jsContentType   = regexp.MustCompile(`^(text|application)/(x-)?javascript(;|$)`)
	wasmContentType = regexp.MustCompile(`^application/wasm(;|$)`)
	jsonContentType = regexp.MustCompile(`^(text|application)/json(;|$)`)
	cssContentType  = regexp.MustCompile(`^(text|application)/css(;|$)`)
	tsContentType   = regexp.MustCompile(`^(application/typescript|video/mp2t)(;|$)`)
)

// Module is converted module source.
type Module struct {
	// URL is the response URL.
	URL    string
	Type   features.ModuleType
	Source string

	// Artifact is the compiled or raw form handed out by source-phase
	// imports: the response bytes for every type.
	Artifact []byte
}

// Transformer compiles a source dialect to JavaScript.
type Transformer interface {
	Transform(ctx context.Context, source, url string) (string, error)
}

// TransformerFunc adapts a function to the Transformer interface.
type TransformerFunc func(ctx context.Context, source, url string) (string, error)

// Transform implements Transformer.
func (f TransformerFunc) Transform(ctx context.Context, source, url string) (string, error) {
	return f(ctx, source, url)
}

// Dispatcher converts responses by content type.
//
// Thread-safety: Dispatcher is safe for concurrent use.
type Dispatcher struct {
	typescript  bool
	transformer Transformer

	once    sync.Once
	runtime wazero.Runtime
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTypeScript enables TypeScript dispatch through t.
func WithTypeScript(t Transformer) Option {
	return func(d *Dispatcher) {
		d.typescript = true
		d.transformer = t
	}
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Close releases the wasm runtime, if one was started.
func (d *Dispatcher) Close(ctx context.Context) error {
	if d.runtime == nil {
		return nil
	}
	return d.runtime.Close(ctx)
}

// Convert turns res into module source. requestURL is the URL the module
// was requested under; relative CSS references resolve against it.
func (d *Dispatcher) Convert(ctx context.Context, res *fetch.Response, requestURL, parent string) (*Module, error) {
	ct := strings.TrimSpace(res.ContentType)
	mod := &Module{URL: res.URL, Artifact: res.Body}

	switch {
	case jsContentType.MatchString(ct):
		mod.Type = features.TypeJS
		mod.Source = string(res.Body)
	case wasmContentType.MatchString(ct):
		src, err := d.wasm(ctx, res)
		if err != nil {
			return nil, err
		}
		mod.Type = features.TypeWasm
		mod.Source = src
	case jsonContentType.MatchString(ct):
		mod.Type = features.TypeJSON
		mod.Source = "export default " + string(res.Body)
	case cssContentType.MatchString(ct):
		src, err := CSSModule(string(res.Body), requestURL)
		if err != nil {
			return nil, err
		}
		mod.Type = features.TypeCSS
		mod.Source = src
	case d.typescript && tsContentType.MatchString(ct):
		src, err := d.typeScript(ctx, string(res.Body), requestURL)
		if err != nil {
			return nil, err
		}
		mod.Type = features.TypeTS
		mod.Source = src
	default:
		return nil, &UnsupportedContentTypeError{URL: requestURL, Parent: parent, ContentType: res.ContentType}
	}
	return mod, nil
}

func (d *Dispatcher) typeScript(ctx context.Context, source, url string) (string, error) {
	if d.transformer == nil {
		return "", fmt.Errorf("no TypeScript transformer configured for %s", url)
	}
	out, err := d.transformer.Transform(ctx, source, url)
	if err != nil {
		return "", fmt.Errorf("transform %s: %w", url, err)
	}
	if out == "" {
		return source, nil
	}
	return out, nil
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
