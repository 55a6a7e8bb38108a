package harness

import "github.com/roach88/modshim/internal/graph"

// ModuleOutcome is the final state of one registry record.
type ModuleOutcome struct {
	URL         string   `json:"url"`
	Type        string   `json:"type,omitempty"`
	Passthrough bool     `json:"passthrough"`
	NeedsShim   bool     `json:"needs_shim,omitempty"`
	ShouldShim  bool     `json:"should_shim,omitempty"`
	Ready       string   `json:"ready,omitempty"`
	Shell       string   `json:"shell,omitempty"`
	Deps        []string `json:"deps,omitempty"`
	Rewritten   string   `json:"rewritten,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// EntryOutcome is the result of one entry import.
type EntryOutcome struct {
	Entry   string   `json:"entry"`
	Exports []string `json:"exports,omitempty"`
	Error   string   `json:"error,omitempty"`
	Code    string   `json:"code,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	// True if all assertions hold.
	Pass bool `json:"pass"`

	// Entries holds one outcome per entry, in scenario order; an inline
	// module is listed last under the entry name "(inline)".
	Entries []EntryOutcome `json:"entries"`

	// Modules holds registry records sorted by URL.
	Modules []ModuleOutcome `json:"modules"`

	// Evaluated lists module URLs in host evaluation order.
	Evaluated []string `json:"evaluated"`

	// Fetches counts loader fetches per URL.
	Fetches map[string]int `json:"fetches"`

	// Cached lists URLs held by the scenario's module cache.
	Cached []string `json:"cached"`

	// Cycles lists import cycles in the loaded graph.
	Cycles []graph.CycleWarning `json:"cycles,omitempty"`

	// Polyfilled reports whether the polyfill engaged.
	Polyfilled bool `json:"polyfilled"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:      true,
		Entries:   []EntryOutcome{},
		Modules:   []ModuleOutcome{},
		Evaluated: []string{},
		Fetches:   make(map[string]int),
		Cached:    []string{},
		Errors:    []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Module returns the outcome recorded for url.
func (r *Result) Module(url string) (ModuleOutcome, bool) {
	for _, m := range r.Modules {
		if m.URL == url {
			return m, true
		}
	}
	return ModuleOutcome{}, false
}
