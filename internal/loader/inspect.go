package loader

import "github.com/roach88/modshim/internal/features"

// LoadInfo is a snapshot of one registry record.
type LoadInfo struct {
	URL         string              `json:"url"`
	ResponseURL string              `json:"response_url,omitempty"`
	Type        features.ModuleType `json:"type,omitempty"`
	Inline      bool                `json:"inline,omitempty"`
	NeedsShim   bool                `json:"needs_shim"`
	ShouldShim  bool                `json:"should_shim"`

	// Ready is the URL the host evaluates: the record's own URL when it
	// passed through, otherwise a blob URL. Empty until ready.
	Ready       string    `json:"ready,omitempty"`
	Passthrough bool      `json:"passthrough"`
	Shell       string    `json:"shell,omitempty"`
	Deps        []DepInfo `json:"deps,omitempty"`
	Exports     []string  `json:"exports,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// DepInfo is a snapshot of one dependency edge.
type DepInfo struct {
	URL         string `json:"url"`
	SourcePhase bool   `json:"source_phase,omitempty"`
}

// Inspect returns a snapshot of the record registered under url.
func (l *Loader) Inspect(url string) (LoadInfo, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	load, ok := l.registry[url]
	if !ok {
		return LoadInfo{}, false
	}
	return load.info(), true
}

// Loads returns snapshots of every record in creation order.
func (l *Loader) Loads() []LoadInfo {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LoadInfo, 0, len(l.order))
	for _, key := range l.order {
		out = append(out, l.registry[key].info())
	}
	return out
}

// info must be called with the loader's mu held.
func (load *Load) info() LoadInfo {
	info := LoadInfo{
		URL:         load.key,
		ResponseURL: load.responseURL,
		Type:        load.typ,
		Inline:      load.inline,
		NeedsShim:   load.needsShim,
		ShouldShim:  load.shouldShim,
		Ready:       load.blobURL,
		Passthrough: load.blobURL != "" && load.blobURL == load.key,
		Shell:       load.shellURL,
	}
	for _, dep := range load.deps {
		info.Deps = append(info.Deps, DepInfo{URL: dep.Load.key, SourcePhase: dep.SourcePhase})
	}
	if load.analysis != nil {
		info.Exports = load.analysis.ExportNames()
	}
	if load.fetchErr != nil {
		info.Error = load.fetchErr.Error()
	} else if load.linkErr != nil {
		info.Error = load.linkErr.Error()
	}
	return info
}
