package loader

import (
	"log/slog"
	"strings"

	"github.com/roach88/modshim/internal/lexer"
	"github.com/roach88/modshim/internal/rewrite"
	"github.com/roach88/modshim/internal/shell"
)

// rewriteWalk is the state one resolveDeps traversal threads through the
// graph.
type rewriteWalk struct {
	// lastReady is the previously readied sibling, for hosts that do not
	// evaluate siblings in order.
	lastReady string

	// metas are import.meta objects created during the walk. Their hook
	// runs once l.mu is released.
	metas []*Meta
}

// resolveDeps makes load and its static subgraph blob-ready, children
// first. Already ready records and records not reached by this traversal
// are left alone, so a second call is a no-op.
//
// Must be called with l.mu held.
func (l *Loader) resolveDeps(load *Load, seen map[string]int, walk *rewriteWalk) error {
	if load.blobURL != "" || seen[load.key] != 1 {
		return nil
	}
	seen[load.key] = 0

	for _, dep := range load.deps {
		if !dep.SourcePhase {
			if err := l.resolveDeps(dep.Load, seen, walk); err != nil {
				return err
			}
		}
	}

	for _, dep := range load.deps {
		load.needsShim = load.needsShim || dep.Load.needsShim
		load.shouldShim = load.shouldShim || dep.Load.shouldShim
	}

	if !l.shimMode && !load.needsShim && !load.shouldShim {
		load.blobURL = load.key
		walk.lastReady = load.blobURL
		return nil
	}

	slog.Debug("rewriting module", "url", load.key, "needs_shim", load.needsShim, "should_shim", load.shouldShim)

	source := load.source
	var splices []rewrite.Splice
	after := 0
	depIndex := 0
	for _, imp := range load.analysis.Imports {
		switch imp.Kind {
		case lexer.KindSourcePhase:
			dep := load.deps[depIndex]
			depIndex++
			artifact := l.blobs.Create("export default importShim._s["+rewrite.Quote(dep.Load.responseURL)+"]", "text/javascript")
			splices = append(splices,
				rewrite.Splice{Start: imp.PhaseStart, End: imp.PhaseEnd},
				rewrite.Splice{Start: imp.Start - 1, End: imp.StatementEnd, Text: commented(source, imp) + rewrite.Quote(artifact)},
			)
			after = max(after, imp.StatementEnd)

		case lexer.KindStatic:
			dep := load.deps[depIndex]
			depIndex++
			target := dep.Load.blobURL
			if target == "" {
				target = l.cycleShell(dep.Load)
			}
			splices = append(splices, rewrite.Splice{
				Start: imp.Start - 1,
				End:   imp.StatementEnd,
				Text:  commented(source, imp) + rewrite.Quote(target),
			})
			after = max(after, imp.StatementEnd)

		case lexer.KindMeta:
			if load.meta == nil {
				load.meta = &Meta{URL: load.responseURL, key: load.key, loader: l}
				walk.metas = append(walk.metas, load.meta)
			}
			splices = append(splices, rewrite.Splice{
				Start: imp.Start,
				End:   imp.StatementEnd,
				Text:  "importShim._r[" + rewrite.Quote(load.key) + "].m",
			})
			after = max(after, imp.StatementEnd)

		case lexer.KindDynamic, lexer.KindDynamicSource:
			call := "Shim("
			if imp.Kind == lexer.KindDynamicSource {
				call = "Shim.source("
			}
			splices = append(splices,
				rewrite.Splice{Start: imp.StatementStart + len("import"), End: imp.Start, Text: call},
				rewrite.Splice{Start: imp.StatementEnd - 1, End: imp.StatementEnd - 1, Text: ", " + rewrite.Quote(load.responseURL)},
			)
			after = max(after, imp.StatementEnd)
		}
	}

	origin, trailer := rewrite.SourceOrigin(source, after, load.responseURL)
	splices = append(splices, origin...)
	body, err := rewrite.Apply(source, splices)
	if err != nil {
		return err
	}

	var b strings.Builder
	if !l.caps.OrderedSiblings && walk.lastReady != "" {
		b.WriteString("import " + rewrite.Quote(walk.lastReady) + ";")
	}
	b.WriteString(body)
	b.WriteString(trailer)

	if load.shell != nil {
		load.blobURL = l.blobs.CreateBinding(b.String(), "text/javascript", load.shell)
	} else {
		load.blobURL = l.blobs.Create(b.String(), "text/javascript")
	}
	walk.lastReady = load.blobURL
	return nil
}

// cycleShell returns the shell blob standing in for a record that is
// still being rewritten further up the current traversal.
//
// Must be called with l.mu held.
func (l *Loader) cycleShell(dep *Load) string {
	if dep.shellURL == "" {
		var names []string
		if dep.analysis != nil {
			names = dep.analysis.ExportNames()
		}
		dep.shell = shell.New(dep.responseURL, names)
		dep.shellURL = l.blobs.CreateShell(dep.shell)
		slog.Debug("cycle shell created", "url", dep.key, "shell", dep.shellURL)
	}
	return dep.shellURL
}

// commented keeps the original specifier clause as a comment ahead of its
// replacement, unless doing so would close the comment early.
func commented(source string, imp lexer.Import) string {
	orig := source[imp.Start-1 : imp.StatementEnd]
	if strings.Contains(orig, "*/") {
		return ""
	}
	return "/*" + orig + "*/"
}
