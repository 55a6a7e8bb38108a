package lexer

// Kind discriminates import records.
type Kind int

const (
	// KindStatic is an import declaration or a re-export (export ... from).
	KindStatic Kind = iota
	// KindDynamic is an import() call.
	KindDynamic
	// KindMeta is an import.meta reference.
	KindMeta
	// KindSourcePhase is an "import source x from" declaration.
	KindSourcePhase
	// KindDynamicSource is an import.source() call.
	KindDynamicSource
)

func (k Kind) String() string {
	switch k {
	case KindStatic:
		return "static"
	case KindDynamic:
		return "dynamic"
	case KindMeta:
		return "import.meta"
	case KindSourcePhase:
		return "source-phase"
	case KindDynamicSource:
		return "dynamic-source"
	default:
		return "unknown"
	}
}

// Import is one import-like reference. All offsets are byte offsets into the
// analyzed source; End and StatementEnd are exclusive.
//
// For static and source-phase imports, Start and End bound the specifier text
// inside its quotes and StatementEnd follows the closing quote, or the
// closing brace of an attribute clause.
//
// For dynamic imports, Start is the offset of the first argument and
// StatementEnd follows the closing parenthesis. When the argument is a plain
// string literal, Specifier holds its value and End follows the closing
// quote; otherwise Specifier is empty and End equals Start.
//
// For import.meta, Start equals StatementStart and End equals StatementEnd.
type Import struct {
	Kind           Kind
	Specifier      string
	Start          int
	End            int
	StatementStart int
	StatementEnd   int
	// PhaseStart and PhaseEnd bound the "source" keyword of a
	// source-phase import declaration.
	PhaseStart int
	PhaseEnd   int
	Attributes map[string]string
}

// IsDynamic reports whether the import is resolved at run time.
func (i Import) IsDynamic() bool {
	return i.Kind == KindDynamic || i.Kind == KindDynamicSource
}

// IsDependency reports whether the import must be linked before the
// importing module can be evaluated.
func (i Import) IsDependency() bool {
	return i.Kind == KindStatic || i.Kind == KindSourcePhase
}

// Export is one exported name. Local is empty for re-exports and for
// anonymous default exports. Start and End bound the exported name as
// written, including quotes for string names.
type Export struct {
	Name       string
	Local      string
	Start      int
	End        int
	LocalStart int
	LocalEnd   int
}

// Analysis is the result of scanning one module.
type Analysis struct {
	Imports []Import
	Exports []Export
	// HasModuleSyntax is set when the source contains an import or export
	// declaration or import.meta.
	HasModuleSyntax bool
}

// Dependencies returns the link-time imports in source order.
func (a *Analysis) Dependencies() []Import {
	var deps []Import
	for _, imp := range a.Imports {
		if imp.IsDependency() {
			deps = append(deps, imp)
		}
	}
	return deps
}

// ExportNames returns the exported names in source order.
func (a *Analysis) ExportNames() []string {
	names := make([]string, 0, len(a.Exports))
	for _, e := range a.Exports {
		names = append(names, e.Name)
	}
	return names
}

// Analyze scans module source and returns its imports and exports.
// It fails with *SourceParseError when the text cannot be scanned.
func Analyze(source string) (*Analysis, error) {
	s := newScanner(source)
	if err := s.run(); err != nil {
		return nil, err
	}
	return &Analysis{
		Imports:         s.imports,
		Exports:         s.exports,
		HasModuleSyntax: s.moduleSyntax,
	}, nil
}
