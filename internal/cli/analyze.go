package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/modshim/internal/lexer"
)

// ImportInfo is one import reported by analyze.
type ImportInfo struct {
	Kind       string            `json:"kind"`
	Specifier  string            `json:"specifier,omitempty"`
	Offset     int               `json:"offset"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// AnalyzeResult is the output of the analyze command.
type AnalyzeResult struct {
	File         string       `json:"file"`
	ModuleSyntax bool         `json:"module_syntax"`
	Imports      []ImportInfo `json:"imports"`
	Exports      []string     `json:"exports"`
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "List the imports and exports of a module source",
		Long: `Scan a JavaScript module and list its static, dynamic and source-phase
imports, import.meta references and exported names, as the loader sees them.

Use "-" to read the source from stdin.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runAnalyze(opts *RootOptions, file string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	source, err := readSource(file, cmd.InOrStdin())
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read source", err)
	}

	analysis, err := lexer.Analyze(source)
	if err != nil {
		if outErr := formatter.LoadError(err, map[string]string{"file": file}); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitFailure, "failed to analyze "+file, err)
	}

	result := AnalyzeResult{
		File:         file,
		ModuleSyntax: analysis.HasModuleSyntax,
		Imports:      make([]ImportInfo, 0, len(analysis.Imports)),
		Exports:      analysis.ExportNames(),
	}
	for _, imp := range analysis.Imports {
		result.Imports = append(result.Imports, ImportInfo{
			Kind:       imp.Kind.String(),
			Specifier:  imp.Specifier,
			Offset:     imp.StatementStart,
			Attributes: imp.Attributes,
		})
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	writeAnalysisText(cmd.OutOrStdout(), result)
	return nil
}

func readSource(file string, stdin io.Reader) (string, error) {
	if file == "-" {
		data, err := io.ReadAll(stdin)
		return string(data), err
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func writeAnalysisText(w io.Writer, result AnalyzeResult) {
	fmt.Fprintf(w, "%s (module syntax: %t)\n", result.File, result.ModuleSyntax)
	fmt.Fprintf(w, "Imports: %d\n", len(result.Imports))
	for _, imp := range result.Imports {
		spec := imp.Specifier
		if spec == "" && imp.Kind != lexer.KindMeta.String() {
			spec = "<expression>"
		}
		fmt.Fprintf(w, "  %-14s %s%s\n", imp.Kind, spec, formatAttributes(imp.Attributes))
	}
	fmt.Fprintf(w, "Exports: %d\n", len(result.Exports))
	if len(result.Exports) > 0 {
		fmt.Fprintf(w, "  %s\n", strings.Join(result.Exports, ", "))
	}
}

func formatAttributes(attrs map[string]string) string {
	if len(attrs) == 0 {
		return ""
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %q", k, attrs[k])
	}
	return " with { " + strings.Join(parts, ", ") + " }"
}
