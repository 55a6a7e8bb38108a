package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/modshim/internal/importmap"
)

// ImportMapOptions holds flags shared by the importmap subcommands.
type ImportMapOptions struct {
	*RootOptions
	BaseURL  string
	Override bool
}

// ComposeResult is the output of importmap compose.
type ComposeResult struct {
	Map      json.RawMessage     `json:"map"`
	Hash     string              `json:"hash"`
	Warnings []importmap.Warning `json:"warnings"`
}

// MapValidation is the validation outcome for one import map file.
type MapValidation struct {
	File  string `json:"file"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// NewImportMapCommand creates the importmap command group.
func NewImportMapCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportMapOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "importmap",
		Short: "Compose and validate import maps",
	}
	cmd.PersistentFlags().StringVar(&opts.BaseURL, "base-url", "", "document URL map keys resolve against (default from config)")
	cmd.PersistentFlags().BoolVar(&opts.Override, "override", false, "let later maps replace existing entries")

	cmd.AddCommand(&cobra.Command{
		Use:   "compose <map.json>...",
		Short: "Compose import maps in order",
		Long: `Compose import map files in the order given, as if each were a separate
<script type="importmap"> in the document.

Prints the composed map in canonical form with its hash. Entries rejected
during composition are reported as warnings.

Example:
  modshim importmap compose base.json overrides.json --base-url https://app.test/`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompose(opts, args, cmd)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate <map.json>...",
		Short: "Validate import map documents",
		Long: `Validate import map files against the import map schema.

Exit codes:
  0 - All maps are valid
  1 - One or more maps are invalid
  2 - Command error (file not found, etc.)`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidateMaps(opts, args, cmd)
		},
	})

	return cmd
}

// baseURL returns the --base-url flag, falling back to config.
func (o *ImportMapOptions) baseURL() (string, error) {
	if o.BaseURL != "" {
		return o.BaseURL, nil
	}
	cfg, err := o.loadConfig()
	if err != nil {
		return "", err
	}
	return cfg.BaseURL, nil
}

// composeFiles reads, validates and composes import map files in order.
func composeFiles(files []string, baseURL string, override bool) (*importmap.ImportMap, []importmap.Warning, error) {
	composed := importmap.New()
	warnings := []importmap.Warning{}
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, nil, WrapExitError(ExitCommandError, "failed to read import map", err)
		}
		m, err := importmap.ParseValidated(data)
		if err != nil {
			return nil, nil, WrapExitError(ExitFailure, fmt.Sprintf("invalid import map %s", file), err)
		}
		var ws []importmap.Warning
		composed, ws = importmap.Compose(composed, m, baseURL, importmap.ComposeOptions{Override: override})
		for _, w := range ws {
			slog.Warn("import map entry rejected", "file", file, "warning", w.String())
		}
		warnings = append(warnings, ws...)
	}
	return composed, warnings, nil
}

func runCompose(opts *ImportMapOptions, files []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	baseURL, err := opts.baseURL()
	if err != nil {
		return err
	}
	composed, warnings, err := composeFiles(files, baseURL, opts.Override)
	if err != nil {
		_ = formatter.Error(ErrCodeInvalidMap, err.Error(), nil)
		return err
	}

	canonical, err := importmap.Canonical(composed)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to encode import map", err)
	}
	hash, err := importmap.Hash(composed)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to hash import map", err)
	}

	if opts.Format == "json" {
		return formatter.Success(ComposeResult{Map: canonical, Hash: hash, Warnings: warnings})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, string(canonical))
	for _, warning := range warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	formatter.VerboseLog("hash %s", hash)
	return nil
}

func runValidateMaps(opts *ImportMapOptions, files []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	results := make([]MapValidation, 0, len(files))
	invalid := 0
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read import map", err)
		}
		result := MapValidation{File: file, Valid: true}
		if err := importmap.Validate(data); err != nil {
			result.Valid = false
			result.Error = err.Error()
			invalid++
		}
		results = append(results, result)
	}

	if opts.Format == "json" {
		if invalid > 0 {
			if err := formatter.Error(ErrCodeInvalidMap, fmt.Sprintf("%d import map(s) invalid", invalid), results); err != nil {
				return err
			}
		} else if err := formatter.Success(results); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		for _, r := range results {
			if r.Valid {
				fmt.Fprintf(w, "✓ %s\n", r.File)
				continue
			}
			fmt.Fprintf(w, "✗ %s\n  %s\n", r.File, r.Error)
		}
	}

	if invalid > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d import map(s) invalid", invalid))
	}
	return nil
}

