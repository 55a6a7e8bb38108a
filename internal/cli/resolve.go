package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ResolveOptions holds flags for the resolve command.
type ResolveOptions struct {
	*RootOptions
	Parent   string
	Maps     []string
	BaseURL  string
	Override bool
}

// ResolveResult is the output of the resolve command.
type ResolveResult struct {
	Specifier string `json:"specifier"`
	Parent    string `json:"parent"`
	URL       string `json:"url"`
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResolveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "resolve <specifier>",
		Short: "Resolve a specifier through import maps",
		Long: `Resolve a module specifier the way the loader does: relative and absolute
URLs are normalized against the parent, then looked up in the composed
import map from the most specific scope to the top-level imports.

Maps come from --map flags in order, or from the config's import_maps.

Exit codes:
  0 - Specifier resolved
  1 - Specifier unresolved or blocked
  2 - Command error (missing map file, bad config, etc.)

Examples:
  modshim resolve react --map importmap.json
  modshim resolve ./util.js --parent https://app.test/lib/main.js`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Parent, "parent", "", "URL of the importing module (default: the base URL)")
	cmd.Flags().StringArrayVarP(&opts.Maps, "map", "m", nil, "import map file, repeatable and composed in order")
	cmd.Flags().StringVar(&opts.BaseURL, "base-url", "", "document URL (default from config)")
	cmd.Flags().BoolVar(&opts.Override, "override", false, "let later maps replace existing entries")

	return cmd
}

func runResolve(opts *ResolveOptions, specifier string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	baseURL := cfg.BaseURL
	if opts.BaseURL != "" {
		baseURL = opts.BaseURL
	}
	maps := opts.Maps
	if len(maps) == 0 {
		maps = cfg.ImportMaps
	}
	parent := opts.Parent
	if parent == "" {
		parent = baseURL
	}

	composed, _, err := composeFiles(maps, baseURL, opts.Override || cfg.MapOverrides)
	if err != nil {
		_ = formatter.Error(ErrCodeInvalidMap, err.Error(), nil)
		return err
	}
	formatter.VerboseLog("composed %d import map(s)", len(maps))

	url, err := composed.Resolve(specifier, parent)
	if err != nil {
		if outErr := formatter.LoadError(err, nil); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitFailure, fmt.Sprintf("cannot resolve %q", specifier), err)
	}

	if opts.Format == "json" {
		return formatter.Success(ResolveResult{Specifier: specifier, Parent: parent, URL: url})
	}
	return formatter.Success(url)
}
