package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/modshim/internal/config"
	"github.com/roach88/modshim/internal/fetch"
	"github.com/roach88/modshim/internal/graph"
	"github.com/roach88/modshim/internal/host"
	"github.com/roach88/modshim/internal/loader"
	"github.com/roach88/modshim/internal/shell"
	"github.com/roach88/modshim/internal/store"
)

// LoadOptions holds flags for the load command. Set flags override the
// config file.
type LoadOptions struct {
	*RootOptions
	Root     string
	BaseURL  string
	Cache    string
	Preset   string
	Enable   []string
	Maps     []string
	ShimMode bool
}

// EntryResult is the outcome of one entry import.
type EntryResult struct {
	Entry   string   `json:"entry"`
	Exports []string `json:"exports,omitempty"`
	Error   string   `json:"error,omitempty"`
	Code    string   `json:"code,omitempty"`
}

// LoadResult is the output of the load command.
type LoadResult struct {
	Entries    []EntryResult        `json:"entries"`
	Modules    []loader.LoadInfo    `json:"modules"`
	Evaluated  []string             `json:"evaluated"`
	Cycles     []graph.CycleWarning `json:"cycles"`
	Polyfilled bool                 `json:"polyfilled"`
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "load <entry>...",
		Short: "Load module graphs without executing them",
		Long: `Load entry modules through the loader against an inspection host that
follows imports without running code.

Reports each module's shim decision, its blob URL, the evaluation order and
any import cycles. Modules come from --root (served at --base-url) or over
HTTP. With --cache, fetched modules are kept in a SQLite database and reused.

Exit codes:
  0 - All entries loaded
  1 - One or more entries failed
  2 - Command error (bad config, unreadable map, etc.)

Examples:
  modshim load ./app.js --root ./public --map ./public/importmap.json
  modshim load https://app.test/main.js --shim-mode --cache modules.db --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Root, "root", "", "directory served at the base URL")
	cmd.Flags().StringVar(&opts.BaseURL, "base-url", "", "document URL")
	cmd.Flags().StringVar(&opts.Cache, "cache", "", "SQLite module cache path")
	cmd.Flags().StringVar(&opts.Preset, "preset", "", "host capability preset (none|baseline|full)")
	cmd.Flags().StringSliceVar(&opts.Enable, "enable", nil, "polyfill features to enable")
	cmd.Flags().StringArrayVarP(&opts.Maps, "map", "m", nil, "import map file, repeatable")
	cmd.Flags().BoolVar(&opts.ShimMode, "shim-mode", false, "rewrite every module")

	return cmd
}

// apply copies set flags over cfg.
func (o *LoadOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("root") {
		cfg.Root = o.Root
	}
	if flags.Changed("base-url") {
		cfg.BaseURL = o.BaseURL
	}
	if flags.Changed("cache") {
		cfg.Cache = o.Cache
	}
	if flags.Changed("preset") {
		cfg.Preset = o.Preset
	}
	if flags.Changed("enable") {
		cfg.Enable = o.Enable
	}
	if flags.Changed("map") {
		cfg.ImportMaps = o.Maps
	}
	if flags.Changed("shim-mode") {
		cfg.ShimMode = o.ShimMode
	}
}

func runLoad(opts *LoadOptions, entries []string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	opts.apply(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid options", err)
	}

	origin := cfg.Fetcher()
	var fetcher fetch.Fetcher = origin
	if cfg.Cache != "" {
		st, err := store.Open(cfg.Cache)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open module cache", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing module cache", "error", closeErr)
			}
		}()
		fetcher = store.NewCachingFetcher(st, origin)
		formatter.VerboseLog("using module cache %s", cfg.Cache)
	}

	loaderOpts, err := cfg.LoaderOptions()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid options", err)
	}
	polyfilled := false
	loaderOpts = append(loaderOpts,
		loader.WithPolyfillHook(func() { polyfilled = true }),
		loader.WithErrorHook(func(err error) {
			slog.Debug("load failed", "code", loader.Classify(err), "error", err)
		}),
	)

	var inspector *host.Inspector
	l := loader.New(loader.HostFunc(func(ctx context.Context, url string) (shell.Namespace, error) {
		return inspector.Import(ctx, url)
	}), fetcher, loaderOpts...)
	defer l.Close(ctx)
	inspector = host.NewInspector(l.Blobs(), fetcher, host.WithResolver(l.Resolve))

	for _, file := range cfg.ImportMaps {
		doc, err := os.ReadFile(file)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read import map", err)
		}
		warnings, err := l.RegisterImportMap(ctx, doc, "")
		if err != nil {
			_ = formatter.LoadError(err, map[string]string{"file": file})
			return WrapExitError(ExitFailure, "invalid import map "+file, err)
		}
		for _, w := range warnings {
			slog.Warn("import map entry rejected", "file", file, "warning", w.String())
		}
	}

	result := LoadResult{Entries: make([]EntryResult, 0, len(entries))}
	failed := 0
	for _, entry := range entries {
		formatter.VerboseLog("importing %s", entry)
		ns, err := l.Import(ctx, entry)
		er := EntryResult{Entry: entry}
		if err != nil {
			er.Error = err.Error()
			er.Code = string(loader.Classify(err))
			failed++
		} else {
			er.Exports = ns.Exports()
		}
		result.Entries = append(result.Entries, er)
	}

	result.Modules = l.Loads()
	result.Evaluated = inspector.Order()
	result.Cycles = graph.AnalyzeCycles(graph.EdgesFrom(result.Modules))
	result.Polyfilled = polyfilled

	if opts.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: result}
		if failed > 0 {
			resp.Status = "error"
			resp.Error = &CLIError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("%d entry(s) failed", failed)}
		}
		if err := formatter.encode(resp); err != nil {
			return err
		}
	} else {
		writeLoadText(cmd.OutOrStdout(), result)
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d entry(s) failed", failed))
	}
	return nil
}

func writeLoadText(w io.Writer, result LoadResult) {
	for _, e := range result.Entries {
		if e.Error != "" {
			fmt.Fprintf(w, "✗ %s\n  %s: %s\n", e.Entry, e.Code, e.Error)
			continue
		}
		fmt.Fprintf(w, "✓ %s\n", e.Entry)
	}

	fmt.Fprintf(w, "\nModules: %d\n", len(result.Modules))
	for _, m := range result.Modules {
		state := "shimmed"
		switch {
		case m.Error != "":
			state = "failed"
		case m.Ready == "":
			state = "pending"
		case m.Passthrough:
			state = "native"
		}
		fmt.Fprintf(w, "  %-8s %s\n", state, m.URL)
	}

	if len(result.Evaluated) > 0 {
		fmt.Fprintln(w, "\nEvaluation order:")
		for i, url := range result.Evaluated {
			fmt.Fprintf(w, "  %d. %s\n", i+1, url)
		}
	}
	for _, c := range result.Cycles {
		fmt.Fprintf(w, "\nwarning: %s\n", c.Message)
	}
	if result.Polyfilled {
		fmt.Fprintln(w, "\nPolyfill engaged")
	}
}
