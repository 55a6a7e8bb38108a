// Package config loads modshim settings from a config file and MODSHIM_
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/roach88/modshim/internal/features"
	"github.com/roach88/modshim/internal/fetch"
	"github.com/roach88/modshim/internal/loader"
)

// EnvPrefix prefixes every environment override, e.g. MODSHIM_SHIM_MODE.
const EnvPrefix = "MODSHIM"

// Config holds loader and fetcher settings.
type Config struct {
	// BaseURL is the document URL entries resolve against.
	BaseURL string `mapstructure:"base_url"`

	// Root, when set, serves modules from this directory at BaseURL
	// instead of fetching over HTTP.
	Root string `mapstructure:"root"`

	// Cache is a SQLite database path for fetched modules. Empty disables
	// caching.
	Cache string `mapstructure:"cache"`

	// UserAgent is sent by the HTTP fetcher.
	UserAgent string `mapstructure:"user_agent"`

	// Preset names the host capability preset: none, baseline or full.
	Preset string `mapstructure:"preset"`

	// Capabilities overrides individual capabilities of Preset.
	Capabilities map[string]bool `mapstructure:"capabilities"`

	// Enable lists polyfill features to enable.
	Enable []string `mapstructure:"enable"`

	// ImportMaps are import map files registered in order.
	ImportMaps []string `mapstructure:"import_maps"`

	ShimMode         bool     `mapstructure:"shim_mode"`
	MapOverrides     bool     `mapstructure:"map_overrides"`
	EnforceIntegrity bool     `mapstructure:"enforce_integrity"`
	RevokeBlobURLs   bool     `mapstructure:"revoke_blob_urls"`
	Skip             []string `mapstructure:"skip"`
	FetchPoolSize    int      `mapstructure:"fetch_pool_size"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:       "http://localhost/",
		UserAgent:     "modshim",
		Preset:        "baseline",
		FetchPoolSize: 100,
	}
}

// Load reads path (YAML, JSON or TOML, chosen by extension) over the
// defaults and applies MODSHIM_ environment overrides. An empty path loads
// defaults and environment only.
func Load(path string) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("base_url", defaults.BaseURL)
	v.SetDefault("root", defaults.Root)
	v.SetDefault("cache", defaults.Cache)
	v.SetDefault("user_agent", defaults.UserAgent)
	v.SetDefault("preset", defaults.Preset)
	v.SetDefault("capabilities", map[string]bool{})
	v.SetDefault("enable", []string{})
	v.SetDefault("import_maps", []string{})
	v.SetDefault("shim_mode", defaults.ShimMode)
	v.SetDefault("map_overrides", defaults.MapOverrides)
	v.SetDefault("enforce_integrity", defaults.EnforceIntegrity)
	v.SetDefault("revoke_blob_urls", defaults.RevokeBlobURLs)
	v.SetDefault("skip", []string{})
	v.SetDefault("fetch_pool_size", defaults.FetchPoolSize)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file not found: %w", err)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that cannot be expressed as types.
func (c *Config) Validate() error {
	var errs []error
	if c.BaseURL == "" {
		errs = append(errs, errors.New("base_url is required"))
	}
	if c.FetchPoolSize < 1 {
		errs = append(errs, fmt.Errorf("fetch_pool_size must be positive, got %d", c.FetchPoolSize))
	}
	if _, err := features.WithOverrides(c.Preset, c.Capabilities); err != nil {
		errs = append(errs, err)
	}
	if _, err := features.ParseEnabled(c.Enable); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// LoaderOptions translates the config into loader options.
func (c *Config) LoaderOptions() ([]loader.Option, error) {
	caps, err := features.WithOverrides(c.Preset, c.Capabilities)
	if err != nil {
		return nil, err
	}
	enabled, err := features.ParseEnabled(c.Enable)
	if err != nil {
		return nil, err
	}
	return []loader.Option{
		loader.WithBaseURL(c.BaseURL),
		loader.WithCapabilities(caps),
		loader.WithEnabled(enabled),
		loader.WithShimMode(c.ShimMode),
		loader.WithMapOverrides(c.MapOverrides),
		loader.WithEnforceIntegrity(c.EnforceIntegrity),
		loader.WithRevokeBlobURLs(c.RevokeBlobURLs),
		loader.WithSkip(c.Skip...),
		loader.WithFetchPoolSize(c.FetchPoolSize),
	}, nil
}

// Fetcher returns the origin fetcher: the Root directory when set,
// otherwise HTTP.
func (c *Config) Fetcher() fetch.Fetcher {
	if c.Root != "" {
		return fetch.NewFileFetcher(c.Root, c.BaseURL)
	}
	return fetch.NewHTTPFetcher(fetch.WithUserAgent(c.UserAgent))
}
