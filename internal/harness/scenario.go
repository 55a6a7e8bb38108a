package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/modshim/internal/features"
	"github.com/roach88/modshim/internal/loader"
)

// DefaultBaseURL is the document URL scenarios run under.
const DefaultBaseURL = "https://app.test/"

// Scenario defines one loading scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// BaseURL is the document URL. Defaults to DefaultBaseURL.
	BaseURL string `yaml:"base_url,omitempty"`

	// Preset names the host's capability preset: none, baseline or full.
	// Defaults to baseline.
	Preset string `yaml:"preset,omitempty"`

	// Capabilities overrides individual capabilities of the preset.
	Capabilities map[string]bool `yaml:"capabilities,omitempty"`

	// Enable lists polyfill features to enable (css-modules, all, ...).
	Enable []string `yaml:"enable,omitempty"`

	ShimMode         bool     `yaml:"shim_mode,omitempty"`
	MapOverrides     bool     `yaml:"map_overrides,omitempty"`
	EnforceIntegrity bool     `yaml:"enforce_integrity,omitempty"`
	Skip             []string `yaml:"skip,omitempty"`
	FetchPoolSize    int      `yaml:"fetch_pool_size,omitempty"`

	// Modules is the site the loader fetches from.
	Modules []ModuleDef `yaml:"modules"`

	// ImportMaps are registered in order before any entry runs.
	ImportMaps []ImportMapDef `yaml:"import_maps,omitempty"`

	// Entries are imported one after another on the same loader.
	Entries []string `yaml:"entries,omitempty"`

	// Inline is module source loaded as an inline script after Entries.
	Inline string `yaml:"inline,omitempty"`

	// Assertions validate the outcome.
	Assertions []Assertion `yaml:"assertions"`
}

// ModuleDef is one served module.
type ModuleDef struct {
	// URL is relative to the scenario's base URL, or absolute.
	URL string `yaml:"url"`

	// ContentType defaults to a guess from the URL's extension.
	ContentType string `yaml:"content_type,omitempty"`

	// Status defaults to 200.
	Status int `yaml:"status,omitempty"`

	// RedirectTo makes the response URL differ from the request URL.
	RedirectTo string `yaml:"redirect_to,omitempty"`

	Source string `yaml:"source"`
}

// ImportMapDef is an inline import map document or a reference to one of
// the scenario's modules.
type ImportMapDef struct {
	Inline string `yaml:"inline,omitempty"`
	Src    string `yaml:"src,omitempty"`
}

// Assertion validates the outcome of a scenario.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// URL is the module the assertion is about (passthrough, rewritten,
	// contains, fetch_count).
	URL string `yaml:"url,omitempty"`

	// Equals pins the whole rewritten source (rewritten).
	Equals *string `yaml:"equals,omitempty"`

	// Text is the expected substring (contains, error).
	Text string `yaml:"text,omitempty"`

	// Count is the expected number of fetches (fetch_count).
	Count int `yaml:"count,omitempty"`

	// Code is the expected error code (error).
	Code string `yaml:"code,omitempty"`

	// URLs is the expected evaluation order (evaluated_before).
	URLs []string `yaml:"urls,omitempty"`
}

// Assertion type constants.
const (
	AssertPassthrough     = "passthrough"
	AssertRewritten       = "rewritten"
	AssertContains        = "contains"
	AssertFetchCount      = "fetch_count"
	AssertError           = "error"
	AssertEvaluatedBefore = "evaluated_before"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Entries) == 0 && s.Inline == "" {
		return fmt.Errorf("entries or inline is required")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if s.Preset != "" {
		if _, err := features.Preset(s.Preset); err != nil {
			return err
		}
	}
	if _, err := capabilitiesFor(s); err != nil {
		return err
	}
	if _, err := features.ParseEnabled(s.Enable); err != nil {
		return err
	}

	for i, m := range s.Modules {
		if m.URL == "" {
			return fmt.Errorf("modules[%d]: url is required", i)
		}
	}
	for i, m := range s.ImportMaps {
		if (m.Inline == "") == (m.Src == "") {
			return fmt.Errorf("import_maps[%d]: exactly one of inline or src is required", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertPassthrough, AssertRewritten:
		if a.URL == "" {
			return fmt.Errorf("assertions[%d]: url is required for %s", index, a.Type)
		}
	case AssertContains:
		if a.URL == "" || a.Text == "" {
			return fmt.Errorf("assertions[%d]: url and text are required for contains", index)
		}
	case AssertFetchCount:
		if a.URL == "" {
			return fmt.Errorf("assertions[%d]: url is required for fetch_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for fetch_count", index)
		}
	case AssertError:
		if a.Code == "" && a.Text == "" {
			return fmt.Errorf("assertions[%d]: code or text is required for error", index)
		}
		if a.Code != "" && !knownCode(a.Code) {
			return fmt.Errorf("assertions[%d]: unknown error code %q", index, a.Code)
		}
	case AssertEvaluatedBefore:
		if len(a.URLs) < 2 {
			return fmt.Errorf("assertions[%d]: at least two urls are required for evaluated_before", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

func knownCode(code string) bool {
	switch loader.Code(code) {
	case loader.CodeFetch, loader.CodeIntegrity, loader.CodeSourceParse,
		loader.CodeUnresolvedSpecifier, loader.CodeBlockedSpecifier,
		loader.CodeUnsupportedContentType, loader.CodeCycleShell, loader.CodeUnknown:
		return true
	}
	return false
}

// capabilitiesFor applies the scenario's capability overrides to its
// preset.
func capabilitiesFor(s *Scenario) (features.Capabilities, error) {
	return features.WithOverrides(s.Preset, s.Capabilities)
}
