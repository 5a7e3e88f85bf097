package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// ErrMissingWindow is returned when a model has no year window for a
// scenario.
var ErrMissingWindow = errors.New("missing scenario window")

// Window is the inclusive range of years that represents a warming level
// for one model.
type Window struct {
	Scenario string `toml:"scenario"`
	Start    int    `toml:"start"`
	End      int    `toml:"end"`
}

// Contains reports whether year lies in the window.
func (w Window) Contains(year int) bool {
	return year >= w.Start && year <= w.End
}

// Model identifies one GCM run and its warming-level windows.
type Model struct {
	Name    string   `toml:"name"`
	Version string   `toml:"version"`
	Grid    string   `toml:"grid"`
	Windows []Window `toml:"window"`
}

// Window returns the model's window for the named scenario.
func (m Model) Window(scenario string) (Window, error) {
	for _, w := range m.Windows {
		if w.Scenario == scenario {
			return w, nil
		}
	}
	return Window{}, fmt.Errorf("%w: model %s has no window for %q", ErrMissingWindow, m.Name, scenario)
}

// Config holds all settings of a run.
type Config struct {
	DataDir     string   `toml:"data_dir"`
	OutputDir   string   `toml:"output_dir"`
	Format      string   `toml:"format"`
	MetricsFile string   `toml:"metrics_file"`
	LogLevel    string   `toml:"log_level"`
	LogFormat   string   `toml:"log_format"`
	Scenarios   []string `toml:"scenarios"`
	Models      []Model  `toml:"model"`
}

// Default returns the configuration of the HighResMIP models used by the
// STORM climate-change experiments.
func Default() *Config {
	return &Config{
		DataDir:   ".",
		Format:    "txt",
		LogLevel:  "info",
		LogFormat: "text",
		Scenarios: []string{"1C", "1.5C", "2C"},
		Models: []Model{
			{
				Name: "CMCC-CM2-VHR4", Version: "r1i1p1f1", Grid: "gn",
				Windows: []Window{{"1C", 1993, 2012}, {"1.5C", 2012, 2031}, {"2C", 2024, 2043}},
			},
			{
				Name: "CNRM-CM6-1-HR", Version: "r1i1p1f2", Grid: "gr",
				Windows: []Window{{"1C", 1994, 2013}, {"1.5C", 2009, 2028}, {"2C", 2020, 2039}},
			},
			{
				Name: "EC-Earth3P-HR", Version: "r1i1p2f1", Grid: "gr",
				Windows: []Window{{"1C", 1999, 2018}, {"1.5C", 2015, 2034}, {"2C", 2026, 2045}},
			},
			{
				Name: "HadGEM3-GC31-HM", Version: "r1i3p1f1", Grid: "gn",
				Windows: []Window{{"1C", 2004, 2023}, {"1.5C", 2016, 2035}, {"2C", 2025, 2044}},
			},
		},
	}
}

// Load builds the configuration from the defaults, the TOML file at path (if
// path is not empty) and GCMCLIM_* environment variables, in that order of
// increasing precedence.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		var file Config
		md, err := toml.DecodeFile(path, &file)
		if err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("config %s: unknown keys %s", path, strings.Join(keys, ", "))
		}
		cfg.merge(&file)
	}

	cfg.DataDir = envOrDefault("GCMCLIM_DATA_DIR", cfg.DataDir)
	cfg.OutputDir = envOrDefault("GCMCLIM_OUTPUT_DIR", cfg.OutputDir)
	cfg.Format = envOrDefault("GCMCLIM_FORMAT", cfg.Format)
	cfg.MetricsFile = envOrDefault("GCMCLIM_METRICS_FILE", cfg.MetricsFile)
	cfg.LogLevel = envOrDefault("GCMCLIM_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = envOrDefault("GCMCLIM_LOG_FORMAT", cfg.LogFormat)
	return cfg, nil
}

// merge overwrites the settings that are set in f.
func (c *Config) merge(f *Config) {
	for _, kv := range []struct{ dst, src *string }{
		{&c.DataDir, &f.DataDir},
		{&c.OutputDir, &f.OutputDir},
		{&c.Format, &f.Format},
		{&c.MetricsFile, &f.MetricsFile},
		{&c.LogLevel, &f.LogLevel},
		{&c.LogFormat, &f.LogFormat},
	} {
		if *kv.src != "" {
			*kv.dst = *kv.src
		}
	}
	if len(f.Scenarios) > 0 {
		c.Scenarios = f.Scenarios
	}
	if len(f.Models) > 0 {
		c.Models = f.Models
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Output returns the directory output files are written to.
func (c *Config) Output() string {
	if c.OutputDir == "" {
		return c.DataDir
	}
	return c.OutputDir
}

// Validate checks the configuration. Every model must have exactly one
// window per scenario.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("data_dir is required")
	}
	switch c.Format {
	case "txt", "nc":
	default:
		return fmt.Errorf("format %q is not supported", c.Format)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level %q is not supported", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format %q is not supported", c.LogFormat)
	}
	if len(c.Scenarios) == 0 {
		return errors.New("at least one scenario is required")
	}
	for i, sc := range c.Scenarios {
		if sc == "" {
			return errors.New("scenario names must not be empty")
		}
		if slices.Contains(c.Scenarios[:i], sc) {
			return fmt.Errorf("scenario %q is listed twice", sc)
		}
	}
	if len(c.Models) == 0 {
		return errors.New("at least one model is required")
	}

	names := map[string]bool{}
	for _, m := range c.Models {
		if m.Name == "" || m.Version == "" || m.Grid == "" {
			return fmt.Errorf("model %q: name, version and grid are required", m.Name)
		}
		if names[m.Name] {
			return fmt.Errorf("model %q is listed twice", m.Name)
		}
		names[m.Name] = true

		seen := map[string]bool{}
		for _, w := range m.Windows {
			if !slices.Contains(c.Scenarios, w.Scenario) {
				return fmt.Errorf("model %s: window for unknown scenario %q", m.Name, w.Scenario)
			}
			if seen[w.Scenario] {
				return fmt.Errorf("model %s: scenario %q has more than one window", m.Name, w.Scenario)
			}
			seen[w.Scenario] = true
			if w.Start > w.End {
				return fmt.Errorf("model %s: scenario %q starts in %d after it ends in %d", m.Name, w.Scenario, w.Start, w.End)
			}
		}
		for _, sc := range c.Scenarios {
			if _, err := m.Window(sc); err != nil {
				return err
			}
		}
	}
	return nil
}

// Select returns the models with the given names in configuration order, or
// every model if names is empty.
func (c *Config) Select(names []string) ([]Model, error) {
	if len(names) == 0 {
		return c.Models, nil
	}
	var unknown []string
	for _, n := range names {
		if !slices.ContainsFunc(c.Models, func(m Model) bool { return m.Name == n }) {
			unknown = append(unknown, n)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown models: %s", strings.Join(unknown, ", "))
	}
	var models []Model
	for _, m := range c.Models {
		if slices.Contains(names, m.Name) {
			models = append(models, m)
		}
	}
	return models, nil
}
