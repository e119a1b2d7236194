// Package config provides configuration management for goldenfile.
// It supports YAML and TOML configuration files, environment variables, and
// sensible defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/klauern/goldenfile/differ"
	"github.com/klauern/goldenfile/internal/util"
	"github.com/klauern/goldenfile/mint"
)

// Config represents the complete goldenfile configuration.
type Config struct {
	// GoldenDir is the default golden directory for CLI commands
	GoldenDir string `yaml:"golden_dir" toml:"golden_dir"`

	// CreateEmpty controls whether updates write zero-length golden files.
	// When false, an empty staged file removes its golden copy.
	CreateEmpty bool `yaml:"create_empty" toml:"create_empty"`

	// Differs configures differ selection
	Differs DiffersConfig `yaml:"differs" toml:"differs"`

	// Output configures display preferences
	Output OutputConfig `yaml:"output" toml:"output"`

	// Snapshot configures snapshots taken before updates
	Snapshot SnapshotConfig `yaml:"snapshot" toml:"snapshot"`
}

// DiffersConfig holds differ selection overrides.
type DiffersConfig struct {
	// Extensions maps a file extension (without dot) to a differ name
	Extensions map[string]string `yaml:"extensions,omitempty" toml:"extensions,omitempty"`
	// Rules map doublestar patterns to differ names; first match wins
	Rules []RuleConfig `yaml:"rules,omitempty" toml:"rules,omitempty"`
}

// RuleConfig maps a path pattern to a differ.
type RuleConfig struct {
	Pattern string `yaml:"pattern" toml:"pattern"`
	Differ  string `yaml:"differ" toml:"differ"`
}

// OutputConfig holds display preferences.
type OutputConfig struct {
	// Color controls color output (auto, always, never)
	Color string `yaml:"color" toml:"color"`
	// Verbose enables verbose output
	Verbose bool `yaml:"verbose" toml:"verbose"`
}

// SnapshotConfig holds snapshot settings.
type SnapshotConfig struct {
	// Enabled takes a snapshot before every CLI update
	Enabled bool `yaml:"enabled" toml:"enabled"`
	// Location is the snapshot directory path
	Location string `yaml:"location" toml:"location"`
	// MaxSnapshots is the maximum number of snapshots to keep
	MaxSnapshots int `yaml:"max_snapshots" toml:"max_snapshots"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		GoldenDir:   "testdata",
		CreateEmpty: true,
		Output: OutputConfig{
			Color:   "auto",
			Verbose: false,
		},
		Snapshot: SnapshotConfig{
			Enabled:      false,
			Location:     util.GoldenfileSnapshotsPath(),
			MaxSnapshots: 10,
		},
	}
}

// ProjectFileNames are the per-project config files, in lookup order.
var ProjectFileNames = []string{".goldenfile.yaml", ".goldenfile.yml", ".goldenfile.toml"}

// configFileName is the name of the user-level config file.
const configFileName = "config.yaml"

// FilePath returns the path to the user-level config file.
func FilePath() string {
	return filepath.Join(util.GoldenfileConfigPath(), configFileName)
}

// Find returns the config file that Load would read for dir: the first
// project file in dir, then the user-level file. It returns "" when none
// exists.
func Find(dir string) string {
	for _, name := range ProjectFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	if _, err := os.Stat(FilePath()); err == nil {
		return FilePath()
	}
	return ""
}

// Load loads the configuration for the working directory, merging with
// defaults. If no config file exists, returns the default configuration.
func Load() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	path := Find(wd)
	if path == "" {
		cfg := Default()
		cfg.applyEnvironment()
		cfg.resolvePaths(wd)
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config from environment: %w", err)
		}
		return cfg, nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific path. Files ending in
// .toml are parsed as TOML, everything else as YAML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	// #nosec G304 - path is provided by caller
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if isTOML(path) {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	cfg.applyEnvironment()
	cfg.resolvePaths(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to the user-level config file.
func (c *Config) Save() error {
	return c.SaveToPath(FilePath())
}

// SaveToPath writes the configuration to a specific path, in TOML when the
// path ends in .toml and YAML otherwise.
func (c *Config) SaveToPath(path string) error {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}

	format := "yaml"
	if isTOML(path) {
		format = "toml"
	}
	data, err := c.Marshal(format)
	if err != nil {
		return err
	}

	// #nosec G306 - config file should be readable by user
	return os.WriteFile(path, data, 0o644)
}

// Marshal encodes the configuration as "yaml" or "toml".
func (c *Config) Marshal(format string) ([]byte, error) {
	switch format {
	case "yaml", "":
		return yaml.Marshal(c)
	case "toml":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported config format %q (valid: yaml, toml)", format)
	}
}

// Validate checks enumerated values and differ names.
func (c *Config) Validate() error {
	var errs []error
	switch c.Output.Color {
	case "auto", "always", "never":
	default:
		errs = append(errs, fmt.Errorf("output.color must be auto, always or never, got %q", c.Output.Color))
	}
	for ext, name := range c.Differs.Extensions {
		if _, err := differ.Parse(name); err != nil {
			errs = append(errs, fmt.Errorf("differs.extensions[%s]: %w", ext, err))
		}
	}
	for i, r := range c.Differs.Rules {
		if _, err := differ.Parse(r.Differ); err != nil {
			errs = append(errs, fmt.Errorf("differs.rules[%d]: %w", i, err))
		}
	}
	if c.Snapshot.MaxSnapshots < 0 {
		errs = append(errs, fmt.Errorf("snapshot.max_snapshots must not be negative"))
	}
	return errors.Join(errs...)
}

// Selector builds the differ selector described by the configuration.
func (c *Config) Selector() (*differ.Selector, error) {
	sel := differ.NewSelector()
	for ext, name := range c.Differs.Extensions {
		d, err := differ.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("extension %q: %w", ext, err)
		}
		sel.Register(ext, d)
	}
	for _, r := range c.Differs.Rules {
		d, err := differ.Parse(r.Differ)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", r.Pattern, err)
		}
		if err := sel.AddRule(r.Pattern, d); err != nil {
			return nil, err
		}
	}
	return sel, nil
}

// MintOptions returns the Mint options described by the configuration.
func (c *Config) MintOptions() ([]mint.Option, error) {
	sel, err := c.Selector()
	if err != nil {
		return nil, err
	}
	return []mint.Option{
		mint.WithSelector(sel),
		mint.WithCreateEmpty(c.CreateEmpty),
	}, nil
}

// applyEnvironment applies environment variable overrides.
// Environment variables follow the pattern GOLDENFILE_<SECTION>_<KEY>.
func (c *Config) applyEnvironment() {
	if v := os.Getenv("GOLDENFILE_GOLDEN_DIR"); v != "" {
		c.GoldenDir = v
	}
	if v := os.Getenv("GOLDENFILE_CREATE_EMPTY"); v != "" {
		c.CreateEmpty = parseBool(v)
	}

	// Differ settings
	if v := os.Getenv("GOLDENFILE_BINARY_EXTENSIONS"); v != "" {
		if c.Differs.Extensions == nil {
			c.Differs.Extensions = make(map[string]string)
		}
		for _, ext := range splitList(v) {
			c.Differs.Extensions[strings.TrimPrefix(ext, ".")] = "binary"
		}
	}

	// Output settings
	if v := os.Getenv("GOLDENFILE_OUTPUT_COLOR"); v != "" {
		c.Output.Color = v
	}
	if v := os.Getenv("GOLDENFILE_OUTPUT_VERBOSE"); v != "" {
		c.Output.Verbose = parseBool(v)
	}

	// Snapshot settings
	if v := os.Getenv("GOLDENFILE_SNAPSHOT_ENABLED"); v != "" {
		c.Snapshot.Enabled = parseBool(v)
	}
	if v := os.Getenv("GOLDENFILE_SNAPSHOT_LOCATION"); v != "" {
		c.Snapshot.Location = v
	}
	if v := os.Getenv("GOLDENFILE_SNAPSHOT_MAX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Snapshot.MaxSnapshots = n
		}
	}
}

// resolvePaths expands ~ and makes the snapshot location relative to the
// config file's directory. An empty location falls back to the default.
func (c *Config) resolvePaths(baseDir string) {
	if c.Snapshot.Location == "" {
		c.Snapshot.Location = util.GoldenfileSnapshotsPath()
		return
	}
	c.Snapshot.Location = util.ExpandPath(c.Snapshot.Location, baseDir)
}

// parseBool parses a boolean from common string representations.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// splitList splits a comma- or colon-separated list.
// Empty segments are filtered out.
func splitList(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ':' })
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Exists returns true if the user-level config file exists.
func Exists() bool {
	_, err := os.Stat(FilePath())
	return err == nil
}
