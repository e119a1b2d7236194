package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauern/goldenfile/differ"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	if cfg.GoldenDir != "testdata" {
		t.Errorf("expected GoldenDir 'testdata', got %q", cfg.GoldenDir)
	}
	if !cfg.CreateEmpty {
		t.Error("expected CreateEmpty to be true by default")
	}

	// Check output defaults
	if cfg.Output.Color != "auto" {
		t.Errorf("expected Output.Color to be 'auto', got %q", cfg.Output.Color)
	}
	if cfg.Output.Verbose {
		t.Error("expected Output.Verbose to be false by default")
	}

	// Check snapshot defaults
	if cfg.Snapshot.Enabled {
		t.Error("expected Snapshot.Enabled to be false by default")
	}
	if cfg.Snapshot.MaxSnapshots != 10 {
		t.Errorf("expected Snapshot.MaxSnapshots to be 10, got %d", cfg.Snapshot.MaxSnapshots)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	for _, name := range []string{"config.yaml", "config.toml"} {
		t.Run(name, func(t *testing.T) {
			tmpDir := t.TempDir()
			configPath := filepath.Join(tmpDir, name)

			// Create a config with custom values
			cfg := Default()
			cfg.GoldenDir = "golden"
			cfg.CreateEmpty = false
			cfg.Output.Verbose = true
			cfg.Snapshot.MaxSnapshots = 20
			cfg.Differs.Extensions = map[string]string{"png": "binary"}
			cfg.Differs.Rules = []RuleConfig{{Pattern: "**/*.raw", Differ: "binary"}}

			if err := cfg.SaveToPath(configPath); err != nil {
				t.Fatalf("SaveToPath failed: %v", err)
			}

			loaded, err := LoadFromPath(configPath)
			if err != nil {
				t.Fatalf("LoadFromPath failed: %v", err)
			}

			if loaded.GoldenDir != "golden" {
				t.Errorf("expected GoldenDir 'golden', got %q", loaded.GoldenDir)
			}
			if loaded.CreateEmpty {
				t.Error("expected CreateEmpty to be false")
			}
			if !loaded.Output.Verbose {
				t.Error("expected Verbose to be true")
			}
			if loaded.Snapshot.MaxSnapshots != 20 {
				t.Errorf("expected MaxSnapshots 20, got %d", loaded.Snapshot.MaxSnapshots)
			}
			if loaded.Differs.Extensions["png"] != "binary" {
				t.Errorf("expected png extension override, got %v", loaded.Differs.Extensions)
			}
			if len(loaded.Differs.Rules) != 1 || loaded.Differs.Rules[0].Pattern != "**/*.raw" {
				t.Errorf("unexpected rules: %+v", loaded.Differs.Rules)
			}
		})
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	tests := []struct {
		name     string
		envKey   string
		envValue string
		check    func(*Config) bool
	}{
		{
			name:     "golden dir",
			envKey:   "GOLDENFILE_GOLDEN_DIR",
			envValue: "fixtures",
			check:    func(c *Config) bool { return c.GoldenDir == "fixtures" },
		},
		{
			name:     "create empty",
			envKey:   "GOLDENFILE_CREATE_EMPTY",
			envValue: "false",
			check:    func(c *Config) bool { return !c.CreateEmpty },
		},
		{
			name:     "binary extensions",
			envKey:   "GOLDENFILE_BINARY_EXTENSIONS",
			envValue: ".png,jpg",
			check: func(c *Config) bool {
				return c.Differs.Extensions["png"] == "binary" && c.Differs.Extensions["jpg"] == "binary"
			},
		},
		{
			name:     "output verbose",
			envKey:   "GOLDENFILE_OUTPUT_VERBOSE",
			envValue: "true",
			check:    func(c *Config) bool { return c.Output.Verbose },
		},
		{
			name:     "output color",
			envKey:   "GOLDENFILE_OUTPUT_COLOR",
			envValue: "never",
			check:    func(c *Config) bool { return c.Output.Color == "never" },
		},
		{
			name:     "snapshot enabled",
			envKey:   "GOLDENFILE_SNAPSHOT_ENABLED",
			envValue: "yes",
			check:    func(c *Config) bool { return c.Snapshot.Enabled },
		},
		{
			name:     "snapshot location",
			envKey:   "GOLDENFILE_SNAPSHOT_LOCATION",
			envValue: "/custom/snapshots",
			check:    func(c *Config) bool { return c.Snapshot.Location == "/custom/snapshots" },
		},
		{
			name:     "snapshot max",
			envKey:   "GOLDENFILE_SNAPSHOT_MAX",
			envValue: "3",
			check:    func(c *Config) bool { return c.Snapshot.MaxSnapshots == 3 },
		},
		{
			name:     "snapshot max ignores garbage",
			envKey:   "GOLDENFILE_SNAPSHOT_MAX",
			envValue: "lots",
			check:    func(c *Config) bool { return c.Snapshot.MaxSnapshots == 10 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.envKey, tt.envValue)

			cfg := Default()
			cfg.applyEnvironment()

			if !tt.check(cfg) {
				t.Errorf("environment override for %s did not apply correctly", tt.envKey)
			}
		})
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"true", true},
		{"TRUE", true},
		{"1", true},
		{"yes", true},
		{" on ", true},
		{"false", false},
		{"0", false},
		{"no", false},
		{"", false},
		{"maybe", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseBool(tt.input); got != tt.expected {
				t.Errorf("parseBool(%q) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"single", "png", []string{"png"}},
		{"comma separated", "png,jpg", []string{"png", "jpg"}},
		{"colon separated", "png:jpg", []string{"png", "jpg"}},
		{"empty segments", "png,,jpg,", []string{"png", "jpg"}},
		{"whitespace", " png , jpg ", []string{"png", "jpg"}},
		{"empty", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitList(tt.input)
			if len(got) != len(tt.expected) {
				t.Fatalf("splitList(%q) = %v, expected %v", tt.input, got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("splitList(%q)[%d] = %q, expected %q", tt.input, i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestLoadNonExistentFile(t *testing.T) {
	tmpDir := t.TempDir()

	// Keep both the user config and the project lookup inside the temp dir
	t.Setenv("GOLDENFILE_HOME", tmpDir)
	t.Chdir(tmpDir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() should not fail for non-existent file: %v", err)
	}
	if cfg.GoldenDir != "testdata" {
		t.Errorf("expected default golden dir, got %q", cfg.GoldenDir)
	}
}

func TestLoadWithoutFile_ResolvesAndValidatesEnvironment(t *testing.T) {
	tmpDir := t.TempDir()
	home := t.TempDir()
	t.Setenv("GOLDENFILE_HOME", tmpDir)
	t.Setenv("HOME", home)
	t.Chdir(tmpDir)

	t.Run("snapshot location is expanded", func(t *testing.T) {
		t.Setenv("GOLDENFILE_SNAPSHOT_LOCATION", "~/snaps")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if want := filepath.Join(home, "snaps"); cfg.Snapshot.Location != want {
			t.Errorf("Snapshot.Location = %q, want %q", cfg.Snapshot.Location, want)
		}
	})

	t.Run("invalid color is rejected", func(t *testing.T) {
		t.Setenv("GOLDENFILE_OUTPUT_COLOR", "sometimes")

		if _, err := Load(); err == nil || !strings.Contains(err.Error(), "sometimes") {
			t.Errorf("expected invalid color error, got %v", err)
		}
	})
}

func TestLoadPrefersProjectFile(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()
	t.Setenv("GOLDENFILE_HOME", home)
	t.Chdir(project)

	user := Default()
	user.GoldenDir = "from-user"
	if err := user.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// #nosec G306 - test file permissions are acceptable
	if err := os.WriteFile(filepath.Join(project, ".goldenfile.toml"), []byte("golden_dir = \"from-project\"\n"), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.GoldenDir != "from-project" {
		t.Errorf("expected project config to win, got %q", cfg.GoldenDir)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// #nosec G306 - test file permissions are acceptable
	if err := os.WriteFile(configPath, []byte("invalid: yaml: content:"), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	if _, err := LoadFromPath(configPath); err == nil {
		t.Error("LoadFromPath should fail for invalid YAML")
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ".goldenfile.toml")

	// #nosec G306 - test file permissions are acceptable
	if err := os.WriteFile(configPath, []byte("golden_dir = = \"x\""), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	if _, err := LoadFromPath(configPath); err == nil {
		t.Error("LoadFromPath should fail for invalid TOML")
	}
}

func TestPartialConfigMerge(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	partialConfig := `
output:
  color: never
`
	// #nosec G306 - test file permissions are acceptable
	if err := os.WriteFile(configPath, []byte(partialConfig), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Output.Color != "never" {
		t.Errorf("expected color 'never', got %q", cfg.Output.Color)
	}

	// Defaults should still be present for non-specified values
	if !cfg.CreateEmpty {
		t.Error("expected CreateEmpty to retain default value true")
	}
	if cfg.Snapshot.MaxSnapshots != 10 {
		t.Errorf("expected Snapshot.MaxSnapshots to retain default value 10, got %d", cfg.Snapshot.MaxSnapshots)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad color", func(c *Config) { c.Output.Color = "rainbow" }, "output.color"},
		{"bad extension differ", func(c *Config) { c.Differs.Extensions = map[string]string{"png": "image"} }, "differs.extensions[png]"},
		{"bad rule differ", func(c *Config) { c.Differs.Rules = []RuleConfig{{Pattern: "*.x", Differ: "hex"}} }, "differs.rules[0]"},
		{"negative max", func(c *Config) { c.Snapshot.MaxSnapshots = -1 }, "max_snapshots"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, expected error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSelector(t *testing.T) {
	cfg := Default()
	cfg.Differs.Extensions = map[string]string{"png": "binary", "gz": "text"}
	cfg.Differs.Rules = []RuleConfig{{Pattern: "snapshots/**", Differ: "binary"}}

	sel, err := cfg.Selector()
	if err != nil {
		t.Fatalf("Selector failed: %v", err)
	}

	tests := []struct {
		path string
		want differ.Differ
	}{
		{"image.png", differ.Binary},
		{"archive.gz", differ.Text},
		{"snapshots/out.txt", differ.Binary},
		{"out.txt", differ.Text},
		{"program.exe", differ.Binary},
	}
	for _, tt := range tests {
		if got := sel.For(tt.path); differ.Name(got) != differ.Name(tt.want) {
			t.Errorf("For(%q) = %s, expected %s", tt.path, differ.Name(got), differ.Name(tt.want))
		}
	}
}

func TestSelectorInvalidPattern(t *testing.T) {
	cfg := Default()
	cfg.Differs.Rules = []RuleConfig{{Pattern: "[", Differ: "binary"}}

	if _, err := cfg.Selector(); err == nil {
		t.Error("expected error for malformed pattern")
	}
	if _, err := cfg.MintOptions(); err == nil {
		t.Error("expected MintOptions to surface selector error")
	}
}

func TestMarshalFormats(t *testing.T) {
	cfg := Default()

	yamlOut, err := cfg.Marshal("yaml")
	if err != nil {
		t.Fatalf("Marshal(yaml) failed: %v", err)
	}
	if !strings.Contains(string(yamlOut), "golden_dir: testdata") {
		t.Errorf("unexpected yaml output:\n%s", yamlOut)
	}

	tomlOut, err := cfg.Marshal("toml")
	if err != nil {
		t.Fatalf("Marshal(toml) failed: %v", err)
	}
	if !strings.Contains(string(tomlOut), `golden_dir = "testdata"`) {
		t.Errorf("unexpected toml output:\n%s", tomlOut)
	}

	if _, err := cfg.Marshal("json"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestExists(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("GOLDENFILE_HOME", tmpDir)

	if Exists() {
		t.Error("Exists() should return false for non-existent config")
	}

	cfg := Default()
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if !Exists() {
		t.Error("Exists() should return true after saving config")
	}
}

func TestLoadFromPath_ResolvesSnapshotLocation(t *testing.T) {
	home := t.TempDir()
	t.Setenv("GOLDENFILE_HOME", home)

	dir := t.TempDir()
	relPath := filepath.Join(dir, "rel.yaml")
	emptyPath := filepath.Join(dir, "empty.yaml")
	// #nosec G306 - test file permissions are acceptable
	if err := os.WriteFile(relPath, []byte("snapshot:\n  location: snaps\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// #nosec G306 - test file permissions are acceptable
	if err := os.WriteFile(emptyPath, []byte("snapshot:\n  location: \"\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(relPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if want := filepath.Join(dir, "snaps"); cfg.Snapshot.Location != want {
		t.Errorf("location = %q, want %q", cfg.Snapshot.Location, want)
	}

	cfg, err = LoadFromPath(emptyPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if want := filepath.Join(home, "snapshots"); cfg.Snapshot.Location != want {
		t.Errorf("location = %q, want %q", cfg.Snapshot.Location, want)
	}
}
