package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "recordings", cfg.Dir)
	assert.Equal(t, "-nodupe", cfg.Marker)
	assert.Equal(t, "nodupe", cfg.FallbackSuffix)
	assert.True(t, cfg.Atomic)
	assert.False(t, cfg.DryRun)
	assert.False(t, cfg.SkipBinary)
	assert.False(t, cfg.SkipGenerated)
	assert.Equal(t, FormatText, cfg.Format)
	assert.Equal(t, "auto", cfg.Theme)
	assert.Equal(t, 600*time.Millisecond, cfg.WatchDebounce)
	assert.Empty(t, cfg.Include)
	assert.Empty(t, cfg.Exclude)
	assert.Empty(t, cfg.DebugLog)
	require.NoError(t, cfg.Validate())
}

func TestNormalizeList(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected []string
	}{
		{name: "nil input", input: nil, expected: []string{}},
		{name: "empty string", input: "", expected: []string{}},
		{name: "whitespace only string", input: "   ", expected: []string{}},
		{name: "single glob", input: " *.txt ", expected: []string{"*.txt"}},
		{name: "list", input: []any{"*.txt", "*.csv"}, expected: []string{"*.txt", "*.csv"}},
		{name: "list with empty elements", input: []any{"*.txt", "", nil, "*.log"}, expected: []string{"*.txt", "*.log"}},
		{name: "unsupported type", input: 42, expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizeList(tt.input))
		})
	}
}

func TestCoerceBool(t *testing.T) {
	tests := []struct {
		input      any
		defaultVal bool
		expected   bool
	}{
		{input: nil, defaultVal: true, expected: true},
		{input: true, defaultVal: false, expected: true},
		{input: 0, defaultVal: true, expected: false},
		{input: 2, defaultVal: false, expected: true},
		{input: "Yes", defaultVal: false, expected: true},
		{input: " off ", defaultVal: true, expected: false},
		{input: "maybe", defaultVal: true, expected: true},
		{input: 1.5, defaultVal: false, expected: false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, coerceBool(tt.input, tt.defaultVal), "coerceBool(%#v, %v)", tt.input, tt.defaultVal)
	}
}

func TestCoerceDuration(t *testing.T) {
	def := time.Second
	assert.Equal(t, def, coerceDuration(nil, def))
	assert.Equal(t, 250*time.Millisecond, coerceDuration(250, def))
	assert.Equal(t, 250*time.Millisecond, coerceDuration("250", def))
	assert.Equal(t, 2*time.Second, coerceDuration("2s", def))
	assert.Equal(t, def, coerceDuration("-5", def))
	assert.Equal(t, def, coerceDuration("soon", def))
}

func TestParseConfig(t *testing.T) {
	data := map[string]any{
		"dir":               " logs ",
		"marker":            ".dedup",
		"fallback_suffix":   "_dedup",
		"extension_pattern": `\.[a-z0-9]+$`,
		"include":           []any{"*.txt", "*.csv"},
		"exclude":           "*.tmp",
		"skip_binary":       true,
		"skip_generated":    "yes",
		"dry_run":           1,
		"atomic":            false,
		"format":            " JSON ",
		"debug_log":         "/tmp/nodupe.log",
		"log_level":         "INFO",
		"verbose":           "on",
		"watch_debounce":    "1500ms",
	}

	cfg := parseConfig(data)

	assert.Equal(t, "logs", cfg.Dir)
	assert.Equal(t, ".dedup", cfg.Marker)
	assert.Equal(t, "_dedup", cfg.FallbackSuffix)
	assert.Equal(t, `\.[a-z0-9]+$`, cfg.ExtensionPattern)
	assert.Equal(t, []string{"*.txt", "*.csv"}, cfg.Include)
	assert.Equal(t, []string{"*.tmp"}, cfg.Exclude)
	assert.True(t, cfg.SkipBinary)
	assert.True(t, cfg.SkipGenerated)
	assert.True(t, cfg.DryRun)
	assert.False(t, cfg.Atomic)
	assert.Equal(t, FormatJSON, cfg.Format)
	assert.Equal(t, "/tmp/nodupe.log", cfg.DebugLog)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, 1500*time.Millisecond, cfg.WatchDebounce)
	require.NoError(t, cfg.Validate())
}

func TestParseConfigEmptyKeepsDefaults(t *testing.T) {
	assert.Equal(t, DefaultConfig(), parseConfig(map[string]any{}))
	assert.Equal(t, DefaultConfig(), parseConfig(map[string]any{"dir": "", "marker": ""}))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{name: "unknown format", mutate: func(c *AppConfig) { c.Format = "xml" }, wantErr: "unknown report format"},
		{name: "empty dir", mutate: func(c *AppConfig) { c.Dir = " " }, wantErr: "directory must not be empty"},
		{name: "bad pattern", mutate: func(c *AppConfig) { c.ExtensionPattern = "(" }, wantErr: "invalid extension pattern"},
		{name: "unknown theme", mutate: func(c *AppConfig) { c.Theme = "neon" }, wantErr: "unknown theme"},
		{name: "table format", mutate: func(c *AppConfig) { c.Format = FormatTable }},
		{name: "named theme", mutate: func(c *AppConfig) { c.Theme = "nord" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadConfigFromXDG(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Setenv(EnvConfigPath, "")

	dir := filepath.Join(xdg, "nodupe")
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte("dir: rides\nformat: table\n"), 0o600))

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "rides", cfg.Dir)
	assert.Equal(t, FormatTable, cfg.Format)
}

func TestLoadConfigMissingDefaultIsFine(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(EnvConfigPath, "")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigExplicitPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("skip_binary: true\nexclude:\n  - \"*.bak\"\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.SkipBinary)
	assert.Equal(t, []string{"*.bak"}, cfg.Exclude)
}

func TestLoadConfigFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dry_run: true\n"), 0o600))
	t.Setenv(EnvConfigPath, path)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.True(t, cfg.DryRun)
}

func TestLoadConfigErrors(t *testing.T) {
	t.Setenv(EnvConfigPath, "")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("dir: [unterminated\n"), 0o600))
	cfg, err := LoadConfig(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestParseCLIConfigOverrides(t *testing.T) {
	result, err := parseCLIConfigOverrides([]string{
		"nd.dir=rides",
		"nd.exclude=*.tmp",
		"nd.exclude=*.bak",
		"nd.exclude=*.swp",
		"nd.marker=a=b",
	})
	require.NoError(t, err)

	assert.Equal(t, "rides", result["dir"])
	assert.Equal(t, []any{"*.tmp", "*.bak", "*.swp"}, result["exclude"])
	assert.Equal(t, "a=b", result["marker"])
}

func TestParseCLIConfigOverridesErrors(t *testing.T) {
	tests := []struct {
		name     string
		override string
		msg      string
	}{
		{name: "missing equals", override: "nd.dir", msg: "expected format"},
		{name: "wrong prefix", override: "app.dir=x", msg: "must start with 'nd.'"},
		{name: "empty key", override: "nd.=x", msg: "empty key"},
		{name: "unknown key", override: "nd.colour=red", msg: "unknown key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseCLIConfigOverrides([]string{tt.override})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidOverride))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestApplyCLIOverridesWinOverFile(t *testing.T) {
	cfg := parseConfig(map[string]any{"dir": "from-file", "atomic": true, "format": "json"})

	require.NoError(t, cfg.ApplyCLIOverrides([]string{"nd.dir=from-cli", "nd.atomic=false", "nd.include=*.txt"}))

	assert.Equal(t, "from-cli", cfg.Dir)
	assert.False(t, cfg.Atomic)
	assert.Equal(t, FormatJSON, cfg.Format)
	assert.Equal(t, []string{"*.txt"}, cfg.Include)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("NODUPE_TEST_DIR", "rides")

	got, err := ExpandPath("~/data/$NODUPE_TEST_DIR")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "data", "rides"), got)
}

func TestUnknownKeys(t *testing.T) {
	data := map[string]any{"dir": "x", "theme": "nord", "zz": 1, "colour": "red"}
	assert.Equal(t, []string{"colour", "zz"}, unknownKeys(data))
	assert.Empty(t, unknownKeys(map[string]any{"format": "json"}))

	for _, key := range Keys() {
		assert.Empty(t, unknownKeys(map[string]any{key: nil}), key)
	}
}
