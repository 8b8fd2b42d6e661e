// Package config loads nodupe configuration from YAML and CLI overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/chmouel/nodupe/internal/log"
	"github.com/chmouel/nodupe/internal/outpath"
	"github.com/chmouel/nodupe/internal/theme"
	"gopkg.in/yaml.v3"
)

// Report formats.
const (
	FormatText  = "text"
	FormatJSON  = "json"
	FormatTable = "table"
)

// DefaultDir is the directory scanned when none is given.
const DefaultDir = "recordings"

// DefaultWatchDebounce is the quiet period before a changed file is re-processed.
const DefaultWatchDebounce = 600 * time.Millisecond

// EnvConfigPath names the environment variable that points at a config file.
const EnvConfigPath = "NODUPE_CONFIG"

// ErrInvalidOverride is returned for malformed --config values.
var ErrInvalidOverride = errors.New("invalid config override")

// AppConfig defines the nodupe configuration options.
type AppConfig struct {
	Dir              string        // Directory whose files are deduplicated
	Marker           string        // Inserted before the extension of output names
	FallbackSuffix   string        // Appended when no extension is found
	ExtensionPattern string        // Regexp locating the extension in a base name
	Include          []string      // Doublestar globs; when set, only matching names are processed
	Exclude          []string      // Doublestar globs; matching names are skipped
	SkipBinary       bool          // Skip files whose content is detected as binary
	SkipGenerated    bool          // Skip files that look like earlier outputs
	DryRun           bool          // Count only, write nothing
	Atomic           bool          // Write outputs through a temp file and rename (default: true)
	Format           string        // Report format: "text", "json" or "table"
	Theme            string        // Table report palette (default: "auto")
	DebugLog         string        // Debug log file path
	LogLevel         string        // Minimum debug log level (default: "debug")
	Verbose          bool          // Report skipped entries and mirror the debug log to stderr
	WatchDebounce    time.Duration // Quiet period for watch mode
}

// DefaultConfig returns the default configuration values.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Dir:              DefaultDir,
		Marker:           outpath.DefaultMarker,
		FallbackSuffix:   outpath.DefaultFallback,
		ExtensionPattern: outpath.DefaultPattern,
		Atomic:           true,
		Format:           FormatText,
		Theme:            theme.AutoName,
		LogLevel:         "debug",
		WatchDebounce:    DefaultWatchDebounce,
	}
}

// Validate checks values that cannot be coerced into a safe default.
func (c *AppConfig) Validate() error {
	switch c.Format {
	case FormatText, FormatJSON, FormatTable:
	default:
		return fmt.Errorf("unknown report format %q (expected text, json or table)", c.Format)
	}
	if theme.Normalize(c.Theme) == "" {
		return fmt.Errorf("unknown theme %q (available: %s)", c.Theme, strings.Join(theme.AvailableThemes(), ", "))
	}
	if strings.TrimSpace(c.Dir) == "" {
		return fmt.Errorf("directory must not be empty")
	}
	if _, err := outpath.New(c.Marker, c.FallbackSuffix, c.ExtensionPattern); err != nil {
		return err
	}
	return nil
}

// Deriver builds the output path deriver described by the configuration.
func (c *AppConfig) Deriver() (*outpath.Deriver, error) {
	return outpath.New(c.Marker, c.FallbackSuffix, c.ExtensionPattern)
}

// normalizeList converts a scalar or YAML list into a list of trimmed,
// non-empty strings.
func normalizeList(value any) []string {
	if value == nil {
		return []string{}
	}

	switch v := value.(type) {
	case string:
		text := strings.TrimSpace(v)
		if text == "" {
			return []string{}
		}
		return []string{text}
	case []any:
		items := []string{}
		for _, item := range v {
			if item == nil {
				continue
			}
			text := strings.TrimSpace(fmt.Sprintf("%v", item))
			if text != "" {
				items = append(items, text)
			}
		}
		return items
	}
	return []string{}
}

func coerceBool(value any, defaultVal bool) bool {
	if value == nil {
		return defaultVal
	}

	switch v := value.(type) {
	case bool:
		return v
	case int:
		return v != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return defaultVal
}

// coerceDuration accepts Go duration strings ("750ms") or plain integers,
// read as milliseconds.
func coerceDuration(value any, defaultVal time.Duration) time.Duration {
	switch v := value.(type) {
	case int:
		if v >= 0 {
			return time.Duration(v) * time.Millisecond
		}
	case string:
		text := strings.TrimSpace(v)
		if ms, err := strconv.Atoi(text); err == nil && ms >= 0 {
			return time.Duration(ms) * time.Millisecond
		}
		if d, err := time.ParseDuration(text); err == nil && d >= 0 {
			return d
		}
	}
	return defaultVal
}

// coerceString returns the trimmed string value, or defaultVal when the
// value is missing, empty or not a scalar.
func coerceString(value any, defaultVal string) string {
	switch v := value.(type) {
	case string:
		if text := strings.TrimSpace(v); text != "" {
			return text
		}
	case int, bool, float64:
		return fmt.Sprintf("%v", v)
	}
	return defaultVal
}

// applyMap overlays the keys present in data on cfg.
func applyMap(cfg *AppConfig, data map[string]any) {
	cfg.Dir = coerceString(data["dir"], cfg.Dir)
	cfg.DebugLog = coerceString(data["debug_log"], cfg.DebugLog)

	// Markers are taken verbatim; surrounding spaces may be intended.
	if marker, ok := data["marker"].(string); ok && marker != "" {
		cfg.Marker = marker
	}
	if fallback, ok := data["fallback_suffix"].(string); ok && fallback != "" {
		cfg.FallbackSuffix = fallback
	}
	if pattern, ok := data["extension_pattern"].(string); ok && pattern != "" {
		cfg.ExtensionPattern = pattern
	}

	if _, ok := data["include"]; ok {
		cfg.Include = normalizeList(data["include"])
	}
	if _, ok := data["exclude"]; ok {
		cfg.Exclude = normalizeList(data["exclude"])
	}

	cfg.SkipBinary = coerceBool(data["skip_binary"], cfg.SkipBinary)
	cfg.SkipGenerated = coerceBool(data["skip_generated"], cfg.SkipGenerated)
	cfg.DryRun = coerceBool(data["dry_run"], cfg.DryRun)
	cfg.Atomic = coerceBool(data["atomic"], cfg.Atomic)
	cfg.Verbose = coerceBool(data["verbose"], cfg.Verbose)
	cfg.WatchDebounce = coerceDuration(data["watch_debounce"], cfg.WatchDebounce)

	if format, ok := data["format"].(string); ok {
		cfg.Format = strings.ToLower(strings.TrimSpace(format))
	}
	if name, ok := data["theme"].(string); ok {
		cfg.Theme = strings.ToLower(strings.TrimSpace(name))
	}
	if level, ok := data["log_level"].(string); ok {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(level))
	}
}

func parseConfig(data map[string]any) *AppConfig {
	cfg := DefaultConfig()
	applyMap(cfg, data)
	return cfg
}

func getConfigDir() string {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return xdgConfigHome
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config")
}

// candidatePaths lists config files in lookup order: the explicit path,
// then $NODUPE_CONFIG, then the XDG config directory.
func candidatePaths(configPath string) ([]string, bool, error) {
	if configPath == "" {
		configPath = os.Getenv(EnvConfigPath)
	}
	if configPath != "" {
		expanded, err := ExpandPath(configPath)
		if err != nil {
			return nil, true, err
		}
		return []string{expanded}, true, nil
	}

	base := filepath.Join(getConfigDir(), "nodupe")
	return []string{
		filepath.Join(base, "config.yaml"),
		filepath.Join(base, "config.yml"),
	}, false, nil
}

// LoadConfig reads the configuration from a YAML file. A missing default
// file is not an error; a missing explicit file is.
func LoadConfig(configPath string) (*AppConfig, error) {
	paths, explicit, err := candidatePaths(configPath)
	if err != nil {
		return DefaultConfig(), err
	}

	for _, path := range paths {
		data, err := os.ReadFile(path) //nolint:gosec
		if err != nil {
			if os.IsNotExist(err) && !explicit {
				continue
			}
			return DefaultConfig(), fmt.Errorf("failed to read config %s: %w", path, err)
		}

		var yamlData map[string]any
		if err := yaml.Unmarshal(data, &yamlData); err != nil {
			return DefaultConfig(), fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		for _, key := range unknownKeys(yamlData) {
			log.Warn("unknown config key", "key", key, "file", path)
		}
		return parseConfig(yamlData), nil
	}

	return DefaultConfig(), nil
}

// ApplyCLIOverrides applies --config=nd.key=value overrides on top of the
// current values.
func (c *AppConfig) ApplyCLIOverrides(overrides []string) error {
	data, err := parseCLIConfigOverrides(overrides)
	if err != nil {
		return err
	}
	applyMap(c, data)
	return nil
}

// parseCLIConfigOverrides parses --config=nd.key=value format.
// Repeated keys become lists.
func parseCLIConfigOverrides(overrides []string) (map[string]any, error) {
	result := make(map[string]any)

	for _, override := range overrides {
		fullKey, value, ok := strings.Cut(override, "=")
		if !ok {
			return nil, fmt.Errorf("%w: %q, expected format: nd.key=value (note: use = not space)", ErrInvalidOverride, override)
		}
		if !strings.HasPrefix(fullKey, "nd.") {
			return nil, fmt.Errorf("%w: key must start with 'nd.': %q", ErrInvalidOverride, fullKey)
		}
		key := strings.TrimPrefix(fullKey, "nd.")
		if key == "" {
			return nil, fmt.Errorf("%w: empty key in %q", ErrInvalidOverride, override)
		}
		if !slices.Contains(Keys(), key) {
			return nil, fmt.Errorf("%w: unknown key %q", ErrInvalidOverride, key)
		}

		switch prev := result[key].(type) {
		case nil:
			result[key] = value
		case string:
			result[key] = []any{prev, value}
		case []any:
			result[key] = append(prev, value)
		}
	}

	return result, nil
}

// Keys lists the supported configuration keys.
func Keys() []string {
	return []string{
		"dir", "marker", "fallback_suffix", "extension_pattern", "include", "exclude",
		"skip_binary", "skip_generated", "dry_run", "atomic", "format", "theme", "debug_log",
		"log_level", "verbose", "watch_debounce",
	}
}

// unknownKeys returns the sorted keys of data that are not configuration keys.
func unknownKeys(data map[string]any) []string {
	var unknown []string
	for key := range data {
		if !slices.Contains(Keys(), key) {
			unknown = append(unknown, key)
		}
	}
	slices.Sort(unknown)
	return unknown
}

// ExpandPath expands a leading ~ and environment variables.
func ExpandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[1:])
	}
	return os.ExpandEnv(path), nil
}
