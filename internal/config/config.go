// Package config handles configuration loading and validation.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/spetr/vuexref/pkg/types"
)

// Config represents the complete configuration.
type Config struct {
	Index      IndexConfig      `mapstructure:"index" yaml:"index"`
	Store      StoreConfig      `mapstructure:"store" yaml:"store"`
	IndexStore IndexStoreConfig `mapstructure:"index_store" yaml:"index_store"`
	Analysis   AnalysisConfig   `mapstructure:"analysis" yaml:"analysis"`
	Limits     LimitsConfig     `mapstructure:"limits" yaml:"limits"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
	MCP        MCPConfig        `mapstructure:"mcp" yaml:"mcp"`
}

// IndexConfig contains file selection configuration.
type IndexConfig struct {
	Include      []string `mapstructure:"include" yaml:"include"`             // glob patterns to include
	Exclude      []string `mapstructure:"exclude" yaml:"exclude"`             // glob patterns to exclude
	UseGitIgnore bool     `mapstructure:"use_gitignore" yaml:"use_gitignore"` // respect .gitignore
}

// StoreConfig tells the extractor where the store is defined.
type StoreConfig struct {
	Entries []string          `mapstructure:"entries" yaml:"entries"`   // files whose default export is the store options
	NuxtDir string            `mapstructure:"nuxt_dir" yaml:"nuxt_dir"` // directory-based modules
	Aliases map[string]string `mapstructure:"aliases" yaml:"aliases"`   // import alias -> directory
}

// IndexStoreConfig selects the symbol index backend.
type IndexStoreConfig struct {
	Provider string `mapstructure:"provider" yaml:"provider"` // memory, sqlite, plugin
	Plugin   string `mapstructure:"plugin" yaml:"plugin"`     // plugin executable name
}

// AnalysisConfig contains reference checking options.
type AnalysisConfig struct {
	Activation string `mapstructure:"activation" yaml:"activation"`   // auto, always
	ReportSoft bool   `mapstructure:"report_soft" yaml:"report_soft"` // report unresolved soft references
	FailOn     string `mapstructure:"fail_on" yaml:"fail_on"`         // error, warning, never
}

// LimitsConfig contains resource limits.
type LimitsConfig struct {
	MaxFileSize string        `mapstructure:"max_file_size" yaml:"max_file_size"` // e.g., "1MB"
	MaxFiles    int           `mapstructure:"max_files" yaml:"max_files"`         // max files to scan
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`             // indexing timeout
	Workers     int           `mapstructure:"workers" yaml:"workers"`             // parallel workers
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // text, json
}

// MCPConfig contains MCP server configuration.
type MCPConfig struct {
	Name string `mapstructure:"name" yaml:"name"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			Include: []string{
				"**/*.js", "**/*.mjs", "**/*.cjs", "**/*.jsx",
				"**/*.ts", "**/*.tsx", "**/*.vue",
			},
			Exclude: []string{
				"**/node_modules/**", "**/.git/**", "**/dist/**", "**/build/**",
				"**/.nuxt/**", "**/.output/**", "**/coverage/**",
				"**/*.min.js", "**/*.d.ts",
			},
			UseGitIgnore: true,
		},
		Store: StoreConfig{
			NuxtDir: "store",
			Aliases: map[string]string{"@": "src", "~": "."},
		},
		IndexStore: IndexStoreConfig{
			Provider: "sqlite",
		},
		Analysis: AnalysisConfig{
			Activation: "auto",
			FailOn:     "error",
		},
		Limits: LimitsConfig{
			MaxFileSize: "1MB",
			MaxFiles:    50000,
			Timeout:     10 * time.Minute,
			Workers:     0, // 0 = use runtime.NumCPU()
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		MCP: MCPConfig{
			Name: "vuexref",
		},
	}
}

// ConfigDir returns the path to the config directory.
func ConfigDir(projectRoot string) string {
	return filepath.Join(projectRoot, ".vuexref")
}

// ConfigPath returns the path to the config file.
func ConfigPath(projectRoot string) string {
	return filepath.Join(ConfigDir(projectRoot), "config.yaml")
}

// IndexDBPath returns the path to the index database.
func IndexDBPath(projectRoot string) string {
	return filepath.Join(ConfigDir(projectRoot), "index.db")
}

// PluginsDir returns the directory searched for plugin executables.
func PluginsDir(projectRoot string) string {
	return filepath.Join(ConfigDir(projectRoot), "plugins")
}

// Load loads configuration from the project's config file.
// Returns the config and any warnings.
func Load(projectRoot string) (*Config, []string, error) {
	return LoadFile(ConfigPath(projectRoot))
}

// LoadFile loads configuration from an explicit path. A missing file yields
// the defaults and a warning.
func LoadFile(configPath string) (*Config, []string, error) {
	cfg := DefaultConfig()
	warnings := []string{}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		warnings = append(warnings, "No config file found, using defaults")
		return cfg, warnings, nil
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Fill in missing values with defaults
	defaults := DefaultConfig()
	if cfg.IndexStore.Provider == "" {
		cfg.IndexStore.Provider = defaults.IndexStore.Provider
		warnings = append(warnings, "Using default index store: "+defaults.IndexStore.Provider)
	}
	if cfg.Analysis.Activation == "" {
		cfg.Analysis.Activation = defaults.Analysis.Activation
	}
	if cfg.Analysis.FailOn == "" {
		cfg.Analysis.FailOn = defaults.Analysis.FailOn
	}
	if cfg.Limits.MaxFileSize == "" {
		cfg.Limits.MaxFileSize = defaults.Limits.MaxFileSize
	}
	if cfg.Limits.MaxFiles == 0 {
		cfg.Limits.MaxFiles = defaults.Limits.MaxFiles
	}
	if cfg.MCP.Name == "" {
		cfg.MCP.Name = defaults.MCP.Name
	}
	if len(cfg.Index.Include) == 0 {
		cfg.Index.Include = defaults.Index.Include
		warnings = append(warnings, "No include patterns configured, using defaults")
	}

	return cfg, warnings, nil
}

// Save saves configuration to the project's config file.
func Save(projectRoot string, cfg *Config) error {
	configDir := ConfigDir(projectRoot)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(ConfigPath(projectRoot))
	v.SetConfigType("yaml")

	v.Set("index", cfg.Index)
	v.Set("store", cfg.Store)
	v.Set("index_store", cfg.IndexStore)
	v.Set("analysis", cfg.Analysis)
	v.Set("limits", cfg.Limits)
	v.Set("logging", cfg.Logging)
	v.Set("mcp", cfg.MCP)

	return v.WriteConfig()
}

// Validate validates the configuration and returns any errors.
func Validate(cfg *Config) []error {
	var errs []error

	validProviders := map[string]bool{
		"memory": true, "sqlite": true, "plugin": true,
	}
	if !validProviders[cfg.IndexStore.Provider] {
		errs = append(errs, fmt.Errorf("%w: invalid index store provider: %s (valid: memory, sqlite, plugin)", types.ErrInvalidConfig, cfg.IndexStore.Provider))
	}
	if cfg.IndexStore.Provider == "plugin" && cfg.IndexStore.Plugin == "" {
		errs = append(errs, fmt.Errorf("%w: index_store.plugin is required for the plugin provider", types.ErrInvalidConfig))
	}

	validActivation := map[string]bool{"auto": true, "always": true}
	if !validActivation[cfg.Analysis.Activation] {
		errs = append(errs, fmt.Errorf("%w: invalid analysis activation: %s (valid: auto, always)", types.ErrInvalidConfig, cfg.Analysis.Activation))
	}

	validFailOn := map[string]bool{"error": true, "warning": true, "never": true}
	if !validFailOn[cfg.Analysis.FailOn] {
		errs = append(errs, fmt.Errorf("%w: invalid analysis fail_on: %s (valid: error, warning, never)", types.ErrInvalidConfig, cfg.Analysis.FailOn))
	}

	validFormats := map[string]bool{"text": true, "json": true, "": true}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, fmt.Errorf("%w: invalid log format: %s", types.ErrInvalidConfig, cfg.Logging.Format))
	}

	if cfg.Limits.Workers < 0 {
		errs = append(errs, fmt.Errorf("%w: limits.workers must not be negative", types.ErrInvalidConfig))
	}

	for alias, dir := range cfg.Store.Aliases {
		if alias == "" || strings.TrimSpace(dir) == "" {
			errs = append(errs, fmt.Errorf("%w: empty store alias %q -> %q", types.ErrInvalidConfig, alias, dir))
		}
	}

	return errs
}

// Hash returns a hash of the configuration that affects the extracted
// store model. A changed hash forces a full re-index.
func (c *Config) Hash() string {
	aliases := make([]string, 0, len(c.Store.Aliases))
	for alias, dir := range c.Store.Aliases {
		aliases = append(aliases, alias+"="+dir)
	}
	sort.Strings(aliases)

	data := fmt.Sprintf("%s|%s|%s|%s|%s",
		strings.Join(c.Store.Entries, ","),
		c.Store.NuxtDir,
		strings.Join(aliases, ","),
		strings.Join(c.Index.Include, ","),
		strings.Join(c.Index.Exclude, ","),
	)
	h := sha256.Sum256([]byte(data))
	return hex.EncodeToString(h[:])
}

// Copy creates a deep copy of the configuration.
func (c *Config) Copy() *Config {
	copy := *c

	copy.Index.Include = append([]string(nil), c.Index.Include...)
	copy.Index.Exclude = append([]string(nil), c.Index.Exclude...)
	copy.Store.Entries = append([]string(nil), c.Store.Entries...)
	if c.Store.Aliases != nil {
		copy.Store.Aliases = make(map[string]string, len(c.Store.Aliases))
		for k, v := range c.Store.Aliases {
			copy.Store.Aliases[k] = v
		}
	}

	return &copy
}
