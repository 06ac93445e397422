package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar"
	"github.com/spf13/viper"

	"tir/internal/paths"
)

// CurrentVersion is the only config schema version this build understands.
const CurrentVersion = 1

// EnvPrefix prefixes environment overrides, e.g. TIR_ANALYSIS_WORKERS.
const EnvPrefix = "TIR"

// Config represents the complete tir configuration
type Config struct {
	Version   int             `toml:"version" mapstructure:"version"`
	Discovery DiscoveryConfig `toml:"discovery" mapstructure:"discovery"`
	Resolve   ResolveConfig   `toml:"resolve" mapstructure:"resolve"`
	Analysis  AnalysisConfig  `toml:"analysis" mapstructure:"analysis"`
	Cache     CacheConfig     `toml:"cache" mapstructure:"cache"`
	Logging   LoggingConfig   `toml:"logging" mapstructure:"logging"`
}

// DiscoveryConfig controls which files count as tests
type DiscoveryConfig struct {
	TestPatterns     []string `toml:"testPatterns" mapstructure:"testPatterns"`
	SourceExtensions []string `toml:"sourceExtensions" mapstructure:"sourceExtensions"`
	Ignore           []string `toml:"ignore" mapstructure:"ignore"`
}

// ResolveConfig controls specifier resolution
type ResolveConfig struct {
	Extensions       []string `toml:"extensions" mapstructure:"extensions"`
	IndexName        string   `toml:"indexName" mapstructure:"indexName"`
	DeletedAsChanged bool     `toml:"deletedAsChanged" mapstructure:"deletedAsChanged"`
}

// AnalysisConfig controls closure computation
type AnalysisConfig struct {
	Workers          int   `toml:"workers" mapstructure:"workers"`
	MaxFileSizeBytes int64 `toml:"maxFileSizeBytes" mapstructure:"maxFileSizeBytes"`
}

// CacheConfig controls the specifier cache
type CacheConfig struct {
	Enabled       bool `toml:"enabled" mapstructure:"enabled"`
	MemoryEntries int  `toml:"memoryEntries" mapstructure:"memoryEntries"`
	Persist       bool `toml:"persist" mapstructure:"persist"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `toml:"format" mapstructure:"format"`
	Level  string `toml:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Discovery: DiscoveryConfig{
			TestPatterns: []string{
				"**/*.test.*",
				"**/*.spec.*",
				"**/*_test.*",
				"**/__tests__/**",
				"**/test/**",
				"**/tests/**",
			},
			SourceExtensions: []string{".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx", ".mts", ".cts"},
			Ignore:           []string{},
		},
		Resolve: ResolveConfig{
			Extensions:       []string{"", ".ts", ".tsx", ".d.ts", ".js", ".jsx", ".mjs", ".cjs", ".mts", ".cts", ".json"},
			IndexName:        "index",
			DeletedAsChanged: true,
		},
		Analysis: AnalysisConfig{
			Workers:          0,
			MaxFileSizeBytes: 2 << 20,
		},
		Cache: CacheConfig{
			Enabled:       true,
			MemoryEntries: 4096,
			Persist:       true,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "warn",
		},
	}
}

// setDefaults registers every key so that env overrides apply even without a file
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("version", d.Version)
	v.SetDefault("discovery.testPatterns", d.Discovery.TestPatterns)
	v.SetDefault("discovery.sourceExtensions", d.Discovery.SourceExtensions)
	v.SetDefault("discovery.ignore", d.Discovery.Ignore)
	v.SetDefault("resolve.extensions", d.Resolve.Extensions)
	v.SetDefault("resolve.indexName", d.Resolve.IndexName)
	v.SetDefault("resolve.deletedAsChanged", d.Resolve.DeletedAsChanged)
	v.SetDefault("analysis.workers", d.Analysis.Workers)
	v.SetDefault("analysis.maxFileSizeBytes", d.Analysis.MaxFileSizeBytes)
	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.memoryEntries", d.Cache.MemoryEntries)
	v.SetDefault("cache.persist", d.Cache.Persist)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.level", d.Logging.Level)
}

// LoadConfig loads configuration from <root>/.tir/config.toml with TIR_* env overrides.
// A missing file yields the defaults.
func LoadConfig(repoRoot string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(paths.GetToolDir(repoRoot))

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, &ConfigError{Field: "file", Message: err.Error()}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ConfigError{Field: "file", Message: err.Error()}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the configuration to <root>/.tir/config.toml
func (c *Config) Save(repoRoot string) error {
	if _, err := paths.EnsureToolDir(repoRoot); err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.WriteString("# tir configuration\n")
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	configPath := paths.GetConfigPath(repoRoot)
	return os.WriteFile(configPath, buf.Bytes(), 0644)
}

// Exists reports whether <root>/.tir/config.toml is present
func Exists(repoRoot string) bool {
	_, err := os.Stat(filepath.Clean(paths.GetConfigPath(repoRoot)))
	return err == nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: fmt.Sprintf("unsupported config version %d", c.Version)}
	}
	if len(c.Discovery.TestPatterns) == 0 {
		return &ConfigError{Field: "discovery.testPatterns", Message: "at least one pattern is required"}
	}
	for _, p := range append(append([]string{}, c.Discovery.TestPatterns...), c.Discovery.Ignore...) {
		if _, err := doublestar.Match(p, "probe"); err != nil {
			return &ConfigError{Field: "discovery", Message: fmt.Sprintf("bad pattern %q: %v", p, err)}
		}
	}
	if !hasEmpty(c.Resolve.Extensions) {
		return &ConfigError{Field: "resolve.extensions", Message: "must include the empty (as written) candidate"}
	}
	if c.Resolve.IndexName == "" {
		return &ConfigError{Field: "resolve.indexName", Message: "must not be empty"}
	}
	if c.Analysis.Workers < 0 {
		return &ConfigError{Field: "analysis.workers", Message: "must be >= 0"}
	}
	if c.Analysis.MaxFileSizeBytes <= 0 {
		return &ConfigError{Field: "analysis.maxFileSizeBytes", Message: "must be > 0"}
	}
	if c.Cache.MemoryEntries < 0 {
		return &ConfigError{Field: "cache.memoryEntries", Message: "must be >= 0"}
	}
	return nil
}

func hasEmpty(list []string) bool {
	for _, s := range list {
		if s == "" {
			return true
		}
	}
	return false
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
