package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// ProjectConfigFile is the per-project configuration file name.
	ProjectConfigFile = ".classfind.yaml"
	// ProjectConfigFileAlt is accepted when ProjectConfigFile is absent.
	ProjectConfigFileAlt = ".classfind.yml"

	// envPrefix prefixes every environment override.
	envPrefix = "CLASSFIND_"
)

// Config represents the complete classfind configuration.
type Config struct {
	Version int          `yaml:"version" json:"version"`
	Index   IndexConfig  `yaml:"index" json:"index"`
	Search  SearchConfig `yaml:"search" json:"search"`
	Server  ServerConfig `yaml:"server" json:"server"`
}

// IndexConfig configures where artifact indexes live and which backends are searched.
type IndexConfig struct {
	// DataDir holds the index files and logs. Defaults to ~/.classfind
	DataDir string `yaml:"data_dir" json:"data_dir"`

	// Backends lists the index backends to open, in search order.
	// Options: "sqlite" (default, concurrent access) and "bleve" (single process).
	Backends []string `yaml:"backends" json:"backends"`
}

// SearchConfig configures class search.
type SearchConfig struct {
	// MaxResults is the default result cap when a caller gives none.
	MaxResults int `yaml:"max_results" json:"max_results"`

	// ProviderLimit is the number of candidates requested from each backend.
	ProviderLimit int `yaml:"provider_limit" json:"provider_limit"`

	// Timeout bounds one search invocation (e.g. "5s"). Partial results are discarded.
	Timeout string `yaml:"timeout" json:"timeout"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	Transport string `yaml:"transport" json:"transport"`
	LogLevel  string `yaml:"log_level" json:"log_level"`
}

// NewConfig creates a new Config with defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Index: IndexConfig{
			DataDir:  DefaultDataDir(),
			Backends: []string{"sqlite"},
		},
		Search: SearchConfig{
			MaxResults:    50,
			ProviderLimit: 50,
			Timeout:       "10s",
		},
		Server: ServerConfig{
			Transport: "stdio",
			LogLevel:  "info",
		},
	}
}

// DefaultDataDir returns ~/.classfind, or a temp dir fallback without a home.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".classfind")
	}
	return filepath.Join(home, ".classfind")
}

// GetUserConfigPath returns the path to the user configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/classfind/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/classfind/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "classfind", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "classfind", "config.yaml")
	}
	return filepath.Join(home, ".config", "classfind", "config.yaml")
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// Load loads configuration for the given project directory.
// Sources apply in order of increasing precedence:
//  1. Defaults
//  2. User config (~/.config/classfind/config.yaml)
//  3. Project config (.classfind.yaml in dir)
//  4. Environment variables (CLASSFIND_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if path := GetUserConfigPath(); fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
	}

	if path := ProjectConfigPath(dir); path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ProjectConfigPath returns the project config file in dir, or "" if there is none.
func ProjectConfigPath(dir string) string {
	for _, name := range []string{ProjectConfigFile, ProjectConfigFileAlt} {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return path
		}
	}
	return ""
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if other.Index.DataDir != "" {
		c.Index.DataDir = expandHome(other.Index.DataDir)
	}
	if len(other.Index.Backends) > 0 {
		c.Index.Backends = append([]string(nil), other.Index.Backends...)
	}

	if other.Search.MaxResults != 0 {
		c.Search.MaxResults = other.Search.MaxResults
	}
	if other.Search.ProviderLimit != 0 {
		c.Search.ProviderLimit = other.Search.ProviderLimit
	}
	if other.Search.Timeout != "" {
		c.Search.Timeout = other.Search.Timeout
	}

	if other.Server.Transport != "" {
		c.Server.Transport = other.Server.Transport
	}
	if other.Server.LogLevel != "" {
		c.Server.LogLevel = other.Server.LogLevel
	}
}

// applyEnvOverrides applies CLASSFIND_* environment variable overrides.
// Unparseable numeric values are ignored.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(envPrefix + "DATA_DIR"); v != "" {
		c.Index.DataDir = expandHome(v)
	}
	if v := os.Getenv(envPrefix + "BACKENDS"); v != "" {
		c.Index.Backends = splitList(v)
	}
	if v := os.Getenv(envPrefix + "MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Search.MaxResults = n
		}
	}
	if v := os.Getenv(envPrefix + "PROVIDER_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Search.ProviderLimit = n
		}
	}
	if v := os.Getenv(envPrefix + "SEARCH_TIMEOUT"); v != "" {
		c.Search.Timeout = v
	}
	if v := os.Getenv(envPrefix + "TRANSPORT"); v != "" {
		c.Server.Transport = v
	}
	if v := os.Getenv(envPrefix + "LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
}

// SearchTimeout returns the parsed search timeout; zero means no timeout.
func (c *Config) SearchTimeout() time.Duration {
	d, err := time.ParseDuration(c.Search.Timeout)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Index.DataDir == "" {
		return fmt.Errorf("index.data_dir must not be empty")
	}
	if len(c.Index.Backends) == 0 {
		return fmt.Errorf("index.backends must list at least one backend")
	}
	seen := make(map[string]bool, len(c.Index.Backends))
	for _, b := range c.Index.Backends {
		if b != "sqlite" && b != "bleve" {
			return fmt.Errorf("index.backends entries must be 'sqlite' or 'bleve', got %s", b)
		}
		if seen[b] {
			return fmt.Errorf("index.backends lists %s twice", b)
		}
		seen[b] = true
	}

	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("search.max_results must be positive, got %d", c.Search.MaxResults)
	}
	if c.Search.ProviderLimit <= 0 {
		return fmt.Errorf("search.provider_limit must be positive, got %d", c.Search.ProviderLimit)
	}
	if c.Search.Timeout != "" {
		if d, err := time.ParseDuration(c.Search.Timeout); err != nil || d < 0 {
			return fmt.Errorf("search.timeout must be a non-negative duration, got %s", c.Search.Timeout)
		}
	}

	if strings.ToLower(c.Server.Transport) != "stdio" {
		return fmt.Errorf("server.transport must be 'stdio', got %s", c.Server.Transport)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return fmt.Errorf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file, creating its directory.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
