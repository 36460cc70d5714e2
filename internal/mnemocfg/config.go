// Package mnemocfg loads mnemo's YAML configuration, layering user config,
// project config, and environment variable overrides, the way the teacher's
// internal/config package layers amanmcp's config.
package mnemocfg

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ProjectType represents the type of project detected at a base directory.
type ProjectType string

const (
	ProjectTypeGo      ProjectType = "go"
	ProjectTypeNode    ProjectType = "node"
	ProjectTypePython  ProjectType = "python"
	ProjectTypeUnknown ProjectType = "unknown"
)

// Config is mnemo's complete configuration.
type Config struct {
	Version    int             `yaml:"version" json:"version"`
	Paths      PathsConfig     `yaml:"paths" json:"paths"`
	Memory     MemoryConfig    `yaml:"memory" json:"memory"`
	Server     ServerConfig    `yaml:"server" json:"server"`
	Submodules SubmoduleConfig `yaml:"submodules" json:"submodules"`
	Sessions   SessionsConfig  `yaml:"sessions" json:"sessions"`
}

// PathsConfig configures which paths the scanner includes and excludes.
type PathsConfig struct {
	Include []string `yaml:"include" json:"include"`
	Exclude []string `yaml:"exclude" json:"exclude"`
}

// MemoryConfig configures the memory DB and service.
type MemoryConfig struct {
	// BoundedOutputBytes is the bounded-output gate cap (default 4000).
	BoundedOutputBytes int `yaml:"bounded_output_bytes" json:"bounded_output_bytes"`
	// DeduplicateWindowSeconds is the dedup window for matching session-id
	// tags (default 60).
	DeduplicateWindowSeconds int `yaml:"deduplicate_window_seconds" json:"deduplicate_window_seconds"`
	// SummaryWeight/TagsWeight/ContentWeight are the FTS5 bm25() column
	// weights (default 3.0/2.0/1.0).
	SummaryWeight float64 `yaml:"summary_weight" json:"summary_weight"`
	TagsWeight    float64 `yaml:"tags_weight" json:"tags_weight"`
	ContentWeight float64 `yaml:"content_weight" json:"content_weight"`
	BusyTimeoutMS int     `yaml:"busy_timeout_ms" json:"busy_timeout_ms"`
	CacheSizeKB   int     `yaml:"cache_size_kb" json:"cache_size_kb"`
}

// ServerConfig configures the MCP tool-server.
type ServerConfig struct {
	Transport string `yaml:"transport" json:"transport"`
	LogLevel  string `yaml:"log_level" json:"log_level"`
}

// SubmoduleConfig configures git submodule discovery during scanning.
type SubmoduleConfig struct {
	Enabled   bool     `yaml:"enabled" json:"enabled"`
	Recursive bool     `yaml:"recursive" json:"recursive"`
	Include   []string `yaml:"include" json:"include"`
	Exclude   []string `yaml:"exclude" json:"exclude"`
}

// SessionsConfig configures the analysis-session store.
type SessionsConfig struct {
	StoragePath string `yaml:"storage_path" json:"storage_path"`
	MaxSessions int    `yaml:"max_sessions" json:"max_sessions"`
}

var defaultExcludePatterns = []string{
	"**/node_modules/**",
	"**/.git/**",
	"**/vendor/**",
	"**/__pycache__/**",
	"**/dist/**",
	"**/build/**",
	"**/*.min.js",
	"**/*.min.css",
	"**/package-lock.json",
	"**/yarn.lock",
	"**/pnpm-lock.yaml",
	"**/go.sum",
}

// NewConfig returns a Config populated with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			Include: []string{},
			Exclude: defaultExcludePatterns,
		},
		Memory: MemoryConfig{
			BoundedOutputBytes:       4000,
			DeduplicateWindowSeconds: 60,
			SummaryWeight:            3.0,
			TagsWeight:               2.0,
			ContentWeight:            1.0,
			BusyTimeoutMS:            5000,
			CacheSizeKB:              64 * 1024,
		},
		Server: ServerConfig{
			Transport: "stdio",
			LogLevel:  "info",
		},
		Submodules: SubmoduleConfig{
			Enabled:   false,
			Recursive: true,
		},
		Sessions: SessionsConfig{
			StoragePath: defaultSessionsPath(),
			MaxSessions: 20,
		},
	}
}

// defaultBaseDir returns ~/.mnemo, falling back to a temp directory.
func defaultBaseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".mnemo")
	}
	return filepath.Join(home, ".mnemo")
}

// DefaultBaseDir returns the default base directory for persisted state
// (memory.db, strategies/, sessions/), honoring MNEMO_HOME before falling
// back to ~/.mnemo.
func DefaultBaseDir() string {
	if v := os.Getenv("MNEMO_HOME"); v != "" {
		return v
	}
	return defaultBaseDir()
}

func defaultSessionsPath() string {
	return filepath.Join(defaultBaseDir(), "sessions")
}

// DefaultMemoryDBPath returns the default memory.db location under base.
func DefaultMemoryDBPath(base string) string {
	return filepath.Join(base, "memory", "memory.db")
}

// DefaultStrategyDir returns the default strategies directory under base.
func DefaultStrategyDir(base string) string {
	return filepath.Join(base, "strategies")
}

// GetUserConfigPath returns the user/global configuration file path,
// honoring XDG_CONFIG_HOME.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "mnemo", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "mnemo", "config.yaml")
	}
	return filepath.Join(home, ".config", "mnemo", "config.yaml")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func loadUserConfig() (*Config, error) {
	path := GetUserConfigPath()
	if !fileExists(path) {
		return nil, nil
	}
	cfg := NewConfig()
	if err := cfg.loadYAML(path); err != nil {
		return nil, fmt.Errorf("load user config from %s: %w", path, err)
	}
	return cfg, nil
}

// Load loads configuration for the project at dir, layering defaults, the
// user config, the project config (.mnemo.yaml), and MNEMO_* env overrides.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFromFile(dir string) error {
	for _, name := range []string{".mnemo.yaml", ".mnemo.yml"} {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return c.loadYAML(path)
		}
	}
	return nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	c.mergeWith(&parsed)
	return nil
}

func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if len(other.Paths.Include) > 0 {
		c.Paths.Include = other.Paths.Include
	}
	if len(other.Paths.Exclude) > 0 {
		c.Paths.Exclude = append(c.Paths.Exclude, other.Paths.Exclude...)
	}
	if other.Memory.BoundedOutputBytes != 0 {
		c.Memory.BoundedOutputBytes = other.Memory.BoundedOutputBytes
	}
	if other.Memory.DeduplicateWindowSeconds != 0 {
		c.Memory.DeduplicateWindowSeconds = other.Memory.DeduplicateWindowSeconds
	}
	if other.Memory.SummaryWeight != 0 {
		c.Memory.SummaryWeight = other.Memory.SummaryWeight
	}
	if other.Memory.TagsWeight != 0 {
		c.Memory.TagsWeight = other.Memory.TagsWeight
	}
	if other.Memory.ContentWeight != 0 {
		c.Memory.ContentWeight = other.Memory.ContentWeight
	}
	if other.Memory.BusyTimeoutMS != 0 {
		c.Memory.BusyTimeoutMS = other.Memory.BusyTimeoutMS
	}
	if other.Memory.CacheSizeKB != 0 {
		c.Memory.CacheSizeKB = other.Memory.CacheSizeKB
	}
	if other.Server.Transport != "" {
		c.Server.Transport = other.Server.Transport
	}
	if other.Server.LogLevel != "" {
		c.Server.LogLevel = other.Server.LogLevel
	}
	if other.Submodules.Enabled {
		c.Submodules.Enabled = other.Submodules.Enabled
	}
	if len(other.Submodules.Include) > 0 || len(other.Submodules.Exclude) > 0 || other.Submodules.Enabled {
		c.Submodules.Recursive = other.Submodules.Recursive
	}
	if len(other.Submodules.Include) > 0 {
		c.Submodules.Include = other.Submodules.Include
	}
	if len(other.Submodules.Exclude) > 0 {
		c.Submodules.Exclude = other.Submodules.Exclude
	}
	if other.Sessions.StoragePath != "" {
		c.Sessions.StoragePath = other.Sessions.StoragePath
	}
	if other.Sessions.MaxSessions > 0 {
		c.Sessions.MaxSessions = other.Sessions.MaxSessions
	}
}

// applyEnvOverrides applies MNEMO_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("MNEMO_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("MNEMO_TRANSPORT"); v != "" {
		c.Server.Transport = v
	}
	if v := os.Getenv("MNEMO_BOUNDED_OUTPUT_BYTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Memory.BoundedOutputBytes = n
		}
	}
	if v := os.Getenv("MNEMO_DEDUP_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Memory.DeduplicateWindowSeconds = n
		}
	}
	if v := os.Getenv("MNEMO_SESSIONS_STORAGE_PATH"); v != "" {
		c.Sessions.StoragePath = v
	}
}

// DetectProjectType detects the project type based on marker files.
func DetectProjectType(dir string) ProjectType {
	if fileExists(filepath.Join(dir, "go.mod")) {
		return ProjectTypeGo
	}
	if fileExists(filepath.Join(dir, "package.json")) {
		return ProjectTypeNode
	}
	if fileExists(filepath.Join(dir, "pyproject.toml")) || fileExists(filepath.Join(dir, "requirements.txt")) {
		return ProjectTypePython
	}
	return ProjectTypeUnknown
}

// FindProjectRoot walks up from startDir looking for .git or a .mnemo.yaml
// marker, falling back to startDir if neither is found.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("get absolute path: %w", err)
	}

	current := absDir
	for {
		if dirExists(filepath.Join(current, ".git")) {
			return current, nil
		}
		if fileExists(filepath.Join(current, ".mnemo.yaml")) || fileExists(filepath.Join(current, ".mnemo.yml")) {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return absDir, nil
		}
		current = parent
	}
}

// String returns the project type as a string.
func (p ProjectType) String() string { return string(p) }

// IsKnown reports whether the project type is not Unknown.
func (p ProjectType) IsKnown() bool { return p != ProjectTypeUnknown }

// Validate checks the configuration for internally consistent values.
func (c *Config) Validate() error {
	if c.Memory.BoundedOutputBytes <= 0 {
		return fmt.Errorf("memory.bounded_output_bytes must be positive, got %d", c.Memory.BoundedOutputBytes)
	}
	if c.Memory.DeduplicateWindowSeconds < 0 {
		return fmt.Errorf("memory.deduplicate_window_seconds must be non-negative, got %d", c.Memory.DeduplicateWindowSeconds)
	}
	validTransports := map[string]bool{"stdio": true, "sse": true}
	if !validTransports[strings.ToLower(c.Server.Transport)] {
		return fmt.Errorf("server.transport must be 'stdio' or 'sse', got %s", c.Server.Transport)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return fmt.Errorf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// LoadUserConfig loads the user configuration file, or returns nil if it
// doesn't exist.
func LoadUserConfig() (*Config, error) {
	return loadUserConfig()
}
