package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Environment variables that override file settings
const (
	EnvDBPath     = "PROGRAMRANK_DB_PATH"
	EnvLogLevel   = "PROGRAMRANK_LOG_LEVEL"
	EnvServerPort = "PROGRAMRANK_SERVER_PORT"
)

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	expandedPath, err := expandPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand config path: %w", err)
	}

	data, err := os.ReadFile(expandedPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s (run 'programrank config init' to create)", expandedPath)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return finish(cfg)
}

// LoadOrDefault loads the configuration file, falling back to defaults when it does not exist
func LoadOrDefault(path string) (*Config, error) {
	expandedPath, err := expandPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand config path: %w", err)
	}
	if _, err := os.Stat(expandedPath); os.IsNotExist(err) {
		return finish(Default())
	}
	return Load(path)
}

func finish(cfg *Config) (*Config, error) {
	if err := cfg.applyEnv(); err != nil {
		return nil, fmt.Errorf("invalid environment override: %w", err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, fmt.Errorf("failed to expand paths: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// applyEnv overrides file settings from the environment
func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvDBPath); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvServerPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s must be a number, got %q", EnvServerPort, v)
		}
		c.Server.Port = port
	}
	return nil
}

// expandPath expands ~ to home directory
func expandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, path[1:]), nil
}

// expandPaths expands ~ in all path fields
func (c *Config) expandPaths() error {
	var err error

	c.Database.Path, err = expandPath(c.Database.Path)
	if err != nil {
		return err
	}

	return nil
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}

	// Ranking validation
	if err := c.RecommendConfig().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("ranking: %w", err))
	}
	if c.Ranking.Field.MaxFeatures < 0 {
		errs = append(errs, errors.New("ranking.field.max_features must not be negative"))
	}
	if c.Ranking.Field.MaxNGram < 1 || c.Ranking.Field.MaxNGram > 3 {
		errs = append(errs, errors.New("ranking.field.max_ngram must be between 1 and 3"))
	}
	if c.Ranking.Field.ContentLimit < 0 {
		errs = append(errs, errors.New("ranking.field.content_limit must not be negative"))
	}

	// Dedup validation
	if err := c.DeduplicatorConfig().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("dedup: %w", err))
	}

	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, errors.New("server.port must be between 1 and 65535"))
	}
	if c.Server.RateLimitRequests < 0 {
		errs = append(errs, errors.New("server.rate_limit_requests must not be negative"))
	}
	if c.Server.RateLimitRequests > 0 && c.Server.RateLimitWindowSeconds < 1 {
		errs = append(errs, errors.New("server.rate_limit_window_seconds must be at least 1"))
	}

	// Logging validation
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		errs = append(errs, fmt.Errorf("logging.level must be a zerolog level, got '%s'", c.Logging.Level))
	}
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		errs = append(errs, fmt.Errorf("logging.format must be 'console' or 'json', got '%s'", c.Logging.Format))
	}

	// MCP validation
	if c.MCP.Transport != "stdio" {
		errs = append(errs, fmt.Errorf("mcp.transport must be 'stdio', got '%s'", c.MCP.Transport))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// EnsureDirectories creates necessary directories for the database
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		filepath.Dir(c.Database.Path),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
