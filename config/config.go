// ABOUTME: Console and dev-server configuration loaded from YAML, .env and BOLHA_* variables
// ABOUTME: Defaults first, then the XDG config file, then .env, then environment overrides
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const appName = "bolha"

// Config is the full application configuration.
type Config struct {
	APIURL         string        `yaml:"api_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	SearchDebounce time.Duration `yaml:"search_debounce"`
	RowsPerPage    int           `yaml:"rows_per_page"`
	DataDir        string        `yaml:"data_dir"`
	LogLevel       string        `yaml:"log_level"`
	LogFile        string        `yaml:"log_file"`
	Server         ServerConfig  `yaml:"server"`
}

// ServerConfig configures the development backend.
type ServerConfig struct {
	Addr        string        `yaml:"addr"`
	Database    string        `yaml:"database"`
	JWTSecret   string        `yaml:"jwt_secret"`
	TokenTTL    time.Duration `yaml:"token_ttl"`
	CORSOrigins []string      `yaml:"cors_origins"`
}

// Default returns the built-in configuration.
func Default() *Config {
	dataDir := filepath.Join(xdg.DataHome, appName)
	return &Config{
		APIURL:         "http://localhost:3333",
		IdleTimeout:    15 * time.Minute,
		SearchDebounce: time.Second,
		RowsPerPage:    100,
		DataDir:        dataDir,
		LogLevel:       "info",
		LogFile:        filepath.Join(xdg.StateHome, appName, "bolha.log"),
		Server: ServerConfig{
			Addr:        ":3333",
			Database:    filepath.Join(dataDir, "devserver.db"),
			TokenTTL:    24 * time.Hour,
			CORSOrigins: []string{"*"},
		},
	}
}

// Path returns the config file location.
func Path() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.yaml")
}

// SessionDir is where the session store lives.
func (c *Config) SessionDir() string {
	return filepath.Join(c.DataDir, "session")
}

// Load reads the config file at Path.
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads the config file at path. A missing file yields defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	// .env only fills variables the environment does not already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies BOLHA_* variables on top of file values.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("BOLHA_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("BOLHA_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("BOLHA_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("BOLHA_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("BOLHA_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("BOLHA_DATABASE"); v != "" {
		cfg.Server.Database = v
	}
	if v := os.Getenv("BOLHA_JWT_SECRET"); v != "" {
		cfg.Server.JWTSecret = v
	}

	durations := map[string]*time.Duration{
		"BOLHA_REQUEST_TIMEOUT": &cfg.RequestTimeout,
		"BOLHA_IDLE_TIMEOUT":    &cfg.IdleTimeout,
		"BOLHA_SEARCH_DEBOUNCE": &cfg.SearchDebounce,
		"BOLHA_TOKEN_TTL":       &cfg.Server.TokenTTL,
	}
	for name, dst := range durations {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, v, err)
		}
		*dst = d
	}

	if v := os.Getenv("BOLHA_ROWS_PER_PAGE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid BOLHA_ROWS_PER_PAGE %q: %w", v, err)
		}
		cfg.RowsPerPage = n
	}
	return nil
}

// Validate checks the values that would otherwise fail later.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api_url must be an absolute URL, got %q", c.APIURL)
	}
	if c.IdleTimeout <= 0 {
		return fmt.Errorf("idle_timeout must be positive")
	}
	if c.SearchDebounce < 0 {
		return fmt.Errorf("search_debounce must not be negative")
	}
	if c.RowsPerPage <= 0 {
		return fmt.Errorf("rows_per_page must be positive")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	return nil
}

// Save writes the config to Path.
func (c *Config) Save() error {
	return c.SaveTo(Path())
}

// SaveTo writes the config to path with owner-only permissions.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
