// ABOUTME: Configuration loading and parsing for coven-dashboard
// ABOUTME: Supports YAML files with environment variable expansion, durations, and defaults

package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable that overrides the config location.
const EnvConfigPath = "COVEN_DASHBOARD_CONFIG"

// Config represents the complete coven-dashboard configuration
type Config struct {
	Gateway   GatewayConfig   `yaml:"gateway"`
	Server    ServerConfig    `yaml:"server"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
	UI        UIConfig        `yaml:"ui"`
}

// GatewayConfig describes the agent gateway the dashboard connects to
type GatewayConfig struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`

	RequestTimeout time.Duration `yaml:"-"`
	ConnectTimeout time.Duration `yaml:"-"`
	ReconnectDelay time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	RequestTimeoutRaw string `yaml:"request_timeout"`
	ConnectTimeoutRaw string `yaml:"connect_timeout"`
	ReconnectDelayRaw string `yaml:"reconnect_delay"`
}

// ServerConfig holds the dashboard HTTP listen address
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// TailscaleConfig holds Tailscale tsnet configuration
type TailscaleConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Hostname  string `yaml:"hostname"`
	AuthKey   string `yaml:"auth_key"`
	StateDir  string `yaml:"state_dir"`
	Ephemeral bool   `yaml:"ephemeral"`

	// HTTPS serves on :443 with certificates issued by the tailnet
	HTTPS bool `yaml:"https"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig holds dashboard session configuration
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`

	// PasswordHash is a bcrypt hash; empty disables password login
	PasswordHash string `yaml:"password_hash"`

	SessionTTL    time.Duration `yaml:"-"`
	SessionTTLRaw string        `yaml:"session_ttl"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// UIConfig holds presentation defaults
type UIConfig struct {
	Language     string `yaml:"language"`
	DefaultPanel string `yaml:"default_panel"`
}

// Defaults applied when a field is left empty.
const (
	DefaultHTTPAddr       = "127.0.0.1:8390"
	DefaultRequestTimeout = 30 * time.Second
	DefaultConnectTimeout = 10 * time.Second
	DefaultReconnectDelay = 5 * time.Second
	DefaultSessionTTL     = 24 * time.Hour
	DefaultLanguage       = "en"
	DefaultPanel          = "overview"
	minJWTSecretLength    = 32
)

// DefaultPath returns the config path: $COVEN_DASHBOARD_CONFIG if set,
// otherwise ~/.config/coven/dashboard.yaml.
func DefaultPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "dashboard.yaml"
	}
	return filepath.Join(home, ".config", "coven", "dashboard.yaml")
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse is Load for in-memory YAML.
func Parse(data []byte) (*Config, error) {
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

func (c *Config) applyDefaults() {
	if c.Server.HTTPAddr == "" && !c.Tailscale.Enabled {
		c.Server.HTTPAddr = DefaultHTTPAddr
	}
	if c.Gateway.RequestTimeout == 0 {
		c.Gateway.RequestTimeout = DefaultRequestTimeout
	}
	if c.Gateway.ConnectTimeout == 0 {
		c.Gateway.ConnectTimeout = DefaultConnectTimeout
	}
	if c.Gateway.ReconnectDelay == 0 {
		c.Gateway.ReconnectDelay = DefaultReconnectDelay
	}
	if c.Auth.SessionTTL == 0 {
		c.Auth.SessionTTL = DefaultSessionTTL
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.UI.Language == "" {
		c.UI.Language = DefaultLanguage
	}
	if c.UI.DefaultPanel == "" {
		c.UI.DefaultPanel = DefaultPanel
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Gateway.URL == "" {
		return fmt.Errorf("gateway.url is required")
	}
	u, err := url.Parse(c.Gateway.URL)
	if err != nil {
		return fmt.Errorf("gateway.url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("gateway.url must use ws:// or wss://, got %q", u.Scheme)
	}

	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if len(c.Auth.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("auth.jwt_secret must be at least %d characters", minJWTSecretLength)
	}

	if c.Auth.PasswordHash != "" {
		if _, err := bcrypt.Cost([]byte(c.Auth.PasswordHash)); err != nil {
			return fmt.Errorf("auth.password_hash is not a bcrypt hash: %w", err)
		}
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"gateway.request_timeout", cfg.Gateway.RequestTimeoutRaw, &cfg.Gateway.RequestTimeout},
		{"gateway.connect_timeout", cfg.Gateway.ConnectTimeoutRaw, &cfg.Gateway.ConnectTimeout},
		{"gateway.reconnect_delay", cfg.Gateway.ReconnectDelayRaw, &cfg.Gateway.ReconnectDelay},
		{"auth.session_ttl", cfg.Auth.SessionTTLRaw, &cfg.Auth.SessionTTL},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}
	return nil
}
