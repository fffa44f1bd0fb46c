// Package config loads server configuration from environment variables,
// an optional YAML file, and command-line overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rdnt/rudpftp/internal/rudp"
)

// globalConfig stores the configuration loaded at startup so packages
// that are not constructed with explicit config injection (the port
// pool, the shutdown flag) can still observe it.
var (
	globalConfig *Config
	configMutex  sync.Mutex
)

// Config holds the full application configuration.
type Config struct {
	Server    ServerConfig    `json:"server" yaml:"server"`
	Transport TransportConfig `json:"transport" yaml:"transport"`
	Auth      AuthConfig      `json:"auth" yaml:"auth"`
	RUDP      RUDPConfig      `json:"rudp" yaml:"rudp"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
}

// LoadOptions holds command-line override options.
type LoadOptions struct {
	Host       string
	Port       string
	Transport  string
	LogLevel   string
	ConfigFile string
}

// ServerConfig holds server bind configuration.
type ServerConfig struct {
	Host           string        `yaml:"host" env:"SERVER_HOST" default:"0.0.0.0"`
	Port           string        `yaml:"port" env:"SERVER_PORT" default:"20383"`
	AllowDelete    bool          `yaml:"allowDelete" env:"ALLOW_DELETE" default:"true"`
	CommandTimeout time.Duration `yaml:"commandTimeout" env:"COMMAND_TIMEOUT" default:"5s"`
}

// TransportConfig selects the stream abstraction used for both the
// command channel and data channels.
type TransportConfig struct {
	Protocol string `yaml:"protocol" env:"TRANSPORT" default:"tcp"` // "tcp" or "rudp"
}

// AuthConfig holds the sole configured credential.
type AuthConfig struct {
	DefaultUser     string `yaml:"defaultUser" env:"DEFAULT_USER" default:"user"`
	DefaultPassword string `yaml:"defaultPassword" env:"DEFAULT_PASSWORD" default:"1234"`
}

// RUDPConfig holds RUDP engine tunables.
type RUDPConfig struct {
	MTU          int `yaml:"mtu" env:"RUDP_MTU" default:"1024"`
	MaxWindow    int `yaml:"maxWindow" env:"RUDP_MAX_WINDOW" default:"10"`
	RetrySleepMS int `yaml:"retrySleepMs" env:"RUDP_RETRY_SLEEP_MS" default:"50"`
	MaxRetries   int `yaml:"maxRetries" env:"RUDP_MAX_RETRIES" default:"600"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" default:"info"`
}

// Load loads configuration from environment variables with defaults.
func Load() (*Config, error) {
	return LoadWithOverrides(LoadOptions{})
}

// LoadWithOverrides loads configuration from an optional YAML file,
// then layers environment variables and command-line overrides on top.
func LoadWithOverrides(opts LoadOptions) (*Config, error) {
	cfg := &Config{Server: ServerConfig{AllowDelete: true}}

	if opts.ConfigFile != "" {
		if err := loadFile(opts.ConfigFile, cfg); err != nil {
			return nil, fmt.Errorf("config: loading %s: %w", opts.ConfigFile, err)
		}
	}

	cfg.Server.Host = firstNonEmpty(opts.Host, os.Getenv("SERVER_HOST"), cfg.Server.Host, "0.0.0.0")
	cfg.Server.Port = firstNonEmpty(opts.Port, os.Getenv("SERVER_PORT"), cfg.Server.Port, "20383")
	cfg.Server.AllowDelete = getBoolWithDefault("ALLOW_DELETE", cfg.Server.AllowDelete)
	cfg.Server.CommandTimeout = getDurationWithDefault("COMMAND_TIMEOUT", orDefaultDuration(cfg.Server.CommandTimeout, 5*time.Second))

	cfg.Transport.Protocol = firstNonEmpty(opts.Transport, os.Getenv("TRANSPORT"), cfg.Transport.Protocol, "tcp")

	cfg.Auth.DefaultUser = firstNonEmpty(os.Getenv("DEFAULT_USER"), cfg.Auth.DefaultUser, "user")
	cfg.Auth.DefaultPassword = firstNonEmpty(os.Getenv("DEFAULT_PASSWORD"), cfg.Auth.DefaultPassword, "1234")

	cfg.RUDP.MTU = getIntWithDefault("RUDP_MTU", orDefaultInt(cfg.RUDP.MTU, 1024))
	cfg.RUDP.MaxWindow = getIntWithDefault("RUDP_MAX_WINDOW", orDefaultInt(cfg.RUDP.MaxWindow, 10))
	cfg.RUDP.RetrySleepMS = getIntWithDefault("RUDP_RETRY_SLEEP_MS", orDefaultInt(cfg.RUDP.RetrySleepMS, 50))
	cfg.RUDP.MaxRetries = getIntWithDefault("RUDP_MAX_RETRIES", orDefaultInt(cfg.RUDP.MaxRetries, 600))

	cfg.Logging.Level = firstNonEmpty(opts.LogLevel, os.Getenv("LOG_LEVEL"), cfg.Logging.Level, "info")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}

	configMutex.Lock()
	globalConfig = cfg
	configMutex.Unlock()

	return cfg, nil
}

// GetGlobalConfig returns the configuration loaded by the most recent
// call to Load/LoadWithOverrides, for packages not wired with explicit
// injection.
func GetGlobalConfig() *Config {
	configMutex.Lock()
	defer configMutex.Unlock()
	return globalConfig
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}
	if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid server port: %s", c.Server.Port)
	}

	if c.Transport.Protocol != "tcp" && c.Transport.Protocol != "rudp" {
		return fmt.Errorf("invalid transport protocol: %s", c.Transport.Protocol)
	}

	if c.RUDP.MTU <= 12 {
		return fmt.Errorf("rudp mtu must exceed the 12-byte header")
	}
	if c.RUDP.MaxWindow < 1 {
		return fmt.Errorf("rudp max window must be at least 1")
	}
	if c.RUDP.RetrySleepMS <= 0 || c.RUDP.MaxRetries <= 0 {
		return fmt.Errorf("rudp retry sleep and max retries must be positive")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	return nil
}

// RUDPEngineConfig translates the loaded RUDP tunables into the
// rudp.Config the transport layer expects.
func (c *Config) RUDPEngineConfig() rudp.Config {
	return rudp.Config{
		MTU:        c.RUDP.MTU,
		MaxWindow:  c.RUDP.MaxWindow,
		RetrySleep: time.Duration(c.RUDP.RetrySleepMS) * time.Millisecond,
		MaxRetries: c.RUDP.MaxRetries,
	}
}

// loadFile reads a YAML configuration file into cfg. A missing or
// unreadable file is returned as an error, which LoadWithOverrides
// passes on to its caller.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func orDefaultBool(v, def bool) bool {
	if v {
		return v
	}
	return def
}

func orDefaultInt(v, def int) int {
	if v != 0 {
		return v
	}
	return def
}

func orDefaultDuration(v, def time.Duration) time.Duration {
	if v != 0 {
		return v
	}
	return def
}

func getIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
