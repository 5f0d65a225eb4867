package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Remote modes.
const (
	RemoteModeHTTP  = "http"
	RemoteModeLocal = "local"
)

// RemoteConfig describes how the client reaches the notification store.
type RemoteConfig struct {
	// Mode is "http" for the fleet server or "local" for an in-process
	// SQLite store.
	Mode string `mapstructure:"mode" yaml:"mode"`

	// BaseURL is the root URL of the fleet server.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec bounds every request to the server.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// StoreConfig holds the SQLite settings shared by local mode and the server.
type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`

	// Locale is a BCP-47 tag used for title collation.
	Locale string `mapstructure:"locale" yaml:"locale"`

	// WeekStart is "monday" or "sunday"; it bounds the "week" period filter.
	WeekStart string `mapstructure:"week_start" yaml:"week_start"`

	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
}

// LogConfig controls the zerolog output.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// ServerConfig is read by the reference server only.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Remote  RemoteConfig  `mapstructure:"remote" yaml:"remote"`
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
}

// envPrefix is prepended to every environment override, e.g.
// FLEETNOTIFY_REMOTE_BASE_URL.
const envPrefix = "FLEETNOTIFY"

// configDir returns ~/.config/fleetnotify, falling back to the working
// directory when the home directory is unknown.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "fleetnotify")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/fleetnotify/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Remote: RemoteConfig{
			Mode:       RemoteModeHTTP,
			BaseURL:    "http://localhost:8080",
			TimeoutSec: 15,
		},
		Store: StoreConfig{
			Path: filepath.Join(configDir(), "notifications.db"),
		},
		Display: DisplayConfig{
			Theme:           "default",
			Locale:          "fr",
			WeekStart:       "monday",
			PollIntervalSec: 60,
		},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(configDir(), "fleetnotify.log"),
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// newViper builds a Viper instance with defaults and environment overrides.
func newViper(path string) *viper.Viper {
	def := defaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values and so
	// AutomaticEnv knows every key.
	v.SetDefault("remote.mode", def.Remote.Mode)
	v.SetDefault("remote.base_url", def.Remote.BaseURL)
	v.SetDefault("remote.timeout_sec", def.Remote.TimeoutSec)
	v.SetDefault("store.path", def.Store.Path)
	v.SetDefault("display.theme", def.Display.Theme)
	v.SetDefault("display.locale", def.Display.Locale)
	v.SetDefault("display.week_start", def.Display.WeekStart)
	v.SetDefault("display.poll_interval_sec", def.Display.PollIntervalSec)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.file", def.Log.File)
	v.SetDefault("server.addr", def.Server.Addr)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, defaults (plus environment overrides) are used.
func LoadConfig(path string) (*AppConfig, error) {
	v := newViper(path)

	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if _, ok := err.(*os.PathError); !ok && !notFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate rejects settings the client cannot work with.
func (c *AppConfig) Validate() error {
	switch c.Remote.Mode {
	case RemoteModeHTTP:
		if c.Remote.BaseURL == "" {
			return fmt.Errorf("remote.base_url is required in %q mode", c.Remote.Mode)
		}
	case RemoteModeLocal:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required in %q mode", c.Remote.Mode)
		}
	default:
		return fmt.Errorf("unknown remote.mode %q", c.Remote.Mode)
	}

	switch strings.ToLower(c.Display.WeekStart) {
	case "monday", "sunday":
	default:
		return fmt.Errorf("display.week_start must be monday or sunday, got %q", c.Display.WeekStart)
	}

	if c.Remote.TimeoutSec <= 0 {
		c.Remote.TimeoutSec = 15
	}
	if c.Display.PollIntervalSec <= 0 {
		c.Display.PollIntervalSec = 60
	}

	return nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("remote", cfg.Remote)
	v.Set("store", cfg.Store)
	v.Set("display", cfg.Display)
	v.Set("log", cfg.Log)
	v.Set("server", cfg.Server)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
