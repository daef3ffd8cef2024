package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/himakhaitan/redislens/types"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "REDISLENS"
	// EnvConfigFile names an explicit config file, like --config.
	EnvConfigFile = "REDISLENS_CONFIG"
)

type Config struct {
	ListenAddr string           `mapstructure:"listen_addr" yaml:"listen_addr"`
	ServerURL  string           `mapstructure:"server_url" yaml:"server_url"`
	LogLevel   string           `mapstructure:"log_level" yaml:"log_level"`
	Redis      types.ConnParams `mapstructure:"redis" yaml:"redis"`
	Browser    BrowserConfig    `mapstructure:"browser" yaml:"browser"`
	Monitor    MonitorConfig    `mapstructure:"monitor" yaml:"monitor"`
}

type BrowserConfig struct {
	PageSize       int           `mapstructure:"page_size" yaml:"page_size"`
	SearchDebounce time.Duration `mapstructure:"search_debounce" yaml:"search_debounce"`
	HistoryLimit   int           `mapstructure:"history_limit" yaml:"history_limit"`
}

type MonitorConfig struct {
	Enabled  bool          `mapstructure:"enabled" yaml:"enabled"`
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
}

// SetDefaults registers every key so environment overrides are seen by
// Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("server_url", "http://localhost:8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("browser.page_size", 50)
	v.SetDefault("browser.search_debounce", 300*time.Millisecond)
	v.SetDefault("browser.history_limit", 50)
	v.SetDefault("monitor.enabled", true)
	v.SetDefault("monitor.interval", 5*time.Second)
}

// Load reads the configuration into the global viper instance, so flags
// bound there by the CLI apply as well.
func Load() (*Config, error) {
	return LoadFile(viper.GetViper(), os.Getenv(EnvConfigFile))
}

// LoadFile reads defaults, an optional .env file, the config file and
// REDISLENS_* environment variables into v. With an empty path,
// redislens.yaml is searched in the working directory and /etc/redislens;
// not finding it is not an error.
func LoadFile(v *viper.Viper, path string) (*Config, error) {
	_ = godotenv.Load()

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("redislens")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/redislens")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return Decode(v)
}

// Decode unmarshals the current state of v and validates it.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.Browser.PageSize <= 0:
		return fmt.Errorf("browser.page_size must be positive, got %d", c.Browser.PageSize)
	case c.Browser.HistoryLimit <= 0:
		return fmt.Errorf("browser.history_limit must be positive, got %d", c.Browser.HistoryLimit)
	case c.Browser.SearchDebounce < 0:
		return fmt.Errorf("browser.search_debounce must not be negative")
	case c.Monitor.Enabled && c.Monitor.Interval <= 0:
		return fmt.Errorf("monitor.interval must be positive when the monitor is enabled")
	case c.Redis.Port < 0 || c.Redis.Port > 65535:
		return fmt.Errorf("redis.port out of range: %d", c.Redis.Port)
	}
	return nil
}
