package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mindmorass/clipstack/internal/backend"
	"github.com/mindmorass/clipstack/internal/engine"
	"github.com/mindmorass/clipstack/internal/guard"
	"github.com/mindmorass/clipstack/internal/history"
	"github.com/mindmorass/clipstack/internal/register"
)

const (
	// ConfigFileName is the config file name (without extension)
	ConfigFileName = "config"

	// ConfigDir is the directory for config files, relative to the home directory
	ConfigDir = ".clipstack"

	// EnvPrefix prefixes environment overrides, e.g. CLIPSTACK_MAX_HISTORY_SIZE
	EnvPrefix = "CLIPSTACK"
)

// Content sources
const (
	SourcePasteboard = "pasteboard"
	SourceRegister   = "register"
)

// Config holds application configuration
type Config struct {
	MaxHistorySize int           `mapstructure:"max_history_size"`
	EchoWindow     time.Duration `mapstructure:"echo_window"`
	DebounceWindow time.Duration `mapstructure:"debounce_window"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	MaxItemBytes   int           `mapstructure:"max_item_bytes"`

	// Source is "pasteboard" (this machine) or "register" (a backend file)
	Source string `mapstructure:"source"`

	BackendType      string `mapstructure:"backend_type"`
	RegisterLocation string `mapstructure:"register_location"`

	S3Bucket string `mapstructure:"s3_bucket"`
	S3Prefix string `mapstructure:"s3_prefix"`
	S3Region string `mapstructure:"s3_region"`

	DropboxAppKey    string `mapstructure:"dropbox_app_key"`
	DropboxAppSecret string `mapstructure:"dropbox_app_secret"`

	path string
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		MaxHistorySize: history.DefaultCapacity,
		EchoWindow:     guard.DefaultEchoWindow,
		DebounceWindow: guard.DefaultDebounceWindow,
		PollInterval:   100 * time.Millisecond,
		MaxItemBytes:   engine.DefaultMaxItemBytes,
		Source:         SourcePasteboard,
		BackendType:    string(backend.TypeLocal),
		path:           DefaultConfigPath(),
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("max_history_size", d.MaxHistorySize)
	v.SetDefault("echo_window", d.EchoWindow)
	v.SetDefault("debounce_window", d.DebounceWindow)
	v.SetDefault("poll_interval", d.PollInterval)
	v.SetDefault("max_item_bytes", d.MaxItemBytes)
	v.SetDefault("source", d.Source)
	v.SetDefault("backend_type", d.BackendType)
	v.SetDefault("register_location", "")
	v.SetDefault("s3_bucket", "")
	v.SetDefault("s3_prefix", "")
	v.SetDefault("s3_region", "")
	v.SetDefault("dropbox_app_key", "")
	v.SetDefault("dropbox_app_secret", "")
}

// LoadConfig reads path, or the default location when path is empty.
// A missing file yields the defaults. Environment variables override both.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = DefaultConfigPath()
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	config.path = path

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate clamps numeric settings into range and rejects unknown names
func (c *Config) Validate() error {
	c.MaxHistorySize = max(c.MaxHistorySize, 1)
	c.EchoWindow = max(c.EchoWindow, 0)
	c.DebounceWindow = max(c.DebounceWindow, 0)
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultConfig().PollInterval
	}
	if c.MaxItemBytes <= 0 {
		c.MaxItemBytes = engine.DefaultMaxItemBytes
	}

	c.Source = strings.ToLower(strings.TrimSpace(c.Source))
	switch c.Source {
	case "":
		c.Source = SourcePasteboard
	case SourcePasteboard, SourceRegister:
	default:
		return fmt.Errorf("unknown source %q: want %s or %s", c.Source, SourcePasteboard, SourceRegister)
	}

	t, err := backend.ParseType(c.BackendType)
	if err != nil {
		return err
	}
	c.BackendType = string(t)
	return nil
}

// Path returns the file the config was loaded from and is saved to
func (c *Config) Path() string {
	if c.path == "" {
		return DefaultConfigPath()
	}
	return c.path
}

// SaveConfig writes the configuration back to its file
func SaveConfig(config *Config) error {
	path := config.Path()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	v := viper.New()
	v.Set("max_history_size", config.MaxHistorySize)
	v.Set("echo_window", config.EchoWindow.String())
	v.Set("debounce_window", config.DebounceWindow.String())
	v.Set("poll_interval", config.PollInterval.String())
	v.Set("max_item_bytes", config.MaxItemBytes)
	v.Set("source", config.Source)
	v.Set("backend_type", config.BackendType)
	v.Set("register_location", config.RegisterLocation)
	v.Set("s3_bucket", config.S3Bucket)
	v.Set("s3_prefix", config.S3Prefix)
	v.Set("s3_region", config.S3Region)
	v.Set("dropbox_app_key", config.DropboxAppKey)
	v.Set("dropbox_app_secret", config.DropboxAppSecret)

	v.SetConfigType("yaml")
	return v.WriteConfigAs(path)
}

// EngineOptions maps the config onto engine options
func (c *Config) EngineOptions() engine.Options {
	return engine.Options{
		MaxHistorySize: c.MaxHistorySize,
		EchoWindow:     c.EchoWindow,
		DebounceWindow: c.DebounceWindow,
		MaxItemBytes:   c.MaxItemBytes,
	}
}

// BackendConfig maps the config onto a register backend configuration
func (c *Config) BackendConfig() backend.Config {
	return backend.Config{
		Type:             backend.Type(c.BackendType),
		Location:         c.RegisterLocation,
		S3Bucket:         c.S3Bucket,
		S3Prefix:         c.S3Prefix,
		S3Region:         c.S3Region,
		DropboxAppKey:    c.DropboxAppKey,
		DropboxAppSecret: c.DropboxAppSecret,
	}
}

// RegisterPollInterval is the idle polling interval for remote registers,
// which are never polled faster than register.DefaultPollInterval
func (c *Config) RegisterPollInterval() time.Duration {
	return max(c.PollInterval, register.DefaultPollInterval)
}

// DefaultConfigPath returns ~/.clipstack/config.yaml
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ConfigDir, ConfigFileName+".yaml")
}
