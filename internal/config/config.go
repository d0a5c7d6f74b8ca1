// Package config loads planner settings from defaults, a planner.toml
// file, PLANNER_* environment variables and command-line overrides, in
// that order of increasing priority.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

const (
	DefaultBaseURL   = "http://localhost:5000"
	DefaultTheme     = "classic"
	DefaultServeAddr = ":5000"
	DefaultStore     = "memory"

	fileName  = "planner"
	envPrefix = "PLANNER"
)

// Config is the effective configuration.
type Config struct {
	API   APIConfig   `mapstructure:"api"`
	Log   LogConfig   `mapstructure:"log"`
	UI    UIConfig    `mapstructure:"ui"`
	Serve ServeConfig `mapstructure:"serve"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

// APIConfig points the client at the remote todo service.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"` // 0 means no timeout
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"` // TUI log destination
}

type UIConfig struct {
	Theme string `mapstructure:"theme"`
}

// ServeConfig configures the development todo service.
type ServeConfig struct {
	Addr  string `mapstructure:"addr"`
	Store string `mapstructure:"store"` // memory, json, sqlite
	Path  string `mapstructure:"path"`  // file for the json and sqlite stores
}

// Overrides carries values given on the command line. Empty fields are
// ignored.
type Overrides struct {
	ConfigFile string
	BaseURL    string
	Theme      string
	Verbose    bool
}

// Load resolves the configuration.
func Load(o Overrides) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")
	if o.ConfigFile != "" {
		v.SetConfigFile(o.ConfigFile)
	} else {
		v.SetConfigName(fileName)
		v.AddConfigPath(".")
		if dir, err := UserDir(); err == nil {
			v.AddConfigPath(dir)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if o.BaseURL != "" {
		v.Set("api.base_url", o.BaseURL)
	}
	if o.Theme != "" {
		v.Set("ui.theme", o.Theme)
	}
	if o.Verbose {
		v.Set("log.level", "debug")
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	if cfg.API.Timeout < 0 {
		return nil, fmt.Errorf("api.timeout must not be negative, got %s", cfg.API.Timeout)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", DefaultBaseURL)
	v.SetDefault("api.timeout", time.Duration(0))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("ui.theme", DefaultTheme)
	v.SetDefault("serve.addr", DefaultServeAddr)
	v.SetDefault("serve.store", DefaultStore)
	v.SetDefault("serve.path", "")
}

// UserDir returns the per-user config directory ($XDG_CONFIG_HOME/planner
// or ~/.config/planner).
func UserDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "planner"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, ".config", "planner"), nil
}

// fileLayout mirrors Config with TOML tags for encoding.
type fileLayout struct {
	API struct {
		BaseURL string `toml:"base_url"`
		Timeout string `toml:"timeout"`
	} `toml:"api"`
	Log struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
		File   string `toml:"file"`
	} `toml:"log"`
	UI struct {
		Theme string `toml:"theme"`
	} `toml:"ui"`
	Serve struct {
		Addr  string `toml:"addr"`
		Store string `toml:"store"`
		Path  string `toml:"path"`
	} `toml:"serve"`
}

// Encode writes cfg as TOML.
func Encode(w io.Writer, cfg *Config) error {
	var f fileLayout
	f.API.BaseURL = cfg.API.BaseURL
	f.API.Timeout = cfg.API.Timeout.String()
	f.Log.Level = cfg.Log.Level
	f.Log.Format = cfg.Log.Format
	f.Log.File = cfg.Log.File
	f.UI.Theme = cfg.UI.Theme
	f.Serve.Addr = cfg.Serve.Addr
	f.Serve.Store = cfg.Serve.Store
	f.Serve.Path = cfg.Serve.Path
	return toml.NewEncoder(w).Encode(f)
}

// WriteExample writes a config file holding the defaults to path. It
// refuses to overwrite an existing file.
func WriteExample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("decode defaults: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	defer f.Close()
	fmt.Fprintln(f, "# planner configuration")
	if err := Encode(f, cfg); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
