// Package config loads daemon settings and user attribute seed files.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// AppName names the config, data and socket locations.
	AppName = "objtree"
	// EnvPrefix prefixes environment overrides, e.g. OBJTREE_LOG_LEVEL.
	EnvPrefix = "OBJTREE"
)

// Config is the daemon configuration.
type Config struct {
	SocketPath string        `mapstructure:"socket_path"`
	Log        LogConfig     `mapstructure:"log"`
	Journal    JournalConfig `mapstructure:"journal"`
	Seed       SeedConfig    `mapstructure:"seed"`
	NFS        MountConfig   `mapstructure:"nfs"`
	FUSE       MountConfig   `mapstructure:"fuse"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	Retain  int    `mapstructure:"retain"`
}

type SeedConfig struct {
	Path string `mapstructure:"path"`
	// Watch re-applies the seed file whenever it changes.
	Watch bool `mapstructure:"watch"`
	// Persist writes user attributes back to the seed file on shutdown.
	Persist bool `mapstructure:"persist"`
}

type MountConfig struct {
	Mountpoint string `mapstructure:"mountpoint"`
}

// LoadOptions controls where configuration comes from.
type LoadOptions struct {
	// ConfigFile is an explicit config file; it must exist when set.
	ConfigFile string
	// Overrides take precedence over file and environment, keyed like
	// the file ("log.level").
	Overrides map[string]any
}

// Dirs are the per-user base directories.
type Dirs struct {
	Config  string
	Data    string
	Runtime string
}

// DefaultDirs follows the XDG base directory conventions.
func DefaultDirs() (Dirs, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Dirs{}, fmt.Errorf("failed to get home directory: %w", err)
	}
	d := Dirs{
		Config:  envOr("XDG_CONFIG_HOME", filepath.Join(home, ".config")),
		Data:    envOr("XDG_DATA_HOME", filepath.Join(home, ".local", "share")),
		Runtime: envOr("XDG_RUNTIME_DIR", os.TempDir()),
	}
	d.Config = filepath.Join(d.Config, AppName)
	d.Data = filepath.Join(d.Data, AppName)
	return d, nil
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults(d Dirs) Config {
	return Config{
		SocketPath: filepath.Join(d.Runtime, AppName+".sock"),
		Log:        LogConfig{Level: "info", Format: "text"},
		Journal: JournalConfig{
			Enabled: true,
			Path:    filepath.Join(d.Data, "journal.db"),
			Retain:  1000,
		},
		Seed: SeedConfig{Path: filepath.Join(d.Config, "seed.hcl")},
	}
}

// Load merges defaults, the config file, OBJTREE_* environment variables
// and explicit overrides, in increasing precedence.
func Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	dirs, err := DefaultDirs()
	if err != nil {
		return nil, err
	}
	defaults := Defaults(dirs)

	v := viper.New()
	v.SetDefault("socket_path", defaults.SocketPath)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)
	v.SetDefault("journal.enabled", defaults.Journal.Enabled)
	v.SetDefault("journal.path", defaults.Journal.Path)
	v.SetDefault("journal.retain", defaults.Journal.Retain)
	v.SetDefault("seed.path", defaults.Seed.Path)
	v.SetDefault("seed.watch", defaults.Seed.Watch)
	v.SetDefault("seed.persist", defaults.Seed.Persist)
	v.SetDefault("nfs.mountpoint", "")
	v.SetDefault("fuse.mountpoint", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(dirs.Config)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	for key, value := range opts.Overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.SocketPath == "" {
		return errors.New("socket_path must not be empty")
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		return errors.New("journal.path must be set when the journal is enabled")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
