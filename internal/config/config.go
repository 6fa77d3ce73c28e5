// Package config loads settings from a YAML file, LINGODECK_* environment
// variables and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/conorfennell/lingodeck/internal/validate"
)

// EnvPrefix prefixes every environment variable read. LINGODECK_DB_DSN
// maps to db.dsn.
const EnvPrefix = "LINGODECK_"

type Config struct {
	HTTP    HTTPConfig    `koanf:"http"`
	DB      DBConfig      `koanf:"db"`
	Catalog CatalogConfig `koanf:"catalog"`
	Git     GitConfig     `koanf:"git"`
	Session SessionConfig `koanf:"session"`
	Log     LogConfig     `koanf:"log"`
}

type HTTPConfig struct {
	Addr string `koanf:"addr" validate:"required"`
	// SecureCookies marks the session cookie Secure; set it behind TLS.
	SecureCookies bool `koanf:"secure"`
}

type DBConfig struct {
	Driver  string `koanf:"driver" validate:"oneof=sqlite postgres"`
	DSN     string `koanf:"dsn" validate:"required"`
	MaxOpen int    `koanf:"maxopen" validate:"min=0"`
}

type CatalogConfig struct {
	Path string `koanf:"path" validate:"required"`
	// TTL of zero re-reads the catalog on every request.
	TTL time.Duration `koanf:"ttl" validate:"min=0"`
}

// GitConfig enables syncing the catalog from a repository when URL is set.
type GitConfig struct {
	URL      string        `koanf:"url"`
	Dir      string        `koanf:"dir" validate:"required_with=URL"`
	Interval time.Duration `koanf:"interval" validate:"min=0"`
}

type SessionConfig struct {
	TTL time.Duration `koanf:"ttl" validate:"gt=0"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// CatalogPath resolves the catalog path against the git checkout when a
// repository is configured and the path is relative.
func (c *Config) CatalogPath() string {
	if c.Git.URL == "" || filepath.IsAbs(c.Catalog.Path) {
		return c.Catalog.Path
	}
	return filepath.Join(c.Git.Dir, c.Catalog.Path)
}

// NewFlagSet declares every flag Load understands, with defaults.
func NewFlagSet(name string) *pflag.FlagSet {
	f := pflag.NewFlagSet(name, pflag.ContinueOnError)
	f.String("config", "lingodeck.yaml", "path to a YAML config file (optional)")
	f.String("http.addr", ":8080", "HTTP listen address")
	f.Bool("http.secure", false, "send the session cookie only over HTTPS")
	f.String("db.driver", "sqlite", "database driver: sqlite or postgres")
	f.String("db.dsn", "lingodeck.db", "database DSN or SQLite file path")
	f.Int("db.maxopen", 10, "maximum open connections (postgres only)")
	f.String("catalog.path", "catalog", "catalog file or directory")
	f.Duration("catalog.ttl", 0, "catalog cache TTL; 0 reloads on every request")
	f.String("git.url", "", "git repository holding the catalog")
	f.String("git.dir", "repos/catalog", "local checkout of git.url")
	f.Duration("git.interval", 15*time.Minute, "how often to pull git.url; 0 pulls only at startup")
	f.Duration("session.ttl", 24*time.Hour, "login session lifetime")
	f.String("log.level", "info", "log level: debug, info, warn, error")
	f.String("log.format", "text", "log format: text or json")
	return f
}

// Load parses args with f and layers the config file, environment and
// flags. A missing config file is only an error if --config was given
// explicitly.
func Load(f *pflag.FlagSet, args []string) (*Config, error) {
	if err := f.Parse(args); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	path, _ := f.GetString("config")
	if path != "" {
		_, err := os.Stat(path)
		switch {
		case err == nil:
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist) && !f.Changed("config"):
		default:
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
