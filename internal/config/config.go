// Package config loads the genelim configuration file.
//
// The file is TOML, read from --config or from
// $XDG_CONFIG_HOME/genelim/config.toml (~/.config/genelim/config.toml). A
// missing default file is not an error. Command-line flags override file
// values.
//
//	[pipeline]
//	word_bits = 32
//	diagnose = true
//
//	[cache]
//	backend = "redis"
//	ttl = "24h"
//	[cache.redis]
//	addr = "localhost:6379"
//
//	[store]
//	backend = "sqlite"
//	dsn = "diagnoses.db"
//
//	[server]
//	addr = ":8080"
package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/genelim/pkg/cache"
	gerrors "github.com/matzehuels/genelim/pkg/errors"
	"github.com/matzehuels/genelim/pkg/pipeline"
	"github.com/matzehuels/genelim/pkg/store"
)

const appName = "genelim"

// Cache backends.
const (
	CacheNone  = "none"
	CacheFile  = "file"
	CacheRedis = "redis"
)

// Config is the decoded configuration file.
type Config struct {
	Pipeline pipeline.Options `toml:"pipeline"`
	Cache    Cache            `toml:"cache"`
	Store    store.Config     `toml:"store"`
	Server   Server           `toml:"server"`
}

// Cache selects the result cache.
type Cache struct {
	Backend string `toml:"backend"`
	// Dir overrides the file cache directory.
	Dir string `toml:"dir"`
	// Compress stores entries zstd-compressed.
	Compress bool `toml:"compress"`
	// TTL is the expiry of per-locus results; zero keeps the default.
	TTL   Duration          `toml:"ttl"`
	Redis cache.RedisConfig `toml:"redis"`
}

// Server configures `genelim serve`.
type Server struct {
	Addr         string   `toml:"addr"`
	ReadTimeout  Duration `toml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout"`
	// MaxBody limits request bodies, in bytes.
	MaxBody int64 `toml:"max_body"`
}

// Duration decodes TOML strings such as "90s" or "24h".
type Duration struct{ time.Duration }

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Cache: Cache{
			Backend:  CacheFile,
			Compress: true,
			TTL:      Duration{pipeline.TTLLocus},
		},
		Store: store.Config{Backend: store.BackendNone},
		Server: Server{
			Addr:         ":8080",
			ReadTimeout:  Duration{30 * time.Second},
			WriteTimeout: Duration{5 * time.Minute},
			MaxBody:      32 << 20,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/genelim/config.toml.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// CacheDir returns the file cache directory using the XDG standard
// (~/.cache/genelim/).
func CacheDir() (string, error) {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// Load reads path over the defaults. An empty path reads the default
// location, which may be absent. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	md, err := toml.DecodeFile(path, cfg)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		return cfg, nil
	case errors.Is(err, fs.ErrNotExist):
		return nil, gerrors.Wrap(gerrors.ErrCodeNotFound, err, "config file %s", path)
	case err != nil:
		return nil, gerrors.Wrap(gerrors.ErrCodeConfiguration, err, "config file %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, gerrors.New(gerrors.ErrCodeConfiguration, "config file %s: unknown key %s", path, undecoded[0])
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks backend names and limits.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case "", CacheNone, CacheFile, CacheRedis:
	default:
		return gerrors.New(gerrors.ErrCodeConfiguration, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.Backend == CacheRedis && c.Cache.Redis.Addr == "" {
		return gerrors.New(gerrors.ErrCodeConfiguration, "redis cache needs cache.redis.addr")
	}
	if c.Cache.TTL.Duration < 0 {
		return gerrors.New(gerrors.ErrCodeConfiguration, "cache.ttl must not be negative")
	}
	switch c.Store.Backend {
	case "", store.BackendNone, store.BackendFile, store.BackendSQLite, store.BackendMongo:
	default:
		return gerrors.New(gerrors.ErrCodeConfiguration, "unknown store backend %q", c.Store.Backend)
	}
	if c.Server.MaxBody < 0 {
		return gerrors.New(gerrors.ErrCodeConfiguration, "server.max_body must not be negative")
	}
	return nil
}

// OpenCache opens the configured cache. noCache forces the null cache.
func (c *Config) OpenCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	var inner cache.Cache
	switch {
	case noCache, c.Cache.Backend == CacheNone:
		return cache.NewNullCache(), nil
	case c.Cache.Backend == CacheRedis:
		rc, err := cache.NewRedisCache(ctx, c.Cache.Redis)
		if err != nil {
			return nil, gerrors.Wrap(gerrors.ErrCodeStorage, err, "open redis cache")
		}
		inner = rc
	default:
		dir := c.Cache.Dir
		if dir == "" {
			d, err := CacheDir()
			if err != nil {
				return cache.NewNullCache(), nil
			}
			dir = d
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return nil, gerrors.Wrap(gerrors.ErrCodeStorage, err, "open file cache")
		}
		inner = fc
	}
	if !c.Cache.Compress {
		return inner, nil
	}
	return cache.NewCompressed(inner)
}

// OpenStore opens the configured diagnosis store, or returns nil when none
// is configured.
func (c *Config) OpenStore(ctx context.Context) (store.Store, error) {
	s, err := store.Open(ctx, c.Store)
	if err != nil && gerrors.GetCode(err) == "" {
		return nil, gerrors.Wrap(gerrors.ErrCodeStorage, err, "open %s store", c.Store.Backend)
	}
	return s, err
}
