package store

import (
	"context"

	gerrors "github.com/matzehuels/genelim/pkg/errors"
)

// Backend names accepted by Open.
const (
	BackendNone   = "none"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
)

// Config selects and configures a backend.
type Config struct {
	Backend string      `toml:"backend"`
	Dir     string      `toml:"dir"` // file backend
	DSN     string      `toml:"dsn"` // sqlite path
	Mongo   MongoConfig `toml:"mongo"`
}

// Open returns the configured store, or nil for BackendNone and an empty
// backend.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendNone:
		return nil, nil
	case BackendFile:
		if cfg.Dir == "" {
			return nil, gerrors.New(gerrors.ErrCodeInvalidInput, "file store needs a directory")
		}
		return NewFileStore(cfg.Dir)
	case BackendSQLite:
		if cfg.DSN == "" {
			return nil, gerrors.New(gerrors.ErrCodeInvalidInput, "sqlite store needs a dsn")
		}
		return OpenSQLite(ctx, cfg.DSN)
	case BackendMongo:
		if cfg.Mongo.URI == "" {
			return nil, gerrors.New(gerrors.ErrCodeInvalidInput, "mongo store needs a uri")
		}
		return OpenMongo(ctx, cfg.Mongo)
	}
	return nil, gerrors.New(gerrors.ErrCodeInvalidInput, "unknown store backend %q", cfg.Backend)
}
