package storage

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/julianstephens/datebook/internal/keyring"
	"github.com/julianstephens/datebook/internal/logger"
	"github.com/julianstephens/datebook/internal/storage/postgres"
	"github.com/julianstephens/datebook/internal/storage/redis"
	"github.com/julianstephens/datebook/internal/storage/sqlite"
	"github.com/julianstephens/datebook/internal/utils"
)

// KeyringSource makes Open read the real data source from the OS keyring.
const KeyringSource = "keyring"

// Open returns the persister for source:
//
//	postgres://..., postgresql://...  PostgreSQL
//	redis://..., rediss://...         Redis
//	sqlite://path, *.db, *.sqlite     SQLite file
//	keyring                           whatever the OS keyring holds
//	anything else                     directory of JSON files
func Open(source string) (Persister, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, fmt.Errorf("data source cannot be empty")
	}

	if source == KeyringSource {
		stored, err := keyring.GetDataSource()
		if err != nil {
			return nil, fmt.Errorf("failed to read data source from keyring: %w", err)
		}
		if stored == KeyringSource {
			return nil, fmt.Errorf("keyring data source cannot point at the keyring")
		}
		logger.Debug("Using data source from keyring")
		return Open(stored)
	}

	switch {
	case strings.HasPrefix(source, "postgres://"), strings.HasPrefix(source, "postgresql://"):
		return postgres.New(source), nil
	case strings.HasPrefix(source, "redis://"), strings.HasPrefix(source, "rediss://"):
		config, err := redis.ParseURL(source)
		if err != nil {
			return nil, err
		}
		return redis.NewStore(config)
	case strings.HasPrefix(source, "sqlite://"):
		path, err := utils.ExpandPath(strings.TrimPrefix(source, "sqlite://"))
		if err != nil {
			return nil, err
		}
		return sqlite.NewStore(path), nil
	}

	path, err := utils.ExpandPath(source)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return sqlite.NewStore(path), nil
	}
	return NewJSONStore(path), nil
}

// Kind names the backend behind p for status output.
func Kind(p Persister) string {
	switch p.(type) {
	case *JSONStore:
		return "json"
	case *MemoryStore:
		return "memory"
	case *sqlite.Store:
		return "sqlite"
	case *postgres.Store:
		return "postgres"
	case *redis.Store:
		return "redis"
	default:
		return "unknown"
	}
}
