package storage

import "github.com/julianstephens/datebook/internal/models"

// Persister is the backing store for the calendar dataset. The calendar store
// loads the dataset once at startup and saves the whole of it after every
// successful mutation.
type Persister interface {
	// Lifecycle
	Init() error
	Close() error

	// Dataset
	Load() (models.Dataset, error)
	Save(models.Dataset) error

	// Utils
	GetConfigPath() string
}

// Versioned is implemented by persisters with a migrated schema.
type Versioned interface {
	SchemaVersion() (current, latest int, err error)
}
