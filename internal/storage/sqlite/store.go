package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/datebook/internal/logger"
	"github.com/julianstephens/datebook/internal/migration"
	"github.com/julianstephens/datebook/internal/models"
	"github.com/julianstephens/datebook/migrations"
)

type Store struct {
	path string
	db   *sql.DB
}

func NewStore(path string) *Store {
	return &Store{
		path: path,
	}
}

func (s *Store) Init() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	if err := s.open(); err != nil {
		return err
	}

	if err := s.runMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *Store) open() error {
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	// Every save rewrites the whole dataset in one transaction.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	s.db = db
	return nil
}

func (s *Store) Load() (models.Dataset, error) {
	if s.db == nil {
		if _, err := os.Stat(s.path); os.IsNotExist(err) {
			return models.Dataset{}, fmt.Errorf("storage not initialized, run 'datebook init' first")
		}
		if err := s.open(); err != nil {
			return models.Dataset{}, err
		}
		if err := s.validateSchemaVersion(); err != nil {
			return models.Dataset{}, err
		}
	}

	ds := models.NewDataset()

	rows, err := s.db.Query("SELECT uid, name, code, created, entries FROM calendars")
	if err != nil {
		return models.Dataset{}, fmt.Errorf("failed to query calendars: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cal models.Calendar
		var entries string
		if err := rows.Scan(&cal.ID, &cal.Name, &cal.Code, &cal.Created, &entries); err != nil {
			return models.Dataset{}, fmt.Errorf("failed to scan calendar: %w", err)
		}
		if err := json.Unmarshal([]byte(entries), &cal.Entries); err != nil {
			return models.Dataset{}, fmt.Errorf("failed to decode entries of calendar %s: %w", cal.ID, err)
		}
		ds.Calendars[cal.ID] = cal
	}
	if err := rows.Err(); err != nil {
		return models.Dataset{}, err
	}

	idxRows, err := s.db.Query("SELECT name, code, uid FROM calendar_index")
	if err != nil {
		return models.Dataset{}, fmt.Errorf("failed to query calendar index: %w", err)
	}
	defer idxRows.Close()

	for idxRows.Next() {
		var name, code, id string
		if err := idxRows.Scan(&name, &code, &id); err != nil {
			return models.Dataset{}, fmt.Errorf("failed to scan calendar index: %w", err)
		}
		if ds.Index[name] == nil {
			ds.Index[name] = make(map[string]string)
		}
		ds.Index[name][code] = id
	}
	if err := idxRows.Err(); err != nil {
		return models.Dataset{}, err
	}

	ds.Normalize()
	return ds, nil
}

// Save replaces the stored dataset in a single transaction.
func (s *Store) Save(ds models.Dataset) error {
	if s.db == nil {
		return fmt.Errorf("storage not loaded")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.Exec("DELETE FROM calendar_index"); err != nil {
		return fmt.Errorf("failed to clear calendar index: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM calendars"); err != nil {
		return fmt.Errorf("failed to clear calendars: %w", err)
	}

	for id, cal := range ds.Calendars {
		entries, err := json.Marshal(cal.Entries)
		if err != nil {
			return fmt.Errorf("failed to encode entries of calendar %s: %w", id, err)
		}
		if _, err := tx.Exec(
			"INSERT INTO calendars (uid, name, code, created, entries) VALUES (?, ?, ?, ?, ?)",
			id, cal.Name, cal.Code, cal.Created, string(entries),
		); err != nil {
			return fmt.Errorf("failed to save calendar %s: %w", id, err)
		}
	}

	for name, codes := range ds.Index {
		for code, id := range codes {
			if _, err := tx.Exec(
				"INSERT INTO calendar_index (name, code, uid) VALUES (?, ?, ?)",
				name, code, id,
			); err != nil {
				return fmt.Errorf("failed to index %s #%s: %w", name, code, err)
			}
		}
	}

	return tx.Commit()
}

func (s *Store) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

func (s *Store) GetConfigPath() string {
	return s.path
}

func (s *Store) runMigrations() error {
	subFS, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		return fmt.Errorf("failed to access sqlite migrations: %w", err)
	}

	runner := migration.NewRunner(s.db, subFS, migration.DriverSQLite)
	_, err = runner.ApplyMigrations(func(msg string) {
		logger.Info(msg)
	})
	return err
}

func (s *Store) validateSchemaVersion() error {
	subFS, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		return fmt.Errorf("failed to access sqlite migrations: %w", err)
	}

	return migration.NewRunner(s.db, subFS, migration.DriverSQLite).ValidateVersion()
}

// SchemaVersion reports the applied and the newest known migration.
func (s *Store) SchemaVersion() (current, latest int, err error) {
	if s.db == nil {
		return 0, 0, fmt.Errorf("database not open")
	}
	subFS, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		return 0, 0, fmt.Errorf("failed to access sqlite migrations: %w", err)
	}

	runner := migration.NewRunner(s.db, subFS, migration.DriverSQLite)
	if current, err = runner.GetCurrentVersion(); err != nil {
		return 0, 0, err
	}
	if latest, err = runner.GetLatestVersion(); err != nil {
		return 0, 0, err
	}
	return current, latest, nil
}
