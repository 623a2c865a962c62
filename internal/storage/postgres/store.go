package postgres

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	pq "github.com/lib/pq"

	"github.com/julianstephens/datebook/internal/constants"
	"github.com/julianstephens/datebook/internal/logger"
	"github.com/julianstephens/datebook/internal/migration"
	"github.com/julianstephens/datebook/internal/models"
	"github.com/julianstephens/datebook/migrations"
)

type Store struct {
	connStr string
	db      *sql.DB
}

var (
	ErrInvalidConnectionString = errors.New("invalid PostgreSQL connection string")
	ErrEmbeddedCredentials     = errors.New("connection string must not contain a password")
)

func New(connStr string) *Store {
	s := &Store{
		connStr: connStr,
	}
	s.ensureSearchPath()
	return s
}

// ensureSearchPath scopes every connection to the datebook schema unless the
// caller chose a search_path already.
func (s *Store) ensureSearchPath() {
	if isURL(s.connStr) {
		u, err := url.Parse(s.connStr)
		if err != nil {
			logger.Warn("Failed to parse Postgres connection string", "error", err)
			return
		}
		q := u.Query()
		if q.Get("search_path") == "" {
			q.Set("search_path", constants.AppName)
			u.RawQuery = q.Encode()
			s.connStr = u.String()
		}
		return
	}

	if !hasParam(s.connStr, "search_path") {
		s.connStr = strings.TrimSpace(s.connStr) + " search_path=" + constants.AppName
	}
}

func isURL(connStr string) bool {
	return strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://")
}

// hasParam reports whether a DSN-style or URL-style connection string sets
// key (case-insensitive).
func hasParam(connStr, key string) bool {
	if u, err := url.Parse(connStr); err == nil && u.Scheme != "" {
		for k := range u.Query() {
			if strings.EqualFold(k, key) {
				return true
			}
		}
	}

	for _, part := range strings.Fields(connStr) {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) == 2 && strings.EqualFold(kv[0], key) {
			return true
		}
	}
	return false
}

// ValidateConnString checks that connStr is a PostgreSQL URI or DSN without
// an embedded password. Passwords belong in PGPASSFILE or the keyring.
func ValidateConnString(connStr string) (bool, error) {
	if strings.TrimSpace(connStr) == "" {
		return false, fmt.Errorf("%w: connection string cannot be empty", ErrInvalidConnectionString)
	}

	if _, err := pq.NewConnector(connStr); err != nil {
		return false, fmt.Errorf("%w: invalid connection string format: %v", ErrInvalidConnectionString, err)
	}

	if isURL(connStr) {
		parsedURL, err := url.Parse(connStr)
		if err != nil {
			return false, fmt.Errorf("%w: failed to parse connection URL: %v", ErrInvalidConnectionString, err)
		}
		if _, isSet := parsedURL.User.Password(); isSet {
			return false, ErrEmbeddedCredentials
		}
		if parsedURL.Host == "" && parsedURL.User == nil && (parsedURL.Path == "" || parsedURL.Path == "/") {
			return false, fmt.Errorf("%w: connection URL is incomplete", ErrInvalidConnectionString)
		}
		return true, nil
	}

	for _, pair := range strings.Fields(connStr) {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) == 2 && strings.EqualFold(strings.TrimSpace(parts[0]), "password") {
			return false, ErrEmbeddedCredentials
		}
	}
	return true, nil
}

func (s *Store) Init() error {
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

	db, err := sql.Open("postgres", s.connStr)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		if strings.Contains(err.Error(), "SSL is not enabled on the server") && !hasParam(s.connStr, "sslmode") {
			return fmt.Errorf("failed to connect to database: %w (hint: try adding ?sslmode=disable to your connection string)", err)
		}
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec("CREATE SCHEMA IF NOT EXISTS " + constants.AppName); err != nil {
		db.Close()
		return fmt.Errorf("failed to create schema: %w", err)
	}

	s.db = db
	return nil
}

func (s *Store) Load() (models.Dataset, error) {
	if s.db == nil {
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
		if strings.Contains(err.Error(), "does not exist") {
			return models.Dataset{}, fmt.Errorf("storage not initialized, run 'datebook init' first")
		}
		return models.Dataset{}, fmt.Errorf("failed to query calendars: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cal models.Calendar
		var entries []byte
		if err := rows.Scan(&cal.ID, &cal.Name, &cal.Code, &cal.Created, &entries); err != nil {
			return models.Dataset{}, fmt.Errorf("failed to scan calendar: %w", err)
		}
		if err := json.Unmarshal(entries, &cal.Entries); err != nil {
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
			"INSERT INTO calendars (uid, name, code, created, entries) VALUES ($1, $2, $3, $4, $5)",
			id, cal.Name, cal.Code, cal.Created, string(entries),
		); err != nil {
			return fmt.Errorf("failed to save calendar %s: %w", id, err)
		}
	}

	for name, codes := range ds.Index {
		for code, id := range codes {
			if _, err := tx.Exec(
				"INSERT INTO calendar_index (name, code, uid) VALUES ($1, $2, $3)",
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
	return s.connStr
}

func (s *Store) runMigrations() error {
	subFS, err := fs.Sub(migrations.FS, "postgres")
	if err != nil {
		return fmt.Errorf("failed to access postgres migrations: %w", err)
	}

	runner := migration.NewRunner(s.db, subFS, migration.DriverPostgres)
	_, err = runner.ApplyMigrations(func(msg string) {
		logger.Info(msg)
	})
	return err
}

func (s *Store) validateSchemaVersion() error {
	subFS, err := fs.Sub(migrations.FS, "postgres")
	if err != nil {
		return fmt.Errorf("failed to access postgres migrations: %w", err)
	}

	return migration.NewRunner(s.db, subFS, migration.DriverPostgres).ValidateVersion()
}

// SchemaVersion reports the applied and the newest known migration.
func (s *Store) SchemaVersion() (current, latest int, err error) {
	if s.db == nil {
		return 0, 0, fmt.Errorf("database not open")
	}
	subFS, err := fs.Sub(migrations.FS, "postgres")
	if err != nil {
		return 0, 0, fmt.Errorf("failed to access postgres migrations: %w", err)
	}

	runner := migration.NewRunner(s.db, subFS, migration.DriverPostgres)
	if current, err = runner.GetCurrentVersion(); err != nil {
		return 0, 0, err
	}
	if latest, err = runner.GetLatestVersion(); err != nil {
		return 0, 0, err
	}
	return current, latest, nil
}
