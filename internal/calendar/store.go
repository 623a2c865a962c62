package calendar

import (
	"math/rand/v2"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/datebook/internal/constants"
	"github.com/julianstephens/datebook/internal/errors"
	"github.com/julianstephens/datebook/internal/logger"
	"github.com/julianstephens/datebook/internal/models"
	"github.com/julianstephens/datebook/internal/storage"
	"github.com/julianstephens/datebook/internal/utils"
	"github.com/julianstephens/datebook/internal/validation"
)

// Loader is anything a dataset can be read from.
type Loader interface {
	Load() (models.Dataset, error)
}

// Store owns the calendars and the name/code index over them. Both maps are
// private and change together; callers only ever see copies. Every
// successful mutation is written through to the persister, and a failed
// write undoes the mutation.
type Store struct {
	mu        sync.Mutex
	calendars map[string]models.Calendar
	index     models.Index
	persister storage.Persister

	now   func() time.Time
	randN func(n int) int
}

// NewStore loads the dataset from p and returns a store writing back to it.
func NewStore(p storage.Persister) (*Store, error) {
	s := &Store{
		persister: p,
		now:       time.Now,
		randN:     rand.IntN,
	}
	if err := s.Reload(p); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload atomically replaces the calendars and the index with the dataset
// read from src. The store keeps writing to its own persister.
func (s *Store) Reload(src Loader) error {
	ds, err := src.Load()
	if err != nil {
		return err
	}
	ds.Normalize()
	if err := ds.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.replace(ds.Clone())

	logger.Debug("Loaded calendars", "count", len(s.calendars))
	return nil
}

// Restore replaces the current dataset with ds and persists it.
func (s *Store) Restore(ds models.Dataset) error {
	ds.Normalize()
	if err := ds.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutate("restore", func() error {
		s.replace(ds.Clone())
		return nil
	})
}

// Export returns a deep copy of the current dataset.
func (s *Store) Export() models.Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dataset().Clone()
}

// Create adds a calendar named name. A nil code asks for a generated one.
func (s *Store) Create(name string, code *string) (models.Calendar, error) {
	if name == "" {
		return models.Calendar{}, errors.New(errors.KindInvalidName, errors.MsgInvalidName)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var resolved string
	if code != nil {
		if _, taken := s.index[name][*code]; taken {
			return models.Calendar{}, errors.AlreadyExists(name, *code)
		}
		resolved = *code
	} else {
		resolved = s.generateCode(name)
	}

	cal := models.Calendar{
		ID:      uuid.NewString(),
		Name:    name,
		Code:    resolved,
		Created: s.now().UnixMilli(),
		Entries: make(map[string][]models.Entry),
	}

	err := s.mutate("create", func() error {
		s.calendars[cal.ID] = cal
		if s.index[name] == nil {
			s.index[name] = make(map[string]string)
		}
		s.index[name][resolved] = cal.ID
		return nil
	})
	if err != nil {
		return models.Calendar{}, err
	}

	logger.Debug("Created calendar", "id", cal.ID, "name", name, "code", resolved)
	return cal.Clone(), nil
}

// generateCode draws from [0,w), then [w,2w), and so on, until it finds a
// code not yet used under name. Each window holds more codes than any name
// can have exhausted in the windows before it, so the loop terminates.
func (s *Store) generateCode(name string) string {
	codes := s.index[name]
	for window := 0; ; window++ {
		candidate := strconv.Itoa(window*constants.CodeWindow + s.randN(constants.CodeWindow))
		if _, taken := codes[candidate]; !taken {
			return candidate
		}
	}
}

// Lookup returns the calendar indexed under name and code.
func (s *Store) Lookup(name, code string) (models.Calendar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cal, ok := s.lookup(name, code)
	if !ok {
		return models.Calendar{}, errors.NotFound(name, code)
	}
	return cal.Clone(), nil
}

// LookupByID returns the calendar with the given id.
func (s *Store) LookupByID(id string) (models.Calendar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cal, ok := s.calendars[id]
	if !ok {
		return models.Calendar{}, errors.NotFoundID(id)
	}
	return cal.Clone(), nil
}

// Delete removes the calendar indexed under name and code, and the name
// itself once its last code is gone.
func (s *Store) Delete(name, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cal, ok := s.lookup(name, code)
	if !ok {
		return errors.NotFound(name, code)
	}

	err := s.mutate("delete", func() error {
		delete(s.calendars, cal.ID)
		delete(s.index[name], code)
		if len(s.index[name]) == 0 {
			delete(s.index, name)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Debug("Deleted calendar", "id", cal.ID, "name", name, "code", code)
	return nil
}

// ListIDs returns every calendar id, sorted.
func (s *Store) ListIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.calendars))
	for id := range s.calendars {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ListIDsCreatedAfter returns the ids of calendars created strictly after
// local midnight of date, sorted.
func (s *Store) ListIDsCreatedAfter(date utils.Date) []string {
	cutoff := date.Time().UnixMilli()

	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0)
	for id, cal := range s.calendars {
		if cal.Created > cutoff {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// SetEntries stores entries under dateKey on calendar id. An empty batch
// removes the date. With appendTo set and the date present, the batch is
// added after the existing entries; otherwise it replaces them.
func (s *Store) SetEntries(id, dateKey string, entries []models.Entry, appendTo bool) error {
	key, err := utils.NormalizeDateKey(dateKey)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := validation.ValidateEntryValue(e); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cal, ok := s.calendars[id]
	if !ok {
		return errors.NotFoundID(id)
	}

	return s.mutate("set entries", func() error {
		existing, present := cal.Entries[key]
		switch {
		case len(entries) == 0:
			delete(cal.Entries, key)
		case appendTo && present:
			merged := make([]models.Entry, 0, len(existing)+len(entries))
			merged = append(merged, existing...)
			cal.Entries[key] = append(merged, entries...)
		default:
			cal.Entries[key] = append([]models.Entry(nil), entries...)
		}
		return nil
	})
}

// DeleteEntries removes every entry on dateKey. A missing date is not an
// error.
func (s *Store) DeleteEntries(id, dateKey string) error {
	key, err := utils.NormalizeDateKey(dateKey)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cal, ok := s.calendars[id]
	if !ok {
		return errors.NotFoundID(id)
	}
	if _, present := cal.Entries[key]; !present {
		return nil
	}

	return s.mutate("delete entries", func() error {
		delete(cal.Entries, key)
		return nil
	})
}

// DeleteEntryAt removes the entry at index on dateKey, dropping the date
// when it was the last one. A missing date is not an error.
func (s *Store) DeleteEntryAt(id, dateKey string, index int) error {
	key, err := utils.NormalizeDateKey(dateKey)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cal, ok := s.calendars[id]
	if !ok {
		return errors.NotFoundID(id)
	}
	existing, present := cal.Entries[key]
	if !present {
		return nil
	}
	if index < 0 || index >= len(existing) {
		return errors.New(errors.KindIndexOutOfRange, errors.MsgIndexOutOfRange)
	}

	return s.mutate("delete entry", func() error {
		if len(existing) == 1 {
			delete(cal.Entries, key)
			return nil
		}
		remaining := make([]models.Entry, 0, len(existing)-1)
		remaining = append(remaining, existing[:index]...)
		cal.Entries[key] = append(remaining, existing[index+1:]...)
		return nil
	})
}

// Close closes the underlying persister.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persister.Close()
}

// Persister returns the backend the store writes to.
func (s *Store) Persister() storage.Persister {
	return s.persister
}

// mutate applies fn and persists the result, restoring the previous state
// when either step fails. Callers hold s.mu.
func (s *Store) mutate(op string, fn func() error) error {
	backup := s.dataset().Clone()

	if err := fn(); err != nil {
		s.replace(backup)
		return err
	}

	if err := s.persister.Save(s.dataset()); err != nil {
		s.replace(backup)
		logger.Error("Failed to persist calendars, change rolled back", "op", op, "error", err)
		return errors.Wrap(errors.KindPersistence, errors.MsgPersistence, err)
	}
	return nil
}

func (s *Store) lookup(name, code string) (models.Calendar, bool) {
	id, ok := s.index[name][code]
	if !ok {
		return models.Calendar{}, false
	}
	cal, ok := s.calendars[id]
	return cal, ok
}

func (s *Store) dataset() models.Dataset {
	return models.Dataset{Calendars: s.calendars, Index: s.index}
}

func (s *Store) replace(ds models.Dataset) {
	s.calendars = ds.Calendars
	s.index = ds.Index
}
