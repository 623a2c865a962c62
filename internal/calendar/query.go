package calendar

import (
	"github.com/julianstephens/datebook/internal/constants"
	"github.com/julianstephens/datebook/internal/errors"
	"github.com/julianstephens/datebook/internal/models"
	"github.com/julianstephens/datebook/internal/utils"
)

// EntriesOnDate returns the entries of calendar id on dateKey in stored
// order, or an empty slice when the date has none.
func (s *Store) EntriesOnDate(id, dateKey string) ([]models.Entry, error) {
	key, err := utils.NormalizeDateKey(dateKey)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cal, ok := s.calendars[id]
	if !ok {
		return nil, errors.NotFoundID(id)
	}
	return append([]models.Entry{}, cal.Entries[key]...), nil
}

// EntriesInRange returns the entries on dateKey whose effective interval lies
// entirely within [start, end]. Pass utils.StartOfDay and utils.EndOfDay for
// an open bound.
func (s *Store) EntriesInRange(id, dateKey string, start, end utils.Clock) ([]models.Entry, error) {
	entries, err := s.EntriesOnDate(id, dateKey)
	if err != nil {
		return nil, err
	}

	filtered := make([]models.Entry, 0, len(entries))
	for _, e := range entries {
		if Contains(start, end, e) {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

// Contains reports whether [start, end] contains the entry's effective
// interval. Overlap is not enough.
func Contains(start, end utils.Clock, e models.Entry) bool {
	entryStart, err := utils.ParseTime(e.EffectiveStart())
	if err != nil {
		entryStart = utils.StartOfDay
	}
	entryEnd, err := utils.ParseTime(e.EffectiveEnd())
	if err != nil {
		entryEnd = utils.EndOfDay
	}
	return start.Compare(entryStart) <= 0 && end.Compare(entryEnd) >= 0
}

// EntryAt returns the entry at index on dateKey.
func (s *Store) EntryAt(id, dateKey string, index int) (models.Entry, error) {
	entries, err := s.EntriesOnDate(id, dateKey)
	if err != nil {
		return models.Entry{}, err
	}
	if index < 0 || index >= len(entries) {
		return models.Entry{}, errors.New(errors.KindIndexOutOfRange, errors.MsgIndexOutOfRange)
	}
	return entries[index], nil
}

// ProjectAttribute maps entries to one attribute, skipping entries that do
// not set it.
func ProjectAttribute(entries []models.Entry, attr string) ([]string, error) {
	if !ValidAttribute(attr) {
		return nil, errors.New(errors.KindInvalidAttribute, errors.MsgInvalidAttribute)
	}

	values := make([]string, 0, len(entries))
	for _, e := range entries {
		if v, ok := e.Attribute(attr); ok {
			values = append(values, v)
		}
	}
	return values, nil
}

// ValidAttribute reports whether attr names a projectable entry attribute.
func ValidAttribute(attr string) bool {
	switch attr {
	case constants.AttrText, constants.AttrStart, constants.AttrEnd:
		return true
	}
	return false
}
