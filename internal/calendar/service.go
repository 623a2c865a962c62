package calendar

import (
	"bytes"
	"encoding/json"

	"github.com/julianstephens/datebook/internal/errors"
	"github.com/julianstephens/datebook/internal/models"
	"github.com/julianstephens/datebook/internal/utils"
	"github.com/julianstephens/datebook/internal/validation"
)

// Service runs client requests against a Store. Request fields arrive
// untyped: nil pointers and nil raw messages mean the field was absent.
// Each operation validates everything before it mutates anything.
type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

func (s *Service) Store() *Store {
	return s.store
}

// NewRequest is the body of a create request.
type NewRequest struct {
	Name json.RawMessage `json:"name"`
	Code json.RawMessage `json:"code"`
}

// UpdateRequest is the body of an entry update.
type UpdateRequest struct {
	Name   json.RawMessage `json:"name"`
	Code   json.RawMessage `json:"code"`
	Date   json.RawMessage `json:"date"`
	Data   json.RawMessage `json:"data"`
	Append json.RawMessage `json:"append"`
}

// EntriesQuery selects the entries of one day, optionally bounded.
type EntriesQuery struct {
	Name  *string
	Code  *string
	Date  *string
	Start *string
	End   *string
}

// EntryQuery selects one day and optionally one entry on it.
type EntryQuery struct {
	Name  *string
	Code  *string
	Date  *string
	Index *string
}

// All returns every calendar id.
func (s *Service) All() []string {
	return s.store.ListIDs()
}

// AllAfter returns the ids of calendars created after date.
func (s *Service) AllAfter(date *string) ([]string, error) {
	d, err := utils.RequireDate(date)
	if err != nil {
		return nil, err
	}
	return s.store.ListIDsCreatedAfter(d), nil
}

func (s *Service) Calendar(name, code *string) (models.Calendar, error) {
	return s.resolve(name, code)
}

func (s *Service) CalendarByID(id *string) (models.Calendar, error) {
	if id == nil || *id == "" {
		return models.Calendar{}, errors.New(errors.KindIDMissing, errors.MsgIDMissing)
	}
	return s.store.LookupByID(*id)
}

// New creates a calendar. The name must be a non-empty string; a code that
// is not a string is ignored and one is generated instead.
func (s *Service) New(req NewRequest) (models.Calendar, error) {
	name, ok := jsonString(req.Name)
	if !ok || name == "" {
		return models.Calendar{}, errors.New(errors.KindInvalidName, errors.MsgInvalidName)
	}

	var code *string
	if c, ok := jsonString(req.Code); ok {
		code = &c
	}
	return s.store.Create(name, code)
}

func (s *Service) Remove(name, code *string) error {
	cal, err := s.resolve(name, code)
	if err != nil {
		return err
	}
	return s.store.Delete(cal.Name, cal.Code)
}

// Entries returns the entries on the requested day within the optional
// start/end bounds.
func (s *Service) Entries(q EntriesQuery) ([]models.Entry, error) {
	cal, err := s.resolve(q.Name, q.Code)
	if err != nil {
		return nil, err
	}
	date, err := utils.RequireDate(q.Date)
	if err != nil {
		return nil, err
	}
	start, err := utils.ParseOptionalTime(q.Start, utils.StartOfDay)
	if err != nil {
		return nil, err
	}
	end, err := utils.ParseOptionalTime(q.End, utils.EndOfDay)
	if err != nil {
		return nil, err
	}
	return s.store.EntriesInRange(cal.ID, date.Key(), start, end)
}

// EntriesAttr projects one attribute of the entries Entries would return.
// The attribute is checked before anything else.
func (s *Service) EntriesAttr(attr *string, q EntriesQuery) ([]string, error) {
	if attr == nil {
		return nil, errors.New(errors.KindAttributeMissing, errors.MsgAttributeMissing)
	}
	if !ValidAttribute(*attr) {
		return nil, errors.New(errors.KindInvalidAttribute, errors.MsgInvalidAttribute)
	}

	entries, err := s.Entries(q)
	if err != nil {
		return nil, err
	}
	return ProjectAttribute(entries, *attr)
}

func (s *Service) Entry(q EntryQuery) (models.Entry, error) {
	cal, err := s.resolve(q.Name, q.Code)
	if err != nil {
		return models.Entry{}, err
	}
	date, err := utils.RequireDate(q.Date)
	if err != nil {
		return models.Entry{}, err
	}
	index, err := utils.ParseIndex(q.Index)
	if err != nil {
		return models.Entry{}, err
	}
	return s.store.EntryAt(cal.ID, date.Key(), index)
}

// Update writes a batch of entries to one day.
func (s *Service) Update(req UpdateRequest) error {
	cal, err := s.resolve(rawText(req.Name), rawText(req.Code))
	if err != nil {
		return err
	}
	date, err := utils.RequireDate(rawText(req.Date))
	if err != nil {
		return err
	}
	entries, err := validation.DecodeEntryBatch(req.Data)
	if err != nil {
		return err
	}
	appendTo, err := appendFlag(req.Append)
	if err != nil {
		return err
	}
	return s.store.SetEntries(cal.ID, date.Key(), entries, appendTo)
}

// RemoveEntries deletes a whole day, or one entry when an index is given.
// A day without entries succeeds without looking at the index.
func (s *Service) RemoveEntries(q EntryQuery) error {
	cal, err := s.resolve(q.Name, q.Code)
	if err != nil {
		return err
	}
	date, err := utils.RequireDate(q.Date)
	if err != nil {
		return err
	}
	if len(cal.Entries[date.Key()]) == 0 {
		return nil
	}
	if q.Index == nil {
		return s.store.DeleteEntries(cal.ID, date.Key())
	}

	index, err := utils.ParseIndex(q.Index)
	if err != nil {
		return err
	}
	return s.store.DeleteEntryAt(cal.ID, date.Key(), index)
}

func (s *Service) resolve(name, code *string) (models.Calendar, error) {
	if name == nil {
		return models.Calendar{}, errors.New(errors.KindNameMissing, errors.MsgNameMissing)
	}
	if code == nil {
		return models.Calendar{}, errors.New(errors.KindCodeMissing, errors.MsgCodeMissing)
	}
	return s.store.Lookup(*name, *code)
}

// jsonString decodes raw when it is a JSON string.
func jsonString(raw json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return "", false
	}
	return s, true
}

// rawText reads a body field used as a lookup key. Strings decode normally;
// other JSON values are used as their literal text.
func rawText(raw json.RawMessage) *string {
	if raw == nil {
		return nil
	}
	if s, ok := jsonString(raw); ok {
		return &s
	}
	text := string(bytes.TrimSpace(raw))
	return &text
}

func appendFlag(raw json.RawMessage) (bool, error) {
	if raw == nil {
		return false, nil
	}
	switch string(bytes.TrimSpace(raw)) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, errors.New(errors.KindInvalidAppendFlag, errors.MsgInvalidAppendFlag)
}
