package validation

import (
	"bytes"
	"encoding/json"

	"github.com/julianstephens/datebook/internal/constants"
	"github.com/julianstephens/datebook/internal/errors"
	"github.com/julianstephens/datebook/internal/models"
	"github.com/julianstephens/datebook/internal/utils"
)

var allowedEntryFields = map[string]bool{
	constants.AttrText:  true,
	constants.AttrStart: true,
	constants.AttrEnd:   true,
}

// ValidateEntry reports whether raw is a valid entry: a non-empty JSON string
// (legacy shorthand) or an object with a non-empty string text, optional valid
// start/end times and no other fields.
func ValidateEntry(raw json.RawMessage) bool {
	_, ok := decodeEntry(raw)
	return ok
}

// ValidateEntryBatch reports whether raw is a JSON array of valid entries.
func ValidateEntryBatch(raw json.RawMessage) bool {
	_, err := DecodeEntryBatch(raw)
	return err == nil
}

// DecodeEntryBatch validates raw as an entry batch and returns it in the
// structured form. Bare strings become {text: s}. A nil raw message means the
// data field was absent.
func DecodeEntryBatch(raw json.RawMessage) ([]models.Entry, error) {
	if raw == nil {
		return nil, errors.New(errors.KindNoEntryData, errors.MsgNoEntryData)
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errors.New(errors.KindInvalidEntryData, errors.MsgInvalidEntryData)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, errors.Wrap(errors.KindInvalidEntryData, errors.MsgInvalidEntryData, err)
	}

	entries := make([]models.Entry, 0, len(items))
	for _, item := range items {
		entry, ok := decodeEntry(item)
		if !ok {
			return nil, errors.New(errors.KindInvalidEntry, errors.MsgInvalidEntry)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ValidateEntryValue checks an already structured entry.
func ValidateEntryValue(e models.Entry) error {
	if e.Text == "" {
		return errors.New(errors.KindInvalidEntry, errors.MsgInvalidEntry)
	}
	for _, t := range []string{e.Start, e.End} {
		if t == "" {
			continue
		}
		if _, err := utils.ParseTime(t); err != nil {
			return errors.Wrap(errors.KindInvalidEntry, errors.MsgInvalidEntry, err)
		}
	}
	return nil
}

func decodeEntry(raw json.RawMessage) (models.Entry, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return models.Entry{}, false
	}

	switch trimmed[0] {
	case '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil || text == "" {
			return models.Entry{}, false
		}
		return models.Entry{Text: text}, true
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return models.Entry{}, false
		}
		for key := range fields {
			if !allowedEntryFields[key] {
				return models.Entry{}, false
			}
		}

		var entry models.Entry
		var ok bool
		if entry.Text, ok = stringField(fields, constants.AttrText, true); !ok {
			return models.Entry{}, false
		}
		if entry.Start, ok = stringField(fields, constants.AttrStart, false); !ok {
			return models.Entry{}, false
		}
		if entry.End, ok = stringField(fields, constants.AttrEnd, false); !ok {
			return models.Entry{}, false
		}
		// A present but empty start/end is not a valid time.
		if _, present := fields[constants.AttrStart]; present && entry.Start == "" {
			return models.Entry{}, false
		}
		if _, present := fields[constants.AttrEnd]; present && entry.End == "" {
			return models.Entry{}, false
		}
		if ValidateEntryValue(entry) != nil {
			return models.Entry{}, false
		}
		return entry, true
	default:
		return models.Entry{}, false
	}
}

// stringField extracts a string field. Present fields must be JSON strings;
// null is rejected.
func stringField(fields map[string]json.RawMessage, key string, required bool) (string, bool) {
	raw, present := fields[key]
	if !present {
		return "", !required
	}
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
