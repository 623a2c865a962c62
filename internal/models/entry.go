package models

import (
	"encoding/json"
	"sort"

	"github.com/julianstephens/datebook/internal/constants"
	"github.com/julianstephens/datebook/internal/utils"
)

// Entry is a single scheduled item on a calendar day.
type Entry struct {
	Text  string `json:"text"`
	Start string `json:"start,omitempty"` // H:MM or HH:MM
	End   string `json:"end,omitempty"`   // H:MM or HH:MM, 24:00 is end of day
}

// UnmarshalJSON accepts the legacy bare-string form ("buy milk") as well as
// the object form, so stored data written by old clients decodes into the
// structured shape.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*e = Entry{Text: text}
		return nil
	}

	type entryAlias Entry
	var alias entryAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	*e = Entry(alias)
	return nil
}

// EffectiveStart returns the start time, or the start of the day when unset.
func (e Entry) EffectiveStart() string {
	if e.Start == "" {
		return constants.StartOfDay
	}
	return e.Start
}

// EffectiveEnd returns the end time, or the end of the day when unset.
func (e Entry) EffectiveEnd() string {
	if e.End == "" {
		return constants.EndOfDay
	}
	return e.End
}

// Attribute returns the named attribute and whether the entry has it set.
func (e Entry) Attribute(attr string) (string, bool) {
	switch attr {
	case constants.AttrText:
		return e.Text, true
	case constants.AttrStart:
		return e.Start, e.Start != ""
	case constants.AttrEnd:
		return e.End, e.End != ""
	}
	return "", false
}

// CompareEntries orders entries by effective start, then effective end.
func CompareEntries(a, b Entry) int {
	if c := utils.CompareTimes(a.EffectiveStart(), b.EffectiveStart()); c != 0 {
		return c
	}
	return utils.CompareTimes(a.EffectiveEnd(), b.EffectiveEnd())
}

// SortEntries sorts entries in place with CompareEntries, keeping the stored
// order of equal entries.
func SortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return CompareEntries(entries[i], entries[j]) < 0
	})
}
