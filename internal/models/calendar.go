package models

// Calendar is a named, code-protected collection of dated entries. Entries
// are keyed by normalized D-M-YYYY date strings.
type Calendar struct {
	ID      string             `json:"uid"`
	Name    string             `json:"name"`
	Code    string             `json:"code"`
	Created int64              `json:"created"` // milliseconds since epoch
	Entries map[string][]Entry `json:"entries"`
}

// Clone returns a deep copy of the calendar.
func (c Calendar) Clone() Calendar {
	out := c
	out.Entries = make(map[string][]Entry, len(c.Entries))
	for date, entries := range c.Entries {
		out.Entries[date] = append([]Entry(nil), entries...)
	}
	return out
}
