package models

import (
	"fmt"
	"sort"

	"github.com/julianstephens/datebook/internal/utils"
)

// Index maps calendar name -> code -> calendar id.
type Index map[string]map[string]string

// Dataset is everything a persister stores: the calendars by id and the
// name/code index over them.
type Dataset struct {
	Calendars map[string]Calendar `json:"calendars"`
	Index     Index               `json:"index"`
}

// NewDataset returns an empty dataset.
func NewDataset() Dataset {
	return Dataset{
		Calendars: make(map[string]Calendar),
		Index:     make(Index),
	}
}

// Clone returns a deep copy of the dataset.
func (d Dataset) Clone() Dataset {
	out := NewDataset()
	for id, cal := range d.Calendars {
		out.Calendars[id] = cal.Clone()
	}
	for name, codes := range d.Index {
		bucket := make(map[string]string, len(codes))
		for code, id := range codes {
			bucket[code] = id
		}
		out.Index[name] = bucket
	}
	return out
}

// Normalize replaces nil maps with empty ones and rewrites date keys such as
// "01-02-2022" to their normalized form, merging days that collide. Keys that
// are not dates are kept as they are.
func (d *Dataset) Normalize() {
	if d.Calendars == nil {
		d.Calendars = make(map[string]Calendar)
	}
	if d.Index == nil {
		d.Index = make(Index)
	}
	for id, cal := range d.Calendars {
		d.Calendars[id] = cal.normalizeKeys()
	}
}

func (c Calendar) normalizeKeys() Calendar {
	if c.Entries == nil {
		c.Entries = make(map[string][]Entry)
		return c
	}

	keys := make([]string, 0, len(c.Entries))
	for k := range c.Entries {
		keys = append(keys, k)
	}
	// Already-normalized keys first so their entries keep leading positions.
	sort.Slice(keys, func(i, j int) bool {
		ni, nj := isNormalKey(keys[i]), isNormalKey(keys[j])
		if ni != nj {
			return ni
		}
		return keys[i] < keys[j]
	})

	out := make(map[string][]Entry, len(c.Entries))
	for _, k := range keys {
		key, err := utils.NormalizeDateKey(k)
		if err != nil {
			key = k
		}
		if len(c.Entries[k]) == 0 {
			continue
		}
		out[key] = append(out[key], c.Entries[k]...)
	}
	c.Entries = out
	return c
}

func isNormalKey(k string) bool {
	key, err := utils.NormalizeDateKey(k)
	return err == nil && key == k
}

// Validate checks that the index and the calendars describe each other: every
// index entry points at an existing calendar with the same name and code, no
// name bucket is empty, and every calendar is reachable through the index.
func (d Dataset) Validate() error {
	reachable := make(map[string]bool, len(d.Calendars))
	for name, codes := range d.Index {
		if len(codes) == 0 {
			return fmt.Errorf("index has empty bucket for name %q", name)
		}
		for code, id := range codes {
			cal, ok := d.Calendars[id]
			if !ok {
				return fmt.Errorf("index entry %s #%s points to missing calendar %s", name, code, id)
			}
			if cal.Name != name || cal.Code != code {
				return fmt.Errorf("index entry %s #%s points to calendar %s (%s #%s)", name, code, id, cal.Name, cal.Code)
			}
			reachable[id] = true
		}
	}
	for id, cal := range d.Calendars {
		if cal.ID != id {
			return fmt.Errorf("calendar stored under %s has id %s", id, cal.ID)
		}
		if !reachable[id] {
			return fmt.Errorf("calendar %s (%s #%s) is not indexed", id, cal.Name, cal.Code)
		}
	}
	return nil
}
