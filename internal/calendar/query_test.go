package calendar

import (
	"testing"

	"github.com/julianstephens/datebook/internal/errors"
	"github.com/julianstephens/datebook/internal/models"
	"github.com/julianstephens/datebook/internal/utils"
)

func clock(t *testing.T, s string) utils.Clock {
	t.Helper()
	c, err := utils.ParseTime(s)
	if err != nil {
		t.Fatalf("ParseTime(%q) error: %v", s, err)
	}
	return c
}

func TestContains(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		entry      models.Entry
		want       bool
	}{
		{name: "before window", start: "10:00", end: "20:00", entry: models.Entry{Text: "x", Start: "09:00", End: "09:30"}, want: false},
		{name: "inside window", start: "10:00", end: "20:00", entry: models.Entry{Text: "x", Start: "10:00", End: "12:00"}, want: true},
		{name: "overlap is not containment", start: "10:00", end: "20:00", entry: models.Entry{Text: "x", Start: "19:00", End: "21:00"}, want: false},
		{name: "open end runs to end of day", start: "10:00", end: "20:00", entry: models.Entry{Text: "x", Start: "11:00"}, want: false},
		{name: "open bounds take everything", start: "00:00", end: "24:00", entry: models.Entry{Text: "x"}, want: true},
		{name: "single digit hour", start: "9:00", end: "24:00", entry: models.Entry{Text: "x", Start: "09:00"}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Contains(clock(t, tt.start), clock(t, tt.end), tt.entry); got != tt.want {
				t.Errorf("Contains(%s, %s, %+v) = %v, want %v", tt.start, tt.end, tt.entry, got, tt.want)
			}
		})
	}
}

func TestProjectAttribute(t *testing.T) {
	entries := []models.Entry{
		{Text: "a", Start: "09:00"},
		{Text: "b", End: "10:00"},
		{Text: "c", Start: "11:00", End: "12:00"},
	}

	tests := []struct {
		attr string
		want []string
	}{
		{attr: "text", want: []string{"a", "b", "c"}},
		{attr: "start", want: []string{"09:00", "11:00"}},
		{attr: "end", want: []string{"10:00", "12:00"}},
	}
	for _, tt := range tests {
		got, err := ProjectAttribute(entries, tt.attr)
		if err != nil {
			t.Fatalf("ProjectAttribute(%s) error: %v", tt.attr, err)
		}
		if len(got) != len(tt.want) {
			t.Fatalf("ProjectAttribute(%s) = %v, want %v", tt.attr, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("ProjectAttribute(%s)[%d] = %q, want %q", tt.attr, i, got[i], tt.want[i])
			}
		}
	}

	if _, err := ProjectAttribute(entries, "color"); errors.KindOf(err) != errors.KindInvalidAttribute {
		t.Errorf("ProjectAttribute(color) kind = %v", errors.KindOf(err))
	}
}

// The end-to-end flow a client goes through for one day.
func TestDayScenario(t *testing.T) {
	store, _ := newTestStore(t)

	cal := mustCreate(t, store, "Test Calendar", strPtr("1234"))
	found, err := store.Lookup("Test Calendar", "1234")
	if err != nil || len(found.Entries) != 0 {
		t.Fatalf("Lookup() = %+v, %v", found, err)
	}

	batch := []models.Entry{
		{Text: "t1", Start: "09:00"},
		{Text: "t2", Start: "11:00", End: "12:00"},
	}
	if err := store.SetEntries(cal.ID, "22-8-2022", batch, false); err != nil {
		t.Fatalf("SetEntries() error: %v", err)
	}
	entries, err := store.EntriesOnDate(cal.ID, "22-8-2022")
	if err != nil || len(entries) != 2 {
		t.Fatalf("EntriesOnDate() = %+v, %v", entries, err)
	}

	inRange, err := store.EntriesInRange(cal.ID, "22-8-2022", clock(t, "10:00"), clock(t, "20:00"))
	if err != nil {
		t.Fatalf("EntriesInRange() error: %v", err)
	}
	if len(inRange) != 1 || inRange[0].Text != "t2" {
		t.Errorf("EntriesInRange() = %+v, want only t2", inRange)
	}

	if _, err := store.EntryAt(cal.ID, "22-8-2022", 5); errors.KindOf(err) != errors.KindIndexOutOfRange {
		t.Errorf("EntryAt(5) kind = %v", errors.KindOf(err))
	}
	if e, err := store.EntryAt(cal.ID, "22-08-2022", 1); err != nil || e.Text != "t2" {
		t.Errorf("EntryAt(1) = %+v, %v", e, err)
	}

	if err := store.DeleteEntries(cal.ID, "22-8-2022"); err != nil {
		t.Fatalf("DeleteEntries() error: %v", err)
	}
	entries, _ = store.EntriesOnDate(cal.ID, "22-8-2022")
	if len(entries) != 0 {
		t.Errorf("EntriesOnDate() after delete = %+v", entries)
	}

	a := mustCreate(t, store, "X", nil)
	b := mustCreate(t, store, "X", nil)
	if a.Code == b.Code {
		t.Errorf("generated codes collide: %q", a.Code)
	}
}
