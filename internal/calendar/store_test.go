package calendar

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/julianstephens/datebook/internal/errors"
	"github.com/julianstephens/datebook/internal/models"
	"github.com/julianstephens/datebook/internal/storage"
	"github.com/julianstephens/datebook/internal/utils"
)

func strPtr(s string) *string { return &s }

func newTestStore(t *testing.T) (*Store, *storage.MemoryStore) {
	t.Helper()

	mem := storage.NewMemoryStore(models.NewDataset())
	store, err := NewStore(mem)
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	return store, mem
}

func mustCreate(t *testing.T, s *Store, name string, code *string) models.Calendar {
	t.Helper()

	cal, err := s.Create(name, code)
	if err != nil {
		t.Fatalf("Create(%q) error: %v", name, err)
	}
	return cal
}

func assertConsistent(t *testing.T, s *Store) {
	t.Helper()
	if err := s.Export().Validate(); err != nil {
		t.Fatalf("store inconsistent: %v", err)
	}
}

func TestCreateAndLookup(t *testing.T) {
	store, mem := newTestStore(t)

	cal := mustCreate(t, store, "Test Calendar", strPtr("1234"))
	if cal.Name != "Test Calendar" || cal.Code != "1234" {
		t.Errorf("Create() = %+v", cal)
	}
	if !uuidV4.MatchString(cal.ID) {
		t.Errorf("id %q is not a v4 UUID", cal.ID)
	}
	if len(cal.Entries) != 0 {
		t.Errorf("new calendar has entries: %+v", cal.Entries)
	}

	got, err := store.Lookup("Test Calendar", "1234")
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	if got.ID != cal.ID || got.Created != cal.Created {
		t.Errorf("Lookup() = %+v, want %+v", got, cal)
	}

	byID, err := store.LookupByID(cal.ID)
	if err != nil || byID.Name != "Test Calendar" {
		t.Errorf("LookupByID() = %+v, %v", byID, err)
	}
	if mem.Saves() != 1 {
		t.Errorf("Saves() = %d, want 1", mem.Saves())
	}
	assertConsistent(t, store)
}

var uuidV4 = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

func TestCreateDuplicateCode(t *testing.T) {
	store, _ := newTestStore(t)
	mustCreate(t, store, "Test Calendar", strPtr("1234"))

	_, err := store.Create("Test Calendar", strPtr("1234"))
	if !stderrors.Is(err, errors.ErrAlreadyExists) {
		t.Fatalf("Create() twice error = %v, want already exists", err)
	}
	if errors.Message(err) != "Test Calendar #1234 already exists" {
		t.Errorf("message = %q", errors.Message(err))
	}

	// Same code under another name is fine.
	mustCreate(t, store, "Other", strPtr("1234"))
	if len(store.ListIDs()) != 2 {
		t.Errorf("ListIDs() = %v", store.ListIDs())
	}
}

func TestCreateInvalidName(t *testing.T) {
	store, mem := newTestStore(t)

	_, err := store.Create("", nil)
	if errors.KindOf(err) != errors.KindInvalidName {
		t.Fatalf("Create(\"\") kind = %v", errors.KindOf(err))
	}
	if mem.Saves() != 0 {
		t.Error("failed create must not persist")
	}
}

func TestGeneratedCodes(t *testing.T) {
	store, _ := newTestStore(t)
	digits := regexp.MustCompile(`^\d+$`)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		cal := mustCreate(t, store, "X", nil)
		if !digits.MatchString(cal.Code) {
			t.Fatalf("generated code %q is not numeric", cal.Code)
		}
		if seen[cal.Code] {
			t.Fatalf("generated code %q twice", cal.Code)
		}
		seen[cal.Code] = true
	}
	assertConsistent(t, store)
}

func TestGeneratedCodesWidenWindow(t *testing.T) {
	store, _ := newTestStore(t)
	store.randN = func(int) int { return 7 }

	want := []string{"7", "10007", "20007"}
	for _, code := range want {
		cal := mustCreate(t, store, "X", nil)
		if cal.Code != code {
			t.Errorf("Code = %q, want %q", cal.Code, code)
		}
	}

	// Another name starts over in the first window.
	if cal := mustCreate(t, store, "Y", nil); cal.Code != "7" {
		t.Errorf("Code = %q, want 7", cal.Code)
	}
}

func TestLookupNotFound(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Lookup("Nope", "1")
	if !stderrors.Is(err, errors.ErrNotFound) || errors.Message(err) != "Nope #1 does not exist" {
		t.Errorf("Lookup() error = %v", err)
	}

	_, err = store.LookupByID("abc")
	if errors.Message(err) != "No calendar exists with UID : abc" {
		t.Errorf("LookupByID() message = %q", errors.Message(err))
	}
}

func TestDeleteDropsEmptyNameBucket(t *testing.T) {
	store, _ := newTestStore(t)
	a := mustCreate(t, store, "Shared", strPtr("1"))
	mustCreate(t, store, "Shared", strPtr("2"))

	if err := store.Delete("Shared", "1"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := store.LookupByID(a.ID); err == nil {
		t.Error("deleted calendar still reachable by id")
	}
	if _, ok := store.Export().Index["Shared"]; !ok {
		t.Fatal("name bucket removed while a code remains")
	}

	if err := store.Delete("Shared", "2"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, ok := store.Export().Index["Shared"]; ok {
		t.Error("empty name bucket was kept")
	}
	if err := store.Delete("Shared", "2"); errors.KindOf(err) != errors.KindNotFound {
		t.Errorf("Delete() of missing calendar kind = %v", errors.KindOf(err))
	}
	assertConsistent(t, store)
}

func TestListIDsCreatedAfter(t *testing.T) {
	store, _ := newTestStore(t)

	created := []time.Time{
		time.Date(2022, 8, 21, 23, 59, 0, 0, time.Local),
		time.Date(2022, 8, 22, 0, 0, 0, 0, time.Local),
		time.Date(2022, 8, 22, 0, 0, 0, int(time.Millisecond), time.Local),
		time.Date(2022, 9, 1, 12, 0, 0, 0, time.Local),
	}
	var ids []string
	for _, ts := range created {
		ts := ts
		store.now = func() time.Time { return ts }
		ids = append(ids, mustCreate(t, store, "C", nil).ID)
	}

	got := store.ListIDsCreatedAfter(utils.Date{Day: 22, Month: 8, Year: 2022})
	want := map[string]bool{ids[2]: true, ids[3]: true}
	if len(got) != len(want) {
		t.Fatalf("ListIDsCreatedAfter() = %v, want %d ids", got, len(want))
	}
	for _, id := range got {
		if !want[id] {
			t.Errorf("unexpected id %s", id)
		}
	}

	if got := store.ListIDsCreatedAfter(utils.Date{Day: 1, Month: 1, Year: 3000}); len(got) != 0 {
		t.Errorf("future cutoff returned %v", got)
	}
}

func TestSetEntries(t *testing.T) {
	store, _ := newTestStore(t)
	cal := mustCreate(t, store, "Test Calendar", strPtr("1234"))

	t.Run("append keeps order", func(t *testing.T) {
		if err := store.SetEntries(cal.ID, "1-2-2022", []models.Entry{{Text: "a"}}, true); err != nil {
			t.Fatal(err)
		}
		if err := store.SetEntries(cal.ID, "01-02-2022", []models.Entry{{Text: "b"}}, true); err != nil {
			t.Fatal(err)
		}
		got, _ := store.EntriesOnDate(cal.ID, "1-2-2022")
		if len(got) != 2 || got[0].Text != "a" || got[1].Text != "b" {
			t.Errorf("entries = %+v, want [a b]", got)
		}
	})

	t.Run("replace", func(t *testing.T) {
		if err := store.SetEntries(cal.ID, "1-2-2022", []models.Entry{{Text: "c"}}, false); err != nil {
			t.Fatal(err)
		}
		got, _ := store.EntriesOnDate(cal.ID, "1-2-2022")
		if len(got) != 1 || got[0].Text != "c" {
			t.Errorf("entries = %+v, want [c]", got)
		}
	})

	t.Run("empty batch removes date", func(t *testing.T) {
		if err := store.SetEntries(cal.ID, "1-2-2022", nil, false); err != nil {
			t.Fatal(err)
		}
		got, _ := store.EntriesOnDate(cal.ID, "1-2-2022")
		if got == nil || len(got) != 0 {
			t.Errorf("entries = %#v, want empty slice", got)
		}
		stored, _ := store.LookupByID(cal.ID)
		if _, ok := stored.Entries["1-2-2022"]; ok {
			t.Error("empty date key was kept")
		}
	})

	t.Run("invalid input", func(t *testing.T) {
		if err := store.SetEntries(cal.ID, "30-2-2022", []models.Entry{{Text: "x"}}, false); errors.KindOf(err) != errors.KindInvalidDate {
			t.Errorf("invalid date kind = %v", errors.KindOf(err))
		}
		if err := store.SetEntries(cal.ID, "1-2-2022", []models.Entry{{Text: ""}}, false); errors.KindOf(err) != errors.KindInvalidEntry {
			t.Errorf("invalid entry kind = %v", errors.KindOf(err))
		}
		if err := store.SetEntries("missing", "1-2-2022", []models.Entry{{Text: "x"}}, false); errors.KindOf(err) != errors.KindNotFound {
			t.Errorf("missing calendar kind = %v", errors.KindOf(err))
		}
	})
}

func TestReturnedCopiesAreIsolated(t *testing.T) {
	store, _ := newTestStore(t)
	cal := mustCreate(t, store, "C", strPtr("1"))
	batch := []models.Entry{{Text: "a"}}
	if err := store.SetEntries(cal.ID, "1-1-2022", batch, false); err != nil {
		t.Fatal(err)
	}

	batch[0].Text = "changed by caller"
	got, _ := store.LookupByID(cal.ID)
	got.Entries["1-1-2022"][0].Text = "changed by reader"
	delete(got.Entries, "1-1-2022")

	entries, _ := store.EntriesOnDate(cal.ID, "1-1-2022")
	if len(entries) != 1 || entries[0].Text != "a" {
		t.Errorf("store state leaked: %+v", entries)
	}
}

func TestDeleteEntries(t *testing.T) {
	store, _ := newTestStore(t)
	cal := mustCreate(t, store, "C", strPtr("1"))
	seed := func() {
		t.Helper()
		batch := []models.Entry{{Text: "a"}, {Text: "b"}, {Text: "c"}}
		if err := store.SetEntries(cal.ID, "5-5-2022", batch, false); err != nil {
			t.Fatal(err)
		}
	}

	seed()
	if err := store.DeleteEntryAt(cal.ID, "5-5-2022", 1); err != nil {
		t.Fatalf("DeleteEntryAt() error: %v", err)
	}
	got, _ := store.EntriesOnDate(cal.ID, "5-5-2022")
	if len(got) != 2 || got[0].Text != "a" || got[1].Text != "c" {
		t.Errorf("entries = %+v, want [a c]", got)
	}

	if err := store.DeleteEntryAt(cal.ID, "5-5-2022", 2); errors.KindOf(err) != errors.KindIndexOutOfRange {
		t.Errorf("out of range kind = %v", errors.KindOf(err))
	}

	if err := store.SetEntries(cal.ID, "6-5-2022", []models.Entry{{Text: "only"}}, false); err != nil {
		t.Fatal(err)
	}
	if err := store.DeleteEntryAt(cal.ID, "06-05-2022", 0); err != nil {
		t.Fatalf("DeleteEntryAt() error: %v", err)
	}
	stored, _ := store.LookupByID(cal.ID)
	if _, ok := stored.Entries["6-5-2022"]; ok {
		t.Error("deleting the only entry must remove the date")
	}

	if err := store.DeleteEntries(cal.ID, "5-5-2022"); err != nil {
		t.Fatalf("DeleteEntries() error: %v", err)
	}
	if err := store.DeleteEntries(cal.ID, "5-5-2022"); err != nil {
		t.Errorf("DeleteEntries() on missing date error: %v", err)
	}
	if err := store.DeleteEntryAt(cal.ID, "5-5-2022", 9); err != nil {
		t.Errorf("DeleteEntryAt() on missing date error: %v", err)
	}
	stored, _ = store.LookupByID(cal.ID)
	if len(stored.Entries) != 0 {
		t.Errorf("entries = %+v, want none", stored.Entries)
	}
}

func TestPersistenceFailureRollsBack(t *testing.T) {
	store, mem := newTestStore(t)
	cal := mustCreate(t, store, "C", strPtr("1"))
	if err := store.SetEntries(cal.ID, "1-1-2022", []models.Entry{{Text: "a"}}, false); err != nil {
		t.Fatal(err)
	}
	before := store.Export()

	mem.FailSaves = stderrors.New("disk full")

	checks := []struct {
		name string
		op   func() error
	}{
		{"create", func() error { _, err := store.Create("D", nil); return err }},
		{"delete", func() error { return store.Delete("C", "1") }},
		{"set", func() error { return store.SetEntries(cal.ID, "1-1-2022", []models.Entry{{Text: "b"}}, true) }},
		{"delete entries", func() error { return store.DeleteEntries(cal.ID, "1-1-2022") }},
		{"delete entry", func() error { return store.DeleteEntryAt(cal.ID, "1-1-2022", 0) }},
	}
	for _, c := range checks {
		err := c.op()
		if !stderrors.Is(err, errors.ErrPersistence) {
			t.Errorf("%s: error = %v, want persistence", c.name, err)
		}
		if errors.Message(err) != "An error occurred" {
			t.Errorf("%s: message = %q", c.name, errors.Message(err))
		}
	}

	after := store.Export()
	if len(after.Calendars) != len(before.Calendars) || len(after.Index) != len(before.Index) {
		t.Fatalf("state changed after failed saves: %+v", after)
	}
	if got := after.Calendars[cal.ID].Entries["1-1-2022"]; len(got) != 1 || got[0].Text != "a" {
		t.Errorf("entries changed after failed save: %+v", got)
	}
	assertConsistent(t, store)
}

func TestReloadAndRestore(t *testing.T) {
	store, mem := newTestStore(t)
	mustCreate(t, store, "Old", strPtr("1"))

	other, _ := newTestStore(t)
	fresh := mustCreate(t, other, "Fresh", strPtr("9"))

	if err := store.Reload(other.Persister()); err != nil {
		t.Fatalf("Reload() error: %v", err)
	}
	if _, err := store.Lookup("Old", "1"); err == nil {
		t.Error("Reload() kept old calendars")
	}
	if _, err := store.LookupByID(fresh.ID); err != nil {
		t.Errorf("Reload() lost new calendars: %v", err)
	}

	saves := mem.Saves()
	snapshot := models.NewDataset()
	if err := store.Restore(snapshot); err != nil {
		t.Fatalf("Restore() error: %v", err)
	}
	if len(store.ListIDs()) != 0 || mem.Saves() != saves+1 {
		t.Errorf("Restore() did not replace and persist: ids=%v saves=%d", store.ListIDs(), mem.Saves())
	}

	broken := models.NewDataset()
	broken.Index["Ghost"] = map[string]string{"1": "missing"}
	if err := store.Restore(broken); err == nil {
		t.Error("Restore() accepted an inconsistent dataset")
	}
	if err := store.Reload(storage.NewMemoryStore(broken)); err == nil {
		t.Error("Reload() accepted an inconsistent dataset")
	}
}

func TestStoreOverJSONFiles(t *testing.T) {
	dir := t.TempDir()
	persister := storage.NewJSONStore(filepath.Join(dir, "data"))
	if err := persister.Init(); err != nil {
		t.Fatalf("Init() error: %v", err)
	}

	store, err := NewStore(persister)
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	cal := mustCreate(t, store, "Test Calendar", strPtr("1234"))
	if err := store.SetEntries(cal.ID, "22-8-2022", []models.Entry{{Text: "t1", Start: "09:00"}}, false); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewStore(storage.NewJSONStore(filepath.Join(dir, "data")))
	if err != nil {
		t.Fatalf("NewStore() reopen error: %v", err)
	}
	entries, err := reopened.EntriesOnDate(cal.ID, "22-8-2022")
	if err != nil || len(entries) != 1 || entries[0].Start != "09:00" {
		t.Errorf("reopened entries = %+v, %v", entries, err)
	}
}

func TestFailedIndexWriteKeepsDataLoadable(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "data", "calendarData.json")
	mapDir := filepath.Join(dir, "map")
	mapPath := filepath.Join(mapDir, "calendarMap.json")
	persister := storage.NewJSONStoreFiles(dataPath, mapPath)
	if err := persister.Init(); err != nil {
		t.Fatalf("Init() error: %v", err)
	}

	store, err := NewStore(persister)
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	kept := mustCreate(t, store, "Kept", strPtr("1"))

	indexBytes, err := os.ReadFile(mapPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.RemoveAll(mapDir); err != nil {
		t.Fatal(err)
	}

	_, err = store.Create("X", strPtr("1"))
	if errors.KindOf(err) != errors.KindPersistence {
		t.Fatalf("Create() error = %v, want persistence failure", err)
	}
	if ids := store.ListIDs(); len(ids) != 1 || ids[0] != kept.ID {
		t.Errorf("ids after rollback = %v", ids)
	}

	// Bring the index back as it was before the failed write.
	if err := os.MkdirAll(mapDir, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(mapPath, indexBytes, 0600); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewStore(persister)
	if err != nil {
		t.Fatalf("NewStore() after failed write: %v", err)
	}
	if _, err := reopened.Lookup("Kept", "1"); err != nil {
		t.Errorf("Lookup(Kept #1) error: %v", err)
	}
	if _, err := reopened.Lookup("X", "1"); !stderrors.Is(err, errors.ErrNotFound) {
		t.Errorf("Lookup(X #1) error = %v, want not found", err)
	}
	assertConsistent(t, reopened)
}
