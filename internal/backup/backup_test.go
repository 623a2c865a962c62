package backup

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/datebook/internal/calendar"
	"github.com/julianstephens/datebook/internal/models"
	"github.com/julianstephens/datebook/internal/storage"
)

func setupTestStore(t *testing.T) *calendar.Store {
	t.Helper()

	store, err := calendar.NewStore(storage.NewMemoryStore(models.NewDataset()))
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	code := "1234"
	cal, err := store.Create("Test Calendar", &code)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if err := store.SetEntries(cal.ID, "22-8-2022", []models.Entry{{Text: "test5", Start: "09:46", End: "12:00"}}, false); err != nil {
		t.Fatalf("SetEntries() error: %v", err)
	}
	return store
}

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func TestCreateBackup(t *testing.T) {
	store := setupTestStore(t)
	mgr := NewManager(store, filepath.Join(t.TempDir(), "backups"), 3)
	mgr.now = fixedClock(time.Date(2024, 1, 15, 10, 30, 0, 0, time.Local))

	path, err := mgr.CreateBackup()
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}
	if filepath.Base(path) != "datebook-20240115-1030.json" {
		t.Errorf("backup name = %s", filepath.Base(path))
	}

	ds, err := ReadBackup(path)
	if err != nil {
		t.Fatalf("ReadBackup failed: %v", err)
	}
	if len(ds.Calendars) != 1 || ds.Index["Test Calendar"]["1234"] == "" {
		t.Errorf("snapshot = %+v", ds)
	}
}

func TestCreateBackupNameCollisions(t *testing.T) {
	mgr := NewManager(setupTestStore(t), t.TempDir(), 10)
	mgr.now = fixedClock(time.Date(2024, 1, 15, 10, 30, 45, 0, time.Local))

	var names []string
	for i := 0; i < 3; i++ {
		path, err := mgr.CreateBackup()
		if err != nil {
			t.Fatalf("CreateBackup #%d failed: %v", i, err)
		}
		names = append(names, filepath.Base(path))
	}

	want := []string{
		"datebook-20240115-1030.json",
		"datebook-20240115-103045.json",
		"datebook-20240115-103045-1.json",
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("backup %d = %s, want %s", i, names[i], want[i])
		}
	}

	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 3 {
		t.Errorf("expected 3 backups, got %d", len(backups))
	}
}

func TestListBackupsOrderAndFilter(t *testing.T) {
	dir := t.TempDir()
	mgr := NewManager(setupTestStore(t), dir, 10)

	files := []string{
		"datebook-20240101-1200.json",
		"datebook-20240103-1200.json",
		"datebook-20240102-1200.json",
		"datebook-invalid.json",
		"other-20240101-1200.json",
		"datebook-20240104-1200.db",
	}
	for _, name := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0600); err != nil {
			t.Fatal(err)
		}
	}

	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 3 {
		t.Fatalf("expected 3 backups, got %d", len(backups))
	}
	for i, day := range []int{3, 2, 1} {
		if backups[i].Timestamp.Day() != day {
			t.Errorf("backup %d timestamp = %v, want day %d", i, backups[i].Timestamp, day)
		}
	}
}

func TestListBackupsMissingDir(t *testing.T) {
	mgr := NewManager(setupTestStore(t), filepath.Join(t.TempDir(), "absent"), 10)

	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 0 {
		t.Errorf("expected no backups, got %d", len(backups))
	}
}

func TestBackupRotation(t *testing.T) {
	mgr := NewManager(setupTestStore(t), t.TempDir(), 3)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)
	for i := 0; i < 5; i++ {
		mgr.now = fixedClock(start.Add(time.Duration(i) * time.Hour))
		if _, err := mgr.CreateBackup(); err != nil {
			t.Fatalf("CreateBackup #%d failed: %v", i, err)
		}
	}

	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 3 {
		t.Fatalf("expected 3 backups after rotation, got %d", len(backups))
	}
	if backups[2].Timestamp.Hour() != 2 {
		t.Errorf("oldest kept backup hour = %d, want 2", backups[2].Timestamp.Hour())
	}
}

func TestRestoreBackup(t *testing.T) {
	store := setupTestStore(t)
	mgr := NewManager(store, t.TempDir(), 10)
	mgr.now = fixedClock(time.Date(2024, 1, 15, 10, 30, 0, 0, time.Local))

	snapshot, err := mgr.CreateBackup()
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}

	if err := store.Delete("Test Calendar", "1234"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Create("Scratch", nil); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	mgr.now = fixedClock(time.Date(2024, 1, 15, 11, 0, 0, 0, time.Local))
	safety, err := mgr.RestoreBackup(snapshot)
	if err != nil {
		t.Fatalf("RestoreBackup failed: %v", err)
	}

	cal, err := store.Lookup("Test Calendar", "1234")
	if err != nil {
		t.Fatalf("restored calendar missing: %v", err)
	}
	if entries := cal.Entries["22-8-2022"]; len(entries) != 1 || entries[0].Text != "test5" {
		t.Errorf("restored entries = %+v", entries)
	}
	if len(store.ListIDs()) != 1 {
		t.Errorf("restore kept extra calendars: %v", store.ListIDs())
	}

	safetyData, err := ReadBackup(safety)
	if err != nil {
		t.Fatalf("safety snapshot unreadable: %v", err)
	}
	if _, ok := safetyData.Index["Scratch"]; !ok {
		t.Error("safety snapshot does not hold the pre-restore data")
	}
}

func TestRestoreBackupInvalid(t *testing.T) {
	store := setupTestStore(t)
	dir := t.TempDir()
	mgr := NewManager(store, dir, 10)

	if _, err := mgr.RestoreBackup(filepath.Join(dir, "missing.json")); err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("RestoreBackup(missing) error = %v", err)
	}

	corrupt := filepath.Join(dir, "datebook-20240101-0000.json")
	os.WriteFile(corrupt, []byte("not json"), 0600)
	if _, err := mgr.RestoreBackup(corrupt); err == nil {
		t.Error("RestoreBackup should reject corrupt snapshots")
	}

	inconsistent := filepath.Join(dir, "datebook-20240101-0001.json")
	os.WriteFile(inconsistent, []byte(`{"calendars": {}, "index": {"Ghost": {"1": "nope"}}}`), 0600)
	if _, err := mgr.RestoreBackup(inconsistent); err == nil {
		t.Error("RestoreBackup should reject inconsistent snapshots")
	}

	if _, err := store.Lookup("Test Calendar", "1234"); err != nil {
		t.Errorf("failed restores changed the store: %v", err)
	}
}

func TestSchedule(t *testing.T) {
	mgr := NewManager(setupTestStore(t), t.TempDir(), 10)

	c, err := mgr.Schedule("@every 1h")
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	defer c.Stop()
	if len(c.Entries()) != 1 {
		t.Errorf("expected one scheduled job, got %d", len(c.Entries()))
	}

	if _, err := mgr.Schedule("not a schedule"); err == nil {
		t.Error("Schedule should reject invalid specs")
	}
}
