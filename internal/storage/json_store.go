package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/datebook/internal/constants"
	"github.com/julianstephens/datebook/internal/models"
)

// JSONStore keeps the dataset in two indented JSON files: the calendars by id
// and the name/code index. Data directories written by earlier releases
// load unchanged.
type JSONStore struct {
	dataPath string
	mapPath  string
}

// NewJSONStore returns a store using the default file names inside dir.
func NewJSONStore(dir string) *JSONStore {
	return NewJSONStoreFiles(
		filepath.Join(dir, constants.CalendarDataFile),
		filepath.Join(dir, constants.CalendarMapFile),
	)
}

// NewJSONStoreFiles returns a store over explicit data and index files.
func NewJSONStoreFiles(dataPath, mapPath string) *JSONStore {
	return &JSONStore{
		dataPath: dataPath,
		mapPath:  mapPath,
	}
}

func (s *JSONStore) Init() error {
	for _, path := range []string{s.dataPath, s.mapPath} {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("storage already initialized at %s", path)
		}
	}

	return s.Save(models.NewDataset())
}

func (s *JSONStore) Load() (models.Dataset, error) {
	ds := models.NewDataset()

	if err := readJSON(s.dataPath, &ds.Calendars); err != nil {
		return models.Dataset{}, err
	}
	if err := readJSON(s.mapPath, &ds.Index); err != nil {
		return models.Dataset{}, err
	}

	ds.Normalize()
	return ds, nil
}

// Save stages both files before replacing either, so a failed write leaves
// the previous pair on disk. If the index cannot be moved into place the
// previous data file is put back.
func (s *JSONStore) Save(ds models.Dataset) error {
	dataTmp, err := stageJSON(s.dataPath, ds.Calendars)
	if err != nil {
		return err
	}
	mapTmp, err := stageJSON(s.mapPath, ds.Index)
	if err != nil {
		os.Remove(dataTmp)
		return err
	}

	previous, readErr := os.ReadFile(s.dataPath)
	if err := os.Rename(dataTmp, s.dataPath); err != nil {
		os.Remove(dataTmp)
		os.Remove(mapTmp)
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := os.Rename(mapTmp, s.mapPath); err != nil {
		os.Remove(mapTmp)
		if restoreErr := s.restoreData(previous, readErr); restoreErr != nil {
			return fmt.Errorf("failed to write storage: %w (restoring %s: %v)", err, filepath.Base(s.dataPath), restoreErr)
		}
		return fmt.Errorf("failed to write storage: %w", err)
	}
	return nil
}

// restoreData puts back the data file content read before a failed save.
// A file that did not exist before is removed again.
func (s *JSONStore) restoreData(previous []byte, readErr error) error {
	if readErr != nil {
		if os.IsNotExist(readErr) {
			return os.Remove(s.dataPath)
		}
		return readErr
	}
	tmp, err := stageFile(s.dataPath, previous)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, s.dataPath); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) GetConfigPath() string {
	return filepath.Dir(s.dataPath)
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("storage not initialized, run 'datebook init' first")
		}
		return fmt.Errorf("failed to read storage: %w", err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// stageJSON writes v to a temporary file beside path and returns its name.
// The caller renames it into place or removes it.
func stageJSON(path string, v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize storage: %w", err)
	}
	return stageFile(path, data)
}

func stageFile(path string, data []byte) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return "", fmt.Errorf("failed to write storage: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write storage: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write storage: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write storage: %w", err)
	}
	return tmpPath, nil
}
