package storage

import (
	"sync"

	"github.com/julianstephens/datebook/internal/models"
)

// MemoryStore keeps the dataset in memory. It backs tests and reload
// harnesses; FailSaves makes every Save return the given error.
type MemoryStore struct {
	mu        sync.Mutex
	dataset   models.Dataset
	saves     int
	FailSaves error
}

func NewMemoryStore(initial models.Dataset) *MemoryStore {
	initial.Normalize()
	return &MemoryStore{dataset: initial.Clone()}
}

func (s *MemoryStore) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataset = models.NewDataset()
	return nil
}

func (s *MemoryStore) Load() (models.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dataset.Clone(), nil
}

func (s *MemoryStore) Save(ds models.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSaves != nil {
		return s.FailSaves
	}
	s.dataset = ds.Clone()
	s.saves++
	return nil
}

// Saves returns how many saves succeeded.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) GetConfigPath() string {
	return "memory"
}
