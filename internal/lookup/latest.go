package lookup

import (
	"sync"

	"github.com/sells-group/company-lookup/internal/model"
)

// LatestResultStore holds the most recent batch's results so a client that
// connected after the batch finished can still fetch them. One overwrite-
// on-write slot, cleared when the next batch starts; process memory only.
type LatestResultStore struct {
	mu      sync.RWMutex
	results []model.CompanyRecord
	set     bool
}

// Begin clears the slot at the start of a new batch.
func (s *LatestResultStore) Begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = nil
	s.set = false
}

// Put stores a completed batch's results.
func (s *LatestResultStore) Put(results []model.CompanyRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = results
	s.set = true
}

// Latest returns the stored results and whether any batch has completed
// since the last Begin.
func (s *LatestResultStore) Latest() ([]model.CompanyRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.results, s.set
}
