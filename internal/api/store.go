package api

import (
	"sync"

	"github.com/samcharles93/dirac/internal/check"
)

// ReportStore keeps the most recent check reports by id. When full, the
// oldest report is evicted.
type ReportStore struct {
	mu      sync.Mutex
	limit   int
	order   []string
	reports map[string]*check.Report
}

const defaultStoreLimit = 128

func NewReportStore(limit int) *ReportStore {
	if limit <= 0 {
		limit = defaultStoreLimit
	}
	return &ReportStore{limit: limit, reports: make(map[string]*check.Report)}
}

func (s *ReportStore) Put(r *check.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[r.ID]; !ok {
		s.order = append(s.order, r.ID)
	}
	s.reports[r.ID] = r
	for len(s.order) > s.limit {
		delete(s.reports, s.order[0])
		s.order = s.order[1:]
	}
}

func (s *ReportStore) Get(id string) (*check.Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	return r, ok
}

func (s *ReportStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[id]; !ok {
		return false
	}
	delete(s.reports, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *ReportStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reports)
}
