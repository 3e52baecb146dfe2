package trace

import (
	"errors"
	"sort"
	"sync"

	"github.com/junekyoopark/ReUSV/internal/geometry"
)

// DefaultCapacity is the number of runs a store keeps when none is given.
const DefaultCapacity = 64

var (
	// ErrRunNotFound indicates no report is stored under the requested run ID.
	ErrRunNotFound = errors.New("run not found")
	// ErrInvalidReport indicates a report without a run ID was offered to the store.
	ErrInvalidReport = errors.New("report must carry a run id")
)

// Store keeps finished run reports addressable by run ID.
type Store interface {
	Put(report *Report) error
	Get(runID string) (*Report, error)
	List() []Summary
}

// MemoryStore keeps the most recent reports in memory and guards access with
// a RWMutex. When full, the oldest report is evicted.
type MemoryStore struct {
	mu       sync.RWMutex
	capacity int
	order    []string
	reports  map[string]*Report
}

// NewMemoryStore returns a store holding at most capacity reports. A
// non-positive capacity selects DefaultCapacity.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryStore{
		capacity: capacity,
		reports:  make(map[string]*Report, capacity),
	}
}

// Put stores a copy of report, replacing any report with the same run ID.
func (s *MemoryStore) Put(report *Report) error {
	if report == nil || report.RunID == "" {
		return ErrInvalidReport
	}
	stored := cloneReport(report)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reports[report.RunID]; !exists {
		s.order = append(s.order, report.RunID)
	}
	s.reports[report.RunID] = stored

	for len(s.order) > s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.reports, oldest)
	}
	return nil
}

// Get returns a defensive copy of the report stored under runID.
func (s *MemoryStore) Get(runID string) (*Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, ok := s.reports[runID]
	if !ok {
		return nil, ErrRunNotFound
	}
	return cloneReport(report), nil
}

// List summarizes the stored runs, newest first.
func (s *MemoryStore) List() []Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Summary, 0, len(s.reports))
	for _, id := range s.order {
		out = append(out, s.reports[id].Summarize())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Len is the number of stored reports.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reports)
}

// cloneReport copies the slices a caller could mutate. The trace is shared:
// it is never written once the solve that filled it has returned.
func cloneReport(r *Report) *Report {
	out := *r
	out.Bodies = append([]geometry.Body(nil), r.Bodies...)
	out.Initial = clonePositions(r.Initial)
	out.Final = clonePositions(r.Final)
	return &out
}
