package bench

import (
	"sort"
	"sync"
)

// ResultStore collects completed results for the duration of a batch. Workers
// append under a single lock; insertion order is completion order, not
// submission order. The store is append-only until the batch finishes.
type ResultStore struct {
	mu      sync.Mutex
	results []InferenceResult
}

// NewResultStore creates a store sized for the expected batch.
func NewResultStore(capacity int) *ResultStore {
	return &ResultStore{results: make([]InferenceResult, 0, capacity)}
}

// Append adds one completed result.
func (s *ResultStore) Append(r InferenceResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, r)
}

// Len returns the number of collected results.
func (s *ResultStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}

// Results returns a copy of the collected results in completion order.
func (s *ResultStore) Results() []InferenceResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]InferenceResult, len(s.results))
	copy(out, s.results)
	return out
}

// SortedByKey returns a copy sorted by the stable work item key. Callers
// needing deterministic ordering use this instead of completion order.
func (s *ResultStore) SortedByKey() []InferenceResult {
	out := s.Results()
	sort.Slice(out, func(i, j int) bool {
		return out[i].Item.Key() < out[j].Item.Key()
	})
	return out
}

// SuccessCount returns the number of success records.
func (s *ResultStore) SuccessCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.results {
		if !r.Failed() {
			n++
		}
	}
	return n
}

// FailureCount returns the number of failure records.
func (s *ResultStore) FailureCount() int {
	return s.Len() - s.SuccessCount()
}

// TotalCost sums the estimated cost across all results.
func (s *ResultStore) TotalCost() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0.0
	for _, r := range s.results {
		total += r.Cost
	}
	return total
}
