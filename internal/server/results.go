package server

import (
	"sync"

	"github.com/oncomatch/trialmatch/internal/extract"
)

// ResultStore holds the latest successful matching attempt. Each new run
// unconditionally replaces the stored result; there is one logical writer at
// a time and no history is kept here.
type ResultStore struct {
	mu     sync.RWMutex
	latest *extract.Result
}

func NewResultStore() *ResultStore {
	return &ResultStore{}
}

func (s *ResultStore) Set(res extract.Result) {
	s.mu.Lock()
	s.latest = &res
	s.mu.Unlock()
}

func (s *ResultStore) Latest() (extract.Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return extract.Result{}, false
	}
	return *s.latest, true
}
