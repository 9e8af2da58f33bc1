package server

import (
	"sync"
	"time"

	"github.com/rewired-gh/evoracle/internal/models"
)

// State holds the most recent run for concurrent readers.
type State struct {
	mu        sync.RWMutex
	snapshot  models.Snapshot
	opps      []models.Opportunity
	runID     string
	updatedAt time.Time
}

// NewState returns an empty state.
func NewState() *State {
	return &State{}
}

// Set replaces the current run.
func (s *State) Set(runID string, snap models.Snapshot, opps []models.Opportunity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runID = runID
	s.snapshot = snap
	s.opps = opps
	s.updatedAt = time.Now()
}

// Snapshot returns the current run's output and whether one has been set.
func (s *State) Snapshot() (models.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot, !s.updatedAt.IsZero()
}

// Opportunities returns the current run's opportunities.
func (s *State) Opportunities() []models.Opportunity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opps
}

// Top returns up to k of the current opportunities, best first.
func (s *State) Top(k int) []models.Opportunity {
	opps := s.Opportunities()
	if k > 0 && len(opps) > k {
		opps = opps[:k]
	}
	return opps
}

// RunID returns the ID of the current run, empty before the first Set.
func (s *State) RunID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runID
}
