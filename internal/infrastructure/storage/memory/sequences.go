// Package memory provides in-process implementations of the storage
// collaborators. State lives for the lifetime of the process; use it for
// tests, previews and single-shot CLI runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"govdoc/internal/core/docnumber"
	"govdoc/internal/core/numerator"
)

type assignmentKey struct {
	owner  string
	family docnumber.Family
}

// SequenceStore implements numerator.Store under a single mutex.
type SequenceStore struct {
	mu          sync.Mutex
	counters    map[numerator.Scope]int64
	assignments map[assignmentKey]numerator.Assignment
}

// Ensure compile-time interface compliance.
var _ numerator.Store = (*SequenceStore)(nil)

// NewSequenceStore creates an empty store.
func NewSequenceStore() *SequenceStore {
	return &SequenceStore{
		counters:    make(map[numerator.Scope]int64),
		assignments: make(map[assignmentKey]numerator.Assignment),
	}
}

// Current implements numerator.Store.
func (s *SequenceStore) Current(_ context.Context, scope numerator.Scope) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters[scope], nil
}

// Increment implements numerator.Store.
func (s *SequenceStore) Increment(_ context.Context, scope numerator.Scope, limit int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.incrementLocked(scope, limit)
}

func (s *SequenceStore) incrementLocked(scope numerator.Scope, limit int64) (int64, error) {
	cur := s.counters[scope]
	if limit > 0 && cur >= limit {
		return 0, fmt.Errorf("scope %s: %w", scope, numerator.ErrExhausted)
	}
	cur++
	s.counters[scope] = cur
	return cur, nil
}

// Assign implements numerator.Store.
func (s *SequenceStore) Assign(_ context.Context, req numerator.AssignRequest, render numerator.RenderFunc) (*numerator.Assignment, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := assignmentKey{owner: req.OwnerID, family: req.Family}
	if existing, ok := s.assignments[key]; ok {
		return &existing, false, nil
	}

	prev := s.counters[req.Scope]
	value, err := s.incrementLocked(req.Scope, req.Limit)
	if err != nil {
		return nil, false, err
	}

	number, err := render(value)
	if err != nil {
		s.counters[req.Scope] = prev
		return nil, false, fmt.Errorf("render number: %w", err)
	}

	a := numerator.Assignment{
		OwnerID:    req.OwnerID,
		Family:     req.Family,
		Scope:      req.Scope,
		Value:      value,
		Number:     number,
		AssignedAt: req.Now,
	}
	s.assignments[key] = a
	return &a, true, nil
}

// Lookup implements numerator.Store.
func (s *SequenceStore) Lookup(_ context.Context, ownerID string, family docnumber.Family) (*numerator.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.assignments[assignmentKey{owner: ownerID, family: family}]; ok {
		return &a, nil
	}
	return nil, nil
}

// Set implements numerator.Store.
func (s *SequenceStore) Set(_ context.Context, scope numerator.Scope, value int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[scope] = value
	return nil
}
