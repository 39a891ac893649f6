package numerator

import (
	"context"

	"govdoc/internal/core/docnumber"
)

// MockStore is a test implementation of Store.
// Unset functions fall back to predictable defaults.
type MockStore struct {
	CurrentFunc   func(ctx context.Context, scope Scope) (int64, error)
	IncrementFunc func(ctx context.Context, scope Scope, limit int64) (int64, error)
	AssignFunc    func(ctx context.Context, req AssignRequest, render RenderFunc) (*Assignment, bool, error)
	LookupFunc    func(ctx context.Context, ownerID string, family docnumber.Family) (*Assignment, error)
	SetFunc       func(ctx context.Context, scope Scope, value int64) error
}

// Current implements Store.
func (m *MockStore) Current(ctx context.Context, scope Scope) (int64, error) {
	if m.CurrentFunc != nil {
		return m.CurrentFunc(ctx, scope)
	}
	return 0, nil
}

// Increment implements Store.
func (m *MockStore) Increment(ctx context.Context, scope Scope, limit int64) (int64, error) {
	if m.IncrementFunc != nil {
		return m.IncrementFunc(ctx, scope, limit)
	}
	return 1, nil
}

// Assign implements Store.
func (m *MockStore) Assign(ctx context.Context, req AssignRequest, render RenderFunc) (*Assignment, bool, error) {
	if m.AssignFunc != nil {
		return m.AssignFunc(ctx, req, render)
	}
	number, err := render(1)
	if err != nil {
		return nil, false, err
	}
	return &Assignment{
		OwnerID:    req.OwnerID,
		Family:     req.Family,
		Scope:      req.Scope,
		Value:      1,
		Number:     number,
		AssignedAt: req.Now,
	}, true, nil
}

// Lookup implements Store.
func (m *MockStore) Lookup(ctx context.Context, ownerID string, family docnumber.Family) (*Assignment, error) {
	if m.LookupFunc != nil {
		return m.LookupFunc(ctx, ownerID, family)
	}
	return nil, nil
}

// Set implements Store.
func (m *MockStore) Set(ctx context.Context, scope Scope, value int64) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, scope, value)
	}
	return nil
}

// Ensure compile-time interface compliance.
var _ Store = (*MockStore)(nil)
