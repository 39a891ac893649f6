package numerator

import (
	"context"
	"errors"
	"time"

	"govdoc/internal/core/docnumber"
)

// Sentinel errors returned (possibly wrapped) by Store implementations.
var (
	// ErrExhausted means the counter already reached the limit passed to the store.
	ErrExhausted = errors.New("numerator: sequence exhausted")
	// ErrConflict means the atomic primitive lost a race or the store was busy.
	// The operation may succeed when retried.
	ErrConflict = errors.New("numerator: allocation conflict")
)

// Assignment binds an issued number to the document that owns it.
type Assignment struct {
	OwnerID    string
	Family     docnumber.Family
	Scope      Scope
	Value      int64
	Number     string
	AssignedAt time.Time
}

// AssignRequest describes one idempotent number assignment.
type AssignRequest struct {
	Scope   Scope
	OwnerID string
	Family  docnumber.Family
	// Limit caps the counter; zero means unbounded.
	Limit int64
	// Now is stored as AssignedAt.
	Now time.Time
}

// RenderFunc formats an allocated counter value into the printed number.
// An error aborts the assignment and leaves the counter untouched.
type RenderFunc func(value int64) (string, error)

// Store is the storage collaborator owning sequence counters.
// Implementations must make Increment and Assign atomic across processes.
type Store interface {
	// Current returns the last issued value for scope, 0 when never used.
	Current(ctx context.Context, scope Scope) (int64, error)

	// Increment advances the counter of scope by one and returns the new value.
	// When limit > 0 and the counter already equals limit, ErrExhausted is
	// returned and nothing changes.
	Increment(ctx context.Context, scope Scope, limit int64) (int64, error)

	// Assign returns the existing assignment of (OwnerID, Family) or, when
	// there is none, increments the scope counter, renders the number and
	// records it in the same transaction. created is false for an existing one.
	Assign(ctx context.Context, req AssignRequest, render RenderFunc) (a *Assignment, created bool, err error)

	// Lookup returns the assignment of (ownerID, family) or nil.
	Lookup(ctx context.Context, ownerID string, family docnumber.Family) (*Assignment, error)

	// Set overwrites the last issued value of scope. Migration only.
	Set(ctx context.Context, scope Scope, value int64) error
}
