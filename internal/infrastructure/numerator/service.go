// Package numerator provides the PostgreSQL implementation of numerator.Store.
// Counters advance with a single INSERT ... ON CONFLICT DO UPDATE ... RETURNING,
// which PostgreSQL executes atomically under row lock.
package numerator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"govdoc/internal/core/docnumber"
	corenumerator "govdoc/internal/core/numerator"
	"govdoc/internal/infrastructure/storage/postgres"
)

// Querier interface for database operations.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxRunner runs fn inside a transaction carried by ctx.
type TxRunner interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store implements corenumerator.Store on the sys_sequences and
// sys_number_assignments tables.
type Store struct {
	tx         TxRunner
	getQuerier func(ctx context.Context) Querier
}

// Ensure compile-time interface compliance.
var _ corenumerator.Store = (*Store)(nil)

// New creates a store bound to the transaction manager. Queries join the
// transaction in ctx when there is one.
func New(txm *postgres.TxManager) *Store {
	return &Store{
		tx:         txm,
		getQuerier: func(ctx context.Context) Querier { return txm.GetQuerier(ctx) },
	}
}

// NewWithQuerier creates a store over a static querier without transaction
// support. Use for testing.
func NewWithQuerier(q Querier) *Store {
	return &Store{
		tx:         directRunner{},
		getQuerier: func(context.Context) Querier { return q },
	}
}

type directRunner struct{}

func (directRunner) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

const (
	incrementSQL = `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, 1)
		ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + 1
		WHERE $2::bigint <= 0 OR sys_sequences.current_val < $2::bigint
		RETURNING current_val`

	currentSQL = `SELECT current_val FROM sys_sequences WHERE key = $1`

	setSQL = `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET current_val = $2
		RETURNING current_val`

	lookupSQL = `
		SELECT owner_id, family, scope, value, number, assigned_at
		FROM sys_number_assignments
		WHERE owner_id = $1 AND family = $2`

	recordSQL = `
		INSERT INTO sys_number_assignments (owner_id, family, scope, value, number, assigned_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (owner_id, family) DO NOTHING
		RETURNING owner_id`
)

// errLostRace aborts an assignment transaction when a concurrent caller
// recorded the same owner first.
var errLostRace = errors.New("assignment recorded concurrently")

// Current implements corenumerator.Store.
func (s *Store) Current(ctx context.Context, scope corenumerator.Scope) (int64, error) {
	var v int64
	err := s.getQuerier(ctx).QueryRow(ctx, currentSQL, string(scope)).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, classify(fmt.Errorf("current %s: %w", scope, err))
	}
	return v, nil
}

// Increment implements corenumerator.Store.
func (s *Store) Increment(ctx context.Context, scope corenumerator.Scope, limit int64) (int64, error) {
	var v int64
	err := s.getQuerier(ctx).QueryRow(ctx, incrementSQL, string(scope), limit).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		// The conflict branch was filtered by the WHERE clause.
		return 0, fmt.Errorf("scope %s: %w", scope, corenumerator.ErrExhausted)
	}
	if err != nil {
		return 0, classify(fmt.Errorf("increment %s: %w", scope, err))
	}
	return v, nil
}

// Assign implements corenumerator.Store.
func (s *Store) Assign(ctx context.Context, req corenumerator.AssignRequest, render corenumerator.RenderFunc) (*corenumerator.Assignment, bool, error) {
	var (
		result  *corenumerator.Assignment
		created bool
	)

	err := s.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.Lookup(ctx, req.OwnerID, req.Family)
		if err != nil {
			return err
		}
		if existing != nil {
			result = existing
			return nil
		}

		value, err := s.Increment(ctx, req.Scope, req.Limit)
		if err != nil {
			return err
		}

		number, err := render(value)
		if err != nil {
			return err
		}

		assignedAt := req.Now
		if assignedAt.IsZero() {
			assignedAt = time.Now()
		}

		var owner string
		err = s.getQuerier(ctx).QueryRow(ctx, recordSQL,
			req.OwnerID, req.Family.String(), string(req.Scope), value, number, assignedAt.UTC(),
		).Scan(&owner)
		if errors.Is(err, pgx.ErrNoRows) {
			return errLostRace
		}
		if err != nil {
			return classify(fmt.Errorf("record assignment: %w", err))
		}

		result = &corenumerator.Assignment{
			OwnerID:    req.OwnerID,
			Family:     req.Family,
			Scope:      req.Scope,
			Value:      value,
			Number:     number,
			AssignedAt: assignedAt,
		}
		created = true
		return nil
	})

	if errors.Is(err, errLostRace) {
		// Rolled back together with the increment; return the winner's number.
		existing, lookupErr := s.Lookup(ctx, req.OwnerID, req.Family)
		if lookupErr != nil {
			return nil, false, lookupErr
		}
		if existing == nil {
			return nil, false, fmt.Errorf("owner %s: %w", req.OwnerID, corenumerator.ErrConflict)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return result, created, nil
}

// Lookup implements corenumerator.Store.
func (s *Store) Lookup(ctx context.Context, ownerID string, family docnumber.Family) (*corenumerator.Assignment, error) {
	var (
		a         corenumerator.Assignment
		familyStr string
		scope     string
	)
	err := s.getQuerier(ctx).QueryRow(ctx, lookupSQL, ownerID, family.String()).
		Scan(&a.OwnerID, &familyStr, &scope, &a.Value, &a.Number, &a.AssignedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(fmt.Errorf("lookup assignment: %w", err))
	}
	a.Family = docnumber.ParseFamily(familyStr)
	a.Scope = corenumerator.Scope(scope)
	return &a, nil
}

// Set implements corenumerator.Store.
func (s *Store) Set(ctx context.Context, scope corenumerator.Scope, value int64) error {
	var result int64
	err := s.getQuerier(ctx).QueryRow(ctx, setSQL, string(scope), value).Scan(&result)
	if err != nil {
		return fmt.Errorf("set %s: %w", scope, err)
	}
	return nil
}

// classify marks transient database failures with corenumerator.ErrConflict.
func classify(err error) error {
	if postgres.IsTransient(err) {
		return fmt.Errorf("%w: %w", corenumerator.ErrConflict, err)
	}
	return err
}
