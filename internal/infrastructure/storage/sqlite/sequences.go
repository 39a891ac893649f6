package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"govdoc/internal/core/docnumber"
	"govdoc/internal/core/numerator"
)

// querier is satisfied by *sql.DB and *sql.Conn.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SequenceStore implements numerator.Store.
type SequenceStore struct {
	db *sql.DB
}

// Ensure compile-time interface compliance.
var _ numerator.Store = (*SequenceStore)(nil)

const incrementSQL = `
	INSERT INTO sys_sequences (key, current_val)
	VALUES (?, 1)
	ON CONFLICT (key) DO UPDATE SET current_val = current_val + 1
	WHERE ? <= 0 OR current_val < ?
	RETURNING current_val`

// Current implements numerator.Store.
func (s *SequenceStore) Current(ctx context.Context, scope numerator.Scope) (int64, error) {
	var v int64
	err := s.db.QueryRowContext(ctx, `SELECT current_val FROM sys_sequences WHERE key = ?`, string(scope)).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, classify(fmt.Errorf("current %s: %w", scope, err))
	}
	return v, nil
}

// Increment implements numerator.Store. A single UPSERT statement is atomic
// under SQLite's database-level write lock.
func (s *SequenceStore) Increment(ctx context.Context, scope numerator.Scope, limit int64) (int64, error) {
	return increment(ctx, s.db, scope, limit)
}

func increment(ctx context.Context, q querier, scope numerator.Scope, limit int64) (int64, error) {
	var v int64
	err := q.QueryRowContext(ctx, incrementSQL, string(scope), limit, limit).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("scope %s: %w", scope, numerator.ErrExhausted)
	}
	if err != nil {
		return 0, classify(fmt.Errorf("increment %s: %w", scope, err))
	}
	return v, nil
}

// Assign implements numerator.Store. The lookup, increment and insert run in
// one BEGIN IMMEDIATE transaction on a dedicated connection, so concurrent
// processes serialise on the write lock.
func (s *SequenceStore) Assign(ctx context.Context, req numerator.AssignRequest, render numerator.RenderFunc) (*numerator.Assignment, bool, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, false, classify(fmt.Errorf("acquire connection: %w", err))
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return nil, false, classify(fmt.Errorf("begin: %w", err))
	}
	committed := false
	defer func() {
		if !committed {
			_, _ = conn.ExecContext(context.Background(), "ROLLBACK")
		}
	}()

	existing, err := lookup(ctx, conn, req.OwnerID, req.Family)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	value, err := increment(ctx, conn, req.Scope, req.Limit)
	if err != nil {
		return nil, false, err
	}

	number, err := render(value)
	if err != nil {
		return nil, false, err
	}

	assignedAt := req.Now
	if assignedAt.IsZero() {
		assignedAt = time.Now()
	}

	_, err = conn.ExecContext(ctx, `
		INSERT INTO sys_number_assignments (owner_id, family, scope, value, number, assigned_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, req.OwnerID, req.Family.String(), string(req.Scope), value, number, assignedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, false, classify(fmt.Errorf("record assignment: %w", err))
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return nil, false, classify(fmt.Errorf("commit: %w", err))
	}
	committed = true

	return &numerator.Assignment{
		OwnerID:    req.OwnerID,
		Family:     req.Family,
		Scope:      req.Scope,
		Value:      value,
		Number:     number,
		AssignedAt: assignedAt,
	}, true, nil
}

// Lookup implements numerator.Store.
func (s *SequenceStore) Lookup(ctx context.Context, ownerID string, family docnumber.Family) (*numerator.Assignment, error) {
	return lookup(ctx, s.db, ownerID, family)
}

func lookup(ctx context.Context, q querier, ownerID string, family docnumber.Family) (*numerator.Assignment, error) {
	var (
		a          numerator.Assignment
		familyStr  string
		scope      string
		assignedAt string
	)
	err := q.QueryRowContext(ctx, `
		SELECT owner_id, family, scope, value, number, assigned_at
		FROM sys_number_assignments
		WHERE owner_id = ? AND family = ?
	`, ownerID, family.String()).Scan(&a.OwnerID, &familyStr, &scope, &a.Value, &a.Number, &assignedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(fmt.Errorf("lookup assignment: %w", err))
	}

	a.Family = docnumber.ParseFamily(familyStr)
	a.Scope = numerator.Scope(scope)
	if t, err := time.Parse(time.RFC3339Nano, assignedAt); err == nil {
		a.AssignedAt = t
	}
	return &a, nil
}

// Set implements numerator.Store.
func (s *SequenceStore) Set(ctx context.Context, scope numerator.Scope, value int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET current_val = excluded.current_val
	`, string(scope), value)
	if err != nil {
		return fmt.Errorf("set %s: %w", scope, err)
	}
	return nil
}
