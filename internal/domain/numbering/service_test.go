package numbering

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govdoc/internal/core/apperror"
	"govdoc/internal/core/docnumber"
	"govdoc/internal/core/numerator"
	"govdoc/internal/infrastructure/storage/memory"
)

var issueDate = time.Date(2028, time.March, 14, 10, 0, 0, 0, time.UTC)

func newTestService(store numerator.Store) *Service {
	svc := NewService(ServiceConfig{
		Store:   store,
		Config:  numerator.DefaultConfig("MT"),
		Options: &numerator.Options{MaxRetries: 3, Backoff: time.Millisecond},
		Now:     func() time.Time { return issueDate },
	})
	svc.sleep = func(context.Context, time.Duration) error { return nil }
	return svc
}

func TestAllocate_ConcurrentCallersGetDistinctGapFreeValues(t *testing.T) {
	svc := newTestService(memory.NewSequenceStore())
	ctx := context.Background()
	scope := numerator.Scope("ministry:2028")

	const n = 64
	values := make([]int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := svc.Allocate(ctx, scope)
			assert.NoError(t, err)
			values[i] = v
		}(i)
	}
	wg.Wait()

	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	for i, v := range values {
		assert.Equal(t, int64(i+1), v)
	}

	cur, err := svc.Current(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, int64(n), cur)
}

func TestAssignMinistry_FormatsAndIsIdempotent(t *testing.T) {
	svc := newTestService(memory.NewSequenceStore())
	ctx := context.Background()

	first, err := svc.AssignMinistry(ctx, MinistryRequest{OwnerID: "doc-1", SubSequence: 51})
	require.NoError(t, err)
	assert.Equal(t, "001-MT-038-051", first)

	again, err := svc.AssignMinistry(ctx, MinistryRequest{OwnerID: "doc-1", SubSequence: 51})
	require.NoError(t, err)
	assert.Equal(t, first, again)

	second, err := svc.AssignMinistry(ctx, MinistryRequest{OwnerID: "doc-2", SubSequence: 51})
	require.NoError(t, err)
	assert.Equal(t, "002-MT-038-051", second)

	a, err := svc.Lookup(ctx, "doc-1", docnumber.FamilyMinistry)
	require.NoError(t, err)
	assert.Equal(t, first, a.Number)
}

func TestAssign_ConcurrentSameOwnerGetsOneNumber(t *testing.T) {
	store := memory.NewSequenceStore()
	svc := newTestService(store)
	ctx := context.Background()

	const n = 16
	got := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			num, err := svc.AssignCorrelative(ctx, CorrelativeRequest{OwnerID: "doc-7", Direction: docnumber.DirectionIncoming})
			assert.NoError(t, err)
			got[i] = num
		}(i)
	}
	wg.Wait()

	for _, num := range got {
		assert.Equal(t, "ENT-2028-000001", num)
	}
	cur, err := store.Current(ctx, numerator.CorrelativeScope(docnumber.DirectionIncoming, 2028))
	require.NoError(t, err)
	assert.Equal(t, int64(1), cur, "no gap after concurrent idempotent assignment")
}

func TestAssignCorrelative_FamiliesAndDirectionsDoNotShareCounters(t *testing.T) {
	svc := newTestService(memory.NewSequenceStore())
	ctx := context.Background()

	ent, err := svc.AssignCorrelative(ctx, CorrelativeRequest{OwnerID: "a", Direction: docnumber.DirectionIncoming})
	require.NoError(t, err)
	sal, err := svc.AssignCorrelative(ctx, CorrelativeRequest{OwnerID: "d", Direction: docnumber.DirectionOutgoing})
	require.NoError(t, err)
	ministry, err := svc.AssignMinistry(ctx, MinistryRequest{OwnerID: "b"})
	require.NoError(t, err)

	assert.Equal(t, "ENT-2028-000001", ent)
	assert.Equal(t, "SAL-2028-000001", sal)
	assert.Equal(t, "001-MT-038-000", ministry)

	next, err := svc.AssignCorrelative(ctx, CorrelativeRequest{
		OwnerID:   "c",
		Direction: docnumber.DirectionIncoming,
		Date:      time.Date(2029, time.January, 2, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "ENT-2029-000001", next, "new year restarts the counter")
}

func TestAssignCorrelative_OtherDirectionForSameOwnerConflicts(t *testing.T) {
	store := memory.NewSequenceStore()
	svc := newTestService(store)
	ctx := context.Background()

	ent, err := svc.AssignCorrelative(ctx, CorrelativeRequest{OwnerID: "doc", Direction: docnumber.DirectionIncoming})
	require.NoError(t, err)
	assert.Equal(t, "ENT-2028-000001", ent)

	_, err = svc.AssignCorrelative(ctx, CorrelativeRequest{OwnerID: "doc", Direction: docnumber.DirectionOutgoing})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)
	assert.False(t, appErr.Retryable)

	again, err := svc.AssignCorrelative(ctx, CorrelativeRequest{OwnerID: "doc", Direction: docnumber.DirectionIncoming})
	require.NoError(t, err)
	assert.Equal(t, ent, again)

	cur, err := store.Current(ctx, numerator.CorrelativeScope(docnumber.DirectionOutgoing, 2028))
	require.NoError(t, err)
	assert.Equal(t, int64(0), cur, "rejected request allocates nothing")
}

func TestAssignCorrelative_InvalidDirection(t *testing.T) {
	svc := newTestService(memory.NewSequenceStore())
	_, err := svc.AssignCorrelative(context.Background(), CorrelativeRequest{Direction: "OUT"})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestAssignMinistry_Exhausted(t *testing.T) {
	store := memory.NewSequenceStore()
	svc := newTestService(store)
	ctx := context.Background()

	require.NoError(t, svc.SetNext(ctx, svc.MinistryScope(time.Time{}), 999))

	last, err := svc.AssignMinistry(ctx, MinistryRequest{OwnerID: "x"})
	require.NoError(t, err)
	assert.Equal(t, "999-MT-038-000", last)

	_, err = svc.AssignMinistry(ctx, MinistryRequest{OwnerID: "y"})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeSequenceExhausted, appErr.Code)
	assert.False(t, appErr.Retryable)
}

func TestAllocate_RetriesConflicts(t *testing.T) {
	calls := 0
	store := &numerator.MockStore{
		IncrementFunc: func(ctx context.Context, scope numerator.Scope, limit int64) (int64, error) {
			calls++
			if calls < 3 {
				return 0, fmt.Errorf("busy: %w", numerator.ErrConflict)
			}
			return 42, nil
		},
	}
	svc := newTestService(store)

	v, err := svc.Allocate(context.Background(), "ministry")
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)
	assert.Equal(t, 3, calls)
}

func TestAllocate_RetryBudgetSpent(t *testing.T) {
	calls := 0
	store := &numerator.MockStore{
		IncrementFunc: func(ctx context.Context, scope numerator.Scope, limit int64) (int64, error) {
			calls++
			return 0, errors.New("connection refused")
		},
	}
	svc := newTestService(store)

	_, err := svc.Allocate(context.Background(), "ministry")
	require.Error(t, err)
	assert.True(t, apperror.IsAllocationConflict(err))
	assert.True(t, apperror.IsRetryable(err))
	assert.Equal(t, 4, calls)
}

func TestSetNext_Validation(t *testing.T) {
	svc := newTestService(memory.NewSequenceStore())
	ctx := context.Background()

	err := svc.SetNext(ctx, "ministry", 0)
	require.Error(t, err)

	err = svc.SetNext(ctx, "correlative:ENT:2028", 1_000_001)
	require.Error(t, err)

	require.NoError(t, svc.SetNext(ctx, "correlative:ENT:2028", 10))
	num, err := svc.AssignCorrelative(ctx, CorrelativeRequest{Direction: docnumber.DirectionIncoming})
	require.NoError(t, err)
	assert.Equal(t, "ENT-2028-000010", num)
}

func TestMinistryScope_ResetPolicy(t *testing.T) {
	svc := NewService(ServiceConfig{
		Store:  memory.NewSequenceStore(),
		Config: numerator.Config{MinistryCode: "MT", MinistryReset: numerator.ResetNever},
	})
	assert.Equal(t, numerator.Scope("ministry"), svc.MinistryScope(issueDate))
}
