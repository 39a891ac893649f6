// Package numbering issues ministry and correlative document numbers.
//
// Counters are owned by a numerator.Store; this package only decides which
// scope to advance, formats the value at the edge and retries transient
// store failures.
package numbering

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"govdoc/internal/core/apperror"
	"govdoc/internal/core/docnumber"
	"govdoc/internal/core/numerator"
	"govdoc/pkg/logger"
)

// MinistryRequest asks for a ministry number (NNN-XX-MMY-NNN).
type MinistryRequest struct {
	// OwnerID makes the assignment idempotent. Empty allocates a fresh number
	// every call and records nothing.
	OwnerID string
	// Date selects the month/year code and the counter period. Zero means now.
	Date time.Time
	// SubSequence is the issuing office series printed in the last segment.
	SubSequence int
}

// CorrelativeRequest asks for a correlative number (PREFIX-YYYY-NNNNNN).
type CorrelativeRequest struct {
	OwnerID   string
	Direction docnumber.Direction
	Date      time.Time
}

// Service provides number allocation.
type Service struct {
	store numerator.Store
	cfg   numerator.Config
	opts  numerator.Options
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// ServiceConfig configures the numbering service.
type ServiceConfig struct {
	Store   numerator.Store
	Config  numerator.Config
	Options *numerator.Options // Optional, defaults to numerator.DefaultOptions
	// Now overrides the clock. Optional.
	Now func() time.Time
}

// NewService creates a new numbering service.
func NewService(cfg ServiceConfig) *Service {
	opts := numerator.DefaultOptions()
	if cfg.Options != nil {
		opts = *cfg.Options
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	if cfg.Config.MinistryReset == "" {
		cfg.Config.MinistryReset = numerator.ResetYear
	}
	return &Service{
		store: cfg.Store,
		cfg:   cfg.Config,
		opts:  opts,
		now:   now,
		sleep: sleepCtx,
	}
}

// Allocate returns the next integer of scope. It is unbounded; the
// family-specific methods below enforce the printed field width.
func (s *Service) Allocate(ctx context.Context, scope numerator.Scope) (int64, error) {
	if scope == "" {
		return 0, apperror.NewValidation("scope is required")
	}
	var value int64
	err := s.retry(ctx, scope, func(ctx context.Context) error {
		v, err := s.store.Increment(ctx, scope, 0)
		value = v
		return err
	})
	if err != nil {
		return 0, err
	}
	return value, nil
}

// Current returns the last issued value of scope (0 if never used).
func (s *Service) Current(ctx context.Context, scope numerator.Scope) (int64, error) {
	v, err := s.store.Current(ctx, scope)
	if err != nil {
		return 0, apperror.NewAllocationConflict(string(scope), err)
	}
	return v, nil
}

// SetNext makes the next allocation of scope return next. Migration only.
func (s *Service) SetNext(ctx context.Context, scope numerator.Scope, next int64) error {
	if next < 1 {
		return apperror.NewValidation("next value must be at least 1").WithDetail("next", next)
	}
	if limit := scope.Limit(); limit > 0 && next > limit+1 {
		return apperror.NewSequenceExhausted(string(scope), limit)
	}
	if err := s.store.Set(ctx, scope, next-1); err != nil {
		return apperror.NewInternal(fmt.Errorf("set sequence %s: %w", scope, err))
	}
	logger.Info(ctx, "sequence reset", "scope", scope, "next", next)
	return nil
}

// MinistryScope returns the counter scope used for a ministry number issued at date.
func (s *Service) MinistryScope(date time.Time) numerator.Scope {
	return numerator.MinistryScope(s.cfg.MinistryReset, s.dateOrNow(date))
}

// AssignMinistry returns the ministry number of req.OwnerID, allocating one
// when the owner has none yet.
func (s *Service) AssignMinistry(ctx context.Context, req MinistryRequest) (string, error) {
	date := s.dateOrNow(req.Date)
	code := strings.ToUpper(s.cfg.MinistryCode)

	sample := docnumber.NewMinistryNumber(1, code, date, req.SubSequence)
	if err := sample.Validate(); err != nil {
		return "", apperror.NewValidation(err.Error())
	}

	scope := numerator.MinistryScope(s.cfg.MinistryReset, date)
	render := func(value int64) (string, error) {
		return formatted(docnumber.FormatMinistry(docnumber.NewMinistryNumber(int(value), code, date, req.SubSequence)))
	}
	return s.assign(ctx, req.OwnerID, docnumber.FamilyMinistry, scope, date, render, nil)
}

// AssignCorrelative returns the correlative number of req.OwnerID for the
// given direction, allocating one when the owner has none yet.
func (s *Service) AssignCorrelative(ctx context.Context, req CorrelativeRequest) (string, error) {
	if !req.Direction.Valid() {
		return "", apperror.NewValidation("direction must be ENT or SAL").WithDetail("direction", req.Direction)
	}
	date := s.dateOrNow(req.Date)
	year := date.Year()

	scope := numerator.CorrelativeScope(req.Direction, year)
	render := func(value int64) (string, error) {
		return formatted(docnumber.FormatCorrelative(docnumber.CorrelativeNumber{
			Prefix:   req.Direction,
			Year:     year,
			Sequence: int(value),
		}))
	}
	return s.assign(ctx, req.OwnerID, docnumber.FamilyCorrelative, scope, date, render, sameDirection(req.Direction))
}

// sameDirection rejects an existing correlative number of the other
// direction. A document is either incoming or outgoing for its whole life.
func sameDirection(want docnumber.Direction) func(*numerator.Assignment) error {
	return func(a *numerator.Assignment) error {
		n, ok := docnumber.ParseCorrelative(a.Number)
		if !ok || n.Prefix == want {
			return nil
		}
		return apperror.NewConflict("document already holds a correlative number of the other direction").
			WithDetail("owner_id", a.OwnerID).
			WithDetail("number", a.Number).
			WithDetail("direction", want)
	}
}

// Lookup returns the number already assigned to ownerID, or NotFound.
func (s *Service) Lookup(ctx context.Context, ownerID string, family docnumber.Family) (*numerator.Assignment, error) {
	a, err := s.store.Lookup(ctx, ownerID, family)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("lookup assignment: %w", err))
	}
	if a == nil {
		return nil, apperror.NewNotFound("number assignment", ownerID).WithDetail("family", family.String())
	}
	return a, nil
}

func (s *Service) assign(
	ctx context.Context,
	ownerID string,
	family docnumber.Family,
	scope numerator.Scope,
	date time.Time,
	render numerator.RenderFunc,
	check func(existing *numerator.Assignment) error,
) (string, error) {
	limit := scope.Limit()

	if ownerID == "" {
		var number string
		err := s.retry(ctx, scope, func(ctx context.Context) error {
			v, err := s.store.Increment(ctx, scope, limit)
			if err != nil {
				return err
			}
			number, err = render(v)
			return err
		})
		return number, err
	}

	req := numerator.AssignRequest{
		Scope:   scope,
		OwnerID: ownerID,
		Family:  family,
		Limit:   limit,
		Now:     date,
	}

	var (
		result  *numerator.Assignment
		created bool
	)
	err := s.retry(ctx, scope, func(ctx context.Context) error {
		a, c, err := s.store.Assign(ctx, req, render)
		result, created = a, c
		return err
	})
	if err != nil {
		return "", err
	}

	if !created && check != nil {
		if err := check(result); err != nil {
			return "", err
		}
	}

	if created {
		logger.Info(ctx, "number assigned",
			"owner_id", ownerID,
			"family", family.String(),
			"scope", scope,
			"number", result.Number,
		)
	}
	return result.Number, nil
}

// retry runs op until it succeeds, fails permanently or the retry budget is
// spent. Store errors are mapped to AppErrors here.
func (s *Service) retry(ctx context.Context, scope numerator.Scope, op func(ctx context.Context) error) error {
	backoff := s.opts.Backoff
	var lastErr error

	for attempt := 0; attempt <= s.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := s.sleep(ctx, backoff); err != nil {
				return apperror.NewAllocationConflict(string(scope), errors.Join(lastErr, err))
			}
			backoff *= 2
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, numerator.ErrExhausted) {
			return apperror.NewSequenceExhausted(string(scope), scope.Limit())
		}
		if apperror.IsAppError(err) {
			return err
		}
		if !errors.Is(err, numerator.ErrConflict) && isPermanent(err) {
			return apperror.NewInternal(err).WithDetail("scope", string(scope))
		}

		lastErr = err
		logger.Warn(ctx, "sequence allocation failed, retrying",
			"scope", scope,
			"attempt", attempt+1,
			"error", err,
		)
	}

	return apperror.NewAllocationConflict(string(scope), lastErr)
}

// formatted turns a formatting failure into a validation error so that the
// retry loop gives up immediately.
func formatted(number string, err error) (string, error) {
	if err != nil {
		return "", apperror.NewValidation(err.Error())
	}
	return number, nil
}

func (s *Service) dateOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return s.now()
	}
	return t
}

func isPermanent(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
