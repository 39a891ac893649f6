// Package numerator provides domain contracts for document auto-numbering.
package numerator

import (
	"fmt"
	"strings"
	"time"

	"govdoc/internal/core/docnumber"
)

// ResetPeriod controls how often a counter restarts from 1.
type ResetPeriod string

const (
	ResetYear  ResetPeriod = "year"
	ResetMonth ResetPeriod = "month"
	ResetNever ResetPeriod = "never"
)

// ParseResetPeriod accepts "year", "month" or "never". Empty means year.
func ParseResetPeriod(s string) (ResetPeriod, error) {
	switch ResetPeriod(s) {
	case "", ResetYear:
		return ResetYear, nil
	case ResetMonth, ResetNever:
		return ResetPeriod(s), nil
	default:
		return "", fmt.Errorf("unknown reset period %q", s)
	}
}

// Options configures retry behaviour of the allocator.
type Options struct {
	// MaxRetries is the number of extra attempts after a retryable store failure.
	MaxRetries int
	// Backoff is the delay before the first retry; it doubles on each attempt.
	Backoff time.Duration
}

// DefaultOptions returns standard options.
func DefaultOptions() Options {
	return Options{
		MaxRetries: 3,
		Backoff:    25 * time.Millisecond,
	}
}

// Config holds numbering configuration.
type Config struct {
	// MinistryCode is the two-letter code printed in ministry numbers (e.g. "MT").
	MinistryCode string

	// MinistryReset is the reset policy of the ministry sequential part.
	MinistryReset ResetPeriod
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(ministryCode string) Config {
	return Config{
		MinistryCode:  ministryCode,
		MinistryReset: ResetYear,
	}
}

// Scope is the key of one independent counter.
type Scope string

// MinistryScope returns the counter key for ministry numbers issued at period.
func MinistryScope(reset ResetPeriod, period time.Time) Scope {
	switch reset {
	case ResetMonth:
		return Scope("ministry:" + period.Format("2006-01"))
	case ResetNever:
		return Scope("ministry")
	default:
		return Scope("ministry:" + period.Format("2006"))
	}
}

// CorrelativeScope returns the counter key for correlative numbers of the
// given direction and year. Correlative numbers always reset yearly.
func CorrelativeScope(prefix docnumber.Direction, year int) Scope {
	return Scope(fmt.Sprintf("correlative:%s:%04d", prefix, year))
}

// Limit returns the largest value a scope may reach before the printed
// field overflows. Zero means unbounded.
func (s Scope) Limit() int64 {
	switch {
	case strings.HasPrefix(string(s), "ministry"):
		return docnumber.MinistrySequentialMax
	case strings.HasPrefix(string(s), "correlative:"):
		return docnumber.CorrelativeSequenceMax
	default:
		return 0
	}
}
