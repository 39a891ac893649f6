package dto

import (
	"time"

	"govdoc/internal/core/docnumber"
	"govdoc/internal/core/numerator"
)

// AllocateMinistryRequest asks for a ministry number.
type AllocateMinistryRequest struct {
	OwnerID     string    `json:"ownerId"`
	Date        time.Time `json:"date"`
	SubSequence int       `json:"subSequence" binding:"min=0"`
}

// AllocateCorrelativeRequest asks for a correlative number.
type AllocateCorrelativeRequest struct {
	OwnerID   string    `json:"ownerId"`
	Direction string    `json:"direction" binding:"required"`
	Date      time.Time `json:"date"`
}

// SetNextRequest moves a counter. Migration only.
type SetNextRequest struct {
	Scope string `json:"scope" binding:"required"`
	Next  int64  `json:"next" binding:"required"`
}

// NumberResponse carries one issued number.
type NumberResponse struct {
	Number string `json:"number"`
	Family string `json:"family"`
}

// ValidateResponse reports whether a string is a well-formed number.
type ValidateResponse struct {
	Value  string `json:"value"`
	Valid  bool   `json:"valid"`
	Family string `json:"family"`
}

// MinistryParts is the decomposed ministry number.
type MinistryParts struct {
	Sequential    int    `json:"sequential"`
	MinistryCode  string `json:"ministryCode"`
	MonthYearCode int    `json:"monthYearCode"`
	Month         int    `json:"month"`
	YearDigit     int    `json:"yearDigit"`
	SubSequence   int    `json:"subSequence"`
}

// CorrelativeParts is the decomposed correlative number.
type CorrelativeParts struct {
	Prefix   string `json:"prefix"`
	Year     int    `json:"year"`
	Sequence int    `json:"sequence"`
}

// ParseResponse is the decomposition of a number; exactly one part is set.
type ParseResponse struct {
	Value       string            `json:"value"`
	Family      string            `json:"family"`
	Ministry    *MinistryParts    `json:"ministry,omitempty"`
	Correlative *CorrelativeParts `json:"correlative,omitempty"`
}

// FromMinistry converts a parsed ministry number.
func FromMinistry(n docnumber.MinistryNumber) *MinistryParts {
	return &MinistryParts{
		Sequential:    n.Sequential,
		MinistryCode:  n.MinistryCode,
		MonthYearCode: n.MonthYearCode(),
		Month:         n.Month,
		YearDigit:     n.YearDigit,
		SubSequence:   n.SubSequence,
	}
}

// FromCorrelative converts a parsed correlative number.
func FromCorrelative(n docnumber.CorrelativeNumber) *CorrelativeParts {
	return &CorrelativeParts{
		Prefix:   string(n.Prefix),
		Year:     n.Year,
		Sequence: n.Sequence,
	}
}

// AssignmentResponse is a recorded owner → number assignment.
type AssignmentResponse struct {
	OwnerID    string    `json:"ownerId"`
	Family     string    `json:"family"`
	Scope      string    `json:"scope"`
	Value      int64     `json:"value"`
	Number     string    `json:"number"`
	AssignedAt time.Time `json:"assignedAt"`
}

// FromAssignment converts a stored assignment.
func FromAssignment(a *numerator.Assignment) AssignmentResponse {
	return AssignmentResponse{
		OwnerID:    a.OwnerID,
		Family:     a.Family.String(),
		Scope:      string(a.Scope),
		Value:      a.Value,
		Number:     a.Number,
		AssignedAt: a.AssignedAt,
	}
}
