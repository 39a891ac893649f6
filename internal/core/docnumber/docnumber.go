// Package docnumber composes, decomposes and validates the two document number
// families printed on official documents.
//
// Ministry numbers have the shape NNN-XX-MMY-NNN:
//
//	025-MT-038-051
//	 |   |  | |  `-- sub-sequence (issuing office series)
//	 |   |  | `----- last digit of the year
//	 |   |  `------- month, zero padded
//	 |   `---------- ministry code
//	 `-------------- sequential
//
// Correlative numbers have the shape PREFIX-YYYY-NNNNNN where PREFIX is ENT
// for incoming and SAL for outgoing correspondence.
//
// Parse functions report mismatch with ok=false, never with an error; callers
// decide whether a malformed number is fatal.
package docnumber

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Family identifies a number format.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyMinistry
	FamilyCorrelative
)

func (f Family) String() string {
	switch f {
	case FamilyMinistry:
		return "ministry"
	case FamilyCorrelative:
		return "correlative"
	default:
		return "unknown"
	}
}

// Field widths. Counters must stay below 10^width.
const (
	MinistrySequentialMax  = 999
	MinistrySubSequenceMax = 999
	CorrelativeSequenceMax = 999999
)

var (
	ministryPattern    = regexp.MustCompile(`^(\d{3})-([A-Z]{2})-(0[1-9]|1[0-2])(\d)-(\d{3})$`)
	correlativePattern = regexp.MustCompile(`^(ENT|SAL)-(\d{4})-(\d{6})$`)
	ministryCode       = regexp.MustCompile(`^[A-Z]{2}$`)
)

// ParseFamily is the inverse of Family.String.
func ParseFamily(s string) Family {
	switch s {
	case "ministry":
		return FamilyMinistry
	case "correlative":
		return FamilyCorrelative
	default:
		return FamilyUnknown
	}
}

// Detect reports which family s belongs to, or FamilyUnknown.
func Detect(s string) Family {
	switch {
	case ministryPattern.MatchString(s):
		return FamilyMinistry
	case correlativePattern.MatchString(s):
		return FamilyCorrelative
	default:
		return FamilyUnknown
	}
}

// IsValid reports whether s is a well-formed number of either family.
func IsValid(s string) bool {
	return Detect(s) != FamilyUnknown
}

// --- Ministry numbers ---

// MinistryNumber is the decomposed form of NNN-XX-MMY-NNN.
type MinistryNumber struct {
	Sequential   int
	MinistryCode string
	Month        int
	YearDigit    int
	SubSequence  int
}

// MonthYearCode returns the middle segment value (MM*10 + last year digit).
func (n MinistryNumber) MonthYearCode() int {
	return n.Month*10 + n.YearDigit
}

// Validate checks every part against the fixed widths of the format.
func (n MinistryNumber) Validate() error {
	if n.Sequential < 0 || n.Sequential > MinistrySequentialMax {
		return fmt.Errorf("sequential %d out of range 0-%d", n.Sequential, MinistrySequentialMax)
	}
	if !ministryCode.MatchString(n.MinistryCode) {
		return fmt.Errorf("ministry code %q must be two uppercase letters", n.MinistryCode)
	}
	if n.Month < 1 || n.Month > 12 {
		return fmt.Errorf("month %d out of range", n.Month)
	}
	if n.YearDigit < 0 || n.YearDigit > 9 {
		return fmt.Errorf("year digit %d out of range", n.YearDigit)
	}
	if n.SubSequence < 0 || n.SubSequence > MinistrySubSequenceMax {
		return fmt.Errorf("sub-sequence %d out of range 0-%d", n.SubSequence, MinistrySubSequenceMax)
	}
	return nil
}

// String formats the number without validation.
func (n MinistryNumber) String() string {
	return fmt.Sprintf("%03d-%s-%03d-%03d", n.Sequential, n.MinistryCode, n.MonthYearCode(), n.SubSequence)
}

// FormatMinistry validates n and returns its text form.
func FormatMinistry(n MinistryNumber) (string, error) {
	if err := n.Validate(); err != nil {
		return "", err
	}
	return n.String(), nil
}

// ParseMinistry decomposes s. ok is false when s does not match the format.
func ParseMinistry(s string) (MinistryNumber, bool) {
	m := ministryPattern.FindStringSubmatch(s)
	if m == nil {
		return MinistryNumber{}, false
	}
	return MinistryNumber{
		Sequential:   atoi(m[1]),
		MinistryCode: m[2],
		Month:        atoi(m[3]),
		YearDigit:    atoi(m[4]),
		SubSequence:  atoi(m[5]),
	}, true
}

// IsValidMinistry reports whether s is a well-formed ministry number.
func IsValidMinistry(s string) bool {
	return ministryPattern.MatchString(s)
}

// MonthYearCode returns the middle segment for a document issued at t.
func MonthYearCode(t time.Time) int {
	return int(t.Month())*10 + t.Year()%10
}

// NewMinistryNumber builds the parts for a document issued at date.
func NewMinistryNumber(sequential int, code string, date time.Time, subSequence int) MinistryNumber {
	return MinistryNumber{
		Sequential:   sequential,
		MinistryCode: code,
		Month:        int(date.Month()),
		YearDigit:    date.Year() % 10,
		SubSequence:  subSequence,
	}
}

// --- Correlative numbers ---

// Direction selects the correlative prefix.
type Direction string

const (
	DirectionIncoming Direction = "ENT"
	DirectionOutgoing Direction = "SAL"
)

// Valid reports whether d is one of the known prefixes.
func (d Direction) Valid() bool {
	return d == DirectionIncoming || d == DirectionOutgoing
}

// CorrelativeNumber is the decomposed form of PREFIX-YYYY-NNNNNN.
type CorrelativeNumber struct {
	Prefix   Direction
	Year     int
	Sequence int
}

// Validate checks every part against the fixed widths of the format.
func (n CorrelativeNumber) Validate() error {
	if !n.Prefix.Valid() {
		return fmt.Errorf("prefix %q must be ENT or SAL", n.Prefix)
	}
	if n.Year < 1000 || n.Year > 9999 {
		return fmt.Errorf("year %d must have four digits", n.Year)
	}
	if n.Sequence < 0 || n.Sequence > CorrelativeSequenceMax {
		return fmt.Errorf("sequence %d out of range 0-%d", n.Sequence, CorrelativeSequenceMax)
	}
	return nil
}

// String formats the number without validation.
func (n CorrelativeNumber) String() string {
	return fmt.Sprintf("%s-%04d-%06d", n.Prefix, n.Year, n.Sequence)
}

// FormatCorrelative validates n and returns its text form.
func FormatCorrelative(n CorrelativeNumber) (string, error) {
	if err := n.Validate(); err != nil {
		return "", err
	}
	return n.String(), nil
}

// ParseCorrelative decomposes s. ok is false when s does not match the format.
func ParseCorrelative(s string) (CorrelativeNumber, bool) {
	m := correlativePattern.FindStringSubmatch(s)
	if m == nil {
		return CorrelativeNumber{}, false
	}
	return CorrelativeNumber{
		Prefix:   Direction(m[1]),
		Year:     atoi(m[2]),
		Sequence: atoi(m[3]),
	}, true
}

// IsValidCorrelative reports whether s is a well-formed correlative number.
func IsValidCorrelative(s string) bool {
	return correlativePattern.MatchString(s)
}

// atoi is only called on regexp groups made of digits.
func atoi(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}
