package docnumber

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMinistry(t *testing.T) {
	n, ok := ParseMinistry("025-MT-038-051")
	require.True(t, ok)
	assert.Equal(t, MinistryNumber{
		Sequential:   25,
		MinistryCode: "MT",
		Month:        3,
		YearDigit:    8,
		SubSequence:  51,
	}, n)
	assert.Equal(t, 38, n.MonthYearCode())
}

func TestIsValidMinistry(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"025-MT-038-051", true},
		{"001-AB-125-000", true},
		{"12-MT-038-051", false},
		{"025-mt-038-051", false},
		{"025-MT-138-051", false},
		{"025-MT-008-051", false},
		{"025-MT-038-51", false},
		{" 025-MT-038-051", false},
		{"025-MT-038-051\n", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidMinistry(tt.in))
		})
	}
}

func TestFormatMinistry_RoundTrip(t *testing.T) {
	parts := []MinistryNumber{
		{Sequential: 0, MinistryCode: "MT", Month: 1, YearDigit: 0, SubSequence: 0},
		{Sequential: 7, MinistryCode: "SA", Month: 12, YearDigit: 9, SubSequence: 999},
		{Sequential: 999, MinistryCode: "ED", Month: 6, YearDigit: 5, SubSequence: 1},
	}
	for _, p := range parts {
		s, err := FormatMinistry(p)
		require.NoError(t, err)
		assert.True(t, IsValidMinistry(s), s)

		back, ok := ParseMinistry(s)
		require.True(t, ok)
		assert.Equal(t, p, back)
	}
}

func TestFormatMinistry_RejectsOutOfRange(t *testing.T) {
	bad := []MinistryNumber{
		{Sequential: 1000, MinistryCode: "MT", Month: 3, YearDigit: 8},
		{Sequential: 1, MinistryCode: "mt", Month: 3, YearDigit: 8},
		{Sequential: 1, MinistryCode: "MTX", Month: 3, YearDigit: 8},
		{Sequential: 1, MinistryCode: "MT", Month: 13, YearDigit: 8},
		{Sequential: 1, MinistryCode: "MT", Month: 3, YearDigit: 10},
		{Sequential: 1, MinistryCode: "MT", Month: 3, YearDigit: 8, SubSequence: -1},
	}
	for _, p := range bad {
		_, err := FormatMinistry(p)
		assert.Error(t, err, "%+v", p)
	}
}

func TestNewMinistryNumber(t *testing.T) {
	date := time.Date(2028, time.March, 14, 0, 0, 0, 0, time.UTC)
	n := NewMinistryNumber(25, "MT", date, 51)
	assert.Equal(t, "025-MT-038-051", n.String())
	assert.Equal(t, 38, MonthYearCode(date))
	assert.Equal(t, 125, MonthYearCode(time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC)))
}

func TestCorrelative_RoundTrip(t *testing.T) {
	n := CorrelativeNumber{Prefix: DirectionOutgoing, Year: 2025, Sequence: 42}
	s, err := FormatCorrelative(n)
	require.NoError(t, err)
	assert.Equal(t, "SAL-2025-000042", s)

	back, ok := ParseCorrelative(s)
	require.True(t, ok)
	assert.Equal(t, n, back)
}

func TestIsValidCorrelative(t *testing.T) {
	assert.True(t, IsValidCorrelative("ENT-2024-000001"))
	assert.True(t, IsValidCorrelative("SAL-2025-999999"))
	assert.False(t, IsValidCorrelative("OUT-2025-000001"))
	assert.False(t, IsValidCorrelative("ENT-25-000001"))
	assert.False(t, IsValidCorrelative("ENT-2025-1"))
	assert.False(t, IsValidCorrelative("ent-2025-000001"))
}

func TestFormatCorrelative_RejectsOutOfRange(t *testing.T) {
	_, err := FormatCorrelative(CorrelativeNumber{Prefix: "XXX", Year: 2025, Sequence: 1})
	assert.Error(t, err)
	_, err = FormatCorrelative(CorrelativeNumber{Prefix: DirectionIncoming, Year: 25, Sequence: 1})
	assert.Error(t, err)
	_, err = FormatCorrelative(CorrelativeNumber{Prefix: DirectionIncoming, Year: 2025, Sequence: 1000000})
	assert.Error(t, err)
}

func TestDetect(t *testing.T) {
	assert.Equal(t, FamilyMinistry, Detect("025-MT-038-051"))
	assert.Equal(t, FamilyCorrelative, Detect("ENT-2024-000001"))
	assert.Equal(t, FamilyUnknown, Detect("hello"))
	assert.False(t, IsValid("hello"))
	assert.Equal(t, "correlative", FamilyCorrelative.String())
}
