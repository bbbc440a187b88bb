package nationalid

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedParser() *Parser {
	return NewParserWithClock(func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	})
}

func TestParse_Valid(t *testing.T) {
	res := fixedParser().Parse("29805150123451", Options{})

	require.True(t, res.Valid)
	assert.Empty(t, res.Errors)
	assert.Equal(t, "1998-05-15", res.BirthDateString())
	assert.Equal(t, "Cairo", res.Governorate)
	assert.Equal(t, Male, res.Gender)
}

func TestParse_TwoThousandsCentury(t *testing.T) {
	res := fixedParser().Parse("30101012101234", Options{Checksum: true})

	require.True(t, res.Valid, res.Messages())
	assert.Equal(t, "2001-01-01", res.BirthDateString())
	assert.Equal(t, "Giza", res.Governorate)
	assert.Equal(t, Male, res.Gender)
}

func TestParse_TrimsWhitespace(t *testing.T) {
	res := fixedParser().Parse("  29805150123460\n", Options{})

	require.True(t, res.Valid)
	assert.Equal(t, Female, res.Gender)
}

func TestParse_FormatShortCircuits(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"too short", "123", []string{"National ID must be exactly 14 digits."}},
		{"empty", "   ", []string{"National ID is required."}},
		{"letters and length", "29805A", []string{"National ID must contain digits only.", "National ID must be exactly 14 digits."}},
		{"letters", "2980515012345X", []string{"National ID must contain digits only."}},
		{"arabic digits", "٢٩٨٠٥١٥٠١٢٣٤٥١", []string{"National ID must contain digits only.", "National ID must be exactly 14 digits."}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := fixedParser().Parse(tc.in, Options{Checksum: true})

			assert.False(t, res.Valid)
			assert.Equal(t, tc.want, res.Messages())
			for _, e := range res.Errors {
				assert.Equal(t, KindFormat, e.Kind)
			}
			assert.Empty(t, res.Governorate)
			assert.Empty(t, res.Gender)
		})
	}
}

func TestParse_InvalidDate(t *testing.T) {
	res := fixedParser().Parse("29802300112345", Options{})

	assert.False(t, res.Valid)
	assert.Equal(t, []string{"Birth date encoded in National ID is invalid."}, res.Messages())
	assert.True(t, errors.Is(res.Errors[0], &Error{Kind: KindDate}))
}

func TestParse_FutureDate(t *testing.T) {
	res := fixedParser().Parse("32601010112345", Options{})

	assert.False(t, res.Valid)
	assert.Equal(t, []string{"Birth date cannot be in the future."}, res.Messages())
}

func TestParse_BornToday(t *testing.T) {
	res := fixedParser().Parse("32506010112345", Options{})

	assert.True(t, res.Valid, res.Messages())
}

func TestParse_BadCentury(t *testing.T) {
	res := fixedParser().Parse("19805150123451", Options{})

	assert.False(t, res.Valid)
	assert.Equal(t, []string{"Century indicator must be 2 or 3."}, res.Messages())
	assert.Equal(t, KindCentury, res.Errors[0].Kind)
}

func TestParse_UnknownGovernorate(t *testing.T) {
	res := fixedParser().Parse("29805159912345", Options{})

	assert.False(t, res.Valid)
	assert.Equal(t, []string{"Governorate code in National ID is not recognised."}, res.Messages())
	assert.Equal(t, KindGovernorate, res.Errors[0].Kind)
}

func TestParse_AggregatesErrors(t *testing.T) {
	// Feb 30, governorate 99, wrong check digit.
	res := fixedParser().Parse("29802309912340", Options{Checksum: true})

	assert.False(t, res.Valid)
	kinds := make([]Kind, 0, len(res.Errors))
	for _, e := range res.Errors {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []Kind{KindDate, KindGovernorate, KindChecksum}, kinds)
}

func TestParse_Checksum(t *testing.T) {
	p := fixedParser()

	ok := p.Parse("29805150123452", Options{Checksum: true})
	assert.True(t, ok.Valid, ok.Messages())

	bad := p.Parse("29805150123451", Options{Checksum: true})
	assert.False(t, bad.Valid)
	require.Len(t, bad.Errors, 1)
	assert.Equal(t, KindChecksum, bad.Errors[0].Kind)

	// Without checksum mode the same id is fine.
	assert.True(t, p.Parse("29805150123451", Options{}).Valid)
}

func TestCheckDigit(t *testing.T) {
	assert.Equal(t, 2, CheckDigit("2980515012345"))
	assert.Equal(t, 0, CheckDigit("2980515012346"))
	assert.Equal(t, 4, CheckDigit("3010101210123"))
}

func TestGenderOf(t *testing.T) {
	assert.Equal(t, Male, GenderOf("29805150123451"))
	assert.Equal(t, Female, GenderOf("29805150123460"))
	assert.Equal(t, Invalid, GenderOf("123"))
	assert.Equal(t, Invalid, GenderOf("2980515012345X"))
	// Format-only: a bogus governorate still yields a gender.
	assert.Equal(t, Male, GenderOf("29805159912351"))
}

func TestGenderOf_AgreesWithParse(t *testing.T) {
	p := fixedParser()
	for digit := 0; digit <= 9; digit++ {
		id := fmt.Sprintf("29805150123%d%d1", digit%10, digit)
		res := p.Parse(id, Options{})
		require.True(t, res.Valid, id)
		assert.Equal(t, res.Gender, GenderOf(id), id)
	}
}

func TestParse_TotalOverDigitStrings(t *testing.T) {
	p := fixedParser()
	ids := []string{
		"00000000000000", "99999999999999", "20000000000000", "39912319912399",
		"21302290100000", "20002290100000", "31313131313131",
	}
	for _, id := range ids {
		assert.NotPanics(t, func() {
			first := p.Parse(id, Options{Checksum: true})
			second := p.Parse(id, Options{Checksum: true})
			assert.Equal(t, first, second)
			assert.Equal(t, first.Valid, len(first.Errors) == 0)
		}, id)
	}
}
