// Package nationalid parses and validates 14-digit Egyptian national ID numbers.
//
// Layout (0-indexed):
//
//	0      century (2 = 1900s, 3 = 2000s)
//	1-6    birth date YYMMDD
//	7-8    governorate code
//	9-12   sequence; digit 12 is odd for males, even for females
//	13     check digit
package nationalid

import (
	"strings"
	"time"
)

const Length = 14

type Gender string

const (
	Male    Gender = "male"
	Female  Gender = "female"
	Invalid Gender = "invalid"
)

// Options tunes validation. Checksum enables the Luhn-style check digit test,
// which is a heuristic: the issuing authority does not publish the algorithm.
type Options struct {
	Checksum bool
}

// Result is either valid with every decoded field set, or invalid with at
// least one error and no decoded fields.
type Result struct {
	Valid       bool
	Errors      []*Error
	BirthDate   time.Time
	Governorate string
	Gender      Gender
}

// Messages returns the human readable error messages in the order they were found.
func (r Result) Messages() []string {
	out := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, e.Message)
	}
	return out
}

// BirthDateString formats the birth date as YYYY-MM-DD, or "" when invalid.
func (r Result) BirthDateString() string {
	if !r.Valid {
		return ""
	}
	return r.BirthDate.Format(time.DateOnly)
}

// Parser validates IDs against a clock so the "not in the future" rule is testable.
type Parser struct {
	now func() time.Time
}

func NewParser() *Parser {
	return &Parser{now: time.Now}
}

func NewParserWithClock(now func() time.Time) *Parser {
	return &Parser{now: now}
}

var defaultParser = NewParser()

// Parse validates id with the wall clock.
func Parse(id string, opts Options) Result {
	return defaultParser.Parse(id, opts)
}

// Parse never panics. Format problems short-circuit; every other check runs
// and all failures are reported together.
func (p *Parser) Parse(id string, opts Options) Result {
	raw := strings.TrimSpace(id)

	if errs := checkFormat(raw); len(errs) > 0 {
		return Result{Valid: false, Errors: errs}
	}

	var (
		errs  []*Error
		birth time.Time
	)

	century, ok := centuryBase(raw[0])
	if !ok {
		errs = append(errs, newError(KindCentury, "Century indicator must be 2 or 3."))
	} else {
		year := century + twoDigits(raw[1:3])
		month := twoDigits(raw[3:5])
		day := twoDigits(raw[5:7])
		d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		switch {
		case d.Year() != year || int(d.Month()) != month || d.Day() != day:
			errs = append(errs, newError(KindDate, "Birth date encoded in National ID is invalid."))
		case d.After(today(p.now())):
			errs = append(errs, newError(KindDate, "Birth date cannot be in the future."))
		default:
			birth = d
		}
	}

	gov, known := governorates[raw[7:9]]
	if !known {
		errs = append(errs, newError(KindGovernorate, "Governorate code in National ID is not recognised."))
	}

	gender := genderFromDigit(raw[12])

	if opts.Checksum && CheckDigit(raw[:13]) != int(raw[13]-'0') {
		errs = append(errs, newError(KindChecksum, "Check digit does not match (Luhn heuristic – unofficial validation)."))
	}

	if len(errs) > 0 {
		return Result{Valid: false, Errors: errs}
	}
	return Result{
		Valid:       true,
		BirthDate:   birth,
		Governorate: gov,
		Gender:      gender,
	}
}

// GenderOf only checks the format before reading the gender digit. It is the
// cheap path for form validation where date and governorate are irrelevant.
func GenderOf(id string) Gender {
	raw := strings.TrimSpace(id)
	if len(raw) != Length || !allDigits(raw) {
		return Invalid
	}
	return genderFromDigit(raw[12])
}

// CheckDigit computes the Luhn check digit for a string of ASCII digits:
// every second digit from the right is doubled (minus 9 when above 9).
func CheckDigit(payload string) int {
	sum := 0
	for i := 0; i < len(payload); i++ {
		d := int(payload[len(payload)-1-i] - '0')
		if d < 0 || d > 9 {
			d = 0
		}
		if i%2 == 0 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
	}
	return (10 - sum%10) % 10
}

func checkFormat(raw string) []*Error {
	if raw == "" {
		return []*Error{newError(KindFormat, "National ID is required.")}
	}
	var errs []*Error
	if !allDigits(raw) {
		errs = append(errs, newError(KindFormat, "National ID must contain digits only."))
	}
	if len(raw) != Length {
		errs = append(errs, newError(KindFormat, "National ID must be exactly 14 digits."))
	}
	return errs
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func centuryBase(c byte) (int, bool) {
	switch c {
	case '2':
		return 1900, true
	case '3':
		return 2000, true
	}
	return 0, false
}

func twoDigits(s string) int {
	return int(s[0]-'0')*10 + int(s[1]-'0')
}

func genderFromDigit(c byte) Gender {
	if (c-'0')%2 == 0 {
		return Female
	}
	return Male
}

func today(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
