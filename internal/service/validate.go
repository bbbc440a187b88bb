package service

import (
	"fmt"
	"strings"

	"github.com/clearvision/midnight-tickets/internal/models"
	"github.com/clearvision/midnight-tickets/internal/nationalid"
)

type AttendeeInput struct {
	FullName   string
	Email      string
	Phone      string
	NationalID string
	Gender     string
}

type RegisterInput struct {
	PackageType  string
	Attendees    []AttendeeInput
	PaymentNote  string
	ContactEmail string
}

// buildAttendees runs every registration rule in memory and returns the
// cleaned attendee rows. Nothing here touches storage.
func (s *ticketService) buildAttendees(pkg models.PackageType, inputs []AttendeeInput) ([]models.Attendee, error) {
	switch want := pkg.Attendees(); {
	case want == 0:
		return nil, ErrInvalidPackageType
	case len(inputs) == want:
	case pkg == models.PackageSingle:
		return nil, ErrSingleAttendeeCount
	default:
		return nil, ErrCoupleAttendeeCount
	}

	attendees := make([]models.Attendee, 0, len(inputs))
	for i, in := range inputs {
		n := i + 1
		a := models.Attendee{
			Position:   n,
			FullName:   cleanName(in.FullName),
			Email:      cleanEmail(in.Email),
			Phone:      cleanPhone(in.Phone),
			NationalID: strings.TrimSpace(in.NationalID),
		}
		if a.FullName == "" || a.Email == "" || a.Phone == "" || a.NationalID == "" {
			return nil, &Error{Kind: KindValidation, Message: fmt.Sprintf("Attendee #%d is missing required fields.", n)}
		}

		gender := nationalid.GenderOf(a.NationalID)
		if gender == nationalid.Invalid {
			return nil, &Error{Kind: KindFormat, Message: fmt.Sprintf("Attendee #%d national ID must be 14 digits.", n)}
		}

		if s.opts.StrictIDValidation {
			res := s.parser.Parse(a.NationalID, nationalid.Options{Checksum: s.opts.IDChecksum})
			if !res.Valid {
				first := res.Errors[0]
				return nil, &Error{
					Kind:    Kind(first.Kind),
					Message: fmt.Sprintf("Attendee #%d: %s", n, first.Message),
					Err:     first,
				}
			}
		}

		if pkg == models.PackageSingle {
			declared := strings.ToLower(strings.TrimSpace(in.Gender))
			if declared != "" && declared != string(gender) {
				return nil, ErrGenderMismatch
			}
		}

		a.Gender = string(gender)
		attendees = append(attendees, a)
	}

	if pkg == models.PackageCouple {
		first, second := attendees[0], attendees[1]
		// A shared national ID always shares the gender digit too, so this
		// also rejects the same person registered twice.
		if first.Gender == second.Gender {
			return nil, ErrCoupleGenders
		}
		if first.Email == second.Email {
			return nil, ErrDuplicateEmail
		}
		if first.Phone == second.Phone {
			return nil, ErrDuplicatePhone
		}
	}
	return attendees, nil
}

func cleanName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func cleanEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func cleanPhone(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '+' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func dedupe(values ...string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
