package service

import (
	"fmt"

	"github.com/clearvision/midnight-tickets/internal/nationalid"
)

type Kind string

const (
	KindFormat      = Kind(nationalid.KindFormat)
	KindCentury     = Kind(nationalid.KindCentury)
	KindDate        = Kind(nationalid.KindDate)
	KindGovernorate = Kind(nationalid.KindGovernorate)
	KindChecksum    = Kind(nationalid.KindChecksum)

	KindValidation             Kind = "validation"
	KindGenderMismatch         Kind = "gender_mismatch"
	KindDuplicateAttendeeField Kind = "duplicate_attendee_field"
	KindDuplicateRegistration  Kind = "duplicate_registration"
	KindInvalidPackage         Kind = "invalid_package_composition"
	KindInvalidState           Kind = "invalid_state"
	KindNotFound               Kind = "not_found"

	KindPersistence   Kind = "persistence"
	KindEmailDelivery Kind = "email_delivery"
)

// IsValidation reports whether the kind is caused by bad client input.
func (k Kind) IsValidation() bool {
	switch k {
	case KindFormat, KindCentury, KindDate, KindGovernorate, KindChecksum,
		KindValidation, KindGenderMismatch, KindDuplicateAttendeeField, KindInvalidPackage:
		return true
	}
	return false
}

// Error is the error type returned by TicketService. Message is safe to show
// to end users; Err carries the underlying cause, if any.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on kind, and on message too when the target has one. That lets
// callers test for a whole kind with &Error{Kind: KindInvalidState} or for
// one specific sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Message == "" || t.Message == e.Message
}

var (
	ErrNotFound              = &Error{Kind: KindNotFound, Message: "Ticket not found."}
	ErrTicketIDRequired      = &Error{Kind: KindValidation, Message: "ticketId is required."}
	ErrInvalidPackageType    = &Error{Kind: KindInvalidPackage, Message: "Invalid package type."}
	ErrSingleAttendeeCount   = &Error{Kind: KindInvalidPackage, Message: "Single package requires exactly one attendee."}
	ErrCoupleAttendeeCount   = &Error{Kind: KindInvalidPackage, Message: "Couple package requires exactly two attendees."}
	ErrCoupleGenders         = &Error{Kind: KindInvalidPackage, Message: "Couples package requires one male and one female."}
	ErrGenderMismatch        = &Error{Kind: KindGenderMismatch, Message: "Single package national ID does not match selected gender."}
	ErrDuplicateEmail        = &Error{Kind: KindDuplicateAttendeeField, Message: "Each attendee must use a unique email address."}
	ErrDuplicatePhone        = &Error{Kind: KindDuplicateAttendeeField, Message: "Each attendee must use a unique phone number."}
	ErrDuplicateRegistration = &Error{Kind: KindDuplicateRegistration, Message: "A ticket already exists for one of the national IDs."}
	ErrTicketUsed            = &Error{Kind: KindInvalidState, Message: "Ticket has already been used."}
	ErrAlreadyCheckedIn      = &Error{Kind: KindInvalidState, Message: "Ticket already checked in"}
	ErrNotValidForCheckIn    = &Error{Kind: KindInvalidState, Message: "Ticket is not valid for check-in"}
	ErrAttendeeMismatch      = &Error{Kind: KindValidation, Message: "National ID does not belong to this ticket."}
)

func persistenceError(err error) *Error {
	return &Error{Kind: KindPersistence, Message: "Storage operation failed.", Err: err}
}

// emailDeliveryError wraps the last failed send. The transition it followed
// still stands.
func emailDeliveryError(err error) *Error {
	return &Error{Kind: KindEmailDelivery, Message: "Email delivery failed.", Err: err}
}
