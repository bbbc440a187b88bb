package dto

import "github.com/clearvision/midnight-tickets/internal/service"

type AttendeeRequest struct {
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	NationalID string `json:"nationalId"`
	Gender     string `json:"gender"`
}

type RegisterRequest struct {
	PackageType  string            `json:"packageType"`
	Attendees    []AttendeeRequest `json:"attendees"`
	PaymentNote  string            `json:"paymentNote"`
	ContactEmail string            `json:"contactEmail"`
}

func (r RegisterRequest) ToInput() service.RegisterInput {
	in := service.RegisterInput{
		PackageType:  r.PackageType,
		PaymentNote:  r.PaymentNote,
		ContactEmail: r.ContactEmail,
		Attendees:    make([]service.AttendeeInput, 0, len(r.Attendees)),
	}
	for _, a := range r.Attendees {
		in.Attendees = append(in.Attendees, service.AttendeeInput{
			FullName:   a.FullName,
			Email:      a.Email,
			Phone:      a.Phone,
			NationalID: a.NationalID,
			Gender:     a.Gender,
		})
	}
	return in
}

// VerifyRequest carries either the raw QR content in code or a bare ticketId.
type VerifyRequest struct {
	Code     string `json:"code"`
	TicketID string `json:"ticketId"`
}

type LoginRequest struct {
	APIKey string `json:"apiKey"`
}

type ConfirmPaymentRequest struct {
	TicketID string `json:"ticketId"`
	Note     string `json:"note"`
	Resend   bool   `json:"resend"`
}

type DeclinePaymentRequest struct {
	TicketID string `json:"ticketId"`
	Reason   string `json:"reason"`
}

type CheckInRequest struct {
	NationalID string `json:"nationalId"`
}
