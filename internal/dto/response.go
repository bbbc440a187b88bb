package dto

import (
	"time"

	"github.com/clearvision/midnight-tickets/internal/models"
	"github.com/clearvision/midnight-tickets/internal/service"
)

type ErrorResponse struct {
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
}

type RegisterResponse struct {
	TicketID string              `json:"ticketId"`
	Status   models.TicketStatus `json:"status"`
}

type AttendeeResponse struct {
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	NationalID string `json:"nationalId"`
	Gender     string `json:"gender"`
}

type TicketResponse struct {
	TicketID       string                `json:"ticketId"`
	PackageType    models.PackageType    `json:"packageType"`
	Status         models.TicketStatus   `json:"status"`
	ContactEmail   string                `json:"contactEmail"`
	ContactEmails  []string              `json:"contactEmails"`
	PaymentNote    string                `json:"paymentNote,omitempty"`
	Attendees      []AttendeeResponse    `json:"attendees"`
	Payment        models.PaymentInfo    `json:"payment"`
	PaymentHistory []models.PaymentEvent `json:"paymentHistory"`
	QRCode         string                `json:"qrCode,omitempty"`
	CheckedIn      bool                  `json:"checkedIn"`
	CheckedInAt    *time.Time            `json:"checkedInAt,omitempty"`
	CreatedAt      time.Time             `json:"createdAt"`
	UpdatedAt      time.Time             `json:"updatedAt"`
}

type TicketListResponse struct {
	Tickets []TicketResponse `json:"tickets"`
	Count   int              `json:"count"`
}

type ConfirmPaymentResponse struct {
	Message     string              `json:"message"`
	TicketID    string              `json:"ticketId"`
	Status      models.TicketStatus `json:"status"`
	AlreadyPaid bool                `json:"alreadyPaid"`
	SentTo      []string            `json:"sentTo"`
	EmailError  string              `json:"emailError,omitempty"`
}

type DeclinePaymentResponse struct {
	Message  string              `json:"message"`
	TicketID string              `json:"ticketId"`
	Status   models.TicketStatus `json:"status"`
}

type CheckInResponse struct {
	Message     string              `json:"message"`
	TicketID    string              `json:"ticketId"`
	Status      models.TicketStatus `json:"status"`
	CheckedInAt *time.Time          `json:"checkedInAt"`
}

type VerifyResponse struct {
	Valid  bool                  `json:"valid"`
	Ticket service.TicketPayload `json:"ticket"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type PriceResponse struct {
	Price    float64 `json:"price"`
	Cents    int64   `json:"cents"`
	Currency string  `json:"currency"`
}

type PricingResponse struct {
	Single   PriceResponse `json:"single"`
	Couple   PriceResponse `json:"couple"`
	Env      string        `json:"env"`
	TestMode bool          `json:"testMode"`
	Version  string        `json:"version"`
}

func ToTicketResponse(t *models.Ticket) TicketResponse {
	resp := TicketResponse{
		TicketID:       t.TicketID,
		PackageType:    t.PackageType,
		Status:         t.Status,
		ContactEmail:   t.ContactEmail,
		ContactEmails:  t.RecipientEmails(),
		PaymentNote:    t.PaymentNote,
		Attendees:      make([]AttendeeResponse, 0, len(t.Attendees)),
		Payment:        t.Payment,
		PaymentHistory: []models.PaymentEvent(t.History),
		QRCode:         t.QRCode,
		CheckedIn:      t.CheckedIn,
		CheckedInAt:    t.CheckedInAt,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
	if resp.PaymentHistory == nil {
		resp.PaymentHistory = []models.PaymentEvent{}
	}
	for _, a := range t.Attendees {
		resp.Attendees = append(resp.Attendees, AttendeeResponse{
			FullName:   a.FullName,
			Email:      a.Email,
			Phone:      a.Phone,
			NationalID: a.NationalID,
			Gender:     a.Gender,
		})
	}
	return resp
}

func ToTicketListResponse(tickets []models.Ticket) TicketListResponse {
	resp := TicketListResponse{Tickets: make([]TicketResponse, 0, len(tickets)), Count: len(tickets)}
	for i := range tickets {
		resp.Tickets = append(resp.Tickets, ToTicketResponse(&tickets[i]))
	}
	return resp
}

func NewPriceResponse(price float64, currency string) PriceResponse {
	return PriceResponse{Price: price, Cents: int64(price*100 + 0.5), Currency: currency}
}
