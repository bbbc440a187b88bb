package service

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/clearvision/midnight-tickets/internal/models"
)

// Routing keys for lifecycle events published on the tickets exchange.
const (
	EventRegistered = "ticket.registered"
	EventPaid       = "ticket.paid"
	EventDeclined   = "ticket.declined"
	EventCheckedIn  = "ticket.checked_in"
)

// TicketEvent is the message body of every lifecycle event.
type TicketEvent struct {
	TicketID    string              `json:"ticketId"`
	Status      models.TicketStatus `json:"status"`
	PackageType models.PackageType  `json:"packageType"`
	Note        string              `json:"note,omitempty"`
	Actor       string              `json:"actor,omitempty"`
	OccurredAt  time.Time           `json:"occurredAt"`
}

type QRAttendee struct {
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	NationalID string `json:"nationalId"`
}

// TicketPayload is encoded in the ticket level QR and returned by Verify.
type TicketPayload struct {
	TicketID    string             `json:"ticketId"`
	PackageType models.PackageType `json:"packageType"`
	Attendees   []QRAttendee       `json:"attendees"`
	VerifyURL   string             `json:"verifyUrl,omitempty"`
}

// AttendeePayload is encoded in the QR mailed to one attendee.
type AttendeePayload struct {
	TicketID   string `json:"ticketId"`
	NationalID string `json:"nationalId"`
	Index      int    `json:"index"`
	VerifyURL  string `json:"verifyUrl,omitempty"`
}

func NewTicketPayload(t *models.Ticket, verifyURL string) TicketPayload {
	p := TicketPayload{
		TicketID:    t.TicketID,
		PackageType: t.PackageType,
		Attendees:   make([]QRAttendee, 0, len(t.Attendees)),
		VerifyURL:   verifyURL,
	}
	for _, a := range t.Attendees {
		p.Attendees = append(p.Attendees, QRAttendee{
			FullName:   a.FullName,
			Email:      a.Email,
			Phone:      a.Phone,
			NationalID: a.NationalID,
		})
	}
	return p
}

// TicketIDFromCode accepts either a bare ticket id or the JSON content of a
// scanned QR code.
func TicketIDFromCode(code string) string {
	code = strings.TrimSpace(code)
	if strings.HasPrefix(code, "{") {
		var scanned struct {
			TicketID string `json:"ticketId"`
		}
		if err := json.Unmarshal([]byte(code), &scanned); err == nil {
			return strings.TrimSpace(scanned.TicketID)
		}
	}
	return code
}
