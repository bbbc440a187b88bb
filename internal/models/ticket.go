package models

import (
	"time"

	"gorm.io/datatypes"
)

type TicketStatus string

const (
	StatusPendingPayment TicketStatus = "pending_manual_payment"
	StatusPaid           TicketStatus = "paid"
	StatusUsed           TicketStatus = "used"
)

func (s TicketStatus) Valid() bool {
	switch s {
	case StatusPendingPayment, StatusPaid, StatusUsed:
		return true
	}
	return false
}

type PackageType string

const (
	PackageSingle PackageType = "single"
	PackageCouple PackageType = "couple"
)

// Attendees returns how many attendees the package admits, or 0 if unknown.
func (p PackageType) Attendees() int {
	switch p {
	case PackageSingle:
		return 1
	case PackageCouple:
		return 2
	}
	return 0
}

const MaxPaymentHistory = 200

type Ticket struct {
	ID            uint                              `gorm:"primaryKey" json:"-"`
	TicketID      string                            `gorm:"type:varchar(32);uniqueIndex;not null" json:"ticketId"`
	PackageType   PackageType                       `gorm:"type:varchar(10);not null" json:"packageType"`
	ContactEmail  string                            `gorm:"index" json:"contactEmail"`
	ContactEmails datatypes.JSONSlice[string]       `gorm:"type:jsonb" json:"contactEmails"`
	PaymentNote   string                            `json:"paymentNote,omitempty"`
	Status        TicketStatus                      `gorm:"type:varchar(32);not null;default:'pending_manual_payment';index" json:"status"`
	QRCode        string                            `gorm:"column:qr_code;type:text" json:"qrCode,omitempty"`
	Payment       PaymentInfo                       `gorm:"embedded;embeddedPrefix:payment_" json:"payment"`
	History       datatypes.JSONSlice[PaymentEvent] `gorm:"column:payment_history;type:jsonb" json:"paymentHistory"`
	CheckedIn     bool                              `gorm:"not null;default:false" json:"checkedIn"`
	CheckedInAt   *time.Time                        `json:"checkedInAt,omitempty"`
	CreatedAt     time.Time                         `json:"createdAt"`
	UpdatedAt     time.Time                         `json:"updatedAt"`

	Attendees []Attendee `gorm:"foreignKey:TicketID;references:TicketID;constraint:OnDelete:CASCADE" json:"attendees"`
}

// Attendee rows carry the national ID unique index, which is what actually
// prevents a person from holding two tickets.
type Attendee struct {
	ID         uint   `gorm:"primaryKey" json:"-"`
	TicketID   string `gorm:"type:varchar(32);index;not null" json:"-"`
	Position   int    `gorm:"not null" json:"-"`
	FullName   string `gorm:"not null" json:"fullName"`
	Email      string `gorm:"not null" json:"email"`
	Phone      string `gorm:"not null" json:"phone"`
	NationalID string `gorm:"type:char(14);uniqueIndex;not null" json:"nationalId"`
	Gender     string `gorm:"type:varchar(10);not null" json:"gender"`
}

type PaymentInfo struct {
	EmailSentAt    *time.Time `json:"emailSentAt,omitempty"`
	ChangedAt      *time.Time `json:"updatedAt,omitempty"`
	LastEmailError string     `json:"lastEmailError,omitempty"`
}

type PaymentEvent struct {
	Event     string    `json:"event"`
	Status    string    `json:"status"`
	Note      string    `json:"note,omitempty"`
	Actor     string    `json:"actor,omitempty"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// AppendHistory adds an entry and keeps only the newest MaxPaymentHistory.
func (t *Ticket) AppendHistory(e PaymentEvent) {
	t.History = append(t.History, e)
	if n := len(t.History); n > MaxPaymentHistory {
		t.History = t.History[n-MaxPaymentHistory:]
	}
}

// RecipientEmails is the deduplicated union of contact and attendee emails,
// contact emails first.
func (t *Ticket) RecipientEmails() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(e string) {
		if e == "" {
			return
		}
		if _, ok := seen[e]; ok {
			return
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	add(t.ContactEmail)
	for _, e := range t.ContactEmails {
		add(e)
	}
	for _, a := range t.Attendees {
		add(a.Email)
	}
	return out
}

// PrimaryName is used to greet recipients.
func (t *Ticket) PrimaryName() string {
	if len(t.Attendees) > 0 && t.Attendees[0].FullName != "" {
		return t.Attendees[0].FullName
	}
	return "Guest"
}
