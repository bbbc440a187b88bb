package models

import "time"

type EmailStatus string

const (
	EmailSuccess EmailStatus = "success"
	EmailFailed  EmailStatus = "failed"
)

// EmailLog records one delivery attempt.
type EmailLog struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	TicketID  string      `gorm:"type:varchar(32);index" json:"ticketId"`
	To        string      `gorm:"not null" json:"to"`
	Subject   string      `json:"subject"`
	Template  string      `gorm:"type:varchar(64)" json:"template"`
	Status    EmailStatus `gorm:"type:varchar(10);not null" json:"status"`
	Error     string      `json:"error,omitempty"`
	Attempt   int         `gorm:"not null;default:1" json:"attempt"`
	SentAt    time.Time   `json:"sentAt"`
	CreatedAt time.Time   `json:"createdAt"`
}
