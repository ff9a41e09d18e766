package domain

import "time"

// TicketStatus is a free-form status string. The constants cover the common
// states but no closed enum is enforced on writes.
type TicketStatus string

const (
	TicketStatusOpen    TicketStatus = "OPEN"
	TicketStatusPending TicketStatus = "PENDING"
	TicketStatusClosed  TicketStatus = "CLOSED"
)

// Ticket is the escalation record for a chat. There is at most one per chat
// and no owner column: ownership is derived through the parent chat.
type Ticket struct {
	ID          string
	ChatID      string
	Title       string
	Description string
	Status      TicketStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
