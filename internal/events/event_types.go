package events

import (
	"time"

	"github.com/spec-kit/support-chat/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventChatCreated    EventType = "chat_created"
	EventChatDeleted    EventType = "chat_deleted"
	EventTicketAttached EventType = "ticket_attached"
	EventTicketUpdated  EventType = "ticket_updated"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	ChatID      string      `json:"chat_id"`
	ActorUserID string      `json:"actor_user_id"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload"`
}

// ChatCreatedPayload payload.
type ChatCreatedPayload struct {
	MessageCount int `json:"message_count"`
}

// ChatDeletedPayload payload.
type ChatDeletedPayload struct {
	HadTicket bool `json:"had_ticket"`
}

// TicketAttachedPayload payload.
type TicketAttachedPayload struct {
	TicketID string              `json:"ticket_id"`
	Title    string              `json:"title"`
	Status   domain.TicketStatus `json:"status"`
}

// TicketUpdatedPayload payload.
type TicketUpdatedPayload struct {
	TicketID  string              `json:"ticket_id"`
	NewStatus domain.TicketStatus `json:"new_status"`
}
