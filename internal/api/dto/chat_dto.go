package dto

import (
	"time"

	"github.com/spec-kit/support-chat/internal/domain"
)

// MessageInput is one role/content pair of a conversation history.
type MessageInput struct {
	Role    domain.MessageRole `json:"role"`
	Content string             `json:"content"`
}

// CreateChatRequest payload.
type CreateChatRequest struct {
	Messages []MessageInput `json:"messages"`
}

// TicketAttachRequest is the one-shot ticket creation embedded in a chat
// patch.
type TicketAttachRequest struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      domain.TicketStatus `json:"status"`
}

// ChatPatchRequest payload. Both fields are optional; absent fields leave
// the chat untouched.
type ChatPatchRequest struct {
	Messages []MessageInput       `json:"messages"`
	Ticket   *TicketAttachRequest `json:"ticket"`
}

// ChatResponse provides a chat with its decoded history and optional ticket.
type ChatResponse struct {
	ID        string          `json:"id"`
	OwnerID   string          `json:"owner_id"`
	Messages  []MessageInput  `json:"messages"`
	Ticket    *TicketResponse `json:"ticket"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
