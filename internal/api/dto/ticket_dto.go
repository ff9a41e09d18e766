package dto

import (
	"time"

	"github.com/spec-kit/support-chat/internal/domain"
)

// TicketPatchRequest payload; nil fields are left unchanged.
type TicketPatchRequest struct {
	Title       *string              `json:"title"`
	Description *string              `json:"description"`
	Status      *domain.TicketStatus `json:"status"`
}

// TicketResponse provides full ticket info.
type TicketResponse struct {
	ID          string              `json:"id"`
	ChatID      string              `json:"chat_id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      domain.TicketStatus `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}
