package handlers

import (
	"github.com/spec-kit/support-chat/internal/api/dto"
	"github.com/spec-kit/support-chat/internal/domain"
)

func ticketResponse(ticket *domain.Ticket) *dto.TicketResponse {
	if ticket == nil {
		return nil
	}
	return &dto.TicketResponse{
		ID:          ticket.ID,
		ChatID:      ticket.ChatID,
		Title:       ticket.Title,
		Description: ticket.Description,
		Status:      ticket.Status,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
	}
}

func chatResponse(chat *domain.Chat) (*dto.ChatResponse, error) {
	history, err := chat.History()
	if err != nil {
		return nil, err
	}
	messages := make([]dto.MessageInput, 0, len(history))
	for _, msg := range history {
		messages = append(messages, dto.MessageInput{Role: msg.Role, Content: msg.Content})
	}
	return &dto.ChatResponse{
		ID:        chat.ID,
		OwnerID:   chat.OwnerID,
		Messages:  messages,
		Ticket:    ticketResponse(chat.Ticket),
		CreatedAt: chat.CreatedAt,
		UpdatedAt: chat.UpdatedAt,
	}, nil
}

func messageHistory(inputs []dto.MessageInput) []domain.Message {
	if inputs == nil {
		return nil
	}
	history := make([]domain.Message, 0, len(inputs))
	for _, in := range inputs {
		history = append(history, domain.Message{Role: in.Role, Content: in.Content})
	}
	return history
}
