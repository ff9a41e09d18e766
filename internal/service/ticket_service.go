package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/support-chat/internal/domain"
	"github.com/spec-kit/support-chat/internal/events"
	"github.com/spec-kit/support-chat/internal/repository"
	apperrors "github.com/spec-kit/support-chat/pkg/util"
)

// TicketService handles owner-scoped reads and partial updates of tickets.
// Scoping always joins through the parent chat.
type TicketService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TicketPatchInput carries the optional fields of a ticket patch. Nil fields
// are left unchanged.
type TicketPatchInput struct {
	Title       *string
	Description *string
	Status      *domain.TicketStatus
}

// NewTicketService constructs the service.
func NewTicketService(tickets repository.TicketRepository, dispatcher events.Dispatcher, logger *zap.Logger) *TicketService {
	return &TicketService{tickets: tickets, dispatcher: dispatcher, logger: logger}
}

// ListTickets returns every ticket whose parent chat the owner holds.
func (s *TicketService) ListTickets(ctx context.Context, ownerID string) ([]domain.Ticket, error) {
	return s.tickets.ListByOwner(ctx, ownerID)
}

// GetTicket fetches one ticket; absent and foreign are the same NotFound.
func (s *TicketService) GetTicket(ctx context.Context, ownerID, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByIDForOwner(ctx, ownerID, ticketID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NewNotFound("ticket", nil)
		}
		return nil, err
	}
	return ticket, nil
}

// PatchTicket applies any subset of title/description/status.
func (s *TicketService) PatchTicket(ctx context.Context, ownerID, ticketID string, input TicketPatchInput) (*domain.Ticket, error) {
	ticket, err := s.GetTicket(ctx, ownerID, ticketID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		ticket.Title = *input.Title
	}
	if input.Description != nil {
		ticket.Description = *input.Description
	}
	if input.Status != nil {
		ticket.Status = *input.Status
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		event := events.Event{
			Type:        events.EventTicketUpdated,
			ChatID:      ticket.ChatID,
			ActorUserID: ownerID,
			Payload: events.TicketUpdatedPayload{
				TicketID:  ticket.ID,
				NewStatus: ticket.Status,
			},
		}
		if err := s.dispatcher.Publish(ctx, event); err != nil {
			s.logger.Warn("event publish failed", zap.String("type", string(event.Type)), zap.Error(err))
		}
	}
	return ticket, nil
}
