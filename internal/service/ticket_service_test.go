package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/support-chat/internal/domain"
	"github.com/spec-kit/support-chat/internal/events"
	"github.com/spec-kit/support-chat/internal/repository/repositorytest"
	apperrors "github.com/spec-kit/support-chat/pkg/util"
)

// attachTicket seeds a chat with a ticket for the owner and returns both.
func attachTicket(t *testing.T, store *repositorytest.Store, ownerID string) (*domain.Chat, *domain.Ticket) {
	t.Helper()
	chatSvc := newChatService(store, &stubCompleter{})

	chat, err := chatSvc.CreateChat(context.Background(), ownerID, nil)
	require.NoError(t, err)

	updated, err := chatSvc.PatchChat(context.Background(), ownerID, chat.ID, ChatPatchInput{
		Ticket: &TicketAttachInput{Title: "login broken", Description: "cannot sign in"},
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Ticket)
	return updated, updated.Ticket
}

func TestTicketService_ListScopedThroughChatJoin(t *testing.T) {
	store := repositorytest.NewStore()
	svc := NewTicketService(store.Tickets(), events.NewInMemoryDispatcher(), zap.NewNop())

	_, ticketA := attachTicket(t, store, "owner-a")
	attachTicket(t, store, "owner-b")

	tickets, err := svc.ListTickets(context.Background(), "owner-a")
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, ticketA.ID, tickets[0].ID)
}

func TestTicketService_GetForeignTicketNotFound(t *testing.T) {
	store := repositorytest.NewStore()
	svc := NewTicketService(store.Tickets(), nil, zap.NewNop())

	_, ticket := attachTicket(t, store, "owner-a")

	_, err := svc.GetTicket(context.Background(), "owner-b", ticket.ID)
	require.Error(t, err)
	foreignErr := apperrors.ToDomainError(err)

	_, err = svc.GetTicket(context.Background(), "owner-b", "no-such-ticket")
	require.Error(t, err)
	missingErr := apperrors.ToDomainError(err)

	assert.Equal(t, "NOT_FOUND", foreignErr.Code)
	assert.Equal(t, missingErr.Code, foreignErr.Code)
	assert.Equal(t, missingErr.HTTPStatus, foreignErr.HTTPStatus)
}

func TestTicketService_PatchStatusOnly(t *testing.T) {
	store := repositorytest.NewStore()
	svc := NewTicketService(store.Tickets(), events.NewInMemoryDispatcher(), zap.NewNop())

	_, ticket := attachTicket(t, store, "owner-a")

	status := domain.TicketStatus("CLOSED")
	updated, err := svc.PatchTicket(context.Background(), "owner-a", ticket.ID, TicketPatchInput{
		Status: &status,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.TicketStatus("CLOSED"), updated.Status)
	assert.Equal(t, "login broken", updated.Title)
	assert.Equal(t, "cannot sign in", updated.Description)
}

func TestTicketService_PatchAllFields(t *testing.T) {
	store := repositorytest.NewStore()
	svc := NewTicketService(store.Tickets(), nil, zap.NewNop())

	_, ticket := attachTicket(t, store, "owner-a")

	title := "new title"
	description := "new description"
	status := domain.TicketStatusPending
	updated, err := svc.PatchTicket(context.Background(), "owner-a", ticket.ID, TicketPatchInput{
		Title:       &title,
		Description: &description,
		Status:      &status,
	})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, description, updated.Description)
	assert.Equal(t, status, updated.Status)
}

func TestTicketService_PatchForeignTicketNotFound(t *testing.T) {
	store := repositorytest.NewStore()
	svc := NewTicketService(store.Tickets(), nil, zap.NewNop())

	_, ticket := attachTicket(t, store, "owner-a")

	status := domain.TicketStatusClosed
	_, err := svc.PatchTicket(context.Background(), "owner-b", ticket.ID, TicketPatchInput{Status: &status})
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)

	// untouched for the real owner
	got, err := svc.GetTicket(context.Background(), "owner-a", ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, got.Status)
}
