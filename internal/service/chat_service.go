package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/support-chat/internal/cache"
	"github.com/spec-kit/support-chat/internal/domain"
	"github.com/spec-kit/support-chat/internal/events"
	"github.com/spec-kit/support-chat/internal/gateway"
	"github.com/spec-kit/support-chat/internal/repository"
	apperrors "github.com/spec-kit/support-chat/pkg/util"
)

// ChatService coordinates the owner-scoped chat lifecycle.
type ChatService struct {
	chats      repository.ChatRepository
	tickets    repository.TicketRepository
	txm        repository.TxManager
	completer  gateway.Completer
	replyCache *cache.CompletionCache
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// ChatDependencies bundles collaborators for the chat service.
type ChatDependencies struct {
	ChatRepo   repository.ChatRepository
	TicketRepo repository.TicketRepository
	TxManager  repository.TxManager
	Completer  gateway.Completer
	ReplyCache *cache.CompletionCache
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// TicketAttachInput is the one-shot ticket creation carried on a chat patch.
type TicketAttachInput struct {
	Title       string
	Description string
	Status      domain.TicketStatus
}

// ChatPatchInput carries the optional fields of a chat patch. A nil Messages
// slice means the history is untouched; a nil Ticket means no attach.
type ChatPatchInput struct {
	Messages []domain.Message
	Ticket   *TicketAttachInput
}

// NewChatService constructs the service.
func NewChatService(deps ChatDependencies) *ChatService {
	return &ChatService{
		chats:      deps.ChatRepo,
		tickets:    deps.TicketRepo,
		txm:        deps.TxManager,
		completer:  deps.Completer,
		replyCache: deps.ReplyCache,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// ListChats returns every chat of the owner, each with its optional ticket.
func (s *ChatService) ListChats(ctx context.Context, ownerID string) ([]domain.Chat, error) {
	return s.chats.ListByOwner(ctx, ownerID)
}

// GetChat returns the owner's chat or nil. A chat owned by someone else
// yields the same nil as a chat that does not exist.
func (s *ChatService) GetChat(ctx context.Context, ownerID, chatID string) (*domain.Chat, error) {
	chat, err := s.chats.GetByIDForOwner(ctx, ownerID, chatID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return chat, nil
}

// CreateChat persists a new chat with the given initial history.
func (s *ChatService) CreateChat(ctx context.Context, ownerID string, history []domain.Message) (*domain.Chat, error) {
	serialized, err := domain.EncodeHistory(history)
	if err != nil {
		return nil, err
	}

	chat := &domain.Chat{OwnerID: ownerID, Messages: serialized}
	if err := s.chats.Create(ctx, chat); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:        events.EventChatCreated,
		ChatID:      chat.ID,
		ActorUserID: ownerID,
		Payload:     events.ChatCreatedPayload{MessageCount: len(history)},
	})
	return chat, nil
}

// DeleteChat removes the owner's chat and, in the same transaction, its
// ticket. An absent or foreign chat is NotFound.
func (s *ChatService) DeleteChat(ctx context.Context, ownerID, chatID string) error {
	hadTicket := false
	err := s.txm.InTx(ctx, func(ctx context.Context) error {
		chat, err := s.chats.GetByIDForOwner(ctx, ownerID, chatID)
		if err != nil {
			if repository.IsNotFound(err) {
				return apperrors.NewNotFound("chat", nil)
			}
			return err
		}
		hadTicket = chat.Ticket != nil

		if hadTicket {
			if err := s.tickets.DeleteByChatID(ctx, chatID); err != nil {
				return err
			}
		}
		return s.chats.DeleteForOwner(ctx, ownerID, chatID)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, events.Event{
		Type:        events.EventChatDeleted,
		ChatID:      chatID,
		ActorUserID: ownerID,
		Payload:     events.ChatDeletedPayload{HadTicket: hadTicket},
	})
	return nil
}

// PatchChat applies the optional message-history update and one-shot ticket
// attach as a single atomic change.
//
// The flow is ordered so that nothing is persisted unless the whole patch
// can apply: the attach precondition is checked first, the gateway is called
// next (outside the transaction, awaited fully), and only then are both
// writes committed together.
func (s *ChatService) PatchChat(ctx context.Context, ownerID, chatID string, input ChatPatchInput) (*domain.Chat, error) {
	chat, err := s.chats.GetByIDForOwner(ctx, ownerID, chatID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NewNotFound("chat", nil)
		}
		return nil, err
	}

	if input.Ticket != nil && chat.Ticket != nil {
		return nil, apperrors.NewConflict(
			"chat already has a ticket; use the ticket endpoint to update it",
			map[string]any{"ticket_id": chat.Ticket.ID},
		)
	}

	var serialized string
	if input.Messages != nil {
		reply, err := s.completeWithCache(ctx, input.Messages)
		if err != nil {
			return nil, apperrors.NewGatewayError(err)
		}

		augmented := append(input.Messages, domain.Message{
			Role:    domain.RoleAssistant,
			Content: reply,
		})
		serialized, err = domain.EncodeHistory(augmented)
		if err != nil {
			return nil, err
		}
	}

	err = s.txm.InTx(ctx, func(ctx context.Context) error {
		if input.Messages != nil {
			if err := s.chats.UpdateMessagesForOwner(ctx, ownerID, chatID, serialized); err != nil {
				return err
			}
		}
		if input.Ticket != nil {
			status := input.Ticket.Status
			if status == "" {
				status = domain.TicketStatusOpen
			}
			ticket := &domain.Ticket{
				ChatID:      chatID,
				Title:       input.Ticket.Title,
				Description: input.Ticket.Description,
				Status:      status,
			}
			if err := s.tickets.Create(ctx, ticket); err != nil {
				// A concurrent attach can win between the precondition
				// read and this insert; the loser gets the same conflict.
				if errors.Is(err, repository.ErrTicketExists) {
					return apperrors.NewConflict(
						"chat already has a ticket; use the ticket endpoint to update it",
						map[string]any{"chat_id": chatID},
					)
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.chats.GetByIDForOwner(ctx, ownerID, chatID)
	if err != nil {
		return nil, err
	}

	if input.Ticket != nil && updated.Ticket != nil {
		s.publish(ctx, events.Event{
			Type:        events.EventTicketAttached,
			ChatID:      chatID,
			ActorUserID: ownerID,
			Payload: events.TicketAttachedPayload{
				TicketID: updated.Ticket.ID,
				Title:    updated.Ticket.Title,
				Status:   updated.Ticket.Status,
			},
		})
	}
	return updated, nil
}

// completeWithCache consults the reply cache before the gateway. The call is
// synchronous; the patch does not proceed until a reply is in hand.
func (s *ChatService) completeWithCache(ctx context.Context, history []domain.Message) (string, error) {
	outbound, err := domain.EncodeHistory(history)
	if err != nil {
		return "", err
	}
	key := cache.Key(outbound)

	if reply, ok := s.replyCache.Get(ctx, key); ok {
		return reply, nil
	}

	reply, err := s.completer.Complete(ctx, history)
	if err != nil {
		return "", err
	}
	s.replyCache.Set(ctx, key, reply)
	return reply, nil
}

func (s *ChatService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed", zap.String("type", string(event.Type)), zap.Error(err))
	}
}
