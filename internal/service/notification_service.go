package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/support-chat/internal/config"
	"github.com/spec-kit/support-chat/internal/events"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventChatCreated, n.handleChatCreated)
	n.dispatcher.Subscribe(events.EventChatDeleted, n.handleChatDeleted)
	n.dispatcher.Subscribe(events.EventTicketAttached, n.handleTicketAttached)
	n.dispatcher.Subscribe(events.EventTicketUpdated, n.handleTicketUpdated)
}

func (n *NotificationService) handleChatCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("ChatCreated", zap.String("chat_id", event.ChatID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleChatDeleted(ctx context.Context, event events.Event) error {
	n.logger.Info("ChatDeleted", zap.String("chat_id", event.ChatID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleTicketAttached(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketAttached", zap.String("chat_id", event.ChatID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleTicketUpdated(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketUpdated", zap.String("chat_id", event.ChatID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("chat_id", event.ChatID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("chat_id", event.ChatID),
		zap.String("event_type", string(event.Type)))
}
