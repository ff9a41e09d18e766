package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-chat/internal/api/dto"
	"github.com/spec-kit/support-chat/internal/auth"
	"github.com/spec-kit/support-chat/internal/service"
	apperrors "github.com/spec-kit/support-chat/pkg/util"
)

// ChatsHandler manages owner-scoped chat endpoints.
type ChatsHandler struct {
	service *service.ChatService
}

// NewChatsHandler constructs handler.
func NewChatsHandler(chatService *service.ChatService) *ChatsHandler {
	return &ChatsHandler{service: chatService}
}

// ListChats GET /chats.
func (h *ChatsHandler) ListChats(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	chats, err := h.service.ListChats(c.UserContext(), principal.UserID)
	if err != nil {
		return err
	}

	items := make([]dto.ChatResponse, 0, len(chats))
	for i := range chats {
		resp, err := chatResponse(&chats[i])
		if err != nil {
			return err
		}
		items = append(items, *resp)
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetChat GET /chats/:id. An absent or foreign chat answers the same null
// body, so ownership cannot be probed.
func (h *ChatsHandler) GetChat(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	chat, err := h.service.GetChat(c.UserContext(), principal.UserID, c.Params("id"))
	if err != nil {
		return err
	}
	if chat == nil {
		return c.JSON(fiber.Map{"data": nil})
	}

	resp, err := chatResponse(chat)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": resp})
}

// CreateChat POST /chats.
func (h *ChatsHandler) CreateChat(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.CreateChatRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	chat, err := h.service.CreateChat(c.UserContext(), principal.UserID, messageHistory(req.Messages))
	if err != nil {
		return err
	}

	resp, err := chatResponse(chat)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": resp})
}

// PatchChat PATCH /chats/:id.
func (h *ChatsHandler) PatchChat(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.ChatPatchRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.ChatPatchInput{Messages: messageHistory(req.Messages)}
	if req.Ticket != nil {
		if req.Ticket.Title == "" || req.Ticket.Description == "" {
			return apperrors.NewValidationError("ticket title and description required", nil)
		}
		input.Ticket = &service.TicketAttachInput{
			Title:       req.Ticket.Title,
			Description: req.Ticket.Description,
			Status:      req.Ticket.Status,
		}
	}

	chat, err := h.service.PatchChat(c.UserContext(), principal.UserID, c.Params("id"), input)
	if err != nil {
		return err
	}

	resp, err := chatResponse(chat)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": resp})
}

// DeleteChat DELETE /chats/:id.
func (h *ChatsHandler) DeleteChat(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	if err := h.service.DeleteChat(c.UserContext(), principal.UserID, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
