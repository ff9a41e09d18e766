package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-chat/internal/api/http/handlers"
	"github.com/spec-kit/support-chat/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Chats          *handlers.ChatsHandler
	Tickets        *handlers.TicketsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth", cfg.Auth.Register)
	app.Post("/auth/token", cfg.Auth.Login)

	chats := app.Group("/chats", cfg.AuthMiddleware.Handle)
	chats.Get("/", cfg.Chats.ListChats)
	chats.Post("/", cfg.Chats.CreateChat)
	chats.Get("/:id", cfg.Chats.GetChat)
	chats.Patch("/:id", cfg.Chats.PatchChat)
	chats.Delete("/:id", cfg.Chats.DeleteChat)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", cfg.Tickets.PatchTicket)
}
