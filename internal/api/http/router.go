package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health       *handlers.HealthHandler
	Auth         *handlers.AuthHandler
	Tickets      *handlers.TicketsHandler
	AdminTickets *handlers.AdminTicketsHandler
	Tokens       *auth.TokenManager
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api", auth.Optional(cfg.Tokens))

	api.Post("/auth/login", cfg.Auth.Login)

	api.Post("/tickets", cfg.Tickets.SubmitTicket)
	api.Get("/tickets", auth.RequireIdentity(), cfg.Tickets.ListMine)
	api.Get("/tickets/:id", cfg.Tickets.GetTicket)
	api.Post("/tickets/:id/replies", cfg.Tickets.AddReply)

	admin := api.Group("/admin", auth.RequireAdmin())
	admin.Get("/tickets", cfg.AdminTickets.List)
	admin.Post("/tickets/bulk", cfg.AdminTickets.Bulk)
	admin.Patch("/tickets/:id", cfg.AdminTickets.Update)
	admin.Post("/tickets/:id/replies", cfg.AdminTickets.AddReply)
	admin.Delete("/tickets/:id", cfg.AdminTickets.Delete)
}
