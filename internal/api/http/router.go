package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/claim-service/internal/api/http/handlers"
	"github.com/spec-kit/claim-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Admins         *handlers.AdminsHandler
	Tickets        *handlers.TicketsHandler
	AdminTickets   *handlers.AdminTicketsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/users/register", cfg.Users.Register)
	authGroup.Post("/users/login", cfg.Users.Login)

	authGroup.Post("/admins/login", cfg.Admins.Login)
	authGroup.Post("/password/reset/request", cfg.Admins.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Admins.ConfirmPasswordReset)

	protectedAuth := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	protectedAuth.Post("/password/change", cfg.Admins.ChangePassword)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireUser())
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)

	adminTickets := app.Group("/admin/tickets", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	adminTickets.Get("/", cfg.AdminTickets.ListTickets)
	adminTickets.Get("/:id", cfg.AdminTickets.GetTicket)
	adminTickets.Get("/:id/permissions", cfg.AdminTickets.Permissions)
	adminTickets.Post("/:id/claim", cfg.AdminTickets.Claim)
	adminTickets.Post("/:id/release", cfg.AdminTickets.Release)
	adminTickets.Post("/:id/handle", cfg.AdminTickets.Handle)
	adminTickets.Post("/:id/respond", cfg.AdminTickets.Respond)
	adminTickets.Post("/:id/close", cfg.AdminTickets.Close)
	adminTickets.Post("/:id/reopen", cfg.AdminTickets.Reopen)
}
