package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/facilityworks/helpdesk/internal/api/http/handlers"
	"github.com/facilityworks/helpdesk/internal/auth"
	"github.com/facilityworks/helpdesk/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Metrics        *handlers.MetricsHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Notifications  *handlers.NotificationsHandler
	Reports        *handlers.ReportsHandler
	KB             *handlers.KBHandler
	AuthMiddleware fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Metrics.Snapshot)

	app.Post("/auth/login", cfg.Users.Login)

	api := app.Group("", cfg.AuthMiddleware)

	api.Post("/auth/password/change", cfg.Users.ChangePassword)

	tickets := api.Group("/tickets")
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", cfg.Tickets.UpdateTicket)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)

	notifications := api.Group("/notifications")
	notifications.Get("", cfg.Notifications.ListNotifications)
	notifications.Post("/read", cfg.Notifications.MarkManyRead)
	notifications.Post("/:id/read", cfg.Notifications.MarkRead)
	notifications.Post("/:id/archive", cfg.Notifications.Archive)

	reports := api.Group("/reports", auth.RequireRole(domain.RoleTechManager))
	reports.Get("/aggregate", cfg.Reports.Aggregate)
	reports.Get("/top-requesters", cfg.Reports.TopRequesters)
	reports.Get("/dashboard", cfg.Reports.Dashboard)

	kb := api.Group("/kb/articles")
	kb.Get("", cfg.KB.ListArticles)
	kb.Get("/:id", cfg.KB.GetArticle)
	managed := kb.Group("", auth.RequireRole(domain.RoleTechManager))
	managed.Post("", cfg.KB.CreateArticle)
	managed.Put("/:id", cfg.KB.UpdateArticle)
	managed.Delete("/:id", cfg.KB.DeleteArticle)

	users := api.Group("/users", auth.RequireRole(domain.RoleTechManager))
	users.Post("", cfg.Users.CreateUser)
	users.Get("", cfg.Users.ListUsers)
	users.Post("/:id/active", cfg.Users.SetActive)
	users.Post("/:id/role", cfg.Users.SetRole)
	users.Post("/:id/password-reset", cfg.Users.RequirePasswordReset)
}
