package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/civic-stack/request-service/internal/api/http/handlers"
	"github.com/civic-stack/request-service/internal/auth"
)

// RouteConfig bundles the handlers and middlewares the router needs.
type RouteConfig struct {
	Health        *handlers.HealthHandler
	Citizens      *handlers.CitizensHandler
	StaffAuth     *handlers.StaffAuthHandler
	Requests      *handlers.RequestsHandler
	StaffRequests *handlers.StaffRequestsHandler
	Departments   *handlers.DepartmentsHandler
	Auth          *auth.AuthMiddleware
}

// RegisterRoutes wires all HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	health := app.Group("/health")
	health.Get("/live", cfg.Health.Live)
	health.Get("/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/citizens/register", cfg.Citizens.Register)
	authGroup.Post("/citizens/login", cfg.Citizens.Login)
	authGroup.Post("/staff/login", cfg.StaffAuth.Login)

	app.Get("/departments", cfg.Departments.List)

	requests := app.Group("/requests", cfg.Auth.Handle)
	requests.Post("", auth.RequireCitizen(), cfg.Requests.Create)
	requests.Get("", auth.RequireCitizen(), cfg.Requests.List)
	requests.Get("/:id", auth.RequireCitizen(), cfg.Requests.Get)
	requests.Post("/:id/submit", auth.RequireCitizen(), cfg.Requests.Submit)
	requests.Post("/:id/status", auth.RequireStaff(), cfg.StaffRequests.ChangeStatus)

	staff := app.Group("/staff", cfg.Auth.Handle, auth.RequireStaff())
	staff.Get("/requests", cfg.StaffRequests.List)
	staff.Get("/requests/code/:code", cfg.StaffRequests.GetByCode)
	staff.Get("/requests/:id", cfg.StaffRequests.Get)
	staff.Post("/requests/:id/assign", cfg.StaffRequests.Assign)
}
