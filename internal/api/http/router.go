package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/realty-service/internal/api/http/handlers"
	"github.com/spec-kit/realty-service/internal/auth"
	"github.com/spec-kit/realty-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Companies      *handlers.CompanyHandler
	Agents         *handlers.AgentHandler
	Auth           *handlers.AuthHandler
	Ratings        *handlers.RatingHandler
	AuthMiddleware *auth.AuthMiddleware
	// Gatherer backs /metrics. Nil serves the default registry.
	Gatherer prometheus.Gatherer
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	authGroup := app.Group("/auth")
	authGroup.Post("/companies/login", cfg.Auth.CompanyLogin)
	authGroup.Post("/agents/login", cfg.Auth.AgentLogin)
	authGroup.Post("/operators/login", cfg.Auth.OperatorLogin)

	authenticate := cfg.AuthMiddleware.Handle
	managers := auth.RequireRoles(domain.RoleCompany, domain.RoleAdmin, domain.RoleSuperuser)

	companies := app.Group("/companies")
	companies.Post("/", cfg.Companies.Create)
	companies.Get("/:id", cfg.Companies.Get)
	companies.Patch("/:id", authenticate, managers, cfg.Companies.Update)
	companies.Delete("/:id", authenticate, auth.RequireRoles(domain.RoleCompany, domain.RoleSuperuser), cfg.Companies.Delete)

	companies.Post("/:id/agents", authenticate, managers, cfg.Agents.Add)
	companies.Get("/:id/agents/:agentId", cfg.Agents.Get)
	companies.Patch("/:id/agents/:agentId/status", authenticate, managers, cfg.Agents.SetStatus)
	companies.Delete("/:id/agents/:agentId", authenticate, managers, cfg.Agents.Remove)

	ratings := app.Group("/ratings")
	ratings.Post("/", authenticate, auth.RequireRoles(), cfg.Ratings.Submit)
	ratings.Get("/:rateeId", cfg.Ratings.List)
	ratings.Get("/:rateeId/aggregate", cfg.Ratings.Aggregate)
}
