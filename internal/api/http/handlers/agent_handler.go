package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/realty-service/internal/api/dto"
	"github.com/spec-kit/realty-service/internal/auth"
	"github.com/spec-kit/realty-service/internal/domain"
	"github.com/spec-kit/realty-service/internal/observability"
	"github.com/spec-kit/realty-service/internal/service"
	apperrors "github.com/spec-kit/realty-service/pkg/util"
)

// AgentHandler manages the roster endpoints under /companies/:id/agents.
type AgentHandler struct {
	companies *service.CompanyService
	metrics   *observability.Metrics
}

// NewAgentHandler constructs handler.
func NewAgentHandler(companies *service.CompanyService, metrics *observability.Metrics) *AgentHandler {
	return &AgentHandler{companies: companies, metrics: metrics}
}

// Add handles POST /companies/:id/agents.
func (h *AgentHandler) Add(c *fiber.Ctx) error {
	actor, companyID, err := h.authorize(c)
	if err != nil {
		return err
	}
	var req dto.AddAgentRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	agent, err := h.companies.AddAgent(c.UserContext(), actor, companyID, service.AddAgentInput{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		Contact:   req.Contact,
		LicenseID: req.LicenseID,
	})
	h.metrics.RecordRosterMutation("add", outcome(err))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewAgentResponse(companyID, agent)})
}

// Get handles GET /companies/:id/agents/:agentId.
func (h *AgentHandler) Get(c *fiber.Ctx) error {
	profile, err := h.companies.GetAgentProfile(c.UserContext(), c.Params("id"), c.Params("agentId"))
	if err != nil {
		return err
	}
	resp := dto.NewAgentResponse(profile.CompanyID, profile.Agent)
	resp.Rating = &profile.Aggregate
	return c.JSON(fiber.Map{"data": resp})
}

// SetStatus handles PATCH /companies/:id/agents/:agentId/status.
func (h *AgentHandler) SetStatus(c *fiber.Ctx) error {
	actor, companyID, err := h.authorize(c)
	if err != nil {
		return err
	}
	var req dto.SetAgentStatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	agent, err := h.companies.SetAgentStatus(c.UserContext(), actor, companyID, c.Params("agentId"), req.Status)
	h.metrics.RecordRosterMutation("set_status", outcome(err))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAgentResponse(companyID, agent)})
}

// Remove handles DELETE /companies/:id/agents/:agentId.
func (h *AgentHandler) Remove(c *fiber.Ctx) error {
	actor, companyID, err := h.authorize(c)
	if err != nil {
		return err
	}
	err = h.companies.RemoveAgent(c.UserContext(), actor, companyID, c.Params("agentId"))
	h.metrics.RecordRosterMutation("remove", outcome(err))
	if err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func (h *AgentHandler) authorize(c *fiber.Ctx) (*domain.Identity, string, error) {
	actor, err := requireActor(c)
	if err != nil {
		return nil, "", err
	}
	companyID := c.Params("id")
	if !auth.CanManageCompany(actor, companyID) {
		return nil, "", apperrors.NewForbidden("cannot manage this roster")
	}
	return actor, companyID, nil
}

// outcome labels a mutation result for metrics.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	switch apperrors.ToDomainError(err).Code {
	case apperrors.CodeConflict:
		return "conflict"
	case apperrors.CodeNotFound:
		return "not_found"
	case apperrors.CodeInvalidInput:
		return "invalid"
	default:
		return "error"
	}
}
