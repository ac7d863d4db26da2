package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/realty-service/internal/api/dto"
	"github.com/spec-kit/realty-service/internal/service"
)

// AuthHandler exposes the sign-in endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// CompanyLogin handles POST /auth/companies/login.
func (h *AuthHandler) CompanyLogin(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	company, result, err := h.auth.SignInCompany(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"company": dto.NewCompanyResponse(company),
			"auth":    authResponse(result),
		},
	})
}

// AgentLogin handles POST /auth/agents/login.
func (h *AuthHandler) AgentLogin(c *fiber.Ctx) error {
	var req dto.AgentLoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	agent, result, err := h.auth.SignInAgent(c.UserContext(), req.CompanyID, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"agent": dto.NewAgentResponse(result.Identity.CompanyID, agent),
			"auth":  authResponse(result),
		},
	})
}

// OperatorLogin handles POST /auth/operators/login.
func (h *AuthHandler) OperatorLogin(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	result, err := h.auth.SignInOperator(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"auth": authResponse(result)}})
}

func authResponse(r *service.SignInResult) dto.AuthResponse {
	return dto.AuthResponse{
		Token:     r.Token,
		ExpiresAt: r.ExpiresAt,
		Role:      r.Identity.Role,
		SubjectID: r.Identity.SubjectID,
		CompanyID: r.Identity.CompanyID,
	}
}
