package dto

import (
	"time"

	"github.com/spec-kit/realty-service/internal/domain"
)

// LoginRequest payload for company and operator sign-in.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AgentLoginRequest payload for agent sign-in. Agent emails are only unique
// per company, so the company must be named.
type AgentLoginRequest struct {
	CompanyID string `json:"companyId" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	Role      domain.Role `json:"role"`
	SubjectID string      `json:"subjectId"`
	CompanyID string      `json:"companyId,omitempty"`
}
