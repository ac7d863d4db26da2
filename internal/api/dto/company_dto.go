package dto

import (
	"time"

	"github.com/spec-kit/realty-service/internal/domain"
)

// CreateCompanyRequest payload for company registration.
type CreateCompanyRequest struct {
	CompanyName string `json:"companyName" validate:"required,max=200"`
	Email       string `json:"email" validate:"required,email,max=254"`
	Password    string `json:"password" validate:"required,max=72"`
	Phone       string `json:"phone" validate:"omitempty,max=50"`
	Address     string `json:"address" validate:"omitempty,max=500"`
	Description string `json:"description" validate:"omitempty,max=5000"`
	Website     string `json:"website" validate:"omitempty,url"`
	AvatarURL   string `json:"avatarUrl" validate:"omitempty,url"`
	BannerURL   string `json:"bannerUrl" validate:"omitempty,url"`
}

// UpdateCompanyRequest is a partial update; absent fields stay unchanged.
type UpdateCompanyRequest struct {
	CompanyName *string `json:"companyName" validate:"omitempty,max=200"`
	Email       *string `json:"email" validate:"omitempty,email,max=254"`
	Password    *string `json:"password" validate:"omitempty,max=72"`
	Phone       *string `json:"phone" validate:"omitempty,max=50"`
	Address     *string `json:"address" validate:"omitempty,max=500"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Website     *string `json:"website" validate:"omitempty,url"`
	AvatarURL   *string `json:"avatarUrl" validate:"omitempty,url"`
	BannerURL   *string `json:"bannerUrl" validate:"omitempty,url"`
}

// AddAgentRequest payload for a new roster member.
type AddAgentRequest struct {
	Name      string `json:"name" validate:"required,max=200"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required,max=72"`
	Contact   string `json:"contact" validate:"omitempty,max=200"`
	LicenseID string `json:"licenseId" validate:"omitempty,max=100"`
}

// SetAgentStatusRequest payload.
type SetAgentStatusRequest struct {
	Status domain.AgentStatus `json:"status" validate:"required,oneof=pending active inactive"`
}

// CompanyResponse is the public view of a company. Credentials never leave the service.
type CompanyResponse struct {
	ID          string            `json:"id"`
	CompanyName string            `json:"companyName"`
	Email       string            `json:"email"`
	Phone       string            `json:"phone,omitempty"`
	Address     string            `json:"address,omitempty"`
	Description string            `json:"description,omitempty"`
	Website     string            `json:"website,omitempty"`
	AvatarURL   string            `json:"avatarUrl,omitempty"`
	BannerURL   string            `json:"bannerUrl,omitempty"`
	Agents      []AgentResponse   `json:"agents"`
	Rating      *domain.Aggregate `json:"rating,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// AgentResponse is the public view of a roster member.
type AgentResponse struct {
	ID        string             `json:"id"`
	CompanyID string             `json:"companyId,omitempty"`
	Name      string             `json:"name"`
	Email     string             `json:"email"`
	Contact   string             `json:"contact,omitempty"`
	LicenseID string             `json:"licenseId,omitempty"`
	Status    domain.AgentStatus `json:"status"`
	Rating    *domain.Aggregate  `json:"rating,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// NewCompanyResponse renders a company and its roster.
func NewCompanyResponse(c *domain.Company) CompanyResponse {
	agents := make([]AgentResponse, 0, len(c.Agents))
	for i := range c.Agents {
		agents = append(agents, NewAgentResponse(c.ID, &c.Agents[i]))
	}
	return CompanyResponse{
		ID:          c.ID,
		CompanyName: c.Name,
		Email:       c.Email,
		Phone:       c.Phone,
		Address:     c.Address,
		Description: c.Description,
		Website:     c.Website,
		AvatarURL:   c.AvatarURL,
		BannerURL:   c.BannerURL,
		Agents:      agents,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// NewAgentResponse renders a roster member.
func NewAgentResponse(companyID string, a *domain.Agent) AgentResponse {
	return AgentResponse{
		ID:        a.ID,
		CompanyID: companyID,
		Name:      a.Name,
		Email:     a.Email,
		Contact:   a.Contact,
		LicenseID: a.LicenseID,
		Status:    a.Status,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}
