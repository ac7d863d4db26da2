package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/realty-service/internal/api/dto"
	"github.com/spec-kit/realty-service/internal/auth"
	"github.com/spec-kit/realty-service/internal/service"
	apperrors "github.com/spec-kit/realty-service/pkg/util"
)

// CompanyHandler exposes company identity endpoints.
type CompanyHandler struct {
	companies *service.CompanyService
}

// NewCompanyHandler constructs handler.
func NewCompanyHandler(companies *service.CompanyService) *CompanyHandler {
	return &CompanyHandler{companies: companies}
}

// Create handles POST /companies.
func (h *CompanyHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateCompanyRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	company, err := h.companies.CreateCompany(c.UserContext(), service.CreateCompanyInput{
		Name:        req.CompanyName,
		Email:       req.Email,
		Password:    req.Password,
		Phone:       req.Phone,
		Address:     req.Address,
		Description: req.Description,
		Website:     req.Website,
		AvatarURL:   req.AvatarURL,
		BannerURL:   req.BannerURL,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewCompanyResponse(company)})
}

// Get handles GET /companies/:id.
func (h *CompanyHandler) Get(c *fiber.Ctx) error {
	profile, err := h.companies.GetCompanyProfile(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	resp := dto.NewCompanyResponse(profile.Company)
	resp.Rating = &profile.Aggregate
	return c.JSON(fiber.Map{"data": resp})
}

// Update handles PATCH /companies/:id.
func (h *CompanyHandler) Update(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	id := c.Params("id")
	if !auth.CanManageCompany(actor, id) {
		return apperrors.NewForbidden("cannot modify this company")
	}

	var req dto.UpdateCompanyRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	company, err := h.companies.UpdateCompany(c.UserContext(), actor, id, service.UpdateCompanyInput{
		Name:        req.CompanyName,
		Email:       req.Email,
		Password:    req.Password,
		Phone:       req.Phone,
		Address:     req.Address,
		Description: req.Description,
		Website:     req.Website,
		AvatarURL:   req.AvatarURL,
		BannerURL:   req.BannerURL,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCompanyResponse(company)})
}

// Delete handles DELETE /companies/:id.
func (h *CompanyHandler) Delete(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	id := c.Params("id")
	if !auth.CanDeleteCompany(actor, id) {
		return apperrors.NewForbidden("cannot delete this company")
	}
	if err := h.companies.DeleteCompany(c.UserContext(), actor, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
