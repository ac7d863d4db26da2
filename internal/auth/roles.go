package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/realty-service/internal/domain"
	apperrors "github.com/spec-kit/realty-service/pkg/util"
)

// RequireRoles ensures the actor holds one of the allowed roles.
// Must run after AuthMiddleware.Handle.
func RequireRoles(allowed ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !roleAllowed(actor.Role, allowed) {
			return apperrors.NewForbidden("role not permitted")
		}
		return c.Next()
	}
}

// CanManageCompany reports whether actor may mutate companyID and its roster.
func CanManageCompany(actor *domain.Identity, companyID string) bool {
	switch actor.Role {
	case domain.RoleCompany:
		return actor.SubjectID == companyID
	case domain.RoleAdmin, domain.RoleSuperuser:
		return true
	case domain.RoleAgent:
		return false
	default:
		return false
	}
}

// CanDeleteCompany reports whether actor may delete companyID.
func CanDeleteCompany(actor *domain.Identity, companyID string) bool {
	switch actor.Role {
	case domain.RoleCompany:
		return actor.SubjectID == companyID
	case domain.RoleSuperuser:
		return true
	case domain.RoleAdmin, domain.RoleAgent:
		return false
	default:
		return false
	}
}

func roleAllowed(role domain.Role, allowed []domain.Role) bool {
	if !role.Valid() {
		return false
	}
	if len(allowed) == 0 {
		return true
	}
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}
