package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/realty-service/internal/domain"
	apperrors "github.com/spec-kit/realty-service/pkg/util"
)

const actorKey = "auth_actor"

// AuthMiddleware validates bearer tokens and attaches the actor identity.
type AuthMiddleware struct {
	tokens *TokenManager
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	identity, err := m.identify(c)
	if err != nil {
		return err
	}
	c.Locals(actorKey, identity)
	return c.Next()
}

// Authorize validates the request token and checks its role against allowed.
// An empty allowed set accepts any valid role.
func (m *AuthMiddleware) Authorize(c *fiber.Ctx, allowed ...domain.Role) (*domain.Identity, error) {
	identity, ok := ActorFromContext(c)
	if !ok {
		var err error
		if identity, err = m.identify(c); err != nil {
			return nil, err
		}
		c.Locals(actorKey, identity)
	}
	if !roleAllowed(identity.Role, allowed) {
		return nil, apperrors.NewForbidden("role not permitted")
	}
	return identity, nil
}

func (m *AuthMiddleware) identify(c *fiber.Ctx) (*domain.Identity, error) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return nil, apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return nil, apperrors.NewUnauthorized("invalid authorization header")
	}

	identity, err := m.tokens.ValidateToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid token")
	}
	return identity, nil
}

// ActorFromContext retrieves the authenticated actor.
func ActorFromContext(c *fiber.Ctx) (*domain.Identity, bool) {
	val := c.Locals(actorKey)
	if val == nil {
		return nil, false
	}
	identity, ok := val.(*domain.Identity)
	return identity, ok
}
