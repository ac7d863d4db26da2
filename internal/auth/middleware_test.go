package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/realty-service/internal/domain"
	apperrors "github.com/spec-kit/realty-service/pkg/util"
)

func newTestApp(tm *TokenManager) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
		},
	})
	mw := NewAuthMiddleware(tm)

	app.Get("/roster", mw.Handle, RequireRoles(domain.RoleCompany, domain.RoleAdmin), func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		return c.SendString(actor.SubjectID)
	})
	app.Get("/any", func(c *fiber.Ctx) error {
		actor, err := mw.Authorize(c)
		if err != nil {
			return err
		}
		return c.SendString(string(actor.Role))
	})
	return app
}

func TestAuthMiddleware(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	app := newTestApp(tm)

	companyToken, _, err := tm.IssueToken("company-1", domain.RoleCompany, "", 0)
	require.NoError(t, err)
	agentToken, _, err := tm.IssueToken("agent-1", domain.RoleAgent, "company-1", 0)
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{name: "missing header", path: "/roster", status: http.StatusUnauthorized},
		{name: "wrong scheme", path: "/roster", header: "Basic " + companyToken, status: http.StatusUnauthorized},
		{name: "garbage token", path: "/roster", header: "Bearer abc", status: http.StatusUnauthorized},
		{name: "company allowed", path: "/roster", header: "Bearer " + companyToken, status: http.StatusOK},
		{name: "agent forbidden", path: "/roster", header: "Bearer " + agentToken, status: http.StatusForbidden},
		{name: "any role accepts agent", path: "/any", header: "Bearer " + agentToken, status: http.StatusOK},
		{name: "any role still needs token", path: "/any", status: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestCanManageCompany(t *testing.T) {
	cases := []struct {
		actor  domain.Identity
		manage bool
		remove bool
	}{
		{actor: domain.Identity{SubjectID: "c1", Role: domain.RoleCompany}, manage: true, remove: true},
		{actor: domain.Identity{SubjectID: "c2", Role: domain.RoleCompany}, manage: false, remove: false},
		{actor: domain.Identity{SubjectID: "a1", Role: domain.RoleAgent, CompanyID: "c1"}, manage: false, remove: false},
		{actor: domain.Identity{SubjectID: "op", Role: domain.RoleAdmin}, manage: true, remove: false},
		{actor: domain.Identity{SubjectID: "op", Role: domain.RoleSuperuser}, manage: true, remove: true},
	}
	for _, tc := range cases {
		actor := tc.actor
		assert.Equal(t, tc.manage, CanManageCompany(&actor, "c1"), "manage %s/%s", actor.Role, actor.SubjectID)
		assert.Equal(t, tc.remove, CanDeleteCompany(&actor, "c1"), "delete %s/%s", actor.Role, actor.SubjectID)
	}
}
