package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-pos-inventory/internal/model"
	"go-pos-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuth struct {
	service.AuthService
	actor *model.Actor
	privs []string
	err   error
}

func (s stubAuth) Authenticate(context.Context, string) (*model.Actor, []string, error) {
	return s.actor, s.privs, s.err
}

func newApp(auth service.AuthService) *fiber.App {
	app := fiber.New()
	app.Get("/sales", RequireAuth(auth), RequirePrivilege(model.PrivSaleView), func(c *fiber.Ctx) error {
		return c.SendString(Actor(c).Username)
	})
	app.Get("/either", RequireAuth(auth), RequireAnyPrivilege(model.PrivReportView, model.PrivSaleView), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func call(t *testing.T, app *fiber.App, path, authHeader string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestRequireAuth(t *testing.T) {
	actor := &model.Actor{UserID: uuid.New(), Username: "sam", Role: model.RoleStaff}

	ok := newApp(stubAuth{actor: actor, privs: []string{model.PrivSaleView}})
	assert.Equal(t, http.StatusOK, call(t, ok, "/sales", "Bearer token"))
	assert.Equal(t, http.StatusUnauthorized, call(t, ok, "/sales", ""))
	assert.Equal(t, http.StatusUnauthorized, call(t, ok, "/sales", "Token abc"))

	replaced := newApp(stubAuth{err: service.ErrSessionReplaced})
	assert.Equal(t, http.StatusUnauthorized, call(t, replaced, "/sales", "Bearer token"))

	busy := newApp(stubAuth{err: service.ErrTransientStore})
	assert.Equal(t, http.StatusServiceUnavailable, call(t, busy, "/sales", "Bearer token"))
}

func TestRequirePrivilege(t *testing.T) {
	actor := &model.Actor{UserID: uuid.New(), Username: "sam"}

	none := newApp(stubAuth{actor: actor, privs: []string{model.PrivRequestCreate}})
	assert.Equal(t, http.StatusForbidden, call(t, none, "/sales", "Bearer token"))
	assert.Equal(t, http.StatusForbidden, call(t, none, "/either", "Bearer token"))

	reports := newApp(stubAuth{actor: actor, privs: []string{model.PrivReportView}})
	assert.Equal(t, http.StatusNoContent, call(t, reports, "/either", "Bearer token"))
}
