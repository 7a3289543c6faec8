package serverutils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, userId string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": userId})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func newProtectedApp(secret string) (*fiber.App, *uuid.UUID) {
	var gotUser uuid.UUID
	app := fiber.New()
	app.Use(JwtMiddleware(secret))
	app.Get("/", func(ctx *fiber.Ctx) error {
		id, err := UserIdFromLocals(ctx)
		if err != nil {
			return err
		}
		gotUser = id
		return ctx.SendStatus(fiber.StatusOK)
	})
	return app, &gotUser
}

func TestJwtMiddlewareAcceptsConfiguredSecret(t *testing.T) {
	userId := uuid.New()
	app, gotUser := newProtectedApp("configured-secret")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "configured-secret", userId.String()))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, userId, *gotUser)
}

func TestJwtMiddlewareRejectsWrongSecret(t *testing.T) {
	app, _ := newProtectedApp("configured-secret")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "other-secret", uuid.NewString()))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestJwtMiddlewareRejectsMissingToken(t *testing.T) {
	app, _ := newProtectedApp("configured-secret")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
