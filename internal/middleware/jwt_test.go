package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medetov/tutorhub/internal/utils"
)

func ctxWith(t *testing.T, authHeader string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestJWTAuthInjectsClaims(t *testing.T) {
	at, err := utils.NewAccessToken("secret", 42, "STUDENT", 5)
	require.NoError(t, err)

	c, rec := ctxWith(t, "Bearer "+at.Token)
	var gotUser, gotRole any
	h := JWTAuth("secret")(func(c echo.Context) error {
		gotUser = c.Get("user_id")
		gotRole = c.Get("role")
		return c.String(http.StatusOK, "ok")
	})
	require.NoError(t, h(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(42), gotUser)
	assert.Equal(t, "STUDENT", gotRole)
}

func TestJWTAuthRejectsMissingAndInvalid(t *testing.T) {
	next := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }

	c, rec := ctxWith(t, "")
	require.NoError(t, JWTAuth("secret")(next)(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	c, rec = ctxWith(t, "Bearer not-a-token")
	require.NoError(t, JWTAuth("secret")(next)(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthRejectsWrongSecret(t *testing.T) {
	at, err := utils.NewAccessToken("other", 1, "TUTOR", 5)
	require.NoError(t, err)

	c, rec := ctxWith(t, "Bearer "+at.Token)
	require.NoError(t, JWTAuth("secret")(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	next := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }

	c, rec := ctxWith(t, "")
	c.Set("role", "TUTOR")
	require.NoError(t, RequireRole("TUTOR", "STUDENT")(next)(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	c, rec = ctxWith(t, "")
	c.Set("role", "STUDENT")
	require.NoError(t, RequireRole("TUTOR")(next)(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	c, rec = ctxWith(t, "")
	require.NoError(t, RequireRole("TUTOR")(next)(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
