package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"backlog/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authTestApp(s *Server) *fiber.App {
	app := fiber.New()
	app.Post("/api/auth/exchange", s.Exchange)
	app.Get("/api/auth/me", s.AuthRequired(), s.Me)
	return app
}

func exchangeRequest(sub, email, name, groups string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/exchange", nil)
	if sub != "" {
		req.Header.Set("X-Auth-Request-User", sub)
	}
	if email != "" {
		req.Header.Set("X-Auth-Request-Email", email)
	}
	if name != "" {
		req.Header.Set("X-Auth-Request-Preferred-Username", name)
	}
	if groups != "" {
		req.Header.Set("X-Auth-Request-Groups", groups)
	}
	return req
}

func TestExchange(t *testing.T) {
	t.Run("first login creates user and issues token", func(t *testing.T) {
		s := setupHandlerTest(t)
		app := authTestApp(s)

		resp, err := app.Test(exchangeRequest("oidc|alice", "alice@example.com", "alice", "users"))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var exchange ExchangeResponse
		decodeBody(t, resp, &exchange)
		assert.NotEmpty(t, exchange.Token)
		assert.Equal(t, "alice", exchange.User.DisplayName)
		assert.False(t, exchange.User.IsAdmin)

		var stored models.User
		require.NoError(t, s.db.Where("oidc_sub = ?", "oidc|alice").First(&stored).Error)
		assert.Equal(t, "alice@example.com", stored.Email)
	})

	t.Run("admin group membership grants admin", func(t *testing.T) {
		s := setupHandlerTest(t)
		app := authTestApp(s)

		resp, err := app.Test(exchangeRequest("oidc|root", "root@example.com", "root", "users, backlog-admin"))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var exchange ExchangeResponse
		decodeBody(t, resp, &exchange)
		assert.True(t, exchange.User.IsAdmin)
	})

	t.Run("repeat login refreshes attributes without duplicating", func(t *testing.T) {
		s := setupHandlerTest(t)
		app := authTestApp(s)

		resp, err := app.Test(exchangeRequest("oidc|alice", "alice@example.com", "alice", ""))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()

		resp, err = app.Test(exchangeRequest("oidc|alice", "new@example.com", "Alice A.", ""))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()

		var count int64
		require.NoError(t, s.db.Model(&models.User{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)

		var stored models.User
		require.NoError(t, s.db.Where("oidc_sub = ?", "oidc|alice").First(&stored).Error)
		assert.Equal(t, "new@example.com", stored.Email)
		assert.Equal(t, "Alice A.", stored.DisplayName)
	})

	t.Run("missing proxy headers is unauthorized", func(t *testing.T) {
		s := setupHandlerTest(t)
		app := authTestApp(s)

		resp, err := app.Test(exchangeRequest("", "", "", ""))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestAuthRequired(t *testing.T) {
	t.Run("exchange token grants access to protected route", func(t *testing.T) {
		s := setupHandlerTest(t)
		app := authTestApp(s)

		resp, err := app.Test(exchangeRequest("oidc|alice", "alice@example.com", "alice", ""))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var exchange ExchangeResponse
		decodeBody(t, resp, &exchange)

		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+exchange.Token)
		resp, err = app.Test(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var me UserDTO
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&me))
		resp.Body.Close()
		assert.Equal(t, "alice", me.DisplayName)
	})

	t.Run("missing token is unauthorized", func(t *testing.T) {
		s := setupHandlerTest(t)
		app := authTestApp(s)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("token with wrong issuer is rejected", func(t *testing.T) {
		s := setupHandlerTest(t)
		app := authTestApp(s)

		claims := jwt.MapClaims{
			"sub": "1",
			"iss": "someone-else",
			"aud": jwtAudience,
			"exp": time.Now().Add(time.Hour).Unix(),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.JWTSecret))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("token signed with wrong secret is rejected", func(t *testing.T) {
		s := setupHandlerTest(t)
		app := authTestApp(s)

		claims := jwt.MapClaims{
			"sub": "1",
			"iss": jwtIssuer,
			"aud": jwtAudience,
			"exp": time.Now().Add(time.Hour).Unix(),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		s := setupHandlerTest(t)
		app := authTestApp(s)

		claims := jwt.MapClaims{
			"sub": "1",
			"iss": jwtIssuer,
			"aud": jwtAudience,
			"exp": time.Now().Add(-time.Hour).Unix(),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.JWTSecret))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	})
}
