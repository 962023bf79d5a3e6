package server

import (
	"errors"
	"net/http"
	"testing"

	"backlog/internal/inventory"
	"backlog/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAdminConfig(t *testing.T) {
	s := setupHandlerTest(t)
	s.config.AdminGroup = "backlog-admin"
	alice := createTestUser(t, s, "alice", false)
	admin := createTestUser(t, s, "admin", true)

	require.NoError(t, s.db.Create(&models.GameRequest{
		UserID: alice.ID, IgdbGameID: 100, GameName: "Game",
		PlatformName: "PC", PlatformIgdbID: 6, Status: models.RequestStatusPending,
	}).Error)

	adminApp := func(userID uint) *fiber.App {
		app := fiber.New()
		app.Use(func(c *fiber.Ctx) error {
			c.Locals("userID", userID)
			return c.Next()
		})
		app.Get("/api/admin/config", s.AdminRequired(), s.GetAdminConfig)
		return app
	}

	t.Run("admin gets overview", func(t *testing.T) {
		resp := doJSON(t, adminApp(admin.ID), http.MethodGet, "/api/admin/config", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var overview AdminConfigResponse
		decodeBody(t, resp, &overview)
		assert.Equal(t, "test", overview.App.Env)
		assert.False(t, overview.IGDB.Enabled)
		assert.False(t, overview.IGDB.ClientIDSet)
		assert.False(t, overview.Romm.Enabled)
		assert.False(t, overview.Email.Enabled)
		assert.Equal(t, "backlog-admin", overview.Auth.AdminGroup)
		assert.Equal(t, int64(1), overview.RequestCounts[models.RequestStatusPending])
		assert.Equal(t, int64(0), overview.RequestCounts[models.RequestStatusFulfilled])
	})

	t.Run("non-admin is forbidden", func(t *testing.T) {
		resp := doJSON(t, adminApp(alice.ID), http.MethodGet, "/api/admin/config", nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestCheckCollection(t *testing.T) {
	s := setupHandlerTest(t)
	user := createTestUser(t, s, "alice", false)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", user.ID)
		return c.Next()
	})
	app.Get("/api/collection/check", s.CheckCollection)

	t.Run("no library configured reports nothing owned", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/collection/check?igdbGameId=1020", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var check CollectionCheckResponse
		decodeBody(t, resp, &check)
		assert.False(t, check.Owned)
		assert.False(t, check.Enabled)
		assert.Empty(t, check.PlatformIgdbIDs)
	})

	t.Run("missing game id returns 400", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/collection/check", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("library failure returns 502", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		mock.ExpectQuery("SELECT DISTINCT").WillReturnError(errors.New("connection refused"))
		s.inventory = inventory.NewCheckerWithDB(db)

		resp := doJSON(t, app, http.MethodGet, "/api/collection/check?igdbGameId=1020", nil)
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		resp.Body.Close()
	})
}
