package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"backlog/internal/cache"
	"backlog/internal/config"
	"backlog/internal/database"
	"backlog/internal/models"
	"backlog/internal/repository"
	"backlog/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupHandlerTest(t *testing.T) *Server {
	t.Helper()
	cache.SetClient(nil)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{
		Env:        "test",
		JWTSecret:  "test-secret",
		AdminGroup: "backlog-admin",
	}

	userRepo := repository.NewUserRepository(db)
	requestRepo := repository.NewRequestRepository(db)

	s := &Server{
		config:      cfg,
		db:          db,
		userRepo:    userRepo,
		requestRepo: requestRepo,
	}
	s.userService = service.NewUserService(userRepo, cfg.AdminGroup)
	s.requestService = service.NewRequestService(requestRepo, userRepo, nil)
	return s
}

func createTestUser(t *testing.T, s *Server, name string, admin bool) *models.User {
	t.Helper()
	user := &models.User{
		OIDCSub:     "sub-" + name,
		Email:       name + "@example.com",
		DisplayName: name,
		IsAdmin:     admin,
	}
	require.NoError(t, s.db.Create(user).Error)
	return user
}

// requestTestApp wires the request routes with the caller pre-authenticated.
func requestTestApp(s *Server, userID uint) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", userID)
		return c.Next()
	})
	app.Post("/api/requests", s.CreateRequest)
	app.Get("/api/requests", s.GetRequests)
	app.Get("/api/requests/:id", s.GetRequest)
	app.Patch("/api/requests/:id", s.AdminRequired(), s.UpdateRequestStatus)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func validPayload() CreateRequestPayload {
	return CreateRequestPayload{
		IgdbGameID:     1020,
		GameName:       "Grand Theft Auto V",
		PlatformName:   "PlayStation 5",
		PlatformIgdbID: 167,
	}
}

func TestCreateRequest(t *testing.T) {
	t.Run("valid submission returns 201", func(t *testing.T) {
		s := setupHandlerTest(t)
		user := createTestUser(t, s, "alice", false)
		app := requestTestApp(s, user.ID)

		resp := doJSON(t, app, http.MethodPost, "/api/requests", validPayload())
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var view service.RequestView
		decodeBody(t, resp, &view)
		assert.Equal(t, models.RequestStatusPending, view.Status)
		assert.Equal(t, user.ID, view.UserID)
		assert.Equal(t, "alice", view.Requester.DisplayName)
	})

	t.Run("duplicate pending returns 409 with existing request", func(t *testing.T) {
		s := setupHandlerTest(t)
		user := createTestUser(t, s, "alice", false)
		app := requestTestApp(s, user.ID)

		resp := doJSON(t, app, http.MethodPost, "/api/requests", validPayload())
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()

		resp = doJSON(t, app, http.MethodPost, "/api/requests", validPayload())
		require.Equal(t, http.StatusConflict, resp.StatusCode)

		var errResp models.ErrorResponse
		decodeBody(t, resp, &errResp)
		assert.Equal(t, "DUPLICATE_REQUEST", errResp.Code)
		require.NotNil(t, errResp.ExistingRequest)
	})

	t.Run("same game different platform is allowed", func(t *testing.T) {
		s := setupHandlerTest(t)
		user := createTestUser(t, s, "alice", false)
		app := requestTestApp(s, user.ID)

		resp := doJSON(t, app, http.MethodPost, "/api/requests", validPayload())
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()

		other := validPayload()
		other.PlatformIgdbID = 6
		other.PlatformName = "PC (Microsoft Windows)"
		resp = doJSON(t, app, http.MethodPost, "/api/requests", other)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("rejected request does not block resubmission", func(t *testing.T) {
		s := setupHandlerTest(t)
		user := createTestUser(t, s, "alice", false)
		app := requestTestApp(s, user.ID)

		old := &models.GameRequest{
			UserID: user.ID, IgdbGameID: 1020, GameName: "Grand Theft Auto V",
			PlatformName: "PlayStation 5", PlatformIgdbID: 167,
			Status: models.RequestStatusRejected,
		}
		require.NoError(t, s.db.Create(old).Error)

		resp := doJSON(t, app, http.MethodPost, "/api/requests", validPayload())
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("invalid payload returns 400", func(t *testing.T) {
		s := setupHandlerTest(t)
		user := createTestUser(t, s, "alice", false)
		app := requestTestApp(s, user.ID)

		payload := validPayload()
		payload.GameName = "   "
		resp := doJSON(t, app, http.MethodPost, "/api/requests", payload)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestGetRequests(t *testing.T) {
	s := setupHandlerTest(t)
	alice := createTestUser(t, s, "alice", false)
	bob := createTestUser(t, s, "bob", false)
	admin := createTestUser(t, s, "admin", true)

	seed := func(userID uint, gameID int64, status models.RequestStatus) {
		require.NoError(t, s.db.Create(&models.GameRequest{
			UserID: userID, IgdbGameID: gameID, GameName: "Game",
			PlatformName: "PC", PlatformIgdbID: 6, Status: status,
		}).Error)
	}
	seed(alice.ID, 100, models.RequestStatusPending)
	seed(alice.ID, 200, models.RequestStatusFulfilled)
	seed(bob.ID, 300, models.RequestStatusPending)

	t.Run("non-admin sees only own requests", func(t *testing.T) {
		app := requestTestApp(s, alice.ID)
		resp := doJSON(t, app, http.MethodGet, "/api/requests", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var views []service.RequestView
		decodeBody(t, resp, &views)
		require.Len(t, views, 2)
		for _, v := range views {
			assert.Equal(t, alice.ID, v.UserID)
		}
	})

	t.Run("non-admin cannot widen scope with user_id", func(t *testing.T) {
		app := requestTestApp(s, alice.ID)
		resp := doJSON(t, app, http.MethodGet, "/api/requests?user_id=2", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var views []service.RequestView
		decodeBody(t, resp, &views)
		for _, v := range views {
			assert.Equal(t, alice.ID, v.UserID)
		}
	})

	t.Run("admin sees everything", func(t *testing.T) {
		app := requestTestApp(s, admin.ID)
		resp := doJSON(t, app, http.MethodGet, "/api/requests", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var views []service.RequestView
		decodeBody(t, resp, &views)
		assert.Len(t, views, 3)
	})

	t.Run("admin can filter by user and status", func(t *testing.T) {
		app := requestTestApp(s, admin.ID)
		resp := doJSON(t, app, http.MethodGet, "/api/requests?user_id=1&status=pending", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var views []service.RequestView
		decodeBody(t, resp, &views)
		require.Len(t, views, 1)
		assert.Equal(t, int64(100), views[0].IgdbGameID)
	})

	t.Run("invalid status filter returns 400", func(t *testing.T) {
		app := requestTestApp(s, admin.ID)
		resp := doJSON(t, app, http.MethodGet, "/api/requests?status=bogus", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestGetRequest(t *testing.T) {
	s := setupHandlerTest(t)
	alice := createTestUser(t, s, "alice", false)
	bob := createTestUser(t, s, "bob", false)
	admin := createTestUser(t, s, "admin", true)

	req := &models.GameRequest{
		UserID: alice.ID, IgdbGameID: 100, GameName: "Game",
		PlatformName: "PC", PlatformIgdbID: 6, Status: models.RequestStatusPending,
	}
	require.NoError(t, s.db.Create(req).Error)

	t.Run("owner can fetch", func(t *testing.T) {
		app := requestTestApp(s, alice.ID)
		resp := doJSON(t, app, http.MethodGet, "/api/requests/1", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("admin can fetch any", func(t *testing.T) {
		app := requestTestApp(s, admin.ID)
		resp := doJSON(t, app, http.MethodGet, "/api/requests/1", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("foreign request returns 403", func(t *testing.T) {
		app := requestTestApp(s, bob.ID)
		resp := doJSON(t, app, http.MethodGet, "/api/requests/1", nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("missing request returns 404 before ownership", func(t *testing.T) {
		app := requestTestApp(s, bob.ID)
		resp := doJSON(t, app, http.MethodGet, "/api/requests/999", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("garbage id returns 400", func(t *testing.T) {
		app := requestTestApp(s, alice.ID)
		resp := doJSON(t, app, http.MethodGet, "/api/requests/abc", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestUpdateRequestStatus(t *testing.T) {
	t.Run("admin fulfills a pending request", func(t *testing.T) {
		s := setupHandlerTest(t)
		alice := createTestUser(t, s, "alice", false)
		admin := createTestUser(t, s, "admin", true)

		req := &models.GameRequest{
			UserID: alice.ID, IgdbGameID: 100, GameName: "Game",
			PlatformName: "PC", PlatformIgdbID: 6, Status: models.RequestStatusPending,
		}
		require.NoError(t, s.db.Create(req).Error)

		app := requestTestApp(s, admin.ID)
		notes := "added"
		resp := doJSON(t, app, http.MethodPatch, "/api/requests/1", UpdateRequestStatusPayload{
			Status: "fulfilled", AdminNotes: &notes,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var view service.RequestView
		decodeBody(t, resp, &view)
		assert.Equal(t, models.RequestStatusFulfilled, view.Status)
		assert.NotNil(t, view.FulfilledAt)
		require.NotNil(t, view.AdminNotes)
		assert.Equal(t, "added", *view.AdminNotes)
	})

	t.Run("non-admin is forbidden", func(t *testing.T) {
		s := setupHandlerTest(t)
		alice := createTestUser(t, s, "alice", false)

		app := requestTestApp(s, alice.ID)
		resp := doJSON(t, app, http.MethodPatch, "/api/requests/1", UpdateRequestStatusPayload{Status: "fulfilled"})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("second decision returns 409", func(t *testing.T) {
		s := setupHandlerTest(t)
		alice := createTestUser(t, s, "alice", false)
		admin := createTestUser(t, s, "admin", true)

		req := &models.GameRequest{
			UserID: alice.ID, IgdbGameID: 100, GameName: "Game",
			PlatformName: "PC", PlatformIgdbID: 6, Status: models.RequestStatusPending,
		}
		require.NoError(t, s.db.Create(req).Error)

		app := requestTestApp(s, admin.ID)
		resp := doJSON(t, app, http.MethodPatch, "/api/requests/1", UpdateRequestStatusPayload{Status: "fulfilled"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()

		resp = doJSON(t, app, http.MethodPatch, "/api/requests/1", UpdateRequestStatusPayload{Status: "rejected"})
		require.Equal(t, http.StatusConflict, resp.StatusCode)

		var errResp models.ErrorResponse
		decodeBody(t, resp, &errResp)
		assert.Equal(t, "INVALID_TRANSITION", errResp.Code)
	})

	t.Run("missing request returns 404", func(t *testing.T) {
		s := setupHandlerTest(t)
		admin := createTestUser(t, s, "admin", true)

		app := requestTestApp(s, admin.ID)
		resp := doJSON(t, app, http.MethodPatch, "/api/requests/42", UpdateRequestStatusPayload{Status: "rejected"})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("pending is not a valid decision", func(t *testing.T) {
		s := setupHandlerTest(t)
		alice := createTestUser(t, s, "alice", false)
		admin := createTestUser(t, s, "admin", true)

		req := &models.GameRequest{
			UserID: alice.ID, IgdbGameID: 100, GameName: "Game",
			PlatformName: "PC", PlatformIgdbID: 6, Status: models.RequestStatusPending,
		}
		require.NoError(t, s.db.Create(req).Error)

		app := requestTestApp(s, admin.ID)
		resp := doJSON(t, app, http.MethodPatch, "/api/requests/1", UpdateRequestStatusPayload{Status: "pending"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})
}
