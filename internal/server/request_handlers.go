package server

import (
	"backlog/internal/models"
	"backlog/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// CreateRequestPayload is the submission body for a new game request.
type CreateRequestPayload struct {
	IgdbGameID     int64   `json:"igdb_game_id"`
	GameName       string  `json:"game_name"`
	GameCoverURL   *string `json:"game_cover_url"`
	PlatformName   string  `json:"platform_name"`
	PlatformIgdbID int64   `json:"platform_igdb_id"`
}

// UpdateRequestStatusPayload is the admin review decision body.
type UpdateRequestStatusPayload struct {
	Status     string  `json:"status"`
	AdminNotes *string `json:"admin_notes"`
}

// CreateRequest handles POST /api/requests
// @Summary Submit a game request
// @Description Creates a pending request. An equivalent pending request returns 409 with the existing one.
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateRequestPayload true "Request details"
// @Success 201 {object} service.RequestView
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /requests [post]
func (s *Server) CreateRequest(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	var payload CreateRequestPayload
	if err := c.BodyParser(&payload); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	view, err := s.requestService.Create(c.Context(), user, validation.CreateRequestInput{
		IgdbGameID:     payload.IgdbGameID,
		GameName:       payload.GameName,
		GameCoverURL:   payload.GameCoverURL,
		PlatformName:   payload.PlatformName,
		PlatformIgdbID: payload.PlatformIgdbID,
	})
	if err != nil {
		return respondAppError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(view)
}

// GetRequests handles GET /api/requests
// @Summary List game requests
// @Description Lists requests. Non-admins only see their own; admins may filter by user_id and status.
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param user_id query int false "Filter by requester (admin only)"
// @Param status query string false "Filter by status" Enums(pending, fulfilled, rejected)
// @Success 200 {array} service.RequestView
// @Failure 400 {object} models.ErrorResponse
// @Router /requests [get]
func (s *Server) GetRequests(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	status, err := validation.ValidateStatusFilter(c.Query("status"))
	if err != nil {
		return respondAppError(c, err)
	}

	var userID *uint
	if raw := c.QueryInt("user_id", 0); raw > 0 {
		id := uint(raw)
		userID = &id
	}

	views, err := s.requestService.List(c.Context(), user, userID, status)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(views)
}

// GetRequest handles GET /api/requests/:id
// @Summary Get a game request
// @Description Fetches a single request. Owners and admins only.
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param id path int true "Request ID"
// @Success 200 {object} service.RequestView
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /requests/{id} [get]
func (s *Server) GetRequest(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	view, err := s.requestService.GetByID(c.Context(), user, id)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(view)
}

// UpdateRequestStatus handles PATCH /api/requests/:id
// @Summary Review a game request
// @Description Moves a pending request to fulfilled or rejected. Admin only.
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Request ID"
// @Param decision body UpdateRequestStatusPayload true "Review decision"
// @Success 200 {object} service.RequestView
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /requests/{id} [patch]
func (s *Server) UpdateRequestStatus(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var payload UpdateRequestStatusPayload
	if err := c.BodyParser(&payload); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	view, err := s.requestService.Transition(c.Context(), id, payload.Status, payload.AdminNotes)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(view)
}
