package server

import (
	"backlog/internal/models"

	"github.com/gofiber/fiber/v2"
)

// CollectionCheckResponse reports which platforms already own a game.
type CollectionCheckResponse struct {
	IgdbGameID      int64   `json:"igdb_game_id"`
	Owned           bool    `json:"owned"`
	PlatformIgdbIDs []int64 `json:"platform_igdb_ids"`
	Enabled         bool    `json:"enabled"`
}

// CheckCollection handles GET /api/collection/check
// @Summary Check library ownership
// @Description Reports the platforms on which the library already owns the game.
// @Tags collection
// @Produce json
// @Security BearerAuth
// @Param igdbGameId query int true "IGDB game ID"
// @Success 200 {object} CollectionCheckResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /collection/check [get]
func (s *Server) CheckCollection(c *fiber.Ctx) error {
	gameID := int64(c.QueryInt("igdbGameId", 0))
	if gameID <= 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("igdbGameId must be a positive integer"))
	}

	platforms, err := s.inventory.OwnedPlatforms(c.Context(), gameID)
	if err != nil {
		return respondAppError(c, err)
	}

	return c.JSON(CollectionCheckResponse{
		IgdbGameID:      gameID,
		Owned:           len(platforms) > 0,
		PlatformIgdbIDs: platforms,
		Enabled:         s.inventory.Enabled(),
	})
}
