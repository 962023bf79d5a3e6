package server

import (
	"backlog/internal/models"

	"github.com/gofiber/fiber/v2"
)

// catalogEnabled writes a 503 when no IGDB credentials are configured.
func (s *Server) catalogEnabled(c *fiber.Ctx) bool {
	if s.catalog == nil {
		_ = models.RespondWithError(c, fiber.StatusServiceUnavailable,
			&models.AppError{Code: "CATALOG_DISABLED", Message: "Game catalog is not configured"})
		return false
	}
	return true
}

// SearchGames handles GET /api/games/search
// @Summary Search the game catalog
// @Description Searches IGDB by name. Editions are collapsed into their parent game.
// @Tags games
// @Produce json
// @Security BearerAuth
// @Param q query string true "Search query (minimum 2 characters)"
// @Success 200 {array} catalog.Game
// @Failure 400 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /games/search [get]
func (s *Server) SearchGames(c *fiber.Ctx) error {
	if !s.catalogEnabled(c) {
		return nil
	}

	games, err := s.catalog.Search(c.Context(), c.Query("q"))
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(games)
}

// GetGameDetail handles GET /api/games/:id
// @Summary Get game detail
// @Description Fetches a single game from IGDB by id.
// @Tags games
// @Produce json
// @Security BearerAuth
// @Param id path int true "IGDB game ID"
// @Success 200 {object} catalog.Game
// @Failure 404 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /games/{id} [get]
func (s *Server) GetGameDetail(c *fiber.Ctx) error {
	if !s.catalogEnabled(c) {
		return nil
	}

	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	game, err := s.catalog.GameDetail(c.Context(), int64(id))
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(game)
}
