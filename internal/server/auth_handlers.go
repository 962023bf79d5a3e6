package server

import (
	"strconv"
	"strings"
	"time"

	"backlog/internal/models"
	"backlog/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenTTL = 24 * time.Hour

// UserDTO is the API response model for user endpoints.
type UserDTO struct {
	ID          uint   `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	IsAdmin     bool   `json:"is_admin"`
}

func toUserDTO(u *models.User) UserDTO {
	return UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		IsAdmin:     u.IsAdmin,
	}
}

// ExchangeResponse carries the API token issued for a proxied identity.
type ExchangeResponse struct {
	Token     string  `json:"token"`
	ExpiresAt int64   `json:"expires_at"`
	User      UserDTO `json:"user"`
}

// identityFromHeaders reads the identity forwarded by the SSO proxy. The
// proxy strips these headers from client requests, so their presence means
// the proxy authenticated the caller.
func identityFromHeaders(c *fiber.Ctx) service.Identity {
	groups := []string{}
	if raw := c.Get("X-Auth-Request-Groups"); raw != "" {
		for _, g := range strings.Split(raw, ",") {
			if g = strings.TrimSpace(g); g != "" {
				groups = append(groups, g)
			}
		}
	}
	return service.Identity{
		Sub:    c.Get("X-Auth-Request-User"),
		Email:  c.Get("X-Auth-Request-Email"),
		Name:   c.Get("X-Auth-Request-Preferred-Username"),
		Groups: groups,
	}
}

// Exchange handles POST /api/auth/exchange
// @Summary Exchange proxy identity for an API token
// @Description Upserts the local user from SSO proxy headers and issues a JWT.
// @Tags auth
// @Produce json
// @Success 200 {object} ExchangeResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/exchange [post]
func (s *Server) Exchange(c *fiber.Ctx) error {
	identity := identityFromHeaders(c)

	user, err := s.userService.UpsertFromIdentity(c.Context(), identity)
	if err != nil {
		return respondAppError(c, err)
	}

	expiresAt := time.Now().Add(tokenTTL)
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(user.ID), 10),
		"iss": jwtIssuer,
		"aud": jwtAudience,
		"iat": time.Now().Unix(),
		"exp": expiresAt.Unix(),
		"jti": uuid.NewString(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return respondAppError(c, models.NewInternalError(err))
	}

	return c.JSON(ExchangeResponse{
		Token:     token,
		ExpiresAt: expiresAt.Unix(),
		User:      toUserDTO(user),
	})
}

// Me handles GET /api/auth/me
// @Summary Current user
// @Description Returns the authenticated user's profile.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserDTO
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/me [get]
func (s *Server) Me(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return nil
	}
	return c.JSON(toUserDTO(user))
}
