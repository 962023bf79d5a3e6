package server

import (
	"backlog/internal/models"

	"github.com/gofiber/fiber/v2"
)

// AdminAppConfig describes the running application.
type AdminAppConfig struct {
	Env    string `json:"env"`
	AppURL string `json:"app_url"`
}

// AdminAuthConfig describes the SSO integration. Secrets are never included.
type AdminAuthConfig struct {
	AdminGroup string `json:"admin_group"`
}

// AdminIGDBConfig describes the game catalog integration.
type AdminIGDBConfig struct {
	Enabled     bool `json:"enabled"`
	ClientIDSet bool `json:"client_id_set"`
}

// AdminEmailConfig describes the outbound email integration.
type AdminEmailConfig struct {
	Enabled       bool   `json:"enabled"`
	SMTPHost      string `json:"smtp_host,omitempty"`
	AdminEmailSet bool   `json:"admin_email_set"`
}

// AdminRommConfig describes the library database integration.
type AdminRommConfig struct {
	Enabled bool `json:"enabled"`
}

// AdminConfigResponse summarizes the portal's integrations and workload for
// the admin dashboard. Credential values are redacted to set/unset flags.
type AdminConfigResponse struct {
	App           AdminAppConfig                 `json:"app"`
	Auth          AdminAuthConfig                `json:"auth"`
	IGDB          AdminIGDBConfig                `json:"igdb"`
	Email         AdminEmailConfig               `json:"email"`
	Romm          AdminRommConfig                `json:"romm"`
	RequestCounts map[models.RequestStatus]int64 `json:"request_counts"`
}

// GetAdminConfig handles GET /api/admin/config
// @Summary Admin configuration overview
// @Description Reports integration status and request counts. Secrets are redacted. Admin only.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} AdminConfigResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/config [get]
func (s *Server) GetAdminConfig(c *fiber.Ctx) error {
	counts, err := s.requestService.Overview(c.Context())
	if err != nil {
		return respondAppError(c, err)
	}

	return c.JSON(AdminConfigResponse{
		App: AdminAppConfig{
			Env:    s.config.Env,
			AppURL: s.config.AppURL,
		},
		Auth: AdminAuthConfig{
			AdminGroup: s.config.AdminGroup,
		},
		IGDB: AdminIGDBConfig{
			Enabled:     s.catalog != nil,
			ClientIDSet: s.config.IGDBClientID != "",
		},
		Email: AdminEmailConfig{
			Enabled:       s.config.EmailEnabled(),
			SMTPHost:      s.config.SMTPHost,
			AdminEmailSet: s.config.AdminEmail != "",
		},
		Romm: AdminRommConfig{
			Enabled: s.inventory.Enabled(),
		},
		RequestCounts: counts,
	})
}
