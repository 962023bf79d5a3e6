// Package validation contains input validation helpers for API payloads.
package validation

import (
	"fmt"
	"strings"

	"backlog/internal/models"
)

const (
	maxGameNameLength     = 255
	maxPlatformNameLength = 120
	maxAdminNotesLength   = 2000
)

// CreateRequestInput is the validated submission payload.
type CreateRequestInput struct {
	IgdbGameID     int64
	GameName       string
	GameCoverURL   *string
	PlatformName   string
	PlatformIgdbID int64
}

// ValidateCreateRequest normalizes and checks a submission in place. Names
// are trimmed before the length checks so whitespace-only values fail.
func ValidateCreateRequest(input *CreateRequestInput) error {
	input.GameName = strings.TrimSpace(input.GameName)
	input.PlatformName = strings.TrimSpace(input.PlatformName)

	if input.IgdbGameID <= 0 {
		return models.NewValidationError("igdb_game_id must be a positive integer")
	}
	if input.GameName == "" {
		return models.NewValidationError("game_name is required")
	}
	if len(input.GameName) > maxGameNameLength {
		return models.NewValidationError(fmt.Sprintf("game_name must be at most %d characters", maxGameNameLength))
	}
	if input.PlatformName == "" {
		return models.NewValidationError("platform_name is required")
	}
	if len(input.PlatformName) > maxPlatformNameLength {
		return models.NewValidationError(fmt.Sprintf("platform_name must be at most %d characters", maxPlatformNameLength))
	}
	if input.PlatformIgdbID <= 0 {
		return models.NewValidationError("platform_igdb_id must be a positive integer")
	}
	if input.GameCoverURL != nil {
		trimmed := strings.TrimSpace(*input.GameCoverURL)
		if trimmed == "" {
			input.GameCoverURL = nil
		} else {
			input.GameCoverURL = &trimmed
		}
	}
	return nil
}

// ValidateStatusFilter parses an optional status query parameter. An empty
// value means no filter.
func ValidateStatusFilter(raw string) (*models.RequestStatus, error) {
	if raw == "" {
		return nil, nil
	}
	status, ok := models.ParseRequestStatus(raw)
	if !ok {
		return nil, models.NewValidationError(fmt.Sprintf("invalid status %q", raw))
	}
	return &status, nil
}

// ValidateTransition checks a review decision payload.
func ValidateTransition(rawStatus string, adminNotes *string) (models.RequestStatus, error) {
	status, ok := models.ParseRequestStatus(rawStatus)
	if !ok || !status.Terminal() {
		return "", models.NewValidationError("status must be fulfilled or rejected")
	}
	if adminNotes != nil && len(*adminNotes) > maxAdminNotesLength {
		return "", models.NewValidationError(fmt.Sprintf("admin_notes must be at most %d characters", maxAdminNotesLength))
	}
	return status, nil
}
