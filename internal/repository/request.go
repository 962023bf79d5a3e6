package repository

import (
	"context"
	"errors"
	"time"

	"backlog/internal/models"

	"gorm.io/gorm"
)

// RequestFilter narrows List results. Nil fields match everything.
type RequestFilter struct {
	UserID *uint
	Status *models.RequestStatus
}

// RequestRepository defines persistence operations for game requests.
type RequestRepository interface {
	Create(ctx context.Context, req *models.GameRequest) error
	FindPending(ctx context.Context, userID uint, igdbGameID, platformIgdbID int64) (*models.GameRequest, error)
	List(ctx context.Context, filter RequestFilter) ([]models.GameRequest, error)
	GetByID(ctx context.Context, id uint) (*models.GameRequest, error)
	TransitionFromPending(ctx context.Context, id uint, status models.RequestStatus, adminNotes *string) (int64, error)
	CountByStatus(ctx context.Context) (map[models.RequestStatus]int64, error)
}

type requestRepository struct {
	db *gorm.DB
}

// NewRequestRepository returns a new RequestRepository implementation.
func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

// ErrDuplicatePending is returned by Create when the pending dedup index
// rejects the row. Callers re-read the conflicting request to report it.
var ErrDuplicatePending = errors.New("duplicate pending request")

func (r *requestRepository) Create(ctx context.Context, req *models.GameRequest) error {
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		if isUniqueConstraintError(err) {
			return ErrDuplicatePending
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *requestRepository) FindPending(ctx context.Context, userID uint, igdbGameID, platformIgdbID int64) (*models.GameRequest, error) {
	var req models.GameRequest
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND igdb_game_id = ? AND platform_igdb_id = ? AND status = ?",
			userID, igdbGameID, platformIgdbID, models.RequestStatusPending).
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &req, nil
}

// List returns requests matching the filter, newest first. The requester is
// left-joined so requests whose user row has been deleted still appear; the
// service substitutes fallback requester info for those.
func (r *requestRepository) List(ctx context.Context, filter RequestFilter) ([]models.GameRequest, error) {
	var requests []models.GameRequest

	query := r.db.WithContext(ctx).Joins("User")
	if filter.UserID != nil {
		query = query.Where("game_requests.user_id = ?", *filter.UserID)
	}
	if filter.Status != nil {
		query = query.Where("game_requests.status = ?", *filter.Status)
	}

	err := query.
		Order("game_requests.created_at DESC").
		Order("game_requests.id DESC").
		Find(&requests).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return requests, nil
}

func (r *requestRepository) GetByID(ctx context.Context, id uint) (*models.GameRequest, error) {
	var req models.GameRequest
	err := r.db.WithContext(ctx).Joins("User").First(&req, "game_requests.id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Request", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &req, nil
}

// TransitionFromPending atomically moves a request out of pending. The status
// guard lives in the WHERE clause so two concurrent reviews cannot both
// succeed; the returned count is 0 when the request was missing or already
// terminal and 1 when this call won.
func (r *requestRepository) TransitionFromPending(ctx context.Context, id uint, status models.RequestStatus, adminNotes *string) (int64, error) {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if adminNotes != nil {
		updates["admin_notes"] = *adminNotes
	}
	if status == models.RequestStatusFulfilled {
		updates["fulfilled_at"] = time.Now()
	} else {
		updates["fulfilled_at"] = nil
	}

	result := r.db.WithContext(ctx).
		Model(&models.GameRequest{}).
		Where("id = ? AND status = ?", id, models.RequestStatusPending).
		Updates(updates)
	if result.Error != nil {
		return 0, models.NewInternalError(result.Error)
	}
	return result.RowsAffected, nil
}

func (r *requestRepository) CountByStatus(ctx context.Context) (map[models.RequestStatus]int64, error) {
	type row struct {
		Status models.RequestStatus
		Total  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.GameRequest{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Find(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	counts := make(map[models.RequestStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Total
	}
	return counts, nil
}
