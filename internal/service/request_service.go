// Package service contains the business logic for the application.
package service

import (
	"context"

	"backlog/internal/models"
	"backlog/internal/observability"
	"backlog/internal/repository"
	"backlog/internal/validation"
)

// Events receives lifecycle notifications. Implementations must not block;
// the notifier dispatches delivery on its own goroutines.
type Events interface {
	RequestCreated(req *models.GameRequest, requester models.RequesterInfo)
	RequestStatusChanged(req *models.GameRequest, requester models.RequesterInfo)
}

// noopEvents is used when no notifier is configured.
type noopEvents struct{}

func (noopEvents) RequestCreated(*models.GameRequest, models.RequesterInfo)       {}
func (noopEvents) RequestStatusChanged(*models.GameRequest, models.RequesterInfo) {}

// RequestView is a request annotated with requester identity for API
// responses and admin views.
type RequestView struct {
	models.GameRequest
	Requester models.RequesterInfo `json:"requester"`
}

// RequestService owns the request lifecycle: submission with duplicate
// suppression, listing, and admin review transitions.
type RequestService struct {
	requests repository.RequestRepository
	users    repository.UserRepository
	events   Events
}

// NewRequestService creates a new RequestService. events may be nil.
func NewRequestService(requests repository.RequestRepository, users repository.UserRepository, events Events) *RequestService {
	if events == nil {
		events = noopEvents{}
	}
	return &RequestService{requests: requests, users: users, events: events}
}

// requesterInfo resolves the display identity for a request, falling back to
// placeholders when the user row is gone.
func requesterInfo(user *models.User) models.RequesterInfo {
	if user == nil {
		return models.RequesterInfo{DisplayName: "Unknown", Email: ""}
	}
	return models.RequesterInfo{DisplayName: user.DisplayName, Email: user.Email}
}

func toView(req *models.GameRequest) RequestView {
	view := RequestView{GameRequest: *req, Requester: requesterInfo(req.User)}
	view.User = nil
	return view
}

// Create submits a new request on behalf of caller. An equivalent pending
// request from the same user wins over the submission: the existing request
// is returned inside a duplicate error, whether it was found by the pre-check
// or surfaced by the unique index under a concurrent double-submit.
func (s *RequestService) Create(ctx context.Context, caller *models.User, input validation.CreateRequestInput) (*RequestView, error) {
	if err := validation.ValidateCreateRequest(&input); err != nil {
		return nil, err
	}

	existing, err := s.requests.FindPending(ctx, caller.ID, input.IgdbGameID, input.PlatformIgdbID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		observability.DuplicateRequests.Inc()
		return nil, models.NewDuplicateRequestError(toView(existing))
	}

	req := &models.GameRequest{
		UserID:         caller.ID,
		IgdbGameID:     input.IgdbGameID,
		GameName:       input.GameName,
		GameCoverURL:   input.GameCoverURL,
		PlatformName:   input.PlatformName,
		PlatformIgdbID: input.PlatformIgdbID,
		Status:         models.RequestStatusPending,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		if err == repository.ErrDuplicatePending {
			observability.DuplicateRequests.Inc()
			winner, findErr := s.requests.FindPending(ctx, caller.ID, input.IgdbGameID, input.PlatformIgdbID)
			if findErr == nil && winner != nil {
				return nil, models.NewDuplicateRequestError(toView(winner))
			}
			return nil, models.NewDuplicateRequestError(nil)
		}
		return nil, err
	}

	observability.RequestsCreated.Inc()
	req.User = caller
	s.events.RequestCreated(req, requesterInfo(caller))

	view := toView(req)
	return &view, nil
}

// List returns requests visible to caller. Non-admins only ever see their
// own requests regardless of the userID filter; admins may scope to any user
// or see everything.
func (s *RequestService) List(ctx context.Context, caller *models.User, userID *uint, status *models.RequestStatus) ([]RequestView, error) {
	filter := repository.RequestFilter{Status: status}
	if caller.IsAdmin {
		filter.UserID = userID
	} else {
		filter.UserID = &caller.ID
	}

	requests, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	views := make([]RequestView, 0, len(requests))
	for i := range requests {
		views = append(views, toView(&requests[i]))
	}
	return views, nil
}

// GetByID returns a single request. Existence is checked before ownership,
// so callers probing foreign IDs get 404 for missing rows and 403 for rows
// they cannot see.
func (s *RequestService) GetByID(ctx context.Context, caller *models.User, id uint) (*RequestView, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin && req.UserID != caller.ID {
		return nil, models.NewForbiddenError("You do not have access to this request")
	}

	view := toView(req)
	return &view, nil
}

// Transition moves a pending request to fulfilled or rejected. The
// pending-only guard is enforced by the store's conditional update, so
// concurrent reviews resolve to exactly one winner.
func (s *RequestService) Transition(ctx context.Context, id uint, rawStatus string, adminNotes *string) (*RequestView, error) {
	status, err := validation.ValidateTransition(rawStatus, adminNotes)
	if err != nil {
		return nil, err
	}

	affected, err := s.requests.TransitionFromPending(ctx, id, status, adminNotes)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		current, readErr := s.requests.GetByID(ctx, id)
		if readErr != nil {
			return nil, readErr
		}
		return nil, models.NewInvalidTransitionError(current.Status)
	}

	observability.RequestTransitions.WithLabelValues(string(status)).Inc()

	updated, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.events.RequestStatusChanged(updated, requesterInfo(updated.User))

	view := toView(updated)
	return &view, nil
}

// Overview aggregates request counts per status for the admin dashboard.
func (s *RequestService) Overview(ctx context.Context) (map[models.RequestStatus]int64, error) {
	counts, err := s.requests.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	for _, status := range models.RequestStatuses {
		if _, ok := counts[status]; !ok {
			counts[status] = 0
		}
	}
	return counts, nil
}
