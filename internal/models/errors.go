package models

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error           string      `json:"error"`
	Code            string      `json:"code,omitempty"`
	Details         string      `json:"details,omitempty"`
	ExistingRequest interface{} `json:"existing_request,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
	// Conflict carries the entity a duplicate submission collided with so
	// handlers can return it to the caller.
	Conflict interface{}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    "VALIDATION_ERROR",
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    "FORBIDDEN",
		Message: message,
	}
}

// NewDuplicateRequestError signals that an equivalent request is still
// pending. conflict is the existing request shown back to the caller.
func NewDuplicateRequestError(conflict interface{}) *AppError {
	return &AppError{
		Code:     "DUPLICATE_REQUEST",
		Message:  "You already have a pending request for this game on this platform",
		Conflict: conflict,
	}
}

// NewInvalidTransitionError signals that a request is no longer pending and
// cannot be moved to another status.
func NewInvalidTransitionError(status RequestStatus) *AppError {
	return &AppError{
		Code:    "INVALID_TRANSITION",
		Message: fmt.Sprintf("Only pending requests can be updated (current status: %s)", status),
	}
}

// NewUpstreamError signals that a dependency (IGDB, the library database)
// failed while serving the request.
func NewUpstreamError(service string, err error) *AppError {
	return &AppError{
		Code:    "UPSTREAM_ERROR",
		Message: fmt.Sprintf("The %s service is currently unavailable", service),
		Err:     err,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "Internal server error",
		Err:     err,
	}
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	if appErr, ok := err.(*AppError); ok {
		response = ErrorResponse{
			Error:           appErr.Message,
			Code:            appErr.Code,
			ExistingRequest: appErr.Conflict,
		}
		if appErr.Err != nil {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}
