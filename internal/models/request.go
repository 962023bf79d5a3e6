package models

import "time"

// RequestStatus defines lifecycle states for game requests.
type RequestStatus string

const (
	// RequestStatusPending indicates the request is awaiting admin review.
	RequestStatusPending RequestStatus = "pending"
	// RequestStatusFulfilled indicates the game was added to the collection.
	RequestStatusFulfilled RequestStatus = "fulfilled"
	// RequestStatusRejected indicates the request was declined.
	RequestStatusRejected RequestStatus = "rejected"
)

// RequestStatuses lists every valid request status.
var RequestStatuses = []RequestStatus{
	RequestStatusPending,
	RequestStatusFulfilled,
	RequestStatusRejected,
}

// ParseRequestStatus returns the status matching s, or false when s is not
// a known status value.
func ParseRequestStatus(s string) (RequestStatus, bool) {
	for _, status := range RequestStatuses {
		if s == string(status) {
			return status, true
		}
	}
	return "", false
}

// Terminal reports whether the status permits no further transitions.
func (s RequestStatus) Terminal() bool {
	return s == RequestStatusFulfilled || s == RequestStatusRejected
}

// GameRequest is a user's ask to add a game+platform combination to the
// collection. Game and platform fields are a snapshot of IGDB data taken at
// submission time and are never refreshed afterwards.
type GameRequest struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	UserID         uint          `gorm:"not null;index" json:"user_id"`
	User           *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	IgdbGameID     int64         `gorm:"not null" json:"igdb_game_id"`
	GameName       string        `gorm:"size:255;not null" json:"game_name"`
	GameCoverURL   *string       `json:"game_cover_url"`
	PlatformName   string        `gorm:"size:120;not null" json:"platform_name"`
	PlatformIgdbID int64         `gorm:"not null" json:"platform_igdb_id"`
	Status         RequestStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	AdminNotes     *string       `gorm:"type:text" json:"admin_notes"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
	FulfilledAt    *time.Time    `json:"fulfilled_at"`
}

// TableName specifies the table name for GORM.
func (GameRequest) TableName() string {
	return "game_requests"
}

// RequesterInfo is the user annotation attached to requests in admin views
// and notifications.
type RequesterInfo struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}
