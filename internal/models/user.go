// Package models contains data structures for the application's domain models.
package models

import "time"

// User is a portal member established through the identity exchange.
// Profile fields mirror the upstream identity provider and are refreshed
// on every exchange; the lifecycle engine never mutates users.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OIDCSub     string    `gorm:"column:oidc_sub;size:255;not null;uniqueIndex" json:"-"`
	Email       string    `gorm:"not null" json:"email"`
	DisplayName string    `gorm:"size:120;not null" json:"display_name"`
	IsAdmin     bool      `gorm:"not null;default:false" json:"is_admin"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
