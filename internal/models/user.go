// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Role defines the authorization level of a user.
type Role string

const (
	// RoleAdmin may manage any content on the platform.
	RoleAdmin Role = "admin"
	// RoleAuthor may create and manage their own posts.
	RoleAuthor Role = "author"
	// RoleReader may read, like and comment but not publish.
	RoleReader Role = "reader"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAuthor, RoleReader:
		return true
	}
	return false
}

// CanPublish reports whether the role is allowed to create posts.
func (r Role) CanPublish() bool {
	return r == RoleAdmin || r == RoleAuthor
}

// Actor is the authenticated identity performing an operation.
// Every authorization check receives one; handlers build it from the
// verified token claims.
type Actor struct {
	ID   uint
	Role Role
}

// User represents a registered account.
type User struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	FirstName   string     `gorm:"size:60;not null" json:"firstname"`
	LastName    string     `gorm:"size:60;not null" json:"lastname"`
	Username    string     `gorm:"size:30;uniqueIndex;not null" json:"username"`
	Email       string     `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Password    string     `gorm:"not null" json:"-"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Role        Role       `gorm:"type:varchar(20);not null;default:'reader'" json:"role"`

	// ProfileImage references the remote asset backing the avatar.
	// A zero PublicID means no custom avatar has been uploaded.
	ProfileImage ImageAsset `gorm:"embedded;embeddedPrefix:profile_image_" json:"profile_image"`

	// Password reset state. Only the SHA-256 hash of the token is stored.
	ResetTokenHash      string     `gorm:"index" json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Posts []Post `gorm:"foreignKey:UserID" json:"posts,omitempty"`
}

// Actor returns the user's identity for authorization checks.
func (u *User) Actor() Actor {
	return Actor{ID: u.ID, Role: u.Role}
}

// UserStats summarizes a user's activity for the profile dashboard.
type UserStats struct {
	TotalPosts int64     `json:"total_posts"`
	JoinedDate time.Time `json:"joined_date"`
	LastActive time.Time `json:"last_active"`
}
