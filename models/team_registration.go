package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RegistrationRegistered = "registered"
	RegistrationApproved   = "approved"
	RegistrationRejected   = "rejected"
)

// TeamRegistration is a bidder's registration for one auction event. Team
// names are unique within an event; registrations are status-flagged, never
// deleted.
type TeamRegistration struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	EventID      uint           `json:"event_id" gorm:"not null;uniqueIndex:idx_event_team"`
	TeamName     string         `json:"team_name" gorm:"not null;uniqueIndex:idx_event_team"`
	OwnerName    string         `json:"owner_name" gorm:"not null"`
	TeamImage    string         `json:"team_image"`
	Purse        int            `json:"purse" gorm:"not null;default:0"`
	Status       string         `json:"status" gorm:"not null;default:'registered'"` // registered, approved, rejected
	UserID       uint           `json:"user_id" gorm:"not null"`
	RegisteredAt time.Time      `json:"registered_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	User User `json:"user,omitempty"`
}
