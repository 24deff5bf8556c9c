package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	EventStatusDraft  = "draft"
	EventStatusActive = "active"
	EventStatusPaused = "paused"
	EventStatusEnded  = "ended"
)

type AuctionEvent struct {
	ID               uint           `json:"id" gorm:"primaryKey"`
	EventName        string         `json:"event_name" gorm:"uniqueIndex;not null"`
	EventDescription string         `json:"event_description"`
	StartTime        *time.Time     `json:"start_time"`
	Status           string         `json:"status" gorm:"not null;default:'draft'"` // draft, active, paused, ended
	MaxPlayers       int            `json:"max_players" gorm:"default:0"`
	MaxBidders       int            `json:"max_bidders" gorm:"not null;default:8"`
	TeamPurseDefault int            `json:"team_purse_default" gorm:"not null;default:0"`
	TimerSeconds     int            `json:"timer_seconds" gorm:"not null;default:60"`
	BidResetSeconds  int            `json:"bid_reset_seconds" gorm:"not null;default:0"` // 0 means reset to the full window
	RandomizeOrder   bool           `json:"randomize_order" gorm:"not null;default:false"`
	IsLive           bool           `json:"is_live" gorm:"not null;default:false"`
	IsActive         bool           `json:"is_active" gorm:"not null;default:false"` // a player is currently on the block
	IsComplete       bool           `json:"is_complete" gorm:"not null;default:false"`
	CurrentPlayerID  *uint          `json:"current_player_id"`
	CurrentBid       int            `json:"current_bid" gorm:"not null;default:0"`
	Timer            int            `json:"timer" gorm:"not null;default:60"`
	CreatedByID      uint           `json:"created_by_id" gorm:"not null"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	CreatedBy     User               `json:"created_by,omitempty" gorm:"foreignKey:CreatedByID"`
	Registrations []TeamRegistration `json:"registered_bidders,omitempty" gorm:"foreignKey:EventID"`
	EventPlayers  []EventPlayer      `json:"event_players,omitempty" gorm:"foreignKey:EventID"`
}
