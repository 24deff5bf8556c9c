package models

import (
	"time"

	"gorm.io/gorm"
)

// EventPlayer links a catalog player into one auction event with its
// per-event auction price and queue position.
type EventPlayer struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	EventID      uint           `json:"event_id" gorm:"not null;uniqueIndex:idx_event_player"`
	PlayerID     uint           `json:"player_id" gorm:"not null;uniqueIndex:idx_event_player"`
	AuctionPrice int            `json:"auction_price" gorm:"not null"`
	OrderIndex   int            `json:"order_index" gorm:"not null;default:0"`
	Status       string         `json:"status" gorm:"not null;default:'pending'"` // pending, sold, unsold
	FinalPrice   *int           `json:"final_price"`
	SoldTo       *string        `json:"sold_to"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Player Player `json:"player,omitempty"`
}
