package models

import (
	"time"

	"gorm.io/gorm"
)

// Bid is the durable record of one accepted bid.
type Bid struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	EventID   uint           `json:"event_id" gorm:"not null;index:idx_bid_event_player"`
	PlayerID  uint           `json:"player_id" gorm:"not null;index:idx_bid_event_player"`
	BidderID  uint           `json:"bidder_id" gorm:"not null"`
	TeamName  string         `json:"team_name" gorm:"not null"`
	Amount    int            `json:"amount" gorm:"not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
