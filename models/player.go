package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	AuctionStatusPending = "pending"
	AuctionStatusSold    = "sold"
	AuctionStatusUnsold  = "unsold"
)

type PlayerStats struct {
	Matches    int     `json:"matches" gorm:"default:0"`
	Runs       int     `json:"runs" gorm:"default:0"`
	Wickets    int     `json:"wickets" gorm:"default:0"`
	Average    float64 `json:"average" gorm:"default:0"`
	StrikeRate float64 `json:"strike_rate" gorm:"default:0"`
}

type Player struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	Name          string         `json:"name" gorm:"not null"`
	Age           int            `json:"age" gorm:"not null"`
	Country       string         `json:"country" gorm:"not null"`
	Role          string         `json:"role" gorm:"not null"` // Batsman, Bowler, All-rounder, Wicket-keeper, Captain
	BattingStyle  string         `json:"batting_style" gorm:"not null"`
	BowlingStyle  string         `json:"bowling_style" gorm:"default:'None'"`
	BasePrice     int            `json:"base_price" gorm:"not null"`
	Image         string         `json:"image"`
	Stats         PlayerStats    `json:"stats" gorm:"embedded;embeddedPrefix:stat_"`
	PreviousTeam  string         `json:"previous_team"`
	IsActive      bool           `json:"is_active" gorm:"not null;default:true"`
	AuctionStatus string         `json:"auction_status" gorm:"not null;default:'pending'"` // pending, sold, unsold
	SoldTo        *string        `json:"sold_to"`
	FinalPrice    *int           `json:"final_price"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
}
