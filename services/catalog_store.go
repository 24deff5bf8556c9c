package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cricketauction/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const liveStateKey = "auction:live"

// Resolution is the final outcome written back for one player's auction.
type Resolution struct {
	Sold       bool
	Team       string
	FinalPrice int
}

// LiveAuctionData is everything the core needs to (re)build state for the
// live event: the event with its registrations, and the event's players
// split by auction status.
type LiveAuctionData struct {
	Event     models.AuctionEvent
	Remaining []models.Player
	Sold      []models.Player
	Unsold    []models.Player
}

// CatalogStore is the core's view of the persistence layer. AuctionService
// only ever touches players and events through it, which keeps resolution
// writes in one place and lets tests swap in a fake.
type CatalogStore interface {
	LoadLiveAuction() (*LiveAuctionData, error)
	ResolvePlayer(eventID, playerID uint, res Resolution) error
	RecordBid(bid *models.Bid) error
	UpdateEventAuctionFields(eventID uint, currentPlayerID *uint, currentBid, timer int, isActive bool) error
	MarkEventComplete(eventID uint) error
	SaveLiveState(state *AuctionState) error
	LoadLiveState() (*AuctionState, error)
	ClearLiveState() error
}

var ErrNoLiveEvent = errors.New("no live auction event found")

type GormCatalog struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewCatalogStore(db *gorm.DB, rdb *redis.Client) *GormCatalog {
	return &GormCatalog{db: db, rdb: rdb}
}

func (c *GormCatalog) LoadLiveAuction() (*LiveAuctionData, error) {
	var event models.AuctionEvent
	if err := c.db.Where("is_live = ?", true).
		Preload("Registrations").
		First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoLiveEvent
		}
		return nil, err
	}

	var entries []models.EventPlayer
	if err := c.db.Where("event_id = ?", event.ID).
		Preload("Player").
		Order("order_index, id").
		Find(&entries).Error; err != nil {
		return nil, err
	}

	data := &LiveAuctionData{Event: event}
	for _, entry := range entries {
		player := entry.Player
		// The per-event auction price overrides the catalog base price
		if entry.AuctionPrice > 0 {
			player.BasePrice = entry.AuctionPrice
		}
		switch entry.Status {
		case models.AuctionStatusSold:
			player.FinalPrice = entry.FinalPrice
			player.SoldTo = entry.SoldTo
			player.AuctionStatus = models.AuctionStatusSold
			data.Sold = append(data.Sold, player)
		case models.AuctionStatusUnsold:
			player.AuctionStatus = models.AuctionStatusUnsold
			data.Unsold = append(data.Unsold, player)
		default:
			data.Remaining = append(data.Remaining, player)
		}
	}

	return data, nil
}

// ResolvePlayer writes a player's final status to both the catalog player
// and the event's entry for it in one transaction. Sold and unsold set
// status, soldTo and finalPrice together or not at all.
func (c *GormCatalog) ResolvePlayer(eventID, playerID uint, res Resolution) error {
	return c.db.Transaction(func(tx *gorm.DB) error {
		playerUpdates := map[string]interface{}{
			"auction_status": models.AuctionStatusUnsold,
			"sold_to":        nil,
			"final_price":    nil,
		}
		entryUpdates := map[string]interface{}{
			"status":      models.AuctionStatusUnsold,
			"sold_to":     nil,
			"final_price": nil,
		}
		if res.Sold {
			playerUpdates["auction_status"] = models.AuctionStatusSold
			playerUpdates["sold_to"] = res.Team
			playerUpdates["final_price"] = res.FinalPrice
			entryUpdates["status"] = models.AuctionStatusSold
			entryUpdates["sold_to"] = res.Team
			entryUpdates["final_price"] = res.FinalPrice
		}

		result := tx.Model(&models.Player{}).Where("id = ?", playerID).Updates(playerUpdates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("player %d not found", playerID)
		}

		return tx.Model(&models.EventPlayer{}).
			Where("event_id = ? AND player_id = ?", eventID, playerID).
			Updates(entryUpdates).Error
	})
}

func (c *GormCatalog) RecordBid(bid *models.Bid) error {
	return c.db.Create(bid).Error
}

func (c *GormCatalog) UpdateEventAuctionFields(eventID uint, currentPlayerID *uint, currentBid, timer int, isActive bool) error {
	return c.db.Model(&models.AuctionEvent{}).Where("id = ?", eventID).
		Updates(map[string]interface{}{
			"current_player_id": currentPlayerID,
			"current_bid":       currentBid,
			"timer":             timer,
			"is_active":         isActive,
		}).Error
}

func (c *GormCatalog) MarkEventComplete(eventID uint) error {
	return c.db.Model(&models.AuctionEvent{}).Where("id = ?", eventID).
		Updates(map[string]interface{}{
			"is_complete": true,
			"is_active":   false,
			"status":      models.EventStatusEnded,
		}).Error
}

func (c *GormCatalog) SaveLiveState(state *AuctionState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal auction state: %w", err)
	}

	return c.rdb.Set(context.Background(), liveStateKey, data, 24*time.Hour).Err()
}

func (c *GormCatalog) LoadLiveState() (*AuctionState, error) {
	data, err := c.rdb.Get(context.Background(), liveStateKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var state AuctionState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal auction state: %w", err)
	}

	return &state, nil
}

func (c *GormCatalog) ClearLiveState() error {
	return c.rdb.Del(context.Background(), liveStateKey).Err()
}
