package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cricketauction/models"

	"gorm.io/gorm"
)

type EventService struct {
	db *gorm.DB
}

func NewEventService(db *gorm.DB) *EventService {
	return &EventService{db: db}
}

type EventPlayerRequest struct {
	PlayerID     uint `json:"player_id" binding:"required"`
	AuctionPrice int  `json:"auction_price" binding:"min=0"`
	OrderIndex   int  `json:"order_index"`
}

type CreateEventRequest struct {
	EventName        string               `json:"event_name" binding:"required"`
	EventDescription string               `json:"event_description"`
	StartTime        *time.Time           `json:"start_time"`
	MaxBidders       int                  `json:"max_bidders"`
	TeamPurseDefault int                  `json:"team_purse_default"`
	TimerSeconds     int                  `json:"timer_seconds"`
	BidResetSeconds  int                  `json:"bid_reset_seconds"`
	RandomizeOrder   bool                 `json:"randomize_order"`
	EventPlayers     []EventPlayerRequest `json:"event_players" binding:"required,min=1"`
}

type UpdateEventRequest struct {
	EventName        string               `json:"event_name"`
	EventDescription *string              `json:"event_description"`
	StartTime        *time.Time           `json:"start_time"`
	MaxBidders       int                  `json:"max_bidders"`
	TeamPurseDefault *int                 `json:"team_purse_default"`
	TimerSeconds     int                  `json:"timer_seconds"`
	BidResetSeconds  *int                 `json:"bid_reset_seconds"`
	RandomizeOrder   *bool                `json:"randomize_order"`
	EventPlayers     []EventPlayerRequest `json:"event_players"`
}

type RegisterBidderRequest struct {
	TeamName  string
	OwnerName string
	TeamImage string
}

// EventWithCounts decorates an event with the counts the admin screens
// show in lists.
type EventWithCounts struct {
	models.AuctionEvent
	PlayersCount         int `json:"players_count"`
	RegisteredTeamsCount int `json:"registered_teams_count"`
}

func (s *EventService) ListEvents() ([]EventWithCounts, error) {
	var events []models.AuctionEvent
	if err := s.db.Preload("Registrations").
		Preload("CreatedBy").
		Order("created_at DESC").
		Find(&events).Error; err != nil {
		return nil, err
	}

	out := make([]EventWithCounts, 0, len(events))
	for _, event := range events {
		var playersCount int64
		if err := s.db.Model(&models.EventPlayer{}).
			Where("event_id = ?", event.ID).
			Count(&playersCount).Error; err != nil {
			return nil, err
		}
		out = append(out, EventWithCounts{
			AuctionEvent:         event,
			PlayersCount:         int(playersCount),
			RegisteredTeamsCount: len(event.Registrations),
		})
	}
	return out, nil
}

func (s *EventService) GetEvent(eventID uint) (*models.AuctionEvent, error) {
	var event models.AuctionEvent
	err := s.db.Preload("Registrations").
		Preload("EventPlayers.Player").
		First(&event, eventID).Error
	return &event, err
}

func (s *EventService) LiveEvent() (*models.AuctionEvent, error) {
	var event models.AuctionEvent
	if err := s.db.Where("is_live = ?", true).
		Preload("Registrations").
		Preload("EventPlayers.Player").
		First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoLiveEvent
		}
		return nil, err
	}
	return &event, nil
}

func (s *EventService) CreateEvent(userID uint, req *CreateEventRequest) (*models.AuctionEvent, error) {
	maxBidders := req.MaxBidders
	if maxBidders == 0 {
		maxBidders = 8
	}
	if maxBidders < 2 || maxBidders > 16 {
		return nil, errors.New("max bidders must be between 2 and 16")
	}
	if req.TeamPurseDefault < 0 {
		return nil, errors.New("team purse default must be non-negative")
	}

	timerSeconds := req.TimerSeconds
	if timerSeconds == 0 {
		timerSeconds = 60
	}

	playerIDs := make([]uint, 0, len(req.EventPlayers))
	for _, p := range req.EventPlayers {
		playerIDs = append(playerIDs, p.PlayerID)
	}

	var existing int64
	if err := s.db.Model(&models.Player{}).Where("id IN ?", playerIDs).Count(&existing).Error; err != nil {
		return nil, err
	}
	if int(existing) != len(playerIDs) {
		return nil, errors.New("one or more players do not exist")
	}

	event := models.AuctionEvent{
		EventName:        strings.TrimSpace(req.EventName),
		EventDescription: strings.TrimSpace(req.EventDescription),
		StartTime:        req.StartTime,
		Status:           models.EventStatusDraft,
		MaxPlayers:       len(req.EventPlayers),
		MaxBidders:       maxBidders,
		TeamPurseDefault: req.TeamPurseDefault,
		TimerSeconds:     timerSeconds,
		BidResetSeconds:  req.BidResetSeconds,
		RandomizeOrder:   req.RandomizeOrder,
		Timer:            timerSeconds,
		CreatedByID:      userID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&event).Error; err != nil {
			return err
		}

		entries := make([]models.EventPlayer, 0, len(req.EventPlayers))
		for _, p := range req.EventPlayers {
			entries = append(entries, models.EventPlayer{
				EventID:      event.ID,
				PlayerID:     p.PlayerID,
				AuctionPrice: p.AuctionPrice,
				OrderIndex:   p.OrderIndex,
				Status:       models.AuctionStatusPending,
			})
		}
		return tx.Create(&entries).Error
	})
	if err != nil {
		return nil, err
	}

	return s.GetEvent(event.ID)
}

func (s *EventService) UpdateEvent(eventID uint, req *UpdateEventRequest) (*models.AuctionEvent, error) {
	var event models.AuctionEvent
	if err := s.db.First(&event, eventID).Error; err != nil {
		return nil, errors.New("event not found")
	}

	if event.Status == models.EventStatusActive {
		return nil, errors.New("cannot edit active event")
	}

	if req.EventName != "" {
		event.EventName = strings.TrimSpace(req.EventName)
	}
	if req.EventDescription != nil {
		event.EventDescription = strings.TrimSpace(*req.EventDescription)
	}
	if req.StartTime != nil {
		event.StartTime = req.StartTime
	}
	if req.MaxBidders != 0 {
		if req.MaxBidders < 2 || req.MaxBidders > 16 {
			return nil, errors.New("max bidders must be between 2 and 16")
		}
		event.MaxBidders = req.MaxBidders
	}
	if req.TeamPurseDefault != nil {
		if *req.TeamPurseDefault < 0 {
			return nil, errors.New("team purse default must be non-negative")
		}
		event.TeamPurseDefault = *req.TeamPurseDefault
	}
	if req.TimerSeconds != 0 {
		event.TimerSeconds = req.TimerSeconds
	}
	if req.BidResetSeconds != nil {
		event.BidResetSeconds = *req.BidResetSeconds
	}
	if req.RandomizeOrder != nil {
		event.RandomizeOrder = *req.RandomizeOrder
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if req.EventPlayers != nil {
			if err := tx.Where("event_id = ?", eventID).Delete(&models.EventPlayer{}).Error; err != nil {
				return err
			}

			entries := make([]models.EventPlayer, 0, len(req.EventPlayers))
			for _, p := range req.EventPlayers {
				entries = append(entries, models.EventPlayer{
					EventID:      eventID,
					PlayerID:     p.PlayerID,
					AuctionPrice: p.AuctionPrice,
					OrderIndex:   p.OrderIndex,
					Status:       models.AuctionStatusPending,
				})
			}
			if err := tx.Create(&entries).Error; err != nil {
				return err
			}
			event.MaxPlayers = len(entries)
		}

		return tx.Save(&event).Error
	})
	if err != nil {
		return nil, err
	}

	return s.GetEvent(eventID)
}

func (s *EventService) DeleteEvent(eventID uint) error {
	var event models.AuctionEvent
	if err := s.db.First(&event, eventID).Error; err != nil {
		return errors.New("event not found")
	}

	if event.Status == models.EventStatusActive {
		return errors.New("cannot delete active event")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", eventID).Delete(&models.EventPlayer{}).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", eventID).Delete(&models.Bid{}).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", eventID).Delete(&models.TeamRegistration{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.AuctionEvent{}, eventID).Error
	})
}

// ActivateEvent makes one event the live one. Any other live event is
// paused first; at most one event is ever live.
func (s *EventService) ActivateEvent(eventID uint) (*models.AuctionEvent, error) {
	var event models.AuctionEvent
	if err := s.db.First(&event, eventID).Error; err != nil {
		return nil, errors.New("event not found")
	}

	if event.Status == models.EventStatusActive {
		return nil, errors.New("event is already active")
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.AuctionEvent{}).
			Where("status = ? AND id <> ?", models.EventStatusActive, eventID).
			Updates(map[string]interface{}{
				"status":    models.EventStatusPaused,
				"is_live":   false,
				"is_active": false,
			}).Error; err != nil {
			return err
		}

		return tx.Model(&event).Updates(map[string]interface{}{
			"status":  models.EventStatusActive,
			"is_live": true,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	return s.GetEvent(eventID)
}

func (s *EventService) DeactivateEvent(eventID uint) (*models.AuctionEvent, error) {
	var event models.AuctionEvent
	if err := s.db.First(&event, eventID).Error; err != nil {
		return nil, errors.New("event not found")
	}

	if err := s.db.Model(&event).Updates(map[string]interface{}{
		"status":    models.EventStatusPaused,
		"is_live":   false,
		"is_active": false,
	}).Error; err != nil {
		return nil, err
	}

	return &event, nil
}

// RegisterBidder registers a team for the live event. First writer wins on
// team name and on the bidder cap; there is no merge.
func (s *EventService) RegisterBidder(userID uint, req *RegisterBidderRequest) (*models.TeamRegistration, error) {
	if req.TeamName == "" || req.OwnerName == "" {
		return nil, errors.New("team name and owner name are required")
	}

	var registration models.TeamRegistration
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var event models.AuctionEvent
		if err := tx.Where("is_live = ?", true).Preload("Registrations").First(&event).Error; err != nil {
			return ErrNoLiveEvent
		}

		for _, reg := range event.Registrations {
			if reg.UserID == userID {
				return errors.New("you are already registered for this event")
			}
			if strings.EqualFold(reg.TeamName, req.TeamName) {
				return errors.New("team name already taken")
			}
		}

		if len(event.Registrations) >= event.MaxBidders {
			return fmt.Errorf("max bidders reached (%d)", event.MaxBidders)
		}

		registration = models.TeamRegistration{
			EventID:      event.ID,
			TeamName:     req.TeamName,
			OwnerName:    req.OwnerName,
			TeamImage:    req.TeamImage,
			Purse:        event.TeamPurseDefault,
			Status:       models.RegistrationRegistered,
			UserID:       userID,
			RegisteredAt: time.Now(),
		}
		return tx.Create(&registration).Error
	})
	if err != nil {
		return nil, err
	}

	return &registration, nil
}

func (s *EventService) UpdatePurse(registrationID uint, purse int) (*models.TeamRegistration, error) {
	if purse < 0 {
		return nil, errors.New("purse must be non-negative")
	}

	var registration models.TeamRegistration
	if err := s.db.First(&registration, registrationID).Error; err != nil {
		return nil, errors.New("bidder not found")
	}

	registration.Purse = purse
	if err := s.db.Save(&registration).Error; err != nil {
		return nil, err
	}

	return &registration, nil
}

func (s *EventService) UpdateRegistrationStatus(registrationID uint, status string) (*models.TeamRegistration, error) {
	switch status {
	case models.RegistrationRegistered, models.RegistrationApproved, models.RegistrationRejected:
	default:
		return nil, errors.New("invalid registration status")
	}

	var registration models.TeamRegistration
	if err := s.db.First(&registration, registrationID).Error; err != nil {
		return nil, errors.New("bidder not found")
	}

	registration.Status = status
	if err := s.db.Save(&registration).Error; err != nil {
		return nil, err
	}

	return &registration, nil
}

// EventStats aggregates one event's sold/unsold totals and per-team spend.
func (s *EventService) EventStats(eventID uint) (*AuctionStats, error) {
	stats := &AuctionStats{}

	type countRow struct {
		Status string
		N      int
	}
	var rows []countRow
	if err := s.db.Model(&models.EventPlayer{}).
		Select("status, count(*) as n").
		Where("event_id = ?", eventID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		stats.TotalPlayers += row.N
		switch row.Status {
		case models.AuctionStatusSold:
			stats.SoldPlayers = row.N
		case models.AuctionStatusUnsold:
			stats.UnsoldPlayers = row.N
		case models.AuctionStatusPending:
			stats.PendingPlayers = row.N
		}
	}

	var totalValue *int
	if err := s.db.Model(&models.EventPlayer{}).
		Select("sum(final_price)").
		Where("event_id = ? AND status = ?", eventID, models.AuctionStatusSold).
		Scan(&totalValue).Error; err != nil {
		return nil, err
	}
	if totalValue != nil {
		stats.TotalValue = *totalValue
	}

	if err := s.db.Model(&models.EventPlayer{}).
		Select("sold_to as team, count(*) as players, sum(final_price) as total_spent").
		Where("event_id = ? AND status = ?", eventID, models.AuctionStatusSold).
		Group("sold_to").
		Order("total_spent DESC").
		Scan(&stats.TeamStats).Error; err != nil {
		return nil, err
	}

	return stats, nil
}
