package services

import (
	"errors"

	"cricketauction/models"

	"gorm.io/gorm"
)

type PlayerService struct {
	db *gorm.DB
}

func NewPlayerService(db *gorm.DB) *PlayerService {
	return &PlayerService{db: db}
}

type PlayerFilter struct {
	Status  string
	Role    string
	Country string
}

type TeamSpending struct {
	Team       string `json:"team"`
	Players    int    `json:"players"`
	TotalSpent int    `json:"total_spent"`
}

type AuctionStats struct {
	TotalPlayers   int            `json:"total_players"`
	SoldPlayers    int            `json:"sold_players"`
	UnsoldPlayers  int            `json:"unsold_players"`
	PendingPlayers int            `json:"pending_players"`
	TotalValue     int            `json:"total_value"`
	TeamStats      []TeamSpending `json:"team_stats"`
}

func (s *PlayerService) ListPlayers(filter PlayerFilter) ([]models.Player, error) {
	query := s.db.Where("is_active = ?", true)

	if filter.Status != "" {
		query = query.Where("auction_status = ?", filter.Status)
	}
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Country != "" {
		query = query.Where("country = ?", filter.Country)
	}

	var players []models.Player
	err := query.Order("created_at DESC").Find(&players).Error
	return players, err
}

func (s *PlayerService) GetPlayer(playerID uint) (*models.Player, error) {
	var player models.Player
	err := s.db.First(&player, playerID).Error
	return &player, err
}

func (s *PlayerService) CreatePlayer(player *models.Player) error {
	if player.Name == "" {
		return errors.New("player name is required")
	}
	if player.BasePrice < 100000 {
		return errors.New("base price must be at least 100000")
	}
	player.AuctionStatus = models.AuctionStatusPending
	player.IsActive = true

	return s.db.Create(player).Error
}

func (s *PlayerService) UpdatePlayer(playerID uint, updates *models.Player) (*models.Player, error) {
	var player models.Player
	if err := s.db.First(&player, playerID).Error; err != nil {
		return nil, errors.New("player not found")
	}

	if updates.Name != "" {
		player.Name = updates.Name
	}
	if updates.Age != 0 {
		player.Age = updates.Age
	}
	if updates.Country != "" {
		player.Country = updates.Country
	}
	if updates.Role != "" {
		player.Role = updates.Role
	}
	if updates.BattingStyle != "" {
		player.BattingStyle = updates.BattingStyle
	}
	if updates.BowlingStyle != "" {
		player.BowlingStyle = updates.BowlingStyle
	}
	if updates.BasePrice != 0 {
		if updates.BasePrice < 100000 {
			return nil, errors.New("base price must be at least 100000")
		}
		player.BasePrice = updates.BasePrice
	}
	if updates.Image != "" {
		player.Image = updates.Image
	}
	if updates.PreviousTeam != "" {
		player.PreviousTeam = updates.PreviousTeam
	}
	player.Stats = updates.Stats

	if err := s.db.Save(&player).Error; err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *PlayerService) DeletePlayer(playerID uint) error {
	result := s.db.Delete(&models.Player{}, playerID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("player not found")
	}
	return nil
}

func (s *PlayerService) SoldPlayers() ([]models.Player, error) {
	var players []models.Player
	err := s.db.Where("auction_status = ?", models.AuctionStatusSold).
		Order("updated_at DESC").Find(&players).Error
	return players, err
}

func (s *PlayerService) UnsoldPlayers() ([]models.Player, error) {
	var players []models.Player
	err := s.db.Where("auction_status = ?", models.AuctionStatusUnsold).
		Order("updated_at DESC").Find(&players).Error
	return players, err
}

func (s *PlayerService) Stats() (*AuctionStats, error) {
	stats := &AuctionStats{}

	type countRow struct {
		AuctionStatus string
		N             int
	}
	var rows []countRow
	if err := s.db.Model(&models.Player{}).
		Select("auction_status, count(*) as n").
		Where("is_active = ?", true).
		Group("auction_status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		stats.TotalPlayers += row.N
		switch row.AuctionStatus {
		case models.AuctionStatusSold:
			stats.SoldPlayers = row.N
		case models.AuctionStatusUnsold:
			stats.UnsoldPlayers = row.N
		case models.AuctionStatusPending:
			stats.PendingPlayers = row.N
		}
	}

	var totalValue *int
	if err := s.db.Model(&models.Player{}).
		Select("sum(final_price)").
		Where("auction_status = ?", models.AuctionStatusSold).
		Scan(&totalValue).Error; err != nil {
		return nil, err
	}
	if totalValue != nil {
		stats.TotalValue = *totalValue
	}

	if err := s.db.Model(&models.Player{}).
		Select("sold_to as team, count(*) as players, sum(final_price) as total_spent").
		Where("auction_status = ?", models.AuctionStatusSold).
		Group("sold_to").
		Order("total_spent DESC").
		Scan(&stats.TeamStats).Error; err != nil {
		return nil, err
	}

	return stats, nil
}

// ResetAuction returns every player and event entry to pending. Purses are
// derived from settlement history, so this also restores them.
func (s *PlayerService) ResetAuction() error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Player{}).Where("1 = 1").
			Updates(map[string]interface{}{
				"auction_status": models.AuctionStatusPending,
				"sold_to":        nil,
				"final_price":    nil,
			}).Error; err != nil {
			return err
		}

		return tx.Model(&models.EventPlayer{}).Where("1 = 1").
			Updates(map[string]interface{}{
				"status":      models.AuctionStatusPending,
				"sold_to":     nil,
				"final_price": nil,
			}).Error
	})
}
