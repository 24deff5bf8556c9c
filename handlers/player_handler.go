package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"cricketauction/models"
	"cricketauction/services"

	"github.com/gin-gonic/gin"
)

type PlayerHandler struct {
	playerService *services.PlayerService
	auction       *services.AuctionService
	uploadDir     string
}

func NewPlayerHandler(playerService *services.PlayerService, auction *services.AuctionService, uploadDir string) *PlayerHandler {
	return &PlayerHandler{
		playerService: playerService,
		auction:       auction,
		uploadDir:     uploadDir,
	}
}

func (h *PlayerHandler) ListPlayers(c *gin.Context) {
	filter := services.PlayerFilter{
		Status:  c.Query("status"),
		Role:    c.Query("role"),
		Country: c.Query("country"),
	}

	players, err := h.playerService.ListPlayers(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, players)
}

func (h *PlayerHandler) GetPlayer(c *gin.Context) {
	playerID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid player ID"})
		return
	}

	player, err := h.playerService.GetPlayer(uint(playerID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Player not found"})
		return
	}

	c.JSON(http.StatusOK, player)
}

func (h *PlayerHandler) CreatePlayer(c *gin.Context) {
	player, err := h.playerFromForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.playerService.CreatePlayer(player); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Player created successfully",
		"player":  player,
	})
}

func (h *PlayerHandler) UpdatePlayer(c *gin.Context) {
	playerID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid player ID"})
		return
	}

	updates, err := h.playerFromForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	player, err := h.playerService.UpdatePlayer(uint(playerID), updates)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Player updated successfully",
		"player":  player,
	})
}

func (h *PlayerHandler) DeletePlayer(c *gin.Context) {
	playerID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid player ID"})
		return
	}

	if err := h.playerService.DeletePlayer(uint(playerID)); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Player deleted successfully"})
}

func (h *PlayerHandler) AuctionStats(c *gin.Context) {
	stats, err := h.playerService.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *PlayerHandler) SoldPlayers(c *gin.Context) {
	players, err := h.playerService.SoldPlayers()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, players)
}

func (h *PlayerHandler) UnsoldPlayers(c *gin.Context) {
	players, err := h.playerService.UnsoldPlayers()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, players)
}

func (h *PlayerHandler) ResetAuction(c *gin.Context) {
	if err := h.playerService.ResetAuction(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Bring the running state back in line with the reset catalog
	if err := h.auction.Refresh(); err != nil && !errors.Is(err, services.ErrNoLiveEvent) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Auction reset successfully"})
}

// playerFromForm builds a player from a multipart form, including the
// optional image upload and the stats JSON blob.
func (h *PlayerHandler) playerFromForm(c *gin.Context) (*models.Player, error) {
	player := &models.Player{
		Name:         c.PostForm("name"),
		Country:      c.PostForm("country"),
		Role:         c.PostForm("role"),
		BattingStyle: c.PostForm("batting_style"),
		BowlingStyle: c.PostForm("bowling_style"),
		PreviousTeam: c.PostForm("previous_team"),
	}

	if age := c.PostForm("age"); age != "" {
		n, err := strconv.Atoi(age)
		if err != nil {
			return nil, err
		}
		player.Age = n
	}
	if basePrice := c.PostForm("base_price"); basePrice != "" {
		n, err := strconv.Atoi(basePrice)
		if err != nil {
			return nil, err
		}
		player.BasePrice = n
	}
	if stats := c.PostForm("stats"); stats != "" {
		if err := json.Unmarshal([]byte(stats), &player.Stats); err != nil {
			return nil, err
		}
	}

	image, err := saveImageUpload(c, "image", h.uploadDir, "players", "player")
	if err != nil {
		return nil, err
	}
	player.Image = image

	return player, nil
}
