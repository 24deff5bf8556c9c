package services

import (
	"time"

	"cricketauction/models"
)

// BidEntry is one accepted bid in the current player's auction.
type BidEntry struct {
	Bidder    string    `json:"bidder"`
	BidderID  uint      `json:"bidder_id"`
	Team      string    `json:"team"`
	Amount    int       `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

// TeamState is a registered team's live view: remaining purse and the
// players it has won so far in this event.
type TeamState struct {
	Name          string          `json:"name"`
	OwnerName     string          `json:"owner_name"`
	TeamImage     string          `json:"team_image"`
	UserID        uint            `json:"user_id"`
	Purse         int             `json:"purse"`
	OriginalPurse int             `json:"original_purse"`
	Players       []models.Player `json:"players"`
}

// AuctionState is the authoritative in-memory snapshot of the live event.
// It is owned by AuctionService and mutated only under its lock.
type AuctionState struct {
	IsActive         bool                  `json:"is_active"`
	IsEventLive      bool                  `json:"is_event_live"`
	IsEventComplete  bool                  `json:"is_event_complete"`
	EventID          uint                  `json:"event_id"`
	EventName        string                `json:"event_name"`
	EventDesc        string                `json:"event_description"`
	MaxPlayers       int                   `json:"max_players"`
	MaxBidders       int                   `json:"max_bidders"`
	TimerSeconds     int                   `json:"timer_seconds"`
	BidResetSeconds  int                   `json:"bid_reset_seconds"`
	CurrentPlayer    *models.Player        `json:"current_player"`
	CurrentBid       int                   `json:"current_bid"`
	BaseBid          int                   `json:"base_bid"`
	Bidders          []BidEntry            `json:"bidders"`
	Timer            int                   `json:"timer"`
	SoldPlayers      []models.Player       `json:"sold_players"`
	UnsoldPlayers    []models.Player       `json:"unsold_players"`
	RemainingPlayers []models.Player       `json:"remaining_players"`
	Teams            map[string]*TeamState `json:"teams"`
}

func newIdleState() *AuctionState {
	return &AuctionState{
		MaxBidders: 8,
		Timer:      60,
		Bidders:    []BidEntry{},
		Teams:      map[string]*TeamState{},
	}
}

// Clone returns a value copy safe to hand to the broadcast layer while the
// live state keeps mutating.
func (s *AuctionState) Clone() AuctionState {
	out := *s

	if s.CurrentPlayer != nil {
		p := *s.CurrentPlayer
		out.CurrentPlayer = &p
	}
	out.Bidders = append([]BidEntry(nil), s.Bidders...)
	out.SoldPlayers = append([]models.Player(nil), s.SoldPlayers...)
	out.UnsoldPlayers = append([]models.Player(nil), s.UnsoldPlayers...)
	out.RemainingPlayers = append([]models.Player(nil), s.RemainingPlayers...)

	out.Teams = make(map[string]*TeamState, len(s.Teams))
	for name, team := range s.Teams {
		t := *team
		t.Players = append([]models.Player(nil), team.Players...)
		out.Teams[name] = &t
	}

	return out
}

// teamForUser maps a bidder identity to the team it registered.
func (s *AuctionState) teamForUser(userID uint) *TeamState {
	for _, team := range s.Teams {
		if team.UserID == userID {
			return team
		}
	}
	return nil
}

// EventSummary is the frozen result payload produced when the last player
// resolves.
type EventSummary struct {
	EventID       uint                  `json:"event_id"`
	EventName     string                `json:"event_name"`
	TotalPlayers  int                   `json:"total_players"`
	SoldCount     int                   `json:"sold_count"`
	UnsoldCount   int                   `json:"unsold_count"`
	TotalValue    int                   `json:"total_value"`
	SoldPlayers   []models.Player       `json:"sold_players"`
	UnsoldPlayers []models.Player       `json:"unsold_players"`
	Teams         map[string]*TeamState `json:"teams"`
	CompletedAt   time.Time             `json:"completed_at"`
}
