package services

import (
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"cricketauction/models"

	"github.com/gin-gonic/gin"
)

// Identity is the verified user behind a command. Commands without one are
// rejected before they reach the service; there is no fallback identity.
type Identity struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Broadcaster fans an event out to every connected participant. Errors for
// a single sender are returned from service methods instead and delivered
// by the transport layer.
type Broadcaster interface {
	BroadcastEvent(event string, payload interface{})
}

type noopBroadcaster struct{}

func (noopBroadcaster) BroadcastEvent(string, interface{}) {}

var (
	ErrEventNotLive      = errors.New("no live auction event")
	ErrAuctionInProgress = errors.New("a player auction is already in progress")
	ErrEventComplete     = errors.New("auction event is complete")
	ErrPlayerNotInQueue  = errors.New("player is not in the remaining queue")
)

// AuctionService owns the live AuctionState. Every mutation, whether it
// arrives from a socket command, an HTTP handler or the countdown timer,
// goes through a method here under one lock, so bids are applied in
// arrival order and always validated against the latest state.
type AuctionService struct {
	mu        sync.Mutex
	store     CatalogStore
	broadcast Broadcaster
	state     *AuctionState

	// timerStop belongs to the currently running countdown; every path
	// that clears IsActive closes it, so a timer can never fire after the
	// auction it was counting for has resolved.
	timerStop chan struct{}
	lastReset time.Time
}

func NewAuctionService(store CatalogStore) *AuctionService {
	return &AuctionService{
		store:     store,
		broadcast: noopBroadcaster{},
		state:     newIdleState(),
	}
}

func (s *AuctionService) SetBroadcaster(b Broadcaster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcast = b
}

// Resume restores the live auction after a server restart: the redis
// snapshot if one exists, otherwise a rebuild from the database.
func (s *AuctionService) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if saved, err := s.store.LoadLiveState(); err != nil {
		log.Printf("Error loading saved auction state: %v", err)
	} else if saved != nil && saved.IsEventLive {
		s.state = saved
		log.Printf("Resumed auction state for event %q (active=%v, timer=%d)",
			saved.EventName, saved.IsActive, saved.Timer)
		if saved.IsActive {
			// A countdown that expired while the server was down gets a
			// fresh window instead of an auction nothing counts down
			if saved.Timer <= 0 {
				saved.Timer = s.bidWindowLocked()
			}
			s.startTimerLocked()
		}
		return
	}

	if err := s.reloadLocked(); err != nil && !errors.Is(err, ErrNoLiveEvent) {
		log.Printf("Error initializing auction state: %v", err)
	}
}

// ActivateEvent loads the live event from the catalog store into a fresh
// state. The HTTP layer has already flagged exactly one event as live.
func (s *AuctionService) ActivateEvent() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopTimerLocked()
	if err := s.reloadLocked(); err != nil {
		return err
	}

	s.saveStateLocked()
	s.broadcast.BroadcastEvent("auction-state", s.state.Clone())
	return nil
}

// DeactivateEvent clears the live flags and transient auction fields. It
// does not un-sell already-resolved players.
func (s *AuctionService) DeactivateEvent() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopTimerLocked()
	if s.state.EventID != 0 {
		if err := s.store.UpdateEventAuctionFields(s.state.EventID, nil, 0, s.state.TimerSeconds, false); err != nil {
			log.Printf("Error persisting event deactivation: %v", err)
		}
	}

	s.state = newIdleState()
	if err := s.store.ClearLiveState(); err != nil {
		log.Printf("Error clearing saved auction state: %v", err)
	}

	s.broadcast.BroadcastEvent("auction-state", s.state.Clone())
	return nil
}

// Refresh re-reads registrations and purses from the store, for example
// after a new bidder registers or an admin updates a purse. While a player
// is on the block only the team roster is refreshed; the in-flight auction
// is never rebuilt out from under its bidders.
func (s *AuctionService) Refresh() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.IsActive {
		if err := s.reloadLocked(); err != nil {
			return err
		}
	} else {
		data, err := s.store.LoadLiveAuction()
		if err != nil {
			return err
		}
		s.state.Teams = buildTeams(data)
		s.state.MaxBidders = data.Event.MaxBidders
	}

	s.saveStateLocked()
	s.broadcast.BroadcastEvent("auction-state", s.state.Clone())
	return nil
}

// StartAuction puts an admin-selected player on the block. Only valid when
// the event is live and no other player is active.
func (s *AuctionService) StartAuction(playerID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.IsEventLive {
		return ErrEventNotLive
	}
	if s.state.IsActive {
		return ErrAuctionInProgress
	}
	if s.state.IsEventComplete {
		return ErrEventComplete
	}

	for _, p := range s.state.RemainingPlayers {
		if p.ID == playerID {
			return s.startPlayerLocked(p)
		}
	}
	return ErrPlayerNotInQueue
}

// StartNextPlayer puts the head of the remaining queue on the block.
func (s *AuctionService) StartNextPlayer() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.IsEventLive {
		return ErrEventNotLive
	}
	if s.state.IsActive {
		return ErrAuctionInProgress
	}
	if len(s.state.RemainingPlayers) == 0 {
		if !s.state.IsEventComplete {
			s.completeEventLocked()
			s.saveStateLocked()
			return nil
		}
		return ErrEventComplete
	}

	return s.startPlayerLocked(s.state.RemainingPlayers[0])
}

// PlaceBid applies one bid against the latest state. The returned error is
// for the sender only; accepted bids are broadcast to everyone.
func (s *AuctionService) PlaceBid(id Identity, amount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.IsActive || s.state.CurrentPlayer == nil {
		return ErrNoActiveAuction
	}

	team := s.state.teamForUser(id.UserID)
	if team == nil {
		return ErrNotRegistered
	}

	if err := validateBid(amount, s.state.CurrentBid, team.Purse, s.state.IsActive); err != nil {
		return err
	}

	now := time.Now()
	s.state.CurrentBid = amount
	s.state.Bidders = append(s.state.Bidders, BidEntry{
		Bidder:    id.Username,
		BidderID:  id.UserID,
		Team:      team.Name,
		Amount:    amount,
		Timestamp: now,
	})

	// A new bid buys a fresh countdown, not just an extension
	s.state.Timer = s.bidWindowLocked()
	s.lastReset = now

	if err := s.store.RecordBid(&models.Bid{
		EventID:  s.state.EventID,
		PlayerID: s.state.CurrentPlayer.ID,
		BidderID: id.UserID,
		TeamName: team.Name,
		Amount:   amount,
	}); err != nil {
		// The bid ledger is advisory; the in-memory history is authoritative
		log.Printf("Error recording bid: %v", err)
	}

	s.saveStateLocked()
	s.broadcast.BroadcastEvent("new-bid", gin.H{
		"bidder":               id.Username,
		"team":                 team.Name,
		"amount":               amount,
		"current_bid":          s.state.CurrentBid,
		"timer":                s.state.Timer,
		"suggested_increments": suggestedIncrements(s.state.CurrentBid),
	})
	return nil
}

// EndAuction is the admin's explicit sold/unsold decision. An empty team
// means "sold to the highest bidder".
func (s *AuctionService) EndAuction(sold bool, team string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolveLocked(sold, team)
}

// Snapshot returns a copy of the current state for catch-up and rendering.
func (s *AuctionService) Snapshot() AuctionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// SuggestedIncrements returns the quick-bid deltas for the current bid.
func (s *AuctionService) SuggestedIncrements() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return suggestedIncrements(s.state.CurrentBid)
}

// reloadLocked rebuilds the whole state from the catalog store.
func (s *AuctionService) reloadLocked() error {
	data, err := s.store.LoadLiveAuction()
	if err != nil {
		if errors.Is(err, ErrNoLiveEvent) {
			s.state = newIdleState()
		}
		return err
	}

	event := data.Event
	remaining := append([]models.Player(nil), data.Remaining...)
	// Shuffle once at event start; a partially run event keeps its order
	if event.RandomizeOrder && len(data.Sold) == 0 && len(data.Unsold) == 0 {
		rand.Shuffle(len(remaining), func(i, j int) {
			remaining[i], remaining[j] = remaining[j], remaining[i]
		})
	}

	s.state = &AuctionState{
		IsEventLive:      true,
		IsEventComplete:  event.IsComplete,
		EventID:          event.ID,
		EventName:        event.EventName,
		EventDesc:        event.EventDescription,
		MaxPlayers:       event.MaxPlayers,
		MaxBidders:       event.MaxBidders,
		TimerSeconds:     event.TimerSeconds,
		BidResetSeconds:  event.BidResetSeconds,
		Timer:            event.TimerSeconds,
		Bidders:          []BidEntry{},
		SoldPlayers:      append([]models.Player(nil), data.Sold...),
		UnsoldPlayers:    append([]models.Player(nil), data.Unsold...),
		RemainingPlayers: remaining,
		Teams:            buildTeams(data),
	}
	return nil
}

// buildTeams derives each registered team's live view. Remaining purse is
// the registered purse minus what the team has already spent, so a rebuild
// from the store always agrees with settlement history.
func buildTeams(data *LiveAuctionData) map[string]*TeamState {
	teams := make(map[string]*TeamState)
	for _, reg := range data.Event.Registrations {
		if reg.Status == models.RegistrationRejected {
			continue
		}

		var players []models.Player
		spent := 0
		for _, p := range data.Sold {
			if p.SoldTo != nil && *p.SoldTo == reg.TeamName {
				players = append(players, p)
				if p.FinalPrice != nil {
					spent += *p.FinalPrice
				}
			}
		}

		teams[reg.TeamName] = &TeamState{
			Name:          reg.TeamName,
			OwnerName:     reg.OwnerName,
			TeamImage:     reg.TeamImage,
			UserID:        reg.UserID,
			Purse:         reg.Purse - spent,
			OriginalPurse: reg.Purse,
			Players:       players,
		}
	}
	return teams
}

func (s *AuctionService) startPlayerLocked(player models.Player) error {
	playerID := player.ID
	if err := s.store.UpdateEventAuctionFields(s.state.EventID, &playerID, player.BasePrice, s.state.TimerSeconds, true); err != nil {
		return err
	}

	s.state.IsActive = true
	s.state.CurrentPlayer = &player
	s.state.CurrentBid = player.BasePrice
	s.state.BaseBid = player.BasePrice
	s.state.Bidders = []BidEntry{}
	s.state.Timer = s.state.TimerSeconds
	s.lastReset = time.Now()

	s.saveStateLocked()
	s.broadcast.BroadcastEvent("auction-started", s.state.Clone())
	s.startTimerLocked()
	return nil
}

// resolveLocked finalizes the current player. The catalog write happens
// first; on failure the in-memory state is left untouched and the auction
// stays open so the admin can retry.
func (s *AuctionService) resolveLocked(sold bool, overrideTeam string) error {
	if !s.state.IsActive || s.state.CurrentPlayer == nil {
		return ErrNoActiveAuction
	}

	winner, hasBids := resolveWinner(s.state.Bidders)
	if sold && overrideTeam != "" {
		if team, ok := s.state.Teams[overrideTeam]; ok {
			// The override path skips bid validation, so the purse
			// check happens here
			if s.state.CurrentBid > team.Purse {
				return ErrInsufficientPurse
			}
			winner = overrideTeam
			hasBids = true
		}
	}
	sold = sold && hasBids

	player := *s.state.CurrentPlayer
	price := s.state.CurrentBid
	res := Resolution{Sold: sold, Team: winner, FinalPrice: price}

	if err := s.store.ResolvePlayer(s.state.EventID, player.ID, res); err != nil {
		log.Printf("Error persisting resolution for player %q: %v", player.Name, err)
		s.broadcast.BroadcastEvent("auction-error", gin.H{
			"message": "Failed to save auction result, the auction remains open",
			"player":  player.Name,
		})
		return err
	}

	s.stopTimerLocked()

	if sold {
		player.AuctionStatus = models.AuctionStatusSold
		player.SoldTo = &winner
		player.FinalPrice = &price
		s.state.SoldPlayers = append(s.state.SoldPlayers, player)
		if team, ok := s.state.Teams[winner]; ok {
			team.Purse -= price
			team.Players = append(team.Players, player)
		}
	} else {
		player.AuctionStatus = models.AuctionStatusUnsold
		player.SoldTo = nil
		player.FinalPrice = nil
		s.state.UnsoldPlayers = append(s.state.UnsoldPlayers, player)
	}

	remaining := s.state.RemainingPlayers[:0]
	for _, p := range s.state.RemainingPlayers {
		if p.ID != player.ID {
			remaining = append(remaining, p)
		}
	}
	s.state.RemainingPlayers = remaining

	s.state.IsActive = false
	s.state.CurrentPlayer = nil
	s.state.CurrentBid = 0
	s.state.BaseBid = 0
	s.state.Bidders = []BidEntry{}

	if err := s.store.UpdateEventAuctionFields(s.state.EventID, nil, 0, s.state.TimerSeconds, false); err != nil {
		log.Printf("Error persisting event fields after resolution: %v", err)
	}

	result := gin.H{"sold": sold}
	if sold {
		result["team"] = winner
	}
	s.broadcast.BroadcastEvent("auction-ended", gin.H{
		"player":            player,
		"result":            result,
		"sold_players":      append([]models.Player(nil), s.state.SoldPlayers...),
		"unsold_players":    append([]models.Player(nil), s.state.UnsoldPlayers...),
		"remaining_players": append([]models.Player(nil), s.state.RemainingPlayers...),
		"is_event_complete": len(s.state.RemainingPlayers) == 0,
		"teams":             s.state.Clone().Teams,
	})

	if len(s.state.RemainingPlayers) == 0 && !s.state.IsEventComplete {
		s.completeEventLocked()
	}

	s.saveStateLocked()
	return nil
}

// completeEventLocked freezes the summary once the queue is exhausted.
func (s *AuctionService) completeEventLocked() {
	s.state.IsEventComplete = true
	s.state.IsActive = false

	if err := s.store.MarkEventComplete(s.state.EventID); err != nil {
		log.Printf("Error marking event %d complete: %v", s.state.EventID, err)
	}

	totalValue := 0
	for _, p := range s.state.SoldPlayers {
		if p.FinalPrice != nil {
			totalValue += *p.FinalPrice
		}
	}

	clone := s.state.Clone()
	s.broadcast.BroadcastEvent("auction-event-complete", EventSummary{
		EventID:       s.state.EventID,
		EventName:     s.state.EventName,
		TotalPlayers:  len(clone.SoldPlayers) + len(clone.UnsoldPlayers),
		SoldCount:     len(clone.SoldPlayers),
		UnsoldCount:   len(clone.UnsoldPlayers),
		TotalValue:    totalValue,
		SoldPlayers:   clone.SoldPlayers,
		UnsoldPlayers: clone.UnsoldPlayers,
		Teams:         clone.Teams,
		CompletedAt:   time.Now(),
	})
}

func (s *AuctionService) bidWindowLocked() int {
	if s.state.BidResetSeconds > 0 {
		return s.state.BidResetSeconds
	}
	return s.state.TimerSeconds
}

func (s *AuctionService) saveStateLocked() {
	if err := s.store.SaveLiveState(s.state); err != nil {
		log.Printf("Error saving auction state: %v", err)
	}
}

func (s *AuctionService) startTimerLocked() {
	s.stopTimerLocked()
	stop := make(chan struct{})
	s.timerStop = stop
	go s.runTimer(stop)
}

func (s *AuctionService) stopTimerLocked() {
	if s.timerStop != nil {
		close(s.timerStop)
		s.timerStop = nil
	}
}

func (s *AuctionService) runTimer(stop chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !s.tick(stop) {
				return
			}
		}
	}
}

// tick applies one countdown step. It returns false when this timer is
// done, either because it went stale or because it triggered resolution.
func (s *AuctionService) tick(stop chan struct{}) bool {
	s.mu.Lock()

	// A resolve may have raced this tick; the stop channel identity tells
	// a stale timer from the live one
	if s.timerStop != stop || !s.state.IsActive {
		s.mu.Unlock()
		return false
	}

	// A bid accepted since the last tick already reset the window; its
	// reset wins over this decrement
	if time.Since(s.lastReset) < time.Second {
		s.mu.Unlock()
		return true
	}

	s.state.Timer--
	if s.state.Timer > 0 {
		remaining := s.state.Timer
		s.saveStateLocked()
		s.mu.Unlock()
		s.broadcast.BroadcastEvent("timer-update", remaining)
		return true
	}

	// Expiry: sold to the last bidder if there is one, else unsold
	winner, hasBids := resolveWinner(s.state.Bidders)
	if err := s.resolveLocked(hasBids, winner); err != nil {
		// The auction stays open on a failed store write; restart the
		// window and retry at the next expiry
		s.state.Timer = s.bidWindowLocked()
		s.lastReset = time.Now()
		s.saveStateLocked()
		s.mu.Unlock()
		log.Printf("Error auto-resolving auction on timer expiry: %v", err)
		return true
	}
	s.mu.Unlock()
	return false
}
