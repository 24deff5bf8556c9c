package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"cricketauction/models"
)

// fakeStore is an in-memory CatalogStore for exercising the auction core
// without postgres or redis.
type fakeStore struct {
	mu           sync.Mutex
	data         *LiveAuctionData
	resolutions  map[uint]Resolution
	resolveCalls int
	bids         []models.Bid
	resolveErr   error
	completed    bool
	savedLive    *AuctionState
}

func newFakeStore(data *LiveAuctionData) *fakeStore {
	return &fakeStore{data: data, resolutions: map[uint]Resolution{}}
}

func (f *fakeStore) LoadLiveAuction() (*LiveAuctionData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.data == nil {
		return nil, ErrNoLiveEvent
	}
	return f.data, nil
}

func (f *fakeStore) ResolvePlayer(eventID, playerID uint, res Resolution) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolveCalls++
	if f.resolveErr != nil {
		return f.resolveErr
	}
	f.resolutions[playerID] = res
	return nil
}

func (f *fakeStore) RecordBid(bid *models.Bid) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bids = append(f.bids, *bid)
	return nil
}

func (f *fakeStore) UpdateEventAuctionFields(eventID uint, currentPlayerID *uint, currentBid, timer int, isActive bool) error {
	return nil
}

func (f *fakeStore) MarkEventComplete(eventID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = true
	return nil
}

func (f *fakeStore) SaveLiveState(state *AuctionState) error { return nil }
func (f *fakeStore) ClearLiveState() error                   { return nil }

func (f *fakeStore) LoadLiveState() (*AuctionState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.savedLive, nil
}

func (f *fakeStore) resolveCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resolveCalls
}

// captureBroadcaster records broadcast events instead of pushing them to
// sockets.
type captureBroadcaster struct {
	mu     sync.Mutex
	events []capturedEvent
}

type capturedEvent struct {
	event   string
	payload interface{}
}

func (c *captureBroadcaster) BroadcastEvent(event string, payload interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, capturedEvent{event: event, payload: payload})
}

func (c *captureBroadcaster) has(event string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.events {
		if e.event == event {
			return true
		}
	}
	return false
}

var (
	raj  = Identity{UserID: 1, Username: "raj", Role: models.RoleBidder}
	amit = Identity{UserID: 2, Username: "amit", Role: models.RoleBidder}
)

func testLiveData() *LiveAuctionData {
	return &LiveAuctionData{
		Event: models.AuctionEvent{
			ID:               1,
			EventName:        "IPL Mega Auction",
			MaxBidders:       8,
			TeamPurseDefault: 100000000,
			TimerSeconds:     60,
			Registrations: []models.TeamRegistration{
				{EventID: 1, TeamName: "Chennai", OwnerName: "Raj", UserID: 1, Purse: 100000000, Status: models.RegistrationApproved},
				{EventID: 1, TeamName: "Mumbai", OwnerName: "Amit", UserID: 2, Purse: 100000000, Status: models.RegistrationApproved},
			},
		},
		Remaining: []models.Player{
			{ID: 10, Name: "V Sharma", BasePrice: 2000000, AuctionStatus: models.AuctionStatusPending},
			{ID: 11, Name: "R Patel", BasePrice: 5000000, AuctionStatus: models.AuctionStatusPending},
		},
	}
}

func newLiveService(t *testing.T) (*AuctionService, *fakeStore, *captureBroadcaster) {
	t.Helper()
	store := newFakeStore(testLiveData())
	svc := NewAuctionService(store)
	bc := &captureBroadcaster{}
	svc.SetBroadcaster(bc)
	if err := svc.ActivateEvent(); err != nil {
		t.Fatalf("ActivateEvent() error: %v", err)
	}
	return svc, store, bc
}

func TestActivateEventBuildsTeams(t *testing.T) {
	svc, _, _ := newLiveService(t)

	state := svc.Snapshot()
	if !state.IsEventLive {
		t.Fatal("expected event to be live")
	}
	if len(state.Teams) != 2 {
		t.Fatalf("expected 2 teams, got %d", len(state.Teams))
	}
	if state.Teams["Chennai"].Purse != 100000000 {
		t.Fatalf("expected full purse, got %d", state.Teams["Chennai"].Purse)
	}
	if len(state.RemainingPlayers) != 2 {
		t.Fatalf("expected 2 players in queue, got %d", len(state.RemainingPlayers))
	}
}

func TestActivateEventSkipsRejectedRegistrations(t *testing.T) {
	data := testLiveData()
	data.Event.Registrations = append(data.Event.Registrations, models.TeamRegistration{
		EventID: 1, TeamName: "Pune", OwnerName: "Dev", UserID: 3, Purse: 100000000,
		Status: models.RegistrationRejected,
	})
	svc := NewAuctionService(newFakeStore(data))
	if err := svc.ActivateEvent(); err != nil {
		t.Fatalf("ActivateEvent() error: %v", err)
	}

	state := svc.Snapshot()
	if _, ok := state.Teams["Pune"]; ok {
		t.Fatal("rejected registration must not get a team")
	}
}

func TestStartAuctionPutsPlayerOnBlock(t *testing.T) {
	svc, _, bc := newLiveService(t)

	if err := svc.StartAuction(10); err != nil {
		t.Fatalf("StartAuction() error: %v", err)
	}

	state := svc.Snapshot()
	if !state.IsActive || state.CurrentPlayer == nil || state.CurrentPlayer.ID != 10 {
		t.Fatal("expected player 10 on the block")
	}
	if state.CurrentBid != 2000000 {
		t.Fatalf("expected current bid at base price, got %d", state.CurrentBid)
	}
	if state.Timer != 60 {
		t.Fatalf("expected full timer, got %d", state.Timer)
	}
	if !bc.has("auction-started") {
		t.Fatal("expected auction-started broadcast")
	}

	if err := svc.StartAuction(11); !errors.Is(err, ErrAuctionInProgress) {
		t.Fatalf("expected ErrAuctionInProgress, got %v", err)
	}
}

func TestStartAuctionRejectsUnknownPlayer(t *testing.T) {
	svc, _, _ := newLiveService(t)

	if err := svc.StartAuction(99); !errors.Is(err, ErrPlayerNotInQueue) {
		t.Fatalf("expected ErrPlayerNotInQueue, got %v", err)
	}
}

func TestPlaceBidEnforcesMonotonicity(t *testing.T) {
	svc, _, _ := newLiveService(t)
	if err := svc.StartAuction(10); err != nil {
		t.Fatalf("StartAuction() error: %v", err)
	}

	if err := svc.PlaceBid(raj, 2500000); err != nil {
		t.Fatalf("PlaceBid() error: %v", err)
	}
	if err := svc.PlaceBid(amit, 2500000); !errors.Is(err, ErrBidTooLow) {
		t.Fatalf("expected ErrBidTooLow for equal bid, got %v", err)
	}
	if err := svc.PlaceBid(amit, 2000000); !errors.Is(err, ErrBidTooLow) {
		t.Fatalf("expected ErrBidTooLow for lower bid, got %v", err)
	}
	if err := svc.PlaceBid(amit, 3000000); err != nil {
		t.Fatalf("PlaceBid() error: %v", err)
	}

	state := svc.Snapshot()
	if state.CurrentBid != 3000000 {
		t.Fatalf("expected current bid 3000000, got %d", state.CurrentBid)
	}
	if len(state.Bidders) != 2 {
		t.Fatalf("expected 2 accepted bids, got %d", len(state.Bidders))
	}
}

func TestPlaceBidRejectsUnregisteredUser(t *testing.T) {
	svc, _, _ := newLiveService(t)
	if err := svc.StartAuction(10); err != nil {
		t.Fatalf("StartAuction() error: %v", err)
	}

	stranger := Identity{UserID: 42, Username: "ghost", Role: models.RoleBidder}
	if err := svc.PlaceBid(stranger, 2500000); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered, got %v", err)
	}
}

func TestPlaceBidRejectsOverPurse(t *testing.T) {
	svc, _, _ := newLiveService(t)
	if err := svc.StartAuction(10); err != nil {
		t.Fatalf("StartAuction() error: %v", err)
	}

	if err := svc.PlaceBid(raj, 100000001); !errors.Is(err, ErrInsufficientPurse) {
		t.Fatalf("expected ErrInsufficientPurse, got %v", err)
	}
}

func TestPlaceBidWithoutActiveAuction(t *testing.T) {
	svc, _, _ := newLiveService(t)

	if err := svc.PlaceBid(raj, 2500000); !errors.Is(err, ErrNoActiveAuction) {
		t.Fatalf("expected ErrNoActiveAuction, got %v", err)
	}
}

func TestBidResetsCountdown(t *testing.T) {
	data := testLiveData()
	data.Event.TimerSeconds = 60
	data.Event.BidResetSeconds = 30
	svc := NewAuctionService(newFakeStore(data))
	if err := svc.ActivateEvent(); err != nil {
		t.Fatalf("ActivateEvent() error: %v", err)
	}
	if err := svc.StartAuction(10); err != nil {
		t.Fatalf("StartAuction() error: %v", err)
	}

	// Simulate a countdown that has nearly run out
	svc.mu.Lock()
	svc.state.Timer = 3
	svc.mu.Unlock()

	if err := svc.PlaceBid(raj, 2500000); err != nil {
		t.Fatalf("PlaceBid() error: %v", err)
	}

	state := svc.Snapshot()
	if state.Timer != 30 {
		t.Fatalf("expected timer reset to 30, got %d", state.Timer)
	}
}

func TestEndAuctionSoldToLastBidder(t *testing.T) {
	svc, store, bc := newLiveService(t)
	if err := svc.StartAuction(10); err != nil {
		t.Fatalf("StartAuction() error: %v", err)
	}
	if err := svc.PlaceBid(raj, 2500000); err != nil {
		t.Fatalf("PlaceBid() error: %v", err)
	}
	if err := svc.PlaceBid(amit, 3000000); err != nil {
		t.Fatalf("PlaceBid() error: %v", err)
	}

	if err := svc.EndAuction(true, ""); err != nil {
		t.Fatalf("EndAuction() error: %v", err)
	}

	res, ok := store.resolutions[10]
	if !ok || !res.Sold || res.Team != "Mumbai" || res.FinalPrice != 3000000 {
		t.Fatalf("unexpected resolution: %+v", res)
	}

	state := svc.Snapshot()
	if state.IsActive || state.CurrentPlayer != nil {
		t.Fatal("expected auction to be closed")
	}
	if len(state.SoldPlayers) != 1 || state.SoldPlayers[0].ID != 10 {
		t.Fatal("expected player 10 in sold list")
	}
	if len(state.RemainingPlayers) != 1 {
		t.Fatalf("expected 1 player remaining, got %d", len(state.RemainingPlayers))
	}
	if state.Teams["Mumbai"].Purse != 100000000-3000000 {
		t.Fatalf("expected winner purse deducted, got %d", state.Teams["Mumbai"].Purse)
	}
	if state.Teams["Chennai"].Purse != 100000000 {
		t.Fatalf("losing team purse must be untouched, got %d", state.Teams["Chennai"].Purse)
	}
	if !bc.has("auction-ended") {
		t.Fatal("expected auction-ended broadcast")
	}

	// A late bid after resolution is rejected outright
	if err := svc.PlaceBid(raj, 4000000); !errors.Is(err, ErrNoActiveAuction) {
		t.Fatalf("expected ErrNoActiveAuction after resolution, got %v", err)
	}
}

func TestEndAuctionWithoutBidsIsUnsold(t *testing.T) {
	svc, store, _ := newLiveService(t)
	if err := svc.StartAuction(10); err != nil {
		t.Fatalf("StartAuction() error: %v", err)
	}

	// Admin says sold, but nobody bid
	if err := svc.EndAuction(true, ""); err != nil {
		t.Fatalf("EndAuction() error: %v", err)
	}

	res := store.resolutions[10]
	if res.Sold {
		t.Fatal("player with no bids must go unsold")
	}

	state := svc.Snapshot()
	if len(state.UnsoldPlayers) != 1 || state.UnsoldPlayers[0].ID != 10 {
		t.Fatal("expected player 10 in unsold list")
	}
}

func TestEndAuctionOverrideTeamMustExist(t *testing.T) {
	svc, store, _ := newLiveService(t)
	if err := svc.StartAuction(10); err != nil {
		t.Fatalf("StartAuction() error: %v", err)
	}
	if err := svc.PlaceBid(raj, 2500000); err != nil {
		t.Fatalf("PlaceBid() error: %v", err)
	}

	// Unknown override team falls back to the last bidder
	if err := svc.EndAuction(true, "Kolkata"); err != nil {
		t.Fatalf("EndAuction() error: %v", err)
	}

	res := store.resolutions[10]
	if !res.Sold || res.Team != "Chennai" {
		t.Fatalf("expected fallback to last bidder, got %+v", res)
	}
}

func TestResolutionFailureLeavesAuctionOpen(t *testing.T) {
	svc, store, bc := newLiveService(t)
	if err := svc.StartAuction(10); err != nil {
		t.Fatalf("StartAuction() error: %v", err)
	}
	if err := svc.PlaceBid(raj, 2500000); err != nil {
		t.Fatalf("PlaceBid() error: %v", err)
	}

	store.mu.Lock()
	store.resolveErr = errors.New("database unavailable")
	store.mu.Unlock()

	if err := svc.EndAuction(true, ""); err == nil {
		t.Fatal("expected resolution to fail")
	}
	if !bc.has("auction-error") {
		t.Fatal("expected auction-error broadcast")
	}

	state := svc.Snapshot()
	if !state.IsActive || state.CurrentPlayer == nil {
		t.Fatal("failed resolution must leave the auction open")
	}
	if state.Teams["Chennai"].Purse != 100000000 {
		t.Fatal("failed resolution must not touch purses")
	}

	// Retry succeeds once the store recovers
	store.mu.Lock()
	store.resolveErr = nil
	store.mu.Unlock()

	if err := svc.EndAuction(true, ""); err != nil {
		t.Fatalf("EndAuction() retry error: %v", err)
	}
	if !store.resolutions[10].Sold {
		t.Fatal("expected retry to persist the sale")
	}
}

func TestStartNextPlayerWalksQueueAndCompletesEvent(t *testing.T) {
	svc, store, bc := newLiveService(t)

	if err := svc.StartNextPlayer(); err != nil {
		t.Fatalf("StartNextPlayer() error: %v", err)
	}
	if got := svc.Snapshot().CurrentPlayer.ID; got != 10 {
		t.Fatalf("expected head of queue on block, got player %d", got)
	}
	if err := svc.EndAuction(false, ""); err != nil {
		t.Fatalf("EndAuction() error: %v", err)
	}

	if err := svc.StartNextPlayer(); err != nil {
		t.Fatalf("StartNextPlayer() error: %v", err)
	}
	if got := svc.Snapshot().CurrentPlayer.ID; got != 11 {
		t.Fatalf("expected player 11 on block, got %d", got)
	}
	if err := svc.PlaceBid(raj, 6000000); err != nil {
		t.Fatalf("PlaceBid() error: %v", err)
	}
	if err := svc.EndAuction(true, ""); err != nil {
		t.Fatalf("EndAuction() error: %v", err)
	}

	state := svc.Snapshot()
	if !state.IsEventComplete {
		t.Fatal("expected event complete after last player resolved")
	}
	if !store.completed {
		t.Fatal("expected completion persisted")
	}
	if !bc.has("auction-event-complete") {
		t.Fatal("expected auction-event-complete broadcast")
	}

	if err := svc.StartNextPlayer(); !errors.Is(err, ErrEventComplete) {
		t.Fatalf("expected ErrEventComplete, got %v", err)
	}
}

func TestPurseCarriesAcrossPlayers(t *testing.T) {
	svc, _, _ := newLiveService(t)

	if err := svc.StartAuction(10); err != nil {
		t.Fatalf("StartAuction() error: %v", err)
	}
	if err := svc.PlaceBid(raj, 60000000); err != nil {
		t.Fatalf("PlaceBid() error: %v", err)
	}
	if err := svc.EndAuction(true, ""); err != nil {
		t.Fatalf("EndAuction() error: %v", err)
	}

	if err := svc.StartAuction(11); err != nil {
		t.Fatalf("StartAuction() error: %v", err)
	}

	// Remaining purse is 40000000; a bid above it must be rejected
	if err := svc.PlaceBid(raj, 50000000); !errors.Is(err, ErrInsufficientPurse) {
		t.Fatalf("expected ErrInsufficientPurse, got %v", err)
	}
	if err := svc.PlaceBid(raj, 40000000); err != nil {
		t.Fatalf("PlaceBid() error: %v", err)
	}
}

func TestBidLedgerRecordsAcceptedBids(t *testing.T) {
	svc, store, _ := newLiveService(t)
	if err := svc.StartAuction(10); err != nil {
		t.Fatalf("StartAuction() error: %v", err)
	}
	if err := svc.PlaceBid(raj, 2500000); err != nil {
		t.Fatalf("PlaceBid() error: %v", err)
	}
	if err := svc.PlaceBid(amit, 2400000); err == nil {
		t.Fatal("expected low bid to be rejected")
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.bids) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(store.bids))
	}
	if store.bids[0].TeamName != "Chennai" || store.bids[0].Amount != 2500000 {
		t.Fatalf("unexpected ledger entry: %+v", store.bids[0])
	}
}

func TestDeactivateEventClearsState(t *testing.T) {
	svc, _, _ := newLiveService(t)
	if err := svc.StartAuction(10); err != nil {
		t.Fatalf("StartAuction() error: %v", err)
	}

	if err := svc.DeactivateEvent(); err != nil {
		t.Fatalf("DeactivateEvent() error: %v", err)
	}

	state := svc.Snapshot()
	if state.IsEventLive || state.IsActive {
		t.Fatal("expected idle state after deactivation")
	}
}

func waitFor(t *testing.T, d time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(25 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestTimerExpirySellsToLastBidder(t *testing.T) {
	data := testLiveData()
	data.Event.TimerSeconds = 2
	store := newFakeStore(data)
	svc := NewAuctionService(store)
	bc := &captureBroadcaster{}
	svc.SetBroadcaster(bc)
	if err := svc.ActivateEvent(); err != nil {
		t.Fatalf("ActivateEvent() error: %v", err)
	}

	if err := svc.StartAuction(10); err != nil {
		t.Fatalf("StartAuction() error: %v", err)
	}
	if err := svc.PlaceBid(raj, 2500000); err != nil {
		t.Fatalf("PlaceBid() error: %v", err)
	}

	waitFor(t, 8*time.Second, "countdown expiry", func() bool {
		return !svc.Snapshot().IsActive
	})

	res, ok := store.resolutions[10]
	if !ok || !res.Sold || res.Team != "Chennai" || res.FinalPrice != 2500000 {
		t.Fatalf("unexpected resolution: %+v", res)
	}
	if n := store.resolveCallCount(); n != 1 {
		t.Fatalf("expected exactly one resolution, got %d", n)
	}
	if !bc.has("auction-ended") {
		t.Fatal("expected auction-ended broadcast")
	}
	if got := svc.Snapshot().Teams["Chennai"].Purse; got != 100000000-2500000 {
		t.Fatalf("expected winner purse deducted, got %d", got)
	}
}

func TestTimerExpiryWithoutBidsGoesUnsold(t *testing.T) {
	data := testLiveData()
	data.Event.TimerSeconds = 2
	store := newFakeStore(data)
	svc := NewAuctionService(store)
	if err := svc.ActivateEvent(); err != nil {
		t.Fatalf("ActivateEvent() error: %v", err)
	}

	if err := svc.StartAuction(10); err != nil {
		t.Fatalf("StartAuction() error: %v", err)
	}

	waitFor(t, 8*time.Second, "countdown expiry", func() bool {
		return !svc.Snapshot().IsActive
	})

	if res := store.resolutions[10]; res.Sold {
		t.Fatal("player with no bids must go unsold on expiry")
	}
	if n := store.resolveCallCount(); n != 1 {
		t.Fatalf("expected exactly one resolution, got %d", n)
	}
}

func TestExplicitResolveWinsOverRunningCountdown(t *testing.T) {
	data := testLiveData()
	data.Event.TimerSeconds = 2
	store := newFakeStore(data)
	svc := NewAuctionService(store)
	if err := svc.ActivateEvent(); err != nil {
		t.Fatalf("ActivateEvent() error: %v", err)
	}

	if err := svc.StartAuction(10); err != nil {
		t.Fatalf("StartAuction() error: %v", err)
	}
	if err := svc.PlaceBid(raj, 2500000); err != nil {
		t.Fatalf("PlaceBid() error: %v", err)
	}
	if err := svc.EndAuction(true, ""); err != nil {
		t.Fatalf("EndAuction() error: %v", err)
	}

	// Outlive the countdown the admin pre-empted
	time.Sleep(3500 * time.Millisecond)

	if n := store.resolveCallCount(); n != 1 {
		t.Fatalf("stale countdown must not resolve again, got %d resolutions", n)
	}
	state := svc.Snapshot()
	if len(state.SoldPlayers) != 1 {
		t.Fatalf("expected exactly one sold player, got %d", len(state.SoldPlayers))
	}
}

func TestStaleTickIsIgnored(t *testing.T) {
	svc, _, _ := newLiveService(t)
	if err := svc.StartAuction(10); err != nil {
		t.Fatalf("StartAuction() error: %v", err)
	}

	// A tick whose stop channel is not the live one must do nothing
	if svc.tick(make(chan struct{})) {
		t.Fatal("stale tick must report itself done")
	}
	state := svc.Snapshot()
	if !state.IsActive || state.Timer != 60 {
		t.Fatalf("stale tick must not touch state, got active=%v timer=%d",
			state.IsActive, state.Timer)
	}
}

func TestTickYieldsToAFreshBidReset(t *testing.T) {
	svc, _, _ := newLiveService(t)
	if err := svc.StartAuction(10); err != nil {
		t.Fatalf("StartAuction() error: %v", err)
	}

	svc.mu.Lock()
	stop := svc.timerStop
	svc.mu.Unlock()

	if err := svc.PlaceBid(raj, 2500000); err != nil {
		t.Fatalf("PlaceBid() error: %v", err)
	}

	// The bid just reset the window; this tick must not decrement
	if !svc.tick(stop) {
		t.Fatal("live tick must keep running")
	}
	if got := svc.Snapshot().Timer; got != 60 {
		t.Fatalf("tick right after a bid must not decrement, got %d", got)
	}

	// Once the reset is stale the countdown proceeds
	svc.mu.Lock()
	svc.lastReset = time.Now().Add(-2 * time.Second)
	svc.mu.Unlock()

	if !svc.tick(stop) {
		t.Fatal("live tick must keep running")
	}
	if got := svc.Snapshot().Timer; got != 59 {
		t.Fatalf("expected timer 59 after decrement, got %d", got)
	}
}

func TestResumeRestartsExpiredCountdown(t *testing.T) {
	player := models.Player{ID: 10, Name: "V Sharma", BasePrice: 2000000}
	saved := &AuctionState{
		IsActive:      true,
		IsEventLive:   true,
		EventID:       1,
		EventName:     "IPL Mega Auction",
		MaxBidders:    8,
		TimerSeconds:  2,
		Timer:         0,
		CurrentPlayer: &player,
		CurrentBid:    2500000,
		BaseBid:       2000000,
		Bidders: []BidEntry{
			{Bidder: "raj", BidderID: 1, Team: "Chennai", Amount: 2500000, Timestamp: time.Now()},
		},
		RemainingPlayers: []models.Player{player},
		Teams: map[string]*TeamState{
			"Chennai": {Name: "Chennai", UserID: 1, Purse: 100000000, OriginalPurse: 100000000},
			"Mumbai":  {Name: "Mumbai", UserID: 2, Purse: 100000000, OriginalPurse: 100000000},
		},
	}

	store := newFakeStore(testLiveData())
	store.savedLive = saved
	svc := NewAuctionService(store)
	bc := &captureBroadcaster{}
	svc.SetBroadcaster(bc)
	svc.Resume()

	state := svc.Snapshot()
	if !state.IsActive {
		t.Fatal("expected resumed auction to be active")
	}
	if state.Timer <= 0 {
		t.Fatalf("expected a fresh countdown after resume, got %d", state.Timer)
	}

	waitFor(t, 8*time.Second, "countdown expiry", func() bool {
		return !svc.Snapshot().IsActive
	})

	res := store.resolutions[10]
	if !res.Sold || res.Team != "Chennai" || res.FinalPrice != 2500000 {
		t.Fatalf("unexpected resolution after resume: %+v", res)
	}
}

func TestFailedAutoResolveKeepsCountingDown(t *testing.T) {
	data := testLiveData()
	data.Event.TimerSeconds = 2
	store := newFakeStore(data)
	svc := NewAuctionService(store)
	bc := &captureBroadcaster{}
	svc.SetBroadcaster(bc)
	if err := svc.ActivateEvent(); err != nil {
		t.Fatalf("ActivateEvent() error: %v", err)
	}

	store.mu.Lock()
	store.resolveErr = errors.New("database unavailable")
	store.mu.Unlock()

	if err := svc.StartAuction(10); err != nil {
		t.Fatalf("StartAuction() error: %v", err)
	}

	waitFor(t, 8*time.Second, "failed auto-resolve", func() bool {
		return bc.has("auction-error")
	})
	if !svc.Snapshot().IsActive {
		t.Fatal("failed auto-resolve must leave the auction open")
	}

	// Once the store recovers the next expiry settles the player
	store.mu.Lock()
	store.resolveErr = nil
	store.mu.Unlock()

	waitFor(t, 8*time.Second, "retried resolution", func() bool {
		return !svc.Snapshot().IsActive
	})
	if res := store.resolutions[10]; res.Sold {
		t.Fatal("player with no bids must go unsold")
	}
}

func TestEndAuctionOverrideChecksPurse(t *testing.T) {
	data := testLiveData()
	data.Event.Registrations[0].Purse = 1000000 // Chennai cannot afford the base price
	store := newFakeStore(data)
	svc := NewAuctionService(store)
	if err := svc.ActivateEvent(); err != nil {
		t.Fatalf("ActivateEvent() error: %v", err)
	}
	if err := svc.StartAuction(10); err != nil {
		t.Fatalf("StartAuction() error: %v", err)
	}

	if err := svc.EndAuction(true, "Chennai"); !errors.Is(err, ErrInsufficientPurse) {
		t.Fatalf("expected ErrInsufficientPurse, got %v", err)
	}
	if !svc.Snapshot().IsActive {
		t.Fatal("rejected override must leave the auction open")
	}

	if err := svc.EndAuction(true, "Mumbai"); err != nil {
		t.Fatalf("EndAuction() error: %v", err)
	}
	res := store.resolutions[10]
	if !res.Sold || res.Team != "Mumbai" || res.FinalPrice != 2000000 {
		t.Fatalf("unexpected resolution: %+v", res)
	}
	if got := svc.Snapshot().Teams["Mumbai"].Purse; got != 100000000-2000000 {
		t.Fatalf("expected Mumbai purse deducted, got %d", got)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	svc, _, _ := newLiveService(t)
	if err := svc.StartAuction(10); err != nil {
		t.Fatalf("StartAuction() error: %v", err)
	}

	snap := svc.Snapshot()
	snap.Teams["Chennai"].Purse = 0
	snap.CurrentBid = 999

	state := svc.Snapshot()
	if state.Teams["Chennai"].Purse != 100000000 {
		t.Fatal("mutating a snapshot must not touch live state")
	}
	if state.CurrentBid == 999 {
		t.Fatal("mutating a snapshot must not touch live state")
	}
}
