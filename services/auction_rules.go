package services

import "errors"

var (
	ErrNoActiveAuction   = errors.New("no active auction")
	ErrBidTooLow         = errors.New("bid must be higher than current bid")
	ErrNotRegistered     = errors.New("you are not registered for this event")
	ErrInsufficientPurse = errors.New("bid exceeds remaining purse")
)

// validateBid checks a bid against the latest state. It never mutates
// anything; callers apply it under the service lock so the check always
// sees the current bid, not a stale read.
func validateBid(amount, currentBid, purse int, active bool) error {
	if !active {
		return ErrNoActiveAuction
	}
	if amount <= currentBid {
		return ErrBidTooLow
	}
	if amount > purse {
		return ErrInsufficientPurse
	}
	return nil
}

// resolveWinner returns the team holding the highest bid. Bids are only
// ever accepted strictly above the current bid, so the last entry is the
// winner; an empty history means unsold.
func resolveWinner(history []BidEntry) (team string, ok bool) {
	if len(history) == 0 {
		return "", false
	}
	return history[len(history)-1].Team, true
}

// suggestedIncrements returns the quick-bid deltas surfaced to clients.
// These are hints, not server-enforced minimums; the only hard rule is
// "must exceed current bid".
func suggestedIncrements(currentBid int) []int {
	switch {
	case currentBid < 10000000: // under 1 Cr
		return []int{500000, 1000000, 2500000}
	case currentBid < 20000000: // under 2 Cr
		return []int{1000000, 2500000, 5000000}
	default:
		return []int{2500000, 5000000, 10000000}
	}
}
