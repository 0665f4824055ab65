// Package bot provides decision policies for machine-seated players. A
// policy inspects a table snapshot from the bot seat's point of view and
// returns the action to submit.
package bot

import (
	"math/rand/v2"

	"github.com/cardroom/tabled/internal/game"
)

// Decision is a policy's chosen action plus the total amount for bets and
// raises. Amount is ignored for fold, check, call and all-in.
type Decision struct {
	Action game.Action
	Amount int
}

// Policy chooses an action for a seat from its view of the table.
type Policy interface {
	Decide(snap game.Snapshot, seatID string) Decision
}

// PolicyFunc adapts a function to the Policy interface.
type PolicyFunc func(snap game.Snapshot, seatID string) Decision

func (f PolicyFunc) Decide(snap game.Snapshot, seatID string) Decision {
	return f(snap, seatID)
}

// Passive returns a policy that checks when free and calls otherwise. It
// never folds, which makes it a convenient opponent for deterministic tests.
func Passive() Policy {
	return PolicyFunc(func(snap game.Snapshot, seatID string) Decision {
		seat, ok := findSeat(snap, seatID)
		if !ok {
			return Decision{Action: game.Fold}
		}
		if seat.Bet >= snap.CurrentBet {
			return Decision{Action: game.Check}
		}
		return Decision{Action: game.Call}
	})
}

// Folder returns a policy that checks when free and folds to any bet.
// The table's turn timer uses it to act for expired seats.
func Folder() Policy {
	return PolicyFunc(func(snap game.Snapshot, seatID string) Decision {
		seat, ok := findSeat(snap, seatID)
		if !ok || seat.Bet < snap.CurrentBet {
			return Decision{Action: game.Fold}
		}
		return Decision{Action: game.Check}
	})
}

// Random returns a policy that folds, calls, or raises with equal weight,
// squashing illegal picks down to the nearest legal action. rng must not
// be nil.
func Random(rng *rand.Rand) Policy {
	if rng == nil {
		panic("bot: nil rng")
	}
	return PolicyFunc(func(snap game.Snapshot, seatID string) Decision {
		return mapChoice(rng.IntN(numChoices), snap, seatID, 0.5)
	})
}

func findSeat(snap game.Snapshot, seatID string) (game.SeatView, bool) {
	for _, s := range snap.Seats {
		if s.ID == seatID {
			return s, true
		}
	}
	return game.SeatView{}, false
}
