package game

import "github.com/cardroom/tabled/internal/deck"

// Seat is a player's per-hand state at the table. Seats are created when a
// player joins and persist across hands; the hand-scoped fields (Bet,
// HoleCards, Folded, AllIn) are reset at the start of every hand.
type Seat struct {
	ID       string
	Name     string
	Stack    int
	Bet      int // chips wagered in the current street
	Position int // fixed index, stable for the life of the seat

	Active    bool // eligible to be dealt in and to act
	Folded    bool
	AllIn     bool
	HoleCards []deck.Card
}

// resetForHand clears the hand-scoped fields. A seat that busted stays
// inactive until it rebuys (not modelled here); a seat that joined mid-hand
// becomes active now.
func (s *Seat) resetForHand() {
	s.Bet = 0
	s.HoleCards = nil
	s.Folded = false
	s.AllIn = false
	s.Active = s.Stack > 0
}

// live reports whether the seat still has a decision to make this hand:
// dealt in, not folded, not all-in.
func (s *Seat) live() bool {
	return s.Active && !s.Folded && !s.AllIn
}

// inHand reports whether the seat is still contesting the pot.
func (s *Seat) inHand() bool {
	return s.Active && !s.Folded
}

// pay moves up to amount chips from the stack into the seat's street bet
// and returns the chips actually moved. A stack reaching zero marks the
// seat all-in.
func (s *Seat) pay(amount int) int {
	if amount > s.Stack {
		amount = s.Stack
	}
	s.Stack -= amount
	s.Bet += amount
	if s.Stack == 0 {
		s.AllIn = true
	}
	return amount
}
