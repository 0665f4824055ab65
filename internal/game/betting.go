package game

import "fmt"

// BettingRound tracks the state of one betting street: the bet to match,
// the minimum legal raise increment, who raised last, and which seats still
// owe a decision. Closure is tracked with a per-seat acted bitmap that is
// cleared whenever aggression reopens the action, so a round can never
// close before every live seat has responded to the latest raise.
type BettingRound struct {
	CurrentBet    int // total street wager every live seat must match
	MinRaise      int // last raise increment; a new raise must be at least this much more
	LastAggressor int // seat index of the last bet/raise, -1 if none this street
	StartIndex    int // seat index where the street's action began

	// Preflop only: the big blind's forced post is not a voluntary action,
	// so the round stays open until that seat acts even with bets matched.
	BBSeat  int // -1 outside preflop
	BBActed bool

	acted    []bool
	bigBlind int
}

// NewBettingRound opens a post-flop betting street. startIndex is the first
// seat to act.
func NewBettingRound(numSeats, bigBlind, startIndex int) *BettingRound {
	return &BettingRound{
		MinRaise:      bigBlind,
		LastAggressor: -1,
		StartIndex:    startIndex,
		BBSeat:        -1,
		acted:         make([]bool, numSeats),
		bigBlind:      bigBlind,
	}
}

// NewPreflopRound opens the preflop street. The posted big blind pre-seeds
// the bet to match, and the big-blind seat counts as the initial aggressor
// the rest of the table acts around.
func NewPreflopRound(numSeats, bigBlind, startIndex, bbSeat, bbPosted int) *BettingRound {
	br := NewBettingRound(numSeats, bigBlind, startIndex)
	br.CurrentBet = bbPosted
	br.LastAggressor = bbSeat
	br.BBSeat = bbSeat
	return br
}

// MinRaiseTotal returns the smallest legal raise target facing the current
// bet: the bigger of current bet plus the last raise increment and double
// the current bet.
func (br *BettingRound) MinRaiseTotal() int {
	return max(br.CurrentBet+br.MinRaise, br.CurrentBet*2)
}

// Apply validates the action for the given seat and, only if legal, mutates
// the seat and round state. It returns the chips the seat moved into the
// pot. On error nothing has changed.
func (br *BettingRound) Apply(s *Seat, idx int, street Phase, action Action, amount int) (int, error) {
	paid := 0

	switch action {
	case Fold:
		if s.Bet == br.CurrentBet {
			return 0, fmt.Errorf("%w: cannot fold when checking is free", ErrInvalidAction)
		}
		s.Folded = true
		s.Active = false

	case Check:
		if street != Preflop && br.CurrentBet > 0 {
			return 0, fmt.Errorf("%w: cannot check facing a bet of %d", ErrInvalidAction, br.CurrentBet)
		}
		if s.Bet != br.CurrentBet {
			return 0, fmt.Errorf("%w: cannot check, %d to call", ErrInvalidAction, br.CurrentBet-s.Bet)
		}

	case Call:
		if street != Preflop && br.CurrentBet == 0 {
			return 0, fmt.Errorf("%w: nothing to call", ErrInvalidAction)
		}
		toCall := br.CurrentBet - s.Bet
		if toCall <= 0 {
			return 0, fmt.Errorf("%w: nothing to call", ErrInvalidAction)
		}
		paid = s.pay(toCall)

	case Bet:
		if br.CurrentBet > 0 {
			return 0, fmt.Errorf("%w: facing a bet of %d, raise instead", ErrInvalidAction, br.CurrentBet)
		}
		if amount <= 0 {
			return 0, fmt.Errorf("%w: bet must be positive", ErrInvalidAction)
		}
		if amount > s.Stack {
			return 0, fmt.Errorf("%w: bet %d exceeds stack %d", ErrInvalidAction, amount, s.Stack)
		}
		if amount < br.bigBlind && amount < s.Stack {
			return 0, fmt.Errorf("%w: minimum bet is the big blind (%d)", ErrInvalidAction, br.bigBlind)
		}
		paid = s.pay(amount)
		br.CurrentBet = amount
		br.MinRaise = amount
		br.reopen(idx)

	case Raise:
		if br.CurrentBet == 0 {
			return 0, fmt.Errorf("%w: no bet to raise", ErrInvalidAction)
		}
		available := s.Stack + s.Bet
		if amount > available {
			return 0, fmt.Errorf("%w: raise to %d exceeds available chips %d", ErrInvalidAction, amount, available)
		}
		if amount <= br.CurrentBet {
			return 0, fmt.Errorf("%w: raise to %d does not exceed current bet %d", ErrInvalidAction, amount, br.CurrentBet)
		}
		if amount < br.MinRaiseTotal() && amount < available {
			return 0, fmt.Errorf("%w: minimum raise is to %d", ErrInvalidAction, br.MinRaiseTotal())
		}
		prev := br.CurrentBet
		paid = s.pay(amount - s.Bet)
		br.MinRaise = amount - prev
		br.CurrentBet = amount
		br.reopen(idx)

	case AllIn:
		if s.Stack == 0 {
			return 0, fmt.Errorf("%w: no chips remaining", ErrInvalidAction)
		}
		paid = s.pay(s.Stack)
		if s.Bet > br.CurrentBet {
			br.MinRaise = s.Bet - br.CurrentBet
			br.CurrentBet = s.Bet
			br.reopen(idx)
		}

	default:
		return 0, fmt.Errorf("%w: unknown action", ErrInvalidAction)
	}

	br.acted[idx] = true
	if idx == br.BBSeat {
		br.BBActed = true
	}
	return paid, nil
}

// reopen records new aggression: every other live seat must act again
// before the round can close.
func (br *BettingRound) reopen(idx int) {
	br.LastAggressor = idx
	for i := range br.acted {
		br.acted[i] = false
	}
}

// Complete reports whether the street's betting has closed: every live seat
// has matched the current bet and has acted since the last aggression, and
// preflop the big blind has taken a voluntary action. With at most one seat
// able to act there is no decision point left, so the round closes as soon
// as that seat has matched. The check is a pure read and is idempotent.
func (br *BettingRound) Complete(seats []*Seat) bool {
	live := 0
	for _, s := range seats {
		if s.live() {
			live++
		}
	}

	if live <= 1 {
		for _, s := range seats {
			if s.live() && s.Bet != br.CurrentBet {
				return false
			}
		}
		return true
	}

	for i, s := range seats {
		if !s.live() {
			continue
		}
		if s.Bet != br.CurrentBet || !br.acted[i] {
			return false
		}
	}

	if br.BBSeat >= 0 && !br.BBActed && seats[br.BBSeat].live() {
		return false
	}
	return true
}
