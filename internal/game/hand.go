package game

import (
	"fmt"
	"time"

	"github.com/cardroom/tabled/internal/deck"
)

// Winner is a seat awarded chips at settlement.
type Winner struct {
	SeatID string `json:"seat_id"`
	Name   string `json:"name"`
	Amount int    `json:"amount"`
}

// Hand is the ephemeral per-hand aggregate: one shuffled deck, the board,
// the pot, and the betting round for the current street. It mutates the
// table's seats directly and is discarded once settled.
type Hand struct {
	ID        string
	TableID   string
	Dealer    int
	Phase     Phase
	Community []deck.Card
	Pot       int
	ActionOn  int // seat index to act, -1 outside betting
	Winners   []Winner

	Deck    *deck.Deck
	Betting *BettingRound

	seats      []*Seat
	smallBlind int
	bigBlind   int
	sbSeat     int
	bbSeat     int
	ranker     Ranker

	startedAt   time.Time
	startStacks []int
	actions     []ActionRecord
	pending     []Event
}

func newHand(id, tableID string, seats []*Seat, dealer, smallBlind, bigBlind int, d *deck.Deck, ranker Ranker) (*Hand, error) {
	h := &Hand{
		ID:         id,
		TableID:    tableID,
		Dealer:     dealer,
		Phase:      Preflop,
		ActionOn:   -1,
		Deck:       d,
		seats:      seats,
		smallBlind: smallBlind,
		bigBlind:   bigBlind,
		ranker:     ranker,
		startedAt:  time.Now(),
	}

	for _, s := range seats {
		s.resetForHand()
	}
	h.startStacks = make([]int, len(seats))
	for i, s := range seats {
		h.startStacks[i] = s.Stack
	}

	sbSeat := h.nextDealtIn(dealer + 1)
	bbSeat := h.nextDealtIn(sbSeat + 1)
	h.sbSeat, h.bbSeat = sbSeat, bbSeat
	h.Pot += seats[sbSeat].pay(min(smallBlind, seats[sbSeat].Stack))
	bbPosted := seats[bbSeat].pay(min(bigBlind, seats[bbSeat].Stack))
	h.Pot += bbPosted

	if err := h.dealHoleCards(); err != nil {
		return nil, err
	}

	start := h.nextLive(bbSeat + 1)
	h.Betting = NewPreflopRound(len(seats), bigBlind, start, bbSeat, bbPosted)

	h.emit(HandStarted{
		TableID:    tableID,
		HandID:     id,
		Dealer:     dealer,
		SmallBlind: smallBlind,
		BigBlind:   bigBlind,
		Pot:        h.Pot,
	})

	if start < 0 || h.Betting.Complete(seats) {
		if err := h.advancePhase(); err != nil {
			return nil, err
		}
	} else {
		h.ActionOn = start
	}
	return h, nil
}

func (h *Hand) dealHoleCards() error {
	for _, s := range h.seats {
		if !s.Active {
			continue
		}
		cards, err := h.Deck.Draw(2)
		if err != nil {
			return err
		}
		s.HoleCards = cards
	}
	return nil
}

// Apply validates and applies an action for the seat at idx. The mutation
// is atomic: on any error the hand, seats, and pot are unchanged.
func (h *Hand) Apply(idx int, action Action, amount int) error {
	if !h.Phase.IsBetting() || h.ActionOn < 0 {
		return fmt.Errorf("%w: no betting in progress", ErrInvalidAction)
	}
	if idx != h.ActionOn {
		return fmt.Errorf("%w: seat %d to act", ErrOutOfTurn, h.ActionOn)
	}

	s := h.seats[idx]
	if !s.live() {
		return fmt.Errorf("%w: seat cannot act", ErrInvalidAction)
	}

	paid, err := h.Betting.Apply(s, idx, h.Phase, action, amount)
	if err != nil {
		return err
	}
	h.Pot += paid

	rec := ActionRecord{
		SeatID: s.ID,
		Name:   s.Name,
		Phase:  h.Phase.String(),
		Action: action.String(),
		Amount: paid,
		At:     time.Now(),
	}
	h.actions = append(h.actions, rec)
	h.emit(ActionApplied{
		TableID: h.TableID,
		HandID:  h.ID,
		SeatID:  s.ID,
		Action:  action,
		Amount:  paid,
		Phase:   h.Phase,
		Pot:     h.Pot,
		At:      rec.At,
	})

	if h.countInHand() <= 1 {
		h.settle()
		return nil
	}
	if h.Betting.Complete(h.seats) {
		return h.advancePhase()
	}
	h.ActionOn = h.nextLive(h.ActionOn + 1)
	return nil
}

// advancePhase deals the next street and opens its betting round. Streets
// with no remaining decision point (everyone folded or all-in, bets
// matched) are run out back-to-back until showdown.
func (h *Hand) advancePhase() error {
	h.ActionOn = -1
	for {
		for _, s := range h.seats {
			s.Bet = 0
		}

		var draw int
		switch h.Phase {
		case Preflop:
			h.Phase, draw = Flop, 3
		case Flop:
			h.Phase, draw = Turn, 1
		case Turn:
			h.Phase, draw = River, 1
		case River:
			h.settle()
			return nil
		default:
			return nil
		}

		cards, err := h.Deck.Draw(draw)
		if err != nil {
			return err
		}
		h.Community = append(h.Community, cards...)
		h.emit(StreetDealt{
			TableID:   h.TableID,
			HandID:    h.ID,
			Phase:     h.Phase,
			Community: h.Community,
		})

		start := h.nextLive(h.Dealer + 1)
		h.Betting = NewBettingRound(len(h.seats), h.bigBlind, start)
		if start >= 0 && !h.Betting.Complete(h.seats) {
			h.ActionOn = start
			return nil
		}
	}
}

// settle awards the pot. A lone survivor wins unconditionally; multi-way
// showdowns are delegated to the injected ranker. Splits are even with the
// remainder going to the earliest winning position.
func (h *Hand) settle() {
	h.Phase = Showdown
	h.ActionOn = -1

	var contenders []Contender
	for _, s := range h.seats {
		if s.inHand() {
			contenders = append(contenders, Contender{SeatID: s.ID, HoleCards: s.HoleCards})
		}
	}

	var winnerIDs []string
	if len(contenders) == 1 {
		winnerIDs = []string{contenders[0].SeatID}
	} else if len(contenders) > 1 {
		winnerIDs = h.ranker.Winners(h.Community, contenders)
	}

	pot := h.Pot
	if n := len(winnerIDs); n > 0 {
		share := pot / n
		remainder := pot % n
		for _, id := range winnerIDs {
			s := h.seatByID(id)
			if s == nil {
				continue
			}
			amount := share
			if remainder > 0 {
				amount++
				remainder--
			}
			s.Stack += amount
			h.Winners = append(h.Winners, Winner{SeatID: s.ID, Name: s.Name, Amount: amount})
		}
		h.Pot = 0
	}
	h.Phase = Finished

	record := h.buildRecord(pot)
	h.emit(HandFinished{
		TableID: h.TableID,
		HandID:  h.ID,
		Winners: h.Winners,
		Pot:     pot,
		Record:  record,
	})
}

func (h *Hand) buildRecord(pot int) HandRecord {
	won := make(map[string]bool, len(h.Winners))
	for _, w := range h.Winners {
		won[w.SeatID] = true
	}

	results := make([]SeatResult, 0, len(h.seats))
	for i, s := range h.seats {
		if !s.Active && s.Stack == h.startStacks[i] && len(s.HoleCards) == 0 {
			continue // was never dealt in
		}
		results = append(results, SeatResult{
			SeatID:     s.ID,
			Name:       s.Name,
			StartStack: h.startStacks[i],
			EndStack:   s.Stack,
			HoleCards:  deck.Strings(s.HoleCards),
			Won:        won[s.ID],
		})
	}

	return HandRecord{
		HandID:    h.ID,
		TableID:   h.TableID,
		StartedAt: h.startedAt,
		EndedAt:   time.Now(),
		Dealer:    h.Dealer,
		Community: deck.Strings(h.Community),
		Pot:       pot,
		Winners:   h.Winners,
		Actions:   h.actions,
		Seats:     results,
	}
}

func (h *Hand) seatByID(id string) *Seat {
	for _, s := range h.seats {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// nextLive returns the first seat index at or after from (cyclically) that
// can still act this street, or -1 if none.
func (h *Hand) nextLive(from int) int {
	n := len(h.seats)
	for i := 0; i < n; i++ {
		idx := ((from + i) % n + n) % n
		if h.seats[idx].live() {
			return idx
		}
	}
	return -1
}

// nextDealtIn returns the first seat index at or after from (cyclically)
// that was dealt into this hand.
func (h *Hand) nextDealtIn(from int) int {
	n := len(h.seats)
	for i := 0; i < n; i++ {
		idx := ((from + i) % n + n) % n
		if h.seats[idx].Active {
			return idx
		}
	}
	return -1
}

func (h *Hand) countInHand() int {
	count := 0
	for _, s := range h.seats {
		if s.inHand() {
			count++
		}
	}
	return count
}

func (h *Hand) emit(e Event) {
	h.pending = append(h.pending, e)
}

// drainEvents returns and clears the events accumulated by mutations.
func (h *Hand) drainEvents() []Event {
	events := h.pending
	h.pending = nil
	return events
}
