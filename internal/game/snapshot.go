package game

import "github.com/cardroom/tabled/internal/deck"

// SeatView is the externally visible projection of one seat. Hole cards are
// populated only when the snapshot viewer owns the seat.
type SeatView struct {
	ID         string   `json:"seat_id"`
	Name       string   `json:"name"`
	Stack      int      `json:"stack"`
	Bet        int      `json:"bet"`
	Position   int      `json:"position"`
	Active     bool     `json:"is_active"`
	Folded     bool     `json:"has_folded"`
	AllIn      bool     `json:"is_all_in"`
	Dealer     bool     `json:"is_dealer"`
	SmallBlind bool     `json:"is_small_blind"`
	BigBlind   bool     `json:"is_big_blind"`
	HoleCards  []string `json:"hole_cards,omitempty"`
}

// Snapshot is the viewer-scoped projection of table state broadcast to
// observers after every successful mutation.
type Snapshot struct {
	TableID        string     `json:"table_id"`
	Phase          string     `json:"phase"`
	Seats          []SeatView `json:"seats"`
	Community      []string   `json:"community_cards"`
	Pot            int        `json:"pot"`
	CurrentBet     int        `json:"current_bet"`
	CurrentSeatID  string     `json:"current_seat_id,omitempty"`
	DealerPosition int        `json:"dealer_position"`
	SmallBlind     int        `json:"small_blind"`
	BigBlind       int        `json:"big_blind"`
	Winners        []Winner   `json:"winners,omitempty"`
}

// snapshotLocked builds a snapshot for the given viewer. Callers must hold
// the table lock.
func (t *Table) snapshotLocked(viewerSeatID string) Snapshot {
	snap := Snapshot{
		TableID:        t.ID,
		Phase:          Waiting.String(),
		Community:      []string{},
		DealerPosition: t.dealer,
		SmallBlind:     t.SmallBlind,
		BigBlind:       t.BigBlind,
	}

	sbSeat, bbSeat := -1, -1
	h := t.hand
	if h != nil {
		snap.Phase = h.Phase.String()
		snap.Community = deck.Strings(h.Community)
		snap.Pot = h.Pot
		snap.DealerPosition = h.Dealer
		sbSeat, bbSeat = h.sbSeat, h.bbSeat
		if h.Phase.IsBetting() {
			snap.CurrentBet = h.Betting.CurrentBet
			if h.ActionOn >= 0 {
				snap.CurrentSeatID = t.seats[h.ActionOn].ID
			}
		}
		if h.Phase == Finished {
			snap.Winners = h.Winners
		}
	}

	snap.Seats = make([]SeatView, len(t.seats))
	for i, s := range t.seats {
		view := SeatView{
			ID:         s.ID,
			Name:       s.Name,
			Stack:      s.Stack,
			Bet:        s.Bet,
			Position:   s.Position,
			Active:     s.Active,
			Folded:     s.Folded,
			AllIn:      s.AllIn,
			Dealer:     i == snap.DealerPosition,
			SmallBlind: i == sbSeat,
			BigBlind:   i == bbSeat,
		}
		if viewerSeatID != "" && s.ID == viewerSeatID {
			view.HoleCards = deck.Strings(s.HoleCards)
		}
		snap.Seats[i] = view
	}
	return snap
}
