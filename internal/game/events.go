package game

import (
	"time"

	"github.com/cardroom/tabled/internal/deck"
)

// Event is a notification emitted by a table after a successful mutation.
// Delivery is a side effect outside the transactional core: a sink that
// fails or blocks must never be able to roll back game state, and sinks
// must not call back into the table.
type Event interface {
	EventType() string
}

// HandStarted is emitted when blinds are posted and hole cards dealt.
type HandStarted struct {
	TableID    string
	HandID     string
	Dealer     int
	SmallBlind int
	BigBlind   int
	Pot        int
}

func (HandStarted) EventType() string { return "hand_started" }

// ActionApplied is emitted after every accepted action.
type ActionApplied struct {
	TableID string
	HandID  string
	SeatID  string
	Action  Action
	Amount  int
	Phase   Phase
	Pot     int
	At      time.Time
}

func (ActionApplied) EventType() string { return "action_applied" }

// StreetDealt is emitted when community cards hit the board.
type StreetDealt struct {
	TableID   string
	HandID    string
	Phase     Phase
	Community []deck.Card
}

func (StreetDealt) EventType() string { return "street_dealt" }

// HandFinished is emitted when the pot has been awarded.
type HandFinished struct {
	TableID string
	HandID  string
	Winners []Winner
	Pot     int
	Record  HandRecord
}

func (HandFinished) EventType() string { return "hand_finished" }

// EventSink receives table events.
type EventSink func(Event)

// ActionRecord is one accepted action in a hand's history.
type ActionRecord struct {
	SeatID string    `json:"seat_id"`
	Name   string    `json:"name"`
	Phase  string    `json:"phase"`
	Action string    `json:"action"`
	Amount int       `json:"amount"`
	At     time.Time `json:"at"`
}

// SeatResult is a seat's outcome for one hand.
type SeatResult struct {
	SeatID     string   `json:"seat_id"`
	Name       string   `json:"name"`
	StartStack int      `json:"start_stack"`
	EndStack   int      `json:"end_stack"`
	HoleCards  []string `json:"hole_cards,omitempty"`
	Won        bool     `json:"won"`
}

// HandRecord is the completed-hand history entry handed to recorders.
type HandRecord struct {
	HandID    string         `json:"hand_id"`
	TableID   string         `json:"table_id"`
	StartedAt time.Time      `json:"started_at"`
	EndedAt   time.Time      `json:"ended_at"`
	Dealer    int            `json:"dealer"`
	Community []string       `json:"community"`
	Pot       int            `json:"pot"`
	Winners   []Winner       `json:"winners"`
	Actions   []ActionRecord `json:"actions"`
	Seats     []SeatResult   `json:"seats"`
}
