package game

import (
	"fmt"
	rand "math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/cardroom/tabled/internal/deck"
	"github.com/cardroom/tabled/internal/randutil"
)

// MaxSeats is the table capacity.
const MaxSeats = 9

// Table owns the seat roster, the dealer button, and at most one
// in-progress hand. All mutations are serialized by a single mutex; tables
// are independent and run fully in parallel. No table operation blocks on
// I/O: events are dispatched to the sink after the lock is released, so a
// slow or failing observer can never roll back game state.
type Table struct {
	ID            string
	SmallBlind    int
	BigBlind      int
	StartingStack int

	mu     sync.Mutex
	seats  []*Seat
	dealer int
	hand   *Hand

	newDeck func() *deck.Deck
	ranker  Ranker
	sink    EventSink
	logger  *log.Logger
}

// Option configures a Table during creation.
type Option func(*Table)

// WithRNG sets the RNG used to shuffle each hand's deck. Defaults to a
// time-seeded RNG; inject a fixed seed for deterministic tests.
func WithRNG(rng *rand.Rand) Option {
	return func(t *Table) {
		t.newDeck = func() *deck.Deck { return deck.New(rng) }
	}
}

// WithDeckFactory overrides deck creation entirely, for tests that stack
// known cards.
func WithDeckFactory(f func() *deck.Deck) Option {
	return func(t *Table) { t.newDeck = f }
}

// WithRanker sets the showdown ranking capability.
func WithRanker(r Ranker) Option {
	return func(t *Table) { t.ranker = r }
}

// WithEventSink registers the sink that receives events after successful
// mutations.
func WithEventSink(sink EventSink) Option {
	return func(t *Table) { t.sink = sink }
}

// WithLogger sets the table's logger.
func WithLogger(logger *log.Logger) Option {
	return func(t *Table) { t.logger = logger }
}

// NewTable creates an empty table.
func NewTable(id string, smallBlind, bigBlind, startingStack int, opts ...Option) *Table {
	t := &Table{
		ID:            id,
		SmallBlind:    smallBlind,
		BigBlind:      bigBlind,
		StartingStack: startingStack,
		dealer:        -1,
		ranker:        FirstContender(),
		logger:        log.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.newDeck == nil {
		rng := randutil.New(time.Now().UnixNano())
		t.newDeck = func() *deck.Deck { return deck.New(rng) }
	}
	t.logger = t.logger.With("table", id)
	return t
}

// AddSeat seats a new player and returns the seat ID. A player joining
// mid-hand stays inactive until the next hand begins.
func (t *Table) AddSeat(name string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.seats) >= MaxSeats {
		return "", fmt.Errorf("%w: %d seats taken", ErrTableFull, len(t.seats))
	}

	seat := &Seat{
		ID:       uuid.NewString(),
		Name:     name,
		Stack:    t.StartingStack,
		Position: len(t.seats),
		Active:   !t.handInProgressLocked(),
	}
	t.seats = append(t.seats, seat)
	t.logger.Info("player seated", "seat", seat.ID, "name", name, "position", seat.Position)
	return seat.ID, nil
}

// StartHand shuffles a fresh deck, advances the button, posts blinds, and
// deals hole cards.
func (t *Table) StartHand() (Snapshot, error) {
	t.mu.Lock()

	if t.handInProgressLocked() {
		t.mu.Unlock()
		return Snapshot{}, fmt.Errorf("%w: hand already in progress", ErrInvalidAction)
	}

	eligible := 0
	for _, s := range t.seats {
		if s.Stack > 0 {
			eligible++
		}
	}
	if eligible < 2 {
		t.mu.Unlock()
		return Snapshot{}, fmt.Errorf("%w: have %d", ErrNotEnoughPlayers, eligible)
	}

	t.dealer = t.nextFundedLocked(t.dealer + 1)

	hand, err := newHand(uuid.NewString(), t.ID, t.seats, t.dealer, t.SmallBlind, t.BigBlind, t.newDeck(), t.ranker)
	if err != nil {
		t.mu.Unlock()
		return Snapshot{}, err
	}
	t.hand = hand
	t.logger.Info("hand started", "hand", hand.ID, "dealer", t.dealer, "pot", hand.Pot)

	snap := t.snapshotLocked("")
	events := hand.drainEvents()
	t.mu.Unlock()

	t.dispatch(events)
	return snap, nil
}

// Apply validates and applies an action for the given seat, returning the
// post-action snapshot. A rejected action leaves the table unchanged.
func (t *Table) Apply(seatID string, action Action, amount int) (Snapshot, error) {
	t.mu.Lock()

	seat := t.seatByIDLocked(seatID)
	if seat == nil {
		t.mu.Unlock()
		return Snapshot{}, fmt.Errorf("%w: %s", ErrSeatNotFound, seatID)
	}
	if !t.handInProgressLocked() {
		t.mu.Unlock()
		return Snapshot{}, fmt.Errorf("%w: no hand in progress", ErrInvalidAction)
	}

	if err := t.hand.Apply(seat.Position, action, amount); err != nil {
		t.mu.Unlock()
		return Snapshot{}, err
	}

	snap := t.snapshotLocked("")
	events := t.hand.drainEvents()
	t.mu.Unlock()

	t.dispatch(events)
	return snap, nil
}

// Snapshot builds the externally visible state. The viewer's own hole
// cards are revealed only to that viewer.
func (t *Table) Snapshot(viewerSeatID string) Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked(viewerSeatID)
}

// HasSeat reports whether the seat ID belongs to this table.
func (t *Table) HasSeat(seatID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seatByIDLocked(seatID) != nil
}

// TotalChips returns stacks plus pot. Chips are conserved across every
// hand: this total never changes except when seats join.
func (t *Table) TotalChips() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	total := 0
	for _, s := range t.seats {
		total += s.Stack
	}
	if t.hand != nil {
		total += t.hand.Pot
	}
	return total
}

func (t *Table) handInProgressLocked() bool {
	return t.hand != nil && t.hand.Phase != Finished
}

func (t *Table) seatByIDLocked(id string) *Seat {
	for _, s := range t.seats {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// nextFundedLocked finds the next seat with chips, cyclically from the
// given index. Callers guarantee at least one funded seat exists.
func (t *Table) nextFundedLocked(from int) int {
	n := len(t.seats)
	for i := 0; i < n; i++ {
		idx := ((from + i) % n + n) % n
		if t.seats[idx].Stack > 0 {
			return idx
		}
	}
	return 0
}

func (t *Table) dispatch(events []Event) {
	if t.sink == nil {
		return
	}
	for _, e := range events {
		t.sink(e)
	}
}
