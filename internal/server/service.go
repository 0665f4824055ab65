package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/cardroom/tabled/internal/bot"
	"github.com/cardroom/tabled/internal/game"
	"github.com/cardroom/tabled/internal/history"
	"github.com/cardroom/tabled/internal/randutil"
	"github.com/cardroom/tabled/internal/ranker"
)

// ErrInvalidConfig rejects table parameters outside the allowed ranges.
var ErrInvalidConfig = errors.New("invalid table configuration")

// ErrUnknownStrategy rejects bot strategies the service does not ship.
var ErrUnknownStrategy = errors.New("unknown bot strategy")

const (
	minSmallBlind    = 1
	minBigBlind      = 2
	minStartingStack = 100

	historySaveTimeout = 5 * time.Second

	// Upper bound on consecutive machine actions driven after one
	// mutation. A full table of bots cannot legally act more often than
	// this within a single hand.
	maxBotActions = 512
)

// Broadcaster receives the JSON snapshot after every successful mutation.
type Broadcaster interface {
	Broadcast(tableID string, payload []byte)
}

// Service owns the table registry and layers service policy over the game
// core: snapshot broadcast, hand-history recording, machine seats, and
// the turn timer.
type Service struct {
	tables      TableStore
	store       history.Store
	broadcaster Broadcaster
	logger      *log.Logger
	clock       quartz.Clock
	turnTimeout time.Duration
	ranker      game.Ranker

	mu    sync.Mutex
	seed  int64
	state map[string]*tableState
}

// tableState is the service's per-table bookkeeping. seq invalidates
// in-flight turn timers whenever the action moves on.
type tableState struct {
	seq   int
	timer *quartz.Timer
	bots  map[string]bot.Policy
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithHistory sets the hand-history store. Defaults to the memory store.
func WithHistory(s history.Store) ServiceOption {
	return func(svc *Service) { svc.store = s }
}

// WithBroadcaster sets the snapshot broadcaster. Defaults to none.
func WithBroadcaster(b Broadcaster) ServiceOption {
	return func(svc *Service) { svc.broadcaster = b }
}

// WithClock injects the clock backing the turn timer. Defaults to the real
// clock.
func WithClock(c quartz.Clock) ServiceOption {
	return func(svc *Service) { svc.clock = c }
}

// WithTurnTimeout sets how long a human seat may hold the action before
// the service checks or folds for it. Zero disables the timer.
func WithTurnTimeout(d time.Duration) ServiceOption {
	return func(svc *Service) { svc.turnTimeout = d }
}

// WithServiceLogger sets the service logger.
func WithServiceLogger(l *log.Logger) ServiceOption {
	return func(svc *Service) { svc.logger = l }
}

// WithSeed fixes the seed from which per-table RNGs are derived, for
// deterministic tests.
func WithSeed(seed int64) ServiceOption {
	return func(svc *Service) { svc.seed = seed }
}

// WithRanker overrides the showdown ranker new tables are built with.
func WithRanker(r game.Ranker) ServiceOption {
	return func(svc *Service) { svc.ranker = r }
}

// NewService assembles a Service around the given table store.
func NewService(tables TableStore, opts ...ServiceOption) *Service {
	svc := &Service{
		tables: tables,
		store:  history.NewMemoryStore(),
		logger: log.Default(),
		clock:  quartz.NewReal(),
		seed:   time.Now().UnixNano(),
		ranker: ranker.New(),
		state:  make(map[string]*tableState),
	}
	for _, opt := range opts {
		opt(svc)
	}
	svc.logger = svc.logger.WithPrefix("service")
	return svc
}

// CreateTable validates the parameters, registers a new table, and returns
// its ID.
func (s *Service) CreateTable(smallBlind, bigBlind, startingStack int) (string, error) {
	switch {
	case smallBlind < minSmallBlind:
		return "", fmt.Errorf("%w: small blind %d below minimum %d", ErrInvalidConfig, smallBlind, minSmallBlind)
	case bigBlind < minBigBlind:
		return "", fmt.Errorf("%w: big blind %d below minimum %d", ErrInvalidConfig, bigBlind, minBigBlind)
	case bigBlind <= smallBlind:
		return "", fmt.Errorf("%w: big blind %d must exceed small blind %d", ErrInvalidConfig, bigBlind, smallBlind)
	case startingStack < minStartingStack:
		return "", fmt.Errorf("%w: starting stack %d below minimum %d", ErrInvalidConfig, startingStack, minStartingStack)
	}

	id := uuid.NewString()
	t := game.NewTable(id, smallBlind, bigBlind, startingStack,
		game.WithRNG(randutil.New(s.nextSeed())),
		game.WithRanker(s.ranker),
		game.WithLogger(s.logger),
		game.WithEventSink(s.sinkFor(id)),
	)
	s.tables.Put(t)

	s.mu.Lock()
	s.state[id] = &tableState{bots: make(map[string]bot.Policy)}
	s.mu.Unlock()

	s.logger.Info("table created", "table", id,
		"small_blind", smallBlind, "big_blind", bigBlind, "stack", startingStack)
	return id, nil
}

// JoinTable seats a player and returns the new seat ID.
func (s *Service) JoinTable(tableID, name string) (string, error) {
	t, err := s.tables.Get(tableID)
	if err != nil {
		return "", err
	}
	seatID, err := t.AddSeat(name)
	if err != nil {
		return "", err
	}
	s.broadcastSnapshot(t)
	return seatID, nil
}

// AddBot seats a machine player with the named strategy. The bot acts
// automatically whenever the action reaches its seat.
func (s *Service) AddBot(tableID, name, strategy string) (string, error) {
	t, err := s.tables.Get(tableID)
	if err != nil {
		return "", err
	}

	policy, err := s.newPolicy(strategy)
	if err != nil {
		return "", err
	}

	seatID, err := t.AddSeat(name)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	if st, ok := s.state[tableID]; ok {
		st.bots[seatID] = policy
	}
	s.mu.Unlock()

	s.logger.Info("bot seated", "table", tableID, "seat", seatID, "strategy", strategy)
	s.broadcastSnapshot(t)
	return seatID, nil
}

// StartHand begins the next hand and drives any machine seats that open
// the action.
func (s *Service) StartHand(tableID string) (game.Snapshot, error) {
	t, err := s.tables.Get(tableID)
	if err != nil {
		return game.Snapshot{}, err
	}
	snap, err := t.StartHand()
	if err != nil {
		return game.Snapshot{}, err
	}
	return s.afterMutation(t, snap), nil
}

// ApplyAction submits a player action. The returned snapshot reflects any
// machine actions that followed.
func (s *Service) ApplyAction(tableID, seatID string, action game.Action, amount int) (game.Snapshot, error) {
	t, err := s.tables.Get(tableID)
	if err != nil {
		return game.Snapshot{}, err
	}
	snap, err := t.Apply(seatID, action, amount)
	if err != nil {
		return game.Snapshot{}, err
	}
	return s.afterMutation(t, snap), nil
}

// GetSnapshot returns the table state from the viewer's perspective.
func (s *Service) GetSnapshot(tableID, viewerSeatID string) (game.Snapshot, error) {
	t, err := s.tables.Get(tableID)
	if err != nil {
		return game.Snapshot{}, err
	}
	return t.Snapshot(viewerSeatID), nil
}

// DeleteTable removes the table and cancels its timer and bots.
func (s *Service) DeleteTable(tableID string) error {
	if err := s.tables.Delete(tableID); err != nil {
		return err
	}

	s.mu.Lock()
	if st, ok := s.state[tableID]; ok {
		if st.timer != nil {
			st.timer.Stop()
		}
		delete(s.state, tableID)
	}
	s.mu.Unlock()

	if h, ok := s.broadcaster.(*Hub); ok && h != nil {
		h.CloseTable(tableID)
	}
	s.logger.Info("table deleted", "table", tableID)
	return nil
}

// HandHistory returns the table's recorded hands, newest first.
func (s *Service) HandHistory(ctx context.Context, tableID string, limit int) ([]game.HandRecord, error) {
	if _, err := s.tables.Get(tableID); err != nil {
		return nil, err
	}
	return s.store.Hands(ctx, tableID, limit)
}

// afterMutation broadcasts the snapshot, then either drives a machine
// seat or arms the turn timer for a human one.
func (s *Service) afterMutation(t *game.Table, snap game.Snapshot) game.Snapshot {
	s.broadcast(t.ID, snap)

	for i := 0; i < maxBotActions; i++ {
		if snap.CurrentSeatID == "" {
			s.cancelTurn(t.ID)
			return snap
		}

		policy := s.botPolicy(t.ID, snap.CurrentSeatID)
		if policy == nil {
			s.armTurn(t.ID, snap.CurrentSeatID)
			return snap
		}

		next, ok := s.driveBot(t, snap, policy)
		if !ok {
			return snap
		}
		snap = next
		s.broadcast(t.ID, snap)
	}

	s.logger.Error("machine action limit reached", "table", t.ID)
	return snap
}

// driveBot applies one machine decision, degrading to check-else-fold if
// the policy produced something illegal.
func (s *Service) driveBot(t *game.Table, snap game.Snapshot, policy bot.Policy) (game.Snapshot, bool) {
	seatID := snap.CurrentSeatID

	d := policy.Decide(snap, seatID)
	next, err := t.Apply(seatID, d.Action, d.Amount)
	if err == nil {
		return next, true
	}
	s.logger.Warn("bot action rejected", "table", t.ID, "seat", seatID,
		"action", d.Action, "amount", d.Amount, "error", err)

	d = bot.Folder().Decide(snap, seatID)
	next, err = t.Apply(seatID, d.Action, d.Amount)
	if err != nil {
		s.logger.Error("bot fallback rejected", "table", t.ID, "seat", seatID, "error", err)
		return game.Snapshot{}, false
	}
	return next, true
}

// armTurn starts the timeout clock for the seat now holding the action.
func (s *Service) armTurn(tableID, seatID string) {
	if s.turnTimeout <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.state[tableID]
	if !ok {
		return
	}
	st.seq++
	seq := st.seq
	if st.timer != nil {
		st.timer.Stop()
	}
	st.timer = s.clock.AfterFunc(s.turnTimeout, func() {
		s.onTurnTimeout(tableID, seatID, seq)
	})
}

func (s *Service) cancelTurn(tableID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.state[tableID]; ok {
		st.seq++
		if st.timer != nil {
			st.timer.Stop()
			st.timer = nil
		}
	}
}

// onTurnTimeout checks or folds for a seat that let the clock run out. A
// stale timer (the action already moved) is a no-op.
func (s *Service) onTurnTimeout(tableID, seatID string, seq int) {
	s.mu.Lock()
	st, ok := s.state[tableID]
	if !ok || st.seq != seq {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	t, err := s.tables.Get(tableID)
	if err != nil {
		return
	}
	snap := t.Snapshot("")
	if snap.CurrentSeatID != seatID {
		return
	}

	d := bot.Folder().Decide(snap, seatID)
	next, err := t.Apply(seatID, d.Action, d.Amount)
	if err != nil {
		s.logger.Error("timeout action rejected", "table", tableID, "seat", seatID, "error", err)
		return
	}
	s.logger.Info("seat timed out", "table", tableID, "seat", seatID, "action", d.Action)
	s.afterMutation(t, next)
}

func (s *Service) botPolicy(tableID, seatID string) bot.Policy {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.state[tableID]; ok {
		return st.bots[seatID]
	}
	return nil
}

func (s *Service) newPolicy(strategy string) (bot.Policy, error) {
	switch strategy {
	case "call":
		return bot.Passive(), nil
	case "fold":
		return bot.Folder(), nil
	case "random":
		return bot.Random(randutil.New(s.nextSeed())), nil
	case "regret", "":
		return bot.NewRegretPolicy(randutil.New(s.nextSeed()), 0.5), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, strategy)
	}
}

// sinkFor builds the event sink recording completed hands for one table.
// Recording failures are logged and never surface to the game core.
func (s *Service) sinkFor(tableID string) game.EventSink {
	return func(e game.Event) {
		hf, ok := e.(game.HandFinished)
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), historySaveTimeout)
		defer cancel()
		if err := s.store.SaveHand(ctx, hf.Record); err != nil {
			s.logger.Error("hand record save failed", "table", tableID, "hand", hf.HandID, "error", err)
		}
	}
}

func (s *Service) broadcastSnapshot(t *game.Table) {
	s.broadcast(t.ID, t.Snapshot(""))
}

func (s *Service) broadcast(tableID string, snap game.Snapshot) {
	if s.broadcaster == nil {
		return
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		s.logger.Error("snapshot marshal failed", "table", tableID, "error", err)
		return
	}
	s.broadcaster.Broadcast(tableID, payload)
}

func (s *Service) nextSeed() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seed++
	return s.seed
}
