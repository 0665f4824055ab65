package server

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardroom/tabled/internal/game"
	"github.com/cardroom/tabled/internal/history"
)

type captureBroadcaster struct {
	mu       sync.Mutex
	payloads map[string][][]byte
}

func newCaptureBroadcaster() *captureBroadcaster {
	return &captureBroadcaster{payloads: make(map[string][][]byte)}
}

func (c *captureBroadcaster) Broadcast(tableID string, payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payloads[tableID] = append(c.payloads[tableID], payload)
}

func (c *captureBroadcaster) count(tableID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.payloads[tableID])
}

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel + 1})
}

func newTestService(t *testing.T, opts ...ServiceOption) *Service {
	t.Helper()
	base := []ServiceOption{
		WithSeed(12345),
		WithServiceLogger(quietLogger()),
		WithRanker(game.FirstContender()),
	}
	return NewService(NewMemoryTableStore(), append(base, opts...)...)
}

func TestCreateTableValidation(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name       string
		sb, bb     int
		stack      int
	}{
		{"zero small blind", 0, 10, 1000},
		{"big blind below minimum", 1, 1, 1000},
		{"big blind not above small blind", 10, 10, 1000},
		{"stack below minimum", 5, 10, 99},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateTable(tt.sb, tt.bb, tt.stack)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestCreateJoinStartApply(t *testing.T) {
	svc := newTestService(t)

	tableID, err := svc.CreateTable(5, 10, 1000)
	require.NoError(t, err)

	alice, err := svc.JoinTable(tableID, "alice")
	require.NoError(t, err)
	bob, err := svc.JoinTable(tableID, "bob")
	require.NoError(t, err)
	require.NotEqual(t, alice, bob)

	snap, err := svc.StartHand(tableID)
	require.NoError(t, err)
	assert.Equal(t, "preflop", snap.Phase)
	assert.Equal(t, 15, snap.Pot)
	require.NotEmpty(t, snap.CurrentSeatID)

	// The current actor folds; the hand settles immediately heads-up.
	snap, err = svc.ApplyAction(tableID, snap.CurrentSeatID, game.Fold, 0)
	require.NoError(t, err)
	assert.Equal(t, "finished", snap.Phase)
	require.Len(t, snap.Winners, 1)
	assert.Equal(t, 15, snap.Winners[0].Amount)
}

func TestJoinUnknownTable(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.JoinTable("nope", "alice")
	assert.ErrorIs(t, err, game.ErrTableNotFound)
}

func TestStartHandNotEnoughPlayers(t *testing.T) {
	svc := newTestService(t)
	tableID, err := svc.CreateTable(5, 10, 1000)
	require.NoError(t, err)
	_, err = svc.JoinTable(tableID, "lonely")
	require.NoError(t, err)

	_, err = svc.StartHand(tableID)
	assert.ErrorIs(t, err, game.ErrNotEnoughPlayers)
}

func TestBotsPlayHandToCompletion(t *testing.T) {
	svc := newTestService(t)
	tableID, err := svc.CreateTable(5, 10, 1000)
	require.NoError(t, err)

	for _, name := range []string{"b1", "b2", "b3"} {
		_, err := svc.AddBot(tableID, name, "call")
		require.NoError(t, err)
	}

	snap, err := svc.StartHand(tableID)
	require.NoError(t, err)

	// Calling stations check and call every street to showdown.
	assert.Equal(t, "finished", snap.Phase)
	assert.NotEmpty(t, snap.Winners)
	assert.Empty(t, snap.CurrentSeatID)
}

func TestAddBotUnknownStrategy(t *testing.T) {
	svc := newTestService(t)
	tableID, err := svc.CreateTable(5, 10, 1000)
	require.NoError(t, err)

	_, err = svc.AddBot(tableID, "b", "gto-solver")
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestHandHistoryRecorded(t *testing.T) {
	store := history.NewMemoryStore()
	svc := newTestService(t, WithHistory(store))
	tableID, err := svc.CreateTable(5, 10, 1000)
	require.NoError(t, err)

	for _, name := range []string{"b1", "b2"} {
		_, err := svc.AddBot(tableID, name, "call")
		require.NoError(t, err)
	}
	snap, err := svc.StartHand(tableID)
	require.NoError(t, err)
	require.Equal(t, "finished", snap.Phase)

	recs, err := svc.HandHistory(context.Background(), tableID, 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, tableID, recs[0].TableID)
	assert.NotEmpty(t, recs[0].Actions)
	assert.NotEmpty(t, recs[0].Winners)
}

func TestHandHistoryEmpty(t *testing.T) {
	svc := newTestService(t)
	tableID, err := svc.CreateTable(5, 10, 1000)
	require.NoError(t, err)

	_, err = svc.HandHistory(context.Background(), tableID, 0)
	assert.ErrorIs(t, err, history.ErrNotFound)
}

func TestBroadcastOnMutations(t *testing.T) {
	bc := newCaptureBroadcaster()
	svc := newTestService(t, WithBroadcaster(bc))

	tableID, err := svc.CreateTable(5, 10, 1000)
	require.NoError(t, err)
	_, err = svc.JoinTable(tableID, "alice")
	require.NoError(t, err)
	_, err = svc.JoinTable(tableID, "bob")
	require.NoError(t, err)
	_, err = svc.StartHand(tableID)
	require.NoError(t, err)

	// Two joins plus the hand start each pushed a snapshot.
	assert.GreaterOrEqual(t, bc.count(tableID), 3)
}

func TestTurnTimeoutChecksOrFolds(t *testing.T) {
	mockClock := quartz.NewMock(t)
	svc := newTestService(t,
		WithClock(mockClock),
		WithTurnTimeout(30*time.Second),
	)

	tableID, err := svc.CreateTable(5, 10, 1000)
	require.NoError(t, err)
	_, err = svc.JoinTable(tableID, "alice")
	require.NoError(t, err)
	_, err = svc.JoinTable(tableID, "bob")
	require.NoError(t, err)

	snap, err := svc.StartHand(tableID)
	require.NoError(t, err)
	require.Equal(t, "preflop", snap.Phase)
	require.NotEmpty(t, snap.CurrentSeatID)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	mockClock.Advance(30 * time.Second).MustWait(ctx)

	// The first actor faced the big blind, so the timeout folded it and
	// the hand ended; with more seats the action would have moved on.
	snap, err = svc.GetSnapshot(tableID, "")
	require.NoError(t, err)
	assert.Equal(t, "finished", snap.Phase)
}

func TestTurnTimerCancelledByAction(t *testing.T) {
	mockClock := quartz.NewMock(t)
	svc := newTestService(t,
		WithClock(mockClock),
		WithTurnTimeout(30*time.Second),
	)

	tableID, err := svc.CreateTable(5, 10, 1000)
	require.NoError(t, err)
	_, err = svc.JoinTable(tableID, "alice")
	require.NoError(t, err)
	_, err = svc.JoinTable(tableID, "bob")
	require.NoError(t, err)

	snap, err := svc.StartHand(tableID)
	require.NoError(t, err)

	first := snap.CurrentSeatID
	snap, err = svc.ApplyAction(tableID, first, game.Call, 0)
	require.NoError(t, err)
	require.NotEqual(t, first, snap.CurrentSeatID)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	mockClock.Advance(30 * time.Second).MustWait(ctx)

	// The stale timer for the first seat must not fire; only the second
	// seat's timer did, checking its big-blind option and ending preflop.
	snap, err = svc.GetSnapshot(tableID, "")
	require.NoError(t, err)
	assert.Equal(t, "flop", snap.Phase)
}

func TestDeleteTable(t *testing.T) {
	svc := newTestService(t)
	tableID, err := svc.CreateTable(5, 10, 1000)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTable(tableID))
	_, err = svc.GetSnapshot(tableID, "")
	assert.ErrorIs(t, err, game.ErrTableNotFound)
	assert.ErrorIs(t, svc.DeleteTable(tableID), game.ErrTableNotFound)
}

func TestSnapshotViewerPrivacy(t *testing.T) {
	svc := newTestService(t)
	tableID, err := svc.CreateTable(5, 10, 1000)
	require.NoError(t, err)
	alice, err := svc.JoinTable(tableID, "alice")
	require.NoError(t, err)
	_, err = svc.JoinTable(tableID, "bob")
	require.NoError(t, err)
	_, err = svc.StartHand(tableID)
	require.NoError(t, err)

	snap, err := svc.GetSnapshot(tableID, alice)
	require.NoError(t, err)
	for _, seat := range snap.Seats {
		if seat.ID == alice {
			assert.Len(t, seat.HoleCards, 2)
		} else {
			assert.Empty(t, seat.HoleCards)
		}
	}
}
