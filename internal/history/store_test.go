package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardroom/tabled/internal/game"
)

func record(handID, tableID string, pot int, endedAt time.Time) game.HandRecord {
	return game.HandRecord{
		HandID:    handID,
		TableID:   tableID,
		StartedAt: endedAt.Add(-time.Minute),
		EndedAt:   endedAt,
		Community: []string{"As", "Kd", "7c", "2h", "9s"},
		Pot:       pot,
		Winners:   []game.Winner{{SeatID: "s1", Name: "alice", Amount: pot}},
		Actions: []game.ActionRecord{
			{SeatID: "s1", Name: "alice", Phase: "preflop", Action: "raise", Amount: 30},
			{SeatID: "s2", Name: "bob", Phase: "preflop", Action: "fold"},
		},
		Seats: []game.SeatResult{
			{SeatID: "s1", Name: "alice", StartStack: 1000, EndStack: 1000 + pot, Won: true},
			{SeatID: "s2", Name: "bob", StartStack: 1000, EndStack: 1000 - pot},
		},
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveHand(ctx, record("h1", "t1", 20, base)))
	require.NoError(t, s.SaveHand(ctx, record("h2", "t1", 40, base.Add(time.Minute))))
	require.NoError(t, s.SaveHand(ctx, record("h3", "t2", 60, base)))

	recs, err := s.Hands(ctx, "t1", 0)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "h2", recs[0].HandID, "most recent hand first")
	assert.Equal(t, "h1", recs[1].HandID)
}

func TestMemoryStoreLimit(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"h1", "h2", "h3"} {
		require.NoError(t, s.SaveHand(ctx, record(id, "t1", 10, base.Add(time.Duration(i)*time.Minute))))
	}

	recs, err := s.Hands(ctx, "t1", 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "h3", recs[0].HandID)
}

func TestMemoryStoreUnknownTable(t *testing.T) {
	_, err := NewMemoryStore().Hands(context.Background(), "missing", 0)
	assert.ErrorIs(t, err, ErrNotFound)
}
