package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cardroom/tabled/internal/game"
	"github.com/cardroom/tabled/internal/randutil"
)

func snap(currentBet, pot int, seats ...game.SeatView) game.Snapshot {
	return game.Snapshot{
		TableID:    "t1",
		Phase:      "flop",
		Seats:      seats,
		Pot:        pot,
		CurrentBet: currentBet,
		SmallBlind: 5,
		BigBlind:   10,
	}
}

func seat(id string, stack, bet int) game.SeatView {
	return game.SeatView{ID: id, Name: id, Stack: stack, Bet: bet, Active: true}
}

func TestPassiveChecksWhenFree(t *testing.T) {
	d := Passive().Decide(snap(0, 30, seat("a", 1000, 0)), "a")
	assert.Equal(t, game.Check, d.Action)
}

func TestPassiveCallsBets(t *testing.T) {
	d := Passive().Decide(snap(50, 80, seat("a", 1000, 0)), "a")
	assert.Equal(t, game.Call, d.Action)
}

func TestFolderFoldsToBets(t *testing.T) {
	p := Folder()

	d := p.Decide(snap(50, 80, seat("a", 1000, 0)), "a")
	assert.Equal(t, game.Fold, d.Action)

	d = p.Decide(snap(0, 30, seat("a", 1000, 0)), "a")
	assert.Equal(t, game.Check, d.Action)
}

func TestPolicyUnknownSeatFolds(t *testing.T) {
	d := Passive().Decide(snap(0, 0, seat("a", 1000, 0)), "missing")
	assert.Equal(t, game.Fold, d.Action)
}

func TestRandomAlwaysLegal(t *testing.T) {
	p := Random(randutil.New(42))
	s := snap(50, 120, seat("a", 300, 10))

	for i := 0; i < 200; i++ {
		d := p.Decide(s, "a")
		switch d.Action {
		case game.Fold, game.Call, game.AllIn:
		case game.Raise:
			assert.GreaterOrEqual(t, d.Amount, 100, "raise must be at least a min-raise")
		default:
			t.Fatalf("unexpected action %v facing a bet", d.Action)
		}
	}
}

func TestMapChoiceFoldBecomesCheckWhenFree(t *testing.T) {
	d := mapChoice(choiceFold, snap(0, 30, seat("a", 1000, 0)), "a", 0.5)
	assert.Equal(t, game.Check, d.Action)
}

func TestMapChoiceCallShortStackGoesAllIn(t *testing.T) {
	d := mapChoice(choiceCall, snap(500, 600, seat("a", 200, 0)), "a", 0.5)
	assert.Equal(t, game.AllIn, d.Action)
}

func TestMapChoiceRaiseSizing(t *testing.T) {
	// No bet yet: pot-fraction bet, floored at the big blind.
	d := mapChoice(choiceRaise, snap(0, 4, seat("a", 1000, 0)), "a", 0)
	assert.Equal(t, game.Bet, d.Action)
	assert.Equal(t, 10, d.Amount)

	// Facing a bet: at least a full min-raise.
	d = mapChoice(choiceRaise, snap(50, 120, seat("a", 1000, 0)), "a", 0)
	assert.Equal(t, game.Raise, d.Action)
	assert.GreaterOrEqual(t, d.Amount, 100)
}
