package bot

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/cardroom/tabled/internal/game"
)

// The abstract choices the regret learner mixes over. They are coarser than
// the engine's action set; mapChoice grounds them in whatever is legal.
const (
	choiceFold = iota
	choiceCall
	choiceRaise
	numChoices
)

// RegretPolicy picks fold/call/raise by regret matching over coarse
// information sets. Aggression in [0,1] scales bet and raise sizing.
type RegretPolicy struct {
	mu          sync.Mutex
	rng         *rand.Rand
	aggression  float64
	regretSum   map[string][numChoices]float64
	strategySum map[string][numChoices]float64
}

// NewRegretPolicy returns a RegretPolicy with the given sizing aggression.
// rng must not be nil.
func NewRegretPolicy(rng *rand.Rand, aggression float64) *RegretPolicy {
	if rng == nil {
		panic("bot: nil rng")
	}
	if aggression < 0 {
		aggression = 0
	} else if aggression > 1 {
		aggression = 1
	}
	return &RegretPolicy{
		rng:         rng,
		aggression:  aggression,
		regretSum:   make(map[string][numChoices]float64),
		strategySum: make(map[string][numChoices]float64),
	}
}

// Decide implements Policy.
func (p *RegretPolicy) Decide(snap game.Snapshot, seatID string) Decision {
	seat, ok := findSeat(snap, seatID)
	if !ok {
		return Decision{Action: game.Fold}
	}

	p.mu.Lock()
	info := infoSet(snap, seat)
	strat := p.strategy(info)
	p.accumulate(info, strat)
	choice := p.sample(strat)
	p.mu.Unlock()

	return mapChoice(choice, snap, seatID, p.aggression)
}

// Reward feeds back the realized value of the last decision at an
// information set so future strategies shift toward it.
func (p *RegretPolicy) Reward(snap game.Snapshot, seatID string, chosen int, value float64) {
	seat, ok := findSeat(snap, seatID)
	if !ok || chosen < 0 || chosen >= numChoices {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	info := infoSet(snap, seat)
	regrets := p.regretSum[info]
	for i := range regrets {
		if i == chosen {
			regrets[i] += value
		} else {
			regrets[i] -= value / float64(numChoices-1)
		}
	}
	p.regretSum[info] = regrets
}

// strategy applies regret matching: positive regrets normalized, uniform
// when nothing is positive. Callers hold p.mu.
func (p *RegretPolicy) strategy(info string) [numChoices]float64 {
	regrets := p.regretSum[info]

	var strat [numChoices]float64
	var total float64
	for i, r := range regrets {
		if r > 0 {
			strat[i] = r
			total += r
		}
	}
	if total <= 0 {
		for i := range strat {
			strat[i] = 1.0 / numChoices
		}
		return strat
	}
	for i := range strat {
		strat[i] /= total
	}
	return strat
}

func (p *RegretPolicy) accumulate(info string, strat [numChoices]float64) {
	sum := p.strategySum[info]
	for i := range sum {
		sum[i] += strat[i]
	}
	p.strategySum[info] = sum
}

func (p *RegretPolicy) sample(strat [numChoices]float64) int {
	r := p.rng.Float64()
	var cum float64
	for i, w := range strat {
		cum += w
		if r < cum {
			return i
		}
	}
	return numChoices - 1
}

// infoSet abstracts the visible state into a bucket key. Hole cards are
// deliberately excluded; buckets key on betting shape only.
func infoSet(snap game.Snapshot, seat game.SeatView) string {
	live := 0
	for _, s := range snap.Seats {
		if s.Active && !s.Folded {
			live++
		}
	}
	return fmt.Sprintf("%s_%d_%d_%d_%d_%d",
		snap.Phase, snap.Pot, snap.CurrentBet, seat.Stack, seat.Bet, live)
}

// mapChoice grounds an abstract choice in the table state, degrading to the
// nearest legal action rather than submitting an illegal one.
func mapChoice(choice int, snap game.Snapshot, seatID string, aggression float64) Decision {
	seat, ok := findSeat(snap, seatID)
	if !ok {
		return Decision{Action: game.Fold}
	}

	toCall := snap.CurrentBet - seat.Bet
	if toCall < 0 {
		toCall = 0
	}

	switch choice {
	case choiceFold:
		if toCall == 0 {
			return Decision{Action: game.Check}
		}
		return Decision{Action: game.Fold}

	case choiceCall:
		if toCall == 0 {
			return Decision{Action: game.Check}
		}
		if toCall >= seat.Stack {
			return Decision{Action: game.AllIn}
		}
		return Decision{Action: game.Call}

	default:
		if snap.CurrentBet == 0 {
			size := int(float64(snap.Pot) * (0.5 + aggression*0.5))
			if size < snap.BigBlind {
				size = snap.BigBlind
			}
			if size >= seat.Stack {
				return Decision{Action: game.AllIn}
			}
			if size <= 0 {
				return Decision{Action: game.Check}
			}
			return Decision{Action: game.Bet, Amount: size}
		}

		target := int(float64(snap.CurrentBet) * (2 + aggression))
		if target < snap.CurrentBet*2 {
			target = snap.CurrentBet * 2
		}
		if target-seat.Bet >= seat.Stack {
			return Decision{Action: game.AllIn}
		}
		return Decision{Action: game.Raise, Amount: target}
	}
}
