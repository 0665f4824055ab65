// Package ranker provides the showdown hand-ranking capability consumed by
// the game engine, backed by the paulhankin/poker 7-card evaluator.
package ranker

import (
	"github.com/paulhankin/poker"

	"github.com/cardroom/tabled/internal/deck"
	"github.com/cardroom/tabled/internal/game"
)

// Evaluator ranks 7-card hands (5 community + 2 hole) and reports every
// seat tied for the best score.
type Evaluator struct{}

// New returns an Evaluator.
func New() *Evaluator {
	return &Evaluator{}
}

// Winners implements game.Ranker. Contenders with missing or unconvertible
// cards are skipped; if nothing evaluates (short board, no contenders) it
// falls back to the first contender so a pot is never stranded.
func (e *Evaluator) Winners(community []deck.Card, contenders []game.Contender) []string {
	if len(contenders) == 0 {
		return nil
	}
	if len(community) != 5 {
		return []string{contenders[0].SeatID}
	}

	board, ok := convertAll(community)
	if !ok {
		return []string{contenders[0].SeatID}
	}

	best := int16(-1)
	var winners []string
	for _, c := range contenders {
		if len(c.HoleCards) != 2 {
			continue
		}
		hole, ok := convertAll(c.HoleCards)
		if !ok {
			continue
		}

		var seven [7]poker.Card
		copy(seven[:5], board)
		seven[5], seven[6] = hole[0], hole[1]

		score := poker.Eval7(&seven)
		switch {
		case score > best:
			best = score
			winners = []string{c.SeatID}
		case score == best:
			winners = append(winners, c.SeatID)
		}
	}

	if len(winners) == 0 {
		return []string{contenders[0].SeatID}
	}
	return winners
}

func convertAll(cards []deck.Card) ([]poker.Card, bool) {
	out := make([]poker.Card, len(cards))
	for i, c := range cards {
		pc, ok := convert(c)
		if !ok {
			return nil, false
		}
		out[i] = pc
	}
	return out, true
}

// convert maps our aces-high ranks onto the evaluator's ace-low numbering.
func convert(c deck.Card) (poker.Card, bool) {
	rank := int(c.Rank)
	if c.Rank == deck.Ace {
		rank = 1
	}

	var suit poker.Suit
	switch c.Suit {
	case deck.Clubs:
		suit = poker.Club
	case deck.Diamonds:
		suit = poker.Diamond
	case deck.Hearts:
		suit = poker.Heart
	case deck.Spades:
		suit = poker.Spade
	default:
		return 0, false
	}

	pc, err := poker.MakeCard(suit, poker.Rank(rank))
	if err != nil {
		return 0, false
	}
	return pc, true
}
