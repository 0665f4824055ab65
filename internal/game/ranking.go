package game

import "github.com/cardroom/tabled/internal/deck"

// Contender is a seat still contesting the pot at showdown.
type Contender struct {
	SeatID    string
	HoleCards []deck.Card
}

// Ranker decides the winner(s) among the remaining seats at showdown. It is
// an injected capability: the engine awards a lone survivor unconditionally
// and only consults the ranker for multi-way showdowns. Implementations
// return the seat IDs holding the best hand; more than one entry means a
// split pot.
type Ranker interface {
	Winners(community []deck.Card, contenders []Contender) []string
}

// RankerFunc adapts a function to the Ranker interface.
type RankerFunc func(community []deck.Card, contenders []Contender) []string

func (f RankerFunc) Winners(community []deck.Card, contenders []Contender) []string {
	return f(community, contenders)
}

// FirstContender is the placeholder ranking the original trainer shipped
// with: the first non-folded seat wins. It exists for tests and as an
// explicit stand-in until a real evaluator is injected.
func FirstContender() Ranker {
	return RankerFunc(func(_ []deck.Card, contenders []Contender) []string {
		if len(contenders) == 0 {
			return nil
		}
		return []string{contenders[0].SeatID}
	})
}
