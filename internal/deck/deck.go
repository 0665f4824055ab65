package deck

import (
	"errors"
	"fmt"
	rand "math/rand/v2"
)

// ErrInsufficientCards is returned when a draw asks for more cards than the
// deck still holds. With a single 52-card deck and at most nine seats this
// cannot happen in correct play; it is a defended precondition, not an
// expected runtime condition.
var ErrInsufficientCards = errors.New("insufficient cards in deck")

// Deck is a shuffled pool of the 52 distinct cards supporting
// draw-without-replacement. A deck is owned by exactly one hand and is
// discarded when the hand ends; it is never reshuffled mid-hand.
type Deck struct {
	cards []Card
}

// New creates a full 52-card deck shuffled with the provided RNG. The RNG is
// required so that shuffling is explicit and deterministic under test.
func New(rng *rand.Rand) *Deck {
	if rng == nil {
		panic("deck: rng is required")
	}

	d := &Deck{cards: make([]Card, 0, 52)}
	for suit := Clubs; suit <= Spades; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			d.cards = append(d.cards, NewCard(rank, suit))
		}
	}

	rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
	return d
}

// Stacked builds an unshuffled deck that deals the given cards in order,
// followed by the rest of the 52 in an unspecified but stable order.
// Used by tests that need known hole cards and boards.
func Stacked(first ...Card) *Deck {
	seen := make(map[Card]bool, len(first))
	cards := make([]Card, 0, 52)
	for _, c := range first {
		if seen[c] {
			panic(fmt.Sprintf("deck: duplicate stacked card %s", c))
		}
		seen[c] = true
		cards = append(cards, c)
	}
	for suit := Clubs; suit <= Spades; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			c := NewCard(rank, suit)
			if !seen[c] {
				cards = append(cards, c)
			}
		}
	}
	return &Deck{cards: cards}
}

// Draw removes and returns the next n cards.
func (d *Deck) Draw(n int) ([]Card, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative draw %d", ErrInsufficientCards, n)
	}
	if n > len(d.cards) {
		return nil, fmt.Errorf("%w: want %d, have %d", ErrInsufficientCards, n, len(d.cards))
	}

	drawn := d.cards[:n]
	d.cards = d.cards[n:]
	return drawn, nil
}

// Remaining returns the number of undrawn cards.
func (d *Deck) Remaining() int {
	return len(d.cards)
}
