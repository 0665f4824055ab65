// Package game implements the authoritative single-table No-Limit Texas
// Hold'em engine: chips, cards, turn order, and betting legality.
//
// The main type is Table, which owns the seat roster and composes a Hand
// per deal. Within a hand, BettingRound decides whose turn it is, which
// actions are legal, how much must be wagered, and when a street's betting
// has closed.
//
// # Basic usage
//
//	t := game.NewTable(id, 5, 10, 1000)
//	seatA, _ := t.AddSeat("Alice")
//	seatB, _ := t.AddSeat("Bob")
//	snap, _ := t.StartHand()
//	snap, err := t.Apply(seatA, game.Raise, 20)
//
// # Determinism
//
// Randomness is explicit: inject a seeded RNG with WithRNG, or a stacked
// deck with WithDeckFactory, to make hands fully reproducible under test.
//
// # Atomicity
//
// Every action is validate-then-apply: a rejected action returns an error
// from the taxonomy in errors.go and leaves the table byte-for-byte
// unchanged, still awaiting a valid action from the same seat.
//
// Showdown ranking is an injected capability (the Ranker interface); the
// engine awards a lone survivor unconditionally and never depends on the
// ranker's fidelity for its own invariants.
package game
