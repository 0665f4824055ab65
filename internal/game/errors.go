package game

import "errors"

// Error taxonomy surfaced verbatim to the transport layer. Every rejected
// action leaves the table unchanged and awaiting a valid action from the
// same seat; none of these is fatal to a table.
var (
	// ErrTableNotFound is returned by table stores for unknown table IDs.
	ErrTableNotFound = errors.New("table not found")

	// ErrTableFull is returned when a join would exceed MaxSeats.
	ErrTableFull = errors.New("table is full")

	// ErrNotEnoughPlayers is returned when a hand is started with fewer
	// than two seated players.
	ErrNotEnoughPlayers = errors.New("not enough players to start a hand")

	// ErrSeatNotFound is returned for an unknown seat ID.
	ErrSeatNotFound = errors.New("seat not found")

	// ErrOutOfTurn is returned for an action from any seat other than the
	// current actor.
	ErrOutOfTurn = errors.New("action out of turn")

	// ErrInvalidAction covers acting while folded or inactive, illegal
	// checks/calls/bets/raises, and undersized wagers.
	ErrInvalidAction = errors.New("invalid action")
)
