package game

// Phase is the single finite-state variable shared by the whole table.
// Transitions are strictly linear; Finished feeds back into Waiting only
// through an explicit new-hand request.
type Phase int

const (
	Waiting Phase = iota
	Preflop
	Flop
	Turn
	River
	Showdown
	Finished
)

func (p Phase) String() string {
	return [...]string{"waiting", "preflop", "flop", "turn", "river", "showdown", "finished"}[p]
}

// IsBetting reports whether seats act during this phase.
func (p Phase) IsBetting() bool {
	return p >= Preflop && p <= River
}
