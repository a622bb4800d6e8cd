package subscription

import "slices"

// Op names a lifecycle operation.
type Op string

const (
	OpSubscribe Op = "subscribe"
	OpPause     Op = "pause"
	OpResume    Op = "resume"
	OpExtend    Op = "extend"
	OpCancel    Op = "cancel"
)

// Transition is a permitted (state, operation) pair and the state it leads to.
type Transition struct {
	From State
	Op   Op
}

var transitions = map[Transition]State{
	{StateNonExistent, OpSubscribe}: StateActive,
	{StateActive, OpPause}:          StatePaused,
	{StatePaused, OpResume}:         StateActive,
	{StateActive, OpExtend}:         StateActive,
	{StatePaused, OpExtend}:         StatePaused, // extend has no pause check
	{StateActive, OpCancel}:         StateNonExistent,
	{StatePaused, OpCancel}:         StateNonExistent,
	{StateExpired, OpCancel}:        StateNonExistent,
}

// Next returns the state op leads to from, and whether op is permitted there.
// A paused record whose end has passed is still StatePaused; extend then
// fails on expiry, which this table does not model.
func Next(from State, op Op) (State, bool) {
	to, ok := transitions[Transition{from, op}]
	return to, ok
}

// OpsFrom lists the operations permitted in state from, sorted.
func OpsFrom(from State) []Op {
	ops := make([]Op, 0, 3)
	for t := range transitions {
		if t.From == from {
			ops = append(ops, t.Op)
		}
	}
	slices.Sort(ops)
	return ops
}
