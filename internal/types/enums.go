package types

type Phase string

const (
	PhasePreReboot      Phase = "pre_reboot"
	PhaseAwaitingReboot Phase = "awaiting_reboot"
	PhasePostReboot     Phase = "post_reboot"
	PhaseCompleted      Phase = "completed"
	PhaseFailed         Phase = "failed"
)

var phaseOrder = map[Phase]int{
	PhasePreReboot:      0,
	PhaseAwaitingReboot: 1,
	PhasePostReboot:     2,
	PhaseCompleted:      3,
}

// Valid reports whether p is one of the known phases.
func (p Phase) Valid() bool {
	if p == PhaseFailed {
		return true
	}
	_, ok := phaseOrder[p]
	return ok
}

// Terminal phases accept no further transitions.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseFailed
}

// CanTransitionTo reports whether moving from p to next keeps the lifecycle
// monotonic. Re-applying the current phase is allowed and treated as a no-op.
// FAILED is only reachable from PRE_REBOOT and POST_REBOOT.
func (p Phase) CanTransitionTo(next Phase) bool {
	if !p.Valid() || !next.Valid() {
		return false
	}
	if p == next {
		return true
	}
	if p.Terminal() {
		return false
	}
	if next == PhaseFailed {
		return p == PhasePreReboot || p == PhasePostReboot
	}
	return phaseOrder[next] == phaseOrder[p]+1
}

type TodoStatus string

const (
	TodoPending   TodoStatus = "pending"
	TodoCompleted TodoStatus = "completed"
)

// FetchErrorKind separates network failures from bodies that arrived but did
// not pass structural validation.
type FetchErrorKind string

const (
	FetchErrorTransport FetchErrorKind = "transport"
	FetchErrorContent   FetchErrorKind = "content"
	FetchErrorCancelled FetchErrorKind = "cancelled"
)
