package domain

// Phase represents the current phase of a game
type Phase string

const (
	PhaseLobby      Phase = "LOBBY"       // Players join and mark ready
	PhaseInProgress Phase = "IN_PROGRESS" // A round is being played
)

// String returns the string representation of the phase
func (p Phase) String() string {
	return string(p)
}

// CanTransitionTo checks if a transition from current phase to target phase is valid
func (p Phase) CanTransitionTo(target Phase) bool {
	switch p {
	case PhaseLobby:
		return target == PhaseInProgress
	case PhaseInProgress:
		return target == PhaseLobby
	}
	return false
}
