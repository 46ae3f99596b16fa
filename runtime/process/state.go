package process

// State represents the lifecycle state of a process
type State string

const (
	StateCreated  State = "created"
	StateReady    State = "ready"
	StateRunning  State = "running"
	StateBlocked  State = "blocked"  //waiting for an event
	StateSleeping State = "sleeping" //waiting for WakeAt
	// StateZombie indicates the process has terminated; the slot is kept
	// until it is reaped.
	StateZombie State = "zombie"
)

// States lists every process state
var States = []State{StateCreated, StateReady, StateRunning, StateBlocked, StateSleeping, StateZombie}

// Transition represents a valid state transition.
type Transition struct {
	From State
	To   State
}

// ValidTransitions defines all legal state transitions.
var ValidTransitions = []Transition{
	// Admission: Created -> Ready
	{From: StateCreated, To: StateReady},
	// Dispatch: Ready -> Running
	{From: StateReady, To: StateRunning},
	// Yield or quantum expiry: Running -> Ready
	{From: StateRunning, To: StateReady},
	{From: StateRunning, To: StateBlocked},
	{From: StateRunning, To: StateSleeping},
	{From: StateReady, To: StateBlocked},
	{From: StateReady, To: StateSleeping},
	// Unblock / wake up
	{From: StateBlocked, To: StateReady},
	{From: StateSleeping, To: StateReady},
	// Termination is legal from every live state
	{From: StateCreated, To: StateZombie},
	{From: StateReady, To: StateZombie},
	{From: StateRunning, To: StateZombie},
	{From: StateBlocked, To: StateZombie},
	{From: StateSleeping, To: StateZombie},
}

// IsValidTransition checks if a state transition is valid.
func IsValidTransition(from, to State) bool {
	for _, t := range ValidTransitions {
		if t.From == from && t.To == to {
			return true
		}
	}
	return false
}

// IsAlive returns true unless the state is zombie
func (s State) IsAlive() bool {
	return s != StateZombie && s != ""
}

// IsWaiting returns true for blocked and sleeping states
func (s State) IsWaiting() bool {
	return s == StateBlocked || s == StateSleeping
}

// IsValid returns true for a known state
func (s State) IsValid() bool {
	for _, candidate := range States {
		if s == candidate {
			return true
		}
	}
	return false
}
