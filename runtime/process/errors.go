package process

import "errors"

// Lifecycle errors. Callers detect them with errors.Is; components wrap them
// with the offending pid.
var (
	// ErrTableFull is returned when no free PCB slot exists.
	ErrTableFull = errors.New("process: table full")

	// ErrInvalidPriority is returned when a priority falls outside the
	// configured range and the policy rejects it.
	ErrInvalidPriority = errors.New("process: invalid priority")

	// ErrNotFound is returned when a pid does not exist or was reclaimed.
	ErrNotFound = errors.New("process: not found")

	// ErrAlreadyTerminated is returned when a pid refers to a zombie.
	ErrAlreadyTerminated = errors.New("process: already terminated")

	// ErrNotTerminated is returned when reaping a process that is still alive.
	ErrNotTerminated = errors.New("process: not terminated")

	ErrInvalidTransition = errors.New("process: invalid state transition")
)
