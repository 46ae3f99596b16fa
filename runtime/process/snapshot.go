package process

import (
	"sort"
	"time"
)

// TableSnapshot is a point-in-time copy of the process table used for
// diagnostics and persistence.
type TableSnapshot struct {
	ID              string    `json:"id"`
	TakenAt         time.Time `json:"takenAt"`
	CurrentPID      PID       `json:"currentPid"`
	ContextSwitches uint64    `json:"contextSwitches"`
	Preemptions     uint64    `json:"preemptions"`
	TotalProcesses  uint64    `json:"totalProcesses"`
	Processes       []*PCB    `json:"processes"`
}

// SortByPID orders processes by ascending pid
func (s *TableSnapshot) SortByPID() {
	sort.Slice(s.Processes, func(i, j int) bool {
		return s.Processes[i].PID < s.Processes[j].PID
	})
}

// Lookup returns the process with the given pid
func (s *TableSnapshot) Lookup(pid PID) *PCB {
	for _, p := range s.Processes {
		if p.PID == pid {
			return p
		}
	}
	return nil
}

// Clone returns a deep copy
func (s *TableSnapshot) Clone() *TableSnapshot {
	if s == nil {
		return nil
	}
	ret := *s
	ret.Processes = make([]*PCB, 0, len(s.Processes))
	for _, p := range s.Processes {
		ret.Processes = append(ret.Processes, p.Clone())
	}
	return &ret
}
