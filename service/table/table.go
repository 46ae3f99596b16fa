package table

import (
	"fmt"
	"time"

	"github.com/viant/procsched/internal/clock"
	"github.com/viant/procsched/runtime/process"
)

// Config represents process table configuration
type Config struct {
	// Capacity is the number of PCB slots
	Capacity int
	// MaxPID is the largest pid handed out before the search wraps to 1
	MaxPID process.PID
}

// DefaultConfig returns the default table configuration
func DefaultConfig() Config {
	return Config{
		Capacity: 64,
		MaxPID:   32768,
	}
}

// Table owns a fixed-capacity array of PCBs.
//
// Table is not safe for concurrent use; the scheduler serialises every access.
type Table struct {
	config Config
	slots  []*process.PCB
	index  map[process.PID]int // pid -> slot
	next   process.PID
	used   int
}

// New creates a process table
func New(config Config) *Table {
	if config.Capacity <= 0 {
		config.Capacity = DefaultConfig().Capacity
	}
	if config.MaxPID <= 0 {
		config.MaxPID = DefaultConfig().MaxPID
	}
	if int(config.MaxPID) < config.Capacity {
		config.MaxPID = process.PID(config.Capacity)
	}
	return &Table{
		config: config,
		slots:  make([]*process.PCB, config.Capacity),
		index:  make(map[process.PID]int, config.Capacity),
		next:   1,
	}
}

// CreateSlot finds a free slot and initialises a PCB in the created state.
func (t *Table) CreateSlot(name string, parent process.PID, priority process.Priority) (*process.PCB, error) {
	if t.used >= len(t.slots) {
		return nil, fmt.Errorf("%w: %d/%d slots in use", process.ErrTableFull, t.used, len(t.slots))
	}
	slot := -1
	for i, pcb := range t.slots {
		if pcb == nil {
			slot = i
			break
		}
	}
	if slot == -1 {
		return nil, fmt.Errorf("%w: no free slot", process.ErrTableFull)
	}
	pid, err := t.allocatePID()
	if err != nil {
		return nil, err
	}
	pcb := process.New(pid, parent, name, priority, clock.Now())
	t.slots[slot] = pcb
	t.index[pid] = slot
	t.used++
	return pcb, nil
}

// allocatePID returns the next pid not in use, wrapping at MaxPID.
func (t *Table) allocatePID() (process.PID, error) {
	start := t.next
	for {
		pid := t.next
		t.next++
		if t.next > t.config.MaxPID {
			t.next = 1
		}
		if _, used := t.index[pid]; !used {
			return pid, nil
		}
		if t.next == start {
			return process.NoPID, fmt.Errorf("%w: pid space 1..%d exhausted", process.ErrTableFull, t.config.MaxPID)
		}
	}
}

// Lookup returns the PCB owning pid.
func (t *Table) Lookup(pid process.PID) (*process.PCB, bool) {
	slot, ok := t.index[pid]
	if !ok {
		return nil, false
	}
	return t.slots[slot], true
}

// FreeSlot releases the slot owned by pid.
// The caller must have removed pid from the ready queues and must not hold it
// as the current process.
func (t *Table) FreeSlot(pid process.PID) error {
	slot, ok := t.index[pid]
	if !ok {
		return fmt.Errorf("%w: pid %d", process.ErrNotFound, pid)
	}
	t.slots[slot] = nil
	delete(t.index, pid)
	t.used--
	return nil
}

// PIDs returns the pids of occupied slots in slot order
func (t *Table) PIDs() []process.PID {
	out := make([]process.PID, 0, t.used)
	for _, pcb := range t.slots {
		if pcb != nil {
			out = append(out, pcb.PID)
		}
	}
	return out
}

// Range calls fn for every occupied slot until fn returns false
func (t *Table) Range(fn func(pcb *process.PCB) bool) {
	for _, pcb := range t.slots {
		if pcb == nil {
			continue
		}
		if !fn(pcb) {
			return
		}
	}
}

// Len returns the number of occupied slots
func (t *Table) Len() int { return t.used }

// Cap returns the table capacity
func (t *Table) Cap() int { return len(t.slots) }

// ExpiredSleepers returns sleeping pids whose wake time is not after now
func (t *Table) ExpiredSleepers(now time.Time) []process.PID {
	var out []process.PID
	t.Range(func(pcb *process.PCB) bool {
		if pcb.State == process.StateSleeping && pcb.WakeAt != nil && !pcb.WakeAt.After(now) {
			out = append(out, pcb.PID)
		}
		return true
	})
	return out
}
