package process

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// PID identifies a process while its table slot is occupied.
type PID int

// NoPID denotes "no process".
const NoPID PID = 0

// DefaultInitPID is the pid orphaned children are reparented to.
const DefaultInitPID PID = 1

// DefaultMaxNameLength bounds process names.
const DefaultMaxNameLength = 32

// Priority is a scheduling level; lower value means higher priority.
type Priority int

// Memory holds simple per-process memory usage counters in bytes.
type Memory struct {
	StackBytes int64 `json:"stackBytes" yaml:"stackBytes"`
	HeapBytes  int64 `json:"heapBytes" yaml:"heapBytes"`
}

// Total returns the total number of bytes accounted to the process
func (m Memory) Total() int64 {
	return m.StackBytes + m.HeapBytes
}

// PCB represents a process control block.
//
// PCBs are owned by the process table and mutated only while the scheduler
// lock is held. Everything handed out of the core is a Clone.
type PCB struct {
	PID             PID           `json:"pid"`
	ParentPID       PID           `json:"parentPid"`
	Name            string        `json:"name"`
	Priority        Priority      `json:"priority"`
	State           State         `json:"state"`
	CreatedAt       time.Time     `json:"createdAt"`
	LastScheduledAt time.Time     `json:"lastScheduledAt,omitempty"`
	TerminatedAt    *time.Time    `json:"terminatedAt,omitempty"`
	WakeAt          *time.Time    `json:"wakeAt,omitempty"`
	CPUTime         time.Duration `json:"cpuTime"`
	ExitCode        int           `json:"exitCode"`
	Children        []PID         `json:"children,omitempty"`
	Memory          Memory        `json:"memory"`
}

// New creates a PCB in the created state
func New(pid, parent PID, name string, priority Priority, now time.Time) *PCB {
	return &PCB{
		PID:       pid,
		ParentPID: parent,
		Name:      name,
		Priority:  priority,
		State:     StateCreated,
		CreatedAt: now,
	}
}

// TransitionTo moves the PCB to a new state, stamping time-related fields.
func (p *PCB) TransitionTo(to State, now time.Time) error {
	if !IsValidTransition(p.State, to) {
		return fmt.Errorf("%w: pid %d %s -> %s", ErrInvalidTransition, p.PID, p.State, to)
	}
	if p.State == StateRunning && !p.LastScheduledAt.IsZero() {
		if elapsed := now.Sub(p.LastScheduledAt); elapsed > 0 {
			p.CPUTime += elapsed
		}
	}
	p.State = to
	switch to {
	case StateRunning:
		p.LastScheduledAt = now
	case StateReady, StateBlocked:
		p.WakeAt = nil
	case StateZombie:
		p.WakeAt = nil
		p.TerminatedAt = &now
	}
	return nil
}

// AddChild records a child pid, ignoring duplicates
func (p *PCB) AddChild(pid PID) {
	if p.HasChild(pid) {
		return
	}
	p.Children = append(p.Children, pid)
}

// RemoveChild drops a child pid preserving order
func (p *PCB) RemoveChild(pid PID) {
	children := p.Children[:0]
	for _, child := range p.Children {
		if child != pid {
			children = append(children, child)
		}
	}
	p.Children = children
}

// HasChild returns true if pid is a child of this process
func (p *PCB) HasChild(pid PID) bool {
	for _, child := range p.Children {
		if child == pid {
			return true
		}
	}
	return false
}

// Clone returns a detached copy of the PCB.
func (p *PCB) Clone() *PCB {
	if p == nil {
		return nil
	}
	out := *p
	if p.Children != nil {
		out.Children = append([]PID(nil), p.Children...)
	}
	if p.TerminatedAt != nil {
		t := *p.TerminatedAt
		out.TerminatedAt = &t
	}
	if p.WakeAt != nil {
		t := *p.WakeAt
		out.WakeAt = &t
	}
	return &out
}

// TruncateName bounds a process name to maxLen runes.
func TruncateName(name string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(name) <= maxLen {
		return name
	}
	runes := []rune(name)
	return string(runes[:maxLen])
}
