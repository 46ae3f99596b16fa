package scheduler

import (
	"fmt"
	"time"

	"github.com/viant/procsched/progress"
	"github.com/viant/procsched/runtime/process"
	"github.com/viant/procsched/service/queue"
	"github.com/viant/procsched/service/table"
)

// Txn gives compound operations access to scheduler state. A Txn is only
// valid inside the Update callback that received it.
type Txn struct {
	s          *Scheduler
	now        time.Time
	deltas     []progress.Delta
	dispatched []*process.PCB
}

// Now returns the time the transaction started
func (t *Txn) Now() time.Time { return t.now }

// Table returns the process table
func (t *Txn) Table() *table.Table { return t.s.table }

// Queues returns the ready queues
func (t *Txn) Queues() *queue.ReadyQueues { return t.s.queues }

// Current returns the running pid or NoPID
func (t *Txn) Current() process.PID { return t.s.current }

// Lookup returns the PCB owning pid
func (t *Txn) Lookup(pid process.PID) (*process.PCB, bool) {
	return t.s.table.Lookup(pid)
}

// Record queues a progress delta, delivered after the lock is released
func (t *Txn) Record(delta progress.Delta) {
	t.deltas = append(t.deltas, delta)
}

// CountCreated bumps the total process counter
func (t *Txn) CountCreated() {
	t.s.totalProcesses++
}

// Admit makes pcb ready and appends it to its priority level.
func (t *Txn) Admit(pcb *process.PCB) error {
	if err := pcb.TransitionTo(process.StateReady, t.now); err != nil {
		return err
	}
	t.s.queues.Enqueue(pcb.PID, pcb.Priority)
	return nil
}

// Evict removes pid from the ready queues and releases the CPU if pid holds
// it. It reports whether pid was the running process.
func (t *Txn) Evict(pid process.PID) bool {
	t.s.queues.Remove(pid)
	if t.s.current == pid {
		t.s.current = process.NoPID
		return true
	}
	return false
}

// Dispatch returns the running pid or makes the highest-priority ready pid
// running.
func (t *Txn) Dispatch() (process.PID, bool) {
	s := t.s
	if s.current != process.NoPID {
		if pcb, ok := s.table.Lookup(s.current); ok && pcb.State == process.StateRunning {
			return s.current, true
		}
		s.current = process.NoPID
	}
	for {
		pid, ok := s.queues.DequeueHighest()
		if !ok {
			return process.NoPID, false
		}
		pcb, ok := s.table.Lookup(pid)
		if !ok || pcb.State != process.StateReady {
			s.logger.Warn("dropping stale ready queue entry", "pid", pid)
			continue
		}
		if err := pcb.TransitionTo(process.StateRunning, t.now); err != nil {
			s.logger.Warn("failed to dispatch process", "pid", pid, "error", err)
			continue
		}
		s.current = pid
		s.contextSwitches++
		t.Record(progress.Delta{ContextSwitches: 1})
		if len(s.listeners) > 0 {
			t.dispatched = append(t.dispatched, pcb.Clone())
		}
		s.logger.Debug("dispatched process", "pid", pid, "name", pcb.Name, "priority", pcb.Priority)
		return pid, true
	}
}

// running returns the running PCB
func (t *Txn) running() (*process.PCB, bool) {
	if t.s.current == process.NoPID {
		return nil, false
	}
	pcb, ok := t.s.table.Lookup(t.s.current)
	if !ok || pcb.State != process.StateRunning {
		return nil, false
	}
	return pcb, true
}

// requeueCurrent moves the running process to the tail of its ready level.
func (t *Txn) requeueCurrent() {
	pcb, ok := t.running()
	if !ok {
		return
	}
	t.s.current = process.NoPID
	if err := t.Admit(pcb); err != nil {
		t.s.logger.Warn("failed to requeue process", "pid", pcb.PID, "error", err)
	}
}

// live returns the PCB for pid unless it is unknown or a zombie.
func (t *Txn) live(pid process.PID) (*process.PCB, error) {
	pcb, ok := t.s.table.Lookup(pid)
	if !ok {
		return nil, fmt.Errorf("%w: pid %d", process.ErrNotFound, pid)
	}
	if pcb.State == process.StateZombie {
		return nil, fmt.Errorf("%w: pid %d", process.ErrAlreadyTerminated, pid)
	}
	return pcb, nil
}

// suspend moves pid to blocked or sleeping.
func (t *Txn) suspend(pid process.PID, to process.State, wakeAt *time.Time) error {
	pcb, err := t.live(pid)
	if err != nil {
		return err
	}
	if pcb.State != process.StateRunning && pcb.State != process.StateReady {
		return fmt.Errorf("%w: pid %d is %s", process.ErrInvalidTransition, pid, pcb.State)
	}
	wasCurrent := t.Evict(pid)
	if err := pcb.TransitionTo(to, t.now); err != nil {
		return err
	}
	pcb.WakeAt = wakeAt
	if wasCurrent {
		t.Dispatch()
	}
	return nil
}

// flush delivers recorded deltas and dispatch notifications.
func (t *Txn) flush() {
	for _, delta := range t.deltas {
		t.s.progress.Update(delta)
	}
	for _, pcb := range t.dispatched {
		for _, listener := range t.s.listeners {
			listener(pcb)
		}
	}
}
