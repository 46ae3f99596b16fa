package scheduler

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/viant/procsched/internal/clock"
	"github.com/viant/procsched/progress"
	"github.com/viant/procsched/runtime/process"
	"github.com/viant/procsched/service/queue"
	"github.com/viant/procsched/service/table"
)

// Config represents scheduler configuration
type Config struct {
	// Levels is the number of priority levels; priority 0 runs first
	Levels int
	Table  table.Config
}

// DefaultConfig returns the default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Levels: queue.DefaultLevels,
		Table:  table.DefaultConfig(),
	}
}

// DispatchListener is notified, outside the scheduler lock, with a copy of
// every PCB that became running.
type DispatchListener func(pcb *process.PCB)

// Scheduler selects the running process among the ready ones.
//
// The scheduler is single-core: at most one PCB is running at any time. The
// process table, the ready queues and the current pid are guarded by one
// mutex; every public method and every Update call holds it for its whole
// duration.
type Scheduler struct {
	mu     sync.Mutex
	config Config
	table  *table.Table
	queues *queue.ReadyQueues

	current         process.PID
	contextSwitches uint64
	preemptions     uint64
	totalProcesses  uint64

	progress  *progress.Progress
	logger    *slog.Logger
	listeners []DispatchListener
}

// Stats is a point-in-time view of scheduler counters
type Stats struct {
	CurrentPID      process.PID
	ContextSwitches uint64
	Preemptions     uint64
	TotalProcesses  uint64
	Live            int
	Capacity        int
	QueueLengths    []int
}

// New creates a scheduler with its own process table and ready queues
func New(config Config, options ...Option) *Scheduler {
	if config.Levels <= 0 {
		config.Levels = queue.DefaultLevels
	}
	s := &Scheduler{
		config: config,
		table:  table.New(config.Table),
		queues: queue.New(config.Levels),
		logger: slog.Default(),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Levels returns the number of priority levels
func (s *Scheduler) Levels() int { return s.queues.Levels() }

// Update runs fn atomically under the scheduler lock. Progress deltas and
// dispatch notifications recorded by fn are delivered after the lock is
// released.
func (s *Scheduler) Update(fn func(tx *Txn) error) error {
	return s.update(clock.Now(), fn)
}

func (s *Scheduler) update(now time.Time, fn func(tx *Txn) error) error {
	tx := &Txn{s: s, now: now}
	err := func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		return fn(tx)
	}()
	tx.flush()
	return err
}

// Schedule returns the running process, dispatching the highest-priority
// ready process when none is running.
func (s *Scheduler) Schedule() (process.PID, bool) {
	var pid process.PID
	var ok bool
	_ = s.Update(func(tx *Txn) error {
		pid, ok = tx.Dispatch()
		return nil
	})
	return pid, ok
}

// Yield moves the running process back to its ready queue and dispatches the
// next one, which may be the same process if nothing else is ready.
func (s *Scheduler) Yield() (process.PID, bool) {
	var pid process.PID
	var ok bool
	_ = s.Update(func(tx *Txn) error {
		tx.requeueCurrent()
		pid, ok = tx.Dispatch()
		return nil
	})
	return pid, ok
}

// PreemptIfExpired yields the running process when it has held the CPU for
// at least quantum as of now. It reports whether a preemption happened.
func (s *Scheduler) PreemptIfExpired(now time.Time, quantum time.Duration) bool {
	preempted := false
	_ = s.update(now, func(tx *Txn) error {
		pcb, ok := tx.running()
		if !ok || now.Sub(pcb.LastScheduledAt) < quantum {
			return nil
		}
		tx.requeueCurrent()
		s.preemptions++
		tx.Record(progress.Delta{Preemptions: 1})
		preempted = true
		tx.Dispatch()
		return nil
	})
	return preempted
}

// Block moves a running or ready process to blocked. Blocking the running
// process dispatches a replacement.
func (s *Scheduler) Block(pid process.PID) error {
	return s.Update(func(tx *Txn) error {
		return tx.suspend(pid, process.StateBlocked, nil)
	})
}

// Sleep moves a running or ready process to sleeping until the wake time.
// Nothing blocks: WakeSleepers makes it ready again.
func (s *Scheduler) Sleep(pid process.PID, until time.Time) error {
	return s.Update(func(tx *Txn) error {
		return tx.suspend(pid, process.StateSleeping, &until)
	})
}

// Unblock moves a blocked or sleeping process back to its ready queue.
func (s *Scheduler) Unblock(pid process.PID) error {
	return s.Update(func(tx *Txn) error {
		pcb, err := tx.live(pid)
		if err != nil {
			return err
		}
		if !pcb.State.IsWaiting() {
			return fmt.Errorf("%w: pid %d is %s", process.ErrInvalidTransition, pid, pcb.State)
		}
		return tx.Admit(pcb)
	})
}

// WakeSleepers makes every sleeping process whose wake time has passed ready
// and returns their pids.
func (s *Scheduler) WakeSleepers(now time.Time) []process.PID {
	var woken []process.PID
	_ = s.update(now, func(tx *Txn) error {
		for _, pid := range s.table.ExpiredSleepers(now) {
			pcb, _ := s.table.Lookup(pid)
			if err := tx.Admit(pcb); err != nil {
				s.logger.Warn("failed to wake process", "pid", pid, "error", err)
				continue
			}
			woken = append(woken, pid)
		}
		return nil
	})
	return woken
}

// Current returns the running pid
func (s *Scheduler) Current() (process.PID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.current != process.NoPID
}

// Stats returns scheduler statistics.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		CurrentPID:      s.current,
		ContextSwitches: s.contextSwitches,
		Preemptions:     s.preemptions,
		TotalProcesses:  s.totalProcesses,
		Live:            s.table.Len(),
		Capacity:        s.table.Cap(),
		QueueLengths:    s.queues.Lengths(),
	}
}

// Snapshot returns a copy of the whole table with scheduler counters.
func (s *Scheduler) Snapshot() *process.TableSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	ret := &process.TableSnapshot{
		TakenAt:         clock.Now(),
		CurrentPID:      s.current,
		ContextSwitches: s.contextSwitches,
		Preemptions:     s.preemptions,
		TotalProcesses:  s.totalProcesses,
		Processes:       make([]*process.PCB, 0, s.table.Len()),
	}
	s.table.Range(func(pcb *process.PCB) bool {
		ret.Processes = append(ret.Processes, pcb.Clone())
		return true
	})
	return ret
}

// CheckInvariants verifies the single-running and queued-iff-ready rules.
func (s *Scheduler) CheckInvariants() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	running := 0
	var err error
	s.table.Range(func(pcb *process.PCB) bool {
		if pcb.State == process.StateRunning {
			running++
			if pcb.PID != s.current {
				err = fmt.Errorf("pid %d is running but current is %d", pcb.PID, s.current)
				return false
			}
		}
		if queued := s.queues.Contains(pcb.PID); queued != (pcb.State == process.StateReady) {
			err = fmt.Errorf("pid %d is %s but queued=%v", pcb.PID, pcb.State, queued)
		}
		return err == nil
	})
	if err != nil {
		return err
	}
	if running > 1 {
		return fmt.Errorf("%d processes running", running)
	}
	if s.current != process.NoPID && running == 0 {
		return fmt.Errorf("current pid %d is not running", s.current)
	}
	if s.queues.Len() > s.table.Len() {
		return fmt.Errorf("%d queued pids for %d processes", s.queues.Len(), s.table.Len())
	}
	return nil
}
