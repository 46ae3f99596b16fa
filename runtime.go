package procsched

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/viant/procsched/progress"
	"github.com/viant/procsched/runtime/process"
	"github.com/viant/procsched/service/dao"
	"github.com/viant/procsched/service/dao/criteria"
	"github.com/viant/procsched/service/event"
	"github.com/viant/procsched/service/lifecycle"
	"github.com/viant/procsched/service/scheduler"
	"github.com/viant/procsched/service/snapshot"
	"github.com/viant/procsched/service/timer"
)

// Runtime represents a scheduler runtime
type Runtime struct {
	scheduler *scheduler.Scheduler
	lifecycle *lifecycle.Service
	snapshots *snapshot.Service
	timer     *timer.Service
	progress  *progress.Progress
	events    *event.Service
	logger    *slog.Logger

	mux    sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Scheduler returns the underlying scheduler
func (r *Runtime) Scheduler() *scheduler.Scheduler { return r.scheduler }

// Lifecycle returns the lifecycle manager
func (r *Runtime) Lifecycle() *lifecycle.Service { return r.lifecycle }

// CreateProcess creates a ready process and returns its pid
func (r *Runtime) CreateProcess(ctx context.Context, name string, parentPID process.PID, priority process.Priority) (process.PID, error) {
	return r.lifecycle.CreateProcess(ctx, name, parentPID, priority)
}

// TerminateProcess terminates a process with exitCode
func (r *Runtime) TerminateProcess(ctx context.Context, pid process.PID, exitCode int) error {
	return r.lifecycle.TerminateProcess(ctx, pid, exitCode)
}

// Reap reclaims a zombie and returns its exit code
func (r *Runtime) Reap(ctx context.Context, pid process.PID) (int, error) {
	return r.lifecycle.Reap(ctx, pid)
}

// ListProcesses returns the pids present in the table
func (r *Runtime) ListProcesses(ctx context.Context) []process.PID {
	return r.lifecycle.ListProcesses(ctx)
}

// GetProcess returns a copy of a process
func (r *Runtime) GetProcess(ctx context.Context, pid process.PID) (*process.PCB, bool) {
	return r.lifecycle.GetProcess(ctx, pid)
}

// Processes returns a list of processes
func (r *Runtime) Processes(ctx context.Context, parameters ...*dao.Parameter) ([]*process.PCB, error) {
	return r.lifecycle.Processes(ctx, parameters...)
}

// ProcessesMatching returns processes selected by a filter expression such as
// "State=ready|running".
func (r *Runtime) ProcessesMatching(ctx context.Context, expression string) ([]*process.PCB, error) {
	parameters, err := criteria.Parse([]byte(expression))
	if err != nil {
		return nil, err
	}
	return r.lifecycle.Processes(ctx, parameters...)
}

// Children returns the child pids of a process
func (r *Runtime) Children(ctx context.Context, pid process.PID) ([]process.PID, error) {
	return r.lifecycle.Children(ctx, pid)
}

// ChargeMemory adjusts heap usage of a process
func (r *Runtime) ChargeMemory(ctx context.Context, pid process.PID, heapDelta int64) error {
	return r.lifecycle.ChargeMemory(ctx, pid, heapDelta)
}

// SetPriority changes the priority of a process
func (r *Runtime) SetPriority(ctx context.Context, pid process.PID, priority process.Priority) error {
	return r.lifecycle.SetPriority(ctx, pid, priority)
}

// Schedule returns the running pid, dispatching one if the cpu is idle
func (r *Runtime) Schedule() (process.PID, bool) { return r.scheduler.Schedule() }

// Yield gives up the cpu and dispatches the next ready process
func (r *Runtime) Yield() (process.PID, bool) { return r.scheduler.Yield() }

// PreemptIfExpired preempts the running process once it used quantum
func (r *Runtime) PreemptIfExpired(now time.Time, quantum time.Duration) bool {
	return r.scheduler.PreemptIfExpired(now, quantum)
}

// Block blocks a process
func (r *Runtime) Block(pid process.PID) error { return r.scheduler.Block(pid) }

// Sleep puts a process to sleep until the supplied time
func (r *Runtime) Sleep(pid process.PID, until time.Time) error { return r.scheduler.Sleep(pid, until) }

// Unblock makes a blocked or sleeping process ready
func (r *Runtime) Unblock(pid process.PID) error { return r.scheduler.Unblock(pid) }

// WakeSleepers makes due sleepers ready
func (r *Runtime) WakeSleepers(now time.Time) []process.PID { return r.scheduler.WakeSleepers(now) }

// Current returns the running pid
func (r *Runtime) Current() (process.PID, bool) { return r.scheduler.Current() }

// Stats returns scheduler statistics
func (r *Runtime) Stats() scheduler.Stats { return r.scheduler.Stats() }

// Progress returns lifecycle and scheduling counters
func (r *Runtime) Progress() progress.Progress { return r.progress.Snapshot() }

// CheckInvariants verifies scheduler consistency
func (r *Runtime) CheckInvariants() error { return r.scheduler.CheckInvariants() }

// Snapshot captures the table without persisting it
func (r *Runtime) Snapshot(ctx context.Context) *process.TableSnapshot {
	return r.snapshots.Take(ctx)
}

// Checkpoint captures and persists the table
func (r *Runtime) Checkpoint(ctx context.Context) (*process.TableSnapshot, error) {
	return r.snapshots.Checkpoint(ctx)
}

// Checkpoints returns persisted snapshots
func (r *Runtime) Checkpoints(ctx context.Context, parameters ...*dao.Parameter) ([]*process.TableSnapshot, error) {
	return r.snapshots.List(ctx, parameters...)
}

// LoadCheckpoint returns a persisted snapshot
func (r *Runtime) LoadCheckpoint(ctx context.Context, id string) (*process.TableSnapshot, error) {
	return r.snapshots.Load(ctx, id)
}

// Render writes a ps-like view of the snapshot
func (r *Runtime) Render(w io.Writer, aSnapshot *process.TableSnapshot) error {
	return snapshot.Render(w, aSnapshot)
}

// Compare diffs two snapshots
func (r *Runtime) Compare(from, to *process.TableSnapshot) (*snapshot.Change, error) {
	return snapshot.Compare(from, to)
}

// Subscribe attaches handler to lifecycle events, replacing the previous
// subscriber. Events are only produced while a subscriber is attached.
func (r *Runtime) Subscribe(handler func(*event.Event[process.PCB])) error {
	if r.events == nil {
		return fmt.Errorf("events are disabled")
	}
	return event.SetListenerOf[process.PCB](r.events, handler)
}

// DeadLetterEvents returns the number of events dropped after their handler
// kept failing
func (r *Runtime) DeadLetterEvents() int {
	if r.events == nil {
		return 0
	}
	return r.events.DeadLetters()
}

// Start starts the timer driver. It is a no-op while the driver runs; once
// the driver stopped, by Shutdown or by ctx, Start runs it again.
func (r *Runtime) Start(ctx context.Context) error {
	r.mux.Lock()
	defer r.mux.Unlock()
	if r.done != nil {
		select {
		case <-r.done:
		default:
			return nil
		}
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.cancel, r.done = cancel, done
	go func() {
		defer close(done)
		defer cancel()
		if err := r.timer.Start(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			r.logger.Warn("timer stopped", "error", err)
		}
	}()
	return nil
}

// Shutdown stops the timer driver and event listeners
func (r *Runtime) Shutdown(ctx context.Context) error {
	r.mux.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mux.Unlock()
	if cancel != nil {
		cancel()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if r.events != nil {
		r.events.Shutdown()
	}
	return nil
}
