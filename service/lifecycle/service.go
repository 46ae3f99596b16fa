package lifecycle

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/viant/procsched/policy"
	"github.com/viant/procsched/progress"
	"github.com/viant/procsched/runtime/process"
	"github.com/viant/procsched/service/dao"
	"github.com/viant/procsched/service/dao/criteria"
	"github.com/viant/procsched/service/event"
	"github.com/viant/procsched/service/scheduler"
	"github.com/viant/procsched/tracing"
)

// Config represents lifecycle manager configuration
type Config struct {
	// InitPID receives orphaned children
	InitPID process.PID
	// MaxNameLength bounds process names, longer names are truncated
	MaxNameLength int
	// DefaultStackBytes is accounted to every new process
	DefaultStackBytes int64
	// AutoReap reclaims the slot as soon as a process terminates
	AutoReap bool
}

// DefaultConfig returns the default lifecycle configuration
func DefaultConfig() Config {
	return Config{
		InitPID:           process.DefaultInitPID,
		MaxNameLength:     process.DefaultMaxNameLength,
		DefaultStackBytes: 8 * 1024,
	}
}

// Service creates, terminates, reparents and reaps processes.
type Service struct {
	config    Config
	scheduler *scheduler.Scheduler
	policy    *policy.Policy
	logger    *slog.Logger
	publisher *event.Publisher[process.PCB]
}

// New creates a lifecycle service on top of the scheduler
func New(sched *scheduler.Scheduler, options ...Option) (*Service, error) {
	s := &Service{
		config:    DefaultConfig(),
		scheduler: sched,
		logger:    slog.Default(),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.scheduler == nil {
		return nil, fmt.Errorf("scheduler is required")
	}
	return s, nil
}

// InitPID returns the pid orphans are reparented to
func (s *Service) InitPID() process.PID { return s.config.InitPID }

// CreateProcess allocates a PCB, makes it ready and returns its pid.
func (s *Service) CreateProcess(ctx context.Context, name string, parentPID process.PID, priority process.Priority) (pid process.PID, err error) {
	ctx, span := tracing.StartSpan(ctx, "lifecycle.CreateProcess", "INTERNAL")
	defer tracing.EndSpanFunc(span, &err)()
	span.WithAttributes(map[string]string{"process.name": name}).WithPID("process.parent_pid", int(parentPID))

	aPolicy := policy.FromContext(ctx)
	if aPolicy == nil {
		aPolicy = s.policy
	}
	if priority, err = aPolicy.Admit(priority, s.scheduler.Levels()); err != nil {
		return process.NoPID, err
	}
	name = process.TruncateName(name, s.config.MaxNameLength)

	var created *process.PCB
	err = s.scheduler.Update(func(tx *scheduler.Txn) error {
		var parent *process.PCB
		if parentPID != process.NoPID {
			var ok bool
			if parent, ok = tx.Lookup(parentPID); !ok {
				return fmt.Errorf("parent: %w: pid %d", process.ErrNotFound, parentPID)
			}
			if !parent.State.IsAlive() {
				return fmt.Errorf("parent: %w: pid %d is a zombie", process.ErrNotFound, parentPID)
			}
		}
		pcb, err := tx.Table().CreateSlot(name, parentPID, priority)
		if err != nil {
			return err
		}
		pcb.Memory.StackBytes = s.config.DefaultStackBytes
		if parent != nil {
			parent.AddChild(pcb.PID)
		}
		if err = tx.Admit(pcb); err != nil {
			return err
		}
		tx.CountCreated()
		tx.Record(progress.Delta{Created: 1, Live: 1})
		created = pcb.Clone()
		return nil
	})
	if err != nil {
		return process.NoPID, err
	}
	span.WithPID("process.pid", int(created.PID))
	s.logger.Info("process created", "pid", created.PID, "name", created.Name, "parent", created.ParentPID, "priority", created.Priority)
	s.publish(ctx, event.TypeCreated, created)
	return created.PID, nil
}

// TerminateProcess turns pid into a zombie, reparents its children and
// releases its resources. Terminating the running process dispatches a
// replacement.
func (s *Service) TerminateProcess(ctx context.Context, pid process.PID, exitCode int) (err error) {
	ctx, span := tracing.StartSpan(ctx, "lifecycle.TerminateProcess", "INTERNAL")
	defer tracing.EndSpanFunc(span, &err)()
	span.WithPID("process.pid", int(pid))

	var terminated *process.PCB
	var reaped bool
	err = s.scheduler.Update(func(tx *scheduler.Txn) error {
		pcb, ok := tx.Lookup(pid)
		if !ok {
			return fmt.Errorf("%w: pid %d", process.ErrNotFound, pid)
		}
		if pcb.State == process.StateZombie {
			return fmt.Errorf("%w: pid %d", process.ErrAlreadyTerminated, pid)
		}
		wasCurrent := tx.Evict(pid)
		if err := pcb.TransitionTo(process.StateZombie, tx.Now()); err != nil {
			return err
		}
		pcb.ExitCode = exitCode
		s.reparentChildren(tx, pcb)
		pcb.Memory = process.Memory{}
		tx.Record(progress.Delta{Terminated: 1, Live: -1, Zombies: 1})
		terminated = pcb.Clone()
		if s.config.AutoReap {
			if err := s.reclaim(tx, pcb); err != nil {
				return err
			}
			reaped = true
		}
		if wasCurrent {
			tx.Dispatch()
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("process terminated", "pid", pid, "name", terminated.Name, "exitCode", exitCode)
	s.publish(ctx, event.TypeTerminated, terminated)
	if reaped {
		s.publish(ctx, event.TypeReaped, terminated)
	}
	return nil
}

// Reap reclaims the slot of a zombie and returns its exit code.
func (s *Service) Reap(ctx context.Context, pid process.PID) (exitCode int, err error) {
	ctx, span := tracing.StartSpan(ctx, "lifecycle.Reap", "INTERNAL")
	defer tracing.EndSpanFunc(span, &err)()
	span.WithPID("process.pid", int(pid))

	var reaped *process.PCB
	err = s.scheduler.Update(func(tx *scheduler.Txn) error {
		pcb, ok := tx.Lookup(pid)
		if !ok {
			return fmt.Errorf("%w: pid %d", process.ErrNotFound, pid)
		}
		if pcb.State != process.StateZombie {
			return fmt.Errorf("%w: pid %d is %s", process.ErrNotTerminated, pid, pcb.State)
		}
		reaped = pcb.Clone()
		return s.reclaim(tx, pcb)
	})
	if err != nil {
		return 0, err
	}
	s.logger.Debug("process reaped", "pid", pid, "exitCode", reaped.ExitCode)
	s.publish(ctx, event.TypeReaped, reaped)
	return reaped.ExitCode, nil
}

// reparentChildren hands every child of pcb to init. Children are left
// without a parent when init itself terminates or is no longer alive.
func (s *Service) reparentChildren(tx *scheduler.Txn, pcb *process.PCB) {
	target := process.NoPID
	var initPCB *process.PCB
	if s.config.InitPID != pcb.PID {
		if candidate, ok := tx.Lookup(s.config.InitPID); ok && candidate.State.IsAlive() {
			initPCB = candidate
			target = candidate.PID
		}
	}
	tx.Table().Range(func(child *process.PCB) bool {
		if child.ParentPID != pcb.PID || child.PID == pcb.PID {
			return true
		}
		child.ParentPID = target
		if initPCB != nil {
			initPCB.AddChild(child.PID)
		}
		s.logger.Debug("process reparented", "pid", child.PID, "from", pcb.PID, "to", target)
		return true
	})
	pcb.Children = nil
}

// reclaim frees the slot of a zombie and unlinks it from its parent.
func (s *Service) reclaim(tx *scheduler.Txn, pcb *process.PCB) error {
	if parent, ok := tx.Lookup(pcb.ParentPID); ok {
		parent.RemoveChild(pcb.PID)
	}
	if err := tx.Table().FreeSlot(pcb.PID); err != nil {
		return err
	}
	tx.Record(progress.Delta{Reaped: 1, Zombies: -1})
	return nil
}

// ListProcesses returns the pids present in the table at call time.
func (s *Service) ListProcesses(ctx context.Context) []process.PID {
	var pids []process.PID
	_ = s.scheduler.Update(func(tx *scheduler.Txn) error {
		pids = tx.Table().PIDs()
		return nil
	})
	return pids
}

// GetProcess returns a copy of the PCB owning pid.
func (s *Service) GetProcess(ctx context.Context, pid process.PID) (*process.PCB, bool) {
	var ret *process.PCB
	_ = s.scheduler.Update(func(tx *scheduler.Txn) error {
		if pcb, ok := tx.Lookup(pid); ok {
			ret = pcb.Clone()
		}
		return nil
	})
	return ret, ret != nil
}

// Processes returns copies of all PCBs, optionally filtered by a "State"
// parameter.
func (s *Service) Processes(ctx context.Context, parameters ...*dao.Parameter) ([]*process.PCB, error) {
	if err := criteria.Validate(parameters); err != nil {
		return nil, err
	}
	var ret []*process.PCB
	err := s.scheduler.Update(func(tx *scheduler.Txn) error {
		tx.Table().Range(func(pcb *process.PCB) bool {
			if criteria.FilterByState(string(pcb.State), parameters) {
				ret = append(ret, pcb.Clone())
			}
			return true
		})
		return nil
	})
	return ret, err
}

// Children returns the child pids of pid.
func (s *Service) Children(ctx context.Context, pid process.PID) ([]process.PID, error) {
	pcb, ok := s.GetProcess(ctx, pid)
	if !ok {
		return nil, fmt.Errorf("%w: pid %d", process.ErrNotFound, pid)
	}
	return pcb.Children, nil
}

// ChargeMemory adjusts the heap counter of a live process; the counter never
// goes below zero.
func (s *Service) ChargeMemory(ctx context.Context, pid process.PID, heapDelta int64) error {
	return s.scheduler.Update(func(tx *scheduler.Txn) error {
		pcb, err := s.live(tx, pid)
		if err != nil {
			return err
		}
		pcb.Memory.HeapBytes += heapDelta
		if pcb.Memory.HeapBytes < 0 {
			pcb.Memory.HeapBytes = 0
		}
		return nil
	})
}

// SetPriority changes the priority of a live process. A ready process moves
// to the tail of its new level.
func (s *Service) SetPriority(ctx context.Context, pid process.PID, priority process.Priority) (err error) {
	aPolicy := policy.FromContext(ctx)
	if aPolicy == nil {
		aPolicy = s.policy
	}
	if priority, err = aPolicy.Admit(priority, s.scheduler.Levels()); err != nil {
		return err
	}
	return s.scheduler.Update(func(tx *scheduler.Txn) error {
		pcb, err := s.live(tx, pid)
		if err != nil {
			return err
		}
		if pcb.Priority == priority {
			return nil
		}
		pcb.Priority = priority
		if pcb.State == process.StateReady {
			tx.Queues().Remove(pid)
			tx.Queues().Enqueue(pid, priority)
		}
		return nil
	})
}

func (s *Service) live(tx *scheduler.Txn, pid process.PID) (*process.PCB, error) {
	pcb, ok := tx.Lookup(pid)
	if !ok {
		return nil, fmt.Errorf("%w: pid %d", process.ErrNotFound, pid)
	}
	if pcb.State == process.StateZombie {
		return nil, fmt.Errorf("%w: pid %d", process.ErrAlreadyTerminated, pid)
	}
	return pcb, nil
}

func (s *Service) publish(ctx context.Context, eventType string, pcb *process.PCB) {
	if s.publisher == nil || pcb == nil {
		return
	}
	anEvent := event.NewEvent(&event.Context{
		PID:       int(pcb.PID),
		ParentPID: int(pcb.ParentPID),
		Name:      pcb.Name,
		EventType: eventType,
	}, *pcb)
	if err := s.publisher.Publish(ctx, anEvent); err != nil {
		s.logger.Warn("failed to publish lifecycle event", "event", eventType, "pid", pcb.PID, "error", err)
	}
}
