package procsched

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/viant/procsched/policy"
	"github.com/viant/procsched/progress"
	"github.com/viant/procsched/runtime/process"
	"github.com/viant/procsched/service/dao"
	sfs "github.com/viant/procsched/service/dao/snapshot/fs"
	smemory "github.com/viant/procsched/service/dao/snapshot/memory"
	"github.com/viant/procsched/service/event"
	"github.com/viant/procsched/service/lifecycle"
	"github.com/viant/procsched/service/messaging"
	mmemory "github.com/viant/procsched/service/messaging/memory"
	"github.com/viant/procsched/service/queue"
	"github.com/viant/procsched/service/scheduler"
	"github.com/viant/procsched/service/snapshot"
	"github.com/viant/procsched/service/table"
	"github.com/viant/procsched/service/timer"
)

// Service wires the process table, scheduler, lifecycle manager and their
// supporting services together.
type Service struct {
	config           *Config
	runtime          *Runtime
	logger           *slog.Logger
	policy           *policy.Policy
	snapshotDAO      dao.Service[string, process.TableSnapshot]
	eventService     *event.Service
	eventListener    func(*event.Event[process.PCB])
	progressListener func(progress.Progress)
}

func (s *Service) init(options []Option) error {
	for _, option := range options {
		option(s)
	}
	if err := s.config.Validate(); err != nil {
		return err
	}
	if err := s.ensureBaseSetup(); err != nil {
		return err
	}
	config := s.config
	r := s.runtime
	r.logger = s.logger
	r.progress = progress.New(s.progressListener)

	var publisher *event.Publisher[process.PCB]
	if config.Events.Enabled || s.eventListener != nil {
		var err error
		if publisher, err = event.PublisherOf[process.PCB](s.eventService); err != nil {
			return err
		}
		r.events = s.eventService
	}

	schedulerOptions := []scheduler.Option{scheduler.WithProgress(r.progress), scheduler.WithLogger(s.logger)}
	if publisher != nil {
		schedulerOptions = append(schedulerOptions, scheduler.WithDispatchListeners(func(pcb *process.PCB) {
			anEvent := event.NewEvent(&event.Context{PID: int(pcb.PID), ParentPID: int(pcb.ParentPID), Name: pcb.Name, EventType: event.TypeDispatched}, *pcb)
			if err := publisher.Publish(context.Background(), anEvent); err != nil {
				s.logger.Warn("failed to publish lifecycle event", "event", event.TypeDispatched, "pid", pcb.PID, "error", err)
			}
		}))
	}
	r.scheduler = scheduler.New(scheduler.Config{
		Levels: config.Scheduler.Levels,
		Table:  table.Config{Capacity: config.Table.Capacity, MaxPID: config.Table.MaxPID},
	}, schedulerOptions...)

	var err error
	r.lifecycle, err = lifecycle.New(r.scheduler,
		lifecycle.WithConfig(lifecycle.Config{
			InitPID:           config.Lifecycle.InitPID,
			MaxNameLength:     config.Lifecycle.MaxNameLength,
			DefaultStackBytes: config.Lifecycle.DefaultStackBytes,
			AutoReap:          config.Lifecycle.AutoReap,
		}),
		lifecycle.WithPolicy(s.policy),
		lifecycle.WithLogger(s.logger),
		lifecycle.WithPublisher(publisher))
	if err != nil {
		return err
	}
	r.snapshots = snapshot.New(r.scheduler, s.snapshotDAO)
	if r.timer, err = timer.New(r.scheduler, timer.Config{
		TickInterval: config.Scheduler.TickInterval,
		Quantum:      config.Scheduler.Quantum,
	}, timer.WithLogger(s.logger)); err != nil {
		return err
	}
	if s.eventListener != nil {
		if err = event.SetListenerOf[process.PCB](s.eventService, s.eventListener); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) ensureBaseSetup() error {
	if s.policy == nil {
		s.policy = policy.FromConfig(&s.config.Policy)
	}
	if s.snapshotDAO == nil {
		if baseURL := s.config.Snapshot.BaseURL; baseURL != "" {
			store, err := sfs.New(baseURL, sfs.WithLogger(s.logger))
			if err != nil {
				return fmt.Errorf("failed to create snapshot store: %w", err)
			}
			s.snapshotDAO = store
		} else {
			s.snapshotDAO = smemory.New()
		}
	}
	if s.eventService == nil && (s.config.Events.Enabled || s.eventListener != nil) {
		queueBuffer := s.config.Events.QueueBuffer
		service, err := event.New(messaging.VendorMemory, event.WithDropUnobserved(true), event.WithNewMemoryQueueConfig(func(string) mmemory.Config {
			ret := mmemory.DefaultConfig()
			if queueBuffer > 0 {
				ret.QueueBuffer = queueBuffer
			}
			return ret
		}))
		if err != nil {
			return err
		}
		s.eventService = service
	}
	return nil
}

// Runtime returns the runtime exposing every scheduling operation
func (s *Service) Runtime() *Runtime {
	return s.runtime
}

// Config returns the effective configuration
func (s *Service) Config() *Config {
	return s.config
}

// New creates a service with the default configuration, as altered by options
func New(options ...Option) (*Service, error) {
	ret := &Service{
		config:  DefaultConfig(),
		runtime: &Runtime{},
		logger:  slog.Default(),
	}
	if err := ret.init(options); err != nil {
		return nil, err
	}
	return ret, nil
}

// NewFromConfig creates a service from the supplied configuration
func NewFromConfig(config *Config, options ...Option) (*Service, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Scheduler.Levels == 0 {
		config.Scheduler.Levels = queue.DefaultLevels
	}
	return New(append([]Option{WithConfig(config)}, options...)...)
}
