package timer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/viant/procsched/internal/clock"
	"github.com/viant/procsched/runtime/process"
	"github.com/viant/procsched/service/scheduler"
)

// Config represents timer driver configuration
type Config struct {
	// TickInterval is how often the driver wakes sleepers and checks the quantum
	TickInterval time.Duration
	// Quantum is the time slice after which the running process is preempted;
	// zero disables preemption.
	Quantum time.Duration
}

// DefaultConfig returns the default timer configuration
func DefaultConfig() Config {
	return Config{
		TickInterval: 10 * time.Millisecond,
		Quantum:      50 * time.Millisecond,
	}
}

// Tick describes what a single driver step did
type Tick struct {
	At        time.Time
	Woken     []process.PID
	Preempted bool
	Current   process.PID
}

// Service drives time-based scheduler transitions from a ticker.
type Service struct {
	config     Config
	scheduler  *scheduler.Scheduler
	logger     *slog.Logger
	onTick     func(*Tick)
	mux        sync.Mutex
	shutdownCh chan struct{}
}

// Step wakes due sleepers, preempts an expired process and makes sure a
// ready process runs when the cpu is idle.
func (s *Service) Step(now time.Time) *Tick {
	ret := &Tick{At: now}
	ret.Woken = s.scheduler.WakeSleepers(now)
	if s.config.Quantum > 0 {
		ret.Preempted = s.scheduler.PreemptIfExpired(now, s.config.Quantum)
	}
	ret.Current, _ = s.scheduler.Schedule()
	if len(ret.Woken) > 0 || ret.Preempted {
		s.logger.Debug("timer tick", "woken", ret.Woken, "preempted", ret.Preempted, "current", ret.Current)
	}
	if s.onTick != nil {
		s.onTick(ret)
	}
	return ret
}

// Start runs the driver loop until ctx is done or Shutdown is called. The
// driver can be started again once the previous run returned.
func (s *Service) Start(ctx context.Context) error {
	s.mux.Lock()
	if s.shutdownCh != nil {
		s.mux.Unlock()
		return fmt.Errorf("timer is already running")
	}
	shutdownCh := make(chan struct{})
	s.shutdownCh = shutdownCh
	s.mux.Unlock()
	defer func() {
		s.mux.Lock()
		if s.shutdownCh == shutdownCh {
			s.shutdownCh = nil
		}
		s.mux.Unlock()
	}()

	ticker := time.NewTicker(s.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-shutdownCh:
			return nil
		case <-ticker.C:
			s.Step(clock.Now())
		}
	}
}

// Shutdown stops the running driver loop, if any
func (s *Service) Shutdown() {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.shutdownCh != nil {
		close(s.shutdownCh)
		s.shutdownCh = nil
	}
}

// New creates a timer driver
func New(sched *scheduler.Scheduler, config Config, options ...Option) (*Service, error) {
	if sched == nil {
		return nil, fmt.Errorf("scheduler is required")
	}
	if config.TickInterval <= 0 {
		return nil, fmt.Errorf("invalid tick interval: %v", config.TickInterval)
	}
	s := &Service{
		config:    config,
		scheduler: sched,
		logger:    slog.Default(),
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

type Option func(*Service)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTickListener registers a callback invoked after every step
func WithTickListener(fn func(*Tick)) Option {
	return func(s *Service) {
		s.onTick = fn
	}
}
