package scheduler

import (
	"log/slog"

	"github.com/viant/procsched/progress"
)

type Option func(*Scheduler)

// WithProgress sets the counters tracker
func WithProgress(tracker *progress.Progress) Option {
	return func(s *Scheduler) {
		s.progress = tracker
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDispatchListeners registers listeners notified after every dispatch.
func WithDispatchListeners(listeners ...DispatchListener) Option {
	return func(s *Scheduler) {
		s.listeners = append(s.listeners, listeners...)
	}
}
