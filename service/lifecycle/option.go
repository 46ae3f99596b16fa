package lifecycle

import (
	"log/slog"

	"github.com/viant/procsched/policy"
	"github.com/viant/procsched/runtime/process"
	"github.com/viant/procsched/service/event"
)

type Option func(*Service)

// WithConfig sets the configuration for the service
func WithConfig(config Config) Option {
	return func(s *Service) {
		s.config = config
	}
}

// WithPolicy sets the default priority policy
func WithPolicy(p *policy.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPublisher sets the lifecycle event publisher
func WithPublisher(publisher *event.Publisher[process.PCB]) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}
