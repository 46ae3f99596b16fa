package event

import (
	"github.com/viant/procsched/service/messaging/memory"
)

type Option func(s *Service)

// WithNewMemoryQueueConfig sets the new memory queue configuration
func WithNewMemoryQueueConfig(newQueue func(name string) memory.Config) Option {
	return func(s *Service) {
		s.memNewQueueConfig = newQueue
	}
}

// WithDropUnobserved makes publishers discard events while no listener is
// attached, so queues never fill up without a consumer
func WithDropUnobserved(drop bool) Option {
	return func(s *Service) {
		s.dropUnobserved = drop
	}
}
