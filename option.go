package procsched

import (
	"log/slog"

	slogmulti "github.com/samber/slog-multi"
	"github.com/viant/procsched/policy"
	"github.com/viant/procsched/progress"
	"github.com/viant/procsched/runtime/process"
	"github.com/viant/procsched/service/dao"
	"github.com/viant/procsched/service/event"
	"github.com/viant/procsched/tracing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option customises the Service
type Option func(s *Service)

// WithConfig replaces the configuration used by New
func WithConfig(config *Config) Option {
	return func(s *Service) {
		if config != nil {
			s.config = config
		}
	}
}

// WithLogger sets the logger shared by all services
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLogHandlers fans every record out to all supplied handlers
func WithLogHandlers(handlers ...slog.Handler) Option {
	return func(s *Service) {
		if len(handlers) == 0 {
			return
		}
		s.logger = slog.New(slogmulti.Fanout(handlers...))
	}
}

// WithPolicy sets the default priority policy; it takes precedence over
// the configured policy mode.
func WithPolicy(p *policy.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// WithSnapshotDAO sets the checkpoint store
func WithSnapshotDAO(store dao.Service[string, process.TableSnapshot]) Option {
	return func(s *Service) {
		s.snapshotDAO = store
	}
}

// WithEventService sets the event service
func WithEventService(service *event.Service) Option {
	return func(s *Service) {
		s.eventService = service
	}
}

// WithEventListener registers a lifecycle event handler and enables events
func WithEventListener(listener func(*event.Event[process.PCB])) Option {
	return func(s *Service) {
		s.eventListener = listener
	}
}

// WithProgressListener registers a callback receiving counters after every change
func WithProgressListener(listener func(progress.Progress)) Option {
	return func(s *Service) {
		s.progressListener = listener
	}
}

// WithTracing configures OpenTelemetry tracing for the service. If outputFile is empty the
// stdout exporter is used; otherwise traces are written to the supplied file path. The function is
// safe to call multiple times – the first successful initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		if err := tracing.Init(serviceName, serviceVersion, outputFile); err != nil {
			s.logger.Warn("failed to initialise tracing", "error", err)
		}
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom SpanExporter.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		if err := tracing.InitWithExporter(serviceName, serviceVersion, exporter); err != nil {
			s.logger.Warn("failed to initialise tracing", "error", err)
		}
	}
}
