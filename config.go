package procsched

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/procsched/internal/env"
	"github.com/viant/procsched/policy"
	"github.com/viant/procsched/runtime/process"
	"gopkg.in/yaml.v3"
)

// Config is a serialisable representation of the engine configuration. It can
// be populated from JSON or YAML; LoadConfig overlays a document on top of
// DefaultConfig so omitted fields keep their defaults.
type Config struct {
	Table     TableConfig     `json:"table" yaml:"table"`
	Scheduler SchedulerConfig `json:"scheduler" yaml:"scheduler"`
	Policy    policy.Config   `json:"policy" yaml:"policy"`
	Lifecycle LifecycleConfig `json:"lifecycle" yaml:"lifecycle"`
	Snapshot  SnapshotConfig  `json:"snapshot" yaml:"snapshot"`
	Events    EventsConfig    `json:"events" yaml:"events"`
}

type TableConfig struct {
	Capacity int         `json:"capacity" yaml:"capacity"`
	MaxPID   process.PID `json:"maxPid" yaml:"maxPid"`
}

type SchedulerConfig struct {
	Levels int `json:"levels" yaml:"levels"`
	// Quantum enables preemption by the timer driver; zero keeps scheduling
	// cooperative.
	Quantum      time.Duration `json:"quantum" yaml:"quantum"`
	TickInterval time.Duration `json:"tickInterval" yaml:"tickInterval"`
}

type LifecycleConfig struct {
	InitPID           process.PID `json:"initPid" yaml:"initPid"`
	MaxNameLength     int         `json:"maxNameLength" yaml:"maxNameLength"`
	DefaultStackBytes int64       `json:"defaultStackBytes" yaml:"defaultStackBytes"`
	AutoReap          bool        `json:"autoReap" yaml:"autoReap"`
}

type SnapshotConfig struct {
	// BaseURL stores checkpoints as JSON files; empty keeps them in memory
	BaseURL string `json:"baseURL,omitempty" yaml:"baseURL,omitempty"`
}

type EventsConfig struct {
	Enabled     bool `json:"enabled" yaml:"enabled"`
	QueueBuffer int  `json:"queueBuffer" yaml:"queueBuffer"`
}

// DefaultConfig returns a Config populated with the package defaults
func DefaultConfig() *Config {
	return &Config{
		Table: TableConfig{
			Capacity: 64,
			MaxPID:   32768,
		},
		Scheduler: SchedulerConfig{
			Levels:       10,
			TickInterval: 10 * time.Millisecond,
		},
		Policy: policy.Config{Mode: policy.ModeReject},
		Lifecycle: LifecycleConfig{
			InitPID:           process.DefaultInitPID,
			MaxNameLength:     process.DefaultMaxNameLength,
			DefaultStackBytes: 8 * 1024,
		},
		Events: EventsConfig{QueueBuffer: 256},
	}
}

// Validate returns aggregated error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Table.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("table.capacity must be > 0"))
	}
	if int(c.Table.MaxPID) < c.Table.Capacity {
		errs = append(errs, fmt.Errorf("table.maxPid must be >= table.capacity"))
	}
	if c.Scheduler.Levels <= 0 {
		errs = append(errs, fmt.Errorf("scheduler.levels must be > 0"))
	}
	if c.Scheduler.Quantum < 0 {
		errs = append(errs, fmt.Errorf("scheduler.quantum must be >= 0"))
	}
	if c.Scheduler.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("scheduler.tickInterval must be > 0"))
	}
	if err := c.Policy.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Lifecycle.InitPID < process.NoPID {
		errs = append(errs, fmt.Errorf("lifecycle.initPid must be >= 0"))
	}
	if c.Lifecycle.MaxNameLength < 0 {
		errs = append(errs, fmt.Errorf("lifecycle.maxNameLength must be >= 0"))
	}
	if c.Events.QueueBuffer < 0 {
		errs = append(errs, fmt.Errorf("events.queueBuffer must be >= 0"))
	}
	return errors.Join(errs...)
}

// LoadConfig reads a YAML document from any afs supported URL and overlays it
// on DefaultConfig. ${env.KEY} references are expanded before decoding.
func LoadConfig(ctx context.Context, URL string, options ...storage.Option) (*Config, error) {
	data, err := afs.New().DownloadWithURL(ctx, URL, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", URL, err)
	}
	ret := DefaultConfig()
	if err = yaml.Unmarshal([]byte(env.Expand(string(data))), ret); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", URL, err)
	}
	if err = ret.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", URL, err)
	}
	return ret, nil
}
