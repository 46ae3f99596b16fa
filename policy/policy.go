package policy

import (
	"context"
	"fmt"
	"strings"

	"github.com/viant/procsched/runtime/process"
)

// Priority modes recognised by the engine.
const (
	ModeReject = "reject" // out-of-range priority fails with ErrInvalidPriority (default)
	ModeClamp  = "clamp"  // out-of-range priority is clamped into range
)

// Policy represents the priority admission settings.
//
// A nil *Policy behaves like ModeReject over [0, process.Priority(levels-1)]
// as supplied to Admit.
type Policy struct {
	Mode string
}

// Config represents the declarative, serialisable part of a Policy.
type Config struct {
	Mode string `json:"mode,omitempty" yaml:"mode,omitempty"`
}

// ToConfig converts a runtime Policy into a persistable Config.
func ToConfig(p *Policy) *Config {
	if p == nil {
		return nil
	}
	return &Config{Mode: p.Mode}
}

// FromConfig converts a stored Config back to a runtime Policy.
func FromConfig(c *Config) *Policy {
	if c == nil {
		return nil
	}
	return &Policy{Mode: c.Mode}
}

// Validate checks the mode
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	switch strings.ToLower(c.Mode) {
	case "", ModeReject, ModeClamp:
		return nil
	}
	return fmt.Errorf("unsupported priority mode: %q", c.Mode)
}

// IsClamp returns true when out-of-range priorities are clamped
func (p *Policy) IsClamp() bool {
	return p != nil && strings.EqualFold(p.Mode, ModeClamp)
}

// Admit returns the priority to use for a process given levels priority
// levels, or ErrInvalidPriority.
func (p *Policy) Admit(priority process.Priority, levels int) (process.Priority, error) {
	maxPriority := process.Priority(levels - 1)
	if priority >= 0 && priority <= maxPriority {
		return priority, nil
	}
	if !p.IsClamp() {
		return priority, fmt.Errorf("%w: %d not in [0, %d]", process.ErrInvalidPriority, priority, maxPriority)
	}
	if priority < 0 {
		return 0, nil
	}
	return maxPriority, nil
}

// ---------------------------------------------------------------------------
// Context helpers
// ---------------------------------------------------------------------------

type ctxKeyT struct{}

var ctxKey ctxKeyT

// WithPolicy embeds policy in ctx.
func WithPolicy(ctx context.Context, p *Policy) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey, p)
}

// FromContext extracts the *Policy or nil.
func FromContext(ctx context.Context) *Policy {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxKey).(*Policy); ok {
		return v
	}
	return nil
}
