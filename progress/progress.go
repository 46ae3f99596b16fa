package progress

import (
	"sync"
	"time"
)

// Delta represents an incremental counter change emitted by the lifecycle
// manager or the scheduler. Fields are signed; gauges (Live, Zombies) move in
// both directions.
type Delta struct {
	Created         int
	Terminated      int
	Reaped          int
	ContextSwitches int
	Preemptions     int
	Live            int
	Zombies         int
}

// Progress keeps aggregated counters for one scheduler instance. It is safe
// for concurrent use.
type Progress struct {
	StartedAt time.Time

	Created         int
	Terminated      int
	Reaped          int
	ContextSwitches int
	Preemptions     int
	Live            int
	Zombies         int

	sync.Mutex
	onChange func(Progress)
}

// New creates a tracker; onChange may be nil.
func New(onChange func(Progress)) *Progress {
	return &Progress{StartedAt: time.Now(), onChange: onChange}
}

// Update applies the supplied delta. If an onChange callback has been
// registered it is invoked with a copy of the updated tracker outside the
// critical section.
func (p *Progress) Update(d Delta) {
	if p == nil {
		return
	}

	p.Lock()

	p.Created += d.Created
	p.Terminated += d.Terminated
	p.Reaped += d.Reaped
	p.ContextSwitches += d.ContextSwitches
	p.Preemptions += d.Preemptions
	p.Live += d.Live
	p.Zombies += d.Zombies

	snapshot := p.copyLocked()
	cb := p.onChange

	p.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// Snapshot returns a copy of the tracker suitable for read-only inspection.
func (p *Progress) Snapshot() Progress {
	if p == nil {
		return Progress{}
	}
	p.Lock()
	defer p.Unlock()
	return p.copyLocked()
}

func (p *Progress) copyLocked() Progress {
	return Progress{
		StartedAt:       p.StartedAt,
		Created:         p.Created,
		Terminated:      p.Terminated,
		Reaped:          p.Reaped,
		ContextSwitches: p.ContextSwitches,
		Preemptions:     p.Preemptions,
		Live:            p.Live,
		Zombies:         p.Zombies,
	}
}

// OnChange registers a callback invoked after every Update. Passing nil
// disables the callback.
func (p *Progress) OnChange(cb func(Progress)) {
	if p == nil {
		return
	}
	p.Lock()
	p.onChange = cb
	p.Unlock()
}
