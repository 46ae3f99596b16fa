package scheduler

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/procsched/internal/clock"
	"github.com/viant/procsched/progress"
	"github.com/viant/procsched/runtime/process"
)

func admit(t *testing.T, s *Scheduler, name string, priority process.Priority) process.PID {
	t.Helper()
	var pid process.PID
	err := s.Update(func(tx *Txn) error {
		pcb, err := tx.Table().CreateSlot(name, process.NoPID, priority)
		if err != nil {
			return err
		}
		pid = pcb.PID
		tx.CountCreated()
		return tx.Admit(pcb)
	})
	require.NoError(t, err)
	return pid
}

func lookup(t *testing.T, s *Scheduler, pid process.PID) *process.PCB {
	t.Helper()
	pcb := s.Snapshot().Lookup(pid)
	require.NotNil(t, pcb)
	return pcb
}

func TestScheduler_Schedule(t *testing.T) {
	s := New(DefaultConfig())
	pid, ok := s.Schedule()
	assert.False(t, ok)
	assert.Equal(t, process.NoPID, pid)

	worker := admit(t, s, "worker", 5)
	initd := admit(t, s, "initd", 1)

	pid, ok = s.Schedule()
	require.True(t, ok)
	assert.Equal(t, initd, pid, "priority 1 runs before priority 5")

	pid, ok = s.Schedule()
	require.True(t, ok)
	assert.Equal(t, initd, pid, "running process keeps the cpu")

	stats := s.Stats()
	assert.Equal(t, initd, stats.CurrentPID)
	assert.EqualValues(t, 1, stats.ContextSwitches)
	assert.EqualValues(t, 2, stats.TotalProcesses)
	assert.Equal(t, 1, stats.QueueLengths[5])
	assert.Equal(t, process.StateReady, lookup(t, s, worker).State)
	assert.NoError(t, s.CheckInvariants())
}

func TestScheduler_YieldRoundRobin(t *testing.T) {
	manual := clock.NewManual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	defer clock.Use(manual)()

	s := New(DefaultConfig())
	a := admit(t, s, "a", 3)
	b := admit(t, s, "b", 3)

	pid, _ := s.Schedule()
	assert.Equal(t, a, pid)

	manual.Advance(40 * time.Millisecond)
	pid, ok := s.Yield()
	require.True(t, ok)
	assert.Equal(t, b, pid)
	assert.Equal(t, 40*time.Millisecond, lookup(t, s, a).CPUTime)

	pid, _ = s.Yield()
	assert.Equal(t, a, pid)
	assert.EqualValues(t, 3, s.Stats().ContextSwitches)
	assert.NoError(t, s.CheckInvariants())
}

func TestScheduler_YieldAlone(t *testing.T) {
	s := New(DefaultConfig())
	only := admit(t, s, "only", 0)
	s.Schedule()
	pid, ok := s.Yield()
	require.True(t, ok)
	assert.Equal(t, only, pid)
	assert.NoError(t, s.CheckInvariants())
}

func TestScheduler_PreemptIfExpired(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	manual := clock.NewManual(start)
	defer clock.Use(manual)()

	counters := progress.New(nil)
	s := New(DefaultConfig(), WithProgress(counters))
	a := admit(t, s, "a", 2)
	b := admit(t, s, "b", 2)
	s.Schedule()

	quantum := 10 * time.Millisecond
	assert.False(t, s.PreemptIfExpired(start.Add(5*time.Millisecond), quantum))
	assert.True(t, s.PreemptIfExpired(start.Add(quantum), quantum))

	current, _ := s.Current()
	assert.Equal(t, b, current)
	assert.Equal(t, process.StateReady, lookup(t, s, a).State)
	assert.Equal(t, quantum, lookup(t, s, a).CPUTime)
	assert.EqualValues(t, 1, s.Stats().Preemptions)
	assert.Equal(t, 1, counters.Snapshot().Preemptions)
	assert.Equal(t, 2, counters.Snapshot().ContextSwitches)

	idle := New(DefaultConfig())
	assert.False(t, idle.PreemptIfExpired(start.Add(time.Hour), quantum))
}

func TestScheduler_BlockUnblock(t *testing.T) {
	s := New(DefaultConfig())
	a := admit(t, s, "a", 1)
	b := admit(t, s, "b", 2)
	s.Schedule()

	require.NoError(t, s.Block(a))
	current, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, b, current, "blocking the running process dispatches the next one")
	assert.Equal(t, process.StateBlocked, lookup(t, s, a).State)
	assert.NoError(t, s.CheckInvariants())

	err := s.Block(a)
	assert.True(t, errors.Is(err, process.ErrInvalidTransition))

	require.NoError(t, s.Unblock(a))
	assert.Equal(t, process.StateReady, lookup(t, s, a).State)
	assert.True(t, errors.Is(s.Unblock(a), process.ErrInvalidTransition))
	assert.True(t, errors.Is(s.Unblock(99), process.ErrNotFound))

	current, _ = s.Current()
	assert.Equal(t, b, current, "unblock does not preempt")
	assert.NoError(t, s.CheckInvariants())
}

func TestScheduler_SleepAndWake(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	manual := clock.NewManual(start)
	defer clock.Use(manual)()

	s := New(DefaultConfig())
	a := admit(t, s, "a", 1)
	b := admit(t, s, "b", 1)

	require.NoError(t, s.Sleep(b, start.Add(time.Second)))
	pcb := lookup(t, s, b)
	assert.Equal(t, process.StateSleeping, pcb.State)
	require.NotNil(t, pcb.WakeAt)

	assert.Empty(t, s.WakeSleepers(start.Add(500*time.Millisecond)))
	assert.Equal(t, []process.PID{b}, s.WakeSleepers(start.Add(time.Second)))
	assert.Nil(t, lookup(t, s, b).WakeAt)

	pid, _ := s.Schedule()
	assert.Equal(t, a, pid, "a was queued before b woke up")
	assert.NoError(t, s.CheckInvariants())
}

func TestScheduler_ZombieRejected(t *testing.T) {
	s := New(DefaultConfig())
	a := admit(t, s, "a", 1)
	require.NoError(t, s.Update(func(tx *Txn) error {
		pcb, _ := tx.Lookup(a)
		tx.Evict(a)
		return pcb.TransitionTo(process.StateZombie, tx.Now())
	}))
	assert.True(t, errors.Is(s.Block(a), process.ErrAlreadyTerminated))
	assert.True(t, errors.Is(s.Sleep(a, time.Now()), process.ErrAlreadyTerminated))
	_, ok := s.Schedule()
	assert.False(t, ok)
}

func TestScheduler_DispatchListener(t *testing.T) {
	var dispatched []process.PID
	var s *Scheduler
	s = New(DefaultConfig(), WithDispatchListeners(func(pcb *process.PCB) {
		// listeners run after the lock is released
		assert.Equal(t, pcb.PID, s.Stats().CurrentPID)
		dispatched = append(dispatched, pcb.PID)
	}))
	a := admit(t, s, "a", 1)
	b := admit(t, s, "b", 1)
	s.Schedule()
	s.Yield()
	assert.Equal(t, []process.PID{a, b}, dispatched)
}

func TestScheduler_UpdateError(t *testing.T) {
	s := New(DefaultConfig())
	expect := errors.New("abort")
	err := s.Update(func(tx *Txn) error { return expect })
	assert.Same(t, expect, err)
}

func TestScheduler_UpdatePanicReleasesLock(t *testing.T) {
	s := New(DefaultConfig())
	assert.Panics(t, func() {
		_ = s.Update(func(tx *Txn) error { panic("broken transaction") })
	})
	pid := admit(t, s, "after", 1)
	current, ok := s.Schedule()
	require.True(t, ok)
	assert.Equal(t, pid, current)
}

func TestScheduler_Concurrent(t *testing.T) {
	s := New(DefaultConfig())
	for i := 0; i < 16; i++ {
		admit(t, s, "p", process.Priority(i%4))
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				switch (id + j) % 3 {
				case 0:
					s.Schedule()
				case 1:
					s.Yield()
				default:
					assert.NoError(t, s.CheckInvariants())
				}
			}
		}(i)
	}
	wg.Wait()
	assert.NoError(t, s.CheckInvariants())
	assert.Equal(t, 16, s.Stats().Live)
}
