package queue

import (
	"github.com/viant/procsched/runtime/process"
)

// DefaultLevels is the default number of priority levels
const DefaultLevels = 10

// ReadyQueues holds one FIFO of pids per priority level.
// Level 0 is drained first.
//
// ReadyQueues is not safe for concurrent use; the scheduler serialises every
// access.
type ReadyQueues struct {
	levels [][]process.PID
	member map[process.PID]int // pid -> level
}

// New creates ready queues with the given number of levels
func New(levels int) *ReadyQueues {
	if levels <= 0 {
		levels = DefaultLevels
	}
	return &ReadyQueues{
		levels: make([][]process.PID, levels),
		member: make(map[process.PID]int),
	}
}

// Levels returns the number of priority levels
func (q *ReadyQueues) Levels() int { return len(q.levels) }

// Clamp bounds priority to the valid level range
func (q *ReadyQueues) Clamp(priority process.Priority) int {
	level := int(priority)
	if level < 0 {
		return 0
	}
	if level >= len(q.levels) {
		return len(q.levels) - 1
	}
	return level
}

// Enqueue appends pid to the tail of its priority level.
// The caller guarantees pid is ready and not already queued.
func (q *ReadyQueues) Enqueue(pid process.PID, priority process.Priority) {
	level := q.Clamp(priority)
	q.levels[level] = append(q.levels[level], pid)
	q.member[pid] = level
}

// DequeueHighest removes and returns the head of the first non-empty level.
func (q *ReadyQueues) DequeueHighest() (process.PID, bool) {
	for level, items := range q.levels {
		if len(items) == 0 {
			continue
		}
		pid := items[0]
		items[0] = process.NoPID
		q.levels[level] = items[1:]
		if len(q.levels[level]) == 0 {
			q.levels[level] = nil
		}
		delete(q.member, pid)
		return pid, true
	}
	return process.NoPID, false
}

// Remove removes pid from whichever level holds it. Unknown pids are a no-op.
func (q *ReadyQueues) Remove(pid process.PID) bool {
	level, ok := q.member[pid]
	if !ok {
		return false
	}
	items := q.levels[level]
	for i, candidate := range items {
		if candidate == pid {
			q.levels[level] = append(items[:i], items[i+1:]...)
			break
		}
	}
	delete(q.member, pid)
	return true
}

// Contains checks if pid is queued
func (q *ReadyQueues) Contains(pid process.PID) bool {
	_, ok := q.member[pid]
	return ok
}

// Len returns the number of queued pids
func (q *ReadyQueues) Len() int { return len(q.member) }

// Lengths returns the number of queued pids per level
func (q *ReadyQueues) Lengths() []int {
	out := make([]int, len(q.levels))
	for i, items := range q.levels {
		out[i] = len(items)
	}
	return out
}

// Level returns a copy of the pids queued at level, head first
func (q *ReadyQueues) Level(level int) []process.PID {
	if level < 0 || level >= len(q.levels) {
		return nil
	}
	return append([]process.PID(nil), q.levels[level]...)
}
