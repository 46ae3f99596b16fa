// Package queue provides the per-priority ready queues. Ordering inside a
// level is strict arrival order; levels are drained from 0 upwards.
package queue
