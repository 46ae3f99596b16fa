// Package timer periodically drives the scheduler: it wakes sleeping
// processes whose deadline passed, enforces the time quantum and dispatches
// when the cpu is idle.
package timer
