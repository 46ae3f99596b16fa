// Package progress keeps aggregated scheduler counters (processes created,
// terminated, reaped, context switches, preemptions) and notifies an optional
// observer after every change.
package progress
