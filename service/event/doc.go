// Package event publishes process lifecycle events (created, dispatched,
// terminated, reaped) on typed in-memory queues and runs listeners that
// consume them.
package event
