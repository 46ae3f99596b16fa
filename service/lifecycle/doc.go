// Package lifecycle is the public entry point for creating, terminating,
// reaping and querying processes. Each operation runs as a single scheduler
// transaction so table, queues and the running pid change together.
package lifecycle
