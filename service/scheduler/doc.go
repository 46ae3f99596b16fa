// Package scheduler decides which ready process runs next and keeps the
// context-switch bookkeeping. It owns the process table and the ready queues
// and serialises every mutation of them behind a single lock; compound
// operations from other services go through Update.
package scheduler
