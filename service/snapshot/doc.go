// Package snapshot captures point-in-time copies of the process table,
// persists them through a dao.Service and renders or diffs them for
// diagnostics.
package snapshot
