// Package idgen wraps the UUID generator used for snapshot and event
// identifiers so that it can be stubbed in tests. Identifiers are opaque
// strings.
package idgen
