// Package policy holds the priority admission rule applied when a process is
// created: reject out-of-range priorities or clamp them into range.
package policy
