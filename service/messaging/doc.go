// Package messaging defines the generic queue abstraction used to deliver
// scheduler events to observers.
package messaging
