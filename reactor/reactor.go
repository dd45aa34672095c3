// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral readiness reactor interface.

package reactor

// FDEventType is a bitmask of readiness conditions.
type FDEventType uint32

const (
	EventRead FDEventType = 1 << iota
	EventWrite
	EventError
)

// FDCallback is invoked on the reactor's dispatch thread when a registered
// descriptor becomes ready.
type FDCallback func(fd uintptr, events FDEventType)

// Reactor multiplexes readiness notifications for registered descriptors.
// Dispatch is single-threaded: callbacks run sequentially on the thread
// calling Poll.
type Reactor interface {
	// Register associates a descriptor with an interest set and callback.
	Register(fd uintptr, events FDEventType, cb FDCallback) error

	// Modify replaces the interest set of a registered descriptor.
	Modify(fd uintptr, events FDEventType) error

	// Unregister removes a descriptor from the watch list.
	Unregister(fd uintptr) error

	// Poll waits for readiness and dispatches callbacks.
	// timeoutMs < 0 means block until an event arrives.
	Poll(timeoutMs int) error

	// Close releases the poller backend.
	Close() error
}
