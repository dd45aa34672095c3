// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package receiver implements the input event consumption engine: it drives
// the non-blocking consume loop over an event channel, dispatches decoded
// events to client callbacks, coalesces motion batch notifications, and sends
// per-event finish acknowledgments with backpressure queueing.
//
// A Receiver is single-threaded by contract: ConsumeEvents,
// FinishInputEvent, and reactor readiness callbacks must all run on the one
// dispatch thread that drives the reactor. Client callbacks may synchronously
// re-enter FinishInputEvent from that thread. Callers integrating a
// multi-threaded reactor must marshal onto its dispatch thread; the engine
// itself takes no locks.
package receiver
