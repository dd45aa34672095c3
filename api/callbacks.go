// File: api/callbacks.go
// Package api defines the client callback surface.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// ClientCallbacks receives decoded events and engine notifications. Any
// callback may fail; failures are absorbed by the engine and never propagate
// out of it as a fault.
type ClientCallbacks interface {
	// OnInputEvent delivers a key or motion event. The client owns the
	// acknowledgment: it must eventually call FinishInputEvent with the
	// given sequence number. The event itself must not be retained after
	// the callback returns.
	OnInputEvent(seq uint32, ev InputEvent) error

	// OnFocusEvent delivers a focus transition. The engine acknowledges
	// focus events itself, synchronously.
	OnFocusEvent(hasFocus, inTouchMode bool) error

	// OnBatchPending signals that a coalesced motion batch is waiting and
	// the client should schedule a consumeBatches pass.
	OnBatchPending(source int32) error

	// OnMotionInfoChanged is an advisory pre-sizing hint; it carries the
	// motion classification and coalesced touch-move count.
	OnMotionInfoChanged(eventType, touchMoveCount int32) error
}

// ClientRef resolves the client callback target. The client's lifetime is
// independent of the engine: Deref returns nil once the client has been
// released, which the engine treats as a terminal condition.
type ClientRef interface {
	Deref() ClientCallbacks
}

type strongRef struct {
	cb ClientCallbacks
}

func (r strongRef) Deref() ClientCallbacks { return r.cb }

// NewClientRef wraps a callback target in an always-live ClientRef, for
// owners whose client outlives the receiver.
func NewClientRef(cb ClientCallbacks) ClientRef {
	return strongRef{cb: cb}
}
