// File: api/channel.go
// Package api defines the event channel contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// EventChannel abstracts the consumer end of an ordered duplex transport:
// decoded input events flow downstream, finish acknowledgments flow upstream.
// All operations are non-blocking.
type EventChannel interface {
	// Name identifies the channel in logs and diagnostics.
	Name() string

	// Fd returns the readiness descriptor to register with a reactor.
	Fd() uintptr

	// Consume decodes the next ready event, drawing storage from pool.
	// consumeBatches requests flushing of coalesced motion batches up to
	// frameTime (nanoseconds; -1 means no frame time hint).
	//
	// Returns ErrWouldBlock when no event is ready, ErrChannelDead when the
	// producer tore down its end, or another terminal error. The MotionInfo
	// result is advisory and may be valid regardless of the event variant.
	Consume(pool EventPool, consumeBatches bool, frameTime int64) (InputEvent, MotionInfo, error)

	// SendFinish writes one acknowledgment upstream. Returns ErrWouldBlock
	// when the outbound direction is full, ErrChannelDead when the peer is
	// gone, or another terminal error.
	SendFinish(seq uint32, handled bool) error

	// HasPendingBatch reports whether a coalesced motion batch is waiting
	// for an explicit consumeBatches pass.
	HasPendingBatch() bool

	// PendingBatchSource identifies the input source of the pending batch.
	PendingBatchSource() int32
}

// EventPool provides reusable storage for decoded event payloads, keyed by
// event kind, so the consume hot path allocates nothing in steady state.
type EventPool interface {
	ObtainKey() *KeyEvent
	ObtainMotion() *MotionEvent
	ObtainFocus() *FocusEvent

	// Recycle resets the event and returns it to the pool. The event must
	// not be used afterwards.
	Recycle(ev InputEvent)
}
