// File: api/events.go
// Package api defines pooled input event types.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// EventKind discriminates input event variants.
type EventKind uint8

const (
	KindKey EventKind = iota + 1
	KindMotion
	KindFocus
)

// String returns a short name for the event kind.
func (k EventKind) String() string {
	switch k {
	case KindKey:
		return "key"
	case KindMotion:
		return "motion"
	case KindFocus:
		return "focus"
	default:
		return "unknown"
	}
}

// Motion actions carried by MotionEvent.Action.
const (
	MotionActionDown int32 = iota
	MotionActionUp
	MotionActionMove
)

// InputEvent is the common surface of all pooled event variants.
//
// Events handed to client callbacks are owned by the engine's pool and must
// not be retained after the callback returns.
type InputEvent interface {
	// Sequence returns the per-channel acknowledgment sequence number.
	// It is unique only among currently unacknowledged events.
	Sequence() uint32

	// Kind returns the variant discriminator.
	Kind() EventKind

	// Reset clears all fields for pool reuse.
	Reset()
}

// KeyEvent is a decoded key event.
type KeyEvent struct {
	Seq      uint32
	Action   int32
	Code     int32
	ScanCode int32
	Meta     int32
	Repeat   int32
	Time     int64
}

func (e *KeyEvent) Sequence() uint32 { return e.Seq }
func (e *KeyEvent) Kind() EventKind  { return KindKey }
func (e *KeyEvent) Reset()           { *e = KeyEvent{} }

// MotionEvent is a decoded pointer/motion event. Multiple move events of the
// same action may have been coalesced by the producer before delivery.
type MotionEvent struct {
	Seq    uint32
	Action int32
	Source int32
	X      float32
	Y      float32
	Time   int64
}

func (e *MotionEvent) Sequence() uint32 { return e.Seq }
func (e *MotionEvent) Kind() EventKind  { return KindMotion }
func (e *MotionEvent) Reset()           { *e = MotionEvent{} }

// FocusEvent reports a window focus transition. Focus events are consumed by
// the engine itself and acknowledged synchronously.
type FocusEvent struct {
	Seq         uint32
	HasFocus    bool
	InTouchMode bool
}

func (e *FocusEvent) Sequence() uint32 { return e.Seq }
func (e *FocusEvent) Kind() EventKind  { return KindFocus }
func (e *FocusEvent) Reset()           { *e = FocusEvent{} }

// MotionInfo is advisory metadata returned alongside a consume result,
// describing the motion classification and coalesced touch-move count of the
// producer's pending stream. Valid is false when no info was reported.
type MotionInfo struct {
	Valid          bool
	EventType      int32
	TouchMoveCount int32
}
