// File: fake/client.go
// Author: momentics <momentics@gmail.com>
//
// Recording ClientCallbacks double with programmable failures, plus a
// releasable ClientRef.

package fake

import "github.com/momentics/hioload-input/api"

// DispatchedEvent records one OnInputEvent delivery.
type DispatchedEvent struct {
	Seq  uint32
	Kind api.EventKind
}

// FocusChange records one OnFocusEvent delivery.
type FocusChange struct {
	HasFocus    bool
	InTouchMode bool
}

// MotionInfoChange records one OnMotionInfoChanged delivery.
type MotionInfoChange struct {
	EventType      int32
	TouchMoveCount int32
}

// Client is a fake api.ClientCallbacks recording every delivery. Set the
// Fail* fields to make the corresponding callback return that error; FailSeq
// restricts OnInputEvent failures to one sequence number (0 fails all).
type Client struct {
	Events      []DispatchedEvent
	Focus       []FocusChange
	Batches     []int32
	MotionInfos []MotionInfoChange
	Calls       []string // delivery order across all callbacks

	FailInput      error
	FailSeq        uint32
	FailFocus      error
	FailBatch      error
	FailMotionInfo error
}

// NewClient creates a fake client.
func NewClient() *Client { return &Client{} }

// OnInputEvent implements api.ClientCallbacks.
func (c *Client) OnInputEvent(seq uint32, ev api.InputEvent) error {
	if c.FailInput != nil && (c.FailSeq == 0 || c.FailSeq == seq) {
		return c.FailInput
	}
	c.Events = append(c.Events, DispatchedEvent{Seq: seq, Kind: ev.Kind()})
	c.Calls = append(c.Calls, "input")
	return nil
}

// OnFocusEvent implements api.ClientCallbacks.
func (c *Client) OnFocusEvent(hasFocus, inTouchMode bool) error {
	if c.FailFocus != nil {
		return c.FailFocus
	}
	c.Focus = append(c.Focus, FocusChange{HasFocus: hasFocus, InTouchMode: inTouchMode})
	c.Calls = append(c.Calls, "focus")
	return nil
}

// OnBatchPending implements api.ClientCallbacks.
func (c *Client) OnBatchPending(source int32) error {
	if c.FailBatch != nil {
		return c.FailBatch
	}
	c.Batches = append(c.Batches, source)
	c.Calls = append(c.Calls, "batch")
	return nil
}

// OnMotionInfoChanged implements api.ClientCallbacks.
func (c *Client) OnMotionInfoChanged(eventType, touchMoveCount int32) error {
	if c.FailMotionInfo != nil {
		return c.FailMotionInfo
	}
	c.MotionInfos = append(c.MotionInfos, MotionInfoChange{
		EventType:      eventType,
		TouchMoveCount: touchMoveCount,
	})
	c.Calls = append(c.Calls, "motioninfo")
	return nil
}

// ClientRef is an api.ClientRef whose target can be released mid-test.
type ClientRef struct {
	client api.ClientCallbacks
}

// NewClientRef wraps a client in a releasable reference.
func NewClientRef(c api.ClientCallbacks) *ClientRef {
	return &ClientRef{client: c}
}

// Release drops the target; subsequent Deref calls return nil.
func (r *ClientRef) Release() { r.client = nil }

// Deref implements api.ClientRef.
func (r *ClientRef) Deref() api.ClientCallbacks { return r.client }
