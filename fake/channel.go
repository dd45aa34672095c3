// File: fake/channel.go
// Author: momentics <momentics@gmail.com>
//
// Scriptable EventChannel double: consume results and finish outcomes are
// queued ahead of time, finish signals are recorded.

package fake

import "github.com/momentics/hioload-input/api"

// Finish records one acknowledgment received by the channel.
type Finish struct {
	Seq     uint32
	Handled bool
}

type consumeStep struct {
	ev   api.InputEvent
	info api.MotionInfo
	err  error
}

// Channel is a fake api.EventChannel. Zero value is not usable; construct
// with NewChannel. Consume pops scripted steps in order and reports
// ErrWouldBlock once the script is exhausted.
type Channel struct {
	name string
	fd   uintptr

	steps      []consumeStep
	sendScript []error
	finishes   []Finish

	pendingBatch bool
	batchSource  int32

	ConsumeCalls []bool // consumeBatches flag of each Consume call
}

// NewChannel creates a fake channel.
func NewChannel(name string, fd uintptr) *Channel {
	return &Channel{name: name, fd: fd}
}

func (c *Channel) Name() string { return c.name }
func (c *Channel) Fd() uintptr  { return c.fd }

// PushEvent scripts a successful consume result.
func (c *Channel) PushEvent(ev api.InputEvent) {
	c.steps = append(c.steps, consumeStep{ev: ev})
}

// PushEventWithInfo scripts a consume result carrying motion info.
func (c *Channel) PushEventWithInfo(ev api.InputEvent, info api.MotionInfo) {
	c.steps = append(c.steps, consumeStep{ev: ev, info: info})
}

// PushError scripts a consume failure.
func (c *Channel) PushError(err error) {
	c.steps = append(c.steps, consumeStep{err: err})
}

// ScriptSend queues outcomes for upcoming SendFinish calls; once exhausted,
// SendFinish succeeds.
func (c *Channel) ScriptSend(errs ...error) {
	c.sendScript = append(c.sendScript, errs...)
}

// SetPendingBatch controls HasPendingBatch and its source.
func (c *Channel) SetPendingBatch(pending bool, source int32) {
	c.pendingBatch = pending
	c.batchSource = source
}

// Finishes returns the acknowledgments received so far, in order.
func (c *Channel) Finishes() []Finish { return c.finishes }

// Remaining reports how many scripted consume steps are left unread.
func (c *Channel) Remaining() int { return len(c.steps) }

// Consume implements api.EventChannel.
func (c *Channel) Consume(_ api.EventPool, consumeBatches bool, _ int64) (api.InputEvent, api.MotionInfo, error) {
	c.ConsumeCalls = append(c.ConsumeCalls, consumeBatches)
	if len(c.steps) == 0 {
		return nil, api.MotionInfo{}, api.ErrWouldBlock
	}
	step := c.steps[0]
	c.steps = c.steps[1:]
	return step.ev, step.info, step.err
}

// SendFinish implements api.EventChannel.
func (c *Channel) SendFinish(seq uint32, handled bool) error {
	if len(c.sendScript) > 0 {
		err := c.sendScript[0]
		c.sendScript = c.sendScript[1:]
		if err != nil {
			return err
		}
	}
	c.finishes = append(c.finishes, Finish{Seq: seq, Handled: handled})
	return nil
}

func (c *Channel) HasPendingBatch() bool     { return c.pendingBatch }
func (c *Channel) PendingBatchSource() int32 { return c.batchSource }
