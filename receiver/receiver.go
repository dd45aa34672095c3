// File: receiver/receiver.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Receiver - consumption engine for one input event channel. Owns the
// consume loop, the pending-finish queue, and the batching/motion-info
// state machines.

package receiver

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/momentics/hioload-input/api"
	"github.com/momentics/hioload-input/pool"
	"github.com/momentics/hioload-input/reactor"
)

// RegistrationState describes the receiver's reactor registration.
type RegistrationState uint8

const (
	StateUnregistered RegistrationState = iota
	StateReadOnly
	StateReadWrite
	StateDisposed
)

// String returns a short name for the registration state.
func (s RegistrationState) String() string {
	switch s {
	case StateUnregistered:
		return "unregistered"
	case StateReadOnly:
		return "read"
	case StateReadWrite:
		return "read-write"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// Stats aggregates receiver accounting counters. Read them on the dispatch
// thread.
type Stats struct {
	Consumed         int64
	Dispatched       int64
	Finished         int64
	QueuedFinishes   int64
	DroppedFinishes  int64
	BatchesSignaled  int64
	CallbackFailures int64
}

// Receiver consumes input events from one channel and acknowledges each of
// them exactly once. All methods must run on the reactor dispatch thread.
type Receiver struct {
	channel api.EventChannel
	reactor reactor.Reactor
	client  api.ClientRef
	events  api.EventPool
	log     zerolog.Logger

	pending  *finishQueue
	fdEvents reactor.FDEventType
	disposed bool

	batchedPending      bool
	lastMotionEventType int32
	lastTouchMoveCount  int32

	stats Stats
}

// New creates a receiver for the given channel, reactor and client. The
// channel and reactor handles are borrowed; their lifetime is managed by the
// owner. Call Initialize before use.
func New(ch api.EventChannel, rc reactor.Reactor, client api.ClientRef, opts ...Option) (*Receiver, error) {
	if ch == nil || rc == nil || client == nil {
		return nil, fmt.Errorf("receiver: %w: channel, reactor and client are required", api.ErrInvalidArgument)
	}
	r := &Receiver{
		channel:             ch,
		reactor:             rc,
		client:              client,
		log:                 zerolog.Nop(),
		pending:             newFinishQueue(),
		lastMotionEventType: -1,
		lastTouchMoveCount:  -1,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.events == nil {
		r.events = pool.New()
	}
	r.log = r.log.With().Str("channel", ch.Name()).Logger()
	return r, nil
}

// Initialize registers the channel descriptor with the reactor for read
// readiness. Idempotent while the receiver is not disposed.
func (r *Receiver) Initialize() error {
	if r.disposed {
		return api.ErrDisposed
	}
	if r.fdEvents != 0 {
		return nil
	}
	r.log.Debug().Msg("initializing input event receiver")
	return r.setFdEvents(reactor.EventRead)
}

// Dispose deregisters from the reactor. The channel stays open; it is owned
// elsewhere. No further consume or finish activity is allowed afterwards.
func (r *Receiver) Dispose() {
	if r.disposed {
		return
	}
	r.log.Debug().Msg("disposing input event receiver")
	if err := r.setFdEvents(0); err != nil {
		r.log.Warn().Err(err).Msg("failed to deregister from reactor")
	}
	r.disposed = true
}

// RegistrationState reports the current reactor registration.
func (r *Receiver) RegistrationState() RegistrationState {
	switch {
	case r.disposed:
		return StateDisposed
	case r.fdEvents == 0:
		return StateUnregistered
	case r.fdEvents&reactor.EventWrite != 0:
		return StateReadWrite
	default:
		return StateReadOnly
	}
}

// Stats returns a snapshot of the accounting counters.
func (r *Receiver) Stats() Stats {
	return r.stats
}

// setFdEvents reconciles the reactor registration with the wanted interest
// set. Zero interest removes the registration entirely.
func (r *Receiver) setFdEvents(events reactor.FDEventType) error {
	if r.fdEvents == events {
		return nil
	}
	fd := r.channel.Fd()
	var err error
	switch {
	case events == 0:
		err = r.reactor.Unregister(fd)
	case r.fdEvents == 0:
		err = r.reactor.Register(fd, events, r.handleEvent)
	default:
		err = r.reactor.Modify(fd, events)
	}
	if err != nil {
		return fmt.Errorf("update fd events: %w", err)
	}
	r.fdEvents = events
	return nil
}

// handleEvent is the reactor readiness callback.
func (r *Receiver) handleEvent(_ uintptr, events reactor.FDEventType) {
	if events&reactor.EventError != 0 {
		// Typically the publisher closed the channel while removing a
		// window or finishing a session; the receiver will be disposed
		// shortly after.
		r.log.Debug().Uint32("events", uint32(events)).
			Msg("publisher closed input channel or an error occurred")
		_ = r.setFdEvents(0)
		return
	}

	if events&reactor.EventRead != 0 {
		if _, err := r.ConsumeEvents(false, -1); err != nil {
			r.log.Warn().Err(err).Msg("consume pass failed, deregistering")
			_ = r.setFdEvents(0)
		}
		return
	}

	if events&reactor.EventWrite != 0 {
		if err := r.drainFinishQueue(); err != nil {
			r.log.Warn().Err(err).Msg("failed to flush queued finish events")
		}
		return
	}

	r.log.Warn().Uint32("events", uint32(events)).
		Msg("received spurious callback for unhandled poll event")
}

// ConsumeBatchedEvents flushes pending coalesced batches up to frameTime and
// reports whether a batched motion event was consumed.
func (r *Receiver) ConsumeBatchedEvents(frameTime int64) (bool, error) {
	return r.ConsumeEvents(true, frameTime)
}

// ConsumeEvents drains all ready events from the channel and dispatches them
// to the client. With consumeBatches set, pending coalesced motion batches
// are flushed up to frameTime (nanoseconds, -1 for none) and the returned
// flag reports whether a batched move was consumed.
//
// The loop ends on the first would-block, on a focus event (acknowledged
// synchronously, remaining events stay queued for the next pass), or on a
// terminal error, which is returned to the caller.
func (r *Receiver) ConsumeEvents(consumeBatches bool, frameTime int64) (consumedBatch bool, err error) {
	if r.disposed {
		return false, api.ErrDisposed
	}
	if consumeBatches {
		// The client is explicitly flushing; allow a fresh pending
		// notification afterwards.
		r.batchedPending = false
	}

	var client api.ClientCallbacks
	skipCallbacks := false
	for {
		ev, info, cerr := r.channel.Consume(r.events, consumeBatches, frameTime)

		// Resolve the client once per pass. A released client is a
		// terminal condition, not a fault.
		if client == nil {
			if client = r.client.Deref(); client == nil {
				r.log.Warn().Msg("client was released without being disposed")
				return consumedBatch, api.ErrClientGone
			}
		}

		if info.Valid && (info.EventType != r.lastMotionEventType ||
			info.TouchMoveCount != r.lastTouchMoveCount) {
			// Advisory pre-sizing hint; a failed call is absorbed.
			if derr := guard(func() error {
				return client.OnMotionInfoChanged(info.EventType, info.TouchMoveCount)
			}); derr != nil {
				r.log.Debug().Err(derr).Msg("motion info callback failed")
			}
			r.lastMotionEventType = info.EventType
			r.lastTouchMoveCount = info.TouchMoveCount
		}

		if cerr != nil {
			if !errors.Is(cerr, api.ErrWouldBlock) {
				r.log.Error().Err(cerr).Msg("failed to consume input event")
				return consumedBatch, cerr
			}
			if !skipCallbacks && !r.batchedPending && r.channel.HasPendingBatch() {
				// There is a pending batch. Come back later.
				r.batchedPending = true
				source := r.channel.PendingBatchSource()
				r.log.Debug().Int32("source", source).
					Msg("dispatching batched input event pending notification")
				if derr := guard(func() error {
					return client.OnBatchPending(source)
				}); derr != nil {
					r.log.Error().Err(derr).Msg("batch pending callback failed")
					r.batchedPending = false // try again later
				} else {
					r.stats.BatchesSignaled++
				}
			}
			return consumedBatch, nil
		}

		seq := ev.Sequence()
		r.stats.Consumed++

		if !skipCallbacks {
			switch e := ev.(type) {
			case *api.KeyEvent:
				r.log.Debug().Uint32("seq", seq).Msg("received key event")
				if derr := r.dispatch(client, seq, ev); derr != nil {
					skipCallbacks = true
				}

			case *api.MotionEvent:
				r.log.Debug().Uint32("seq", seq).Msg("received motion event")
				if e.Action == api.MotionActionMove && consumeBatches {
					consumedBatch = true
				}
				if derr := r.dispatch(client, seq, ev); derr != nil {
					skipCallbacks = true
				}

			case *api.FocusEvent:
				// Focus events terminate the pass: acknowledged
				// synchronously, never deferred to the client.
				hasFocus, inTouchMode := e.HasFocus, e.InTouchMode
				r.log.Debug().Uint32("seq", seq).
					Bool("hasFocus", hasFocus).Bool("inTouchMode", inTouchMode).
					Msg("received focus event")
				r.events.Recycle(ev)
				if derr := guard(func() error {
					return client.OnFocusEvent(hasFocus, inTouchMode)
				}); derr != nil {
					r.stats.CallbackFailures++
					r.log.Error().Err(derr).Msg("focus callback failed")
				} else {
					r.stats.Dispatched++
				}
				if ferr := r.FinishInputEvent(seq, true); ferr != nil {
					r.log.Warn().Err(ferr).Uint32("seq", seq).
						Msg("failed to finish focus event")
				}
				return consumedBatch, nil

			default:
				r.log.Warn().Uint32("seq", seq).Msg("unknown event variant")
				skipCallbacks = true
			}
		}

		if skipCallbacks {
			if ferr := r.FinishInputEvent(seq, false); ferr != nil {
				r.log.Warn().Err(ferr).Uint32("seq", seq).
					Msg("failed to finish skipped event")
			}
		}
		r.events.Recycle(ev)
	}
}

// dispatch hands one key or motion event to the client. The client owns the
// acknowledgment for successfully dispatched events.
func (r *Receiver) dispatch(client api.ClientCallbacks, seq uint32, ev api.InputEvent) error {
	r.log.Debug().Uint32("seq", seq).Msg("dispatching input event")
	err := guard(func() error { return client.OnInputEvent(seq, ev) })
	if err != nil {
		r.stats.CallbackFailures++
		r.log.Error().Err(err).Uint32("seq", seq).
			Msg("input event callback failed, skipping remaining callbacks this pass")
		return err
	}
	r.stats.Dispatched++
	return nil
}

// FinishInputEvent sends one acknowledgment upstream. On backpressure the
// record is queued FIFO and write readiness is requested; a gone peer is
// dropped silently (the producer side is assumed torn down independently).
func (r *Receiver) FinishInputEvent(seq uint32, handled bool) error {
	if r.disposed {
		return api.ErrDisposed
	}
	err := r.channel.SendFinish(seq, handled)
	switch {
	case err == nil:
		r.stats.Finished++
		return nil

	case errors.Is(err, api.ErrWouldBlock):
		r.log.Debug().Uint32("seq", seq).
			Msg("could not send finished signal immediately, enqueued for later")
		r.pending.push(finishRecord{seq: seq, handled: handled})
		r.stats.QueuedFinishes++
		if r.pending.len() == 1 {
			if serr := r.setFdEvents(reactor.EventRead | reactor.EventWrite); serr != nil {
				r.log.Warn().Err(serr).Msg("failed to request write readiness")
			}
		}
		return nil

	case errors.Is(err, api.ErrChannelDead):
		// Best effort: the peer tore down its end, nothing to report.
		r.log.Debug().Uint32("seq", seq).Msg("dropped finished signal, peer is gone")
		r.stats.DroppedFinishes++
		return nil

	default:
		r.log.Warn().Err(err).Uint32("seq", seq).
			Msg("failed to send finished signal")
		return err
	}
}

// drainFinishQueue flushes queued acknowledgments strictly in FIFO order on
// write readiness. Delivery is best effort: a terminal send error discards
// the remainder and reverts to read-only interest, the producer recovers via
// timeout-based recycling.
func (r *Receiver) drainFinishQueue() error {
	for r.pending.len() > 0 {
		rec := r.pending.peek()
		err := r.channel.SendFinish(rec.seq, rec.handled)
		if err == nil {
			r.pending.pop()
			r.stats.Finished++
			continue
		}
		if errors.Is(err, api.ErrWouldBlock) {
			r.log.Debug().Int("left", r.pending.len()).
				Msg("finish queue still blocked, keeping write readiness")
			return nil
		}

		dropped := r.pending.clear()
		r.stats.DroppedFinishes += int64(dropped)
		if serr := r.setFdEvents(reactor.EventRead); serr != nil {
			r.log.Warn().Err(serr).Msg("failed to drop write readiness")
		}
		if errors.Is(err, api.ErrChannelDead) {
			r.log.Debug().Int("dropped", dropped).
				Msg("peer is gone, discarded queued finish events")
			return nil
		}
		r.log.Warn().Err(err).Int("dropped", dropped).
			Msg("failed to send queued finished signal")
		return err
	}

	r.log.Debug().Msg("finish queue drained")
	return r.setFdEvents(reactor.EventRead)
}

// PendingFinishes reports how many acknowledgments are queued for write
// readiness.
func (r *Receiver) PendingFinishes() int {
	return r.pending.len()
}

// guard converts a client callback panic into an error so a misbehaving
// client cannot take down the dispatch thread.
func guard(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("callback panic: %v", rec)
		}
	}()
	return fn()
}
