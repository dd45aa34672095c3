// File: receiver/receiver_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package receiver_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-input/api"
	"github.com/momentics/hioload-input/fake"
	"github.com/momentics/hioload-input/reactor"
	"github.com/momentics/hioload-input/receiver"
)

const testFd = uintptr(42)

func newTestReceiver(t *testing.T) (*receiver.Receiver, *fake.Channel, *fake.Reactor, *fake.Client, *fake.ClientRef) {
	t.Helper()
	ch := fake.NewChannel("test-channel", testFd)
	rc := fake.NewReactor()
	client := fake.NewClient()
	ref := fake.NewClientRef(client)
	r, err := receiver.New(ch, rc, ref)
	require.NoError(t, err)
	require.NoError(t, r.Initialize())
	return r, ch, rc, client, ref
}

func TestNewValidatesArguments(t *testing.T) {
	_, err := receiver.New(nil, fake.NewReactor(), fake.NewClientRef(fake.NewClient()))
	require.ErrorIs(t, err, api.ErrInvalidArgument)

	_, err = receiver.New(fake.NewChannel("c", 1), nil, fake.NewClientRef(fake.NewClient()))
	require.ErrorIs(t, err, api.ErrInvalidArgument)

	_, err = receiver.New(fake.NewChannel("c", 1), fake.NewReactor(), nil)
	require.ErrorIs(t, err, api.ErrInvalidArgument)
}

func TestInitializeRegistersReadInterest(t *testing.T) {
	r, _, rc, _, _ := newTestReceiver(t)

	assert.Equal(t, receiver.StateReadOnly, r.RegistrationState())
	assert.Equal(t, reactor.EventRead, rc.Interest(testFd))

	// Idempotent while registered.
	require.NoError(t, r.Initialize())
	assert.Equal(t, 1, rc.Registers)
}

func TestDisposeUnregistersAndTerminates(t *testing.T) {
	r, _, rc, _, _ := newTestReceiver(t)

	r.Dispose()
	assert.False(t, rc.Registered(testFd))
	assert.Equal(t, receiver.StateDisposed, r.RegistrationState())

	_, err := r.ConsumeEvents(false, -1)
	assert.ErrorIs(t, err, api.ErrDisposed)
	assert.ErrorIs(t, r.FinishInputEvent(1, true), api.ErrDisposed)
	assert.ErrorIs(t, r.Initialize(), api.ErrDisposed)

	r.Dispose() // second dispose is a no-op
	assert.Equal(t, 1, rc.Unregisters)
}

func TestDispatchLeavesAcknowledgmentToClient(t *testing.T) {
	r, ch, _, client, _ := newTestReceiver(t)
	ch.PushEvent(&api.KeyEvent{Seq: 1, Code: 30})
	ch.PushEvent(&api.MotionEvent{Seq: 2, Action: api.MotionActionDown})

	consumed, err := r.ConsumeEvents(false, -1)
	require.NoError(t, err)
	assert.False(t, consumed)

	require.Len(t, client.Events, 2)
	assert.Equal(t, fake.DispatchedEvent{Seq: 1, Kind: api.KindKey}, client.Events[0])
	assert.Equal(t, fake.DispatchedEvent{Seq: 2, Kind: api.KindMotion}, client.Events[1])
	assert.Empty(t, ch.Finishes(), "dispatched events are acknowledged by the client, not the engine")

	require.NoError(t, r.FinishInputEvent(1, true))
	require.NoError(t, r.FinishInputEvent(2, false))
	assert.Equal(t, []fake.Finish{{Seq: 1, Handled: true}, {Seq: 2, Handled: false}}, ch.Finishes())
}

func TestFocusFinishedSynchronouslyAndEndsPass(t *testing.T) {
	r, ch, _, client, _ := newTestReceiver(t)
	ch.PushEvent(&api.KeyEvent{Seq: 1})
	ch.PushEvent(&api.MotionEvent{Seq: 2, Action: api.MotionActionMove})
	ch.PushEvent(&api.FocusEvent{Seq: 3, HasFocus: true})
	ch.PushEvent(&api.KeyEvent{Seq: 4})

	consumed, err := r.ConsumeBatchedEvents(-1)
	require.NoError(t, err)
	assert.True(t, consumed, "batched move was consumed")

	assert.Len(t, client.Events, 2)
	assert.Equal(t, []fake.FocusChange{{HasFocus: true, InTouchMode: false}}, client.Focus)
	assert.Equal(t, []fake.Finish{{Seq: 3, Handled: true}}, ch.Finishes())
	assert.Equal(t, 1, ch.Remaining(), "events after the focus event stay queued")
}

func TestMotionMoveOnlyCountsOnBatchFlush(t *testing.T) {
	r, ch, _, _, _ := newTestReceiver(t)
	ch.PushEvent(&api.MotionEvent{Seq: 1, Action: api.MotionActionMove})

	consumed, err := r.ConsumeEvents(false, -1)
	require.NoError(t, err)
	assert.False(t, consumed)
}

func TestFinishBackpressureQueuesAndDrains(t *testing.T) {
	r, ch, rc, _, _ := newTestReceiver(t)
	ch.ScriptSend(api.ErrWouldBlock)

	require.NoError(t, r.FinishInputEvent(5, true))
	assert.Equal(t, 1, r.PendingFinishes())
	assert.Equal(t, receiver.StateReadWrite, r.RegistrationState())
	assert.Equal(t, reactor.EventRead|reactor.EventWrite, rc.Interest(testFd))
	assert.Empty(t, ch.Finishes())

	rc.Fire(testFd, reactor.EventWrite)
	assert.Equal(t, []fake.Finish{{Seq: 5, Handled: true}}, ch.Finishes())
	assert.Equal(t, 0, r.PendingFinishes())
	assert.Equal(t, receiver.StateReadOnly, r.RegistrationState())
}

func TestDrainPreservesFIFOOrder(t *testing.T) {
	r, ch, rc, _, _ := newTestReceiver(t)
	ch.ScriptSend(api.ErrWouldBlock, api.ErrWouldBlock, api.ErrWouldBlock)

	require.NoError(t, r.FinishInputEvent(1, true))
	require.NoError(t, r.FinishInputEvent(2, false))
	require.NoError(t, r.FinishInputEvent(3, true))
	require.Equal(t, 3, r.PendingFinishes())

	rc.Fire(testFd, reactor.EventWrite)
	assert.Equal(t, []fake.Finish{
		{Seq: 1, Handled: true},
		{Seq: 2, Handled: false},
		{Seq: 3, Handled: true},
	}, ch.Finishes())
	assert.Equal(t, receiver.StateReadOnly, r.RegistrationState())
}

func TestDrainKeepsRemainderWhenStillBlocked(t *testing.T) {
	r, ch, rc, _, _ := newTestReceiver(t)
	ch.ScriptSend(api.ErrWouldBlock, api.ErrWouldBlock)
	require.NoError(t, r.FinishInputEvent(1, true))
	require.NoError(t, r.FinishInputEvent(2, true))

	// First queued record goes through, the second still blocks.
	ch.ScriptSend(nil, api.ErrWouldBlock)
	rc.Fire(testFd, reactor.EventWrite)

	assert.Equal(t, []fake.Finish{{Seq: 1, Handled: true}}, ch.Finishes())
	assert.Equal(t, 1, r.PendingFinishes())
	assert.Equal(t, receiver.StateReadWrite, r.RegistrationState())

	rc.Fire(testFd, reactor.EventWrite)
	assert.Equal(t, 0, r.PendingFinishes())
	assert.Equal(t, receiver.StateReadOnly, r.RegistrationState())
}

func TestDrainTerminalErrorDiscardsRemainder(t *testing.T) {
	r, ch, rc, _, _ := newTestReceiver(t)
	ch.ScriptSend(api.ErrWouldBlock, api.ErrWouldBlock)
	require.NoError(t, r.FinishInputEvent(1, true))
	require.NoError(t, r.FinishInputEvent(2, true))

	ch.ScriptSend(api.NewError(api.ErrCodeIO, "write failed"))
	rc.Fire(testFd, reactor.EventWrite)

	assert.Empty(t, ch.Finishes())
	assert.Equal(t, 0, r.PendingFinishes())
	assert.Equal(t, receiver.StateReadOnly, r.RegistrationState())
	assert.Equal(t, int64(2), r.Stats().DroppedFinishes)
}

func TestDrainPeerGoneIsSilent(t *testing.T) {
	r, ch, rc, _, _ := newTestReceiver(t)
	ch.ScriptSend(api.ErrWouldBlock)
	require.NoError(t, r.FinishInputEvent(7, false))

	ch.ScriptSend(api.ErrChannelDead)
	rc.Fire(testFd, reactor.EventWrite)

	assert.Equal(t, 0, r.PendingFinishes())
	assert.Equal(t, receiver.StateReadOnly, r.RegistrationState())
}

func TestFinishPeerGoneDroppedSilently(t *testing.T) {
	r, ch, _, _, _ := newTestReceiver(t)
	ch.ScriptSend(api.ErrChannelDead)

	require.NoError(t, r.FinishInputEvent(9, true))
	assert.Equal(t, 0, r.PendingFinishes())
	assert.Equal(t, receiver.StateReadOnly, r.RegistrationState())
	assert.Equal(t, int64(1), r.Stats().DroppedFinishes)
}

func TestFinishTerminalErrorPropagates(t *testing.T) {
	r, ch, _, _, _ := newTestReceiver(t)
	sendErr := api.NewError(api.ErrCodeIO, "short write")
	ch.ScriptSend(sendErr)

	err := r.FinishInputEvent(3, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, sendErr)
	assert.Equal(t, 0, r.PendingFinishes())
}

func TestCallbackFailureSkipsRemainderOfPass(t *testing.T) {
	r, ch, _, client, _ := newTestReceiver(t)
	client.FailInput = errors.New("client exploded")
	client.FailSeq = 7
	ch.PushEvent(&api.KeyEvent{Seq: 7})
	ch.PushEvent(&api.KeyEvent{Seq: 8})

	_, err := r.ConsumeEvents(false, -1)
	require.NoError(t, err, "callback failures never escape the engine")

	assert.Empty(t, client.Events)
	assert.Equal(t, []fake.Finish{
		{Seq: 7, Handled: false},
		{Seq: 8, Handled: false},
	}, ch.Finishes())

	// Skip mode does not persist across calls.
	ch.PushEvent(&api.KeyEvent{Seq: 9})
	_, err = r.ConsumeEvents(false, -1)
	require.NoError(t, err)
	assert.Equal(t, []fake.DispatchedEvent{{Seq: 9, Kind: api.KindKey}}, client.Events)
}

func TestCallbackPanicIsAbsorbed(t *testing.T) {
	ch := fake.NewChannel("test-channel", testFd)
	r, err := receiver.New(ch, fake.NewReactor(), fake.NewClientRef(&panicClient{}))
	require.NoError(t, err)
	require.NoError(t, r.Initialize())

	ch.PushEvent(&api.KeyEvent{Seq: 1})
	_, err = r.ConsumeEvents(false, -1)
	require.NoError(t, err)
	assert.Equal(t, []fake.Finish{{Seq: 1, Handled: false}}, ch.Finishes())
}

type panicClient struct{ fake.Client }

func (c *panicClient) OnInputEvent(uint32, api.InputEvent) error { panic("boom") }

func TestFocusDuringSkipModeIsNotDispatched(t *testing.T) {
	r, ch, _, client, _ := newTestReceiver(t)
	client.FailInput = errors.New("client exploded")
	ch.PushEvent(&api.KeyEvent{Seq: 1})
	ch.PushEvent(&api.FocusEvent{Seq: 2, HasFocus: true})
	ch.PushEvent(&api.KeyEvent{Seq: 3})

	_, err := r.ConsumeEvents(false, -1)
	require.NoError(t, err)

	assert.Empty(t, client.Focus)
	assert.Equal(t, []fake.Finish{
		{Seq: 1, Handled: false},
		{Seq: 2, Handled: false},
		{Seq: 3, Handled: false},
	}, ch.Finishes())
}

func TestBatchPendingSignaledOnce(t *testing.T) {
	r, ch, _, client, _ := newTestReceiver(t)
	ch.SetPendingBatch(true, 4098)

	_, err := r.ConsumeEvents(false, -1)
	require.NoError(t, err)
	assert.Equal(t, []int32{4098}, client.Batches)

	// Latched: no second signal without an explicit flush.
	_, err = r.ConsumeEvents(false, -1)
	require.NoError(t, err)
	assert.Len(t, client.Batches, 1)

	// The explicit flush resets the latch.
	_, err = r.ConsumeBatchedEvents(-1)
	require.NoError(t, err)
	assert.Len(t, client.Batches, 2)
}

func TestBatchPendingFailureAllowsRetry(t *testing.T) {
	r, ch, _, client, _ := newTestReceiver(t)
	ch.SetPendingBatch(true, 4098)
	client.FailBatch = errors.New("client exploded")

	_, err := r.ConsumeEvents(false, -1)
	require.NoError(t, err)
	assert.Empty(t, client.Batches)

	client.FailBatch = nil
	_, err = r.ConsumeEvents(false, -1)
	require.NoError(t, err)
	assert.Equal(t, []int32{4098}, client.Batches)
}

func TestMotionInfoAdvisoryDeduplicated(t *testing.T) {
	r, ch, _, client, _ := newTestReceiver(t)
	info := api.MotionInfo{Valid: true, EventType: 2, TouchMoveCount: 5}
	ch.PushEventWithInfo(&api.MotionEvent{Seq: 1, Action: api.MotionActionMove}, info)
	ch.PushEventWithInfo(&api.MotionEvent{Seq: 2, Action: api.MotionActionMove}, info)

	_, err := r.ConsumeEvents(false, -1)
	require.NoError(t, err)

	require.Len(t, client.MotionInfos, 1)
	assert.Equal(t, fake.MotionInfoChange{EventType: 2, TouchMoveCount: 5}, client.MotionInfos[0])
	assert.Equal(t, "motioninfo", client.Calls[0], "advisory fires before event dispatch")
	assert.Equal(t, "input", client.Calls[1])

	// Changed info in a later pass fires again; unchanged info does not.
	ch.PushEventWithInfo(&api.MotionEvent{Seq: 3, Action: api.MotionActionMove}, info)
	ch.PushEventWithInfo(&api.MotionEvent{Seq: 4, Action: api.MotionActionMove},
		api.MotionInfo{Valid: true, EventType: 2, TouchMoveCount: 9})
	_, err = r.ConsumeEvents(false, -1)
	require.NoError(t, err)
	require.Len(t, client.MotionInfos, 2)
	assert.Equal(t, fake.MotionInfoChange{EventType: 2, TouchMoveCount: 9}, client.MotionInfos[1])
}

func TestMotionInfoFailureIsAdvisoryOnly(t *testing.T) {
	r, ch, _, client, _ := newTestReceiver(t)
	client.FailMotionInfo = errors.New("client exploded")
	ch.PushEventWithInfo(&api.MotionEvent{Seq: 1}, api.MotionInfo{Valid: true, EventType: 1, TouchMoveCount: 1})

	_, err := r.ConsumeEvents(false, -1)
	require.NoError(t, err)
	assert.Len(t, client.Events, 1, "event still dispatched after advisory failure")
}

func TestClientGoneTerminatesConsume(t *testing.T) {
	r, ch, _, _, ref := newTestReceiver(t)
	ref.Release()
	ch.PushEvent(&api.KeyEvent{Seq: 1})

	_, err := r.ConsumeEvents(false, -1)
	assert.ErrorIs(t, err, api.ErrClientGone)
}

func TestConsumeHardErrorPropagates(t *testing.T) {
	r, ch, _, _, _ := newTestReceiver(t)
	hard := api.NewError(api.ErrCodeIO, "decode failed")
	ch.PushError(hard)

	_, err := r.ConsumeEvents(false, -1)
	assert.ErrorIs(t, err, hard)
}

func TestReadableReadinessDrivesConsume(t *testing.T) {
	r, ch, rc, client, _ := newTestReceiver(t)
	ch.PushEvent(&api.KeyEvent{Seq: 3})

	rc.Fire(testFd, reactor.EventRead)
	assert.Equal(t, []fake.DispatchedEvent{{Seq: 3, Kind: api.KindKey}}, client.Events)
	assert.Equal(t, receiver.StateReadOnly, r.RegistrationState())
}

func TestErrorReadinessDeregisters(t *testing.T) {
	r, _, rc, _, _ := newTestReceiver(t)

	rc.Fire(testFd, reactor.EventError)
	assert.False(t, rc.Registered(testFd))
	assert.Equal(t, receiver.StateUnregistered, r.RegistrationState())
}

func TestStatsAccounting(t *testing.T) {
	r, ch, _, _, _ := newTestReceiver(t)
	ch.PushEvent(&api.KeyEvent{Seq: 1})
	ch.PushEvent(&api.FocusEvent{Seq: 2})

	_, err := r.ConsumeEvents(false, -1)
	require.NoError(t, err)

	st := r.Stats()
	assert.Equal(t, int64(2), st.Consumed)
	assert.Equal(t, int64(2), st.Dispatched)
	assert.Equal(t, int64(1), st.Finished)
}
