// File: receiver/finishqueue.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package receiver

import "github.com/eapache/queue"

// finishRecord is one pending acknowledgment: exactly one is produced per
// consumed event, queued only when an immediate send would block.
type finishRecord struct {
	seq     uint32
	handled bool
}

// finishQueue is the FIFO of acknowledgments awaiting write readiness.
// Drain order matters: the producer recycles per-event resources in the
// order events were consumed.
type finishQueue struct {
	q *queue.Queue
}

func newFinishQueue() *finishQueue {
	return &finishQueue{q: queue.New()}
}

func (f *finishQueue) push(rec finishRecord) {
	f.q.Add(rec)
}

func (f *finishQueue) peek() finishRecord {
	return f.q.Peek().(finishRecord)
}

func (f *finishQueue) pop() finishRecord {
	return f.q.Remove().(finishRecord)
}

func (f *finishQueue) len() int {
	return f.q.Length()
}

// clear discards all queued records and returns how many were dropped.
func (f *finishQueue) clear() int {
	n := f.q.Length()
	for f.q.Length() > 0 {
		f.q.Remove()
	}
	return n
}
