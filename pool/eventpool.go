// File: pool/eventpool.go
// Package pool
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import (
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-input/api"
)

// EventPool implements api.EventPool with one free list per event kind.
// It is safe for concurrent use; channel implementations may share it.
type EventPool struct {
	keys    sync.Pool
	motions sync.Pool
	focuses sync.Pool

	obtained atomic.Int64
	recycled atomic.Int64
}

// New creates an EventPool.
func New() *EventPool {
	return &EventPool{
		keys:    sync.Pool{New: func() any { return new(api.KeyEvent) }},
		motions: sync.Pool{New: func() any { return new(api.MotionEvent) }},
		focuses: sync.Pool{New: func() any { return new(api.FocusEvent) }},
	}
}

// ObtainKey returns a zeroed key event.
func (p *EventPool) ObtainKey() *api.KeyEvent {
	p.obtained.Add(1)
	return p.keys.Get().(*api.KeyEvent)
}

// ObtainMotion returns a zeroed motion event.
func (p *EventPool) ObtainMotion() *api.MotionEvent {
	p.obtained.Add(1)
	return p.motions.Get().(*api.MotionEvent)
}

// ObtainFocus returns a zeroed focus event.
func (p *EventPool) ObtainFocus() *api.FocusEvent {
	p.obtained.Add(1)
	return p.focuses.Get().(*api.FocusEvent)
}

// Recycle resets the event and returns it to its kind's free list.
func (p *EventPool) Recycle(ev api.InputEvent) {
	if ev == nil {
		return
	}
	ev.Reset()
	p.recycled.Add(1)
	switch e := ev.(type) {
	case *api.KeyEvent:
		p.keys.Put(e)
	case *api.MotionEvent:
		p.motions.Put(e)
	case *api.FocusEvent:
		p.focuses.Put(e)
	}
}

// Stats aggregates pool accounting.
type Stats struct {
	Obtained int64
	Recycled int64
	Live     int64
}

// Stats exposes obtain/recycle accounting for observability.
func (p *EventPool) Stats() Stats {
	obtained := p.obtained.Load()
	recycled := p.recycled.Load()
	return Stats{
		Obtained: obtained,
		Recycled: recycled,
		Live:     obtained - recycled,
	}
}
