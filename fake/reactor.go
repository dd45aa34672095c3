// File: fake/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Recording Reactor double with manual readiness injection.

package fake

import (
	"fmt"

	"github.com/momentics/hioload-input/reactor"
)

type registration struct {
	events reactor.FDEventType
	cb     reactor.FDCallback
}

// Reactor is a fake reactor.Reactor. Readiness is injected manually with
// Fire, making dispatch fully deterministic in tests.
type Reactor struct {
	regs map[uintptr]*registration

	Registers   int
	Modifies    int
	Unregisters int
}

// NewReactor creates a fake reactor.
func NewReactor() *Reactor {
	return &Reactor{regs: make(map[uintptr]*registration)}
}

// Register implements reactor.Reactor.
func (r *Reactor) Register(fd uintptr, events reactor.FDEventType, cb reactor.FDCallback) error {
	if _, ok := r.regs[fd]; ok {
		return fmt.Errorf("fd %d already registered", fd)
	}
	r.regs[fd] = &registration{events: events, cb: cb}
	r.Registers++
	return nil
}

// Modify implements reactor.Reactor.
func (r *Reactor) Modify(fd uintptr, events reactor.FDEventType) error {
	reg, ok := r.regs[fd]
	if !ok {
		return fmt.Errorf("fd %d not registered", fd)
	}
	reg.events = events
	r.Modifies++
	return nil
}

// Unregister implements reactor.Reactor.
func (r *Reactor) Unregister(fd uintptr) error {
	if _, ok := r.regs[fd]; !ok {
		return fmt.Errorf("fd %d not registered", fd)
	}
	delete(r.regs, fd)
	r.Unregisters++
	return nil
}

// Poll is a no-op; use Fire to inject readiness.
func (r *Reactor) Poll(int) error { return nil }

// Close implements reactor.Reactor.
func (r *Reactor) Close() error { return nil }

// Registered reports whether fd is currently registered.
func (r *Reactor) Registered(fd uintptr) bool {
	_, ok := r.regs[fd]
	return ok
}

// Interest returns the current interest set for fd, or zero.
func (r *Reactor) Interest(fd uintptr) reactor.FDEventType {
	if reg, ok := r.regs[fd]; ok {
		return reg.events
	}
	return 0
}

// Fire invokes the callback registered for fd if its interest overlaps the
// given readiness. Error readiness is always delivered.
func (r *Reactor) Fire(fd uintptr, events reactor.FDEventType) {
	reg, ok := r.regs[fd]
	if !ok {
		return
	}
	if events&reactor.EventError == 0 && reg.events&events == 0 {
		return
	}
	reg.cb(fd, events)
}
