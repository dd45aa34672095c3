// File: receiver/options.go
// Package receiver defines functional options for the Receiver.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package receiver

import (
	"github.com/rs/zerolog"

	"github.com/momentics/hioload-input/api"
)

// Option customizes receiver initialization.
type Option func(*Receiver)

// WithLogger attaches a structured logger. The channel name is added as a
// field on every line. Defaults to a no-op logger.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Receiver) {
		r.log = log
	}
}

// WithEventPool overrides the default event pool, allowing the owner to
// share one pool across several channels.
func WithEventPool(p api.EventPool) Option {
	return func(r *Receiver) {
		r.events = p
	}
}
