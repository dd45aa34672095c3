// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package api defines the contracts between the input event consumption
// engine and its collaborators: the event channel, the readiness reactor,
// the client callback surface, and the event pool.
package api
