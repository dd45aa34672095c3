// Package pool
// Author: momentics <momentics@gmail.com>
//
// Reusable storage for decoded input events. Free lists are keyed by event
// kind so the consume hot path allocates nothing in steady state.
package pool
