// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

// Package fake provides scriptable test doubles for the channel, reactor
// and client contracts.
package fake
