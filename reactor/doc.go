// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides a poll-mode readiness reactor with per-descriptor
// callbacks and runtime interest modification, backed by epoll on Linux.
package reactor
