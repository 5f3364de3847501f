// SPDX-License-Identifier: BSD-3-Clause

// Package invsrv is the inbound inventory/orchestration HTTP listener
// (spec.md §6): it accepts sensor/group modify and relearn requests from
// sysinv, bound to loopback, and rejects anything not carrying a
// sysinv/1.0 User-Agent.
package invsrv
