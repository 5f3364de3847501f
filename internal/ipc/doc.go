// SPDX-License-Identifier: BSD-3-Clause

// Package ipc embeds a NATS server for in-process publish/subscribe,
// adapted from the teacher's service/ipc. hwmond uses one subject space
// to carry the Severity-Action Engine's (C5) effects to the UDP event
// outbox, so the outbox is not called directly out of the monitor FSM's
// Handle stage. The HTTP work queue (C6) is not fed from the bus: the
// Update stage calls it directly through monitor.GroupSync.
package ipc
