// SPDX-License-Identifier: BSD-3-Clause

// Package udpcmd implements the two UDP wire contracts in spec.md §6:
// the text-framed command inbox (ADD_HOST, MOD_HOST, DEL_HOST,
// START_MONITOR, STOP_MONITOR, QUERY_HOST) and the event outbox that
// emits degrade, alarm, and recovery-request events to the maintenance
// agent.
package udpcmd
