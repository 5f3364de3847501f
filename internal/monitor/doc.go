// SPDX-License-Identifier: BSD-3-Clause

// Package monitor implements the per-host Monitor FSM: it drives a BMC
// worker through power-status and sensor-read cycles, hands parsed
// samples to the sensor store, and invokes the Severity-Action Engine.
// One Monitor exists per host the registry is actively watching; stages
// advance only when Run is called, which the core's per-host goroutine
// does in a loop.
package monitor
