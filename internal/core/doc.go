// SPDX-License-Identifier: BSD-3-Clause

// Package core wires the sensor/group store, BMC worker, monitor FSM,
// model lifecycle, severity engine, HTTP work/done queue, and host
// registry (C1-C7) together with the transport layer into a single
// process-wide CoreState, replacing the anti-pattern of a globally
// addressable singleton class (spec.md §9 Design Notes) with one struct
// built once in cmd/hwmond and passed down explicitly.
package core
