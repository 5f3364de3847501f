// SPDX-License-Identifier: BSD-3-Clause

// Package severity implements the Severity-Action Engine: it derives a
// sensor's effective severity from a raw BMC status token, debounces
// missed updates, and walks the action-policy and action-change
// transition tables to decide what alarms, degrade signals, and
// maintenance-recovery events a tick produces. Nothing in this package
// performs I/O; callers drain the returned Effects.
package severity
