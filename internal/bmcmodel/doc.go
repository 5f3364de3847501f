// SPDX-License-Identifier: BSD-3-Clause

// Package bmcmodel owns the per-host sensor and group tables: the canned
// group catalog, the sensor/group structs and their runtime state, and the
// checksum helpers used for model-drift detection. Nothing in this package
// talks to a BMC, an HTTP API, or a timer; it is pure data plus the lookups
// and mutations described as the Sensor & Group Store in the design.
package bmcmodel
