// SPDX-License-Identifier: BSD-3-Clause

// Package config loads hwmond's recognized options from an ini file and
// exposes them through the same functional-options pattern the rest of
// the codebase's service packages use (see service/sensormon/config.go
// in the teacher tree). No ini library exists anywhere in the retrieval
// pack, so the loader here is hand-rolled (see DESIGN.md).
package config
