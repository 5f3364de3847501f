// SPDX-License-Identifier: BSD-3-Clause

// Package bmcworker runs one-shot ipmitool invocations against a host's
// BMC: power status and sensor read. Every launch is killable via the
// context passed to Run, and every error is scrubbed of the credential
// file path before it reaches a log line.
package bmcworker
