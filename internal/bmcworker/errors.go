// SPDX-License-Identifier: BSD-3-Clause

package bmcworker

import "errors"

var (
	// ErrWorkerFailed indicates ipmitool exited non-zero or produced
	// stdout that did not parse as the expected envelope.
	ErrWorkerFailed = errors.New("bmc worker failed")
	// ErrMissingEnvelopeHeader indicates the JSON envelope lacked the
	// fixed header label the command expects.
	ErrMissingEnvelopeHeader = errors.New("missing envelope header")
	// ErrKilled indicates the worker's context was canceled before
	// ipmitool exited.
	ErrKilled = errors.New("bmc worker killed")
	// ErrAlreadyRunning indicates a second worker was launched for a
	// host that already has one in flight.
	ErrAlreadyRunning = errors.New("bmc worker already running for host")
)
