// SPDX-License-Identifier: BSD-3-Clause

package registry

import "errors"

var (
	// ErrRetry indicates ADD on an already-registered hostname; the
	// caller should convert the call to Modify.
	ErrRetry = errors.New("host already registered, retry as modify")
	// ErrHostNotFound indicates no host matches the given hostname/uuid.
	ErrHostNotFound = errors.New("host not found")
	// ErrInvalidBMCTuple indicates an invalid ip, bm_type, or a missing/
	// literal-"None" username, so reprovisioning is skipped.
	ErrInvalidBMCTuple = errors.New("invalid bmc tuple")
	// ErrDeleteInProgress indicates a second delete was requested for a
	// host whose delete FSM is already running.
	ErrDeleteInProgress = errors.New("delete already in progress")
)
