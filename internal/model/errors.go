// SPDX-License-Identifier: BSD-3-Clause

package model

import "errors"

var (
	// ErrTooManyEmptyUnits aborts sample-derived group creation once more
	// than MaxSensorTypeErrors samples carried an empty unit.
	ErrTooManyEmptyUnits = errors.New("too many samples with empty unit")
	// ErrQuantaGroupCountMismatch indicates the Quanta fast path created
	// some but not all of the five fixed Quanta groups.
	ErrQuantaGroupCountMismatch = errors.New("quanta profile group count mismatch")
	// ErrRelearnPending indicates a relearn delete call failed and the
	// caller should retry with back-off rather than proceed to Create.
	ErrRelearnPending = errors.New("relearn delete pending retry")
)
