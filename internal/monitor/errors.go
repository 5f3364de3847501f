// SPDX-License-Identifier: BSD-3-Clause

package monitor

import "errors"

var (
	// ErrUmbrellaTimeout indicates the worker did not report done before
	// the outer umbrella timer expired.
	ErrUmbrellaTimeout = errors.New("umbrella timeout waiting for worker")
	// ErrWorkerBusy indicates Read or Delay found a worker still running
	// when the stage expected it idle.
	ErrWorkerBusy = errors.New("worker still running")
	// ErrEmptySampleSet indicates Check saw zero samples (FAIL_INVALID_DATA).
	ErrEmptySampleSet = errors.New("empty sample set")
	// ErrTooManyEmptyUnits indicates model creation aborted after more
	// than MaxSensorTypeErrors samples carried an empty unit.
	ErrTooManyEmptyUnits = errors.New("too many samples with empty unit")
)
