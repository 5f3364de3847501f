// SPDX-License-Identifier: BSD-3-Clause

package severity

import "errors"

var (
	// ErrBadState indicates an action not legal for the given severity
	// tier reached the engine (e.g. reset configured for Minor).
	ErrBadState = errors.New("invalid action for severity")
	// ErrInternalLogic indicates the engine derived conflicting assert
	// and clear outcomes for the same signal in one pass.
	ErrInternalLogic = errors.New("conflicting severity derivation")
)
