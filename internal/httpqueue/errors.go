// SPDX-License-Identifier: BSD-3-Clause

package httpqueue

import "errors"

var (
	// ErrOverloaded indicates work_fifo exceeded its size cap and was
	// purged; the attempted enqueue is rejected.
	ErrOverloaded = errors.New("work queue overloaded")
	// ErrUnauthorized surfaces an HTTP 401 after the transparent
	// token-refresh retry also failed.
	ErrUnauthorized = errors.New("unauthorized after token refresh retry")
	ErrRequestFailed = errors.New("request failed after retries exhausted")
)
