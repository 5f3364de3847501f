// SPDX-License-Identifier: BSD-3-Clause

package core

import "errors"

var (
	ErrUnknownHost        = errors.New("core: unknown host")
	ErrMonitorRunning     = errors.New("core: monitor already running for host")
	ErrInvalidBMCTuple    = errors.New("core: invalid bmc address/username")
	ErrTokenRefreshFailed = errors.New("core: token refresh failed")
	ErrEmptyHostname      = errors.New("core: hostname required")
	ErrReservedHostname   = errors.New("core: hostname 'None' is reserved")
)
