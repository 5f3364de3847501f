// SPDX-License-Identifier: BSD-3-Clause

package ipc

import "errors"

var (
	ErrServerCreationFailed = errors.New("ipc: nats server creation failed")
	ErrServerNotReady       = errors.New("ipc: nats server did not become ready")
)
