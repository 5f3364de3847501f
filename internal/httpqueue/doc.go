// SPDX-License-Identifier: BSD-3-Clause

// Package httpqueue implements the per-host HTTP work/done queue (C6):
// a request FSM (Transmit, ReceiveWait, Receive, RetryWait, Failure)
// driving calls to the inventory/orchestration API, with overload
// protection, watermark logging, and a blocking mode that synchronously
// drains one request within the caller's tick instead of queuing it.
package httpqueue
