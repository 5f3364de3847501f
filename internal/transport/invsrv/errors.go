// SPDX-License-Identifier: BSD-3-Clause

package invsrv

import "errors"

var (
	ErrWrongUserAgent    = errors.New("invsrv: request did not carry sysinv/1.0 user agent")
	ErrUnknownResource   = errors.New("invsrv: unrecognized resource path")
	ErrRelearnInProgress = errors.New("invsrv: relearn already in progress")
	// ErrNotFound is the sentinel Handlers implementations wrap their own
	// lookup-miss errors in, so the server can map them onto 404 without
	// importing the core package's own error types (spec.md §6: documented
	// 400/403/404/409/411 mappings).
	ErrNotFound = errors.New("invsrv: resource not found")
	// ErrLengthRequired is returned by the server itself for a PATCH/POST
	// whose Content-Length is unknown (spec.md §6: 411 mapping).
	ErrLengthRequired = errors.New("invsrv: content-length required")
)
