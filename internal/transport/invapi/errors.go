// SPDX-License-Identifier: BSD-3-Clause

package invapi

import "errors"

var (
	// ErrUnauthorized maps an HTTP 401 response.
	ErrUnauthorized = errors.New("inventory: unauthorized")
	// ErrNotFound maps an HTTP 404 response.
	ErrNotFound = errors.New("inventory: not found")
	// ErrConflict maps an HTTP 409 response.
	ErrConflict = errors.New("inventory: conflict")
	// ErrLengthRequired maps an HTTP 411 response.
	ErrLengthRequired = errors.New("inventory: length required")
	// ErrConnectionLoss maps a zero/no-response status.
	ErrConnectionLoss = errors.New("inventory: connection loss")
	// ErrUnexpectedStatus covers any other non-2xx response.
	ErrUnexpectedStatus = errors.New("inventory: unexpected status")
)

// ClassifyStatus maps an HTTP status code onto the abstract HttpStatus
// error kinds spec.md §7 enumerates.
func ClassifyStatus(status int) error {
	switch status {
	case 0:
		return ErrConnectionLoss
	case 200, 201, 202, 204:
		return nil
	case 401:
		return ErrUnauthorized
	case 404:
		return ErrNotFound
	case 409:
		return ErrConflict
	case 411:
		return ErrLengthRequired
	default:
		return ErrUnexpectedStatus
	}
}
