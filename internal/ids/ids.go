// SPDX-License-Identifier: BSD-3-Clause

// Package ids wraps UUID generation for sensors, groups, and hosts.
package ids

import "github.com/google/uuid"

// New returns a new random UUID as a string.
func New() string {
	return uuid.NewString()
}

// Valid reports whether s parses as a UUID.
func Valid(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
