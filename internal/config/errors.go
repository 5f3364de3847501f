// SPDX-License-Identifier: BSD-3-Clause

package config

import "errors"

var (
	ErrInvalidConfiguration = errors.New("config: invalid configuration")
	ErrMalformedLine        = errors.New("config: malformed ini line")
)
