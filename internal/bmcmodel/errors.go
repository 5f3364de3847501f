// SPDX-License-Identifier: BSD-3-Clause

package bmcmodel

import "errors"

var (
	// ErrSensorTableFull indicates a host has reached MaxSensorsPerHost.
	ErrSensorTableFull = errors.New("sensor table full")
	// ErrGroupTableFull indicates a host has reached MaxGroupsPerHost.
	ErrGroupTableFull = errors.New("group table full")
	// ErrSensorNotFound indicates no sensor matches the requested name or path.
	ErrSensorNotFound = errors.New("sensor not found")
	// ErrGroupNotFound indicates no group matches the requested name.
	ErrGroupNotFound = errors.New("group not found")
	// ErrInvalidSensorName indicates an empty or reserved sensor name.
	ErrInvalidSensorName = errors.New("invalid sensor name")
	// ErrInvalidGroupName indicates an empty or reserved group name.
	ErrInvalidGroupName = errors.New("invalid group name")
)
