// SPDX-License-Identifier: BSD-3-Clause

package model

import (
	"context"

	"github.com/starlingx/hwmond/internal/bmcmodel"
)

// Inventory is the subset of the inventory/orchestration HTTP client
// (spec.md §6) the model lifecycle needs. Implemented by invapi.Client;
// expressed as an interface here so Load/CreateFromSamples/Relearn are
// unit-testable without a real HTTP round trip.
type Inventory interface {
	LoadSensors(ctx context.Context, hostUUID string) ([]bmcmodel.Sensor, error)
	LoadGroups(ctx context.Context, hostUUID string) ([]bmcmodel.Group, error)
	AddSensor(ctx context.Context, hostUUID string, s bmcmodel.Sensor) (uuid string, err error)
	AddGroup(ctx context.Context, hostUUID string, g bmcmodel.Group) (uuid string, err error)
	DeleteSensor(ctx context.Context, uuid string) error
	DeleteGroup(ctx context.Context, uuid string) error
	GroupSensors(ctx context.Context, groupUUID string, sensorUUIDs []string) error
}
