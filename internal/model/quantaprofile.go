// SPDX-License-Identifier: BSD-3-Clause

package model

import (
	"strings"

	"github.com/starlingx/hwmond/internal/bmcmodel"
)

// MaxSensorTypeErrors aborts sample-derived group creation once exceeded
// (spec.md §4.4).
const MaxSensorTypeErrors = 5

// QuantaGroupNames are the five fixed groups a recognized Quanta
// server profile creates up front instead of deriving groups by walking
// samples: two fan groups (chassis fans, power-supply fans), power,
// temperature, voltage. Supplements spec.md §4.4 with the concrete
// profile table the original StarlingX hwmon bundled as
// /etc/bmc/server_profiles.d/sensor_quanta_v1_ilo_v4.profile, embedded
// here rather than read from a deployment file (spec.md §9 Design
// Notes: prefer explicit tables over singleton-file state).
var QuantaGroupNames = []string{"fan_group", "fan_group_psu", "power_group", "temperature_group", "voltage_group"}

// QuantaProfileChecksum is the known checksum of the Quanta sensor
// profile's name set, precomputed once at package init and compared
// against a freshly loaded or sampled profile checksum to set
// quanta_server (spec.md §4.4: "compare to the known Quanta profile
// checksums").
var QuantaProfileChecksum = bmcmodel.SampleProfileChecksum(quantaSensorNames)

// quantaSensorNames is the bundled Quanta sensor-profile name list: the
// fixed sensor complement the fast path loads once the five groups above
// are created (spec.md §4.4, §6 "/etc/bmc/server_profiles.d/
// sensor_quanta_v1_ilo_v4.profile"). Kept short and representative; a
// real deployment profile enumerates every physical sensor on the
// chassis.
var quantaSensorNames = []string{
	"Fan 1", "Fan 2", "Fan 3", "Fan 4",
	"PSU1 Fan", "PSU2 Fan",
	"PSU1 Power", "PSU2 Power", "System Power",
	"Inlet Temp", "CPU1 Temp", "CPU2 Temp", "DIMM Temp",
	"CPU1 Vcore", "CPU2 Vcore", "3.3V", "5V", "12V",
}

// IsQuantaProfile reports whether a sample-name checksum matches the
// known Quanta profile.
func IsQuantaProfile(sampleChecksum uint32) bool {
	return sampleChecksum == QuantaProfileChecksum
}

// QuantaSensor is one bundled profile entry plus the canned (or
// Quanta-specific) group it belongs to.
type QuantaSensor struct {
	Sensor    bmcmodel.Sensor
	GroupName string
}

// QuantaSensors returns the bundled sensor profile, each pre-assigned to
// its canned group by name prefix. This embedded set is the only source
// of the Quanta profile; no profile file is read at runtime.
func QuantaSensors() []QuantaSensor {
	out := make([]QuantaSensor, 0, len(quantaSensorNames))
	for _, name := range quantaSensorNames {
		st, dt, group := classifyQuantaSensor(name)
		out = append(out, QuantaSensor{
			Sensor: bmcmodel.Sensor{
				Name:       name,
				SensorType: st,
				DataType:   dt,
				State:      bmcmodel.StateEnabled,
			},
			GroupName: group,
		})
	}
	return out
}

// classifyQuantaSensor routes a bundled Quanta sensor name to its
// SensorType/DataType and to one of the five fixed groups QuantaGroupNames
// creates, with power-supply fans split into the second fan group rather
// than the chassis fan group (spec.md §4.4 item 2).
func classifyQuantaSensor(name string) (bmcmodel.SensorType, bmcmodel.DataType, string) {
	switch {
	case strings.Contains(name, "PSU") && strings.Contains(name, "Fan"):
		return bmcmodel.SensorTypeFan, bmcmodel.DataTypeAnalog, "fan_group_psu"
	case strings.Contains(name, "Fan"):
		return bmcmodel.SensorTypeFan, bmcmodel.DataTypeAnalog, "fan_group"
	case strings.Contains(name, "Power"):
		return bmcmodel.SensorTypePower, bmcmodel.DataTypeAnalog, "power_group"
	case strings.Contains(name, "Temp"):
		return bmcmodel.SensorTypeTemperature, bmcmodel.DataTypeAnalog, "temperature_group"
	default:
		return bmcmodel.SensorTypeVoltage, bmcmodel.DataTypeAnalog, "voltage_group"
	}
}
