// SPDX-License-Identifier: BSD-3-Clause

package bmcmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSensorProfileChecksumStableForSameProfile(t *testing.T) {
	sensors := []Sensor{
		{Name: "Fan1", SensorType: SensorTypeFan, DataType: DataTypeAnalog, GroupID: 0},
		{Name: "Temp1", SensorType: SensorTypeTemperature, DataType: DataTypeAnalog, GroupID: 1},
	}

	c1 := SensorProfileChecksum(sensors)
	c2 := SensorProfileChecksum(sensors)

	assert.Equal(t, c1, c2)
	assert.NotEqual(t, ChecksumUnset, c1)
}

func TestSensorProfileChecksumChangesWhenSensorAdded(t *testing.T) {
	base := []Sensor{{Name: "Fan1", SensorType: SensorTypeFan, DataType: DataTypeAnalog}}
	grown := []Sensor{
		{Name: "Fan1", SensorType: SensorTypeFan, DataType: DataTypeAnalog},
		{Name: "Fan2", SensorType: SensorTypeFan, DataType: DataTypeAnalog},
	}

	assert.NotEqual(t, SensorProfileChecksum(base), SensorProfileChecksum(grown))
}

func TestSensorProfileChecksumIgnoresThresholds(t *testing.T) {
	a := []Sensor{{Name: "Fan1", SensorType: SensorTypeFan, DataType: DataTypeAnalog,
		Thresholds: Thresholds{UpperCritical: 9000}}}
	b := []Sensor{{Name: "Fan1", SensorType: SensorTypeFan, DataType: DataTypeAnalog,
		Thresholds: Thresholds{UpperCritical: 12000}}}

	assert.Equal(t, SensorProfileChecksum(a), SensorProfileChecksum(b))
}

func TestSampleProfileChecksumOrderSensitive(t *testing.T) {
	a := SampleProfileChecksum([]string{"Fan1", "Fan2"})
	b := SampleProfileChecksum([]string{"Fan2", "Fan1"})
	assert.NotEqual(t, a, b)
}

func TestSampleProfileChecksumNeverZero(t *testing.T) {
	c := SampleProfileChecksum(nil)
	assert.NotEqual(t, ChecksumUnset, c)
}
