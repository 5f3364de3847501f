// SPDX-License-Identifier: BSD-3-Clause

package bmcmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddSensorRoutesToCannedGroup(t *testing.T) {
	h := NewHost("compute-0", "host-uuid-1", DeploymentDuplex)

	id, err := h.AddSensor(Sensor{
		Name:       "Fan1",
		SensorType: SensorTypeFan,
		DataType:   DataTypeAnalog,
	})
	require.NoError(t, err)

	got, err := h.GetSensorByID(id)
	require.NoError(t, err)
	assert.Equal(t, "Fan1", got.Name)

	g, err := h.GetGroupOfSensor("Fan1")
	require.NoError(t, err)
	assert.Equal(t, "fan_group", g.Name)
}

func TestAddSensorDiscreteRedirectsToNullGroup(t *testing.T) {
	h := NewHost("compute-0", "host-uuid-1", DeploymentDuplex)

	_, err := h.AddSensor(Sensor{
		Name:       "Fan1_status",
		SensorType: SensorTypeFan,
		DataType:   DataTypeDiscrete,
	})
	require.NoError(t, err)

	g, err := h.GetGroupOfSensor("Fan1_status")
	require.NoError(t, err)
	assert.Equal(t, NullGroupName, g.Name)
}

func TestAddSensorUsageDiscreteStaysInUsageGroup(t *testing.T) {
	h := NewHost("compute-0", "host-uuid-1", DeploymentDuplex)

	_, err := h.AddSensor(Sensor{
		Name:       "cpu_usage",
		SensorType: SensorTypeUsage,
		DataType:   DataTypeDiscrete,
	})
	require.NoError(t, err)

	g, err := h.GetGroupOfSensor("cpu_usage")
	require.NoError(t, err)
	assert.Equal(t, "usage_group", g.Name)
}

func TestAddSensorTableFull(t *testing.T) {
	h := NewHost("compute-0", "host-uuid-1", DeploymentDuplex)
	for i := 0; i < MaxSensorsPerHost; i++ {
		_, err := h.AddSensor(Sensor{
			Name:       fmtSensorName(i),
			SensorType: SensorTypeTemperature,
			DataType:   DataTypeAnalog,
		})
		require.NoError(t, err)
	}

	_, err := h.AddSensor(Sensor{Name: "overflow", SensorType: SensorTypeTemperature, DataType: DataTypeAnalog})
	assert.ErrorIs(t, err, ErrSensorTableFull)
}

func TestAddSensorRejectsEmptyName(t *testing.T) {
	h := NewHost("compute-0", "host-uuid-1", DeploymentDuplex)
	_, err := h.AddSensor(Sensor{SensorType: SensorTypeFan, DataType: DataTypeAnalog})
	assert.ErrorIs(t, err, ErrInvalidSensorName)
}

func TestAddSensorIsIdempotentByName(t *testing.T) {
	h := NewHost("compute-0", "host-uuid-1", DeploymentDuplex)
	id1, err := h.AddSensor(Sensor{Name: "Fan1", SensorType: SensorTypeFan, DataType: DataTypeAnalog})
	require.NoError(t, err)
	id2, err := h.AddSensor(Sensor{Name: "Fan1", SensorType: SensorTypeFan, DataType: DataTypeAnalog})
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
	assert.Len(t, h.Sensors, 1)
}

func TestAddSensorOverwritesStoredAttributesByName(t *testing.T) {
	h := NewHost("compute-0", "host-uuid-1", DeploymentDuplex)
	_, err := h.AddSensor(Sensor{Name: "Fan1", SensorType: SensorTypeFan, DataType: DataTypeAnalog})
	require.NoError(t, err)

	_, err = h.AddSensor(Sensor{
		Name: "Fan1", UUID: "su-new",
		SensorType: SensorTypeFan, DataType: DataTypeAnalog,
		Thresholds: Thresholds{UpperCritical: 9000},
	})
	require.NoError(t, err)

	s, err := h.GetSensor("Fan1")
	require.NoError(t, err)
	assert.Equal(t, "su-new", s.UUID)
	assert.Equal(t, 9000.0, s.Thresholds.UpperCritical)
	assert.Len(t, h.Sensors, 1)
}

func TestAddGroupOverwriteAdoptsLoadedIdentity(t *testing.T) {
	h := NewHost("compute-0", "host-uuid-1", DeploymentDuplex)

	id, err := h.AddGroup(Group{Name: "fan_group", UUID: "gu-1", Actions: SeverityActions{Critical: ActionAlarm}})
	require.NoError(t, err)

	g := &h.Groups[id]
	assert.Equal(t, "gu-1", g.UUID)
	assert.Equal(t, ActionAlarm, g.Actions.Critical)
	assert.Equal(t, SensorTypeFan, g.SensorType, "the canned entry's taxonomy survives the overwrite")
}

func TestGroupSensorsReturnsAddOrder(t *testing.T) {
	h := NewHost("compute-0", "host-uuid-1", DeploymentDuplex)
	_, _ = h.AddSensor(Sensor{Name: "Fan1", SensorType: SensorTypeFan, DataType: DataTypeAnalog})
	_, _ = h.AddSensor(Sensor{Name: "Fan2", SensorType: SensorTypeFan, DataType: DataTypeAnalog})

	sensors, err := h.GroupSensors("fan_group")
	require.NoError(t, err)
	require.Len(t, sensors, 2)
	assert.Equal(t, "Fan1", sensors[0].Name)
	assert.Equal(t, "Fan2", sensors[1].Name)
}

func TestGetSensorNotFound(t *testing.T) {
	h := NewHost("compute-0", "host-uuid-1", DeploymentDuplex)
	_, err := h.GetSensor("nope")
	assert.ErrorIs(t, err, ErrSensorNotFound)
}

func TestHostResetClearsModelChecksum(t *testing.T) {
	h := NewHost("compute-0", "host-uuid-1", DeploymentDuplex)
	_, _ = h.AddSensor(Sensor{Name: "Fan1", SensorType: SensorTypeFan, DataType: DataTypeAnalog})
	h.ModelChecksum = 42

	h.Reset()

	assert.Empty(t, h.Sensors)
	assert.Equal(t, ChecksumUnset, h.ModelChecksum)
	_, err := h.GetGroupByName("fan_group")
	assert.NoError(t, err)
}

func TestSensorSyncAlarmedDetectsConflict(t *testing.T) {
	s := &Sensor{}
	s.Actions.MinorState.Alarmed = true
	s.Actions.MajorState.Alarmed = true

	conflict := s.SyncAlarmed()

	assert.True(t, conflict)
	assert.False(t, s.Alarmed)
}

func TestSensorSyncAlarmedSingleTierHolds(t *testing.T) {
	s := &Sensor{}
	s.Actions.CriticalState.Alarmed = true

	conflict := s.SyncAlarmed()

	assert.False(t, conflict)
	assert.True(t, s.Alarmed)
}

func TestSeverityEffectiveMapsNonRecoverableToCritical(t *testing.T) {
	assert.Equal(t, SeverityCritical, SeverityNonRecoverable.Effective())
	assert.Equal(t, SeverityMinor, SeverityMinor.Effective())
}

func fmtSensorName(i int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	b := []byte{letters[i%26], letters[(i/26)%26], letters[(i/676)%26]}
	return string(b)
}
