// SPDX-License-Identifier: BSD-3-Clause

package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starlingx/hwmond/internal/bmcmodel"
)

type fakeInventory struct {
	sensors     []bmcmodel.Sensor
	groups      []bmcmodel.Group
	loadErr     error
	groupLoadErr error
	nextUUID    int
	deleted     []string

	// failDeleteSensorUUID makes DeleteSensor fail exactly once for the
	// named uuid, simulating a relearn delete call that fails partway.
	failDeleteSensorUUID string

	groupSensorCalls map[string][]string
}

func (f *fakeInventory) LoadSensors(context.Context, string) ([]bmcmodel.Sensor, error) {
	return f.sensors, f.loadErr
}

func (f *fakeInventory) LoadGroups(context.Context, string) ([]bmcmodel.Group, error) {
	return f.groups, f.groupLoadErr
}

func (f *fakeInventory) AddSensor(_ context.Context, _ string, _ bmcmodel.Sensor) (string, error) {
	f.nextUUID++
	return "sensor-uuid", nil
}

func (f *fakeInventory) AddGroup(_ context.Context, _ string, _ bmcmodel.Group) (string, error) {
	f.nextUUID++
	return "group-uuid", nil
}

func (f *fakeInventory) DeleteSensor(_ context.Context, uuid string) error {
	if f.failDeleteSensorUUID != "" && uuid == f.failDeleteSensorUUID {
		f.failDeleteSensorUUID = ""
		return assert.AnError
	}
	f.deleted = append(f.deleted, uuid)
	return nil
}

func (f *fakeInventory) DeleteGroup(_ context.Context, uuid string) error {
	f.deleted = append(f.deleted, uuid)
	return nil
}

func (f *fakeInventory) GroupSensors(_ context.Context, groupUUID string, sensorUUIDs []string) error {
	if f.groupSensorCalls == nil {
		f.groupSensorCalls = make(map[string][]string)
	}
	f.groupSensorCalls[groupUUID] = sensorUUIDs
	return nil
}

func TestLoadPopulatesHostAndSetsQuantaServer(t *testing.T) {
	qs := QuantaSensors()
	sensors := make([]bmcmodel.Sensor, len(qs))
	for i, q := range qs {
		sensors[i] = q.Sensor
	}
	inv := &fakeInventory{
		sensors: sensors,
	}
	h := bmcmodel.NewHost("compute-0", "host-uuid", bmcmodel.DeploymentDuplex)

	err := Load(context.Background(), inv, h)
	require.NoError(t, err)
	assert.True(t, h.QuantaServer)
	assert.NotZero(t, h.ModelChecksum)
}

func TestLoadProceedsWhenGroupsFail(t *testing.T) {
	inv := &fakeInventory{
		sensors:      []bmcmodel.Sensor{{Name: "Fan1", SensorType: bmcmodel.SensorTypeFan, DataType: bmcmodel.DataTypeAnalog}},
		groupLoadErr: assertErr,
	}
	h := bmcmodel.NewHost("compute-0", "host-uuid", bmcmodel.DeploymentDuplex)

	err := Load(context.Background(), inv, h)
	require.NoError(t, err)
	assert.Len(t, h.Sensors, 1)
}

func TestCreateFromSamplesDerivesGroupsByUnit(t *testing.T) {
	inv := &fakeInventory{}
	h := bmcmodel.NewHost("compute-0", "host-uuid", bmcmodel.DeploymentDuplex)

	samples := []Sample{
		{Name: "Fan1", Unit: "RPM", Type: bmcmodel.DataTypeAnalog},
		{Name: "Temp1", Unit: "degrees", Type: bmcmodel.DataTypeAnalog},
	}

	err := CreateFromSamples(context.Background(), inv, h, samples, false)
	require.NoError(t, err)
	assert.Len(t, h.Sensors, 2)

	g, err := h.GetGroupOfSensor("Fan1")
	require.NoError(t, err)
	assert.Equal(t, "fan_group", g.Name)
}

func TestCreateFromSamplesAbortsOnTooManyEmptyUnits(t *testing.T) {
	inv := &fakeInventory{}
	h := bmcmodel.NewHost("compute-0", "host-uuid", bmcmodel.DeploymentDuplex)

	samples := make([]Sample, MaxSensorTypeErrors+1)
	for i := range samples {
		samples[i] = Sample{Name: "x", Unit: ""}
	}

	err := CreateFromSamples(context.Background(), inv, h, samples, false)
	assert.ErrorIs(t, err, ErrTooManyEmptyUnits)
}

func TestCreateFromSamplesQuantaFastPath(t *testing.T) {
	inv := &fakeInventory{}
	h := bmcmodel.NewHost("compute-0", "host-uuid", bmcmodel.DeploymentDuplex)

	err := CreateFromSamples(context.Background(), inv, h, nil, true)
	require.NoError(t, err)
	assert.True(t, h.QuantaServer)
	assert.Len(t, h.Sensors, len(quantaSensorNames))
}

func TestRelearnPreservesActionsAndDeletesLastToFirst(t *testing.T) {
	inv := &fakeInventory{}
	h := bmcmodel.NewHost("compute-0", "host-uuid", bmcmodel.DeploymentDuplex)
	_, _ = h.AddSensor(bmcmodel.Sensor{Name: "Fan1", UUID: "su1", SensorType: bmcmodel.SensorTypeFan, DataType: bmcmodel.DataTypeAnalog})
	g, _ := h.GetGroupByName("fan_group")
	g.UUID = "gu1"
	g.Actions.Critical = bmcmodel.ActionAlarm

	err := Relearn(context.Background(), inv, h, 12345)
	require.NoError(t, err)
	assert.True(t, h.RelearnMode)
	assert.Empty(t, h.Sensors)
	assert.Equal(t, bmcmodel.ActionAlarm, h.PreservedGroupActions["fan_group"].Critical)
	assert.Contains(t, inv.deleted, "su1")
	assert.Contains(t, inv.deleted, "gu1")
}

func TestRelearnResumesAfterPartialDeleteFailureWithoutReDeleting(t *testing.T) {
	inv := &fakeInventory{failDeleteSensorUUID: "su1"}
	h := bmcmodel.NewHost("compute-0", "host-uuid", bmcmodel.DeploymentDuplex)
	_, _ = h.AddSensor(bmcmodel.Sensor{Name: "Fan1", UUID: "su1", SensorType: bmcmodel.SensorTypeFan, DataType: bmcmodel.DataTypeAnalog, Alarmed: true})
	_, _ = h.AddSensor(bmcmodel.Sensor{Name: "Fan2", UUID: "su2", SensorType: bmcmodel.SensorTypeFan, DataType: bmcmodel.DataTypeAnalog})
	g, _ := h.GetGroupByName("fan_group")
	g.UUID = "gu1"

	err := Relearn(context.Background(), inv, h, 12345)
	require.ErrorIs(t, err, ErrRelearnPending)
	assert.True(t, h.RelearnMode, "RelearnMode must be set before the first delete attempt so a concurrent request sees it in progress")
	assert.Equal(t, 1, h.RelearnRetryCount)
	assert.Equal(t, []string{"su2"}, inv.deleted, "the sensor that deleted successfully must not be retried")
	assert.False(t, h.Sensors[0].Alarmed, "alarm must be cleared even though the delete call for that sensor failed")

	err = Relearn(context.Background(), inv, h, 12345)
	require.NoError(t, err)
	assert.Empty(t, h.Sensors)
	assert.Equal(t, []string{"su2", "su1", "gu1"}, inv.deleted)
	assert.Equal(t, 0, h.RelearnRetryCount)
}

func TestCreateFromSamplesIssuesGroupSensorsRequest(t *testing.T) {
	inv := &fakeInventory{}
	h := bmcmodel.NewHost("compute-0", "host-uuid", bmcmodel.DeploymentDuplex)

	samples := []Sample{
		{Name: "Fan1", Unit: "RPM", Type: bmcmodel.DataTypeAnalog},
	}

	err := CreateFromSamples(context.Background(), inv, h, samples, false)
	require.NoError(t, err)

	_, err = h.GetGroupByName("fan_group")
	require.NoError(t, err)
	assert.Equal(t, []string{"sensor-uuid"}, inv.groupSensorCalls["group-uuid"])
}

func TestRestorePreservedActionsReappliesAfterRecreate(t *testing.T) {
	inv := &fakeInventory{}
	h := bmcmodel.NewHost("compute-0", "host-uuid", bmcmodel.DeploymentDuplex)
	h.PreservedGroupActions = map[string]bmcmodel.SeverityActions{
		"fan_group": {Critical: bmcmodel.ActionReset},
	}

	require.NoError(t, RestorePreservedActions(context.Background(), inv, h))

	g, err := h.GetGroupByName("fan_group")
	require.NoError(t, err)
	assert.Equal(t, bmcmodel.ActionReset, g.Actions.Critical)
}

func TestMaybeExitRelearnLeavesOnlyWhenPopulated(t *testing.T) {
	h := bmcmodel.NewHost("compute-0", "host-uuid", bmcmodel.DeploymentDuplex)
	h.RelearnMode = true

	MaybeExitRelearn(h)
	assert.True(t, h.RelearnMode)

	_, _ = h.AddSensor(bmcmodel.Sensor{Name: "Fan1", SensorType: bmcmodel.SensorTypeFan, DataType: bmcmodel.DataTypeAnalog})
	MaybeExitRelearn(h)
	assert.False(t, h.RelearnMode)
}

var assertErr = errTest("boom")

type errTest string

func (e errTest) Error() string { return string(e) }
