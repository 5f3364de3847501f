// SPDX-License-Identifier: BSD-3-Clause

package model

import (
	"context"
	"fmt"

	"github.com/starlingx/hwmond/internal/bmcmodel"
)

// Load requests the stored sensor and group lists from inventory and
// populates the host's model (spec.md §4.4 item 1). Any prior in-memory
// state is wiped first. If groups fail to load the sensors that did load
// are still grouped via GroupSensors. If both loaded, the model checksum
// is computed and compared against the known Quanta profile to set
// QuantaServer.
func Load(ctx context.Context, inv Inventory, h *bmcmodel.Host) error {
	h.Reset()

	sensors, sErr := inv.LoadSensors(ctx, h.UUID)
	if sErr != nil {
		return fmt.Errorf("model: load sensors: %w", sErr)
	}

	groups, gErr := inv.LoadGroups(ctx, h.UUID)
	for _, g := range groups {
		if _, err := h.AddGroup(g); err != nil {
			return fmt.Errorf("model: add loaded group %q: %w", g.Name, err)
		}
	}
	for _, s := range sensors {
		if _, err := h.AddSensor(s); err != nil {
			return fmt.Errorf("model: add loaded sensor %q: %w", s.Name, err)
		}
	}

	if err := GroupSensors(ctx, inv, h); err != nil {
		return fmt.Errorf("model: group sensors: %w", err)
	}

	if len(h.Sensors) > 0 && len(h.Groups) > 0 && gErr == nil {
		h.ModelChecksum = bmcmodel.SensorProfileChecksum(h.Sensors)
		h.QuantaServer = IsQuantaProfile(bmcmodel.SampleProfileChecksum(sensorNames(h.Sensors)))
	}

	return nil
}

// GroupSensors propagates each group's per-severity configured actions
// onto its member sensors as defaults, then issues the inventory grouping
// request for every group that has members and a known uuid (spec.md
// §4.3: "emit a grouping request" PATCHing isensorgroups' /sensors path
// with the member uuid list). Sensors whose group carries no action at
// all for a tier keep their own configured action unchanged.
func GroupSensors(ctx context.Context, inv Inventory, h *bmcmodel.Host) error {
	for gi := range h.Groups {
		g := &h.Groups[gi]
		if len(g.Sensors) == 0 {
			continue
		}
		sensorUUIDs := make([]string, 0, len(g.Sensors))
		for _, sid := range g.Sensors {
			s := &h.Sensors[sid]
			if s.Actions.Minor == "" {
				s.Actions.Minor = g.Actions.Minor
			}
			if s.Actions.Major == "" {
				s.Actions.Major = g.Actions.Major
			}
			if s.Actions.Critical == "" {
				s.Actions.Critical = g.Actions.Critical
			}
			if s.UUID != "" {
				sensorUUIDs = append(sensorUUIDs, s.UUID)
			}
		}
		if g.UUID == "" || len(sensorUUIDs) == 0 {
			continue
		}
		if err := inv.GroupSensors(ctx, g.UUID, sensorUUIDs); err != nil {
			return fmt.Errorf("group %q: %w", g.Name, err)
		}
	}
	return nil
}

// CreateFromSamples derives a model from live BMC samples when a host's
// sensor table is empty (spec.md §4.4 item 2). If quantaKnown is true
// (the sample-name checksum already matched the Quanta profile), the
// fixed Quanta group set is created and its bundled sensor profile
// loaded instead of deriving groups sample by sample.
func CreateFromSamples(ctx context.Context, inv Inventory, h *bmcmodel.Host, samples []Sample, quantaKnown bool) error {
	var err error
	if quantaKnown {
		err = createQuanta(ctx, inv, h)
	} else {
		err = createFromSampleUnits(ctx, inv, h, samples)
	}
	if err != nil {
		return err
	}
	h.ModelChecksum = bmcmodel.SensorProfileChecksum(h.Sensors)
	return nil
}

// Sample is the minimal shape CreateFromSamples needs from a BMC sensor
// reading: name, unit, and sampled data type.
type Sample struct {
	Name string
	Unit string
	Type bmcmodel.DataType
}

func createQuanta(ctx context.Context, inv Inventory, h *bmcmodel.Host) error {
	created := 0
	for _, name := range QuantaGroupNames {
		g, err := h.GetGroupByName(name)
		if err != nil {
			// fan_group_psu is Quanta-specific and absent from the
			// canned catalog every host is seeded with.
			if _, aerr := h.AddGroup(bmcmodel.Group{
				Name:       name,
				GroupEnum:  bmcmodel.SensorTypeFan,
				SensorType: bmcmodel.SensorTypeFan,
				DataType:   bmcmodel.DataTypeAnalog,
				GroupState: bmcmodel.GroupStateEnabled,
			}); aerr != nil {
				return fmt.Errorf("model: register quanta group %q: %w", name, aerr)
			}
			g, _ = h.GetGroupByName(name)
		}
		if g.UUID != "" {
			continue
		}
		uuid, err := inv.AddGroup(ctx, h.UUID, *g)
		if err != nil {
			return fmt.Errorf("model: create quanta group %q: %w", name, err)
		}
		g.UUID = uuid
		g.GroupState = bmcmodel.GroupStateEnabled
		created++
	}
	if created != len(QuantaGroupNames) && created != 0 {
		return fmt.Errorf("%w: created %d want %d", ErrQuantaGroupCountMismatch, created, len(QuantaGroupNames))
	}

	for _, qs := range QuantaSensors() {
		s := qs.Sensor
		uuid, err := inv.AddSensor(ctx, h.UUID, s)
		if err != nil {
			return fmt.Errorf("model: create quanta sensor %q: %w", s.Name, err)
		}
		s.UUID = uuid
		if _, err := h.AddSensorInGroup(s, qs.GroupName); err != nil {
			return fmt.Errorf("model: register quanta sensor %q: %w", s.Name, err)
		}
	}

	h.QuantaServer = true
	if err := GroupSensors(ctx, inv, h); err != nil {
		return fmt.Errorf("model: group quanta sensors: %w", err)
	}
	return nil
}

// classify resolves the canned group a sample belongs to, applying the
// unit catalog plus the discrete/percent name-based special cases
// (spec.md §3: "PSU …", "MB Thermal Trip", "PCH Thermal Trip" redirect to
// power/temperature; percent-type "Fan"/"Usage" names redirect to
// fans/usage).
func classify(sm Sample) string {
	return bmcmodel.ClassifySample(sm.Name, sm.Unit, sm.Type == bmcmodel.DataTypeDiscrete)
}

func createFromSampleUnits(ctx context.Context, inv Inventory, h *bmcmodel.Host, samples []Sample) error {
	emptyUnits := 0
	for _, sm := range samples {
		if sm.Unit == "" {
			emptyUnits++
		}
	}
	if emptyUnits > MaxSensorTypeErrors {
		return fmt.Errorf("%w: %d samples", ErrTooManyEmptyUnits, emptyUnits)
	}

	// Each canned group a sample resolves to is created in the inventory
	// exactly once; an empty UUID marks a group the inventory has never
	// been told about (spec.md §4.4 item 2: "create that group once").
	for _, sm := range samples {
		groupName := classify(sm)
		if groupName == bmcmodel.NullGroupName {
			continue
		}
		g, err := h.GetGroupByName(groupName)
		if err != nil {
			return fmt.Errorf("model: derived group %q: %w", groupName, err)
		}
		if g.UUID != "" {
			continue
		}
		uuid, aerr := inv.AddGroup(ctx, h.UUID, *g)
		if aerr != nil {
			return fmt.Errorf("model: create derived group %q: %w", groupName, aerr)
		}
		g.UUID = uuid
		g.GroupState = bmcmodel.GroupStateEnabled
	}

	for _, sm := range samples {
		groupName := classify(sm)
		if groupName == bmcmodel.NullGroupName {
			continue
		}
		g, err := h.GetGroupByName(groupName)
		if err != nil {
			return err
		}
		s := bmcmodel.Sensor{Name: sm.Name, SensorType: g.SensorType, DataType: sm.Type, State: bmcmodel.StateEnabled}
		uuid, aerr := inv.AddSensor(ctx, h.UUID, s)
		if aerr != nil {
			return fmt.Errorf("model: create derived sensor %q: %w", sm.Name, aerr)
		}
		s.UUID = uuid
		if _, aerr := h.AddSensorInGroup(s, groupName); aerr != nil {
			return fmt.Errorf("model: register derived sensor %q: %w", sm.Name, aerr)
		}
	}

	if err := GroupSensors(ctx, inv, h); err != nil {
		return fmt.Errorf("model: group derived sensors: %w", err)
	}
	return nil
}

// Relearn wipes a host's model on operator request (spec.md §4.4 item 3).
// It snapshots preserved per-group actions, clears alarms and degrade,
// then deletes every group and sensor from last to first via inv. If any
// delete fails it increments the host's relearn retry tracking and
// returns ErrRelearnPending so the caller reschedules with back-off; it
// does not roll back partial deletes.
func Relearn(ctx context.Context, inv Inventory, h *bmcmodel.Host, relearnDeadlineUnix int64) error {
	if !h.RelearnMode {
		preserved := make(map[string]bmcmodel.SeverityActions, len(h.Groups))
		for _, g := range h.Groups {
			preserved[g.Name] = g.Actions
		}
		h.PreservedGroupActions = preserved
		// Set before any delete attempt so a concurrent relearn request
		// observes "in progress" immediately, including across retries
		// of a delete phase that failed partway (spec.md §4.4, §8).
		h.RelearnMode = true
		h.RelearnDeadline = relearnDeadlineUnix
	}

	// Sensors/groups are truncated off the end as each delete succeeds, so
	// a retry after a partial failure resumes where the last attempt
	// stopped instead of re-issuing DELETE against already-removed uuids.
	for len(h.Sensors) > 0 {
		i := len(h.Sensors) - 1
		s := &h.Sensors[i]
		s.Alarmed = false
		s.Degraded = false
		if s.UUID != "" {
			if err := inv.DeleteSensor(ctx, s.UUID); err != nil {
				h.RelearnRetryCount++
				return fmt.Errorf("%w: sensor %s: %w", ErrRelearnPending, s.Name, err)
			}
		}
		h.Sensors = h.Sensors[:i]
	}
	for len(h.Groups) > 0 {
		i := len(h.Groups) - 1
		g := &h.Groups[i]
		g.Alarmed = false
		if g.UUID != "" {
			if err := inv.DeleteGroup(ctx, g.UUID); err != nil {
				h.RelearnRetryCount++
				return fmt.Errorf("%w: group %s: %w", ErrRelearnPending, g.Name, err)
			}
		}
		h.Groups = h.Groups[:i]
	}

	h.Reset()
	h.RelearnMode = true
	h.RelearnDeadline = relearnDeadlineUnix
	h.RelearnRetryCount = 0
	return nil
}

// RestorePreservedActions re-applies preserved per-group actions onto any
// group whose name matches after a post-relearn Create (spec.md §4.4).
func RestorePreservedActions(ctx context.Context, inv Inventory, h *bmcmodel.Host) error {
	for gi := range h.Groups {
		g := &h.Groups[gi]
		if actions, ok := h.PreservedGroupActions[g.Name]; ok {
			g.Actions = actions
		}
	}
	return GroupSensors(ctx, inv, h)
}

// MaybeExitRelearn leaves relearn mode once both sensor and group counts
// are non-zero at the end of Handle (spec.md §4.4).
func MaybeExitRelearn(h *bmcmodel.Host) {
	if h.RelearnMode && len(h.Sensors) > 0 && len(h.Groups) > 0 {
		h.RelearnMode = false
		h.RelearnDeadline = 0
	}
}

func sensorNames(sensors []bmcmodel.Sensor) []string {
	names := make([]string, len(sensors))
	for i, s := range sensors {
		names[i] = s.Name
	}
	return names
}
