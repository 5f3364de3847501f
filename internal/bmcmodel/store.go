// SPDX-License-Identifier: BSD-3-Clause

package bmcmodel

import (
	"fmt"
	"sync"
)

// Host is the per-node sensor and group store (spec.md §4.3). Sensors and
// groups are held in slices indexed by SensorID/GroupID; the name maps
// give O(1) lookup without ever handing out a pointer that outlives a
// model reload.
//
// The embedded mutex guards the sensor/group tables and the mutable
// monitoring scalars. Three goroutine sources touch a host record: its
// own monitor FSM tick, the UDP command dispatcher, and the inbound
// sysinv HTTP handlers. Every one of them takes the host lock around
// reads and writes of this struct; Hostname, UUID, and Deployment are
// set once at construction and read freely.
type Host struct {
	sync.Mutex

	Hostname string
	UUID     string

	BMCAddress  string
	BMCUsername string
	BMCType     string
	BMCPassword string
	Provisioned bool

	MonitorEnabled    bool
	AuditInterval     int
	PowerOn           bool
	PowerOnLearnedOnce bool

	Sensors     []Sensor
	Groups      []Group
	sensorByName map[string]SensorID
	groupByName  map[string]GroupID

	RelearnMode       bool
	RelearnDeadline   int64 // unix seconds, 0 if not relearning
	RelearnRetryCount int   // incremented each time a relearn delete call fails

	ModelChecksum  uint32
	SampleChecksum uint32
	QuantaServer   bool

	// ConfigAlarm is the host-level sensor-configuration alarm, raised
	// when model creation fails and cleared by the next clean Update pass.
	ConfigAlarm bool

	PreservedGroupActions map[string]SeverityActions

	Deployment Deployment
}

// Deployment captures the simplex/duplex split that gates reset and
// power-cycle actions (spec.md Design Notes, StarlingX mtce original:
// simplex systems never reset/power-cycle the only controller node).
type Deployment int

const (
	DeploymentDuplex Deployment = iota
	DeploymentSimplex
)

// NewHost returns a Host seeded with the canned group catalog and no
// sensors.
func NewHost(hostname, uuid string, deployment Deployment) *Host {
	h := &Host{
		Hostname:     hostname,
		UUID:         uuid,
		AuditInterval: MinAuditInterval,
		Deployment:   deployment,
		sensorByName: make(map[string]SensorID),
		groupByName:  make(map[string]GroupID),
	}
	for _, cg := range CannedGroups {
		h.Groups = append(h.Groups, Group{
			Name:       cg.Name,
			GroupEnum:  cg.GroupEnum,
			SensorType: cg.SensorType,
			DataType:   cg.DataType,
			GroupState: GroupStateEnabled,
		})
		h.groupByName[cg.Name] = GroupID(len(h.Groups) - 1)
	}
	return h
}

// AddGroup inserts a group, or overwrites the stored attributes of an
// existing one by name (spec.md §4.3: "insert or overwrite by
// group_name"). Overwrite keeps the group's member list and identity but
// adopts the incoming UUID, actions, interval, suppress flag, and state,
// so loading a group from inventory onto the pre-seeded canned entry
// picks up its external identity. Returns ErrGroupTableFull once
// MaxGroupsPerHost is reached.
func (h *Host) AddGroup(g Group) (GroupID, error) {
	if g.Name == "" {
		return 0, ErrInvalidGroupName
	}
	if id, exists := h.groupByName[g.Name]; exists {
		cur := &h.Groups[id]
		if g.UUID != "" {
			cur.UUID = g.UUID
		}
		if g.Actions != (SeverityActions{}) {
			cur.Actions = g.Actions
		}
		if g.AuditInterval > 0 {
			cur.AuditInterval = g.AuditInterval
		}
		if g.GroupState != "" {
			cur.GroupState = g.GroupState
		}
		cur.Suppress = g.Suppress
		return id, nil
	}
	if len(h.Groups) >= MaxGroupsPerHost {
		return 0, ErrGroupTableFull
	}
	h.Groups = append(h.Groups, g)
	id := GroupID(len(h.Groups) - 1)
	h.groupByName[g.Name] = id
	return id, nil
}

// AddSensor inserts a sensor, routing it into its canned group by
// SensorType/DataType via ClassifyGroup. Returns ErrSensorTableFull once
// MaxSensorsPerHost is reached, or ErrInvalidSensorName for an empty name.
func (h *Host) AddSensor(s Sensor) (SensorID, error) {
	return h.AddSensorInGroup(s, ClassifyGroup(s.SensorType, s.DataType))
}

// AddSensorInGroup inserts a sensor directly into the named group,
// bypassing SensorType/DataType-based classification. Callers that have
// already resolved the target group themselves (e.g. model.CreateFromSamples'
// special-case unit/name translations, spec.md §3) use this so a sensor
// can land in a group its own DataType wouldn't otherwise route it to
// (a discrete "PSU1 Fan" sample joining the analog power_group).
func (h *Host) AddSensorInGroup(s Sensor, groupName string) (SensorID, error) {
	if s.Name == "" {
		return 0, ErrInvalidSensorName
	}
	if id, exists := h.sensorByName[s.Name]; exists {
		cur := &h.Sensors[id]
		if s.UUID != "" {
			cur.UUID = s.UUID
		}
		if s.Actions != (SeverityActions{}) {
			cur.Actions = s.Actions
		}
		if s.Thresholds != (Thresholds{}) {
			cur.Thresholds = s.Thresholds
		}
		if s.State != "" {
			cur.State = s.State
		}
		cur.Suppress = s.Suppress
		return id, nil
	}
	if len(h.Sensors) >= MaxSensorsPerHost {
		return 0, ErrSensorTableFull
	}

	gid, ok := h.groupByName[groupName]
	if !ok {
		return 0, fmt.Errorf("bmcmodel: canned group %q missing: %w", groupName, ErrGroupNotFound)
	}
	s.GroupID = gid
	if s.EntityPath == "" {
		s.EntityPath = s.Name
	}

	h.Sensors = append(h.Sensors, s)
	sid := SensorID(len(h.Sensors) - 1)
	h.sensorByName[s.Name] = sid

	h.Groups[gid].Sensors = append(h.Groups[gid].Sensors, sid)

	return sid, nil
}

// GetSensor looks up a sensor by name.
func (h *Host) GetSensor(name string) (*Sensor, error) {
	id, ok := h.sensorByName[name]
	if !ok {
		return nil, ErrSensorNotFound
	}
	return &h.Sensors[id], nil
}

// GetSensorByID dereferences a SensorID directly.
func (h *Host) GetSensorByID(id SensorID) (*Sensor, error) {
	if int(id) < 0 || int(id) >= len(h.Sensors) {
		return nil, ErrSensorNotFound
	}
	return &h.Sensors[id], nil
}

// GetGroupByName looks up a group by name.
func (h *Host) GetGroupByName(name string) (*Group, error) {
	id, ok := h.groupByName[name]
	if !ok {
		return nil, ErrGroupNotFound
	}
	return &h.Groups[id], nil
}

// SensorByUUID finds a sensor by its external uuid, or nil. Callers hold
// the host lock; the returned pointer is only valid while they do.
func (h *Host) SensorByUUID(uuid string) *Sensor {
	if uuid == "" {
		return nil
	}
	for i := range h.Sensors {
		if h.Sensors[i].UUID == uuid {
			return &h.Sensors[i]
		}
	}
	return nil
}

// GroupByUUID finds a group by its external uuid, or nil. Same locking
// contract as SensorByUUID.
func (h *Host) GroupByUUID(uuid string) *Group {
	if uuid == "" {
		return nil
	}
	for i := range h.Groups {
		if h.Groups[i].UUID == uuid {
			return &h.Groups[i]
		}
	}
	return nil
}

// GetGroupOfSensor returns the group a sensor belongs to.
func (h *Host) GetGroupOfSensor(sensorName string) (*Group, error) {
	s, err := h.GetSensor(sensorName)
	if err != nil {
		return nil, err
	}
	if int(s.GroupID) < 0 || int(s.GroupID) >= len(h.Groups) {
		return nil, ErrGroupNotFound
	}
	return &h.Groups[s.GroupID], nil
}

// GroupSensors returns the sensors belonging to a group, in add order.
func (h *Host) GroupSensors(groupName string) ([]*Sensor, error) {
	g, err := h.GetGroupByName(groupName)
	if err != nil {
		return nil, err
	}
	out := make([]*Sensor, 0, len(g.Sensors))
	for _, sid := range g.Sensors {
		out = append(out, &h.Sensors[sid])
	}
	return out, nil
}

// Reset clears the sensor and group tables back to the canned catalog.
// model.Load and model.Relearn (run on an operator's relearn request)
// call it; no checksum comparison triggers it.
func (h *Host) Reset() {
	fresh := NewHost(h.Hostname, h.UUID, h.Deployment)
	h.Sensors = fresh.Sensors
	h.Groups = fresh.Groups
	h.sensorByName = fresh.sensorByName
	h.groupByName = fresh.groupByName
	h.ModelChecksum = ChecksumUnset
	h.SampleChecksum = ChecksumUnset
}
