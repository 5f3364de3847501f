// SPDX-License-Identifier: BSD-3-Clause

package bmcmodel

import "strings"

// CannedGroup describes one entry of the fixed, built-in group catalog
// every host is classified against (spec.md §3). A sample is routed into
// a canned group by matching its BMC unit string against Units; "null_group"
// is the sentinel catch-all for a unit that matches none of the five
// typed groups.
type CannedGroup struct {
	Name       string
	GroupEnum  SensorType
	SensorType SensorType
	DataType   DataType
	// Units lists every BMC unit string spec.md §3 maps onto this group.
	// usage_group carries none: it is reached only through the
	// percent-type name-based special case below, never by unit alone.
	Units []string
}

// NullGroupName is the sentinel catch-all canned group (spec.md §3).
const NullGroupName = "null_group"

// CannedGroups is the immutable catalog every host's group derivation
// (model.CreateFromSamples) classifies samples against (spec.md §3).
var CannedGroups = []CannedGroup{
	{Name: "fan_group", GroupEnum: SensorTypeFan, SensorType: SensorTypeFan, DataType: DataTypeAnalog,
		Units: []string{"RPM", "% RPM", "CFM", "% CFM"}},
	{Name: "temperature_group", GroupEnum: SensorTypeTemperature, SensorType: SensorTypeTemperature, DataType: DataTypeAnalog,
		Units: []string{"degrees"}},
	{Name: "voltage_group", GroupEnum: SensorTypeVoltage, SensorType: SensorTypeVoltage, DataType: DataTypeAnalog,
		Units: []string{"Volts"}},
	{Name: "power_group", GroupEnum: SensorTypePower, SensorType: SensorTypePower, DataType: DataTypeAnalog,
		Units: []string{"Amps", "Watts", "Joules"}},
	{Name: "usage_group", GroupEnum: SensorTypeUsage, SensorType: SensorTypeUsage, DataType: DataTypeDiscrete},
	{Name: NullGroupName, GroupEnum: "", SensorType: "", DataType: DataTypeDiscrete},
}

// byUnit returns the canned group whose Units list contains unit, or nil.
func byUnit(unit string) *CannedGroup {
	if unit == "" {
		return nil
	}
	for i := range CannedGroups {
		for _, u := range CannedGroups[i].Units {
			if u == unit {
				return &CannedGroups[i]
			}
		}
	}
	return nil
}

// GroupByName returns the canned catalog entry with the given name.
func GroupByName(name string) (CannedGroup, bool) {
	for _, cg := range CannedGroups {
		if cg.Name == name {
			return cg, true
		}
	}
	return CannedGroup{}, false
}

// ClassifySample resolves the canned group name a sample belongs to,
// combining the BMC-unit catalog lookup with the discrete/percent
// special-case name translations spec.md §3 documents:
//
//   - a discrete sample whose name contains "PSU" is redirected to power_group
//     ("PSU1 Fan", "PSU2 Power", ...); one whose name contains "MB Thermal
//     Trip" or "PCH Thermal Trip" is redirected to temperature_group.
//   - a percent-type sample (unit "%") whose name contains "Fan" is
//     redirected to fan_group; one whose name contains "Usage" is
//     redirected to usage_group.
//
// Anything left unmatched falls to NullGroupName and is dropped by the
// caller (spec.md §4.4 item 2: "ignored").
func ClassifySample(name, unit string, discrete bool) string {
	if discrete {
		if strings.Contains(name, "PSU") {
			return "power_group"
		}
		if strings.Contains(name, "MB Thermal Trip") || strings.Contains(name, "PCH Thermal Trip") {
			return "temperature_group"
		}
	}
	if unit == "%" {
		if strings.Contains(name, "Fan") {
			return "fan_group"
		}
		if strings.Contains(name, "Usage") {
			return "usage_group"
		}
	}
	if cg := byUnit(unit); cg != nil {
		return cg.Name
	}
	return NullGroupName
}

// ClassifyGroup resolves the canned group name for an already-typed
// sensor (one loaded from inventory, or created by model.CreateFromSamples
// once it has assigned a SensorType) by SensorType/DataType rather than by
// raw BMC unit string. A discrete sensor whose canned SensorType's group
// is analog-only falls to the null group (usage_group is the one
// canned group that is itself discrete).
func ClassifyGroup(st SensorType, dt DataType) string {
	for _, cg := range CannedGroups {
		if cg.Name == NullGroupName {
			continue
		}
		if cg.SensorType != st {
			continue
		}
		if cg.DataType != dt {
			return NullGroupName
		}
		return cg.Name
	}
	return NullGroupName
}

// UnitFor returns a display unit for a canned group name, or "" if the
// name doesn't match a canned group or carries no single representative
// unit (usage_group and null_group).
func UnitFor(groupName string) string {
	cg, ok := GroupByName(groupName)
	if !ok || len(cg.Units) == 0 {
		return ""
	}
	return cg.Units[0]
}
