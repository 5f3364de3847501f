// SPDX-License-Identifier: BSD-3-Clause

package udpcmd

import (
	"bytes"
	"encoding/json"
)

// eventHeader is the fixed framing label every outbound event datagram
// carries (spec.md §6).
const eventHeader = "mtce_event"

// EventKind is one of the nine recognized outbound event kinds.
type EventKind string

const (
	EventDegradeRaise  EventKind = "DEGRADE_RAISE"
	EventDegradeClear  EventKind = "DEGRADE_CLEAR"
	EventReset         EventKind = "RESET"
	EventPowerCycle    EventKind = "POWERCYCLE"
	EventHwmonMinor    EventKind = "HWMON_MINOR"
	EventHwmonMajor    EventKind = "HWMON_MAJOR"
	EventHwmonCritical EventKind = "HWMON_CRITICAL"
	EventHwmonClear    EventKind = "HWMON_CLEAR"
	EventHwmonConfig   EventKind = "HWMON_CONFIG"
)

// eventBody is the fixed JSON shape an event datagram carries.
type eventBody struct {
	Service  string `json:"service"`
	Hostname string `json:"hostname"`
	Sensor   string `json:"sensor,omitempty"`
}

// Event is one outbound datagram.
type Event struct {
	Kind     EventKind
	Hostname string
	Sensor   string
}

// EncodeEvent renders an Event into wire form.
func EncodeEvent(e Event) ([]byte, error) {
	body, err := json.Marshal(eventBody{Service: "hwmond", Hostname: e.Hostname, Sensor: e.Sensor})
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(eventHeader)
	buf.WriteString(string(e.Kind))
	buf.Write(body)
	return buf.Bytes(), nil
}
