// SPDX-License-Identifier: BSD-3-Clause

package udpcmd

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// commandHeader is the fixed framing label every inbound datagram must
// start with (spec.md §6).
const commandHeader = "cmd_request"

// Command is one of the six recognized command-inbox operations.
type Command string

const (
	CommandAddHost      Command = "ADD_HOST"
	CommandModHost      Command = "MOD_HOST"
	CommandDelHost      Command = "DEL_HOST"
	CommandStartMonitor Command = "START_MONITOR"
	CommandStopMonitor  Command = "STOP_MONITOR"
	CommandQueryHost    Command = "QUERY_HOST"
)

var recognized = map[Command]bool{
	CommandAddHost:      true,
	CommandModHost:      true,
	CommandDelHost:      true,
	CommandStartMonitor: true,
	CommandStopMonitor:  true,
	CommandQueryHost:    true,
}

// Payload carries at minimum the hostname, uuid, and BMC fields every
// command payload is required to include (spec.md §6).
type Payload struct {
	Hostname    string `json:"hostname"`
	UUID        string `json:"uuid"`
	BMCAddress  string `json:"bm_ip,omitempty"`
	BMCUsername string `json:"bm_user,omitempty"`
	BMCType     string `json:"bm_type,omitempty"`
}

// Request is a decoded command-inbox datagram.
type Request struct {
	Command Command
	Payload Payload
}

// Decode parses one datagram of the form
// "cmd_request<command><json payload>" into a Request.
func Decode(datagram []byte) (Request, error) {
	if !bytes.HasPrefix(datagram, []byte(commandHeader)) {
		return Request{}, ErrMissingHeader
	}
	rest := datagram[len(commandHeader):]

	var cmd Command
	var jsonStart int
	for c := range recognized {
		if bytes.HasPrefix(rest, []byte(c)) {
			cmd = c
			jsonStart = len(c)
			break
		}
	}
	if cmd == "" {
		return Request{}, ErrUnrecognizedCommand
	}

	var p Payload
	if err := json.Unmarshal(bytes.TrimSpace(rest[jsonStart:]), &p); err != nil {
		return Request{}, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}

	return Request{Command: cmd, Payload: p}, nil
}

// Encode renders a Request back into wire form, used by tests and by
// any component that relays a command onward.
func Encode(req Request) ([]byte, error) {
	body, err := json.Marshal(req.Payload)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(commandHeader)
	buf.WriteString(string(req.Command))
	buf.Write(body)
	return buf.Bytes(), nil
}
