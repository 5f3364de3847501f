// SPDX-License-Identifier: BSD-3-Clause

package udpcmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRoundTripsAddHost(t *testing.T) {
	req := Request{
		Command: CommandAddHost,
		Payload: Payload{Hostname: "compute-0", UUID: "uuid-1", BMCAddress: "10.0.0.5"},
	}

	datagram, err := Encode(req)
	require.NoError(t, err)

	decoded, err := Decode(datagram)
	require.NoError(t, err)
	assert.Equal(t, CommandAddHost, decoded.Command)
	assert.Equal(t, "compute-0", decoded.Payload.Hostname)
}

func TestDecodeRejectsMissingHeader(t *testing.T) {
	_, err := Decode([]byte("ADD_HOST{}"))
	assert.ErrorIs(t, err, ErrMissingHeader)
}

func TestDecodeRejectsUnrecognizedCommand(t *testing.T) {
	_, err := Decode([]byte("cmd_requestBOGUS{}"))
	assert.ErrorIs(t, err, ErrUnrecognizedCommand)
}

func TestDecodeRejectsMalformedPayload(t *testing.T) {
	_, err := Decode([]byte("cmd_requestADD_HOST{not-json"))
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestEncodeEventCarriesFixedHeader(t *testing.T) {
	datagram, err := EncodeEvent(Event{Kind: EventHwmonCritical, Hostname: "compute-0", Sensor: "Fan1"})
	require.NoError(t, err)
	assert.Contains(t, string(datagram), eventHeader)
	assert.Contains(t, string(datagram), "HWMON_CRITICAL")
	assert.Contains(t, string(datagram), "Fan1")
}
