// SPDX-License-Identifier: BSD-3-Clause

package udpcmd

import "errors"

var (
	// ErrMissingHeader indicates a datagram lacked the "cmd_request"
	// framing header.
	ErrMissingHeader = errors.New("missing cmd_request header")
	// ErrUnrecognizedCommand indicates the command byte didn't match any
	// of the six recognized commands.
	ErrUnrecognizedCommand = errors.New("unrecognized command")
	// ErrMalformedPayload indicates the JSON payload failed to decode.
	ErrMalformedPayload = errors.New("malformed command payload")
)
