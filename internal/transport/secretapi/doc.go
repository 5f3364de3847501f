// SPDX-License-Identifier: BSD-3-Clause

// Package secretapi is the secret store client (spec.md §6): it trades a
// host's UUID for an opaque reference, then resolves that reference to
// the BMC password payload on every worker launch. Nothing is cached to
// disk; each call goes out over the wire.
package secretapi
