// SPDX-License-Identifier: BSD-3-Clause

// Package registry implements the Host Registry (C7): add/modify/delete/
// lookup over hostname and uuid, deprovision-before-reprovision on BMC
// tuple changes, and the asynchronous delete FSM (Start, Wait, Done)
// that retries killing a host's worker up to three times before
// finishing removal.
package registry
