// SPDX-License-Identifier: BSD-3-Clause

package severity

import "github.com/starlingx/hwmond/internal/bmcmodel"

// Reason is one of the enumerated alarm reason phrases a sensor's alarm
// or log must carry (spec.md §7: "Alarms are raised with explicit reason
// phrases from an enumerated set").
type Reason string

const (
	ReasonOutOfTolerance Reason = "out-of-tolerance"
	ReasonResetting      Reason = "resetting"
	ReasonPowerCycling   Reason = "powercycling"
	ReasonOffline        Reason = "offline"
	ReasonOnline         Reason = "online"
	ReasonSuppressed     Reason = "suppressed"
	ReasonUnsuppressed   Reason = "unsuppressed"
	ReasonIgnored        Reason = "ignored"
	ReasonDeprovisioned  Reason = "deprovisioned"
	ReasonOK             Reason = "ok"
	ReasonDegraded       Reason = "degraded"
)

// SetToReason renders the "set to <action>" reason phrase logged on an
// action-change transition.
func SetToReason(a bmcmodel.Action) Reason {
	return Reason("set to " + string(a))
}
