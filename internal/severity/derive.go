// SPDX-License-Identifier: BSD-3-Clause

package severity

import "github.com/starlingx/hwmond/internal/bmcmodel"

// NotFoundCountBeforeMinor is the number of consecutive missed samples
// before a sensor's effective severity is forced to Minor (spec.md §4.5).
const NotFoundCountBeforeMinor = 3

// DeriveFromStatus maps a raw BMC status token onto a Severity per the
// fixed table in spec.md §4.5. Unrecognized tokens downgrade to Minor
// rather than error out (spec.md §7).
func DeriveFromStatus(token string) bmcmodel.Severity {
	switch token {
	case "ok":
		return bmcmodel.SeverityGood
	case "nc", "lnc", "unc":
		return bmcmodel.SeverityMajor
	case "cr", "lcr", "ucr":
		return bmcmodel.SeverityCritical
	case "nr", "lnr", "unr":
		return bmcmodel.SeverityNonRecoverable
	case "na", "ns":
		return bmcmodel.SeverityOffline
	default:
		return bmcmodel.SeverityMinor
	}
}

// ApplyDebounce implements the update-miss debounce: a sensor absent from
// the latest sample set has its miss counter incremented; once it
// reaches NotFoundCountBeforeMinor the effective severity for this tick
// is forced to Minor. Finding the sensor again resets the counter. The
// open question in spec.md §9 about a duplicated counter increment is
// resolved by incrementing exactly once per miss here.
//
// found reports whether the sensor appeared in the latest sample. On
// first debounce engagement (the tick the threshold is crossed) engaged
// is true so the caller can log it exactly once, per spec.md §9.
func ApplyDebounce(s *bmcmodel.Sensor, found bool, sampled bmcmodel.Severity) (effective bmcmodel.Severity, engaged bool) {
	if found {
		s.NotUpdatedChangeCount = 0
		return sampled, false
	}

	s.NotUpdatedChangeCount++
	if s.NotUpdatedChangeCount == NotFoundCountBeforeMinor {
		return bmcmodel.SeverityMinor, true
	}
	if s.NotUpdatedChangeCount > NotFoundCountBeforeMinor {
		return bmcmodel.SeverityMinor, false
	}
	return sampled, false
}
