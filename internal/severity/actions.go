// SPDX-License-Identifier: BSD-3-Clause

package severity

import "github.com/starlingx/hwmond/internal/bmcmodel"

// legalActions is the fixed legality table for configured actions per
// severity tier: reset and power-cycle are critical-only (spec.md §3).
var legalActions = map[bmcmodel.Severity]map[bmcmodel.Action]bool{
	bmcmodel.SeverityMinor: {
		bmcmodel.ActionIgnore: true,
		bmcmodel.ActionLog:    true,
		bmcmodel.ActionAlarm:  true,
	},
	bmcmodel.SeverityMajor: {
		bmcmodel.ActionIgnore: true,
		bmcmodel.ActionLog:    true,
		bmcmodel.ActionAlarm:  true,
	},
	bmcmodel.SeverityCritical: {
		bmcmodel.ActionIgnore:     true,
		bmcmodel.ActionLog:        true,
		bmcmodel.ActionAlarm:      true,
		bmcmodel.ActionReset:      true,
		bmcmodel.ActionPowerCycle: true,
	},
}

// ActionAllowed reports whether a is a legal configured action for the
// severity tier sev. On a simplex deployment reset and power-cycle are
// removed from the critical choice list entirely: the only controller
// node is never reset out from under itself (spec.md §3).
func ActionAllowed(sev bmcmodel.Severity, a bmcmodel.Action, deployment bmcmodel.Deployment) bool {
	if deployment == bmcmodel.DeploymentSimplex && (a == bmcmodel.ActionReset || a == bmcmodel.ActionPowerCycle) {
		return false
	}
	tier, ok := legalActions[sev.Effective()]
	if !ok {
		return false
	}
	return tier[a]
}
