// SPDX-License-Identifier: BSD-3-Clause

package severity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/starlingx/hwmond/internal/bmcmodel"
)

func TestDeriveFromStatusMapsKnownTokens(t *testing.T) {
	assert.Equal(t, bmcmodel.SeverityGood, DeriveFromStatus("ok"))
	assert.Equal(t, bmcmodel.SeverityMajor, DeriveFromStatus("nc"))
	assert.Equal(t, bmcmodel.SeverityCritical, DeriveFromStatus("cr"))
	assert.Equal(t, bmcmodel.SeverityNonRecoverable, DeriveFromStatus("nr"))
	assert.Equal(t, bmcmodel.SeverityOffline, DeriveFromStatus("na"))
}

func TestDeriveFromStatusUnrecognizedDowngradesToMinor(t *testing.T) {
	assert.Equal(t, bmcmodel.SeverityMinor, DeriveFromStatus("bogus"))
}

func TestApplyDebounceEngagesAtThreshold(t *testing.T) {
	s := &bmcmodel.Sensor{}

	for i := 0; i < NotFoundCountBeforeMinor-1; i++ {
		_, engaged := ApplyDebounce(s, false, bmcmodel.SeverityGood)
		assert.False(t, engaged)
	}

	eff, engaged := ApplyDebounce(s, false, bmcmodel.SeverityGood)
	assert.True(t, engaged)
	assert.Equal(t, bmcmodel.SeverityMinor, eff)
}

func TestApplyDebounceResetsOnFound(t *testing.T) {
	s := &bmcmodel.Sensor{NotUpdatedChangeCount: 2}
	eff, engaged := ApplyDebounce(s, true, bmcmodel.SeverityMajor)
	assert.False(t, engaged)
	assert.Equal(t, bmcmodel.SeverityMajor, eff)
	assert.Equal(t, 0, s.NotUpdatedChangeCount)
}

func TestEvaluateMinorAlarmNeverDegrades(t *testing.T) {
	s := &bmcmodel.Sensor{SampleSeverity: bmcmodel.SeverityMinor}
	s.Actions.Minor = bmcmodel.ActionAlarm

	eff := Evaluate(s, bmcmodel.DeploymentDuplex)

	assert.True(t, eff.AlarmAssert)
	assert.False(t, eff.DegradeAssert)
	assert.False(t, s.Degraded)
}

func TestEvaluateMajorAlarmDegrades(t *testing.T) {
	s := &bmcmodel.Sensor{SampleSeverity: bmcmodel.SeverityMajor}
	s.Actions.Major = bmcmodel.ActionAlarm

	eff := Evaluate(s, bmcmodel.DeploymentDuplex)

	assert.True(t, eff.DegradeAssert)
	assert.True(t, s.Degraded)
}

func TestEvaluateCriticalResetEmitsRecovery(t *testing.T) {
	s := &bmcmodel.Sensor{SampleSeverity: bmcmodel.SeverityCritical}
	s.Actions.Critical = bmcmodel.ActionReset

	eff := Evaluate(s, bmcmodel.DeploymentDuplex)

	assert.Equal(t, RecoveryReset, eff.Recovery)
	assert.Equal(t, ReasonResetting, eff.Reason)
}

func TestEvaluateCriticalResetGatedBySimplex(t *testing.T) {
	s := &bmcmodel.Sensor{SampleSeverity: bmcmodel.SeverityCritical}
	s.Actions.Critical = bmcmodel.ActionReset

	eff := Evaluate(s, bmcmodel.DeploymentSimplex)

	assert.Equal(t, RecoveryNone, eff.Recovery)
	assert.True(t, eff.AlarmAssert)
}

func TestEvaluateSuppressClearsEverything(t *testing.T) {
	s := &bmcmodel.Sensor{Suppress: true, SampleSeverity: bmcmodel.SeverityCritical, Alarmed: true, Degraded: true}
	s.Actions.Critical = bmcmodel.ActionAlarm
	s.Actions.CriticalState.Alarmed = true

	eff := Evaluate(s, bmcmodel.DeploymentDuplex)

	assert.True(t, eff.AlarmClear)
	assert.True(t, eff.DegradeClear)
	assert.False(t, s.Alarmed)
	assert.False(t, s.Degraded)
}

func TestEvaluateGoodClearsAlarm(t *testing.T) {
	s := &bmcmodel.Sensor{SampleSeverity: bmcmodel.SeverityGood}
	s.Actions.CriticalState.Alarmed = true
	s.Alarmed = true

	eff := Evaluate(s, bmcmodel.DeploymentDuplex)

	assert.True(t, eff.AlarmClear)
	assert.False(t, s.Alarmed)
}

func TestEvaluateOfflineTransitionClearsOnce(t *testing.T) {
	s := &bmcmodel.Sensor{SampleSeverity: bmcmodel.SeverityOffline}

	eff := Evaluate(s, bmcmodel.DeploymentDuplex)
	assert.True(t, eff.AlarmClear)
	assert.Equal(t, ReasonOffline, eff.Reason)

	eff2 := Evaluate(s, bmcmodel.DeploymentDuplex)
	assert.Equal(t, Effects{}, eff2)
}

func TestTransitionIdenticalIsNoOp(t *testing.T) {
	s := &bmcmodel.Sensor{}
	eff := Transition(s, bmcmodel.SeverityMajor, bmcmodel.ActionAlarm, bmcmodel.ActionAlarm)
	assert.Equal(t, Effects{}, eff)
}

func TestTransitionAlarmToLogClearsAndMayReraise(t *testing.T) {
	s := &bmcmodel.Sensor{Status: bmcmodel.StatusMajor}
	s.Actions.MajorState.Alarmed = true

	eff := Transition(s, bmcmodel.SeverityMajor, bmcmodel.ActionAlarm, bmcmodel.ActionLog)

	assert.True(t, eff.AlarmClear)
	assert.True(t, eff.LogLine)
	assert.Equal(t, SetToReason(bmcmodel.ActionLog), eff.Reason)
}

func TestSelfHealIgnoredStillAlarmedClearsStaleAlarm(t *testing.T) {
	s := &bmcmodel.Sensor{}
	s.Actions.Minor = bmcmodel.ActionIgnore
	s.Actions.MinorState.Alarmed = true

	eff := SelfHealIgnoredStillAlarmed(s)

	assert.True(t, eff.AlarmClear)
	assert.False(t, s.Actions.MinorState.Alarmed)
}

func TestSelfHealLeavesAlarmConfiguredTiersAlone(t *testing.T) {
	s := &bmcmodel.Sensor{}
	s.Actions.Critical = bmcmodel.ActionAlarm
	s.Actions.CriticalState.Alarmed = true

	eff := SelfHealIgnoredStillAlarmed(s)

	assert.Equal(t, Effects{}, eff)
	assert.True(t, s.Actions.CriticalState.Alarmed)
}

func TestSelfHealNoOpWhenNotAlarmed(t *testing.T) {
	s := &bmcmodel.Sensor{}
	eff := SelfHealIgnoredStillAlarmed(s)
	assert.Equal(t, Effects{}, eff)
}

func TestEvaluateSameSampleTwiceProducesNoSecondEmission(t *testing.T) {
	s := &bmcmodel.Sensor{SampleSeverity: bmcmodel.SeverityMajor}
	s.Actions.Major = bmcmodel.ActionAlarm

	first := Evaluate(s, bmcmodel.DeploymentDuplex)
	assert.True(t, first.AlarmAssert)
	assert.True(t, first.DegradeAssert)

	second := Evaluate(s, bmcmodel.DeploymentDuplex)
	assert.Equal(t, Effects{Reason: ReasonOutOfTolerance}, second)
}

func TestEvaluateCriticalResetNotReemittedOnRepoll(t *testing.T) {
	s := &bmcmodel.Sensor{SampleSeverity: bmcmodel.SeverityCritical}
	s.Actions.Critical = bmcmodel.ActionReset

	first := Evaluate(s, bmcmodel.DeploymentDuplex)
	assert.Equal(t, RecoveryReset, first.Recovery)
	assert.True(t, first.AlarmAssert)

	second := Evaluate(s, bmcmodel.DeploymentDuplex)
	assert.Equal(t, RecoveryNone, second.Recovery)
	assert.False(t, second.AlarmAssert)
}

func TestEvaluateLogRaisedOncePerEntry(t *testing.T) {
	s := &bmcmodel.Sensor{SampleSeverity: bmcmodel.SeverityMinor}
	s.Actions.Minor = bmcmodel.ActionLog

	first := Evaluate(s, bmcmodel.DeploymentDuplex)
	assert.True(t, first.LogLine)

	second := Evaluate(s, bmcmodel.DeploymentDuplex)
	assert.False(t, second.LogLine)
}

func TestEvaluateGoodOnHealthySensorIsQuiet(t *testing.T) {
	s := &bmcmodel.Sensor{SampleSeverity: bmcmodel.SeverityGood}
	eff := Evaluate(s, bmcmodel.DeploymentDuplex)
	assert.Equal(t, Effects{}, eff)
}

func TestEvaluateTracksExternalStatus(t *testing.T) {
	s := &bmcmodel.Sensor{SampleSeverity: bmcmodel.SeverityMajor}
	s.Actions.Major = bmcmodel.ActionAlarm
	Evaluate(s, bmcmodel.DeploymentDuplex)
	assert.Equal(t, bmcmodel.StatusMajor, s.Status)

	s.SampleSeverity = bmcmodel.SeverityGood
	Evaluate(s, bmcmodel.DeploymentDuplex)
	assert.Equal(t, bmcmodel.StatusOK, s.Status)
}

func TestActionAllowedRestrictsRecoveryToCritical(t *testing.T) {
	assert.True(t, ActionAllowed(bmcmodel.SeverityCritical, bmcmodel.ActionReset, bmcmodel.DeploymentDuplex))
	assert.True(t, ActionAllowed(bmcmodel.SeverityNonRecoverable, bmcmodel.ActionPowerCycle, bmcmodel.DeploymentDuplex))
	assert.False(t, ActionAllowed(bmcmodel.SeverityMajor, bmcmodel.ActionReset, bmcmodel.DeploymentDuplex))
	assert.False(t, ActionAllowed(bmcmodel.SeverityMinor, bmcmodel.ActionPowerCycle, bmcmodel.DeploymentDuplex))
}

func TestActionAllowedSimplexDropsRecoveryActions(t *testing.T) {
	assert.False(t, ActionAllowed(bmcmodel.SeverityCritical, bmcmodel.ActionReset, bmcmodel.DeploymentSimplex))
	assert.False(t, ActionAllowed(bmcmodel.SeverityCritical, bmcmodel.ActionPowerCycle, bmcmodel.DeploymentSimplex))
	assert.True(t, ActionAllowed(bmcmodel.SeverityCritical, bmcmodel.ActionAlarm, bmcmodel.DeploymentSimplex))
}

func TestTransitionAlarmToLogClearsDegrade(t *testing.T) {
	s := &bmcmodel.Sensor{Status: bmcmodel.StatusMajor, Degraded: true}
	s.Actions.MajorState.Alarmed = true

	eff := Transition(s, bmcmodel.SeverityMajor, bmcmodel.ActionAlarm, bmcmodel.ActionLog)

	assert.True(t, eff.DegradeClear)
	assert.False(t, s.Degraded)
}
