// SPDX-License-Identifier: BSD-3-Clause

package severity

import "github.com/starlingx/hwmond/internal/bmcmodel"

// RecoveryKind is a maintenance-agent recovery request emitted for a
// Critical sensor configured for reset or power-cycle (spec.md §4.5, §6).
type RecoveryKind int

const (
	RecoveryNone RecoveryKind = iota
	RecoveryReset
	RecoveryPowerCycle
)

// Effects is everything one Evaluate call decided for a sensor. Callers
// (the monitor FSM's Handle stage) are responsible for turning these into
// alarm/degrade calls and outbound events; this package never performs
// I/O itself.
type Effects struct {
	AlarmAssert   bool
	AlarmClear    bool
	Reason        Reason
	DegradeAssert bool
	DegradeClear  bool
	Recovery      RecoveryKind
	LogLine       bool

	// Config marks the effect as belonging to the host-level
	// sensor-configuration alarm surface rather than a sensor's own
	// severity alarm; the consumer renders it as HWMON_CONFIG.
	Config bool
}

// Evaluate applies the action-policy table (spec.md §4.5) to one sensor
// for the current tick, given its already-derived effective severity.
// It mutates the sensor's per-tier ActionState in place and resolves any
// assert/clear conflict in favor of clear (spec.md §4.5 conflict rule).
//
// An already-held alarm, log, or recovery request is never re-emitted for
// the same severity on a later tick: the action-state triples are the
// cache of what has been raised, so re-applying an identical sample set
// produces an Effects with no assert, clear, log line or recovery set
// (its Reason may still be filled in).
//
// deployment gates Reset/PowerCycle: on a simplex deployment the only
// controller node is never reset or power-cycled out from under itself,
// so those two actions degrade to a plain critical alarm (spec.md §9
// Design Notes; StarlingX mtce original source).
func Evaluate(s *bmcmodel.Sensor, deployment bmcmodel.Deployment) Effects {
	if s.Suppress {
		return evaluateSuppressed(s)
	}

	wasOffline := s.Severity == bmcmodel.SeverityOffline
	isOffline := s.SampleSeverity == bmcmodel.SeverityOffline

	if isOffline {
		s.Severity = bmcmodel.SeverityOffline
		s.Status = bmcmodel.StatusOffline
		if !wasOffline {
			wasDegraded := s.Degraded
			clearHeldState(s)
			return Effects{AlarmClear: true, Reason: ReasonOffline, DegradeClear: wasDegraded}
		}
		return Effects{}
	}
	if wasOffline {
		s.Severity = s.SampleSeverity
		clear := evaluateAssert(s, deployment)
		clear.AlarmClear = true
		clear.Reason = ReasonOnline
		return clear
	}

	s.Severity = s.SampleSeverity
	return evaluateAssert(s, deployment)
}

// clearHeldState drops every held alarm/log/ignore flag and degrade on
// the sensor without emitting anything; callers decide what to emit.
func clearHeldState(s *bmcmodel.Sensor) {
	s.Actions.MinorState = bmcmodel.ActionState{}
	s.Actions.MajorState = bmcmodel.ActionState{}
	s.Actions.CriticalState = bmcmodel.ActionState{}
	s.Alarmed = false
	s.Degraded = false
	s.Ignored = false
}

func holdsAnyState(s *bmcmodel.Sensor) bool {
	for _, st := range []bmcmodel.ActionState{s.Actions.MinorState, s.Actions.MajorState, s.Actions.CriticalState} {
		if st.Alarmed || st.Logged || st.Ignored {
			return true
		}
	}
	return s.Alarmed || s.Degraded || s.Ignored
}

func evaluateSuppressed(s *bmcmodel.Sensor) Effects {
	if !holdsAnyState(s) {
		return Effects{}
	}
	wasDegraded := s.Degraded
	clearHeldState(s)
	return Effects{AlarmClear: true, DegradeClear: wasDegraded, Reason: ReasonSuppressed}
}

func statusForSeverity(sev bmcmodel.Severity) bmcmodel.Status {
	switch sev.Effective() {
	case bmcmodel.SeverityGood:
		return bmcmodel.StatusOK
	case bmcmodel.SeverityMinor:
		return bmcmodel.StatusMinor
	case bmcmodel.SeverityMajor:
		return bmcmodel.StatusMajor
	case bmcmodel.SeverityCritical:
		return bmcmodel.StatusCritical
	default:
		return bmcmodel.StatusOffline
	}
}

func evaluateAssert(s *bmcmodel.Sensor, deployment bmcmodel.Deployment) Effects {
	eff := s.SampleSeverity.Effective()
	s.Status = statusForSeverity(eff)

	if eff == bmcmodel.SeverityGood {
		if !holdsAnyState(s) {
			return Effects{}
		}
		wasDegraded := s.Degraded
		clearHeldState(s)
		return Effects{AlarmClear: true, DegradeClear: wasDegraded, Reason: ReasonOK}
	}

	action := s.Actions.ForSeverity(eff)
	state := s.Actions.State(eff)

	switch action {
	case bmcmodel.ActionIgnore:
		wasAlarmed := state.Alarmed
		wasDegraded := s.Degraded
		state.Alarmed, state.Logged = false, false
		state.Ignored = true
		s.Ignored = true
		s.SyncAlarmed()
		s.Degraded = false
		return Effects{AlarmClear: wasAlarmed, DegradeClear: wasDegraded, Reason: ReasonIgnored}

	case bmcmodel.ActionLog:
		first := !state.Logged
		wasAlarmed := state.Alarmed
		wasDegraded := s.Degraded
		state.Alarmed = false
		state.Logged = true
		state.Ignored = false
		s.Ignored = false
		s.SyncAlarmed()
		s.Degraded = false
		return Effects{AlarmClear: wasAlarmed, DegradeClear: wasDegraded, LogLine: first, Reason: ReasonOutOfTolerance}

	case bmcmodel.ActionAlarm:
		already := state.Alarmed
		state.Alarmed = true
		state.Logged = false
		state.Ignored = false
		s.Ignored = false
		conflict := s.SyncAlarmed()
		degrade := eff == bmcmodel.SeverityMajor || eff == bmcmodel.SeverityCritical
		degradeNew := degrade && !s.Degraded
		degradeStale := !degrade && s.Degraded
		s.Degraded = degrade
		if conflict {
			return Effects{AlarmClear: true, Reason: ReasonOutOfTolerance, DegradeAssert: degradeNew, DegradeClear: degradeStale}
		}
		return Effects{AlarmAssert: !already, Reason: ReasonOutOfTolerance, DegradeAssert: degradeNew, DegradeClear: degradeStale}

	case bmcmodel.ActionReset, bmcmodel.ActionPowerCycle:
		if eff != bmcmodel.SeverityCritical {
			// Not legal outside Critical; treat as alarm rather than error
			// out, matching the "log and favor safer branch" guidance for
			// InternalLogic conflicts (spec.md §7).
			already := state.Alarmed
			state.Alarmed = true
			s.SyncAlarmed()
			degradeNew := !s.Degraded
			s.Degraded = true
			return Effects{AlarmAssert: !already, Reason: ReasonOutOfTolerance, DegradeAssert: degradeNew}
		}

		already := state.Alarmed
		state.Alarmed = true
		state.Logged = false
		state.Ignored = false
		s.Ignored = false
		conflict := s.SyncAlarmed()
		degradeNew := !s.Degraded
		s.Degraded = true
		if conflict {
			return Effects{AlarmClear: true, Reason: ReasonOutOfTolerance, DegradeAssert: degradeNew}
		}
		fresh := !already

		if deployment == bmcmodel.DeploymentSimplex {
			return Effects{AlarmAssert: fresh, Reason: ReasonOutOfTolerance, DegradeAssert: degradeNew}
		}

		if action == bmcmodel.ActionReset {
			out := Effects{AlarmAssert: fresh, Reason: ReasonResetting, DegradeAssert: degradeNew}
			if fresh {
				out.Recovery = RecoveryReset
			}
			return out
		}
		out := Effects{AlarmAssert: fresh, Reason: ReasonPowerCycling, DegradeAssert: degradeNew}
		if fresh {
			out.Recovery = RecoveryPowerCycle
		}
		return out
	}

	return Effects{}
}

// Transition applies the action-change transition table (spec.md §4.5)
// when an operator changes the configured action for a severity tier
// from cur to next. It returns the Effects this transition alone
// produces; the next regular Evaluate call still runs on the following
// tick. Identical cur/next is a documented no-op.
func Transition(s *bmcmodel.Sensor, sev bmcmodel.Severity, cur, next bmcmodel.Action) Effects {
	if cur == next {
		return Effects{}
	}

	reason := SetToReason(next)
	state := s.Actions.State(sev)

	switch cur {
	case bmcmodel.ActionAlarm:
		wasAlarmed := state.Alarmed
		state.Alarmed = false
		s.SyncAlarmed()
		eff := Effects{Reason: reason}
		if wasAlarmed {
			eff.AlarmClear = true
		}
		// Log and ignore do not degrade; reset/power-cycle re-derive
		// degrade on the next evaluation pass.
		if (next == bmcmodel.ActionLog || next == bmcmodel.ActionIgnore) && s.Degraded {
			s.Degraded = false
			eff.DegradeClear = true
		}
		if next == bmcmodel.ActionLog && s.Status != bmcmodel.StatusOK && s.Status != bmcmodel.StatusOffline {
			state.Logged = true
			eff.LogLine = true
		}
		return eff

	case bmcmodel.ActionLog:
		state.Logged = false
		return Effects{Reason: reason}

	case bmcmodel.ActionIgnore:
		state.Ignored = false
		s.Ignored = false
		eff := Effects{Reason: reason}
		if next == bmcmodel.ActionLog && s.Status != bmcmodel.StatusOK && s.Status != bmcmodel.StatusOffline {
			state.Logged = true
			eff.LogLine = true
		}
		return eff

	case bmcmodel.ActionReset, bmcmodel.ActionPowerCycle:
		wasAlarmed := state.Alarmed
		state.Alarmed = false
		s.SyncAlarmed()
		if wasAlarmed {
			return Effects{AlarmClear: true, Reason: reason}
		}
		return Effects{Reason: reason}
	}

	return Effects{Reason: reason}
}

// SelfHealIgnoredStillAlarmed clears a stale alarm on a sensor whose
// configured action is Ignore but whose alarm flag is still set, per the
// self-healing rule in spec.md §7. Tiers configured for any other action
// are left alone; their alarm flags are owned by Evaluate.
func SelfHealIgnoredStillAlarmed(s *bmcmodel.Sensor) Effects {
	tiers := []struct {
		action bmcmodel.Action
		state  *bmcmodel.ActionState
	}{
		{s.Actions.Minor, &s.Actions.MinorState},
		{s.Actions.Major, &s.Actions.MajorState},
		{s.Actions.Critical, &s.Actions.CriticalState},
	}
	healed := false
	for _, t := range tiers {
		if t.action == bmcmodel.ActionIgnore && t.state.Alarmed {
			t.state.Alarmed = false
			healed = true
		}
	}
	if !healed {
		return Effects{}
	}
	s.SyncAlarmed()
	return Effects{AlarmClear: true, Reason: ReasonIgnored}
}
