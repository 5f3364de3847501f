// SPDX-License-Identifier: BSD-3-Clause

package monitor

import "github.com/qmuntal/stateless"

// Stage is one of the Monitor FSM's eleven stages (spec.md §4.1).
type Stage string

const (
	StageIdle    Stage = "idle"
	StageStart   Stage = "start"
	StagePower   Stage = "power"
	StageRestart Stage = "restart"
	StageDelay   Stage = "delay"
	StageRead    Stage = "read"
	StageParse   Stage = "parse"
	StageCheck   Stage = "check"
	StageUpdate  Stage = "update"
	StageHandle  Stage = "handle"
	StageFail    Stage = "fail"
)

// edges enumerates every legal (from, to) pair from the stage table in
// spec.md §4.1. The stateless machine exists to make illegal transitions
// a hard error and to give operators PermittedTriggers() introspection;
// the Monitor.Run loop below decides WHICH edge to take each pass.
var edges = []struct {
	From Stage
	To   Stage
}{
	{StageIdle, StageStart},

	{StageStart, StagePower},
	{StageStart, StageDelay},

	{StagePower, StageRestart},

	{StageRestart, StageStart},

	{StageDelay, StageRead},
	{StageDelay, StageFail},

	{StageRead, StageParse},
	{StageRead, StageFail},

	{StageParse, StageCheck},
	{StageParse, StageDelay},
	{StageParse, StageFail},

	{StageCheck, StageUpdate},
	{StageCheck, StageStart},

	{StageUpdate, StageHandle},

	{StageHandle, StageDelay},

	{StageFail, StageStart},
	{StageFail, StageIdle},
}

func newStageMachine() *stateless.StateMachine {
	sm := stateless.NewStateMachine(StageIdle)
	seen := map[Stage]bool{}
	for _, e := range edges {
		seen[e.From] = true
	}
	for from := range seen {
		cfg := sm.Configure(from)
		for _, e := range edges {
			if e.From == from {
				cfg.Permit(string(e.To), e.To)
			}
		}
	}
	return sm
}
