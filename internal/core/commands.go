// SPDX-License-Identifier: BSD-3-Clause

package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/starlingx/hwmond/internal/bmcmodel"
	"github.com/starlingx/hwmond/internal/model"
	"github.com/starlingx/hwmond/internal/severity"
	"github.com/starlingx/hwmond/internal/transport/invsrv"
)

// RelearnWindow is the projected completion deadline stored as
// RelearnDeadline and reported back to a caller that retries a relearn
// already in progress (spec.md §4.4: "projected completion window 5
// minutes").
const RelearnWindow = 5 * time.Minute

// RelearnMinBackoff is the minimum wait between relearn delete retries
// (spec.md §4.4).
const RelearnMinBackoff = time.Minute

// findSensorHost locates the host owning a sensor uuid, scanning each
// host's table under its own lock. The caller re-resolves the sensor
// under the lock it takes for the actual mutation, since the pointer a
// scan produced may be stale by then (a concurrent relearn wipe).
func (cs *CoreState) findSensorHost(uuid string) (*bmcmodel.Host, error) {
	for _, h := range cs.Registry.Hosts() {
		h.Lock()
		found := h.SensorByUUID(uuid) != nil
		h.Unlock()
		if found {
			return h, nil
		}
	}
	return nil, fmt.Errorf("%w: %w", invsrv.ErrNotFound, ErrUnknownHost)
}

func (cs *CoreState) findGroupHost(uuid string) (*bmcmodel.Host, error) {
	for _, h := range cs.Registry.Hosts() {
		h.Lock()
		found := h.GroupByUUID(uuid) != nil
		h.Unlock()
		if found {
			return h, nil
		}
	}
	return nil, fmt.Errorf("%w: %w", invsrv.ErrNotFound, ErrUnknownHost)
}

// handleSensorModify applies an inbound PATCH .../isensors/{uuid}
// (spec.md §6) to the in-memory sensor, running the action-change
// transition table (spec.md §4.5) when a severity's configured action
// changes and publishing any resulting Effects the same way a regular
// tick would. The host lock is held across the whole PATCH so the
// mutation never interleaves with that host's FSM tick (spec.md §5).
func (cs *CoreState) handleSensorModify(ctx context.Context, sensorUUID string, ops []invsrv.PatchOp) error {
	host, err := cs.findSensorHost(sensorUUID)
	if err != nil {
		return err
	}

	host.Lock()
	defer host.Unlock()
	sensor := host.SensorByUUID(sensorUUID)
	if sensor == nil {
		return fmt.Errorf("%w: %w", invsrv.ErrNotFound, ErrUnknownHost)
	}

	for _, op := range ops {
		if err := cs.applySensorPatch(ctx, host, sensor, op); err != nil {
			return err
		}
	}
	return nil
}

func (cs *CoreState) applySensorPatch(ctx context.Context, host *bmcmodel.Host, s *bmcmodel.Sensor, op invsrv.PatchOp) error {
	switch op.Path {
	case "/suppress":
		suppress := op.Value == "true"
		was := s.Suppress
		s.Suppress = suppress
		if suppress {
			eff := severity.Evaluate(s, host.Deployment)
			cs.publishEffect(ctx, host, s.UUID, eff)
		} else if was {
			cs.publishEffect(ctx, host, s.UUID, severity.Effects{LogLine: true, Reason: severity.ReasonUnsuppressed})
		}
		return nil
	case "/actions_minor":
		return cs.transitionSensorAction(ctx, host, s, bmcmodel.SeverityMinor, bmcmodel.Action(op.Value), &s.Actions.Minor)
	case "/actions_major":
		return cs.transitionSensorAction(ctx, host, s, bmcmodel.SeverityMajor, bmcmodel.Action(op.Value), &s.Actions.Major)
	case "/actions_critical":
		return cs.transitionSensorAction(ctx, host, s, bmcmodel.SeverityCritical, bmcmodel.Action(op.Value), &s.Actions.Critical)
	default:
		return nil
	}
}

func (cs *CoreState) transitionSensorAction(ctx context.Context, host *bmcmodel.Host, s *bmcmodel.Sensor, sev bmcmodel.Severity, next bmcmodel.Action, slot *bmcmodel.Action) error {
	if !severity.ActionAllowed(sev, next, host.Deployment) {
		return fmt.Errorf("%w: %s action %q", severity.ErrBadState, sev, next)
	}
	cur := *slot
	eff := severity.Transition(s, sev, cur, next)
	*slot = next
	cs.publishEffect(ctx, host, s.UUID, eff)
	return nil
}

// handleGroupModify applies an inbound PATCH .../isensorgroups/{uuid}
// and propagates a configured-action or suppress change onto every
// member sensor, matching spec.md §4.5 scenario 3 and 4. Like the
// sensor handler it holds the host lock for the whole PATCH.
func (cs *CoreState) handleGroupModify(ctx context.Context, groupUUID string, ops []invsrv.PatchOp) error {
	host, err := cs.findGroupHost(groupUUID)
	if err != nil {
		return err
	}

	host.Lock()
	defer host.Unlock()
	group := host.GroupByUUID(groupUUID)
	if group == nil {
		return fmt.Errorf("%w: %w", invsrv.ErrNotFound, ErrUnknownHost)
	}

	for _, op := range ops {
		switch op.Path {
		case "/suppress":
			group.Suppress = op.Value == "true"
			for _, sid := range group.Sensors {
				s := &host.Sensors[sid]
				was := s.Suppress
				s.Suppress = group.Suppress
				if s.Suppress {
					eff := severity.Evaluate(s, host.Deployment)
					cs.publishEffect(ctx, host, s.UUID, eff)
				} else if was {
					cs.publishEffect(ctx, host, s.UUID, severity.Effects{LogLine: true, Reason: severity.ReasonUnsuppressed})
				}
			}
		case "/actions_minor_group":
			if err := cs.propagateGroupAction(ctx, host, group, bmcmodel.SeverityMinor, bmcmodel.Action(op.Value)); err != nil {
				return err
			}
		case "/actions_major_group":
			if err := cs.propagateGroupAction(ctx, host, group, bmcmodel.SeverityMajor, bmcmodel.Action(op.Value)); err != nil {
				return err
			}
		case "/actions_critical_group":
			if err := cs.propagateGroupAction(ctx, host, group, bmcmodel.SeverityCritical, bmcmodel.Action(op.Value)); err != nil {
				return err
			}
		case "/audit_interval_group":
			seconds, err := strconv.Atoi(op.Value)
			if err != nil {
				return fmt.Errorf("core: invalid audit_interval_group %q: %w", op.Value, err)
			}
			group.AuditInterval = seconds
			host.AuditInterval = minAuditInterval(host, seconds)
			// The effective host interval flows back into every group
			// (spec.md §3: "propagated into every group on change").
			for gi := range host.Groups {
				host.Groups[gi].AuditInterval = host.AuditInterval
			}
			cs.monitorSoon(host.Hostname)
		}
	}
	return nil
}

func (cs *CoreState) propagateGroupAction(ctx context.Context, host *bmcmodel.Host, group *bmcmodel.Group, sev bmcmodel.Severity, next bmcmodel.Action) error {
	if !severity.ActionAllowed(sev, next, host.Deployment) {
		return fmt.Errorf("%w: %s action %q", severity.ErrBadState, sev, next)
	}
	switch sev {
	case bmcmodel.SeverityMinor:
		group.Actions.Minor = next
	case bmcmodel.SeverityMajor:
		group.Actions.Major = next
	default:
		group.Actions.Critical = next
	}
	for _, sid := range group.Sensors {
		s := &host.Sensors[sid]
		var slot *bmcmodel.Action
		switch sev {
		case bmcmodel.SeverityMinor:
			slot = &s.Actions.Minor
		case bmcmodel.SeverityMajor:
			slot = &s.Actions.Major
		default:
			slot = &s.Actions.Critical
		}
		if err := cs.transitionSensorAction(ctx, host, s, sev, next, slot); err != nil {
			return err
		}
	}
	return nil
}

func minAuditInterval(host *bmcmodel.Host, candidate int) int {
	min := candidate
	for _, g := range host.Groups {
		if g.AuditInterval > 0 && g.AuditInterval < min {
			min = g.AuditInterval
		}
	}
	if min < bmcmodel.MinAuditInterval {
		min = bmcmodel.MinAuditInterval
	}
	return min
}

// handleRelearn handles an inbound POST .../isensorgroups/ relearn
// request (spec.md §4.4 item 3, §6). A relearn already in progress is
// refused with the same projected deadline (spec.md §8 quantified
// invariant).
func (cs *CoreState) handleRelearn(ctx context.Context, hostUUID string) error {
	entry, err := cs.Registry.LookupByUUID(hostUUID)
	if err != nil {
		return fmt.Errorf("%w: %w", invsrv.ErrNotFound, err)
	}
	host := entry.Host

	host.Lock()
	defer host.Unlock()

	if host.RelearnMode && host.RelearnDeadline > 0 {
		return fmt.Errorf("%w: deadline %d", invsrv.ErrRelearnInProgress, host.RelearnDeadline)
	}

	deadline := time.Now().Add(RelearnWindow).Unix()
	if err := model.Relearn(ctx, cs.Inv, host, deadline); err != nil {
		if errors.Is(err, model.ErrRelearnPending) {
			cs.scheduleRelearnRetry(host, deadline)
		}
		return err
	}
	return nil
}

// scheduleRelearnRetry reschedules a relearn whose delete phase failed
// partway through, per spec.md §4.4 ("return to the caller so the FSM
// retries with back-off; minimum wait 1 minute between attempts"). It
// does not roll back the deletes that already succeeded; the next
// attempt simply continues deleting whatever remains in h.Sensors/
// h.Groups.
func (cs *CoreState) scheduleRelearnRetry(host *bmcmodel.Host, deadline int64) {
	go func() {
		time.Sleep(RelearnMinBackoff)
		ctx, cancel := context.WithTimeout(context.Background(), RelearnWindow)
		defer cancel()
		host.Lock()
		err := model.Relearn(ctx, cs.Inv, host, deadline)
		attempt := host.RelearnRetryCount
		host.Unlock()
		if err != nil {
			if errors.Is(err, model.ErrRelearnPending) {
				cs.Logger.Warn("relearn delete retry failed, rescheduling", "host", host.Hostname, "attempt", attempt, "error", err)
				cs.scheduleRelearnRetry(host, deadline)
				return
			}
			cs.Logger.Error("relearn retry failed", "host", host.Hostname, "error", err)
		}
	}()
}
