// SPDX-License-Identifier: BSD-3-Clause

package core

import (
	"context"
	"log/slog"

	"github.com/starlingx/hwmond/internal/bmcmodel"
	"github.com/starlingx/hwmond/internal/severity"
	"github.com/starlingx/hwmond/internal/transport/udpcmd"
)

// effectSubject is the internal bus subject the Severity-Action Engine's
// Effects land on, decoupling the Handle stage (internal/monitor) from
// the outbound UDP event encoder (spec.md §6) the way the teacher
// decouples sensormon's readings from its subscribers over NATS.
const effectSubject = "hwmon.effects"

// effectMsg is the wire shape published for one sensor's per-tick
// Effects (internal/severity). It carries just enough identity for the
// subscriber to render an mtce_event without reaching back into host
// state from a different goroutine.
type effectMsg struct {
	Hostname   string
	SensorUUID string
	SensorName string
	Severity   bmcmodel.Severity

	AlarmAssert   bool
	AlarmClear    bool
	Reason        severity.Reason
	DegradeAssert bool
	DegradeClear  bool
	Recovery      severity.RecoveryKind
	LogLine       bool
	Config        bool
}

// publishEffect renders one severity.Effects onto the bus. Used as the
// monitor.EffectSink for every host's Monitor (spec.md §4.1 Handle, §4.5).
// Callers hold the host lock (or own the host exclusively, as during
// construction); publishEffect reads the tables without locking itself.
func (cs *CoreState) publishEffect(ctx context.Context, host *bmcmodel.Host, sensorUUID string, eff severity.Effects) {
	name := sensorUUID
	sev := bmcmodel.SeverityGood
	if sensorUUID != "" {
		found := false
		for i := range host.Sensors {
			if host.Sensors[i].UUID == sensorUUID {
				name = host.Sensors[i].Name
				sev = host.Sensors[i].Severity
				found = true
				break
			}
		}
		if !found {
			// Group-level effects (the Fail stage's per-group alarm)
			// address the group's uuid rather than a sensor's.
			for i := range host.Groups {
				if host.Groups[i].UUID == sensorUUID {
					name = host.Groups[i].Name
					sev = bmcmodel.SeverityCritical
					break
				}
			}
		}
	}

	msg := effectMsg{
		Hostname:      host.Hostname,
		SensorUUID:    sensorUUID,
		SensorName:    name,
		Severity:      sev,
		AlarmAssert:   eff.AlarmAssert,
		AlarmClear:    eff.AlarmClear,
		Reason:        eff.Reason,
		DegradeAssert: eff.DegradeAssert,
		DegradeClear:  eff.DegradeClear,
		Recovery:      eff.Recovery,
		LogLine:       eff.LogLine,
		Config:        eff.Config,
	}
	if !msg.AlarmAssert && !msg.AlarmClear && !msg.DegradeAssert && !msg.DegradeClear &&
		msg.Recovery == severity.RecoveryNone && !msg.LogLine {
		return
	}
	if err := cs.Bus.Publish(effectSubject, msg); err != nil {
		cs.Logger.Warn("failed to publish sensor effect", "error", err, "host", host.Hostname, "sensor", name)
	}
}

// startEffectConsumer subscribes to effectSubject and turns each message
// into the outbound mtce_event datagrams spec.md §6 defines, plus a log
// line for log-only outcomes. It runs for the process lifetime; one
// subscriber serves every host.
func (cs *CoreState) startEffectConsumer(ctx context.Context) error {
	_, err := subscribeEffects(ctx, cs)
	return err
}

func (cs *CoreState) consumeEffect(ctx context.Context, msg effectMsg) {
	log := cs.Logger.With("host", msg.Hostname, "sensor", msg.SensorName)

	switch msg.Recovery {
	case severity.RecoveryReset:
		cs.emit(log, udpcmd.Event{Kind: udpcmd.EventReset, Hostname: msg.Hostname, Sensor: msg.SensorName})
	case severity.RecoveryPowerCycle:
		cs.emit(log, udpcmd.Event{Kind: udpcmd.EventPowerCycle, Hostname: msg.Hostname, Sensor: msg.SensorName})
	}

	switch {
	case msg.DegradeAssert:
		cs.emit(log, udpcmd.Event{Kind: udpcmd.EventDegradeRaise, Hostname: msg.Hostname, Sensor: msg.SensorName})
	case msg.DegradeClear:
		cs.emit(log, udpcmd.Event{Kind: udpcmd.EventDegradeClear, Hostname: msg.Hostname, Sensor: msg.SensorName})
	}

	switch {
	case msg.AlarmClear:
		log.Info("alarm cleared", "reason", msg.Reason)
		cs.emit(log, udpcmd.Event{Kind: udpcmd.EventHwmonClear, Hostname: msg.Hostname, Sensor: msg.SensorName})
	case msg.AlarmAssert && msg.Config:
		log.Info("sensor configuration alarm raised", "reason", msg.Reason)
		cs.emit(log, udpcmd.Event{Kind: udpcmd.EventHwmonConfig, Hostname: msg.Hostname, Sensor: msg.SensorName})
	case msg.AlarmAssert:
		log.Info("alarm raised", "reason", msg.Reason, "severity", msg.Severity)
		cs.emit(log, udpcmd.Event{Kind: severityEventKind(msg.Severity), Hostname: msg.Hostname, Sensor: msg.SensorName})
	case msg.LogLine:
		log.Info("sensor log entry", "reason", msg.Reason, "severity", msg.Severity)
	}
}

func severityEventKind(sev bmcmodel.Severity) udpcmd.EventKind {
	switch sev.Effective() {
	case bmcmodel.SeverityMinor:
		return udpcmd.EventHwmonMinor
	case bmcmodel.SeverityMajor:
		return udpcmd.EventHwmonMajor
	default:
		return udpcmd.EventHwmonCritical
	}
}

func (cs *CoreState) emit(log *slog.Logger, ev udpcmd.Event) {
	if cs.Emitter == nil {
		return
	}
	if err := cs.Emitter.Emit(ev); err != nil {
		log.Warn("failed to emit maintenance event", "kind", ev.Kind, "error", err)
	}
}
