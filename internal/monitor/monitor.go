// SPDX-License-Identifier: BSD-3-Clause

package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/qmuntal/stateless"

	"github.com/starlingx/hwmond/internal/bmcmodel"
	"github.com/starlingx/hwmond/internal/bmcworker"
	"github.com/starlingx/hwmond/internal/model"
	"github.com/starlingx/hwmond/internal/severity"
)

// MaxThreadRetries bounds how many times Parse retries a retryable
// worker error within one FSM cycle before promoting to Fail.
const MaxThreadRetries = 3

// ThreadTimeout is the BMC worker's own internal timeout; the umbrella
// around it is ThreadTimeout+5s (spec.md §4.1).
const ThreadTimeout = 15 * time.Second

// ThreadPostKillWait is how long cancellation waits after sending a kill
// before advancing (spec.md §4.1 Cancellation).
const ThreadPostKillWait = 2 * time.Second

// PowerOffRestartWait is Power's back-off before retrying when the host
// is off or the worker failed (spec.md §4.1: "1-minute restart").
const PowerOffRestartWait = time.Minute

// RetryDelay is the short back-off Parse schedules before re-reading
// after a retryable worker error, well under the audit interval.
const RetryDelay = 5 * time.Second

// InitialLearnInterval is the fast cadence used between the creation of
// a brand-new model and its first completed Handle pass, after which the
// host's configured audit interval takes over (spec.md §8 scenario 1).
const InitialLearnInterval = 5 * time.Second

// EffectSink receives one severity.Effects per sensor the Handle stage
// evaluates, so the core can turn them into alarms, degrade signals, and
// outbound maintenance events without this package doing any I/O.
type EffectSink func(ctx context.Context, host *bmcmodel.Host, sensorUUID string, eff severity.Effects)

// GroupSync reflects a group's state back onto the external inventory.
// The Update stage calls it whenever a group transitions into enabled,
// so the inventory's isensorgroups record stays in sync (spec.md §4.1
// Update: "ensures all groups are enabled in the external inventory").
type GroupSync func(ctx context.Context, host *bmcmodel.Host, groupUUID string)

// Monitor drives one host through the eleven-stage FSM (spec.md §4.1).
type Monitor struct {
	Host       *bmcmodel.Host
	Worker     bmcworker.Client
	Inventory  model.Inventory
	Sink       EffectSink
	GroupSync  GroupSync
	Logger     *slog.Logger
	ScratchDir string

	mu          sync.Mutex
	sm          *stateless.StateMachine
	retries     int
	firmwareSet bool
	lastSamples []bmcworker.Sample
	lastErr     error
	retryDelay  bool
	learnDelay  bool
	killCh      chan struct{}
}

// New constructs a Monitor sitting in Idle for the given host.
func New(host *bmcmodel.Host, worker bmcworker.Client, inv model.Inventory, sink EffectSink, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return &Monitor{
		Host:      host,
		Worker:    worker,
		Inventory: inv,
		Sink:      sink,
		Logger:    logger.With("component", "monitor", "host", host.Hostname),
		killCh:    make(chan struct{}, 1),
	}
}

// Stage returns the FSM's current stage.
func (m *Monitor) Stage() Stage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sm == nil {
		m.sm = newStageMachine()
	}
	st, _ := m.sm.State(context.Background())
	return st.(Stage)
}

func (m *Monitor) goTo(ctx context.Context, to Stage) error {
	m.mu.Lock()
	if m.sm == nil {
		m.sm = newStageMachine()
	}
	sm := m.sm
	m.mu.Unlock()
	if err := sm.FireCtx(ctx, string(to)); err != nil {
		return fmt.Errorf("monitor: illegal transition to %s: %w", to, err)
	}
	return nil
}

// Kill wakes a Delay or Restart wait in progress, so the FSM moves on at
// once (Delay to Read, Restart to Start) and an interval change takes
// effect immediately instead of after the old interval expires. A Kill
// sent while no wait is in progress is held and wakes the next one. Kill
// does not stop a worker that is already running and does not itself
// change the stage; canceling the ctx passed to Run stops the worker.
func (m *Monitor) Kill() {
	select {
	case m.killCh <- struct{}{}:
	default:
	}
}

// Run executes one pass of whatever the current stage requires and
// advances the FSM. Callers (the core's per-host goroutine) call Run in
// a loop; Run itself blocks only for the duration of one stage's work
// (a worker launch, a stage delay), never indefinitely, so ctx
// cancellation is always observed within one stage's timeout.
func (m *Monitor) Run(ctx context.Context) error {
	if m.sm == nil {
		m.mu.Lock()
		m.sm = newStageMachine()
		m.mu.Unlock()
	}

	switch m.Stage() {
	case StageIdle:
		return m.runIdle(ctx)
	case StageStart:
		return m.runStart(ctx)
	case StagePower:
		return m.runPower(ctx)
	case StageRestart:
		return m.runRestart(ctx)
	case StageDelay:
		return m.runDelay(ctx)
	case StageRead:
		return m.runRead(ctx)
	case StageParse:
		return m.runParse(ctx)
	case StageCheck:
		return m.runCheck(ctx)
	case StageUpdate:
		return m.runUpdate(ctx)
	case StageHandle:
		return m.runHandle(ctx)
	case StageFail:
		return m.runFail(ctx)
	}
	return nil
}

func (m *Monitor) runIdle(ctx context.Context) error {
	m.Host.Lock()
	ready := m.Host.MonitorEnabled && m.Host.Provisioned
	m.Host.Unlock()
	if ready {
		return m.goTo(ctx, StageStart)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Second):
		return nil
	}
}

func (m *Monitor) runStart(ctx context.Context) error {
	m.retries = 0
	m.Host.Lock()
	needPower := !m.Host.PowerOn && len(m.Host.Sensors) == 0 && !m.Host.RelearnMode
	m.Host.Unlock()
	if needPower {
		return m.goTo(ctx, StagePower)
	}
	return m.goTo(ctx, StageDelay)
}

func (m *Monitor) runPower(ctx context.Context) error {
	wctx, cancel := context.WithTimeout(ctx, ThreadTimeout)
	defer cancel()

	res, err := m.Worker.Run(wctx, bmcworker.CommandPowerStatus, m.credentials(), m.ScratchDir)
	if err != nil || !res.PowerOn {
		if err != nil {
			m.Logger.Warn("power status worker failed", "error", err)
		}
		return m.goTo(ctx, StageRestart)
	}
	m.Host.Lock()
	m.Host.PowerOn = true
	m.Host.PowerOnLearnedOnce = true
	m.Host.Unlock()
	return m.goTo(ctx, StageRestart)
}

func (m *Monitor) runRestart(ctx context.Context) error {
	m.Host.Lock()
	on := m.Host.PowerOn
	m.Host.Unlock()
	if on {
		return m.goTo(ctx, StageStart)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-m.killCh:
	case <-time.After(PowerOffRestartWait):
	}
	return m.goTo(ctx, StageStart)
}

func (m *Monitor) runDelay(ctx context.Context) error {
	m.Host.Lock()
	interval := time.Duration(m.Host.AuditInterval) * time.Second
	m.Host.Unlock()
	if interval < bmcmodel.MinAuditInterval*time.Second {
		interval = bmcmodel.MinAuditInterval * time.Second
	}
	switch {
	case m.retryDelay:
		m.retryDelay = false
		interval = RetryDelay
	case m.learnDelay:
		interval = InitialLearnInterval
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-m.killCh:
		return m.goTo(ctx, StageRead)
	case <-time.After(interval):
		return m.goTo(ctx, StageRead)
	}
}

func (m *Monitor) runRead(ctx context.Context) error {
	// Umbrella timeout: the worker's own budget plus 5s of slack
	// (spec.md §4.1 Read).
	wctx, cancel := context.WithTimeout(ctx, ThreadTimeout+5*time.Second)
	defer cancel()

	res, err := m.Worker.Run(wctx, bmcworker.CommandSensorRead, m.credentials(), m.ScratchDir)
	m.lastErr = err
	if err == nil {
		m.lastSamples = res.Samples
		if res.FirmwareVersion != "" {
			m.maybeCaptureFirmware(res.FirmwareVersion)
		}
	}
	return m.goTo(ctx, StageParse)
}

func (m *Monitor) runParse(ctx context.Context) error {
	if m.lastErr != nil && errors.Is(m.lastErr, bmcworker.ErrMissingEnvelopeHeader) {
		m.Logger.Error("sensor read output unparseable", "error", m.lastErr)
		return m.goTo(ctx, StageFail)
	}
	if m.lastErr != nil || len(m.lastSamples) == 0 {
		m.retries++
		if m.retries > MaxThreadRetries {
			m.Logger.Error("sensor read exhausted retries", "error", m.lastErr)
			return m.goTo(ctx, StageFail)
		}
		m.Logger.Warn("sensor read retrying", "error", m.lastErr, "attempt", m.retries)
		m.retryDelay = true
		return m.goTo(ctx, StageDelay)
	}
	m.retries = 0
	return m.goTo(ctx, StageCheck)
}

func (m *Monitor) runCheck(ctx context.Context) error {
	m.Host.Lock()
	defer m.Host.Unlock()

	names := make([]string, len(m.lastSamples))
	for i, s := range m.lastSamples {
		names[i] = s.Name
	}
	m.Host.SampleChecksum = bmcmodel.SampleProfileChecksum(names)

	if len(m.Host.Sensors) == 0 {
		samples := make([]model.Sample, len(m.lastSamples))
		for i, s := range m.lastSamples {
			dt := bmcmodel.DataTypeAnalog
			if s.Unit == "" {
				// ipmitool's sdr elist carries no engineering unit for
				// discrete sensors; an empty unit is how this worker
				// tells analog and discrete readings apart (spec.md §3,
				// §4.4 item 2).
				dt = bmcmodel.DataTypeDiscrete
			}
			samples[i] = model.Sample{Name: s.Name, Unit: s.Unit, Type: dt}
		}
		quantaKnown := model.IsQuantaProfile(m.Host.SampleChecksum)
		if err := model.CreateFromSamples(ctx, m.Inventory, m.Host, samples, quantaKnown); err != nil {
			m.Logger.Error("model create from samples failed", "error", err)
			m.raiseConfigAlarm(ctx)
			return m.goTo(ctx, StageFail)
		}
		if m.Host.RelearnMode {
			if err := model.RestorePreservedActions(ctx, m.Inventory, m.Host); err != nil {
				m.Logger.Warn("restore preserved actions failed", "error", err)
			}
		}
		m.learnDelay = true
		return m.goTo(ctx, StageStart)
	}

	return m.goTo(ctx, StageUpdate)
}

func (m *Monitor) runUpdate(ctx context.Context) error {
	m.Host.Lock()
	defer m.Host.Unlock()

	if m.Host.ConfigAlarm {
		m.Host.ConfigAlarm = false
		if m.Sink != nil {
			m.Sink(ctx, m.Host, "", severity.Effects{Config: true, AlarmClear: true, Reason: severity.ReasonOK})
		}
	}

	bySensor := make(map[string]bmcworker.Sample, len(m.lastSamples))
	for _, s := range m.lastSamples {
		bySensor[s.Name] = s
	}

	for i := range m.Host.Sensors {
		s := &m.Host.Sensors[i]
		sample, found := bySensor[s.Name]
		var sampled bmcmodel.Severity
		if found {
			s.SampleStatusLast = s.SampleStatus
			s.SampleStatus = sample.Status
			sampled = severity.DeriveFromStatus(sample.Status)
		}
		eff, engaged := severity.ApplyDebounce(s, found, sampled)
		s.SampleSeverity = eff
		if engaged {
			m.Logger.Info("sensor update-miss debounce engaged", "sensor", s.Name)
		}
	}

	for gi := range m.Host.Groups {
		g := &m.Host.Groups[gi]
		wasEnabled := g.GroupState == bmcmodel.GroupStateEnabled
		g.GroupState = bmcmodel.GroupStateEnabled
		if g.Failed {
			g.Failed = false
			if g.Alarmed {
				g.Alarmed = false
				if m.Sink != nil {
					m.Sink(ctx, m.Host, g.UUID, severity.Effects{AlarmClear: true, Reason: severity.ReasonOK})
				}
			}
		}
		if !wasEnabled && m.GroupSync != nil {
			m.GroupSync(ctx, m.Host, g.UUID)
		}
	}

	return m.goTo(ctx, StageHandle)
}

func (m *Monitor) runHandle(ctx context.Context) error {
	m.Host.Lock()
	defer m.Host.Unlock()

	for i := range m.Host.Sensors {
		s := &m.Host.Sensors[i]
		if s.State == bmcmodel.StateDisabled {
			continue
		}
		eff := severity.Evaluate(s, m.Host.Deployment)
		if m.Sink != nil {
			m.Sink(ctx, m.Host, s.UUID, eff)
		}
		if heal := severity.SelfHealIgnoredStillAlarmed(s); heal.AlarmClear && m.Sink != nil {
			m.Sink(ctx, m.Host, s.UUID, heal)
		}
	}

	model.MaybeExitRelearn(m.Host)
	m.learnDelay = false
	return m.goTo(ctx, StageDelay)
}

func (m *Monitor) runFail(ctx context.Context) error {
	m.Host.Lock()
	defer m.Host.Unlock()

	for gi := range m.Host.Groups {
		g := &m.Host.Groups[gi]
		g.GroupState = bmcmodel.GroupStateFailed
		if !g.Failed {
			g.Failed = true
			g.Alarmed = true
			if m.Sink != nil {
				m.Sink(ctx, m.Host, g.UUID, severity.Effects{AlarmAssert: true, Reason: severity.ReasonDegraded})
			}
		}
	}
	m.Host.PowerOn = false

	if m.Host.AuditInterval > 0 {

		return m.goTo(ctx, StageStart)
	}
	return m.goTo(ctx, StageIdle)
}

// raiseConfigAlarm asserts the host-level sensor-configuration alarm the
// Update stage clears once a cycle completes cleanly (spec.md §4.1).
func (m *Monitor) raiseConfigAlarm(ctx context.Context) {
	if m.Host.ConfigAlarm {
		return
	}
	m.Host.ConfigAlarm = true
	if m.Sink != nil {
		m.Sink(ctx, m.Host, "", severity.Effects{Config: true, AlarmAssert: true, Reason: severity.ReasonDegraded})
	}
}

// credentials copies the BMC access tuple out under the host lock, so
// the worker never touches the host record directly (spec.md §5).
func (m *Monitor) credentials() bmcworker.Credentials {
	m.Host.Lock()
	defer m.Host.Unlock()
	return bmcworker.Credentials{
		Address:  m.Host.BMCAddress,
		Username: m.Host.BMCUsername,
		Password: m.Host.BMCPassword,
	}
}

func (m *Monitor) maybeCaptureFirmware(version string) {
	if m.firmwareSet {
		return
	}
	m.firmwareSet = true
	m.Logger.Info("captured bmc firmware version", "version", version)
}
