// SPDX-License-Identifier: BSD-3-Clause

package core

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/starlingx/hwmond/internal/bmcmodel"
	"github.com/starlingx/hwmond/internal/bmcworker"
	"github.com/starlingx/hwmond/internal/config"
	"github.com/starlingx/hwmond/internal/httpqueue"
	"github.com/starlingx/hwmond/internal/ids"
	"github.com/starlingx/hwmond/internal/ipc"
	"github.com/starlingx/hwmond/internal/model"
	"github.com/starlingx/hwmond/internal/monitor"
	"github.com/starlingx/hwmond/internal/registry"
	"github.com/starlingx/hwmond/internal/severity"
	"github.com/starlingx/hwmond/internal/transport/invapi"
	"github.com/starlingx/hwmond/internal/transport/invsrv"
	"github.com/starlingx/hwmond/internal/transport/secretapi"
	"github.com/starlingx/hwmond/internal/transport/udpcmd"
)

// hostRuntime is the per-host runtime the registry's static Host record
// doesn't carry: the Monitor FSM goroutine, its HTTP work/done queue
// (C6), and the cancellation handle CoreState uses on stop/delete.
type hostRuntime struct {
	monitor *monitor.Monitor
	queue   *httpqueue.Queue
	cancel  context.CancelFunc
	done    chan struct{}
}

// CoreState wires the sensor/group store (C1), BMC worker (C2), monitor
// FSM (C3), model lifecycle (C4), severity-action engine (C5), HTTP
// work/done queue (C6) and host registry (C7) into one process-wide
// struct built once in cmd/hwmond, replacing the globally-addressable
// singleton the original implementation used (spec.md §9).
type CoreState struct {
	Config  *config.Config
	Logger  *slog.Logger
	Worker  bmcworker.Client
	Inv     *invapi.Client
	Secrets *secretapi.Client
	Tokens  *TokenSource
	Bus     *ipc.Bus
	Emitter *udpcmd.Emitter

	Registry   *registry.Registry
	ScratchDir string
	// Deployment gates reset/power-cycle actions: a simplex deployment
	// never resets its only controller node (spec.md §3).
	Deployment bmcmodel.Deployment
	// DeleteTickInterval overrides registry.DeleteWaitInterval between
	// delete-FSM steps; tests shrink this to keep the suite fast.
	DeleteTickInterval time.Duration

	mu       sync.Mutex
	runtimes map[string]*hostRuntime
}

// New builds a CoreState. Worker, Inv, Secrets, Tokens, Bus, and Emitter
// must already be constructed (cmd/hwmond owns their lifetimes); New
// only wires the registry and runtime bookkeeping.
func New(cfg *config.Config, logger *slog.Logger, worker bmcworker.Client, inv *invapi.Client, secrets *secretapi.Client, tokens *TokenSource, bus *ipc.Bus, emitter *udpcmd.Emitter, scratchDir string) *CoreState {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	cs := &CoreState{
		Config:     cfg,
		Logger:     logger.With("component", "core"),
		Worker:     worker,
		Inv:        inv,
		Secrets:    secrets,
		Tokens:     tokens,
		Bus:        bus,
		Emitter:    emitter,
		ScratchDir: scratchDir,
		runtimes:   make(map[string]*hostRuntime),
	}
	cs.Registry = registry.New(cs.killHost)
	cs.Registry.Deprovision = cs.clearAlarmsOnDeprovision
	return cs
}

// clearAlarmsOnDeprovision clears every sensor/group alarm for a host
// whose BMC tuple just changed, with reason "deprovisioned", and emits a
// single DEGRADE_CLEAR (spec.md §3, §8 scenario 5). Registry has already
// driven the host's groups/sensors to disabled/offline by the time this
// runs.
func (cs *CoreState) clearAlarmsOnDeprovision(host *bmcmodel.Host) {
	host.Lock()
	defer host.Unlock()

	degraded := false
	for i := range host.Sensors {
		s := &host.Sensors[i]
		if s.Degraded {
			degraded = true
		}
		if !s.Alarmed && !s.Ignored && s.Actions.MinorState == (bmcmodel.ActionState{}) &&
			s.Actions.MajorState == (bmcmodel.ActionState{}) && s.Actions.CriticalState == (bmcmodel.ActionState{}) {
			continue
		}
		s.Actions.MinorState = bmcmodel.ActionState{}
		s.Actions.MajorState = bmcmodel.ActionState{}
		s.Actions.CriticalState = bmcmodel.ActionState{}
		s.Alarmed = false
		s.Degraded = false
		s.Ignored = false
		cs.publishEffect(context.Background(), host, s.UUID, severity.Effects{AlarmClear: true, Reason: severity.ReasonDeprovisioned})
	}
	for i := range host.Groups {
		host.Groups[i].Alarmed = false
	}
	if degraded {
		cs.publishEffect(context.Background(), host, "", severity.Effects{DegradeClear: true, Reason: severity.ReasonDeprovisioned})
	}
}

// Name implements Service.
func (cs *CoreState) Name() string { return "hwmond" }

// Run implements Service: it starts the internal effect consumer and
// blocks until ctx is canceled, tearing down every host's monitor
// goroutine on the way out. The command inbox and inbound inventory
// listener are separate Service instances (cmd/hwmond) so each can
// be supervised and restarted independently.
func (cs *CoreState) Run(ctx context.Context, _ nats.InProcessConnProvider) error {
	if err := cs.startEffectConsumer(ctx); err != nil {
		return err
	}
	cs.Logger.Info("core state running")
	<-ctx.Done()

	cs.mu.Lock()
	hostnames := make([]string, 0, len(cs.runtimes))
	for h := range cs.runtimes {
		hostnames = append(hostnames, h)
	}
	cs.mu.Unlock()
	for _, h := range hostnames {
		cs.killHost(h)
	}
	return ctx.Err()
}

func subscribeEffects(ctx context.Context, cs *CoreState) (*nats.Subscription, error) {
	return ipc.Subscribe[effectMsg](ctx, cs.Bus, effectSubject, func(ctx context.Context, msg effectMsg) {
		cs.consumeEffect(ctx, msg)
	})
}

// AddHost registers a new host (spec.md §6 ADD_HOST). An ADD on an
// existing hostname silently converts to Modify, per contract.
func (cs *CoreState) AddHost(ctx context.Context, p udpcmd.Payload) error {
	if p.Hostname == "" || p.Hostname == "None" {
		return ErrEmptyHostname
	}

	host := bmcmodel.NewHost(p.Hostname, firstNonEmpty(p.UUID, ids.New()), cs.Deployment)
	host.BMCAddress = p.BMCAddress
	host.BMCUsername = p.BMCUsername
	host.BMCType = p.BMCType
	host.AuditInterval = int(cs.Config.AuditPeriod / time.Second)
	host.Provisioned = registry.ValidBMCTuple(registry.BMCTuple{Address: p.BMCAddress, Username: p.BMCUsername, Type: p.BMCType})

	if err := cs.Registry.Add(host); err != nil {
		if err == registry.ErrRetry {
			return cs.ModifyHost(ctx, p)
		}
		return err
	}

	if host.Provisioned {
		host.Lock()
		err := model.Load(ctx, cs.Inv, host)
		host.Unlock()
		if err != nil {
			cs.Logger.Warn("initial sensor model load failed, will learn from samples", "host", host.Hostname, "error", err)
		}
	}
	return nil
}

// ModifyHost applies a MOD_HOST command (spec.md §6, §4.7).
func (cs *CoreState) ModifyHost(ctx context.Context, p udpcmd.Payload) error {
	return cs.Registry.Modify(p.Hostname, registry.BMCTuple{Address: p.BMCAddress, Username: p.BMCUsername, Type: p.BMCType})
}

// DeleteHost begins asynchronous host removal (spec.md §4.7, §3 Lifecycle):
// it marks the host delete-pending, then launches a goroutine that drives
// the registry's small delete FSM (Start -> Wait -> Done) to completion via
// Registry.Tick, waiting DeleteWaitInterval between steps.
func (cs *CoreState) DeleteHost(ctx context.Context, hostname string) error {
	if err := cs.Registry.Delete(hostname); err != nil {
		return err
	}
	go cs.driveDelete(hostname)
	return nil
}

// driveDelete ticks hostname's delete FSM until Registry.Tick reports it
// done or the host is no longer found (already removed by some other path).
func (cs *CoreState) driveDelete(hostname string) {
	interval := cs.DeleteTickInterval
	if interval <= 0 {
		interval = registry.DeleteWaitInterval
	}
	for {
		done, err := cs.Registry.Tick(hostname)
		if err != nil || done {
			return
		}
		time.Sleep(interval)
	}
}

// StartMonitor enables monitoring for a host and launches its Monitor
// FSM goroutine if it isn't already running.
func (cs *CoreState) StartMonitor(ctx context.Context, hostname string) error {
	entry, err := cs.Registry.Lookup(hostname)
	if err != nil {
		return err
	}
	entry.Host.Lock()
	entry.Host.MonitorEnabled = true
	entry.Host.Unlock()
	return cs.ensureRuntime(entry.Host)
}

// StopMonitor disables monitoring and tears down the host's runtime
// goroutine, driving every group to disabled and every sensor to
// (disabled, offline) per spec.md §3. The runtime is killed before the
// table sweep so no FSM tick races the disable.
func (cs *CoreState) StopMonitor(ctx context.Context, hostname string) error {
	entry, err := cs.Registry.Lookup(hostname)
	if err != nil {
		return err
	}
	entry.Host.Lock()
	entry.Host.MonitorEnabled = false
	entry.Host.Unlock()

	cs.killHost(hostname)

	entry.Host.Lock()
	defer entry.Host.Unlock()
	for gi := range entry.Host.Groups {
		entry.Host.Groups[gi].GroupState = bmcmodel.GroupStateDisabled
	}
	for si := range entry.Host.Sensors {
		entry.Host.Sensors[si].State = bmcmodel.StateDisabled
		entry.Host.Sensors[si].Status = bmcmodel.StatusOffline
	}
	return nil
}

// QueryHost returns the current host record for QUERY_HOST responses.
func (cs *CoreState) QueryHost(ctx context.Context, hostname string) (*bmcmodel.Host, error) {
	entry, err := cs.Registry.Lookup(hostname)
	if err != nil {
		return nil, err
	}
	return entry.Host, nil
}

func (cs *CoreState) ensureRuntime(host *bmcmodel.Host) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if _, exists := cs.runtimes[host.Hostname]; exists {
		return nil
	}

	queue := httpqueue.NewQueue(cs.Inv, cs.Tokens.Refresh, cs.Logger.With("subcomponent", "httpqueue", "host", host.Hostname))
	mon := monitor.New(host, cs.Worker, cs.Inv, cs.publishEffect, cs.Logger)
	mon.ScratchDir = cs.ScratchDir
	mon.GroupSync = cs.groupSyncFor(queue)

	runCtx, cancel := context.WithCancel(context.Background())
	rt := &hostRuntime{monitor: mon, queue: queue, cancel: cancel, done: make(chan struct{})}
	cs.runtimes[host.Hostname] = rt

	cs.passwordBeforeEachWorker(host)

	go cs.runHost(runCtx, host, rt)
	return nil
}

// passwordBeforeEachWorker is a placeholder hook point documenting where
// BMCPassword gets refreshed from the secret store (spec.md §6: "no
// on-disk caching ... populated into bm_password before each worker
// launch"); the actual fetch happens in runHost immediately before each
// Power/Read stage dispatch so a stale password is never reused across
// ticks.
func (cs *CoreState) passwordBeforeEachWorker(host *bmcmodel.Host) {}

func (cs *CoreState) runHost(ctx context.Context, host *bmcmodel.Host, rt *hostRuntime) {
	defer close(rt.done)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		host.Lock()
		provisioned := host.Provisioned
		host.Unlock()
		if provisioned && host.UUID != "" {
			if pw, err := cs.Secrets.Password(ctx, host.UUID); err == nil {
				host.Lock()
				host.BMCPassword = pw
				host.Unlock()
			} else {
				cs.Logger.Debug("secret store password fetch failed, reusing last known password", "host", host.Hostname, "error", err)
			}
		}

		if err := rt.monitor.Run(ctx); err != nil && ctx.Err() == nil {
			cs.Logger.Warn("monitor stage error", "host", host.Hostname, "error", err)
		}
	}
}

// monitorSoon wakes a host's Monitor out of its Delay wait so a changed
// audit interval or an operator's monitor-now request takes effect
// immediately (spec.md §4.1: "monitor_soon()", interval_changed).
func (cs *CoreState) monitorSoon(hostname string) {
	cs.mu.Lock()
	rt, exists := cs.runtimes[hostname]
	cs.mu.Unlock()
	if exists {
		rt.monitor.Kill()
	}
}

// killHost stops a host's Monitor worker and goroutine. It satisfies
// registry.KillFunc for both deprovision and delete-FSM use (spec.md
// §4.1 Cancellation, §4.7).
func (cs *CoreState) killHost(hostname string) {
	cs.mu.Lock()
	rt, exists := cs.runtimes[hostname]
	if exists {
		delete(cs.runtimes, hostname)
	}
	cs.mu.Unlock()
	if !exists {
		return
	}
	rt.monitor.Kill()
	rt.cancel()
	select {
	case <-rt.done:
	case <-time.After(monitor.ThreadPostKillWait * (registry.MaxDeleteKillRetries + 1)):
	}
}

// syncPatchOp mirrors the RFC-6902-style replace op invapi sends, kept
// local to core since invapi's own patchOp type is unexported.
type syncPatchOp struct {
	Path  string `json:"path"`
	Value string `json:"value"`
	Op    string `json:"op"`
}

// groupSyncFor returns the monitor.GroupSync the Update stage calls when
// a group transitions into enabled; it drives queue, the per-host HTTP
// work/done queue (spec.md §6 C6), rather than calling invapi directly,
// so the PATCH gets the same overload/retry/drop policy as any other
// outbound call (spec.md §4.6: "non-critical failures ... silently
// dropped"). It never blocks the FSM goroutine that calls it.
func (cs *CoreState) groupSyncFor(queue *httpqueue.Queue) monitor.GroupSync {
	return func(ctx context.Context, host *bmcmodel.Host, groupUUID string) {
		ops := []syncPatchOp{{Path: "/group_state", Value: string(bmcmodel.GroupStateEnabled), Op: "replace"}}
		payload, err := json.Marshal(ops)
		if err != nil {
			return
		}
		req := &httpqueue.Request{
			Seq:         queue.NextSeq(),
			Method:      "PATCH",
			Path:        "/v1/isensorgroups/" + groupUUID,
			Payload:     payload,
			MaxRetries:  1,
			Timeout:     5 * time.Second,
			NonCritical: true,
		}
		go func() {
			bgCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if _, err := queue.Submit(bgCtx, req); err != nil && err != httpqueue.ErrOverloaded {
				cs.Logger.Debug("group enabled sync failed", "host", host.Hostname, "group", groupUUID, "error", err)
			}
		}()
	}
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// InvHandlers builds the invsrv.Handlers that route inbound sysinv
// callbacks (spec.md §6) into the severity engine and model lifecycle.
func (cs *CoreState) InvHandlers() invsrv.Handlers {
	return invsrv.Handlers{
		SensorModify: cs.handleSensorModify,
		GroupModify:  cs.handleGroupModify,
		Relearn:      cs.handleRelearn,
	}
}
