// SPDX-License-Identifier: BSD-3-Clause

// Command hwmond is the hardware monitoring agent: it polls BMCs over
// IPMI, learns and relearns a sensor model, drives the severity-action
// engine, and relays faults to the maintenance agent and orchestration
// layer (spec.md §1).
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cirello.io/oversight/v2"

	"github.com/starlingx/hwmond/internal/bmcmodel"
	"github.com/starlingx/hwmond/internal/bmcworker"
	"github.com/starlingx/hwmond/internal/config"
	"github.com/starlingx/hwmond/internal/core"
	"github.com/starlingx/hwmond/internal/ipc"
	"github.com/starlingx/hwmond/internal/logging"
	"github.com/starlingx/hwmond/internal/telemetry"
	"github.com/starlingx/hwmond/internal/transport/invapi"
	"github.com/starlingx/hwmond/internal/transport/invsrv"
	"github.com/starlingx/hwmond/internal/transport/secretapi"
	"github.com/starlingx/hwmond/internal/transport/udpcmd"
)

// childTimeout bounds how long the supervision tree waits for a child
// to shut down cleanly before it is considered stuck (spec.md §9).
const childTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "hwmond:", err)
		os.Exit(1)
	}
}

func run() error {
	confPath := flag.String("conf", "/etc/hwmon.d/hwmon.conf", "path to hwmon.conf")
	invURL := flag.String("inventory-url", "http://127.0.0.1:6385", "inventory/orchestration API base URL")
	secretURL := flag.String("secret-url", "http://127.0.0.1:6387", "secret store API base URL")
	authUser := flag.String("auth-user", "hwmon", "keystone service username")
	authPassword := flag.String("auth-password", "", "keystone service password")
	cmdAddr := flag.String("cmd-addr", "", "UDP address for the command inbox, overrides hwmon.conf cmd_port")
	eventAddr := flag.String("event-addr", "127.0.0.1:2112", "UDP address of the maintenance agent's event listener")
	invSrvAddr := flag.String("invsrv-addr", "127.0.0.1:2114", "loopback address for the inbound inventory listener")
	scratchDir := flag.String("scratch-dir", "/var/run/hwmond", "scratch directory for ipmitool password files")
	ipmitoolPath := flag.String("ipmitool", "ipmitool", "path to the ipmitool binary")
	simplex := flag.Bool("simplex", false, "single-node deployment: reset/power-cycle actions are disallowed")
	flag.Parse()

	telemetry.Setup()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = telemetry.Shutdown(ctx)
	}()

	logger := logging.New(slog.LevelInfo)
	logging.SetGlobalLogger(logger)

	cfg, err := loadConfig(*confPath)
	if err != nil {
		logger.Warn("failed to load hwmon.conf, continuing with defaults", "path", *confPath, "error", err)
		cfg = config.New()
	}

	if *cmdAddr == "" {
		*cmdAddr = fmt.Sprintf("127.0.0.1:%d", cfg.CmdPort)
	}

	if err := os.MkdirAll(*scratchDir, 0o700); err != nil {
		return fmt.Errorf("hwmond: create scratch dir: %w", err)
	}

	tokens := &core.TokenSource{
		AuthURL:  fmt.Sprintf("http://%s:%d/v3/auth/tokens", cfg.AuthHost, cfg.KeystonePort),
		Username: *authUser,
		Password: *authPassword,
	}

	inv := invapi.NewClient(*invURL, tokens)
	secrets := secretapi.NewClient(*secretURL)
	worker := &bmcworker.IPMIToolClient{BinaryPath: *ipmitoolPath}

	bus, err := ipc.NewBus(logger)
	if err != nil {
		return fmt.Errorf("hwmond: start internal bus: %w", err)
	}
	defer bus.Drain()

	emitter, err := udpcmd.NewEmitter(*eventAddr)
	if err != nil {
		return fmt.Errorf("hwmond: dial event outbox at %s: %w", *eventAddr, err)
	}
	defer emitter.Close()

	cs := core.New(cfg, logger, worker, inv, secrets, tokens, bus, emitter, *scratchDir)
	if *simplex {
		cs.Deployment = bmcmodel.DeploymentSimplex
	}

	invSrv := invsrv.NewServer(*invSrvAddr, cs.InvHandlers(), logger.With("component", "invsrv"))

	cmdListener, err := udpcmd.Listen(*cmdAddr, commandDispatcher(cs, logger), logger.With("component", "cmdinbox"))
	if err != nil {
		return fmt.Errorf("hwmond: bind command inbox at %s: %w", *cmdAddr, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tree := oversight.New(
		oversight.NeverHalt(),
		oversight.DefaultRestartStrategy(),
		oversight.WithLogger(oversightLogger(logger)),
	)

	children := []struct {
		name string
		proc oversight.ChildProcess
	}{
		{cs.Name(), core.Wrap(cs, nil)},
		{"hwmond-cmd-inbox", core.Wrap(&core.CmdInboxService{Listener: cmdListener}, nil)},
		{"hwmond-invsrv", core.Wrap(&core.InvSrvService{Server: invSrv}, nil)},
	}
	for _, c := range children {
		if err := tree.Add(c.proc, oversight.Transient(), oversight.Timeout(childTimeout), c.name); err != nil {
			return fmt.Errorf("hwmond: add %s to supervision tree: %w", c.name, err)
		}
	}

	logger.Info("hwmond starting", "cmd_addr", *cmdAddr, "invsrv_addr", *invSrvAddr, "event_addr", *eventAddr)
	err = tree.Start(ctx)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func loadConfig(path string) (*config.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	opts, err := config.LoadINI(f)
	if err != nil {
		return nil, err
	}
	return config.New(opts...), nil
}

// commandDispatcher routes decoded command-inbox requests (spec.md §6)
// onto the matching CoreState method. Handler errors are logged rather
// than surfaced, since there's no reply channel back to the sender on
// the UDP command socket.
func commandDispatcher(cs *core.CoreState, logger *slog.Logger) udpcmd.Handler {
	return func(ctx context.Context, req udpcmd.Request) {
		var err error
		switch req.Command {
		case udpcmd.CommandAddHost:
			err = cs.AddHost(ctx, req.Payload)
		case udpcmd.CommandModHost:
			err = cs.ModifyHost(ctx, req.Payload)
		case udpcmd.CommandDelHost:
			err = cs.DeleteHost(ctx, req.Payload.Hostname)
		case udpcmd.CommandStartMonitor:
			err = cs.StartMonitor(ctx, req.Payload.Hostname)
		case udpcmd.CommandStopMonitor:
			err = cs.StopMonitor(ctx, req.Payload.Hostname)
		case udpcmd.CommandQueryHost:
			_, err = cs.QueryHost(ctx, req.Payload.Hostname)
		}
		if err != nil {
			logger.Warn("command inbox dispatch failed", "command", req.Command, "hostname", req.Payload.Hostname, "error", err)
		}
	}
}

// oversightLogger adapts the process-wide slog.Logger into the low
// chatter oversight.Logger hook (one variadic line per supervision
// event), the same shim pkg/log/oversight.go provides for the teacher's
// own operator tree.
func oversightLogger(l *slog.Logger) oversight.Logger {
	return func(args ...any) {
		l.Debug("oversight", "msg", fmt.Sprint(args...))
	}
}
