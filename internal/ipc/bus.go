// SPDX-License-Identifier: BSD-3-Clause

package ipc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

// StartupTimeout bounds how long Bus waits for the embedded server to
// accept connections.
const StartupTimeout = 5 * time.Second

// Bus is an embedded, in-process NATS server plus one client connection
// to it, the way the teacher's service/ipc wires the same two libraries
// together for internal publish/subscribe.
type Bus struct {
	srv    *server.Server
	conn   *nats.Conn
	logger *slog.Logger
}

// NewBus starts an embedded NATS server bound to nothing but its
// in-process pipe (DontListen) and connects a client to it.
func NewBus(logger *slog.Logger) (*Bus, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts := &server.Options{
		ServerName: "hwmond",
		DontListen: true,
		NoLog:      true,
		NoSigs:     true,
	}
	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrServerCreationFailed, err)
	}
	ns.Start()
	if !ns.ReadyForConnections(StartupTimeout) {
		ns.Shutdown()
		return nil, ErrServerNotReady
	}

	conn, err := nats.Connect("", nats.InProcessServer(ns))
	if err != nil {
		ns.Shutdown()
		return nil, fmt.Errorf("ipc: connect to embedded server: %w", err)
	}

	return &Bus{srv: ns, conn: conn, logger: logger.With("component", "ipc")}, nil
}

// Publish JSON-encodes v and publishes it on subject.
func (b *Bus) Publish(subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("ipc: marshal for %s: %w", subject, err)
	}
	return b.conn.Publish(subject, data)
}

// Handler decodes one message body into a fresh T and handles it.
type Handler[T any] func(ctx context.Context, msg T)

// Subscribe registers h on subject until ctx is canceled, decoding each
// message as T. Decode errors are logged and dropped rather than
// crashing the subscriber, matching the Protocol error kind's
// reject-and-continue handling elsewhere in this codebase (spec.md §7).
func Subscribe[T any](ctx context.Context, b *Bus, subject string, h Handler[T]) (*nats.Subscription, error) {
	sub, err := b.conn.Subscribe(subject, func(msg *nats.Msg) {
		var v T
		if err := json.Unmarshal(msg.Data, &v); err != nil {
			b.logger.Warn("dropping malformed bus message", "subject", subject, "error", err)
			return
		}
		h(ctx, v)
	})
	if err != nil {
		return nil, fmt.Errorf("ipc: subscribe %s: %w", subject, err)
	}
	return sub, nil
}

// Drain flushes outstanding messages and closes the client connection,
// then shuts down the embedded server.
func (b *Bus) Drain() {
	if b.conn != nil {
		_ = b.conn.Drain()
	}
	if b.srv != nil {
		b.srv.Shutdown()
		b.srv.WaitForShutdown()
	}
}
