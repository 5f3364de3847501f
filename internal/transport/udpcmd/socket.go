// SPDX-License-Identifier: BSD-3-Clause

package udpcmd

import (
	"context"
	"fmt"
	"log/slog"
	"net"
)

// Handler processes one decoded command-inbox Request.
type Handler func(ctx context.Context, req Request)

// Listener binds a UDP socket and dispatches decoded Requests to a
// Handler. ADD on an existing host silently converting to MOD is the
// Handler's responsibility (spec.md §6), not this package's.
type Listener struct {
	conn    *net.UDPConn
	Logger  *slog.Logger
	Handler Handler
}

// Listen binds addr and returns a Listener ready for Serve.
func Listen(addr string, handler Handler, logger *slog.Logger) (*Listener, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("udpcmd: resolve %s: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("udpcmd: listen %s: %w", addr, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{conn: conn, Logger: logger, Handler: handler}, nil
}

// Serve reads datagrams until ctx is canceled.
func (l *Listener) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		l.conn.Close()
	}()

	buf := make([]byte, 4096)
	for {
		n, _, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("udpcmd: read: %w", err)
		}
		req, derr := Decode(buf[:n])
		if derr != nil {
			l.Logger.Warn("dropping malformed command datagram", "error", derr)
			continue
		}
		if l.Handler != nil {
			l.Handler(ctx, req)
		}
	}
}

// Close releases the underlying socket.
func (l *Listener) Close() error {
	return l.conn.Close()
}

// Emitter sends event-outbox datagrams to the maintenance agent.
type Emitter struct {
	conn *net.UDPConn
}

// NewEmitter dials the maintenance agent's UDP event port.
func NewEmitter(addr string) (*Emitter, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("udpcmd: resolve %s: %w", addr, err)
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("udpcmd: dial %s: %w", addr, err)
	}
	return &Emitter{conn: conn}, nil
}

// Emit sends one Event.
func (e *Emitter) Emit(ev Event) error {
	datagram, err := EncodeEvent(ev)
	if err != nil {
		return err
	}
	_, err = e.conn.Write(datagram)
	return err
}

// Close releases the underlying socket.
func (e *Emitter) Close() error {
	return e.conn.Close()
}
