// SPDX-License-Identifier: BSD-3-Clause

package core

import (
	"context"
	"fmt"
	"time"

	"cirello.io/oversight/v2"
	"github.com/nats-io/nats.go"

	"github.com/starlingx/hwmond/internal/transport/invsrv"
	"github.com/starlingx/hwmond/internal/transport/udpcmd"
)

// Service is one supervised component of the hwmond process: the core
// state itself, the UDP command inbox, or the inbound inventory
// listener. Run blocks until ctx is canceled or the component fails; a
// non-nil error asks the supervision tree to restart it. The ipcConn
// parameter carries a shared in-process NATS connection for components
// that publish on the internal bus; components that own their own bus
// ignore it.
type Service interface {
	Name() string
	Run(ctx context.Context, ipcConn nats.InProcessConnProvider) error
}

// Wrap adapts a Service into an oversight.ChildProcess, the same shape
// pkg/process wraps services in for the teacher's supervision tree: a
// panic inside Run is recovered and reported as an error rather than
// taking the whole process down, so oversight's restart strategy gets a
// chance to act on it.
func Wrap(s Service, ipcConn nats.InProcessConnProvider) oversight.ChildProcess {
	return func(ctx context.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%s panicked: %v", s.Name(), r)
			}
		}()
		return s.Run(ctx, ipcConn)
	}
}

// CmdInboxService wraps the UDP command-inbox listener (spec.md §6) as a
// Service so it sits under the same supervision tree as CoreState.
type CmdInboxService struct {
	Listener *udpcmd.Listener
}

var _ Service = (*CmdInboxService)(nil)

func (s *CmdInboxService) Name() string { return "hwmond-cmd-inbox" }

func (s *CmdInboxService) Run(ctx context.Context, _ nats.InProcessConnProvider) error {
	return s.Listener.Serve(ctx)
}

// InvSrvService wraps the inbound inventory/orchestration HTTP listener
// (spec.md §6) as a Service.
type InvSrvService struct {
	Server *invsrv.Server
}

var _ Service = (*InvSrvService)(nil)

func (s *InvSrvService) Name() string { return "hwmond-invsrv" }

func (s *InvSrvService) Run(ctx context.Context, _ nats.InProcessConnProvider) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.Server.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Server.Shutdown(shutdownCtx)
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}
