// SPDX-License-Identifier: BSD-3-Clause

package config

import (
	"fmt"
	"time"
)

const (
	DefaultAuditPeriod  = 120 * time.Second
	MinAuditPeriod      = 10 * time.Second
	DefaultTokenRefresh = 0 // disabled
	DefaultEventPort    = 2112
	DefaultCmdPort      = 2113
	DefaultInvEventPort = 2114
	DefaultKeystonePort = 5000
	DefaultAuthHost     = "127.0.0.1"
)

// Config holds hwmond's recognized runtime options (spec.md §6).
type Config struct {
	AuditPeriod  time.Duration
	TokenRefresh time.Duration
	EventPort    int
	CmdPort      int
	InvEventPort int
	KeystonePort int
	AuthHost     string
}

// Option mutates a Config being built up by New.
type Option interface {
	apply(*Config)
}

type auditPeriodOption struct{ period time.Duration }

func (o *auditPeriodOption) apply(c *Config) { c.AuditPeriod = o.period }

// WithAuditPeriod sets the sensor audit interval. It does not check the
// value; Validate rejects one below MinAuditPeriod with
// ErrInvalidConfiguration rather than clamping it.
func WithAuditPeriod(period time.Duration) Option {
	return &auditPeriodOption{period: period}
}

type tokenRefreshOption struct{ rate time.Duration }

func (o *tokenRefreshOption) apply(c *Config) { c.TokenRefresh = o.rate }

// WithTokenRefresh stores the token_refresh_rate value in
// Config.TokenRefresh. No component reads that field: there is no
// periodic token refresh, and the token is refreshed only when an
// httpqueue request gets a 401 or a connection loss.
func WithTokenRefresh(rate time.Duration) Option {
	return &tokenRefreshOption{rate: rate}
}

type eventPortOption struct{ port int }

func (o *eventPortOption) apply(c *Config) { c.EventPort = o.port }

func WithEventPort(port int) Option { return &eventPortOption{port: port} }

type cmdPortOption struct{ port int }

func (o *cmdPortOption) apply(c *Config) { c.CmdPort = o.port }

func WithCmdPort(port int) Option { return &cmdPortOption{port: port} }

type invEventPortOption struct{ port int }

func (o *invEventPortOption) apply(c *Config) { c.InvEventPort = o.port }

func WithInvEventPort(port int) Option { return &invEventPortOption{port: port} }

type keystonePortOption struct{ port int }

func (o *keystonePortOption) apply(c *Config) { c.KeystonePort = o.port }

func WithKeystonePort(port int) Option { return &keystonePortOption{port: port} }

type authHostOption struct{ host string }

func (o *authHostOption) apply(c *Config) { c.AuthHost = o.host }

func WithAuthHost(host string) Option { return &authHostOption{host: host} }

// New builds a Config seeded with defaults, then applies opts in order.
func New(opts ...Option) *Config {
	c := &Config{
		AuditPeriod:  DefaultAuditPeriod,
		TokenRefresh: DefaultTokenRefresh,
		EventPort:    DefaultEventPort,
		CmdPort:      DefaultCmdPort,
		InvEventPort: DefaultInvEventPort,
		KeystonePort: DefaultKeystonePort,
		AuthHost:     DefaultAuthHost,
	}
	for _, opt := range opts {
		opt.apply(c)
	}
	return c
}

// Validate enforces the documented floor on AuditPeriod and basic port
// sanity; it does not mutate the receiver.
func (c *Config) Validate() error {
	if c.AuditPeriod < MinAuditPeriod {
		return fmt.Errorf("%w: audit_period %s below minimum %s", ErrInvalidConfiguration, c.AuditPeriod, MinAuditPeriod)
	}
	for name, port := range map[string]int{
		"event_port":     c.EventPort,
		"cmd_port":       c.CmdPort,
		"inv_event_port": c.InvEventPort,
		"keystone_port":  c.KeystonePort,
	} {
		if port <= 0 || port > 65535 {
			return fmt.Errorf("%w: %s %d out of range", ErrInvalidConfiguration, name, port)
		}
	}
	if c.AuthHost == "" {
		return fmt.Errorf("%w: auth_host cannot be empty", ErrInvalidConfiguration)
	}
	return nil
}
