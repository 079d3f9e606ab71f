// Package netcheck answers "is the network usable right now" with a cheap,
// time-bounded TCP handshake.
package netcheck

import (
	"context"
	"net"
	"time"

	"transcribe-ro/internal/observability/logging"
)

// DefaultHost is a well-known, stable endpoint (Google public DNS).
const DefaultHost = "8.8.8.8:53"

// DefaultTimeout bounds the handshake.
const DefaultTimeout = 3 * time.Second

// Probe checks network reachability. It never returns an error: DNS failure,
// timeout and refusal all read as "unavailable". A positive result is a hint,
// not a guarantee; callers must still handle failures after a positive probe.
type Probe struct {
	host    string
	timeout time.Duration
	dial    func(ctx context.Context, network, addr string) (net.Conn, error)
}

// Option configures a Probe.
type Option func(*Probe)

// WithHost overrides the probe target.
func WithHost(host string) Option {
	return func(p *Probe) { p.host = host }
}

// WithTimeout overrides the handshake timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Probe) { p.timeout = d }
}

// WithDialer overrides the dial function, for tests.
func WithDialer(dial func(ctx context.Context, network, addr string) (net.Conn, error)) Option {
	return func(p *Probe) { p.dial = dial }
}

// New creates a Probe with defaults applied.
func New(opts ...Option) *Probe {
	p := &Probe{
		host:    DefaultHost,
		timeout: DefaultTimeout,
	}
	for _, o := range opts {
		o(p)
	}
	if p.dial == nil {
		d := &net.Dialer{}
		p.dial = d.DialContext
	}
	return p
}

// Available reports whether the probe target is reachable within the timeout.
func (p *Probe) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	conn, err := p.dial(ctx, "tcp", p.host)
	if err != nil {
		log := logging.WithComponent("netcheck")
		log.Debug().
			Err(err).
			Str("host", p.host).
			Msg("Connectivity probe failed")
		return false
	}
	_ = conn.Close()
	return true
}
