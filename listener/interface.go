/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package listener binds one address/port, accepts connections, applies
// ACL and per-listener TLS/keepalive/rate-limit policy, and constructs
// a session.Session for each admitted peer.
package listener

import (
	"context"
	"net"
	"time"

	"github.com/rsyslog/ingestcore/acl"
	"github.com/rsyslog/ingestcore/driver"
	"github.com/rsyslog/ingestcore/network/protocol"
	"github.com/rsyslog/ingestcore/ratelimit"
	"github.com/rsyslog/ingestcore/semaphore/sem"
	"github.com/rsyslog/ingestcore/session"
	"github.com/rsyslog/ingestcore/sink"
	"github.com/rsyslog/ingestcore/tlscontext"
)

// KeepaliveConfig carries the TCP keepalive knobs applied to each
// accepted connection.
type KeepaliveConfig struct {
	Enabled  bool          `json:"enabled" yaml:"enabled" toml:"enabled"`
	Time     time.Duration `json:"time" yaml:"time" toml:"time"`
	Interval time.Duration `json:"interval" yaml:"interval" toml:"interval"`
	Probes   int           `json:"probes" yaml:"probes" toml:"probes"`
}

// FramingConfig mirrors framing.Options' tunables for config decoding.
type FramingConfig struct {
	Discipline          string `json:"discipline" yaml:"discipline" toml:"discipline"`
	AdditionalDelim     byte   `json:"addtl_frame_delim" yaml:"addtl_frame_delim" toml:"addtl_frame_delim"`
	DisableLFDelim      bool   `json:"disable_lf_delim" yaml:"disable_lf_delim" toml:"disable_lf_delim"`
	DiscardTruncatedMsg bool   `json:"discard_truncated_msg" yaml:"discard_truncated_msg" toml:"discard_truncated_msg"`
	SPFramingFix        bool   `json:"sp_framing_fix" yaml:"sp_framing_fix" toml:"sp_framing_fix"`
}

// RatelimitConfig bounds the rejection-warning rate for this listener.
type RatelimitConfig struct {
	Interval time.Duration `json:"interval_s" yaml:"interval_s" toml:"interval_s"`
	Burst    int           `json:"burst" yaml:"burst" toml:"burst"`
}

// Config is one listener's immutable, post-bind configuration.
type Config struct {
	BindAddr  string                   `json:"bind_addr" yaml:"bind_addr" toml:"bind_addr"`
	Port      int                      `json:"port" yaml:"port" toml:"port"`
	Network   protocol.NetworkProtocol `json:"-" yaml:"-" toml:"-"`
	InputName string                   `json:"input_name" yaml:"input_name" toml:"input_name"`

	Driver  driver.Kind        `json:"driver" yaml:"driver" toml:"driver"`
	TLSMode bool               `json:"tls_mode" yaml:"tls_mode" toml:"tls_mode"`
	TLS     tlscontext.Context `json:"-" yaml:"-" toml:"-"`

	MaxSessions  int `json:"max_sessions" yaml:"max_sessions" toml:"max_sessions"`
	MaxFrameSize int `json:"max_frame_size" yaml:"max_frame_size" toml:"max_frame_size"`

	Framing FramingConfig `json:"framing" yaml:"framing" toml:"framing"`

	PreserveCase bool   `json:"preserve_case" yaml:"preserve_case" toml:"preserve_case"`
	DefaultTZ    string `json:"default_tz" yaml:"default_tz" toml:"default_tz"`

	Keepalive KeepaliveConfig `json:"keepalive" yaml:"keepalive" toml:"keepalive"`
	Ratelimit RatelimitConfig `json:"ratelimit" yaml:"ratelimit" toml:"ratelimit"`

	// FlowControl selects the bounded-queue workerpool.Pool variant
	// (backpressure on a full queue) over the default unbounded one.
	FlowControl bool `json:"flow_control" yaml:"flow_control" toml:"flow_control"`

	// OnEstablished, set by the caller composing this listener (e.g.
	// server.Server), is forwarded to each session's session.Config and
	// fires once per session when its handshake completes.
	OnEstablished func(peerIP string, info driver.HandshakeInfo) `json:"-" yaml:"-" toml:"-"`

	// OnAuthFailure, set by the caller composing this listener, is
	// invoked when a TLS session's handshake fails and TLS.
	// ShouldReportAuthFailure() says this is the first failure since the
	// last successful authentication on this listener's TLS.Context.
	OnAuthFailure func(peerIP string, err error) `json:"-" yaml:"-" toml:"-"`
}

// NewSessionFunc is invoked once per admitted connection, carrying the
// fresh Session (in Handshaking state), the fd to register with the
// shared poller, and the release hook the caller must invoke (e.g. as
// a workerpool.WorkItem.OnClosed) once the session reaches Closed, so
// the listener's max_sessions admission slot is freed. Called from the
// listener's accept goroutine.
type NewSessionFunc func(s session.Session, fd int, release func())

// RejectReason distinguishes why a connection was refused, for the
// rate-limited diagnostic callback.
type RejectReason int

const (
	RejectACL RejectReason = iota
	RejectMaxSessions
)

// RejectFunc is invoked at most Ratelimit.Burst times per
// Ratelimit.Interval for a given peer IP, so a scanning or
// misconfigured peer can't flood the diagnostic log.
type RejectFunc func(reason RejectReason, peerIP string)

// Listener binds, accepts, and admits sessions for one Config.
type Listener interface {
	// Bind opens the listening socket. Must be called before Serve.
	Bind() error

	// Serve runs the accept loop on the calling goroutine until Close
	// is called, invoking onNewSession for each admitted connection.
	// It returns nil when stopped via Close.
	Serve() error

	// Close stops the accept loop and closes the listening socket.
	// Safe to call once; Serve returns shortly after.
	Close() error

	// Addr reports the bound address, including the OS-assigned port
	// when Config.Port is 0. Valid only after Bind succeeds.
	Addr() net.Addr
}

// New returns a Listener built from cfg. acl, limiter and sk are
// required; limiter buckets one per rejected peer IP; onReject and
// onNewSession may be nil (onNewSession being nil is only useful for
// tests that just exercise the accept/ACL/reject path).
func New(cfg Config, a acl.ACL, limiter ratelimit.Limiter, sk sink.MessageSink, onNewSession NewSessionFunc, onReject RejectFunc) Listener {
	l := &listener{
		cfg:          cfg,
		acl:          a,
		limiter:      limiter,
		sink:         sk,
		onNewSession: onNewSession,
		onReject:     onReject,
	}
	if cfg.MaxSessions > 0 {
		l.admission = sem.New(context.Background(), int64(cfg.MaxSessions))
	}
	return l
}
