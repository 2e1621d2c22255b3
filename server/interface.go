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

// Package server composes one or more listener.Listener over a shared
// poller.Poller and workerpool.Pool into a single embeddable daemon
// object: an asynchronous runner/startStop.StartStop pair drives
// Start/Stop/Restart, with a structured logger.Logger for diagnostics.
package server

import (
	"context"
	"time"

	"github.com/rsyslog/ingestcore/acl"
	"github.com/rsyslog/ingestcore/listener"
	"github.com/rsyslog/ingestcore/logger"
	"github.com/rsyslog/ingestcore/ratelimit"
	"github.com/rsyslog/ingestcore/sink"
)

// DefaultPollTimeoutMs bounds how long one poller.Wait call blocks when
// no connection is ready, so the poll loop can notice Stop promptly.
const DefaultPollTimeoutMs = 250

// DefaultMaxEventsPerWait caps how many ready events one Wait call
// returns, so a burst of activity can't starve fairness across fds.
const DefaultMaxEventsPerWait = 64

// DefaultFlowControlQueueLen bounds the shared workerpool.Pool's queue
// when any ListenerSpec.Config.FlowControl is set: Submit then blocks
// the poll loop rather than letting the queue grow without bound.
const DefaultFlowControlQueueLen = 4096

// ListenerSpec pairs one listener's post-bind configuration with the
// runtime ACL and rate limiter it checks incoming connections against;
// both are constructed objects, not config-decodable values, so they
// travel alongside rather than inside listener.Config.
type ListenerSpec struct {
	Config  listener.Config
	ACL     acl.ACL
	Limiter ratelimit.Limiter
}

// Config is a Server's construction-time configuration.
type Config struct {
	Listeners []ListenerSpec
	Sink      sink.MessageSink

	// Workers sizes the shared workerpool.Pool; <= 0 defaults to 1.
	Workers int

	// PollTimeoutMs overrides DefaultPollTimeoutMs; <= 0 means default.
	PollTimeoutMs int

	// MaxEventsPerWait overrides DefaultMaxEventsPerWait; <= 0 means default.
	MaxEventsPerWait int

	// EmitMsgOnClose logs one warning entry per session still open when
	// Stop tears the server down, naming its peer.
	EmitMsgOnClose bool

	// Logger is used for all diagnostics; nil defaults to a fresh
	// logger.New(context.Background()).
	Logger logger.FuncLog
}

// Server is the top-level embeddable object: Start binds every
// configured listener and begins accepting, Stop drains in-flight
// sessions and releases every resource.
type Server interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Restart(ctx context.Context) error
	IsRunning() bool
	Uptime() time.Duration
}

// New returns a Server built from cfg. An error is returned only for
// configuration problems detectable before Start (no listeners); bind
// failures surface from Start itself.
func New(cfg Config) (Server, error) {
	if len(cfg.Listeners) == 0 {
		return nil, ErrorNoListeners.Error(nil)
	}

	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.PollTimeoutMs <= 0 {
		cfg.PollTimeoutMs = DefaultPollTimeoutMs
	}
	if cfg.MaxEventsPerWait <= 0 {
		cfg.MaxEventsPerWait = DefaultMaxEventsPerWait
	}
	if cfg.Logger == nil {
		lg := logger.New(context.Background())
		cfg.Logger = func() logger.Logger { return lg }
	}

	return &server{
		cfg:      cfg,
		sessions: make(map[int]*trackedSession),
	}, nil
}
