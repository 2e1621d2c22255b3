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

package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rsyslog/ingestcore/driver"
	"github.com/rsyslog/ingestcore/listener"
	loglvl "github.com/rsyslog/ingestcore/logger/level"
	"github.com/rsyslog/ingestcore/poller"
	"github.com/rsyslog/ingestcore/runner/startStop"
	"github.com/rsyslog/ingestcore/session"
	"github.com/rsyslog/ingestcore/workerpool"
)

// trackedSession is what the server keeps per live fd: the session
// itself plus the close hook that releases the owning listener's
// admission slot, so the poll loop can resubmit the same hook on every
// readiness event without reconstructing it.
type trackedSession struct {
	sess     session.Session
	onClosed func()
}

type server struct {
	cfg Config

	mu        sync.Mutex
	plr       poller.Poller
	pool      workerpool.Pool
	listeners []listener.Listener
	sessions  map[int]*trackedSession

	rs startStop.StartStop
}

func (s *server) log(lvl loglvl.Level, msg string, err error) {
	if s.cfg.Logger == nil {
		return
	}
	ent := s.cfg.Logger().Entry(lvl, msg)
	if err != nil {
		ent.ErrorAdd(true, err)
	}
	ent.Log()
}

func (s *server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.rs == nil {
		s.rs = startStop.New(s.runStart, s.runStop)
	}
	rs := s.rs
	s.mu.Unlock()

	return rs.Start(ctx)
}

func (s *server) Stop(ctx context.Context) error {
	s.mu.Lock()
	rs := s.rs
	s.mu.Unlock()

	if rs == nil {
		return startStop.ErrNotRunning
	}
	return rs.Stop(ctx)
}

func (s *server) Restart(ctx context.Context) error {
	s.mu.Lock()
	if s.rs == nil {
		s.rs = startStop.New(s.runStart, s.runStop)
	}
	rs := s.rs
	s.mu.Unlock()

	return rs.Restart(ctx)
}

func (s *server) IsRunning() bool {
	s.mu.Lock()
	rs := s.rs
	s.mu.Unlock()
	return rs != nil && rs.IsRunning()
}

func (s *server) Uptime() time.Duration {
	s.mu.Lock()
	rs := s.rs
	s.mu.Unlock()
	if rs == nil {
		return 0
	}
	return rs.Uptime()
}

// onNewSession is the listener.NewSessionFunc wired into every
// configured listener: it registers the fd with the shared poller,
// records the session for Stop's final sweep, and submits the initial
// work item that drives the handshake.
func (s *server) onNewSession(sess session.Session, fd int, release func()) {
	onClosed := func() {
		s.mu.Lock()
		delete(s.sessions, fd)
		s.mu.Unlock()
		release()
	}

	s.mu.Lock()
	s.sessions[fd] = &trackedSession{sess: sess, onClosed: onClosed}
	plr := s.plr
	pool := s.pool
	s.mu.Unlock()

	if err := plr.AddSession(fd, poller.In|poller.Out); err != nil {
		s.log(loglvl.ErrorLevel, "registering session with poller", err)
		onClosed()
		_ = sess.Close()
		return
	}

	_ = pool.Submit(workerpool.WorkItem{
		Session:  sess,
		Fd:       fd,
		Ready:    poller.In | poller.Out,
		OnClosed: onClosed,
	})
}

// anyFlowControl reports whether any configured listener asked for the
// bounded-queue workerpool.Pool variant. The pool is shared across all
// listeners, so one opt-in applies it to every one of them.
func (s *server) anyFlowControl() bool {
	for _, spec := range s.cfg.Listeners {
		if spec.Config.FlowControl {
			return true
		}
	}
	return false
}

func (s *server) onEstablished(peerIP string, info driver.HandshakeInfo) {
	if info.NegotiatedID == "" && info.CipherSuite == 0 && info.Version == 0 {
		return
	}
	s.log(loglvl.InfoLevel, fmt.Sprintf(
		"session established with %s (cipher=0x%04x version=0x%04x id=%s)",
		peerIP, info.CipherSuite, info.Version, info.NegotiatedID,
	), nil)
}

func (s *server) onAuthFailure(peerIP string, err error) {
	s.log(loglvl.WarnLevel, fmt.Sprintf("authentication failure from %s", peerIP), err)
}

func (s *server) onReject(reason listener.RejectReason, peerIP string) {
	s.log(loglvl.WarnLevel, fmt.Sprintf("rejected connection from %s (%s)", peerIP, rejectReasonString(reason)), nil)
}

func rejectReasonString(r listener.RejectReason) string {
	switch r {
	case listener.RejectACL:
		return "acl"
	case listener.RejectMaxSessions:
		return "max_sessions"
	default:
		return "unknown"
	}
}

func (s *server) runStart(ctx context.Context) error {
	s.mu.Lock()
	plr, err := poller.New()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.plr = plr

	onErr := func(item workerpool.WorkItem, err error) {
		s.log(loglvl.ErrorLevel, fmt.Sprintf("advancing session %d", item.Session.ID()), err)
	}
	if s.anyFlowControl() {
		s.pool = workerpool.NewBounded(s.cfg.Workers, plr, onErr, DefaultFlowControlQueueLen)
	} else {
		s.pool = workerpool.New(s.cfg.Workers, plr, onErr)
	}

	s.listeners = s.listeners[:0]
	for _, spec := range s.cfg.Listeners {
		cfg := spec.Config
		cfg.OnEstablished = s.onEstablished
		cfg.OnAuthFailure = s.onAuthFailure
		ln := listener.New(cfg, spec.ACL, spec.Limiter, s.cfg.Sink, s.onNewSession, s.onReject)
		s.listeners = append(s.listeners, ln)
	}
	listeners := s.listeners
	s.mu.Unlock()

	for _, ln := range listeners {
		if bindErr := ln.Bind(); bindErr != nil {
			for _, already := range listeners {
				_ = already.Close()
			}
			return ErrorBindFailed.Error(bindErr)
		}
	}

	s.pool.Start()

	var wg sync.WaitGroup
	for _, ln := range listeners {
		wg.Add(1)
		go func(l listener.Listener) {
			defer wg.Done()
			if serveErr := l.Serve(); serveErr != nil {
				s.log(loglvl.ErrorLevel, "listener serve loop exited", serveErr)
			}
		}(ln)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.pollLoop()
	}()

	wg.Wait()
	return nil
}

func (s *server) pollLoop() {
	for {
		s.mu.Lock()
		plr := s.plr
		timeout := s.cfg.PollTimeoutMs
		maxEvents := s.cfg.MaxEventsPerWait
		s.mu.Unlock()

		events, err := plr.Wait(timeout, maxEvents)
		if err != nil {
			return
		}

		for _, ev := range events {
			s.mu.Lock()
			t, ok := s.sessions[ev.Fd]
			pool := s.pool
			s.mu.Unlock()
			if !ok {
				continue
			}

			if ev.Err {
				t.sess.MarkError()
			}

			_ = pool.Submit(workerpool.WorkItem{
				Session:  t.sess,
				Fd:       ev.Fd,
				Ready:    ev.Mode,
				OnClosed: t.onClosed,
			})
		}
	}
}

func (s *server) runStop(ctx context.Context) error {
	s.mu.Lock()
	listeners := s.listeners
	pool := s.pool
	plr := s.plr
	s.mu.Unlock()

	for _, ln := range listeners {
		_ = ln.Close()
	}

	if pool != nil {
		pool.Stop()
	}

	if plr != nil {
		_ = plr.Close()
	}

	s.mu.Lock()
	remaining := make([]*trackedSession, 0, len(s.sessions))
	for fd, t := range s.sessions {
		remaining = append(remaining, t)
		delete(s.sessions, fd)
	}
	s.mu.Unlock()

	for _, t := range remaining {
		if s.cfg.EmitMsgOnClose {
			s.log(loglvl.WarnLevel, fmt.Sprintf("closing session for peer %s on shutdown", t.sess.PeerIP()), nil)
		}
		_ = t.sess.Close()
	}

	return nil
}
