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

package listener

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rsyslog/ingestcore/acl"
	"github.com/rsyslog/ingestcore/driver"
	"github.com/rsyslog/ingestcore/framing"
	"github.com/rsyslog/ingestcore/ratelimit"
	"github.com/rsyslog/ingestcore/semaphore/sem"
	"github.com/rsyslog/ingestcore/session"
	"github.com/rsyslog/ingestcore/sink"
)

type listener struct {
	cfg       Config
	acl       acl.ACL
	limiter   ratelimit.Limiter
	sink      sink.MessageSink
	admission sem.Sem

	onNewSession NewSessionFunc
	onReject     RejectFunc

	mu     sync.Mutex
	ln     *net.TCPListener
	closed bool

	nextID atomic.Uint64
}

func parseDiscipline(s string) framing.Discipline {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "octet-counted", "octetcounted", "octet_counted":
		return framing.OctetCounted
	default:
		return framing.LFDelimited
	}
}

func (l *listener) Bind() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ln != nil {
		return ErrorAlreadyBound.Error(nil)
	}

	network := l.cfg.Network.String()
	if network == "" {
		network = "tcp"
	}

	addr := fmt.Sprintf("%s:%d", l.cfg.BindAddr, l.cfg.Port)
	resolved, err := net.ResolveTCPAddr(network, addr)
	if err != nil {
		return err
	}

	ln, err := net.ListenTCP(network, resolved)
	if err != nil {
		return err
	}

	l.ln = ln
	return nil
}

func (l *listener) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ln == nil {
		return nil
	}
	return l.ln.Addr()
}

func (l *listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ln == nil {
		return ErrorNotBound.Error(nil)
	}
	if l.closed {
		return nil
	}
	l.closed = true
	return l.ln.Close()
}

func (l *listener) Serve() error {
	l.mu.Lock()
	ln := l.ln
	l.mu.Unlock()

	if ln == nil {
		return ErrorNotBound.Error(nil)
	}

	for {
		conn, err := ln.AcceptTCP()
		if err != nil {
			l.mu.Lock()
			stopped := l.closed
			l.mu.Unlock()
			if stopped {
				return nil
			}
			return err
		}

		l.handleAccept(conn)
	}
}

func (l *listener) handleAccept(conn *net.TCPConn) {
	ip, port := hostOf(conn.RemoteAddr())

	verdict := l.acl.Check(net.ParseIP(ip), "")
	if verdict == acl.NeedDNS {
		verdict = l.resolveAndRecheck(ip)
	}

	if verdict != acl.Allow {
		conn.Close()
		if l.onReject != nil && l.limiter.Allow(ip) {
			l.onReject(RejectACL, ip)
		}
		return
	}

	if l.admission != nil && !l.admission.NewWorkerTry() {
		conn.Close()
		if l.onReject != nil && l.limiter.Allow(ip) {
			l.onReject(RejectMaxSessions, ip)
		}
		return
	}

	if l.cfg.Keepalive.Enabled {
		_ = conn.SetKeepAlive(true)
		if l.cfg.Keepalive.Time > 0 {
			_ = conn.SetKeepAlivePeriod(l.cfg.Keepalive.Time)
		}
	}

	var tlsCfg *tls.Config
	if l.cfg.TLSMode && l.cfg.TLS != nil {
		tlsCfg = l.cfg.TLS.TLSConfig("")
	}

	release := func() {}
	if l.admission != nil {
		var once sync.Once
		release = func() { once.Do(l.admission.DeferWorker) }
	}

	drv, err := driver.Accept(l.cfg.Driver, conn, tlsCfg)
	if err != nil {
		conn.Close()
		release()
		return
	}

	f, err := drv.File()
	if err != nil {
		drv.Close()
		release()
		return
	}
	fd := int(f.Fd())

	fr := framing.New(framing.Options{
		Discipline:          parseDiscipline(l.cfg.Framing.Discipline),
		MaxFrameSize:        l.cfg.MaxFrameSize,
		AdditionalDelim:     l.cfg.Framing.AdditionalDelim,
		DisableLFDelim:      l.cfg.Framing.DisableLFDelim,
		DiscardTruncatedMsg: l.cfg.Framing.DiscardTruncatedMsg,
		SPFramingFix:        l.cfg.Framing.SPFramingFix,
	})

	sessCfg := session.Config{
		ListenerTag:  l.cfg.InputName,
		PeerIP:       ip,
		PeerPort:     port,
		PeerFQDN:     ip,
		DefaultTZ:    l.cfg.DefaultTZ,
		PreserveCase: l.cfg.PreserveCase,
	}
	if l.cfg.MaxFrameSize > 0 {
		sessCfg.RecvBufferSize = l.cfg.MaxFrameSize + 1
	}
	if fqdn, err := drv.RemoteHostname(); err == nil && fqdn != "" {
		sessCfg.PeerFQDN = fqdn
	}

	if l.cfg.OnEstablished != nil {
		peerIP := ip
		onEstablished := l.cfg.OnEstablished
		sessCfg.OnEstablished = func(info driver.HandshakeInfo) {
			onEstablished(peerIP, info)
		}
	}

	if l.cfg.TLSMode && l.cfg.TLS != nil {
		peerIP := ip
		tlsCtx := l.cfg.TLS
		onAuthFailure := l.cfg.OnAuthFailure
		sessCfg.OnHandshakeError = func(err error) {
			if tlsCtx.ShouldReportAuthFailure() && onAuthFailure != nil {
				onAuthFailure(peerIP, err)
			}
		}
	}

	id := l.nextID.Add(1)
	s := session.New(id, drv, fr, l.sink, sessCfg)

	if l.onNewSession != nil {
		l.onNewSession(s, fd, release)
	} else {
		release()
	}
}

// resolveAndRecheck performs the reverse lookup the ACL's NeedDNS
// verdict deferred, then re-evaluates. A lookup failure is treated as
// Deny: a hostname rule that cannot be resolved cannot be satisfied.
func (l *listener) resolveAndRecheck(ip string) acl.Verdict {
	names, err := net.LookupAddr(ip)
	if err != nil || len(names) == 0 {
		return acl.Deny
	}
	return l.acl.Check(net.ParseIP(ip), strings.TrimSuffix(names[0], "."))
}

func hostOf(addr net.Addr) (string, int) {
	if tcpAddr, ok := addr.(*net.TCPAddr); ok {
		return tcpAddr.IP.String(), tcpAddr.Port
	}
	host, _, _ := net.SplitHostPort(addr.String())
	return host, 0
}
