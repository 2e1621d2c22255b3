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

// Package session holds the per-connection state machine: one Session
// per accepted socket, advanced by exactly one worker at a time via
// TryLock, driving a Driver through handshake and a Framer across
// reads, and forwarding decoded records to a MessageSink.
package session

import (
	"github.com/rsyslog/ingestcore/driver"
	"github.com/rsyslog/ingestcore/framing"
	"github.com/rsyslog/ingestcore/poller"
	"github.com/rsyslog/ingestcore/sink"
)

// State is a Session's position in its lifecycle. It evolves
// monotonically: Handshaking -> Established -> Closing -> Closed; no
// state recurs except the terminal one.
type State int

const (
	Handshaking State = iota
	Established
	Closing
	Closed
)

func (s State) String() string {
	switch s {
	case Handshaking:
		return "handshaking"
	case Established:
		return "established"
	case Closing:
		return "closing"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// DefaultMaxIterationsPerTurn bounds how many read+frame cycles one
// Advance call performs before yielding, to limit per-worker latency
// spikes under a fast sender.
const DefaultMaxIterationsPerTurn = 500

// Config carries the peer identity and per-listener policy a Session
// needs to label records it forwards to the sink.
type Config struct {
	ListenerTag string
	PeerIP      string
	PeerPort    int
	PeerFQDN    string
	DefaultTZ   string

	// PreserveCase disables case-folding of PeerFQDN before it is
	// attached to forwarded records.
	PreserveCase bool

	// MaxIterationsPerTurn overrides DefaultMaxIterationsPerTurn; <= 0
	// means use the default.
	MaxIterationsPerTurn int

	// RecvBufferSize sizes the read buffer; <= 0 defaults to
	// framing.DefaultMaxFrameSize.
	RecvBufferSize int

	// OnEstablished, if set, is called exactly once per session when
	// the handshake completes, with the driver's negotiated parameters
	// for diagnostics. It runs on the worker turn that observed the
	// transition, so it must not block.
	OnEstablished func(driver.HandshakeInfo)

	// OnHandshakeError, if set, is called with the error returned by the
	// driver's Handshake whenever it fails (TLS verification, protocol
	// errors, ...). It runs on the worker turn that observed the
	// failure, so it must not block.
	OnHandshakeError func(error)
}

// Session is the unit a WorkerPool advances. Exactly one worker may
// hold it at a time; TryLock/Unlock enforce that from the outside so
// the pool can defer rather than block when a session is busy.
type Session interface {
	ID() uint64
	State() State

	// PeerIP, PeerPort and PeerFQDN report the identity this session was
	// constructed with, for diagnostics (e.g. the close-warning server
	// emits when emit_msg_on_close is set).
	PeerIP() string
	PeerPort() int
	PeerFQDN() string

	// InError reports whether the error flag has been set (e.g. by the
	// poller observing EPOLLERR/POLLERR on this session's descriptor).
	// It is safe to call without holding the lock.
	InError() bool

	// MarkError sets the error flag. It is idempotent and safe to call
	// without holding the lock; the next Advance transitions to Closing.
	MarkError()

	// TryLock attempts to acquire exclusive advancement rights. It
	// never blocks.
	TryLock() bool

	// Unlock releases advancement rights acquired by TryLock.
	Unlock()

	// Advance runs one worker turn given which directions the poller
	// reported ready, per the state table:
	//
	//	Handshaking: drives driver.Handshake()
	//	Established: reads, frames, and submits records
	//	Closing:     closes the driver and terminates
	//	Closed:      no-op
	//
	// It returns the Mode to rearm with and whether rearming is wanted
	// at all (false means back off, e.g. on QueueFull or Closed).
	Advance(ready poller.Mode) (rearm poller.Mode, shouldRearm bool, err error)

	// Close releases the underlying driver unconditionally, regardless
	// of state. Safe to call more than once.
	Close() error
}

// New returns a Session over drv/fr/sk labelled per cfg. id is an
// opaque caller-assigned identifier used only for diagnostics.
func New(id uint64, drv driver.Driver, fr framing.Framer, sk sink.MessageSink, cfg Config) Session {
	if cfg.MaxIterationsPerTurn <= 0 {
		cfg.MaxIterationsPerTurn = DefaultMaxIterationsPerTurn
	}
	if cfg.RecvBufferSize <= 0 {
		cfg.RecvBufferSize = framing.DefaultMaxFrameSize
	}

	return &session{
		id:   id,
		drv:  drv,
		fr:   fr,
		sink: sk,
		cfg:  cfg,
		buf:  make([]byte, cfg.RecvBufferSize),
	}
}
