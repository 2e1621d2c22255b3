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

package session

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rsyslog/ingestcore/driver"
	"github.com/rsyslog/ingestcore/framing"
	"github.com/rsyslog/ingestcore/poller"
	"github.com/rsyslog/ingestcore/sink"
)

type session struct {
	id   uint64
	cfg  Config
	drv  driver.Driver
	fr   framing.Framer
	sink sink.MessageSink
	buf  []byte

	// mu is the exclusivity lock: TryLock/Unlock give a worker sole
	// advancement rights. state is tracked separately with an atomic so
	// State() can be called by that same worker mid-turn (after
	// TryLock, before Unlock) without deadlocking against a mutex it
	// already holds.
	mu      sync.Mutex
	state   atomic.Int32
	inError atomic.Bool
	closed  atomic.Bool
}

func (s *session) ID() uint64 {
	return s.id
}

func (s *session) State() State {
	return State(s.state.Load())
}

func (s *session) setState(st State) {
	s.state.Store(int32(st))
}

func (s *session) PeerIP() string {
	return s.cfg.PeerIP
}

func (s *session) PeerPort() int {
	return s.cfg.PeerPort
}

func (s *session) PeerFQDN() string {
	return s.cfg.PeerFQDN
}

func (s *session) InError() bool {
	return s.inError.Load()
}

func (s *session) MarkError() {
	s.inError.Store(true)
}

func (s *session) TryLock() bool {
	return s.mu.TryLock()
}

func (s *session) Unlock() {
	s.mu.Unlock()
}

func (s *session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.setState(Closed)
	return s.drv.Close()
}

func dirToRearmMode(dir driver.Direction) poller.Mode {
	switch dir {
	case driver.DirWrite:
		return poller.Out
	case driver.DirRead:
		return poller.In
	default:
		return poller.In | poller.Out
	}
}

func (s *session) Advance(ready poller.Mode) (poller.Mode, bool, error) {
	if s.State() == Closed {
		return 0, false, ErrorAlreadyClosed.Error(nil)
	}

	if s.inError.Load() && s.State() != Closing {
		s.setState(Closing)
	}

	switch s.State() {
	case Handshaking:
		return s.advanceHandshaking()
	case Established:
		return s.advanceEstablished(ready)
	case Closing:
		return s.advanceClosing()
	default:
		return 0, false, nil
	}
}

func (s *session) advanceHandshaking() (poller.Mode, bool, error) {
	res, dir, err := s.drv.Handshake()
	if err != nil {
		s.setState(Closing)
		if s.cfg.OnHandshakeError != nil {
			s.cfg.OnHandshakeError(err)
		}
		return 0, false, err
	}

	switch res {
	case driver.WouldBlock:
		// Handshake direction is a hint only; the session stays armed
		// for both directions until the library reports completion.
		_ = dir
		return poller.In | poller.Out, true, nil
	case driver.Eof:
		s.setState(Closing)
		return 0, false, nil
	default: // driver.Ok
		s.setState(Established)
		if s.cfg.OnEstablished != nil {
			s.cfg.OnEstablished(s.drv.HandshakeInfo())
		}
		return poller.In, true, nil
	}
}

func (s *session) advanceEstablished(ready poller.Mode) (poller.Mode, bool, error) {
	if ready&poller.In == 0 {
		return poller.In, true, nil
	}

	for i := 0; i < s.cfg.MaxIterationsPerTurn; i++ {
		n, res, _, err := s.drv.Read(s.buf)
		if err != nil {
			s.setState(Closing)
			return 0, false, err
		}

		switch res {
		case driver.WouldBlock:
			return poller.In, true, nil
		case driver.Eof:
			s.setState(Closing)
			return 0, false, nil
		}

		records, ferr := s.fr.Feed(s.buf[:n])
		if ferr != nil {
			s.setState(Closing)
			return 0, false, ferr
		}

		for _, rec := range records {
			peer := s.cfg.PeerFQDN
			if !s.cfg.PreserveCase {
				peer = strings.ToLower(peer)
			}

			switch s.sink.Submit(s.cfg.ListenerTag, s.cfg.PeerIP, peer, s.cfg.DefaultTZ, rec.Payload) {
			case sink.QueueFull:
				return 0, false, nil
			case sink.Fatal:
				s.setState(Closing)
				return 0, false, nil
			}
		}
	}

	// Iteration cap reached with more data likely pending; rearm to
	// continue next turn rather than starve other sessions.
	return poller.In, true, nil
}

func (s *session) advanceClosing() (poller.Mode, bool, error) {
	err := s.drv.Close()
	s.setState(Closed)
	s.closed.Store(true)
	return 0, false, err
}
