//go:build !linux

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

package poller

import (
	"sync"

	"golang.org/x/sys/unix"
)

// pollPoller is the poll(2) fallback used where epoll is unavailable.
// Registrations are level-triggered and re-submitted on every Wait; the
// fd array grows by 1024 entries at a time as registrations are added.
// Rearm is a no-op since nothing is consumed by reporting readiness.
type pollPoller struct {
	mu      sync.Mutex
	closed  bool
	entries map[int]Mode
}

// New returns the poll(2)-backed Poller.
func New() (Poller, error) {
	return &pollPoller{entries: make(map[int]Mode)}, nil
}

func (p *pollPoller) AddListener(fd int, mode Mode) error {
	return p.add(fd, mode)
}

func (p *pollPoller) AddSession(fd int, mode Mode) error {
	return p.add(fd, mode)
}

func (p *pollPoller) add(fd int, mode Mode) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrorClosed.Error(nil)
	}

	if len(p.entries)%1024 == 0 {
		grown := make(map[int]Mode, len(p.entries)+1024)
		for k, v := range p.entries {
			grown[k] = v
		}
		p.entries = grown
	}

	p.entries[fd] = mode
	return nil
}

func (p *pollPoller) Rearm(fd int, mode Mode) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrorClosed.Error(nil)
	}
	if _, ok := p.entries[fd]; !ok {
		return ErrorUnknownFd.Error(nil)
	}
	p.entries[fd] = mode
	return nil
}

func (p *pollPoller) Del(fd int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.entries, fd)
	return nil
}

func toPollEvents(mode Mode) int16 {
	var ev int16
	if mode&In != 0 {
		ev |= unix.POLLIN
	}
	if mode&Out != 0 {
		ev |= unix.POLLOUT
	}
	return ev
}

func (p *pollPoller) Wait(timeoutMs int, max int) ([]ReadyEvent, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrorClosed.Error(nil)
	}

	fds := make([]unix.PollFd, 0, len(p.entries))
	order := make([]int, 0, len(p.entries))
	for fd, mode := range p.entries {
		fds = append(fds, unix.PollFd{Fd: int32(fd), Events: toPollEvents(mode)})
		order = append(order, fd)
	}
	p.mu.Unlock()

	if len(fds) == 0 {
		return nil, nil
	}

	n, err := unix.Poll(fds, timeoutMs)
	if err == unix.EINTR {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}

	out := make([]ReadyEvent, 0, n)
	for i, pfd := range fds {
		if pfd.Revents == 0 {
			continue
		}

		re := ReadyEvent{Fd: order[i]}
		if pfd.Revents&unix.POLLIN != 0 {
			re.Mode |= In
		}
		if pfd.Revents&unix.POLLOUT != 0 {
			re.Mode |= Out
		}
		if pfd.Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
			re.Err = true
		}

		if max > 0 && len(out) >= max {
			break
		}
		out = append(out, re)
	}

	return out, nil
}

func (p *pollPoller) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	p.entries = nil
	return nil
}
