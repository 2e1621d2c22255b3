//go:build linux

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

type epollPoller struct {
	mu     sync.Mutex
	epfd   int
	closed bool
}

// New returns the epoll-backed Poller.
func New() (Poller, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epollPoller{epfd: fd}, nil
}

func toEvents(mode Mode, oneShot bool) uint32 {
	var ev uint32
	if mode&In != 0 {
		ev |= unix.EPOLLIN
	}
	if mode&Out != 0 {
		ev |= unix.EPOLLOUT
	}
	if oneShot {
		ev |= unix.EPOLLET | unix.EPOLLONESHOT
	}
	return ev
}

func (p *epollPoller) ctl(op int, fd int, mode Mode, oneShot bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrorClosed.Error(nil)
	}

	var ev *unix.EpollEvent
	if op != unix.EPOLL_CTL_DEL {
		ev = &unix.EpollEvent{Fd: int32(fd), Events: toEvents(mode, oneShot)}
	}

	return unix.EpollCtl(p.epfd, op, fd, ev)
}

func (p *epollPoller) AddListener(fd int, mode Mode) error {
	return p.ctl(unix.EPOLL_CTL_ADD, fd, mode, false)
}

func (p *epollPoller) AddSession(fd int, mode Mode) error {
	return p.ctl(unix.EPOLL_CTL_ADD, fd, mode, true)
}

func (p *epollPoller) Rearm(fd int, mode Mode) error {
	return p.ctl(unix.EPOLL_CTL_MOD, fd, mode, true)
}

func (p *epollPoller) Del(fd int) error {
	return p.ctl(unix.EPOLL_CTL_DEL, fd, 0, false)
}

func (p *epollPoller) Wait(timeoutMs int, max int) ([]ReadyEvent, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrorClosed.Error(nil)
	}
	epfd := p.epfd
	p.mu.Unlock()

	if max <= 0 {
		max = 64
	}
	raw := make([]unix.EpollEvent, max)

	n, err := unix.EpollWait(epfd, raw, timeoutMs)
	if err == unix.EINTR {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	out := make([]ReadyEvent, 0, n)
	for i := 0; i < n; i++ {
		re := ReadyEvent{Fd: int(raw[i].Fd)}
		if raw[i].Events&unix.EPOLLIN != 0 {
			re.Mode |= In
		}
		if raw[i].Events&unix.EPOLLOUT != 0 {
			re.Mode |= Out
		}
		if raw[i].Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
			re.Err = true
		}
		out = append(out, re)
	}

	return out, nil
}

func (p *epollPoller) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return unix.Close(p.epfd)
}
