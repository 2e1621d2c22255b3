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

// Package workerpool drains an intrusive FIFO of ready sessions with a
// fixed number of worker goroutines, each taking one session's lock,
// advancing its state machine one turn, and rearming it with the
// poller. n == 1 bypasses the queue entirely: Submit runs the turn
// inline on the calling (poller) goroutine.
package workerpool

import (
	"sync"

	"github.com/rsyslog/ingestcore/poller"
	"github.com/rsyslog/ingestcore/session"
)

// WorkItem is one unit of queued work: a session that the poller
// reported ready for the given mode, to be advanced on its fd.
type WorkItem struct {
	Session session.Session
	Fd      int
	Ready   poller.Mode

	// OnClosed, if set, is invoked once this turn leaves the session in
	// session.Closed, after its fd has been unregistered. Listeners use
	// it to release a per-listener admission slot.
	OnClosed func()
}

// ErrorHandler receives the error (if any) from one WorkItem's Advance
// call, for diagnostics. May be nil.
type ErrorHandler func(item WorkItem, err error)

// Pool drains WorkItems across a fixed number of workers.
type Pool interface {
	// Start spawns the worker goroutines. A no-op when n == 1: Submit
	// runs work inline instead.
	Start()

	// Submit enqueues item for a worker to pick up (n > 1), or advances
	// it immediately on the caller's goroutine (n == 1). Returns
	// ErrorStopped if the pool has been stopped.
	Submit(item WorkItem) error

	// Stop signals all workers to drain the remaining queue and exit,
	// then waits for them to finish.
	Stop()
}

// New returns a Pool of n workers advancing sessions and rearming them
// with plr. onErr, if non-nil, is invoked (from the owning worker
// goroutine) whenever a WorkItem's Advance call returns an error. The
// queue is unbounded: a slow sink lets it grow without limit.
func New(n int, plr poller.Poller, onErr ErrorHandler) Pool {
	return NewBounded(n, plr, onErr, 0)
}

// NewBounded is New with Submit applying backpressure once the queue
// reaches maxQueueLen items: the caller (typically the poller's own
// goroutine) blocks until a worker drains an item, rather than the
// queue growing without bound. maxQueueLen <= 0 means unbounded.
func NewBounded(n int, plr poller.Poller, onErr ErrorHandler, maxQueueLen int) Pool {
	if n <= 0 {
		n = 1
	}

	p := &pool{n: n, plr: plr, onErr: onErr, maxQLen: maxQueueLen}
	p.cond = sync.NewCond(&p.mu)
	if maxQueueLen > 0 {
		p.notFull = sync.NewCond(&p.mu)
	}
	return p
}
