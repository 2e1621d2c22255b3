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

package workerpool

import (
	"sync"

	"github.com/rsyslog/ingestcore/poller"
	"github.com/rsyslog/ingestcore/session"
)

type pool struct {
	n       int
	plr     poller.Poller
	onErr   ErrorHandler
	maxQLen int

	mu      sync.Mutex
	cond    *sync.Cond
	notFull *sync.Cond
	queue   []WorkItem
	stopped bool
	started bool
	wg      sync.WaitGroup
}

// inline reports whether Submit should run a WorkItem's turn on the
// caller's own goroutine instead of queueing it for a worker. A single
// unbounded worker makes the queue pure overhead; a bounded queue still
// needs real workers so a full queue can actually drain concurrently
// with the caller blocking on it.
func (p *pool) inline() bool {
	return p.n == 1 && p.maxQLen <= 0
}

func (p *pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started || p.inline() {
		p.started = true
		return
	}
	p.started = true

	for i := 0; i < p.n; i++ {
		p.wg.Add(1)
		go p.run()
	}
}

func (p *pool) Submit(item WorkItem) error {
	if p.inline() {
		p.advance(item)
		return nil
	}

	p.mu.Lock()
	if p.maxQLen > 0 {
		for len(p.queue) >= p.maxQLen && !p.stopped {
			p.notFull.Wait()
		}
	}
	if p.stopped {
		p.mu.Unlock()
		return ErrorStopped.Error(nil)
	}
	p.queue = append(p.queue, item)
	p.mu.Unlock()
	p.cond.Signal()
	return nil
}

func (p *pool) Stop() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	p.cond.Broadcast()
	if p.notFull != nil {
		p.notFull.Broadcast()
	}
	p.wg.Wait()
}

func (p *pool) run() {
	defer p.wg.Done()

	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.stopped {
			p.cond.Wait()
		}
		if len(p.queue) == 0 && p.stopped {
			p.mu.Unlock()
			return
		}

		item := p.queue[0]
		p.queue = p.queue[1:]
		p.mu.Unlock()
		if p.notFull != nil {
			p.notFull.Signal()
		}

		p.advance(item)
	}
}

// advance performs one worker turn: try-lock the session, skip
// if it's busy (the holder rearms on exit), advance it, rearm with the
// poller unless the session is done with this turn, release the lock.
func (p *pool) advance(item WorkItem) {
	if !item.Session.TryLock() {
		return
	}
	defer item.Session.Unlock()

	mode, rearm, err := item.Session.Advance(item.Ready)
	if err != nil && p.onErr != nil {
		p.onErr(item, err)
	}

	if item.Session.State() == session.Closed {
		_ = p.plr.Del(item.Fd)
		if item.OnClosed != nil {
			item.OnClosed()
		}
		return
	}

	if rearm {
		_ = p.plr.Rearm(item.Fd, mode)
	}
}
