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

// Package poller is the event-notification abstraction over epoll
// (Linux, preferred) with a poll(2) fallback for other platforms. Both
// implementations satisfy the same Poller interface; New picks the
// right one for the build.
package poller

// Mode is a bitmask of the I/O directions a registration is interested in.
type Mode uint8

const (
	In Mode = 1 << iota
	Out
)

// ReadyEvent is one entry from Wait: fd became ready for the reported
// Mode, or Err is set if the facility reported an error condition
// (EPOLLERR/POLLERR) on it.
type ReadyEvent struct {
	Fd   int
	Mode Mode
	Err  bool
}

// Poller owns the event facility for one Server. It is safe for
// concurrent use: Wait is called from one poller goroutine; Ctl/Rearm/Del
// are called from worker goroutines advancing sessions.
type Poller interface {
	// AddListener registers fd level-triggered; listeners are re-reported
	// on every Wait while readable, with no rearm required.
	AddListener(fd int, mode Mode) error

	// AddSession registers fd edge-triggered, one-shot. The registration
	// is consumed by the next readiness report; Rearm is mandatory
	// before the session will be reported again.
	AddSession(fd int, mode Mode) error

	// Rearm re-registers fd edge-triggered, one-shot with mode. Forgetting
	// to call this after advancing a session stalls it permanently on the
	// epoll backend; on the poll(2) fallback it is a harmless no-op since
	// fallback registrations are level-triggered and re-added every Wait.
	Rearm(fd int, mode Mode) error

	// Del unregisters fd. Safe to call even if fd was never added.
	Del(fd int) error

	// Wait blocks up to timeoutMs (negative means forever) and returns up
	// to max ready events.
	Wait(timeoutMs int, max int) ([]ReadyEvent, error)

	// Close releases the underlying event facility. Any blocked Wait
	// returns with ErrorClosed.
	Close() error
}
