/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
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

// Package startStop provides a minimal async lifecycle runner: a pair of
// start/stop functions wrapped with running-state tracking, uptime
// measurement and error history. The Server and Listener compose on top of
// this for their own Start/Stop semantics.
package startStop

import (
	"context"
	"errors"
	"time"
)

// ErrNilFunc is returned by Start/Stop when the corresponding function is nil.
var ErrNilFunc = errors.New("startStop: function is nil")

// ErrAlreadyRunning is returned by Start when the runner is already running.
var ErrAlreadyRunning = errors.New("startStop: already running")

// ErrNotRunning is returned by Stop when the runner is not running.
var ErrNotRunning = errors.New("startStop: not running")

// FuncStart is invoked by Start and runs until ctx is done or it returns.
type FuncStart func(ctx context.Context) error

// FuncStop is invoked by Stop to unwind whatever FuncStart set up.
type FuncStop func(ctx context.Context) error

// StartStop tracks the running state of one start/stop function pair.
type StartStop interface {
	// Start launches the start function asynchronously and returns immediately.
	// Errors raised by the start function are recorded, not returned here.
	Start(ctx context.Context) error

	// Stop invokes the stop function and waits for the started goroutine to end.
	Stop(ctx context.Context) error

	// Restart stops then starts again.
	Restart(ctx context.Context) error

	// IsRunning reports whether Start has been called without a matching Stop.
	IsRunning() bool

	// Uptime returns the duration since the last successful Start, or zero if not running.
	Uptime() time.Duration

	// ErrorsLast returns the most recently recorded error, or nil.
	ErrorsLast() error

	// ErrorsList returns every recorded error since construction.
	ErrorsList() []error
}

// New returns a StartStop wrapping start and stop.
func New(start FuncStart, stop FuncStop) StartStop {
	return &runner{
		start: start,
		stop:  stop,
	}
}
