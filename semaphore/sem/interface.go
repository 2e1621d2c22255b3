/*
 * MIT License
 *
 * Copyright (c) 2019 Nicolas JUHEL
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

// Package sem provides a bounded concurrency gate used to cap per-listener
// session counts and worker-pool fan-out without hand-rolled counters.
//
// New with a positive limit returns a weighted-semaphore-backed gate; zero
// falls back to MaxSimultaneous(); a negative limit returns an unbounded
// WaitGroup-backed gate that never blocks NewWorker.
package sem

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// Sem is a concurrency gate bound to a context: it cancels all outstanding
// NewWorker callers when the parent context is done.
type Sem interface {
	context.Context

	// NewWorker blocks until a slot is available or the context is done.
	NewWorker() error

	// NewWorkerTry acquires a slot without blocking; returns false if none is free.
	NewWorkerTry() bool

	// DeferWorker releases a slot acquired by NewWorker/NewWorkerTry.
	DeferWorker()

	// DeferMain waits for all outstanding workers to release, then cancels the context.
	DeferMain()

	// WaitAll blocks until every outstanding worker has called DeferWorker.
	WaitAll()

	// Weighted returns the configured limit: -1 for unbounded, 0 never returned.
	Weighted() int64

	// SetSimultaneous changes the limit; only valid for weighted semaphores (limit > 0).
	SetSimultaneous(n int64)
}

// MaxSimultaneous returns the default concurrency limit: the number of
// logical CPUs, never less than 1.
func MaxSimultaneous() int {
	if n := runtime.NumCPU(); n > 0 {
		return n
	}
	return 1
}

// New returns a Sem bound to ctx. nbrSimultaneous == 0 uses MaxSimultaneous();
// nbrSimultaneous < 0 returns an unbounded WaitGroup-backed Sem.
func New(ctx context.Context, nbrSimultaneous int64) Sem {
	if ctx == nil {
		ctx = context.Background()
	}

	if nbrSimultaneous < 0 {
		c, cnl := context.WithCancel(ctx)
		return &semWG{Context: c, cnl: cnl}
	}

	if nbrSimultaneous == 0 {
		nbrSimultaneous = int64(MaxSimultaneous())
	}

	c, cnl := context.WithCancel(ctx)
	return &semWeighted{
		Context: c,
		cnl:     cnl,
		limit:   nbrSimultaneous,
		w:       semaphore.NewWeighted(nbrSimultaneous),
	}
}
