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

package startStop

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

type runner struct {
	start FuncStart
	stop  FuncStop

	mu      sync.Mutex
	running atomic.Bool
	startAt atomic.Int64 // unix nano, 0 if not running
	done    chan struct{}

	errMu sync.Mutex
	errs  []error
}

func (r *runner) recordError(err error) {
	if err == nil {
		return
	}
	r.errMu.Lock()
	defer r.errMu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running.Load() {
		return ErrAlreadyRunning
	}

	if r.start == nil {
		err := ErrNilFunc
		r.recordError(err)
		return err
	}

	r.done = make(chan struct{})
	r.running.Store(true)
	r.startAt.Store(time.Now().UnixNano())

	done := r.done

	go func() {
		defer close(done)
		defer func() {
			if rec := recover(); rec != nil {
				r.recordError(fmt.Errorf("startStop: panic in start function: %v", rec))
			}
			r.running.Store(false)
			r.startAt.Store(0)
		}()

		if err := r.start(ctx); err != nil {
			r.recordError(err)
		}
	}()

	return nil
}

func (r *runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running.Load() {
		return ErrNotRunning
	}

	var stopErr error
	if r.stop == nil {
		stopErr = ErrNilFunc
		r.recordError(stopErr)
	} else if err := r.stop(ctx); err != nil {
		stopErr = err
		r.recordError(err)
	}

	done := r.done
	r.running.Store(false)
	r.startAt.Store(0)

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
		}
	}

	return stopErr
}

func (r *runner) Restart(ctx context.Context) error {
	if r.running.Load() {
		if err := r.Stop(ctx); err != nil {
			return err
		}
	}
	return r.Start(ctx)
}

func (r *runner) IsRunning() bool {
	return r.running.Load()
}

func (r *runner) Uptime() time.Duration {
	at := r.startAt.Load()
	if at == 0 {
		return 0
	}
	return time.Since(time.Unix(0, at))
}

func (r *runner) ErrorsLast() error {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	if len(r.errs) == 0 {
		return nil
	}
	return r.errs[len(r.errs)-1]
}

func (r *runner) ErrorsList() []error {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	out := make([]error, len(r.errs))
	copy(out, r.errs)
	return out
}
