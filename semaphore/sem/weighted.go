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

package sem

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

type semWeighted struct {
	context.Context
	cnl   context.CancelFunc
	limit int64
	w     *semaphore.Weighted
	out   int64
	mu    sync.Mutex
	wg    sync.WaitGroup
}

func (s *semWeighted) NewWorker() error {
	if err := s.w.Acquire(s.Context, 1); err != nil {
		return err
	}
	atomic.AddInt64(&s.out, 1)
	s.wg.Add(1)
	return nil
}

func (s *semWeighted) NewWorkerTry() bool {
	if !s.w.TryAcquire(1) {
		return false
	}
	atomic.AddInt64(&s.out, 1)
	s.wg.Add(1)
	return true
}

func (s *semWeighted) DeferWorker() {
	s.w.Release(1)
	atomic.AddInt64(&s.out, -1)
	s.wg.Done()
}

func (s *semWeighted) DeferMain() {
	s.wg.Wait()
	s.cnl()
}

func (s *semWeighted) WaitAll() {
	s.wg.Wait()
}

func (s *semWeighted) Weighted() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.limit
}

func (s *semWeighted) SetSimultaneous(n int64) {
	if n <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limit = n
	s.w = semaphore.NewWeighted(n)
}
