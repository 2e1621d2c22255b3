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
)

type semWG struct {
	context.Context
	cnl context.CancelFunc
	wg  sync.WaitGroup
}

func (s *semWG) NewWorker() error {
	if err := s.Context.Err(); err != nil {
		return err
	}
	s.wg.Add(1)
	return nil
}

func (s *semWG) NewWorkerTry() bool {
	return s.NewWorker() == nil
}

func (s *semWG) DeferWorker() {
	s.wg.Done()
}

func (s *semWG) DeferMain() {
	s.wg.Wait()
	s.cnl()
}

func (s *semWG) WaitAll() {
	s.wg.Wait()
}

func (s *semWG) Weighted() int64 {
	return -1
}

func (s *semWG) SetSimultaneous(_ int64) {
	// unbounded gate has no limit to change
}
