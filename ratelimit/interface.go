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

// Package ratelimit implements a per-key token-bucket limiter used to cap
// the volume of rejection warnings a listener logs for a misbehaving peer,
// without affecting the actual accept/reject decision.
package ratelimit

import "time"

// Limiter decides, per key (typically a peer IP), whether the current
// event should be reported (logged) or silently counted.
type Limiter interface {
	// Allow reports whether an event for key should be reported now. It
	// consumes one token from key's bucket when it returns true. Buckets
	// are created lazily on first use, starting full.
	Allow(key string) bool
}

// New returns a Limiter where each key's bucket holds burst tokens and
// refills at a constant rate of burst tokens per interval.
func New(interval time.Duration, burst int) (Limiter, error) {
	if burst <= 0 {
		return nil, ErrorInvalidBurst.Error(nil)
	}

	if interval <= 0 {
		return nil, ErrorInvalidInterval.Error(nil)
	}

	return &limiter{
		interval: interval,
		burst:    float64(burst),
		rate:     float64(burst) / interval.Seconds(),
		buckets:  make(map[string]*bucket),
	}, nil
}
