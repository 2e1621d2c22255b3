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

// Package ocsp maintains the process-wide OCSP response cache and the
// minimal HTTP(S is rejected) client used to check certificate
// revocation status against the issuer's OCSP responders.
package ocsp

import (
	"context"
	"crypto/x509"
	"time"
)

// Status mirrors the three outcomes of an OCSP lookup.
type Status int

const (
	Unknown Status = iota
	Good
	Revoked
)

func (s Status) String() string {
	switch s {
	case Good:
		return "good"
	case Revoked:
		return "revoked"
	default:
		return "unknown"
	}
}

const (
	// DefaultCapacity bounds the number of cached entries.
	DefaultCapacity = 100
	// DefaultTTL is used when the responder did not supply a usable
	// nextUpdate field.
	DefaultTTL = time.Hour

	// MaxResponseSize caps the OCSP HTTP response body.
	MaxResponseSize = 1 << 20 // 1 MiB
	// RequestTimeout bounds the full responder round trip.
	RequestTimeout = 5 * time.Second
	// ValidityLeeway tolerates minor clock skew on thisUpdate/nextUpdate.
	ValidityLeeway = 5 * time.Minute
)

// Cache is the bounded, mutex-protected process-wide OCSP response
// cache keyed by hex(serial):sha256(issuer name):sha256(issuer pubkey).
type Cache interface {
	Lookup(key string) (status Status, expiresAt time.Time, ok bool)
	Store(key string, status Status, expiresAt time.Time)
	Len() int
}

// NewCache returns a Cache bounded to capacity entries. A non-positive
// capacity is replaced with DefaultCapacity.
func NewCache(capacity int) Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &cache{
		capacity: capacity,
		entries:  make(map[string]*entry, capacity),
		order:    make([]string, 0, capacity),
	}
}

// Checker looks up revocation status for a leaf certificate, consulting
// the cache first and falling back to the issuer's OCSP responders.
type Checker interface {
	Check(ctx context.Context, leaf, issuer *x509.Certificate) (Status, error)
}

// NewChecker returns a Checker backed by the given Cache.
func NewChecker(c Cache) Checker {
	return &checker{cache: c}
}
