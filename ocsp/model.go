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

package ocsp

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"sync"
	"time"
)

type entry struct {
	status    Status
	expiresAt time.Time
}

type cache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*entry
	order    []string
}

// CacheKey builds the canonical cache key for leaf's revocation status
// under issuer: hex(serial):sha256(issuer subject):sha256(issuer pubkey).
func CacheKey(leaf, issuer *x509.Certificate) string {
	nameSum := sha256.Sum256(issuer.RawSubject)
	keySum := sha256.Sum256(issuer.RawSubjectPublicKeyInfo)

	return hex.EncodeToString(leaf.SerialNumber.Bytes()) + ":" +
		hex.EncodeToString(nameSum[:]) + ":" +
		hex.EncodeToString(keySum[:])
}

func (c *cache) Lookup(key string) (Status, time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Unknown, time.Time{}, false
	}

	if time.Now().After(e.expiresAt) {
		c.remove(key)
		return Unknown, time.Time{}, false
	}

	return e.status, e.expiresAt, true
}

func (c *cache) Store(key string, status Status, expiresAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		if len(c.entries) >= c.capacity {
			c.evictOne()
		}
		c.order = append(c.order, key)
	}

	c.entries[key] = &entry{status: status, expiresAt: expiresAt}
}

func (c *cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// evictOne removes the first expired entry it finds, or else the oldest
// (FIFO, from the tail of insertion order). Caller holds c.mu.
func (c *cache) evictOne() {
	now := time.Now()

	for i, key := range c.order {
		if e, ok := c.entries[key]; ok && now.After(e.expiresAt) {
			c.removeAt(i)
			return
		}
	}

	if len(c.order) > 0 {
		c.removeAt(0)
	}
}

// remove deletes key regardless of its position in c.order. Caller holds c.mu.
func (c *cache) remove(key string) {
	for i, k := range c.order {
		if k == key {
			c.removeAt(i)
			return
		}
	}
}

func (c *cache) removeAt(i int) {
	key := c.order[i]
	delete(c.entries, key)
	c.order = append(c.order[:i], c.order[i+1:]...)
}
