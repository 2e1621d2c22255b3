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

package peer

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"strings"
	"sync"

	"github.com/rsyslog/ingestcore/acl"
)

type fingerprintKind int

const (
	fpSHA1 fingerprintKind = iota
	fpSHA256
)

type fingerprint struct {
	kind fingerprintKind
	sum  string
}

type permitted struct {
	mu    sync.RWMutex
	names []acl.Wildcard
	fps   []fingerprint
}

func (p *permitted) Add(entry string) error {
	entry = strings.TrimSpace(entry)

	if entry == "" {
		return ErrorEntryEmpty.Error(nil)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case strings.HasPrefix(strings.ToUpper(entry), "SHA1:"):
		sum, err := normalizeHex(entry[len("SHA1:"):], sha1.Size)
		if err != nil {
			return err
		}
		p.fps = append(p.fps, fingerprint{kind: fpSHA1, sum: sum})
	case strings.HasPrefix(strings.ToUpper(entry), "SHA256:"):
		sum, err := normalizeHex(entry[len("SHA256:"):], sha256.Size)
		if err != nil {
			return err
		}
		p.fps = append(p.fps, fingerprint{kind: fpSHA256, sum: sum})
	default:
		p.names = append(p.names, acl.CompileWildcard(entry))
	}

	return nil
}

func normalizeHex(s string, size int) (string, error) {
	s = strings.ReplaceAll(s, ":", "")
	s = strings.ToLower(strings.TrimSpace(s))

	if len(s) != size*2 {
		return "", ErrorFingerprintFormat.Error(nil)
	}

	if _, err := hex.DecodeString(s); err != nil {
		return "", ErrorFingerprintFormat.Error(err)
	}

	return s, nil
}

func (p *permitted) Empty() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.names) == 0 && len(p.fps) == 0
}

func (p *permitted) Match(cert *x509.Certificate) bool {
	if cert == nil {
		return false
	}

	if p.Empty() {
		return true
	}

	if p.HasNameEntries() {
		if p.MatchCommonName(cert.Subject.CommonName) || p.MatchSAN(cert.DNSNames) {
			return true
		}
	}

	return p.MatchFingerprint(cert)
}

func (p *permitted) HasNameEntries() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.names) > 0
}

func (p *permitted) MatchCommonName(cn string) bool {
	if cn == "" {
		return false
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, w := range p.names {
		if w.Match(cn) {
			return true
		}
	}

	return false
}

func (p *permitted) MatchSAN(dns []string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, name := range dns {
		for _, w := range p.names {
			if w.Match(name) {
				return true
			}
		}
	}

	return false
}

func (p *permitted) MatchFingerprint(cert *x509.Certificate) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(p.fps) == 0 || cert == nil {
		return false
	}

	sum1 := sha1.Sum(cert.Raw)
	sum256 := sha256.Sum256(cert.Raw)
	hex1 := hex.EncodeToString(sum1[:])
	hex256 := hex.EncodeToString(sum256[:])

	for _, fp := range p.fps {
		switch fp.kind {
		case fpSHA1:
			if fp.sum == hex1 {
				return true
			}
		case fpSHA256:
			if fp.sum == hex256 {
				return true
			}
		}
	}

	return false
}
