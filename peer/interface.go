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

// Package peer matches an authenticated TLS peer certificate against a
// configured allow-list of permitted peers, either by wildcard name
// (subject CN / SAN DNS entries) or by certificate fingerprint.
package peer

import "crypto/x509"

// Permitted holds a compiled allow-list of peer identities. A peer is
// accepted if it matches at least one entry, by name or by fingerprint.
type Permitted interface {
	// Add compiles and appends one configured entry. Entries beginning
	// with "SHA1:" or "SHA256:" are fingerprint entries; anything else
	// is compiled as a wildcard name pattern.
	Add(entry string) error

	// Empty reports whether no entries were ever added. An empty
	// Permitted matches any peer (no restriction configured).
	Empty() bool

	// Match reports whether the given leaf certificate satisfies at
	// least one compiled entry: its Subject CommonName or any DNSNames
	// SAN entry against the wildcard entries, or its fingerprint
	// against the fingerprint entries.
	Match(cert *x509.Certificate) bool

	// MatchCommonName reports whether cn matches any compiled wildcard
	// name entry. Used by callers that must honor SAN-priority (ignore
	// the CN entirely when the certificate carries any SAN).
	MatchCommonName(cn string) bool

	// MatchSAN reports whether any of dns matches any compiled wildcard
	// name entry.
	MatchSAN(dns []string) bool

	// MatchFingerprint reports whether cert's SHA-1 or SHA-256
	// fingerprint matches any compiled fingerprint entry.
	MatchFingerprint(cert *x509.Certificate) bool

	// HasNameEntries reports whether any wildcard name entry was added.
	HasNameEntries() bool
}

// New returns an empty Permitted allow-list.
func New() Permitted {
	return &permitted{}
}
