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

// Package tlscontext wraps a certificates.TLSConfig with the listener-level
// verification policy: peer authentication mode, permitted-peer list,
// expired-certificate handling, and OCSP-backed revocation checking.
package tlscontext

import (
	"crypto/tls"
	"crypto/x509"

	"github.com/rsyslog/ingestcore/certificates"
	"github.com/rsyslog/ingestcore/ocsp"
	"github.com/rsyslog/ingestcore/peer"
)

// AuthMode selects how a peer's identity is established after handshake.
type AuthMode int

const (
	// AuthAnonymous performs no peer-identity check beyond the TLS
	// handshake itself.
	AuthAnonymous AuthMode = iota
	// AuthX509Name matches the peer's CommonName and/or SAN DNS entries
	// against the permitted-peer list.
	AuthX509Name
	// AuthX509Fingerprint matches the peer's certificate fingerprint
	// against the permitted-peer list.
	AuthX509Fingerprint
	// AuthX509CertValid only requires a valid, chain-verified
	// certificate; no name or fingerprint match is performed.
	AuthX509CertValid
)

// ExpiredPolicy controls how an expired (or not-yet-valid) peer
// certificate is handled.
type ExpiredPolicy int

const (
	// ExpiredDeny rejects the connection.
	ExpiredDeny ExpiredPolicy = iota
	// ExpiredWarn accepts the connection but the caller is told to log
	// a warning (via HandshakeInfo.ExpiredWarning).
	ExpiredWarn
	// ExpiredPermit silently accepts the connection.
	ExpiredPermit
)

// Config is the immutable construction-time policy for a Context.
type Config struct {
	Base certificates.TLSConfig

	AuthMode        AuthMode
	PermittedPeers  peer.Permitted
	ExpiredPolicy   ExpiredPolicy
	VerifyDepth     int
	PrioritizeSAN   bool
	RevocationCheck bool
	OCSP            ocsp.Checker
}

// VerifyResult carries the outcome of the post-handshake policy checks
// for diagnostics/logging, independent of the pass/fail decision itself.
type VerifyResult struct {
	ExpiredWarning bool
	RevocationUsed bool
}

// Context wraps a certificates.TLSConfig and enforces this listener's
// peer-verification policy via the standard library's
// VerifyPeerCertificate hook.
type Context interface {
	// TLSConfig returns the *tls.Config to hand to the driver for this
	// listener, with VerifyPeerCertificate wired to this Context's
	// policy.
	TLSConfig(serverName string) *tls.Config

	// VerifyPeer applies the full policy (expiry, revocation, identity)
	// to an already chain-verified peer certificate. It is also wired
	// as the tls.Config's VerifyPeerCertificate callback.
	VerifyPeer(verifiedChains [][]*x509.Certificate) (VerifyResult, error)

	// ShouldReportAuthFailure implements the bReportAuthErr latch: it
	// returns true once per failure streak, then false until the next
	// ResetAuthFailure call (made after a successful authentication).
	ShouldReportAuthFailure() bool

	// ResetAuthFailure re-arms the failure-reporting latch; called
	// after a successful peer authentication.
	ResetAuthFailure()
}

// New builds a Context from cfg.
func New(cfg Config) Context {
	return &tlsContext{cfg: cfg}
}
