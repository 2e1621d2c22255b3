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

package tlscontext

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"sync/atomic"
	"time"

	"github.com/rsyslog/ingestcore/ocsp"
)

type tlsContext struct {
	cfg Config

	// reported latches the bReportAuthErr behavior: true once a failure
	// has already been reported since the last successful auth.
	reported atomic.Bool
}

func (c *tlsContext) TLSConfig(serverName string) *tls.Config {
	tc := c.cfg.Base.TLS(serverName)

	if c.cfg.AuthMode != AuthAnonymous || c.cfg.ExpiredPolicy != ExpiredDeny {
		tc.InsecureSkipVerify = true
		tc.VerifyPeerCertificate = c.verifyPeerCertificate
	}

	return tc
}

func (c *tlsContext) verifyPeerCertificate(rawCerts [][]byte, _ [][]*x509.Certificate) error {
	if len(rawCerts) == 0 {
		if c.cfg.AuthMode == AuthAnonymous {
			return nil
		}
		return ErrorNoPeerCertificate.Error(nil)
	}

	chain := make([]*x509.Certificate, 0, len(rawCerts))
	for _, raw := range rawCerts {
		cert, err := x509.ParseCertificate(raw)
		if err != nil {
			return err
		}
		chain = append(chain, cert)
	}

	verified, err := c.verifyChain(chain)
	if err != nil {
		return err
	}

	_, verr := c.VerifyPeer(verified)
	return verr
}

func (c *tlsContext) verifyChain(chain []*x509.Certificate) ([][]*x509.Certificate, error) {
	leaf := chain[0]

	pool := c.cfg.Base.GetClientCAPool()

	opts := x509.VerifyOptions{
		Roots:         pool,
		Intermediates: x509.NewCertPool(),
		KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	}

	for _, inter := range chain[1:] {
		opts.Intermediates.AddCert(inter)
	}

	if c.cfg.VerifyDepth > 0 && len(chain) > c.cfg.VerifyDepth {
		return nil, ErrorVerifyDepthExceeded.Error(nil)
	}

	// Expiry is evaluated explicitly (and policy-gated) in VerifyPeer;
	// verify the chain at a timestamp inside the leaf's own validity
	// window so chain building itself never fails on expiry alone.
	opts.CurrentTime = leaf.NotBefore.Add(time.Second)

	chains, err := leaf.Verify(opts)
	if err != nil {
		return nil, err
	}

	return chains, nil
}

func withinValidity(cert *x509.Certificate, now time.Time) bool {
	return !now.Before(cert.NotBefore) && !now.After(cert.NotAfter)
}

// VerifyPeer applies expiry policy, then revocation (if enabled), then
// name/fingerprint matching, in that order, per the configured policy.
func (c *tlsContext) VerifyPeer(verifiedChains [][]*x509.Certificate) (VerifyResult, error) {
	var result VerifyResult

	if len(verifiedChains) == 0 || len(verifiedChains[0]) == 0 {
		return result, ErrorNoPeerCertificate.Error(nil)
	}

	leaf := verifiedChains[0][0]
	var issuer *x509.Certificate
	if len(verifiedChains[0]) > 1 {
		issuer = verifiedChains[0][1]
	} else {
		issuer = leaf
	}

	if !withinValidity(leaf, time.Now()) {
		switch c.cfg.ExpiredPolicy {
		case ExpiredDeny:
			return result, ErrorCertificateExpired.Error(nil)
		case ExpiredWarn:
			result.ExpiredWarning = true
		case ExpiredPermit:
			// accepted silently
		}
	}

	if c.cfg.RevocationCheck {
		result.RevocationUsed = true

		if len(leaf.OCSPServer) == 0 {
			if len(leaf.CRLDistributionPoints) > 0 {
				return result, ErrorCRLOnlyCertificate.Error(nil)
			}
		} else if c.cfg.OCSP != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			status, err := c.cfg.OCSP.Check(ctx, leaf, issuer)
			cancel()

			if err != nil {
				return result, ErrorRevocationCheckFailed.Error(err)
			}

			if status == ocsp.Revoked {
				return result, ErrorCertificateRevoked.Error(nil)
			}
		}
	}

	switch c.cfg.AuthMode {
	case AuthX509Name:
		if c.cfg.PermittedPeers == nil || c.cfg.PermittedPeers.Empty() {
			break
		}

		matched := false
		hasSAN := len(leaf.DNSNames) > 0

		if c.cfg.PrioritizeSAN && hasSAN {
			matched = c.cfg.PermittedPeers.MatchSAN(leaf.DNSNames)
		} else {
			matched = c.cfg.PermittedPeers.MatchSAN(leaf.DNSNames) ||
				c.cfg.PermittedPeers.MatchCommonName(leaf.Subject.CommonName)
		}

		if !matched {
			return result, ErrorPeerNotPermitted.Error(nil)
		}
	case AuthX509Fingerprint:
		if c.cfg.PermittedPeers != nil && !c.cfg.PermittedPeers.Empty() &&
			!c.cfg.PermittedPeers.MatchFingerprint(leaf) {
			return result, ErrorPeerNotPermitted.Error(nil)
		}
	case AuthX509CertValid, AuthAnonymous:
		// chain validity (and, for CertValid, nothing more) is enough
	}

	c.ResetAuthFailure()
	return result, nil
}

// ShouldReportAuthFailure implements the single-report latch: it returns
// true for the first call since construction or the last ResetAuthFailure,
// false for every call after that until the latch is re-armed.
func (c *tlsContext) ShouldReportAuthFailure() bool {
	return !c.reported.Swap(true)
}

func (c *tlsContext) ResetAuthFailure() {
	c.reported.Store(false)
}
