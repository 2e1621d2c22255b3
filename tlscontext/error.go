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

import "github.com/rsyslog/ingestcore/errors"

const (
	ErrorNoPeerCertificate errors.CodeError = iota + errors.MinPkgTlsContext
	ErrorCertificateExpired
	ErrorCertificateRevoked
	ErrorCRLOnlyCertificate
	ErrorPeerNotPermitted
	ErrorRevocationCheckFailed
	ErrorVerifyDepthExceeded
)

var isCodeError = false

func IsCodeError() bool {
	return isCodeError
}

func init() {
	isCodeError = errors.ExistInMapMessage(ErrorNoPeerCertificate)
	errors.RegisterIdFctMessage(ErrorNoPeerCertificate, getMessage)
}

func getMessage(code errors.CodeError) (message string) {
	switch code {
	case errors.UNK_ERROR:
		return ""
	case ErrorNoPeerCertificate:
		return "no peer certificate presented"
	case ErrorCertificateExpired:
		return "peer certificate is expired or not yet valid"
	case ErrorCertificateRevoked:
		return "peer certificate is revoked"
	case ErrorCRLOnlyCertificate:
		return "peer certificate has a CRL distribution point and no OCSP responder, revocation cannot be checked"
	case ErrorPeerNotPermitted:
		return "peer identity does not match the permitted-peer list"
	case ErrorRevocationCheckFailed:
		return "revocation status could not be determined"
	case ErrorVerifyDepthExceeded:
		return "peer certificate chain exceeds the configured verify depth"
	}

	return ""
}
