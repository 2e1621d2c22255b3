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

import "github.com/rsyslog/ingestcore/errors"

const (
	ErrorNoResponder errors.CodeError = iota + errors.MinPkgOcsp
	ErrorHTTPStatus
	ErrorResponseTooLarge
	ErrorResponseParse
	ErrorResponseUnauthorized
	ErrorResponseStale
	ErrorHTTPSResponder
)

var isCodeError = false

func IsCodeError() bool {
	return isCodeError
}

func init() {
	isCodeError = errors.ExistInMapMessage(ErrorNoResponder)
	errors.RegisterIdFctMessage(ErrorNoResponder, getMessage)
}

func getMessage(code errors.CodeError) (message string) {
	switch code {
	case errors.UNK_ERROR:
		return ""
	case ErrorNoResponder:
		return "certificate has no OCSP responder URL"
	case ErrorHTTPStatus:
		return "OCSP responder returned a non-200 status"
	case ErrorResponseTooLarge:
		return "OCSP response exceeds the 1 MiB cap"
	case ErrorResponseParse:
		return "cannot parse OCSP response"
	case ErrorResponseUnauthorized:
		return "OCSP response signature is not authorized for this issuer"
	case ErrorResponseStale:
		return "OCSP response is outside its validity window"
	case ErrorHTTPSResponder:
		return "OCSP responder URL uses HTTPS and is skipped"
	}

	return ""
}
