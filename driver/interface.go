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

// Package driver abstracts the per-session transport: plain TCP or TLS
// over TCP. Reads and writes are non-blocking from the caller's point of
// view (a WouldBlock result, never a parked goroutine) so a fixed-size
// worker pool can multiplex many sessions; Handshake is resumable the
// same way, driven by an immediate deadline on each call rather than a
// background goroutine — see tls.go.
package driver

import (
	"net"
	"os"
	"strings"
	"time"
)

// Kind selects the transport implementation a listener uses.
type Kind int

const (
	// PlainTCP is unencrypted TCP.
	PlainTCP Kind = iota
	// OpenSSL stands in for the source's "ossl" driver; this module
	// implements it with the standard library's crypto/tls.
	OpenSSL
	// GnuTLS and MbedTLS are accepted as configuration values but have no
	// Go-native binding in this corpus; ParseKind accepts them, but
	// Accept rejects them with ErrorUnsupportedKind.
	GnuTLS
	MbedTLS
)

// ParseKind parses the "driver" configuration field.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ptcp", "":
		return PlainTCP, nil
	case "ossl":
		return OpenSSL, nil
	case "gtls":
		return GnuTLS, nil
	case "mbedtls":
		return MbedTLS, nil
	default:
		return PlainTCP, ErrorUnsupportedKind.Error(nil)
	}
}

func (k Kind) String() string {
	switch k {
	case PlainTCP:
		return "ptcp"
	case OpenSSL:
		return "ossl"
	case GnuTLS:
		return "gtls"
	case MbedTLS:
		return "mbedtls"
	default:
		return "unknown"
	}
}

// Result mirrors the read(2)/write(2) outcome a non-blocking session loop
// cares about.
type Result int

const (
	Ok Result = iota
	WouldBlock
	Eof
	ResultErr
)

// Direction is the I/O direction a WouldBlock result is pending on.
type Direction int

const (
	DirNone Direction = iota
	DirRead
	DirWrite
)

// HandshakeInfo carries post-handshake diagnostics for logging.
type HandshakeInfo struct {
	CipherSuite  uint16
	Version      uint16
	NegotiatedID string
}

// Driver is the per-session transport handle.
type Driver interface {
	// Handshake advances (or, for plain TCP, immediately completes) the
	// connection setup. Ok means the session may submit bytes;
	// WouldBlock means call again once the poller reports readiness;
	// a non-nil error is terminal for the session.
	Handshake() (Result, Direction, error)

	// Read attempts one non-blocking read. It never parks the calling
	// goroutine.
	Read(buf []byte) (n int, result Result, dir Direction, err error)

	// Write attempts one non-blocking write.
	Write(buf []byte) (n int, result Result, dir Direction, err error)

	// Close releases the underlying connection.
	Close() error

	// Abort forces a TCP RST (SO_LINGER = 0) instead of a clean shutdown.
	Abort() error

	RemoteAddr() net.Addr
	RemoteIP() string
	RemotePort() int

	// RemoteHostname performs a reverse DNS lookup of RemoteIP.
	RemoteHostname() (string, error)

	EnableKeepAlive(idle, interval time.Duration, probes int) error

	// File duplicates the underlying socket's descriptor for poller
	// registration. The caller owns the returned *os.File and must not
	// use it for I/O; all reads/writes go through this Driver.
	File() (*os.File, error)

	// HandshakeInfo reports negotiated parameters once Handshake()
	// returns Ok on a TLS driver; zero value for plain TCP.
	HandshakeInfo() HandshakeInfo
}
