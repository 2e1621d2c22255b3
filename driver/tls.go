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

package driver

import (
	"crypto/tls"
	"net"
	"os"
	"time"
)

// tlsDriver is the TLS Driver. crypto/tls does not poison a connection on
// a Read/Write/Handshake deadline timeout (only on a genuine I/O error),
// so the same immediate-deadline non-blocking trick used by plainDriver
// also gives Handshake its resumable, idempotent retry behavior: each
// call makes whatever progress the already-buffered bytes allow and
// returns WouldBlock instead of parking when more input is needed.
type tlsDriver struct {
	conn  *net.TCPConn
	tconn *tls.Conn
}

// NewTLS wraps an accepted *net.TCPConn in a server-side tls.Conn. cfg's
// VerifyPeerCertificate hook (set by tlscontext.Context.TLSConfig) is
// what enforces peer auth mode, expiry policy and revocation checking;
// Handshake surfaces any such failure as its returned error.
func NewTLS(conn *net.TCPConn, cfg *tls.Config) Driver {
	return &tlsDriver{conn: conn, tconn: tls.Server(conn, cfg)}
}

func (d *tlsDriver) Handshake() (Result, Direction, error) {
	if err := d.conn.SetDeadline(time.Now()); err != nil {
		return ResultErr, DirNone, err
	}

	err := d.tconn.Handshake()
	if err == nil {
		return Ok, DirNone, nil
	}

	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		// Either direction may be what's pending; the session registers
		// both In and Out with the poller while Handshaking.
		return WouldBlock, DirRead, nil
	}

	return ResultErr, DirNone, err
}

func (d *tlsDriver) Read(buf []byte) (int, Result, Direction, error) {
	if err := d.conn.SetReadDeadline(time.Now()); err != nil {
		return 0, ResultErr, DirNone, err
	}

	n, err := d.tconn.Read(buf)
	return classifyIOResult(n, err, DirRead)
}

func (d *tlsDriver) Write(buf []byte) (int, Result, Direction, error) {
	if err := d.conn.SetWriteDeadline(time.Now()); err != nil {
		return 0, ResultErr, DirNone, err
	}

	n, err := d.tconn.Write(buf)
	return classifyIOResult(n, err, DirWrite)
}

func (d *tlsDriver) Close() error {
	return d.tconn.Close()
}

func (d *tlsDriver) Abort() error {
	if err := d.conn.SetLinger(0); err != nil {
		return err
	}
	return d.tconn.Close()
}

func (d *tlsDriver) RemoteAddr() net.Addr {
	return d.conn.RemoteAddr()
}

func (d *tlsDriver) RemoteIP() string {
	if host, _, err := net.SplitHostPort(d.conn.RemoteAddr().String()); err == nil {
		return host
	}
	return d.conn.RemoteAddr().String()
}

func (d *tlsDriver) RemotePort() int {
	if tcpAddr, ok := d.conn.RemoteAddr().(*net.TCPAddr); ok {
		return tcpAddr.Port
	}
	return 0
}

func (d *tlsDriver) RemoteHostname() (string, error) {
	names, err := net.LookupAddr(d.RemoteIP())
	if err != nil || len(names) == 0 {
		return "", err
	}
	return names[0], nil
}

func (d *tlsDriver) EnableKeepAlive(idle, interval time.Duration, probes int) error {
	if err := d.conn.SetKeepAlive(true); err != nil {
		return err
	}
	if idle > 0 {
		if err := d.conn.SetKeepAlivePeriod(idle); err != nil {
			return err
		}
	}
	_ = interval
	_ = probes
	return nil
}

func (d *tlsDriver) File() (*os.File, error) {
	return d.conn.File()
}

func (d *tlsDriver) HandshakeInfo() HandshakeInfo {
	st := d.tconn.ConnectionState()

	info := HandshakeInfo{
		CipherSuite: st.CipherSuite,
		Version:     st.Version,
	}

	if len(st.PeerCertificates) > 0 {
		info.NegotiatedID = st.PeerCertificates[0].Subject.CommonName
	}

	return info
}
