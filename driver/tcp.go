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
	"net"
	"os"
	"time"
)

// plainDriver is the non-TLS Driver. Non-blocking semantics are emulated
// with an immediate (time.Now()) deadline on each call: the runtime
// poller-integrated net.Conn either returns already-buffered data/space
// right away or a timeout error, which is translated to WouldBlock
// instead of propagated as a hard failure.
type plainDriver struct {
	conn *net.TCPConn
}

// NewPlainTCP wraps an accepted *net.TCPConn as a plain-text Driver.
func NewPlainTCP(conn *net.TCPConn) Driver {
	return &plainDriver{conn: conn}
}

func (d *plainDriver) Handshake() (Result, Direction, error) {
	return Ok, DirNone, nil
}

func (d *plainDriver) Read(buf []byte) (int, Result, Direction, error) {
	if err := d.conn.SetReadDeadline(time.Now()); err != nil {
		return 0, ResultErr, DirNone, err
	}

	n, err := d.conn.Read(buf)
	return classifyIOResult(n, err, DirRead)
}

func (d *plainDriver) Write(buf []byte) (int, Result, Direction, error) {
	if err := d.conn.SetWriteDeadline(time.Now()); err != nil {
		return 0, ResultErr, DirNone, err
	}

	n, err := d.conn.Write(buf)
	return classifyIOResult(n, err, DirWrite)
}

// classifyIOResult turns a net.Conn Read/Write outcome into the
// Ok/WouldBlock/Eof/ResultErr vocabulary the session loop consumes.
func classifyIOResult(n int, err error, dir Direction) (int, Result, Direction, error) {
	if err == nil {
		return n, Ok, DirNone, nil
	}

	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return n, WouldBlock, dir, nil
	}

	if err.Error() == "EOF" {
		return n, Eof, DirNone, nil
	}

	return n, ResultErr, DirNone, err
}

func (d *plainDriver) Close() error {
	return d.conn.Close()
}

func (d *plainDriver) Abort() error {
	if err := d.conn.SetLinger(0); err != nil {
		return err
	}
	return d.conn.Close()
}

func (d *plainDriver) RemoteAddr() net.Addr {
	return d.conn.RemoteAddr()
}

func (d *plainDriver) RemoteIP() string {
	if host, _, err := net.SplitHostPort(d.conn.RemoteAddr().String()); err == nil {
		return host
	}
	return d.conn.RemoteAddr().String()
}

func (d *plainDriver) RemotePort() int {
	if tcpAddr, ok := d.conn.RemoteAddr().(*net.TCPAddr); ok {
		return tcpAddr.Port
	}
	return 0
}

func (d *plainDriver) RemoteHostname() (string, error) {
	names, err := net.LookupAddr(d.RemoteIP())
	if err != nil || len(names) == 0 {
		return "", err
	}
	return names[0], nil
}

func (d *plainDriver) EnableKeepAlive(idle, interval time.Duration, probes int) error {
	if err := d.conn.SetKeepAlive(true); err != nil {
		return err
	}
	if idle > 0 {
		if err := d.conn.SetKeepAlivePeriod(idle); err != nil {
			return err
		}
	}
	// interval/probes have no portable net.TCPConn knob; idle period is
	// the only keepalive timing the standard library exposes.
	_ = interval
	_ = probes
	return nil
}

func (d *plainDriver) File() (*os.File, error) {
	return d.conn.File()
}

func (d *plainDriver) HandshakeInfo() HandshakeInfo {
	return HandshakeInfo{}
}
