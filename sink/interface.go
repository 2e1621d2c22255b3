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

// Package sink declares the contract a session uses to forward decoded
// syslog records downstream. The message/template engine and the
// output/action pipeline that ultimately implement this interface are
// external collaborators, out of scope here.
package sink

// Result is the outcome of one Submit call.
type Result int

const (
	// Ok means the record was accepted.
	Ok Result = iota
	// QueueFull means the sink is backpressuring; the session should stop
	// reading for this turn and retry on the next one.
	QueueFull
	// Fatal means the sink cannot accept further records from this
	// session; the session transitions to Closing.
	Fatal
)

// MessageSink receives decoded records from one or more sessions.
// Implementations must be safe for concurrent use by multiple sessions.
type MessageSink interface {
	// Submit delivers one decoded record. listenerTag identifies the
	// listener the record arrived on (ListenerConfig.InputName);
	// peerIP/peerFQDN/defaultTZ are the session's peer identity and
	// configured timezone; payload is the record bytes exactly as framed.
	Submit(listenerTag, peerIP, peerFQDN, defaultTZ string, payload []byte) Result
}
