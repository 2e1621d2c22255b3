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

// Package framing decodes a TCP byte stream into discrete syslog
// records under one of two wire disciplines: RFC 6587 octet-counted,
// or traditional LF-delimited. Decoding is incremental: bytes arrive in
// arbitrary chunks from non-blocking reads and records are emitted as
// soon as they are complete.
package framing

// Discipline selects the wire framing a listener expects.
type Discipline int

const (
	// OctetCounted frames are "<digits> SP <payload>" per RFC 6587.
	OctetCounted Discipline = iota
	// LFDelimited frames are terminated by '\n' and/or an additional
	// configured delimiter byte.
	LFDelimited
)

// State is the framing state machine's current position, mirroring the
// FramingState enum: AwaitingFrame, ReadingOctetCount, ReadingBody,
// ReadingLfDelimited, Discarding.
type State int

const (
	AwaitingFrame State = iota
	ReadingOctetCount
	ReadingOctetCountedBody
	ReadingLfDelimited
	Discarding
)

// Options configures a Framer for one listener.
type Options struct {
	Discipline Discipline

	// MaxFrameSize bounds payload length; overruns trigger Discarding.
	MaxFrameSize int

	// AdditionalDelim is an extra LF-discipline terminator byte. Zero
	// means none configured.
	AdditionalDelim byte

	// DisableLFDelim makes AdditionalDelim the only terminator.
	DisableLFDelim bool

	// DiscardTruncatedMsg drops an overrun frame silently (after one
	// warning) instead of forwarding its truncated prefix.
	DiscardTruncatedMsg bool

	// SPFramingFix treats one leading space before a record as benign,
	// working around a legacy sender bug.
	SPFramingFix bool
}

// Record is one decoded syslog message payload.
type Record struct {
	Payload   []byte
	Truncated bool
}

// Framer incrementally decodes a byte stream into Records. It is not
// safe for concurrent use; a Session owns exactly one Framer and feeds
// it from a single worker at a time.
type Framer interface {
	// Feed appends data to the internal buffer and returns every
	// complete Record decoded so far. It never blocks and never
	// retains data beyond what advances the state machine.
	Feed(data []byte) ([]Record, error)

	// State reports the current FramingState, for diagnostics.
	State() State
}

// New returns a Framer configured per opts.
func New(opts Options) Framer {
	if opts.MaxFrameSize <= 0 {
		opts.MaxFrameSize = DefaultMaxFrameSize
	}

	return &framer{opts: opts, state: AwaitingFrame}
}

// DefaultMaxFrameSize matches the session receive buffer's default
// capacity (16 KiB + 1).
const DefaultMaxFrameSize = 16*1024 + 1
