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

package framing

import "strconv"

// stepOctet advances the RFC 6587 octet-counted state machine by as
// much as the currently buffered data allows. It returns a decoded
// Record (got=true) and/or more=true when the caller should call again
// because there may be additional complete frames already buffered.
func (f *framer) stepOctet() (rec Record, got bool, more bool, err error) {
	switch f.state {
	case AwaitingFrame:
		f.state = ReadingOctetCount
		f.octetDigits = f.octetDigits[:0]
		return Record{}, false, true, nil

	case ReadingOctetCount:
		for len(f.buf) > 0 {
			b := f.buf[0]

			if b == ' ' {
				f.buf = f.buf[1:]

				if len(f.octetDigits) == 0 {
					return Record{}, false, false, ErrorInvalidOctetCount.Error(nil)
				}

				n, perr := strconv.Atoi(string(f.octetDigits))
				if perr != nil || n < 0 {
					return Record{}, false, false, ErrorInvalidOctetCount.Error(perr)
				}

				f.bodyLen = n
				f.bodyRead = f.bodyRead[:0]

				if n > f.opts.MaxFrameSize {
					f.discardLeft = n
					f.state = Discarding
				} else {
					f.state = ReadingOctetCountedBody
				}

				return Record{}, false, true, nil
			}

			if b < '0' || b > '9' {
				return Record{}, false, false, ErrorInvalidOctetCount.Error(nil)
			}

			f.octetDigits = append(f.octetDigits, b)
			f.buf = f.buf[1:]
		}

		return Record{}, false, false, nil

	case ReadingOctetCountedBody:
		need := f.bodyLen - len(f.bodyRead)

		if need > len(f.buf) {
			f.bodyRead = append(f.bodyRead, f.buf...)
			f.buf = f.buf[:0]
			return Record{}, false, false, nil
		}

		f.bodyRead = append(f.bodyRead, f.buf[:need]...)
		f.buf = f.buf[need:]

		payload := make([]byte, len(f.bodyRead))
		copy(payload, f.bodyRead)

		f.state = AwaitingFrame
		return Record{Payload: payload}, true, true, nil

	case Discarding:
		return f.stepDiscard()

	default:
		return Record{}, false, false, nil
	}
}

// stepDiscard consumes the remainder of an over-size frame, retaining
// only up to MaxFrameSize bytes of its prefix for optional forwarding.
func (f *framer) stepDiscard() (Record, bool, bool, error) {
	if len(f.buf) == 0 {
		return Record{}, false, false, nil
	}

	take := len(f.buf)
	if take > f.discardLeft {
		take = f.discardLeft
	}

	if len(f.bodyRead) < f.opts.MaxFrameSize {
		keep := f.opts.MaxFrameSize - len(f.bodyRead)
		if keep > take {
			keep = take
		}
		f.bodyRead = append(f.bodyRead, f.buf[:keep]...)
	}

	f.buf = f.buf[take:]
	f.discardLeft -= take

	if f.discardLeft > 0 {
		return Record{}, false, false, nil
	}

	f.state = AwaitingFrame

	if f.opts.DiscardTruncatedMsg {
		return Record{}, false, true, nil
	}

	payload := make([]byte, len(f.bodyRead))
	copy(payload, f.bodyRead)

	return Record{Payload: payload, Truncated: true}, true, true, nil
}
