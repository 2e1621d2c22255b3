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

// stepLF advances the LF-delimited state machine, adapted from
// ioutils/delim's buffered delimiter scan to a non-blocking, partially
// filled input buffer.
func (f *framer) stepLF() (Record, bool, bool, error) {
	switch f.state {
	case AwaitingFrame:
		f.state = ReadingLfDelimited
		f.bodyRead = f.bodyRead[:0]
		f.spFixPending = f.opts.SPFramingFix
		return Record{}, false, true, nil

	case ReadingLfDelimited:
		for len(f.buf) > 0 {
			b := f.buf[0]

			if f.spFixPending {
				f.spFixPending = false
				if b == ' ' {
					f.buf = f.buf[1:]
					continue
				}
			}

			if f.isTerminator(b) {
				f.buf = f.buf[1:]

				payload := make([]byte, len(f.bodyRead))
				copy(payload, f.bodyRead)

				f.state = AwaitingFrame
				return Record{Payload: payload}, true, true, nil
			}

			if len(f.bodyRead) >= f.opts.MaxFrameSize {
				f.state = Discarding
				return Record{}, false, true, nil
			}

			f.bodyRead = append(f.bodyRead, b)
			f.buf = f.buf[1:]
		}

		return Record{}, false, false, nil

	case Discarding:
		for len(f.buf) > 0 {
			b := f.buf[0]
			f.buf = f.buf[1:]

			if f.isTerminator(b) {
				f.state = AwaitingFrame

				if f.opts.DiscardTruncatedMsg {
					return Record{}, false, true, nil
				}

				payload := make([]byte, len(f.bodyRead))
				copy(payload, f.bodyRead)
				return Record{Payload: payload, Truncated: true}, true, true, nil
			}
		}

		return Record{}, false, false, nil

	default:
		return Record{}, false, false, nil
	}
}

// isTerminator reports whether b ends an LF-delimited record under the
// configured discipline options.
func (f *framer) isTerminator(b byte) bool {
	if f.opts.DisableLFDelim {
		return f.opts.AdditionalDelim != 0 && b == f.opts.AdditionalDelim
	}

	if b == '\n' {
		return true
	}

	return f.opts.AdditionalDelim != 0 && b == f.opts.AdditionalDelim
}
