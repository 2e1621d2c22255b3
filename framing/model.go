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

type framer struct {
	opts Options
	state State

	buf []byte // bytes received but not yet consumed

	octetDigits []byte // accumulated digits while ReadingOctetCount
	bodyLen     int    // target payload length
	bodyRead    []byte // bytes accumulated while ReadingOctetCountedBody/ReadingLfDelimited
	discardLeft int    // octet-counted bytes left to discard while Discarding

	spFixPending bool // SPFramingFix: skip at most one leading SP per frame
}

func (f *framer) State() State {
	return f.state
}

func (f *framer) Feed(data []byte) ([]Record, error) {
	f.buf = append(f.buf, data...)

	var out []Record

	for {
		var (
			rec  Record
			got  bool
			err  error
			more bool
		)

		switch f.opts.Discipline {
		case OctetCounted:
			rec, got, more, err = f.stepOctet()
		case LFDelimited:
			rec, got, more, err = f.stepLF()
		}

		if err != nil {
			return out, err
		}

		if got {
			out = append(out, rec)
		}

		if !more {
			break
		}
	}

	return out, nil
}
