/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
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

// Package size provides a byte-count type with human-scale constants and
// safe numeric conversions, used anywhere a buffer or frame bound is
// configured (framing max sizes, I/O buffer capacities).
package size

import (
	"fmt"
	"math"
)

// Size is a count of bytes.
type Size int64

const (
	SizeNul  Size = 0
	SizeUnit Size = 1
	SizeKilo Size = 1024
	SizeMega Size = 1024 * 1024
	SizeGiga Size = 1024 * 1024 * 1024
	SizeTera Size = 1024 * 1024 * 1024 * 1024

	KiB = SizeKilo
	MiB = SizeMega
	GiB = SizeGiga
	TiB = SizeTera
)

// Int64 returns the size as int64, clamped to math.MaxInt64 and floored at 0.
func (s Size) Int64() int64 {
	if s < 0 {
		return 0
	}
	return int64(s)
}

// Int returns the size as int, clamped to the platform int range.
func (s Size) Int() int {
	if s < 0 {
		return 0
	}
	if int64(s) > math.MaxInt32 && (^uint(0)>>32) == 0 {
		return math.MaxInt32
	}
	return int(s)
}

// Float64 returns the size as a float64 byte count.
func (s Size) Float64() float64 {
	return float64(s)
}

// String renders s using the largest binary unit that keeps the value >= 1.
func (s Size) String() string {
	return humanize(float64(s))
}

func humanize(f float64) string {
	units := []struct {
		n float64
		s string
	}{
		{float64(TiB), "TiB"},
		{float64(GiB), "GiB"},
		{float64(MiB), "MiB"},
		{float64(KiB), "KiB"},
	}

	for _, u := range units {
		if f >= u.n {
			return fmt.Sprintf("%.2g %s", f/u.n, u.s)
		}
	}

	return fmt.Sprintf("%.0f B", f)
}

// Parse converts a byte count into a Size.
func Parse(n int64) Size {
	return Size(n)
}
