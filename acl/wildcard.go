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

package acl

import "strings"

// Wildcard is a per-dot-component hostname pattern compiled once and matched
// many times. A component is either a literal, a full-match-all "*", or
// empty (matches a missing component only when the pattern itself has an
// empty component in that position).
//
// It is shared by the ACL hostname rules and by the TLS peer-name matcher in
// package peer, so both wildcard engines are the same code.
type Wildcard struct {
	components []string
	matchAll   bool
}

// CompileWildcard compiles pattern into a Wildcard. Compiling an already
// compiled Wildcard's String() form yields an equal matcher (idempotent).
func CompileWildcard(pattern string) Wildcard {
	if pattern == "*" {
		return Wildcard{matchAll: true}
	}
	return Wildcard{components: strings.Split(pattern, ".")}
}

// String renders the wildcard back to its dotted-pattern form.
func (w Wildcard) String() string {
	if w.matchAll {
		return "*"
	}
	return strings.Join(w.components, ".")
}

// Match compares name (case-insensitive) against the compiled pattern.
func (w Wildcard) Match(name string) bool {
	if w.matchAll {
		return true
	}

	nc := strings.Split(name, ".")
	if len(nc) != len(w.components) {
		return false
	}

	for i, pc := range w.components {
		if pc == "*" {
			continue
		}
		if !strings.EqualFold(pc, nc[i]) {
			return false
		}
	}
	return true
}
