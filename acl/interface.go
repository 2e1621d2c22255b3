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

// Package acl implements address- and hostname-wildcard admission control,
// matching the three rule lists (TCP/UDP/GSS) against a peer sockaddr and an
// optionally resolved FQDN.
package acl

import (
	"net"
)

// Verdict is the result of checking a peer against an ACL.
type Verdict uint8

const (
	Allow Verdict = iota
	Deny
	NeedDNS
)

func (v Verdict) String() string {
	switch v {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	case NeedDNS:
		return "need-dns"
	default:
		return "unknown"
	}
}

// Kind selects which of the three rule lists a Rule belongs to. Only TCP is
// consulted by the core; UDP and GSS are accepted for configuration
// compatibility with the original daemon.
type Kind uint8

const (
	TCP Kind = iota
	UDP
	GSS
)

// ACL holds the compiled rule lists and answers admission checks.
type ACL interface {
	// AddRule compiles and appends one textual rule ("host.example",
	// "*.ex.com", "10.0.0.0/8", "::1/128") to the given list.
	AddRule(k Kind, rule string) error

	// Empty reports whether the given list has no rules; an empty TCP list
	// means "allow everything" per the original daemon's default policy.
	Empty(k Kind) bool

	// Check evaluates peer against the TCP rule list. fqdn may be empty; if
	// a hostname rule is present and fqdn is empty, NeedDNS is returned and
	// the caller decides whether to resolve and retry.
	Check(peer net.IP, fqdn string) Verdict
}

// New returns an empty ACL. An ACL with no TCP rules allows every peer.
func New() ACL {
	return &acl{
		rules: map[Kind][]rule{
			TCP: nil,
			UDP: nil,
			GSS: nil,
		},
	}
}
