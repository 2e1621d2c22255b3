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

import (
	"net"
	"strconv"
	"strings"
	"sync"
)

type ruleKind uint8

const (
	ruleNetwork ruleKind = iota
	ruleHostname
)

type rule struct {
	kind     ruleKind
	network  *net.IPNet
	hostname Wildcard
}

type acl struct {
	mu    sync.RWMutex
	rules map[Kind][]rule
}

func (a *acl) AddRule(k Kind, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrorRuleEmpty.Error(nil)
	}

	var r rule

	if ip, ipnet, err := net.ParseCIDR(text); err == nil {
		ipnet.IP = ip.Mask(ipnet.Mask)
		r = rule{kind: ruleNetwork, network: ipnet}
	} else if ip := net.ParseIP(text); ip != nil {
		bits := 32
		if ip.To4() == nil {
			bits = 128
		}
		_, ipnet, _ := net.ParseCIDR(ip.String() + "/" + strconv.Itoa(bits))
		r = rule{kind: ruleNetwork, network: ipnet}
	} else {
		r = rule{kind: ruleHostname, hostname: CompileWildcard(text)}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.rules[k] = append(a.rules[k], r)
	return nil
}

func (a *acl) Empty(k Kind) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.rules[k]) == 0
}

func (a *acl) Check(peer net.IP, fqdn string) Verdict {
	a.mu.RLock()
	rules := a.rules[TCP]
	a.mu.RUnlock()

	if len(rules) == 0 {
		return Allow
	}

	needDNS := false

	for _, r := range rules {
		switch r.kind {
		case ruleNetwork:
			if matchNetwork(r.network, peer) {
				return Allow
			}
		case ruleHostname:
			if fqdn == "" {
				needDNS = true
				continue
			}
			if r.hostname.Match(fqdn) {
				return Allow
			}
		}
	}

	if needDNS {
		return NeedDNS
	}
	return Deny
}

// matchNetwork implements the IPv4/IPv6/v4-mapped comparison rules from the
// spec: IPv4<->IPv4 is a masked compare, IPv6<->IPv6 is per-word with a
// final partial mask, and IPv6<->IPv4 only matches through a v4-mapped
// address.
func matchNetwork(n *net.IPNet, peer net.IP) bool {
	if peer == nil {
		return false
	}

	if v4 := n.IP.To4(); v4 != nil {
		p4 := peer.To4()
		if p4 == nil {
			return false
		}
		return n.Contains(p4)
	}

	p16 := peer.To16()
	if p16 == nil {
		return false
	}
	return n.Contains(p16)
}
