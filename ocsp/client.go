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

package ocsp

import (
	"bytes"
	"context"
	"crypto/x509"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/crypto/ocsp"
)

type checker struct {
	cache  Cache
	client *http.Client
}

func (c *checker) httpClient() *http.Client {
	if c.client != nil {
		return c.client
	}

	c.client = &http.Client{Timeout: RequestTimeout}
	return c.client
}

// Check consults the cache, then the issuer's OCSP responders on a miss.
// Responders reachable only over HTTPS are skipped, per policy: only
// plain HTTP OCSP endpoints are contacted.
func (c *checker) Check(ctx context.Context, leaf, issuer *x509.Certificate) (Status, error) {
	key := CacheKey(leaf, issuer)

	if status, _, ok := c.cache.Lookup(key); ok && status != Unknown {
		return status, nil
	}

	if len(leaf.OCSPServer) == 0 {
		return Unknown, ErrorNoResponder.Error(nil)
	}

	var lastErr error

	for _, responder := range leaf.OCSPServer {
		status, expiresAt, err := c.query(ctx, responder, leaf, issuer)
		if err != nil {
			lastErr = err
			continue
		}

		c.cache.Store(key, status, expiresAt)
		return status, nil
	}

	return Unknown, lastErr
}

func (c *checker) query(ctx context.Context, responder string, leaf, issuer *x509.Certificate) (Status, time.Time, error) {
	u, err := url.Parse(responder)
	if err != nil {
		return Unknown, time.Time{}, ErrorResponseParse.Error(err)
	}

	if strings.EqualFold(u.Scheme, "https") {
		return Unknown, time.Time{}, ErrorHTTPSResponder.Error(nil)
	}

	reqDER, err := ocsp.CreateRequest(leaf, issuer, &ocsp.RequestOptions{Hash: 0})
	if err != nil {
		return Unknown, time.Time{}, ErrorResponseParse.Error(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, responder, bytes.NewReader(reqDER))
	if err != nil {
		return Unknown, time.Time{}, ErrorResponseParse.Error(err)
	}

	req.Header.Set("Content-Type", "application/ocsp-request")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return Unknown, time.Time{}, ErrorHTTPStatus.Error(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Unknown, time.Time{}, ErrorHTTPStatus.Error(nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return Unknown, time.Time{}, ErrorResponseParse.Error(err)
	}

	if len(body) > MaxResponseSize {
		return Unknown, time.Time{}, ErrorResponseTooLarge.Error(nil)
	}

	parsed, err := ocsp.ParseResponseForCert(body, leaf, issuer)
	if err != nil {
		return Unknown, time.Time{}, ErrorResponseUnauthorized.Error(err)
	}

	now := time.Now()
	if now.Before(parsed.ThisUpdate.Add(-ValidityLeeway)) {
		return Unknown, time.Time{}, ErrorResponseStale.Error(nil)
	}
	if !parsed.NextUpdate.IsZero() && now.After(parsed.NextUpdate.Add(ValidityLeeway)) {
		return Unknown, time.Time{}, ErrorResponseStale.Error(nil)
	}

	status := fromLibStatus(parsed.Status)

	expiresAt := parsed.NextUpdate
	if expiresAt.IsZero() {
		expiresAt = now.Add(DefaultTTL)
	}

	return status, expiresAt, nil
}

func fromLibStatus(s int) Status {
	switch s {
	case ocsp.Good:
		return Good
	case ocsp.Revoked:
		return Revoked
	default:
		return Unknown
	}
}
