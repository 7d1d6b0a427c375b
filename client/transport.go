// Copyright 2025 Jelly Terra <jellyterra@proton.me>
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const DefaultBaseURL = "https://spaceship.dev/api/v1"

type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Transport performs one raw request against the registrar API. It reports
// HTTP failures through Response.Status, not through the error.
type Transport interface {
	Do(ctx context.Context, method, path string, body []byte) (*Response, error)
}

type HTTPTransport struct {
	BaseURL   string
	APIKey    string
	APISecret string
	UserAgent string
	Client    *http.Client
}

func NewHTTPTransport(baseURL, apiKey, apiSecret string) *HTTPTransport {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &HTTPTransport{
		BaseURL:   strings.TrimSuffix(baseURL, "/"),
		APIKey:    apiKey,
		APISecret: apiSecret,
		UserAgent: "spaceship-mcp",
		Client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
				DialContext: (&net.Dialer{
					Timeout:   15 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        16,
				MaxIdleConnsPerHost: 8,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
				ForceAttemptHTTP2:   true,
			},
		},
	}
}

func (t *HTTPTransport) Do(ctx context.Context, method, path string, body []byte) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.BaseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-Key", t.APIKey)
	req.Header.Set("X-API-Secret", t.APISecret)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", t.UserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: b}, nil
}
