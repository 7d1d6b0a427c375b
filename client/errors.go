// Copyright 2025 Jelly Terra <jellyterra@proton.me>
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package client

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrRateLimited matches a request that was still throttled after every retry.
	ErrRateLimited = errors.New("rate limited")
	// ErrMalformedResponse matches a response body that could not be decoded.
	ErrMalformedResponse = errors.New("malformed response")
)

const maxErrorBody = 512

// APIError is a non-2xx answer from the registrar. Body is kept verbatim.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   []byte
}

func (e *APIError) Error() string {
	body := string(e.Body)
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody] + "..."
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, body)
}

// RateLimitError is the last throttled response once the retry budget is spent.
type RateLimitError struct {
	APIError
	Attempts   int
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s (rate limited after %d attempts)", e.APIError.Error(), e.Attempts)
}

func (*RateLimitError) Is(target error) bool { return target == ErrRateLimited }
func (e *RateLimitError) Unwrap() error      { return &e.APIError }

type ParseError struct {
	Path string
	Body []byte
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("decoding response of %s: %v", e.Path, e.Err)
}

func (*ParseError) Is(target error) bool { return target == ErrMalformedResponse }
func (e *ParseError) Unwrap() error      { return e.Err }
