// Copyright 2025 Jelly Terra <jellyterra@symboltics.com>
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package main

import (
	"context"
	"log"
	"time"
)

// Poller periodically digests upstream state and reports when it changes.
// Failures are logged and counted, never returned.
type Poller struct {
	Interval time.Duration
	Logger   *log.Logger

	// Active gates polling. Nil means always active.
	Active   func() bool
	Poll     func(ctx context.Context) (string, error)
	OnChange func(ctx context.Context)

	last     string
	failures int
}

func (p *Poller) Failures() int { return p.failures }

func (p *Poller) Run(ctx context.Context) {
	if p.Interval <= 0 {
		return
	}
	for {
		select {
		case <-time.After(p.Interval):
			p.tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	if p.Active != nil && !p.Active() {
		return
	}

	digest, err := p.Poll(ctx)
	if err != nil {
		p.failures++
		if p.Logger != nil {
			p.Logger.Printf("Poll failed (%d in a row): %v", p.failures, err)
		}
		return
	}
	p.failures = 0

	// The first successful poll only sets the baseline.
	changed := p.last != "" && digest != p.last
	p.last = digest
	if changed && p.OnChange != nil {
		p.OnChange(ctx)
	}
}
