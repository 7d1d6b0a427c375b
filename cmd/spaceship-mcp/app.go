// Copyright 2025 Jelly Terra <jellyterra@proton.me>
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"strings"

	"github.com/BartWaardenburg/spaceship-mcp/client"
	"github.com/BartWaardenburg/spaceship-mcp/core"
)

// App holds what the MCP tools and the REST routes share.
type App struct {
	Client *client.Client
	Logger *log.Logger
}

// RegisterSources makes the live zone available as the "spaceship" source.
func (a *App) RegisterSources() {
	core.SourceBuilders["spaceship"] = func(map[string]string) (core.Source, error) {
		return a.Client, nil
	}
}

func RequireDomain(domain string) (string, error) {
	domain = strings.TrimSuffix(strings.TrimSpace(domain), ".")
	if domain == "" {
		return "", fmt.Errorf("domain is required")
	}
	return domain, nil
}

func (a *App) Alignment(ctx context.Context, domain string, expected []core.Record, opts core.AlignOptions) (*core.Alignment, error) {
	for _, t := range opts.Types {
		if _, ok := core.ParseType(t); !ok {
			return nil, fmt.Errorf("unknown record type %q", t)
		}
	}

	actual, err := a.Client.ListAllDNSRecords(ctx, domain)
	if err != nil {
		return nil, err
	}
	return core.CheckAlignment(expected, actual, opts), nil
}

func (a *App) Cutover(ctx context.Context, domain string, desired []core.Record) (*core.CutoverPlan, error) {
	actual, err := a.Client.ListAllDNSRecords(ctx, domain)
	if err != nil {
		return nil, err
	}
	return core.PlanCutover(desired, actual)
}

// CompareWithSource aligns the live zone against the records another source
// holds for the same domain.
func (a *App) CompareWithSource(ctx context.Context, domain, sourceName string, config map[string]string, opts core.AlignOptions) (*core.Alignment, error) {
	src, err := core.BuildSource(sourceName, config)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	expected, err := src.Records(ctx, domain)
	if err != nil {
		return nil, fmt.Errorf("reading source %s: %w", sourceName, err)
	}
	return a.Alignment(ctx, domain, expected, opts)
}

// DomainsDigest summarizes the domain list so pollers can spot changes.
func (a *App) DomainsDigest(ctx context.Context) (string, error) {
	domains, err := a.Client.ListAllDomains(ctx)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	for _, d := range domains {
		fmt.Fprintf(h, "%s|%s|%s|%t|%s\n", d.Name, d.LifecycleStatus, d.ExpirationDate, d.AutoRenew, strings.Join(d.Nameservers.Hosts, ","))
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
