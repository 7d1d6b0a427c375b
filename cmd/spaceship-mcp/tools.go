// Copyright 2025 Jelly Terra <jellyterra@proton.me>
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package main

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/BartWaardenburg/spaceship-mcp/client"
	"github.com/BartWaardenburg/spaceship-mcp/core"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	ToolsetDomains  = "domains"
	ToolsetDNS      = "dns"
	ToolsetAnalysis = "analysis"
)

var ToolsetNames = []string{ToolsetDomains, ToolsetDNS, ToolsetAnalysis}

const DomainsResourceURI = "spaceship://domains"

// ParseToolsets reads a comma separated toolset list. An empty list enables all.
func ParseToolsets(s string) (map[string]bool, error) {
	enabled := make(map[string]bool, len(ToolsetNames))
	if strings.TrimSpace(s) == "" {
		for _, name := range ToolsetNames {
			enabled[name] = true
		}
		return enabled, nil
	}

	for _, name := range strings.Split(s, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if !slices.Contains(ToolsetNames, name) {
			return nil, fmt.Errorf("unknown toolset %q, available: %s", name, strings.Join(ToolsetNames, ","))
		}
		enabled[name] = true
	}
	return enabled, nil
}

func textResult(text string, isError bool) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: isError,
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// addTool registers a handler producing text. Failures become error results
// so the agent sees the registrar's message instead of a protocol error.
func addTool[In any](s *mcp.Server, enabled map[string]bool, toolset string, tool *mcp.Tool, handler func(ctx context.Context, in In) (string, error)) {
	if !enabled[toolset] {
		return
	}
	mcp.AddTool(s, tool, func(ctx context.Context, _ *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
		text, err := handler(ctx, in)
		if err != nil {
			return textResult(DescribeError(err), true), nil, nil
		}
		return textResult(text, false), nil, nil
	})
}

type DomainArgs struct {
	Domain string `json:"domain" jsonschema:"the domain name, e.g. example.com"`
}

type ListDomainsArgs struct {
	Take int `json:"take,omitempty" jsonschema:"page size, 1 to 100; omit to list every domain"`
	Skip int `json:"skip,omitempty" jsonschema:"number of domains to skip"`
}

type ListRecordsArgs struct {
	Domain string `json:"domain" jsonschema:"the domain name"`
	Take   int    `json:"take,omitempty" jsonschema:"page size, 1 to 500; omit to list every record"`
	Skip   int    `json:"skip,omitempty" jsonschema:"number of records to skip"`
}

type SaveRecordsArgs struct {
	Domain  string           `json:"domain" jsonschema:"the domain name"`
	Records []map[string]any `json:"records" jsonschema:"records in the registrar's flat form, each with type and name plus the fields of its type"`
	Force   bool             `json:"force,omitempty" jsonschema:"overwrite conflicting records"`
}

type DeleteRecordsArgs struct {
	Domain  string           `json:"domain" jsonschema:"the domain name"`
	Records []map[string]any `json:"records" jsonschema:"records to delete, identified by type, name and value"`
}

type NameserversArgs struct {
	Domain string   `json:"domain" jsonschema:"the domain name"`
	Hosts  []string `json:"hosts,omitempty" jsonschema:"custom nameserver hosts; empty restores the registrar's default nameservers"`
}

type AutoRenewArgs struct {
	Domain  string `json:"domain" jsonschema:"the domain name"`
	Enabled bool   `json:"enabled" jsonschema:"whether the domain renews automatically"`
}

type AlignmentArgs struct {
	Domain     string           `json:"domain" jsonschema:"the domain name"`
	Expected   []map[string]any `json:"expected" jsonschema:"records the zone should contain"`
	Types      []string         `json:"types,omitempty" jsonschema:"only consider live records of these types"`
	IncludeTTL bool             `json:"includeTtl,omitempty" jsonschema:"also compare TTLs of expected records that carry one"`
}

type CutoverArgs struct {
	Domain  string           `json:"domain" jsonschema:"the domain name"`
	Desired []map[string]any `json:"desired" jsonschema:"desired A, AAAA, CNAME or ALIAS records for @ and www"`
}

type CompareArgs struct {
	Domain     string            `json:"domain" jsonschema:"the domain name"`
	Source     string            `json:"source" jsonschema:"record source to compare against"`
	Config     map[string]string `json:"config,omitempty" jsonschema:"source settings, e.g. api_token and zone for cloudflare or path for file"`
	Types      []string          `json:"types,omitempty" jsonschema:"only consider live records of these types"`
	IncludeTTL bool              `json:"includeTtl,omitempty" jsonschema:"also compare TTLs"`
}

func RegisterTools(s *mcp.Server, app *App, enabled map[string]bool) {
	c := app.Client

	addTool(s, enabled, ToolsetDomains, &mcp.Tool{
		Name:        "list_domains",
		Description: "List the domains in the Spaceship account.",
	}, func(ctx context.Context, in ListDomainsArgs) (string, error) {
		if in.Take > 0 {
			page, err := c.ListDomains(ctx, in.Take, in.Skip)
			if err != nil {
				return "", err
			}
			return FormatDomains(page.Items, page.Total), nil
		}
		domains, err := c.ListAllDomains(ctx)
		if err != nil {
			return "", err
		}
		return FormatDomains(domains, len(domains)), nil
	})

	addTool(s, enabled, ToolsetDomains, &mcp.Tool{
		Name:        "get_domain",
		Description: "Show registration details of one domain.",
	}, func(ctx context.Context, in DomainArgs) (string, error) {
		domain, err := RequireDomain(in.Domain)
		if err != nil {
			return "", err
		}
		d, err := c.GetDomain(ctx, domain)
		if err != nil {
			return "", err
		}
		return FormatDomain(d), nil
	})

	addTool(s, enabled, ToolsetDomains, &mcp.Tool{
		Name:        "update_nameservers",
		Description: "Point a domain at custom nameservers, or back to the Spaceship defaults when no hosts are given.",
	}, func(ctx context.Context, in NameserversArgs) (string, error) {
		domain, err := RequireDomain(in.Domain)
		if err != nil {
			return "", err
		}
		err = c.UpdateNameservers(ctx, domain, in.Hosts)
		if err != nil {
			return "", err
		}
		if len(in.Hosts) == 0 {
			return "Nameservers of " + domain + " reset to the Spaceship defaults.", nil
		}
		return "Nameservers of " + domain + " set to " + strings.Join(in.Hosts, ", ") + ".", nil
	})

	addTool(s, enabled, ToolsetDomains, &mcp.Tool{
		Name:        "set_auto_renew",
		Description: "Turn automatic renewal of a domain on or off.",
	}, func(ctx context.Context, in AutoRenewArgs) (string, error) {
		domain, err := RequireDomain(in.Domain)
		if err != nil {
			return "", err
		}
		err = c.SetAutoRenew(ctx, domain, in.Enabled)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Auto-renew of %s set to %t.", domain, in.Enabled), nil
	})

	addTool(s, enabled, ToolsetDNS, &mcp.Tool{
		Name:        "list_dns_records",
		Description: "List the DNS records of a domain.",
	}, func(ctx context.Context, in ListRecordsArgs) (string, error) {
		domain, err := RequireDomain(in.Domain)
		if err != nil {
			return "", err
		}
		if in.Take > 0 {
			page, err := c.ListDNSRecords(ctx, domain, in.Take, in.Skip)
			if err != nil {
				return "", err
			}
			return FormatRecords(domain, page.Items), nil
		}
		records, err := c.ListAllDNSRecords(ctx, domain)
		if err != nil {
			return "", err
		}
		return FormatRecords(domain, records), nil
	})

	addTool(s, enabled, ToolsetDNS, &mcp.Tool{
		Name:        "save_dns_records",
		Description: "Create or update DNS records of a domain.",
	}, func(ctx context.Context, in SaveRecordsArgs) (string, error) {
		domain, err := RequireDomain(in.Domain)
		if err != nil {
			return "", err
		}
		records, err := DecodeRecords(in.Records)
		if err != nil {
			return "", err
		}
		if len(records) == 0 {
			return "", fmt.Errorf("no records given")
		}
		err = c.SaveDNSRecords(ctx, domain, records, in.Force)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Saved %d DNS records for %s.", len(records), domain), nil
	})

	addTool(s, enabled, ToolsetDNS, &mcp.Tool{
		Name:        "delete_dns_records",
		Description: "Delete DNS records of a domain.",
	}, func(ctx context.Context, in DeleteRecordsArgs) (string, error) {
		domain, err := RequireDomain(in.Domain)
		if err != nil {
			return "", err
		}
		records, err := DecodeRecords(in.Records)
		if err != nil {
			return "", err
		}
		if len(records) == 0 {
			return "", fmt.Errorf("no records given")
		}
		err = c.DeleteDNSRecords(ctx, domain, records)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Deleted %d DNS records from %s.", len(records), domain), nil
	})

	addTool(s, enabled, ToolsetAnalysis, &mcp.Tool{
		Name:        "check_dns_alignment",
		Description: "Compare the live DNS records of a domain with the records it should have.",
	}, func(ctx context.Context, in AlignmentArgs) (string, error) {
		domain, err := RequireDomain(in.Domain)
		if err != nil {
			return "", err
		}
		expected, err := DecodeRecords(in.Expected)
		if err != nil {
			return "", err
		}
		a, err := app.Alignment(ctx, domain, expected, core.AlignOptions{Types: in.Types, IncludeTTL: in.IncludeTTL})
		if err != nil {
			return "", err
		}
		return FormatAlignment(domain, a), nil
	})

	addTool(s, enabled, ToolsetAnalysis, &mcp.Tool{
		Name:        "plan_web_cutover",
		Description: "Plan the record changes that move the apex and www of a domain to a new web host. Nothing is changed.",
	}, func(ctx context.Context, in CutoverArgs) (string, error) {
		domain, err := RequireDomain(in.Domain)
		if err != nil {
			return "", err
		}
		desired, err := DecodeRecords(in.Desired)
		if err != nil {
			return "", err
		}
		plan, err := app.Cutover(ctx, domain, desired)
		if err != nil {
			return "", err
		}
		return FormatCutover(domain, plan), nil
	})

	addTool(s, enabled, ToolsetAnalysis, &mcp.Tool{
		Name:        "compare_with_source",
		Description: "Compare the live DNS records of a domain with another record source: " + strings.Join(core.SourceNames(), ", ") + ".",
	}, func(ctx context.Context, in CompareArgs) (string, error) {
		domain, err := RequireDomain(in.Domain)
		if err != nil {
			return "", err
		}
		a, err := app.CompareWithSource(ctx, domain, in.Source, in.Config, core.AlignOptions{Types: in.Types, IncludeTTL: in.IncludeTTL})
		if err != nil {
			return "", err
		}
		return FormatAlignment(domain, a), nil
	})
}

// subscriptions counts resource subscribers so the poller idles without them.
type subscriptions struct {
	lock sync.Mutex
	uris map[string]int
}

func (s *subscriptions) add(uri string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.uris[uri]++
}

func (s *subscriptions) remove(uri string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.uris[uri] <= 1 {
		delete(s.uris, uri)
		return
	}
	s.uris[uri]--
}

func (s *subscriptions) has(uri string) bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.uris[uri] > 0
}

func NewServer(app *App, enabled map[string]bool, subs *subscriptions) *mcp.Server {
	s := mcp.NewServer(&mcp.Implementation{Name: "spaceship-mcp", Version: version}, &mcp.ServerOptions{
		SubscribeHandler: func(_ context.Context, req *mcp.SubscribeRequest) error {
			subs.add(req.Params.URI)
			return nil
		},
		UnsubscribeHandler: func(_ context.Context, req *mcp.UnsubscribeRequest) error {
			subs.remove(req.Params.URI)
			return nil
		},
	})

	RegisterTools(s, app, enabled)

	s.AddResource(&mcp.Resource{
		URI:         DomainsResourceURI,
		Name:        "domains",
		Description: "Domains in the Spaceship account.",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		domains, err := app.Client.ListAllDomains(ctx)
		if err != nil {
			return nil, err
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      DomainsResourceURI,
				MIMEType: "application/json",
				Text:     MarshalIndentJSON(domains),
			}},
		}, nil
	})

	return s
}

// ServeMCP runs the MCP server over stdio until the client disconnects or ctx ends.
func ServeMCP(ctx context.Context, app *App, enabled map[string]bool, pollInterval time.Duration) error {
	subs := &subscriptions{uris: map[string]int{}}
	s := NewServer(app, enabled, subs)

	poller := &Poller{
		Interval: pollInterval,
		Logger:   app.Logger,
		Active:   func() bool { return subs.has(DomainsResourceURI) },
		Poll: func(ctx context.Context) (string, error) {
			// Polls must see the registrar, not the cached pages.
			app.Client.Cache.InvalidatePrefix(client.DomainListPrefix)
			return app.DomainsDigest(ctx)
		},
		OnChange: func(ctx context.Context) {
			err := s.ResourceUpdated(ctx, &mcp.ResourceUpdatedNotificationParams{URI: DomainsResourceURI})
			if err != nil {
				app.Logger.Println("Notify resource update:", err)
			}
		},
	}
	go poller.Run(ctx)

	return s.Run(ctx, &mcp.StdioTransport{})
}
