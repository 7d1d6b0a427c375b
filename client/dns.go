// Copyright 2025 Jelly Terra <jellyterra@proton.me>
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/BartWaardenburg/spaceship-mcp/core"
)

// DNSPageSize is the largest page the registrar serves for record listings.
const DNSPageSize = 500

// DNSRecordsPrefix is the cache namespace of every record page of domain.
func DNSRecordsPrefix(domain string) string {
	return "dns/records/" + strings.ToLower(domain) + "?"
}

func dnsRecordsKey(domain string, take, skip int) string {
	return fmt.Sprintf("%stake=%d&skip=%d", DNSRecordsPrefix(domain), take, skip)
}

func dnsRecordsPath(domain string) string {
	return "/dns/records/" + url.PathEscape(domain)
}

// ListDNSRecords returns one page of the records of domain.
func (c *Client) ListDNSRecords(ctx context.Context, domain string, take, skip int) (*Page[core.Record], error) {
	path := fmt.Sprintf("%s?take=%d&skip=%d&orderBy=type", dnsRecordsPath(domain), take, skip)
	page, err := fetch[*Page[core.Record]](ctx, c, dnsRecordsKey(domain, take, skip), path)
	if err != nil {
		return nil, err
	}
	return &Page[core.Record]{Items: core.CloneRecords(page.Items), Total: page.Total}, nil
}

// ListAllDNSRecords returns every record of domain in upstream order.
func (c *Client) ListAllDNSRecords(ctx context.Context, domain string) ([]core.Record, error) {
	return collectAll[core.Record](ctx, DNSPageSize, func(ctx context.Context, take, skip int) (*Page[core.Record], error) {
		return c.ListDNSRecords(ctx, domain, take, skip)
	})
}

type saveRecordsRequest struct {
	Force bool          `json:"force"`
	Items []core.Record `json:"items"`
}

// SaveDNSRecords creates or updates records of domain. With force the
// registrar overwrites conflicting records instead of refusing.
func (c *Client) SaveDNSRecords(ctx context.Context, domain string, records []core.Record, force bool) error {
	_, err := c.write(ctx, http.MethodPut, dnsRecordsPath(domain),
		&saveRecordsRequest{Force: force, Items: records},
		DNSRecordsPrefix(domain))
	return err
}

// DeleteDNSRecords removes records of domain matching the given ones.
func (c *Client) DeleteDNSRecords(ctx context.Context, domain string, records []core.Record) error {
	_, err := c.write(ctx, http.MethodDelete, dnsRecordsPath(domain), records, DNSRecordsPrefix(domain))
	return err
}

// Records adapts the client to core.Source.
func (c *Client) Records(ctx context.Context, domain string) ([]core.Record, error) {
	return c.ListAllDNSRecords(ctx, domain)
}

func (c *Client) Close() error { return nil }
