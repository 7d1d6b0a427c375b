// Copyright 2025 Jelly Terra <jellyterra@proton.me>
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
)

// DomainPageSize is the largest page the registrar serves for domain listings.
const DomainPageSize = 100

const DomainListPrefix = "domains?"

type Nameservers struct {
	Provider string   `json:"provider"`
	Hosts    []string `json:"hosts,omitempty"`
}

type PrivacyProtection struct {
	ContactForm bool   `json:"contactForm"`
	Level       string `json:"level"`
}

type Domain struct {
	Name               string            `json:"name"`
	UnicodeName        string            `json:"unicodeName"`
	IsPremium          bool              `json:"isPremium"`
	AutoRenew          bool              `json:"autoRenew"`
	RegistrationDate   string            `json:"registrationDate"`
	ExpirationDate     string            `json:"expirationDate"`
	LifecycleStatus    string            `json:"lifecycleStatus"`
	VerificationStatus string            `json:"verificationStatus"`
	EppStatuses        []string          `json:"eppStatuses"`
	PrivacyProtection  PrivacyProtection `json:"privacyProtection"`
	Nameservers        Nameservers       `json:"nameservers"`
}

func (d *Domain) clone() Domain {
	c := *d
	c.EppStatuses = slices.Clone(d.EppStatuses)
	c.Nameservers.Hosts = slices.Clone(d.Nameservers.Hosts)
	return c
}

func domainKey(domain string) string {
	return "domains/" + strings.ToLower(domain) + "/"
}

func domainPath(domain string) string {
	return "/domains/" + url.PathEscape(domain)
}

// ListDomains returns one page of the account's domains.
func (c *Client) ListDomains(ctx context.Context, take, skip int) (*Page[Domain], error) {
	key := fmt.Sprintf("%stake=%d&skip=%d", DomainListPrefix, take, skip)
	path := fmt.Sprintf("/domains?take=%d&skip=%d&orderBy=name", take, skip)
	page, err := fetch[*Page[Domain]](ctx, c, key, path)
	if err != nil {
		return nil, err
	}
	items := make([]Domain, len(page.Items))
	for i := range page.Items {
		items[i] = page.Items[i].clone()
	}
	return &Page[Domain]{Items: items, Total: page.Total}, nil
}

func (c *Client) ListAllDomains(ctx context.Context) ([]Domain, error) {
	return collectAll[Domain](ctx, DomainPageSize, c.ListDomains)
}

func (c *Client) GetDomain(ctx context.Context, domain string) (*Domain, error) {
	d, err := fetch[*Domain](ctx, c, domainKey(domain), domainPath(domain))
	if err != nil {
		return nil, err
	}
	clone := d.clone()
	return &clone, nil
}

// UpdateNameservers points domain at custom name servers, or back to the
// registrar's own ones when hosts is empty.
func (c *Client) UpdateNameservers(ctx context.Context, domain string, hosts []string) error {
	ns := Nameservers{Provider: "basic"}
	if len(hosts) > 0 {
		ns = Nameservers{Provider: "custom", Hosts: hosts}
	}
	_, err := c.write(ctx, http.MethodPut, domainPath(domain)+"/nameservers", &ns, DomainListPrefix, domainKey(domain))
	return err
}

func (c *Client) SetAutoRenew(ctx context.Context, domain string, enabled bool) error {
	body := &struct {
		IsEnabled bool `json:"isEnabled"`
	}{IsEnabled: enabled}
	_, err := c.write(ctx, http.MethodPut, domainPath(domain)+"/autorenew", body, DomainListPrefix, domainKey(domain))
	return err
}
