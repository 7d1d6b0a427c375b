// Copyright 2025 Jelly Terra <jellyterra@proton.me>
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package core

import "strings"

type HostingProvider struct {
	Name          string
	IPPrefixes    []string
	HostFragments []string
}

// HostingProviders is the table ClassifyHosting consults. Matches are hints,
// an address inside a prefix may belong to anyone.
var HostingProviders = []HostingProvider{
	{Name: "Vercel", IPPrefixes: []string{"76.76.21.", "66.33.60.", "216.198.79."}, HostFragments: []string{"vercel"}},
	{Name: "Netlify", IPPrefixes: []string{"75.2.60.5", "99.83.190.102", "104.198.14.52"}, HostFragments: []string{"netlify"}},
	{Name: "GitHub Pages", IPPrefixes: []string{"185.199.108.", "185.199.109.", "185.199.110.", "185.199.111."}, HostFragments: []string{"github.io"}},
	{Name: "Cloudflare Pages", HostFragments: []string{"pages.dev"}},
	{Name: "Heroku", HostFragments: []string{"herokudns.com", "herokuapp.com"}},
	{Name: "Squarespace", IPPrefixes: []string{"198.185.159.", "198.49.23."}, HostFragments: []string{"squarespace"}},
	{Name: "Wix", IPPrefixes: []string{"185.230.63.", "23.236.62.147"}, HostFragments: []string{"wixdns.net"}},
	{Name: "Shopify", IPPrefixes: []string{"23.227.38."}, HostFragments: []string{"myshopify.com", "shopify"}},
	{Name: "Render", IPPrefixes: []string{"216.24.57."}, HostFragments: []string{"onrender.com"}},
	{Name: "Fly.io", HostFragments: []string{"fly.dev"}},
}

// HostFields returns the normalized host names a record points at.
func HostFields(r *Record) []string {
	var hosts []string
	switch d := r.Data.(type) {
	case *CNAME:
		hosts = append(hosts, d.CName)
	case *ALIAS:
		hosts = append(hosts, d.AliasName)
	case *MX:
		hosts = append(hosts, d.Exchange)
	case *NS:
		hosts = append(hosts, d.Nameserver)
	case *SRV:
		hosts = append(hosts, d.Target)
	case *PTR:
		hosts = append(hosts, d.Pointer)
	case *SVCB:
		hosts = append(hosts, d.TargetName)
	}
	for i := range hosts {
		hosts[i] = NormalizeHost(hosts[i])
	}
	return hosts
}

// ClassifyHosting flags records that look like they point at a known hosting
// provider, by address prefix or by a host name fragment.
func ClassifyHosting(r *Record) (provider, reason string, ok bool) {
	if d, isAddr := r.Data.(*Address); isAddr {
		addr := strings.TrimSpace(d.Address)
		for _, p := range HostingProviders {
			for _, prefix := range p.IPPrefixes {
				if strings.HasPrefix(addr, prefix) {
					return p.Name, "address " + addr + " in " + prefix, true
				}
			}
		}
		return "", "", false
	}

	for _, host := range HostFields(r) {
		for _, p := range HostingProviders {
			for _, fragment := range p.HostFragments {
				if strings.Contains(host, fragment) {
					return p.Name, "host " + host + " contains " + fragment, true
				}
			}
		}
	}
	return "", "", false
}
