// Copyright 2025 Jelly Terra <jellyterra@proton.me>
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BartWaardenburg/spaceship-mcp/client"
	"github.com/BartWaardenburg/spaceship-mcp/core"
)

func FormatDomains(domains []client.Domain, total int) string {
	if len(domains) == 0 {
		return "No domains found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d of %d domains:\n", len(domains), total)
	for _, d := range domains {
		fmt.Fprintf(&b, "- %s (%s, expires %s, auto-renew %t)\n", d.Name, d.LifecycleStatus, d.ExpirationDate, d.AutoRenew)
	}
	return b.String()
}

func FormatDomain(d *client.Domain) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", d.Name)
	if d.UnicodeName != "" && d.UnicodeName != d.Name {
		fmt.Fprintf(&b, "  unicode:      %s\n", d.UnicodeName)
	}
	fmt.Fprintf(&b, "  status:       %s (%s)\n", d.LifecycleStatus, d.VerificationStatus)
	fmt.Fprintf(&b, "  registered:   %s\n", d.RegistrationDate)
	fmt.Fprintf(&b, "  expires:      %s\n", d.ExpirationDate)
	fmt.Fprintf(&b, "  auto-renew:   %t\n", d.AutoRenew)
	fmt.Fprintf(&b, "  privacy:      %s\n", d.PrivacyProtection.Level)
	fmt.Fprintf(&b, "  nameservers:  %s %s\n", d.Nameservers.Provider, strings.Join(d.Nameservers.Hosts, ", "))
	return b.String()
}

func FormatRecords(domain string, records []core.Record) string {
	if len(records) == 0 {
		return "No DNS records found for " + domain + "."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d DNS records for %s:\n", len(records), domain)
	for i := range records {
		fmt.Fprintf(&b, "- %s\n", records[i].String())
	}
	return b.String()
}

func FormatAlignment(domain string, a *core.Alignment) string {
	if a.Aligned() {
		return "DNS records of " + domain + " match the expected records."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "DNS records of %s differ from the expected records.\n", domain)
	if len(a.Missing) > 0 {
		fmt.Fprintf(&b, "\nMissing (%d):\n", len(a.Missing))
		for i := range a.Missing {
			fmt.Fprintf(&b, "- %s\n", a.Missing[i].String())
		}
	}
	if len(a.Unexpected) > 0 {
		fmt.Fprintf(&b, "\nUnexpected (%d):\n", len(a.Unexpected))
		for i := range a.Unexpected {
			fmt.Fprintf(&b, "- %s\n", a.Unexpected[i].String())
		}
	}
	return b.String()
}

func FormatCutover(domain string, p *core.CutoverPlan) string {
	var b strings.Builder
	if len(p.Upserts) == 0 && len(p.Deletes) == 0 {
		fmt.Fprintf(&b, "The web records of %s already match the desired state.\n", domain)
	} else {
		fmt.Fprintf(&b, "Cutover plan for %s (nothing has been changed):\n", domain)
		fmt.Fprintf(&b, "\nUpsert (%d):\n", len(p.Upserts))
		for i := range p.Upserts {
			fmt.Fprintf(&b, "- %s\n", p.Upserts[i].String())
		}
		fmt.Fprintf(&b, "\nDelete (%d):\n", len(p.Deletes))
		for i := range p.Deletes {
			fmt.Fprintf(&b, "- %s\n", p.Deletes[i].String())
		}
	}
	if len(p.Foreign) > 0 {
		fmt.Fprintf(&b, "\nRecords that look like another hosting provider:\n")
		for _, f := range p.Foreign {
			fmt.Fprintf(&b, "- %s: %s (%s)\n", f.Provider, f.Record.String(), f.Reason)
		}
	}
	return b.String()
}

// DescribeError renders a failure for the agent, keeping the registrar's own
// message.
func DescribeError(err error) string {
	var (
		rateErr  *client.RateLimitError
		apiErr   *client.APIError
		parseErr *client.ParseError
	)
	switch {
	case errors.As(err, &rateErr):
		return fmt.Sprintf("Spaceship rate limit reached after %d attempts, retry in %v. Response: %s",
			rateErr.Attempts, rateErr.RetryAfter.Round(time.Second), string(rateErr.Body))
	case errors.As(err, &apiErr):
		return fmt.Sprintf("Spaceship API error (HTTP %d): %s", apiErr.Status, string(apiErr.Body))
	case errors.As(err, &parseErr):
		return "Unexpected response from Spaceship: " + parseErr.Error()
	}
	return "Error: " + err.Error()
}
