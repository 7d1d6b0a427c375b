// Copyright 2025 Jelly Terra <jellyterra@proton.me>
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package cloudflare

import (
	"testing"

	"github.com/BartWaardenburg/spaceship-mcp/core"
	"github.com/cloudflare/cloudflare-go"
)

func TestRelativeName(t *testing.T) {
	tests := []struct {
		fqdn, want string
	}{
		{"example.com", "@"},
		{"Example.com.", "@"},
		{"www.example.com", "www"},
		{"a.b.example.com", "a.b"},
		{"other.net", "other.net"},
	}
	for _, tt := range tests {
		if got := RelativeName("example.com", tt.fqdn); got != tt.want {
			t.Errorf("RelativeName(%q) = %q; want %q", tt.fqdn, got, tt.want)
		}
	}
}

func TestConvertRecord(t *testing.T) {
	prio := uint16(10)

	mx := ConvertRecord("example.com", cloudflare.DNSRecord{Type: "MX", Name: "example.com", Content: "mail.example.com", Priority: &prio, TTL: 1})
	if d, ok := mx.Data.(*core.MX); !ok || d.Preference != 10 || d.Exchange != "mail.example.com" {
		t.Fatalf("MX converted to %#v", mx.Data)
	}
	if mx.Name != "@" || mx.TTL != nil {
		t.Fatalf("MX header = %q ttl %v; want @ with automatic TTL", mx.Name, mx.TTL)
	}

	txt := ConvertRecord("example.com", cloudflare.DNSRecord{Type: "TXT", Name: "example.com", Content: `"v=spf1 -all"`, TTL: 300})
	if d, ok := txt.Data.(*core.TXT); !ok || d.Value != "v=spf1 -all" || txt.TTL == nil || *txt.TTL != 300 {
		t.Fatalf("TXT converted to %#v", txt)
	}

	srv := ConvertRecord("example.com", cloudflare.DNSRecord{
		Type: "SRV",
		Name: "_sip._tcp.example.com",
		Data: map[string]interface{}{"priority": float64(1), "weight": float64(5), "port": float64(5060), "target": "sip.example.com"},
	})
	d, ok := srv.Data.(*core.SRV)
	if !ok || d.Service != "_sip" || d.Protocol != "_tcp" || d.Port != 5060 || d.Priority != 1 {
		t.Fatalf("SRV converted to %#v", srv.Data)
	}
	if srv.Name != "@" || srv.OwnerName() != "_sip._tcp" {
		t.Fatalf("SRV owner = %q (%q)", srv.Name, srv.OwnerName())
	}

	srvContent := ConvertRecord("example.com", cloudflare.DNSRecord{Type: "SRV", Name: "_xmpp._tcp.chat.example.com", Content: "5 5222 xmpp.example.com", Priority: &prio})
	if d, ok := srvContent.Data.(*core.SRV); !ok || d.Priority != 10 || d.Weight != 5 || d.Port != 5222 || srvContent.Name != "chat" {
		t.Fatalf("SRV from content converted to %#v name %q", srvContent.Data, srvContent.Name)
	}

	caa := ConvertRecord("example.com", cloudflare.DNSRecord{Type: "CAA", Name: "example.com", Content: `0 issue "letsencrypt.org"`})
	if got := core.ComparableValue(&caa); got != "0:issue:letsencrypt.org" {
		t.Fatalf("CAA comparable = %q", got)
	}

	other := ConvertRecord("example.com", cloudflare.DNSRecord{Type: "LOC", Name: "example.com", Content: "52 22 23.000 N"})
	if _, ok := other.Data.(core.Opaque); !ok {
		t.Fatalf("LOC converted to %#v", other.Data)
	}
}

func TestConvertedRecordsAlign(t *testing.T) {
	converted := []core.Record{
		ConvertRecord("example.com", cloudflare.DNSRecord{Type: "CNAME", Name: "www.example.com", Content: "Example.com."}),
		ConvertRecord("example.com", cloudflare.DNSRecord{Type: "A", Name: "example.com", Content: "1.2.3.4"}),
	}
	live := []core.Record{
		{Type: "CNAME", Name: "www", Data: &core.CNAME{CName: "example.com"}},
		{Type: "A", Name: "@", TTL: core.TTL(3600), Data: &core.Address{Address: "1.2.3.4"}},
	}
	if res := core.CheckAlignment(converted, live, core.AlignOptions{}); !res.Aligned() {
		t.Fatalf("converted zone does not align: %+v", res)
	}
}

func TestBuildRequiresConfig(t *testing.T) {
	if _, err := Build(map[string]string{"zone": "example.com"}); err == nil {
		t.Fatalf("Build without api_token succeeded")
	}
	if _, ok := core.SourceBuilders["cloudflare"]; !ok {
		t.Fatalf("cloudflare source not registered")
	}
}
