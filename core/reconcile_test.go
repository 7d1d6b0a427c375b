// Copyright 2025 Jelly Terra <jellyterra@proton.me>
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package core

import (
	"errors"
	"reflect"
	"testing"
)

func a(name, addr string) Record {
	return Record{Type: TypeA, Name: name, Data: &Address{Address: addr}}
}

func cname(name, target string) Record {
	return Record{Type: TypeCNAME, Name: name, Data: &CNAME{CName: target}}
}

func TestCheckAlignmentMissing(t *testing.T) {
	expected := []Record{a("@", "1.2.3.4")}
	res := CheckAlignment(expected, nil, AlignOptions{})
	if len(res.Missing) != 1 || len(res.Unexpected) != 0 {
		t.Fatalf("CheckAlignment = %+v; want one missing", res)
	}
	if res.Aligned() {
		t.Fatalf("Aligned() with a missing record")
	}
}

func TestCheckAlignmentUnexpected(t *testing.T) {
	actual := []Record{a("@", "1.2.3.4")}
	res := CheckAlignment(nil, actual, AlignOptions{Types: []string{"a"}})
	if len(res.Missing) != 0 || len(res.Unexpected) != 1 {
		t.Fatalf("CheckAlignment = %+v; want one unexpected", res)
	}
}

func TestCheckAlignmentTypeFilter(t *testing.T) {
	actual := []Record{
		a("@", "1.2.3.4"),
		{Type: TypeTXT, Name: "@", Data: &TXT{Value: "v=spf1 -all"}},
	}
	res := CheckAlignment([]Record{a("@", "1.2.3.4")}, actual, AlignOptions{Types: []string{TypeA}})
	if !res.Aligned() {
		t.Fatalf("filtered alignment = %+v; want aligned", res)
	}

	res = CheckAlignment([]Record{a("@", "1.2.3.4")}, actual, AlignOptions{})
	if len(res.Unexpected) != 1 || res.Unexpected[0].Kind() != TypeTXT {
		t.Fatalf("unfiltered alignment = %+v; want the TXT record unexpected", res)
	}
}

func TestCheckAlignmentNormalizes(t *testing.T) {
	expected := []Record{cname("WWW", "Target.Example.com.")}
	actual := []Record{cname("www", "target.example.com")}
	if res := CheckAlignment(expected, actual, AlignOptions{}); !res.Aligned() {
		t.Fatalf("CheckAlignment = %+v; want aligned", res)
	}
}

func TestCheckAlignmentTTL(t *testing.T) {
	expected := []Record{{Type: TypeA, Name: "@", TTL: TTL(300), Data: &Address{Address: "1.2.3.4"}}}
	actual := []Record{{Type: TypeA, Name: "@", TTL: TTL(3600), Data: &Address{Address: "1.2.3.4"}}}

	if res := CheckAlignment(expected, actual, AlignOptions{}); !res.Aligned() {
		t.Fatalf("TTL drift reported without IncludeTTL: %+v", res)
	}
	res := CheckAlignment(expected, actual, AlignOptions{IncludeTTL: true})
	if len(res.Missing) != 1 || len(res.Unexpected) != 1 {
		t.Fatalf("CheckAlignment with IncludeTTL = %+v; want one missing and one unexpected", res)
	}

	// Expected records without a TTL match any TTL.
	expected[0].TTL = nil
	if res := CheckAlignment(expected, actual, AlignOptions{IncludeTTL: true}); !res.Aligned() {
		t.Fatalf("TTL-less expectation did not match: %+v", res)
	}
}

func TestCheckAlignmentDuplicates(t *testing.T) {
	actual := []Record{a("@", "1.2.3.4"), a("@", "1.2.3.4")}
	if res := CheckAlignment([]Record{a("@", "1.2.3.4")}, actual, AlignOptions{}); !res.Aligned() {
		t.Fatalf("duplicate actual records reported: %+v", res)
	}
}

func TestCheckAlignmentIdempotent(t *testing.T) {
	expected := []Record{a("@", "1.2.3.4"), cname("www", "example.com")}
	actual := []Record{a("@", "5.6.7.8"), cname("www", "example.com")}
	first := CheckAlignment(expected, actual, AlignOptions{})
	second := CheckAlignment(expected, actual, AlignOptions{})
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("results differ: %+v vs %+v", first, second)
	}
}

func TestPlanCutover(t *testing.T) {
	desired := []Record{a("@", "10.0.0.1")}
	actual := []Record{
		cname("www", "old.vercel.app"),
		a("@", "9.9.9.9"),
		{Type: TypeMX, Name: "@", Data: &MX{Exchange: "mail.example.com", Preference: 10}},
	}

	plan, err := PlanCutover(desired, actual)
	if err != nil {
		t.Fatalf("PlanCutover: %v", err)
	}
	if len(plan.Upserts) != 1 || Fingerprint(&plan.Upserts[0], false) != Fingerprint(&desired[0], false) {
		t.Fatalf("Upserts = %+v; want the desired A record", plan.Upserts)
	}
	if len(plan.Deletes) != 2 {
		t.Fatalf("Deletes = %+v; want both web records", plan.Deletes)
	}
	for _, r := range plan.Deletes {
		if r.Kind() == TypeMX {
			t.Fatalf("cutover touched a non-web record")
		}
	}
	if len(plan.Foreign) != 1 || plan.Foreign[0].Provider != "Vercel" {
		t.Fatalf("Foreign = %+v; want the Vercel CNAME", plan.Foreign)
	}
}

func TestPlanCutoverNoop(t *testing.T) {
	actual := []Record{a("@", "10.0.0.1"), cname("www", "example.com")}
	desired := []Record{a("@", "10.0.0.1"), cname("www", "Example.com."), a("@", "10.0.0.1")}
	plan, err := PlanCutover(desired, actual)
	if err != nil {
		t.Fatalf("PlanCutover: %v", err)
	}
	if len(plan.Upserts) != 0 || len(plan.Deletes) != 0 {
		t.Fatalf("plan = %+v; want no changes", plan)
	}
}

func TestPlanCutoverOutOfScope(t *testing.T) {
	for _, r := range []Record{
		a("blog", "10.0.0.1"),
		{Type: TypeTXT, Name: "@", Data: &TXT{Value: "x"}},
	} {
		_, err := PlanCutover([]Record{r}, nil)
		if !errors.Is(err, ErrOutOfScope) {
			t.Errorf("PlanCutover(%s) error = %v; want ErrOutOfScope", r.String(), err)
		}
	}
}

func TestClassifyHosting(t *testing.T) {
	tests := []struct {
		r        Record
		provider string
	}{
		{a("@", "76.76.21.21"), "Vercel"},
		{a("@", "185.199.110.153"), "GitHub Pages"},
		{cname("www", "example.netlify.app."), "Netlify"},
		{cname("www", "shop.myshopify.com"), "Shopify"},
		{a("@", "203.0.113.7"), ""},
	}
	for _, tt := range tests {
		provider, _, ok := ClassifyHosting(&tt.r)
		if provider != tt.provider || ok != (tt.provider != "") {
			t.Errorf("ClassifyHosting(%s) = %q, %v; want %q", tt.r.String(), provider, ok, tt.provider)
		}
	}
}

func TestGroupByFingerprint(t *testing.T) {
	groups := GroupByFingerprint([]Record{a("@", "1.2.3.4"), a("@", "1.2.3.4"), a("www", "1.2.3.4")}, false)
	if len(groups) != 2 {
		t.Fatalf("GroupByFingerprint returned %d groups; want 2", len(groups))
	}
	if n := len(groups["A|@|1.2.3.4|"]); n != 2 {
		t.Fatalf("apex group has %d records; want 2", n)
	}
}
