// Copyright 2025 Jelly Terra <jellyterra@proton.me>
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package core

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/miekg/dns"
	"golang.org/x/net/idna"
)

const (
	TypeA     = "A"
	TypeAAAA  = "AAAA"
	TypeCNAME = "CNAME"
	TypeMX    = "MX"
	TypeTXT   = "TXT"
	TypeNS    = "NS"
	TypeSRV   = "SRV"
	TypeCAA   = "CAA"
	TypeALIAS = "ALIAS"
	TypePTR   = "PTR"
	TypeHTTPS = "HTTPS"
	TypeSVCB  = "SVCB"
	TypeTLSA  = "TLSA"
)

// Apex is the owner name of the zone itself.
const Apex = "@"

// Record is a DNS record as the registrar stores it. Type selects the kind of
// Data; fields belonging to other kinds are never looked at.
type Record struct {
	Type string
	Name string
	TTL  *int
	Data RecordData
}

// RecordData is the kind-specific part of a record.
type RecordData interface {
	// Comparable returns the normalized value two records of the same kind
	// must share to be considered equal.
	Comparable() string
}

// Owner is implemented by kinds whose owner name carries extra labels kept in
// dedicated fields, like "_sip._tcp" for SRV.
type Owner interface {
	OwnerLabels() string
}

type Address struct {
	Address string `json:"address"`
}

type CNAME struct {
	CName string `json:"cname"`
}

type MX struct {
	Exchange   string `json:"exchange"`
	Preference int    `json:"preference"`
}

type TXT struct {
	Value string `json:"value"`
}

type NS struct {
	Nameserver string `json:"nameserver"`
}

type SRV struct {
	Service  string `json:"service"`
	Protocol string `json:"protocol"`
	Priority int    `json:"priority"`
	Weight   int    `json:"weight"`
	Port     int    `json:"port"`
	Target   string `json:"target"`
}

type CAA struct {
	Flag  int    `json:"flag"`
	Tag   string `json:"tag"`
	Value string `json:"value"`
}

type ALIAS struct {
	AliasName string `json:"aliasName"`
}

type PTR struct {
	Pointer string `json:"pointer"`
}

// SVCB covers both HTTPS and SVCB records.
type SVCB struct {
	SvcPriority int    `json:"svcPriority"`
	TargetName  string `json:"targetName"`
	SvcParams   string `json:"svcParams"`
}

type TLSA struct {
	Port            Flex   `json:"port"`
	Protocol        string `json:"protocol"`
	Usage           int    `json:"usage"`
	Selector        int    `json:"selector"`
	Matching        int    `json:"matching"`
	AssociationData string `json:"associationData"`
}

// Opaque holds the fields of record kinds without a dedicated variant.
type Opaque map[string]any

func (d *Address) Comparable() string { return strings.TrimSpace(d.Address) }
func (d *CNAME) Comparable() string   { return NormalizeHost(d.CName) }
func (d *MX) Comparable() string      { return strconv.Itoa(d.Preference) + ":" + NormalizeHost(d.Exchange) }
func (d *TXT) Comparable() string     { return d.Value }
func (d *NS) Comparable() string      { return NormalizeHost(d.Nameserver) }
func (d *ALIAS) Comparable() string   { return NormalizeHost(d.AliasName) }
func (d *PTR) Comparable() string     { return NormalizeHost(d.Pointer) }

func (d *SRV) Comparable() string {
	return fmt.Sprintf("%d:%d:%d:%s", d.Priority, d.Weight, d.Port, NormalizeHost(d.Target))
}

func (d *CAA) Comparable() string {
	return fmt.Sprintf("%d:%s:%s", d.Flag, strings.ToLower(strings.TrimSpace(d.Tag)), d.Value)
}

func (d *SVCB) Comparable() string {
	return fmt.Sprintf("%d:%s:%s", d.SvcPriority, NormalizeHost(d.TargetName), strings.TrimSpace(d.SvcParams))
}

func (d *TLSA) Comparable() string {
	return fmt.Sprintf("%d:%d:%d:%s", d.Usage, d.Selector, d.Matching, strings.ToLower(strings.TrimSpace(d.AssociationData)))
}

func (d Opaque) Comparable() string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, d[k]))
	}
	return strings.Join(pairs, ";")
}

func (d *SRV) OwnerLabels() string  { return joinLabels(d.Service, d.Protocol) }
func (d *TLSA) OwnerLabels() string { return joinLabels(string(d.Port), d.Protocol) }

func joinLabels(labels ...string) string {
	var parts []string
	for _, l := range labels {
		if l = strings.TrimSpace(l); l != "" {
			parts = append(parts, l)
		}
	}
	return strings.Join(parts, ".")
}

// newRecordData selects the variant for a record type.
func newRecordData(typ string) RecordData {
	switch typ {
	case TypeA, TypeAAAA:
		return &Address{}
	case TypeCNAME:
		return &CNAME{}
	case TypeMX:
		return &MX{}
	case TypeTXT:
		return &TXT{}
	case TypeNS:
		return &NS{}
	case TypeSRV:
		return &SRV{}
	case TypeCAA:
		return &CAA{}
	case TypeALIAS:
		return &ALIAS{}
	case TypePTR:
		return &PTR{}
	case TypeHTTPS, TypeSVCB:
		return &SVCB{}
	case TypeTLSA:
		return &TLSA{}
	}
	return Opaque{}
}

// NormalizeHost trims s, strips one trailing dot and lowercases it.
// Internationalized names are converted to their ASCII form.
func NormalizeHost(s string) string {
	s = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(s), "."))
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			if ascii, err := idna.ToASCII(s); err == nil {
				return ascii
			}
			break
		}
	}
	return s
}

// ParseType canonicalizes a record type name and reports whether it is a
// type the DNS knows about. ALIAS is accepted as the registrar supports it.
func ParseType(s string) (string, bool) {
	typ := strings.ToUpper(strings.TrimSpace(s))
	if typ == TypeALIAS {
		return typ, true
	}
	_, ok := dns.StringToType[typ]
	return typ, ok
}

// Kind returns the canonical record type.
func (r *Record) Kind() string {
	return strings.ToUpper(strings.TrimSpace(r.Type))
}

// OwnerName returns the normalized owner name including labels kept in
// kind-specific fields.
func (r *Record) OwnerName() string {
	name := NormalizeHost(r.Name)
	if o, ok := r.Data.(Owner); ok {
		if labels := NormalizeHost(o.OwnerLabels()); labels != "" {
			if name == "" || name == Apex {
				return labels
			}
			return labels + "." + name
		}
	}
	if name == "" {
		return Apex
	}
	return name
}

// Clone returns a copy of r sharing no memory with it.
func (r *Record) Clone() Record {
	c := Record{Type: r.Type, Name: r.Name}
	if r.TTL != nil {
		c.TTL = TTL(*r.TTL)
	}
	switch d := r.Data.(type) {
	case *Address:
		v := *d
		c.Data = &v
	case *CNAME:
		v := *d
		c.Data = &v
	case *MX:
		v := *d
		c.Data = &v
	case *TXT:
		v := *d
		c.Data = &v
	case *NS:
		v := *d
		c.Data = &v
	case *SRV:
		v := *d
		c.Data = &v
	case *CAA:
		v := *d
		c.Data = &v
	case *ALIAS:
		v := *d
		c.Data = &v
	case *PTR:
		v := *d
		c.Data = &v
	case *SVCB:
		v := *d
		c.Data = &v
	case *TLSA:
		v := *d
		c.Data = &v
	case Opaque:
		c.Data = Opaque(maps.Clone(d))
	default:
		c.Data = d
	}
	return c
}

// CloneRecords deep-copies records.
func CloneRecords(records []Record) []Record {
	if records == nil {
		return nil
	}
	clones := make([]Record, len(records))
	for i := range records {
		clones[i] = records[i].Clone()
	}
	return clones
}

// ComparableValue returns the kind-specific value used for equality.
func ComparableValue(r *Record) string {
	if r.Data == nil {
		return ""
	}
	return r.Data.Comparable()
}

// Fingerprint returns `type|name|value|ttl`. The TTL part is empty unless
// includeTTL is set and the record carries one.
func Fingerprint(r *Record, includeTTL bool) string {
	ttl := ""
	if includeTTL && r.TTL != nil {
		ttl = strconv.Itoa(*r.TTL)
	}
	return r.Kind() + "|" + r.OwnerName() + "|" + ComparableValue(r) + "|" + ttl
}

func (r *Record) String() string {
	s := r.Kind() + " " + r.Name + " " + ComparableValue(r)
	if r.TTL != nil {
		s += " ttl=" + strconv.Itoa(*r.TTL)
	}
	return s
}

type recordHeader struct {
	Type string `json:"type"`
	Name string `json:"name"`
	TTL  *int   `json:"ttl,omitempty"`
}

func (r *Record) UnmarshalJSON(b []byte) error {
	var h recordHeader
	err := json.Unmarshal(b, &h)
	if err != nil {
		return err
	}

	data := newRecordData(strings.ToUpper(strings.TrimSpace(h.Type)))
	switch d := data.(type) {
	case Opaque:
		err = json.Unmarshal(b, &d)
		if err != nil {
			return err
		}
		delete(d, "type")
		delete(d, "name")
		delete(d, "ttl")
		data = d
	default:
		err = json.Unmarshal(b, d)
		if err != nil {
			return fmt.Errorf("%s record %q: %w", h.Type, h.Name, err)
		}
	}

	r.Type, r.Name, r.TTL, r.Data = h.Type, h.Name, h.TTL, data
	return nil
}

func (r Record) MarshalJSON() ([]byte, error) {
	fields := map[string]any{}
	if r.Data != nil {
		b, err := json.Marshal(r.Data)
		if err != nil {
			return nil, err
		}
		err = json.Unmarshal(b, &fields)
		if err != nil {
			return nil, err
		}
	}
	fields["type"] = r.Type
	fields["name"] = r.Name
	if r.TTL != nil {
		fields["ttl"] = *r.TTL
	}
	return json.Marshal(fields)
}

// Flex decodes from either a JSON string or a JSON number.
type Flex string

func (f *Flex) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		err := json.Unmarshal(b, &s)
		*f = Flex(s)
		return err
	}
	if string(b) == "null" {
		*f = ""
		return nil
	}
	*f = Flex(b)
	return nil
}

func TTL(v int) *int { return &v }
