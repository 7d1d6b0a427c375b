// Copyright 2025 Jelly Terra <jellyterra@proton.me>
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package cloudflare

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/BartWaardenburg/spaceship-mcp/core"
	"github.com/cloudflare/cloudflare-go"
)

// Source reads the records of one Cloudflare zone, typically the zone a
// domain is being migrated away from.
type Source struct {
	API  *cloudflare.API
	RC   *cloudflare.ResourceContainer
	Zone string
}

func (s *Source) Records(ctx context.Context, domain string) ([]core.Record, error) {
	if domain != "" && core.NormalizeHost(domain) != core.NormalizeHost(s.Zone) {
		return nil, fmt.Errorf("cloudflare: source is bound to zone %s, not %s", s.Zone, domain)
	}

	records, _, err := s.API.ListDNSRecords(ctx, s.RC, cloudflare.ListDNSRecordsParams{})
	if err != nil {
		return nil, err
	}

	converted := make([]core.Record, 0, len(records))
	for _, rec := range records {
		converted = append(converted, ConvertRecord(s.Zone, rec))
	}
	return converted, nil
}

func (s *Source) Close() error { return nil }

func Build(config map[string]string) (core.Source, error) {
	var (
		apiToken = config["api_token"]
		zone     = config["zone"]
	)
	if apiToken == "" || zone == "" {
		return nil, fmt.Errorf("cloudflare: require [api_token, zone]")
	}

	api, err := cloudflare.NewWithAPIToken(apiToken)
	if err != nil {
		return nil, err
	}

	zoneId, err := api.ZoneIDByName(zone)
	if err != nil {
		return nil, err
	}

	return &Source{
		API:  api,
		RC:   cloudflare.ZoneIdentifier(zoneId),
		Zone: zone,
	}, nil
}

func init() {
	core.SourceBuilders["cloudflare"] = Build
}

// RelativeName turns a Cloudflare FQDN into a name relative to zone, "@" for
// the apex.
func RelativeName(zone, fqdn string) string {
	name, z := core.NormalizeHost(fqdn), core.NormalizeHost(zone)
	switch {
	case name == z || name == "":
		return core.Apex
	case strings.HasSuffix(name, "."+z):
		return strings.TrimSuffix(name, "."+z)
	}
	return name
}

// ConvertRecord maps a Cloudflare record onto the registrar's record shape.
func ConvertRecord(zone string, rec cloudflare.DNSRecord) core.Record {
	r := core.Record{
		Type: strings.ToUpper(rec.Type),
		Name: RelativeName(zone, rec.Name),
	}
	// TTL 1 means "automatic" on Cloudflare.
	if rec.TTL > 1 {
		r.TTL = core.TTL(rec.TTL)
	}

	data, _ := rec.Data.(map[string]interface{})
	priority := 0
	if rec.Priority != nil {
		priority = int(*rec.Priority)
	}

	switch r.Type {
	case core.TypeA, core.TypeAAAA:
		r.Data = &core.Address{Address: rec.Content}
	case core.TypeCNAME:
		r.Data = &core.CNAME{CName: rec.Content}
	case core.TypeMX:
		r.Data = &core.MX{Exchange: rec.Content, Preference: priority}
	case core.TypeTXT:
		r.Data = &core.TXT{Value: unquote(rec.Content)}
	case core.TypeNS:
		r.Data = &core.NS{Nameserver: rec.Content}
	case core.TypePTR:
		r.Data = &core.PTR{Pointer: rec.Content}
	case core.TypeSRV:
		r.Data, r.Name = convertSRV(r.Name, rec.Content, priority, data)
	case core.TypeCAA:
		r.Data = convertCAA(rec.Content, data)
	case core.TypeHTTPS, core.TypeSVCB:
		r.Data = convertSVCB(rec.Content, data)
	default:
		r.Data = core.Opaque{"content": rec.Content}
	}
	return r
}

func convertSRV(name, content string, priority int, data map[string]interface{}) (*core.SRV, string) {
	srv := &core.SRV{Priority: priority}

	labels := strings.Split(name, ".")
	if len(labels) > 0 && strings.HasPrefix(labels[0], "_") {
		srv.Service, labels = labels[0], labels[1:]
	}
	if len(labels) > 0 && strings.HasPrefix(labels[0], "_") {
		srv.Protocol, labels = labels[0], labels[1:]
	}
	name = strings.Join(labels, ".")
	if name == "" {
		name = core.Apex
	}

	if data != nil {
		if v, ok := dataInt(data, "priority"); ok {
			srv.Priority = v
		}
		srv.Weight, _ = dataInt(data, "weight")
		srv.Port, _ = dataInt(data, "port")
		srv.Target, _ = data["target"].(string)
		return srv, name
	}

	fields := strings.Fields(content)
	if len(fields) == 4 {
		srv.Priority, _ = strconv.Atoi(fields[0])
		fields = fields[1:]
	}
	if len(fields) == 3 {
		srv.Weight, _ = strconv.Atoi(fields[0])
		srv.Port, _ = strconv.Atoi(fields[1])
		srv.Target = fields[2]
	}
	return srv, name
}

func convertCAA(content string, data map[string]interface{}) *core.CAA {
	if data != nil {
		caa := &core.CAA{}
		caa.Flag, _ = dataInt(data, "flags")
		caa.Tag, _ = data["tag"].(string)
		caa.Value, _ = data["value"].(string)
		return caa
	}

	caa := &core.CAA{}
	fields := strings.SplitN(content, " ", 3)
	if len(fields) == 3 {
		caa.Flag, _ = strconv.Atoi(fields[0])
		caa.Tag = fields[1]
		caa.Value = unquote(fields[2])
	}
	return caa
}

func convertSVCB(content string, data map[string]interface{}) *core.SVCB {
	svcb := &core.SVCB{}
	if data != nil {
		svcb.SvcPriority, _ = dataInt(data, "priority")
		svcb.TargetName, _ = data["target"].(string)
		svcb.SvcParams, _ = data["value"].(string)
		return svcb
	}

	fields := strings.SplitN(content, " ", 3)
	if len(fields) >= 2 {
		svcb.SvcPriority, _ = strconv.Atoi(fields[0])
		svcb.TargetName = fields[1]
	}
	if len(fields) == 3 {
		svcb.SvcParams = fields[2]
	}
	return svcb
}

func dataInt(data map[string]interface{}, key string) (int, bool) {
	switch v := data[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case string:
		n, err := strconv.Atoi(v)
		return n, err == nil
	}
	return 0, false
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
