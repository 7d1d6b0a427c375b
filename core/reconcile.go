// Copyright 2025 Jelly Terra <jellyterra@proton.me>
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package core

import (
	"errors"
	"fmt"
	"slices"
)

var ErrOutOfScope = errors.New("record out of cutover scope")

// WebTypes are the record types a cutover plan manages.
var WebTypes = []string{TypeA, TypeAAAA, TypeCNAME, TypeALIAS}

// WebNames are the owner names a cutover plan manages.
var WebNames = []string{Apex, "www"}

type AlignOptions struct {
	// Types restricts the actual side. Empty means all types.
	Types []string
	// IncludeTTL makes TTL part of equality for expected records that carry one.
	IncludeTTL bool
}

type Alignment struct {
	Missing    []Record `json:"missing"`
	Unexpected []Record `json:"unexpected"`
}

func (a *Alignment) Aligned() bool {
	return len(a.Missing) == 0 && len(a.Unexpected) == 0
}

// CheckAlignment reports expected records absent from actual, and actual
// records no expected record accounts for.
//
// Several actual records sharing one fingerprint are all matched by a single
// expected record; duplicates are not reported.
func CheckAlignment(expected, actual []Record, opts AlignOptions) *Alignment {
	types := make(map[string]bool, len(opts.Types))
	for _, t := range opts.Types {
		typ, _ := ParseType(t)
		types[typ] = true
	}

	var live []*Record
	for i := range actual {
		if len(types) == 0 || types[actual[i].Kind()] {
			live = append(live, &actual[i])
		}
	}

	liveBare := make(map[string]bool, len(live))
	liveFull := make(map[string]bool, len(live))
	for _, r := range live {
		liveBare[Fingerprint(r, false)] = true
		liveFull[Fingerprint(r, true)] = true
	}

	wantBare := map[string]bool{}
	wantFull := map[string]bool{}
	result := &Alignment{Missing: []Record{}, Unexpected: []Record{}}

	for i := range expected {
		e := &expected[i]
		if opts.IncludeTTL && e.TTL != nil {
			fp := Fingerprint(e, true)
			wantFull[fp] = true
			if !liveFull[fp] {
				result.Missing = append(result.Missing, *e)
			}
			continue
		}
		fp := Fingerprint(e, false)
		wantBare[fp] = true
		if !liveBare[fp] {
			result.Missing = append(result.Missing, *e)
		}
	}

	for _, r := range live {
		if wantBare[Fingerprint(r, false)] || wantFull[Fingerprint(r, true)] {
			continue
		}
		result.Unexpected = append(result.Unexpected, *r)
	}

	return result
}

type ForeignHost struct {
	Record   Record `json:"record"`
	Provider string `json:"provider"`
	Reason   string `json:"reason"`
}

type CutoverPlan struct {
	Upserts []Record      `json:"upserts"`
	Deletes []Record      `json:"deletes"`
	Foreign []ForeignHost `json:"foreign"`
}

// IsWebRecord reports whether r is in the scope of a cutover plan.
func IsWebRecord(r *Record) bool {
	return slices.Contains(WebTypes, r.Kind()) && slices.Contains(WebNames, r.OwnerName())
}

// PlanCutover computes the record changes moving the apex and www web
// records to desired. It never touches records outside that scope and
// performs no writes.
func PlanCutover(desired, actual []Record) (*CutoverPlan, error) {
	want := make(map[string]bool, len(desired))
	plan := &CutoverPlan{Upserts: []Record{}, Deletes: []Record{}, Foreign: []ForeignHost{}}

	for i := range desired {
		if !IsWebRecord(&desired[i]) {
			return nil, fmt.Errorf("%w: %s", ErrOutOfScope, desired[i].String())
		}
		want[Fingerprint(&desired[i], false)] = true
	}

	have := map[string]bool{}
	for i := range actual {
		r := &actual[i]
		if !IsWebRecord(r) {
			continue
		}
		fp := Fingerprint(r, false)
		have[fp] = true
		if !want[fp] {
			plan.Deletes = append(plan.Deletes, *r)
		}
		if provider, reason, ok := ClassifyHosting(r); ok {
			plan.Foreign = append(plan.Foreign, ForeignHost{Record: *r, Provider: provider, Reason: reason})
		}
	}

	queued := map[string]bool{}
	for i := range desired {
		fp := Fingerprint(&desired[i], false)
		if have[fp] || queued[fp] {
			continue
		}
		queued[fp] = true
		plan.Upserts = append(plan.Upserts, desired[i])
	}

	return plan, nil
}

// GroupByFingerprint buckets records sharing a fingerprint, preserving input
// order inside each bucket.
func GroupByFingerprint(records []Record, includeTTL bool) map[string][]Record {
	groups := map[string][]Record{}
	for i := range records {
		fp := Fingerprint(&records[i], includeTTL)
		groups[fp] = append(groups[fp], records[i])
	}
	return groups
}
