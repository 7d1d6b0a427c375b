// Copyright 2025 Jelly Terra <jellyterra@symboltics.com>
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package main

import (
	"github.com/BartWaardenburg/spaceship-mcp/core"
	"github.com/goccy/go-json"
)

func MarshalJSON[T any](v T) []byte {
	data, _ := json.Marshal(v)
	return data
}

func MarshalIndentJSON[T any](v T) string {
	data, _ := json.MarshalIndent(v, "", "  ")
	return string(data)
}

func UnmarshalJSON[T any](data []byte, v T) (T, error) {
	return v, json.Unmarshal(data, v)
}

// DecodeRecords turns loosely typed tool arguments into records.
func DecodeRecords(items []map[string]any) ([]core.Record, error) {
	records, err := UnmarshalJSON(MarshalJSON(items), &[]core.Record{})
	if err != nil {
		return nil, err
	}
	return *records, nil
}
