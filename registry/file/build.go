// Copyright 2025 Jelly Terra <jellyterra@proton.me>
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package file

import (
	"context"
	"fmt"
	"os"

	"github.com/BartWaardenburg/spaceship-mcp/core"
	"github.com/goccy/go-json"
)

// Source reads a JSON array of records from disk on every call.
type Source struct {
	Path string
}

func (s *Source) Records(_ context.Context, _ string) ([]core.Record, error) {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, err
	}

	var records []core.Record
	err = json.Unmarshal(b, &records)
	if err != nil {
		return nil, fmt.Errorf("file: loading records from %s: %w", s.Path, err)
	}
	return records, nil
}

func (s *Source) Close() error { return nil }

func Build(config map[string]string) (core.Source, error) {
	path := config["path"]
	if path == "" {
		return nil, fmt.Errorf("file: require [path]")
	}
	return &Source{Path: path}, nil
}

func init() {
	core.SourceBuilders["file"] = Build
}
