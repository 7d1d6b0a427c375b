// Copyright 2025 Jelly Terra <jellyterra@symboltics.com>
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package core

import (
	"context"
	"fmt"
	"maps"
	"slices"
)

// Source produces the records of a zone from somewhere: the registrar itself,
// another DNS provider or a file.
type Source interface {
	Records(ctx context.Context, domain string) ([]Record, error)
	Close() error
}

type SourceBuilder func(config map[string]string) (Source, error)

var SourceBuilders = map[string]SourceBuilder{}

func BuildSource(builderName string, config map[string]string) (Source, error) {
	builder, ok := SourceBuilders[builderName]
	if !ok {
		return nil, fmt.Errorf("no source builder called %s found, have %v", builderName, SourceNames())
	}
	return builder(config)
}

func SourceNames() []string {
	return slices.Sorted(maps.Keys(SourceBuilders))
}
