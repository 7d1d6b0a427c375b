// Copyright 2025 Jelly Terra <jellyterra@proton.me>
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package client

import "context"

// Page is one slice of a listing together with the size of the whole listing.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

type pageFetcher[T any] func(ctx context.Context, take, skip int) (*Page[T], error)

// collectAll walks a listing page by page. The offset advances by what the
// page actually held. An empty page ends the walk even if Total claims more,
// so a wrong Total cannot loop forever.
//
// The aggregate is not cached; the pages it is made of already are.
func collectAll[T any](ctx context.Context, pageSize int, fetchPage pageFetcher[T]) ([]T, error) {
	all := []T{}
	skip := 0
	for {
		page, err := fetchPage(ctx, pageSize, skip)
		if err != nil {
			return nil, err
		}
		if len(page.Items) == 0 {
			return all, nil
		}
		all = append(all, page.Items...)
		skip += len(page.Items)
		if skip >= page.Total {
			return all, nil
		}
	}
}
