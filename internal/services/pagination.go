package services

import (
	"context"

	"github.com/charmbracelet/log"
)

// Page is one page of a listing endpoint.
type Page[T any] struct {
	Items []T
	// Number is the 1-based page index (cpage).
	Number int
	// Last is set when the page held fewer rows than requested.
	Last bool
}

// PageFunc fetches a single page of a listing.
type PageFunc[T any] func(ctx context.Context, page, rows int) (*Page[T], error)

// FetchAll walks a listing page by page and returns every row.
//
// Paging stops on an empty or short page. A listing whose size is an exact multiple of rows
// costs one extra request for the empty page that follows. At most [MaxPages] pages are read;
// hitting the cap logs a warning and returns what was collected.
func FetchAll[T any](ctx context.Context, logger *log.Logger, rows int, fetch PageFunc[T]) ([]T, error) {
	if rows <= 0 || rows > MaxRows {
		rows = MaxRows
	}

	var all []T
	for page := 1; ; page++ {
		if page > MaxPages {
			if logger != nil {
				logger.Warn("page cap reached, listing truncated", "max_pages", MaxPages, "items", len(all))
			}
			break
		}

		p, err := fetch(ctx, page, rows)
		if err != nil {
			return nil, err
		}

		all = append(all, p.Items...)
		if len(p.Items) == 0 || p.Last {
			break
		}
	}

	return all, nil
}

func newPage[T any](items []T, page, rows int) *Page[T] {
	return &Page[T]{Items: items, Number: page, Last: len(items) < rows}
}
