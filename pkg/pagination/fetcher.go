package pagination

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultLimit is the page size requested when none is given. Etsy caps it at 100.
const DefaultLimit = 100

// PageFunc fetches a single page starting at offset.
type PageFunc[T any] func(ctx context.Context, limit, offset int) (*Page[T], error)

// FetchAll walks the next_offset chain starting at offset 0 and returns all items
// in fetch order. Any page error aborts the walk and no items are returned.
func FetchAll[T any](ctx context.Context, limit int, fetch PageFunc[T]) ([]T, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	start := time.Now()
	var items []T
	offset := 0
	pages := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := fetch(ctx, limit, offset)
		if err != nil {
			return nil, fmt.Errorf("fetch page at offset %d: %w", offset, err)
		}
		if page == nil {
			return nil, fmt.Errorf("fetch page at offset %d: nil page", offset)
		}
		pages++

		// Count is reported by the remote and never used to size the buffer.
		items = append(items, page.Results...)

		log.Debug().
			Int("offset", offset).
			Int("page_items", len(page.Results)).
			Int("total", page.Count).
			Msg("Page fetched")

		if page.Pagination.IsLast() {
			break
		}

		next := *page.Pagination.NextOffset
		if next <= offset {
			return nil, fmt.Errorf("pagination did not advance: next_offset %d after offset %d", next, offset)
		}
		offset = next
	}

	if items == nil {
		items = []T{}
	}

	log.Debug().
		Int("pages", pages).
		Int("items", len(items)).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return items, nil
}
