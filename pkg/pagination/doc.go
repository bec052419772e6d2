// Package pagination provides sequential offset-chain fetching for paginated Etsy endpoints.
//
// Etsy v2 returns a pagination block with every list response. The next_offset field
// is null on the last page, so the pages of a shop cannot be requested in parallel:
// each request depends on the offset returned by the previous one.
//
// Example usage:
//
//	items, err := pagination.FetchAll(ctx, 100, func(ctx context.Context, limit, offset int) (*pagination.Page[Listing], error) {
//		return c.GetShopListingsPage(ctx, shopID, limit, offset)
//	})
//
// FetchAll:
//   - Starts at offset 0
//   - Follows next_offset until it is absent
//   - Concatenates items in fetch order
//   - Returns no partial data on error
package pagination
