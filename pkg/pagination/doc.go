// Package pagination builds pagination controls and fetches paginated
// catalog listings.
//
// BuildSequence compresses an arbitrary page count into a short, ordered
// list of page tokens for rendering:
//
//	pagination.BuildSequence(15, 8)
//	// [1 2 3 … 6 7 8 9 10 … 13 14 15]
//
// Every non-empty sequence starts at page 1, ends at the last page, has no
// duplicate pages and never places two Ellipsis markers side by side.
//
// BatchFetcher walks every page of a listing with a bounded worker pool:
//
//	fetcher := pagination.NewBatchFetcher[catalog.Item](source, pagination.DefaultConfig())
//	items, err := fetcher.FetchAll(ctx)
//
// The batch fetcher:
//   - Fetches the first page to learn the total page count
//   - Spawns a worker pool (default 4 workers)
//   - Distributes the remaining pages across workers
//   - Returns items in page order, with partial data on error
package pagination
