// Package pagination provides limit/offset arithmetic for paginated product listings.
//
// Storage queries take a limit and an offset; responses report the total number of
// matching products and the number of pages derived from it:
//
//	meta := pagination.NewMeta(total, page, perPage)
//	// meta.TotalPages == ceil(total / perPage), 0 when total is 0
//
// The page number reported back is the requested page, even when it lies beyond the
// last page; such a request simply yields an empty product list.
package pagination
