// ABOUTME: Generic cache-backed range fetch shared by every reader
// ABOUTME: Skips the header row, parses with 1-based physical positions, sorts and caches
package store

import (
	"context"
	"sort"

	"go.uber.org/zap"
)

// fetchCached serves the dataset under cacheKey from the cache while its
// entry is inside the TTL, otherwise reads rng from the backend, skips the
// header row, applies parse to every remaining row (idx is the row's
// 1-based physical sheet position, so the first data row gets 2), sorts
// with less when given, caches the result and returns it.
//
// A backend failure propagates and leaves any previous cache entry
// untouched; the avoided backend call on a hit is a quota optimization,
// not a correctness guarantee.
func fetchCached[T any](ctx context.Context, b *base, cacheKey, rng string, parse func(row []string, idx int) T, less func(a, b T) bool) ([]T, error) {
	if v, ok := b.cache.Get(cacheKey); ok {
		b.log.Debug("cache hit", zap.String("key", cacheKey))
		return v.([]T), nil
	}

	b.log.Debug("cache miss, reading backend", zap.String("key", cacheKey), zap.String("range", rng))
	rows, err := b.backend.Read(ctx, rng)
	if err != nil {
		return nil, err
	}

	var records []T
	if len(rows) > 1 {
		records = make([]T, 0, len(rows)-1)
		for i, row := range rows[1:] {
			// Header is physical row 1, so data row i maps to i+2.
			records = append(records, parse(row, i+2))
		}
	}

	if less != nil {
		sort.SliceStable(records, func(i, j int) bool { return less(records[i], records[j]) })
	}

	b.cache.Set(cacheKey, records)
	return records, nil
}
