package sources

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// fetchBatch drives a per-query fetch across all queries, deduplicating by
// key across the whole batch and sleeping between distinct queries to
// respect upstream rate limits. A configuration error aborts the batch;
// everything else is already degraded to an empty per-query result by the
// adapter.
func fetchBatch[T any](
	ctx context.Context,
	queries []string,
	delay time.Duration,
	fetch func(context.Context, string) ([]T, error),
	key func(T) string,
) ([]T, error) {
	seen := make(map[string]bool)
	var all []T

	for i, query := range queries {
		if i > 0 {
			sleepCtx(ctx, delay)
		}

		items, err := fetch(ctx, query)
		if err != nil {
			return nil, err
		}

		for _, item := range items {
			k := key(item)
			if seen[k] {
				continue
			}
			seen[k] = true
			all = append(all, item)
		}

		logrus.Debugf("Batch query %q: %d fetched, %d total unique", query, len(items), len(all))
	}

	return all, nil
}

// sleepCtx is a cooperative rate-limiting sleep that still honors
// cancellation.
func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
