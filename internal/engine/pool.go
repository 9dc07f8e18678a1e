package engine

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"
)

// FetchParallel runs fetch for each key concurrently, bounded by workers.
// The returned map is complete — one entry per distinct input key — with
// failed fetches recorded as the zero value instead of propagated. A per-key
// failure never aborts sibling fetches. An optional limiter paces fetch
// starts across workers.
func FetchParallel[K comparable, V any](
	ctx context.Context,
	keys []K,
	workers int,
	limiter *rate.Limiter,
	name string,
	fetch func(context.Context, K) (V, error),
) map[K]V {
	results := make(map[K]V, len(keys))
	if len(keys) == 0 {
		return results
	}
	if workers <= 0 {
		workers = 1
	}

	// Exactly one worker per distinct key: no two workers write the same slot.
	uniq := make([]K, 0, len(keys))
	seen := make(map[K]bool, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			uniq = append(uniq, k)
		}
	}
	keys = uniq

	var mu sync.Mutex
	var wg sync.WaitGroup
	var got int
	sem := make(chan struct{}, workers)

	for _, key := range keys {
		wg.Add(1)
		go func(k K) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					var zero V
					mu.Lock()
					results[k] = zero
					mu.Unlock()
					return
				}
			}

			v, err := fetch(ctx, k)
			if err != nil {
				slog.Debug("parallel fetch failed",
					slog.String("pool", name), slog.Any("key", k), slog.Any("error", err))
				var zero V
				v = zero
			}
			mu.Lock()
			if err == nil {
				got++
			}
			results[k] = v
			mu.Unlock()
		}(key)
	}
	wg.Wait()

	slog.Info("parallel fetch done",
		slog.String("pool", name), slog.Int("got", got), slog.Int("total", len(keys)))
	return results
}
