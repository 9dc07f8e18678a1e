package engine

import "log/slog"

// DedupeAcrossQueries merges per-query item lists into one, keyed by
// canonical URL (lowercased, trailing slash stripped). Queries are visited
// in issuance order and the first occurrence wins — its title, snippet and
// relevance are kept, later duplicates discarded. The output order is
// query-priority-first, not globally resorted.
func DedupeAcrossQueries(perQuery [][]WebItem) []WebItem {
	seen := make(map[string]bool)
	var merged []WebItem
	for _, items := range perQuery {
		for _, item := range items {
			key := CanonicalURLKey(item.URL)
			if seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, item)
		}
	}
	return merged
}

// minRecentKeep is the smallest recent subset worth filtering down to.
// Below it the filter is a no-op so sparse date metadata can't starve
// the result set.
const minRecentKeep = 3

// FilterRecent keeps items with a known date >= fromDate (inclusive, ISO
// date strings compare lexicographically). If fewer than minRecentKeep items
// qualify, the full original list is returned unfiltered.
func FilterRecent[T any](items []T, fromDate string, dateOf func(T) string) []T {
	var recent []T
	for _, item := range items {
		if d := dateOf(item); d != "" && d >= fromDate {
			recent = append(recent, item)
		}
	}
	if len(recent) >= minRecentKeep {
		return recent
	}
	slog.Debug("recency filter below minimum, keeping all",
		slog.Int("recent", len(recent)), slog.Int("total", len(items)))
	return items
}
