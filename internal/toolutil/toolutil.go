// Package toolutil provides shared helper functions for go_trend MCP tools.
package toolutil

import (
	"time"

	"github.com/anatolykoptev/go_trend/internal/engine"
)

// NormDepth normalises a depth field: empty or unknown values → "default".
func NormDepth(depth string) string {
	switch depth {
	case engine.DepthQuick, engine.DepthDefault, engine.DepthDeep:
		return depth
	}
	return engine.DepthDefault
}

// DefaultFromDate returns the default recency window start: 30 days ago.
func DefaultFromDate() string {
	return time.Now().AddDate(0, 0, -30).Format("2006-01-02")
}

// NormFromDate normalises a from_date field: empty → 30 days ago.
func NormFromDate(fromDate string) string {
	if fromDate == "" {
		return DefaultFromDate()
	}
	return fromDate
}
