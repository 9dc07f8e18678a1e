package engine

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	OverviewSearchRequests    atomic.Int64
	OverviewTaskErrors        atomic.Int64
	VideoSearchRequests       atomic.Int64
	VideoStatsRequests        atomic.Int64
	CaptionFetchRequests      atomic.Int64
	TranscribeRequests        atomic.Int64
	TranscribePollLoops       atomic.Int64
	TranscribeTimeouts        atomic.Int64
}

// GetMetrics returns a snapshot of all metrics.
func GetMetrics() map[string]int64 {
	return map[string]int64{
		"overview_search_requests": metrics.OverviewSearchRequests.Load(),
		"overview_task_errors":     metrics.OverviewTaskErrors.Load(),
		"video_search_requests":    metrics.VideoSearchRequests.Load(),
		"video_stats_requests":     metrics.VideoStatsRequests.Load(),
		"caption_fetch_requests":   metrics.CaptionFetchRequests.Load(),
		"transcribe_requests":      metrics.TranscribeRequests.Load(),
		"transcribe_poll_loops":    metrics.TranscribePollLoops.Load(),
		"transcribe_timeouts":      metrics.TranscribeTimeouts.Load(),
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	keys := []string{
		"overview_search_requests", "overview_task_errors",
		"video_search_requests", "video_stats_requests",
		"caption_fetch_requests",
		"transcribe_requests", "transcribe_poll_loops", "transcribe_timeouts",
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for the sources/ sub-package.
func IncrOverviewSearch() { metrics.OverviewSearchRequests.Add(1) }
func IncrOverviewTaskError() { metrics.OverviewTaskErrors.Add(1) }
func IncrVideoSearch()    { metrics.VideoSearchRequests.Add(1) }
func IncrVideoStats()     { metrics.VideoStatsRequests.Add(1) }
func IncrCaptionFetch()   { metrics.CaptionFetchRequests.Add(1) }
func IncrTranscribe()     { metrics.TranscribeRequests.Add(1) }
func IncrTranscribePoll() { metrics.TranscribePollLoops.Add(1) }
func IncrTranscribeTimeout() { metrics.TranscribeTimeouts.Add(1) }
