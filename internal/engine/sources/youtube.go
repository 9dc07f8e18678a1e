package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/anatolykoptev/go_trend/internal/engine"
)

// YouTube Data API v3 search + statistics, with soft recency filtering and
// parallel caption fetching for the top videos.

const ytDataAPIBase = "https://www.googleapis.com/youtube/v3"

// ytPageSize is the API's maximum page size for search and statistics calls.
const ytPageSize = 50

// --- YouTube Data API v3 types ---

type ytSearchResp struct {
	NextPageToken string         `json:"nextPageToken"`
	Items         []ytSearchItem `json:"items"`
}

type ytSearchItem struct {
	ID      ytSearchItemID `json:"id"`
	Snippet ytSnippet      `json:"snippet"`
}

type ytSearchItemID struct {
	VideoID string `json:"videoId"`
}

type ytSnippet struct {
	Title        string `json:"title"`
	ChannelTitle string `json:"channelTitle"`
	PublishedAt  string `json:"publishedAt"`
}

type ytVideosResp struct {
	Items []ytVideoEntry `json:"items"`
}

type ytVideoEntry struct {
	ID             string           `json:"id"`
	Statistics     ytStatistics     `json:"statistics"`
	ContentDetails ytContentDetails `json:"contentDetails"`
}

// The statistics endpoint returns counts as decimal strings.
type ytStatistics struct {
	ViewCount    string `json:"viewCount"`
	LikeCount    string `json:"likeCount"`
	CommentCount string `json:"commentCount"`
}

type ytContentDetails struct {
	Duration string `json:"duration"`
}

// SearchVideos searches YouTube for a topic's core subject and returns
// videos with engagement stats, recency-filtered and sorted by views.
// Failed statistics batches leave their videos with zero engagement.
func SearchVideos(ctx context.Context, topic, fromDate, depth string) ([]engine.VideoItem, error) {
	if engine.Cfg.YouTubeAPIKey == "" {
		return nil, errors.New("YOUTUBE_API_KEY not set")
	}

	count := engine.VideoCountForDepth(depth)
	coreTopic := engine.ExtractCoreSubject(topic)

	slog.Info("youtube: searching",
		slog.String("subject", coreTopic), slog.String("since", fromDate), slog.Int("count", count))

	// Full search with the primary key; one retry of the whole search with
	// the fallback key on quota errors.
	keys := []string{engine.Cfg.YouTubeAPIKey}
	if engine.Cfg.YouTubeAPIKeyFallback != "" {
		keys = append(keys, engine.Cfg.YouTubeAPIKeyFallback)
	}
	var videoIDs []string
	var snippets map[string]ytSnippet
	var lastErr error
	activeKey := keys[0]
	for _, key := range keys {
		videoIDs, snippets, lastErr = ytSearchPages(ctx, coreTopic, fromDate, count, key)
		if lastErr == nil {
			activeKey = key
			break
		}
		slog.Debug("youtube: API key failed, trying fallback", slog.Any("error", lastErr))
	}
	if lastErr != nil {
		return nil, fmt.Errorf("youtube search: %w", lastErr)
	}
	if len(videoIDs) == 0 {
		slog.Info("youtube: search returned 0 results")
		return nil, nil
	}

	stats, durations := ytFetchStats(ctx, videoIDs, activeKey)

	items := make([]engine.VideoItem, 0, len(videoIDs))
	for _, vid := range videoIDs {
		snippet := snippets[vid]

		// publishedAt is ISO 8601; keep the date part only.
		date := ""
		if len(snippet.PublishedAt) >= 10 {
			date = snippet.PublishedAt[:10]
		}

		items = append(items, engine.VideoItem{
			VideoID:     vid,
			Title:       snippet.Title,
			URL:         "https://www.youtube.com/watch?v=" + vid,
			ChannelName: snippet.ChannelTitle,
			Date:        date,
			Engagement:  stats[vid],
			Duration:    durations[vid],
			Relevance:   0.7,
			WhyRelevant: "YouTube video about " + coreTopic,
		})
	}

	filtered := engine.FilterRecent(items, fromDate, func(v engine.VideoItem) string { return v.Date })
	if len(filtered) == len(items) {
		slog.Info("youtube: keeping all videos", slog.Int("total", len(items)))
	} else {
		slog.Info("youtube: videos within date range", slog.Int("count", len(filtered)))
	}
	items = filtered

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Engagement.Views > items[j].Engagement.Views
	})
	return items, nil
}

// SearchAndTranscribe runs a video search and attaches transcript snippets to
// the top videos by views, fetched in parallel through the platform-native
// caption path.
func SearchAndTranscribe(ctx context.Context, topic, fromDate, depth string) ([]engine.VideoItem, error) {
	items, err := SearchVideos(ctx, topic, fromDate, depth)
	if err != nil || len(items) == 0 {
		return items, err
	}

	limit := engine.TranscriptLimitForDepth(depth)
	if limit > len(items) {
		limit = len(items)
	}
	topIDs := make([]string, 0, limit)
	for _, item := range items[:limit] {
		topIDs = append(topIDs, item.VideoID)
	}

	transcripts := engine.FetchParallel(ctx, topIDs, engine.Cfg.TranscriptWorkers, nil,
		"youtube-captions", FetchCaptionTranscript)

	for i := range items {
		items[i].TranscriptSnippet = transcripts[items[i].VideoID]
	}
	return items, nil
}

// ytSearchPages pages through search.list until count IDs are collected or
// no further page token is returned.
func ytSearchPages(ctx context.Context, query, fromDate string, count int, apiKey string) ([]string, map[string]ytSnippet, error) {
	var videoIDs []string
	snippets := make(map[string]ytSnippet)
	pageToken := ""
	remaining := count

	for remaining > 0 {
		maxResults := remaining
		if maxResults > ytPageSize {
			maxResults = ytPageSize
		}
		params := url.Values{}
		params.Set("part", "snippet")
		params.Set("type", "video")
		params.Set("q", query)
		params.Set("publishedAfter", fromDate+"T00:00:00Z")
		params.Set("maxResults", strconv.Itoa(maxResults))
		params.Set("order", "relevance")
		params.Set("key", apiKey)
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		var page ytSearchResp
		if err := ytGet(ctx, "search", params, &page); err != nil {
			return nil, nil, err
		}

		for _, item := range page.Items {
			if vid := item.ID.VideoID; vid != "" {
				videoIDs = append(videoIDs, vid)
				snippets[vid] = item.Snippet
			}
		}

		pageToken = page.NextPageToken
		remaining -= maxResults
		if pageToken == "" {
			break
		}
	}
	return videoIDs, snippets, nil
}

// ytFetchStats batches video IDs into videos.list calls for statistics and
// duration. A failed batch is logged and leaves its videos at zero
// engagement rather than aborting.
func ytFetchStats(ctx context.Context, videoIDs []string, apiKey string) (map[string]engine.Engagement, map[string]string) {
	stats := make(map[string]engine.Engagement, len(videoIDs))
	durations := make(map[string]string, len(videoIDs))

	for i := 0; i < len(videoIDs); i += ytPageSize {
		end := i + ytPageSize
		if end > len(videoIDs) {
			end = len(videoIDs)
		}
		batch := videoIDs[i:end]

		params := url.Values{}
		params.Set("part", "statistics,contentDetails")
		params.Set("id", strings.Join(batch, ","))
		params.Set("key", apiKey)

		engine.IncrVideoStats()
		var resp ytVideosResp
		if err := ytGet(ctx, "videos", params, &resp); err != nil {
			slog.Warn("youtube: videos API error", slog.Any("error", err))
			continue
		}
		for _, v := range resp.Items {
			stats[v.ID] = engine.Engagement{
				Views:    parseCount(v.Statistics.ViewCount),
				Likes:    parseCount(v.Statistics.LikeCount),
				Comments: parseCount(v.Statistics.CommentCount),
			}
			durations[v.ID] = v.ContentDetails.Duration
		}
	}
	return stats, durations
}

// ytGet performs one GET against the Data API and decodes the JSON response.
func ytGet(ctx context.Context, endpoint string, params url.Values, out any) error {
	if endpoint == "search" {
		engine.IncrVideoSearch()
	}
	apiURL := ytDataAPIBase + "/" + endpoint + "?" + params.Encode()

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", engine.UserAgentBot)
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return fmt.Errorf("youtube data API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("youtube data API %d: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode youtube data API: %w", err)
	}
	return nil
}

// parseCount parses a decimal count string. Missing, malformed or negative
// values all collapse to 0 — engagement counts are never negative.
func parseCount(s string) int64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
