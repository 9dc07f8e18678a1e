package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/anatolykoptev/go_trend/internal/engine"
)

// DataForSEO Google AI Mode search. Supplemental web source that returns
// Google's AI overview (synthesized answer) plus reference URLs as web items.
//
// API docs: https://docs.dataforseo.com/v3/serp/google/ai_mode/live/advanced/

const dfsEndpoint = "https://api.dataforseo.com/v3/serp/google/ai_mode/live/advanced"

// dfsTaskOK is the provider's task-level success code.
const dfsTaskOK = 20000

// Domains to exclude — handled by dedicated Reddit/X sibling sources.
var dfsExcludedDomains = map[string]bool{
	"reddit.com": true, "www.reddit.com": true, "old.reddit.com": true,
	"twitter.com": true, "www.twitter.com": true, "x.com": true, "www.x.com": true,
}

// --- DataForSEO response types ---

type dfsResponse struct {
	Tasks []dfsTask `json:"tasks"`
}

type dfsTask struct {
	StatusCode    int         `json:"status_code"`
	StatusMessage string      `json:"status_message"`
	Result        []dfsResult `json:"result"`
}

type dfsResult struct {
	Items []dfsResultItem `json:"items"`
}

type dfsResultItem struct {
	Type       string         `json:"type"`
	Markdown   string         `json:"markdown"`
	Text       string         `json:"text"`
	References []dfsReference `json:"references"`
}

type dfsReference struct {
	URL     string `json:"url"`
	Domain  string `json:"domain"`
	Title   string `json:"title"`
	Text    string `json:"text"`
	Snippet string `json:"snippet"`
}

// SearchWeb queries the AI Mode API with depth-scaled question queries and
// returns deduplicated reference items plus the concatenated AI overview text.
// Per-query failures are logged and skipped; the error is non-nil only when
// credentials are missing or every query failed.
func SearchWeb(ctx context.Context, topic, fromDate, depth string) ([]engine.WebItem, string, error) {
	if engine.Cfg.DataForSEOLogin == "" || engine.Cfg.DataForSEOPassword == "" {
		return nil, "", errors.New("DATAFORSEO_LOGIN / DATAFORSEO_PASSWORD not set")
	}

	queries := engine.BuildOverviewQueries(topic, depth)

	var perQuery [][]engine.WebItem
	var overviews []string
	var lastErr error
	failed := 0

	for _, query := range queries {
		resp, err := dfsCall(ctx, query)
		if err != nil {
			slog.Warn("dataforseo: query failed",
				slog.String("query", engine.Truncate(query, 50)), slog.Any("error", err))
			lastErr = err
			failed++
			continue
		}
		items, overview := dfsNormalize(resp)
		perQuery = append(perQuery, items)
		if overview != "" {
			overviews = append(overviews, overview)
		}
	}

	if failed == len(queries) && lastErr != nil {
		return nil, "", fmt.Errorf("all queries failed: %w", lastErr)
	}

	merged := engine.DedupeAcrossQueries(perQuery)
	for i := range merged {
		merged[i].ID = fmt.Sprintf("D%d", i+1)
	}
	overview := strings.Join(overviews, "\n\n---\n\n")

	slog.Info("dataforseo: done",
		slog.Int("references", len(merged)), slog.Int("overviews", len(overviews)))
	return merged, overview, nil
}

// dfsCall performs one AI Mode API call for a single query.
func dfsCall(ctx context.Context, query string) (*dfsResponse, error) {
	engine.IncrOverviewSearch()

	// The API takes a JSON array of task objects.
	payload := []map[string]any{{
		"keyword":       query,
		"location_code": 2840, // United States
		"language_code": "en",
	}}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	slog.Debug("dataforseo: querying", slog.String("query", engine.Truncate(query, 60)))

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, dfsEndpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.SetBasicAuth(engine.Cfg.DataForSEOLogin, engine.Cfg.DataForSEOPassword)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", engine.UserAgentBot)
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("ai mode API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("ai mode API %d: %s", resp.StatusCode, string(b))
	}

	var out dfsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode ai mode response: %w", err)
	}
	return &out, nil
}

// dfsNormalize extracts reference URLs and the AI overview text from one
// API response. Items without a URL or with neither title nor snippet are
// dropped; social domains handled by sibling sources are excluded.
func dfsNormalize(resp *dfsResponse) ([]engine.WebItem, string) {
	var items []engine.WebItem
	var overview string

	if len(resp.Tasks) == 0 {
		return items, overview
	}
	task := resp.Tasks[0]
	if task.StatusCode != dfsTaskOK {
		engine.IncrOverviewTaskError()
		slog.Warn("dataforseo: task error",
			slog.Int("status_code", task.StatusCode), slog.String("message", task.StatusMessage))
		return items, overview
	}
	if len(task.Result) == 0 {
		return items, overview
	}

	for _, entry := range task.Result[0].Items {
		if entry.Type != "ai_overview" {
			continue
		}
		if text := overviewText(entry); text != "" {
			overview = text
		}

		for _, ref := range entry.References {
			if ref.URL == "" {
				continue
			}

			domain := refDomain(ref)
			if dfsExcludedDomains[domain] {
				continue
			}
			domain = strings.TrimPrefix(domain, "www.")

			title := strings.TrimSpace(ref.Title)
			snippet := strings.TrimSpace(ref.Text)
			if snippet == "" {
				snippet = strings.TrimSpace(ref.Snippet)
			}
			if title == "" && snippet == "" {
				continue
			}

			// IDs are assigned after the cross-query merge, where they
			// can be unique.
			items = append(items, engine.WebItem{
				Title:          engine.TruncateRunes(title, 200, ""),
				URL:            ref.URL,
				SourceDomain:   domain,
				Snippet:        engine.TruncateRunes(snippet, 500, ""),
				DateConfidence: engine.DateConfidenceLow,
				Relevance:      0.75, // above the generic web-search baseline: Google curated these
				WhyRelevant:    extractMention(overview, title, domain),
			})
		}
	}

	return items, overview
}

// overviewText prefers the rich markdown field, falling back to the plain
// text field. A text field carrying HTML markup is converted to markdown.
func overviewText(entry dfsResultItem) string {
	if entry.Markdown != "" {
		return entry.Markdown
	}
	text := entry.Text
	if strings.Contains(text, "</") || strings.Contains(text, "/>") {
		if md, err := htmltomarkdown.ConvertString(text); err == nil {
			return md
		}
	}
	return text
}

// refDomain resolves a reference's domain from its URL, falling back to the
// provider-supplied domain field when the URL does not parse.
func refDomain(ref dfsReference) string {
	u, err := url.Parse(ref.URL)
	if err != nil || u.Hostname() == "" {
		return strings.ToLower(ref.Domain)
	}
	return strings.ToLower(u.Hostname())
}

// extractMention finds a brief mention of a reference inside the AI overview:
// the first sentence containing the reference's site name (domain label before
// the TLD, so "bikeradar.com" matches "BikeRadar recommends..."), or failing
// that the first 2+ words of its title, case-insensitively. Empty if no match.
func extractMention(overview, title, domain string) string {
	if overview == "" {
		return ""
	}

	var terms []string
	if name, _, _ := strings.Cut(domain, "."); name != "" {
		terms = append(terms, name)
	}
	if title != "" {
		words := strings.Fields(title)
		if len(words) > 4 {
			words = words[:4]
		}
		if len(words) >= 2 {
			terms = append(terms, strings.Join(words, " "))
		}
	}

	sentences := strings.Split(strings.ReplaceAll(overview, "\n", " "), ".")
	for _, term := range terms {
		lower := strings.ToLower(term)
		for _, sentence := range sentences {
			if strings.Contains(strings.ToLower(sentence), lower) {
				if clean := strings.TrimSpace(sentence); clean != "" {
					return engine.TruncateRunes(clean, 150, "")
				}
			}
		}
	}
	return ""
}
