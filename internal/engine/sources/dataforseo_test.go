package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/anatolykoptev/go_trend/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleAIModeJSON = `{
	"tasks": [{
		"status_code": 20000,
		"status_message": "Ok.",
		"result": [{
			"items": [
				{"type": "organic", "text": "ignored"},
				{
					"type": "ai_overview",
					"markdown": "E-bike sales keep growing this year. BikeRadar recommends checking motor wattage. Commuter models dominate sales this spring.",
					"references": [
						{"url": "https://Example.com/E-Bikes/", "title": "", "text": ""},
						{"url": "https://www.reddit.com/r/ebikes/top", "title": "Best Electric Bikes 2026", "text": "community thread"},
						{"url": "https://www.bikeradar.com/advice/motors", "title": "E-Bike Motor Guide", "text": "How to compare mid-drive and hub motors."},
						{"url": "https://velonews.example.org/news", "domain": "velonews.example.org", "title": "Commuter models dominate sales charts", "snippet": "Sales analysis."}
					]
				}
			]
		}]
	}]
}`

func TestDFSNormalize(t *testing.T) {
	var resp dfsResponse
	require.NoError(t, json.Unmarshal([]byte(sampleAIModeJSON), &resp))

	items, overview := dfsNormalize(&resp)

	require.Len(t, items, 2, "empty-title-empty-snippet and reddit references must be dropped")
	assert.Contains(t, overview, "BikeRadar recommends")

	bikeradar := items[0]
	assert.Equal(t, "https://www.bikeradar.com/advice/motors", bikeradar.URL)
	assert.Equal(t, "bikeradar.com", bikeradar.SourceDomain, "www prefix stripped")
	assert.Equal(t, "E-Bike Motor Guide", bikeradar.Title)
	assert.Equal(t, 0.75, bikeradar.Relevance)
	assert.Equal(t, "low", bikeradar.DateConfidence)
	assert.Equal(t, "BikeRadar recommends checking motor wattage", bikeradar.WhyRelevant,
		"first overview sentence naming the site")

	second := items[1]
	assert.Equal(t, "velonews.example.org", second.SourceDomain)
	assert.Equal(t, "Sales analysis.", second.Snippet, "snippet field used when text is absent")
	assert.Equal(t, "Commuter models dominate sales this spring", second.WhyRelevant,
		"title-phrase match when the site is not named")
}

func TestSearchWebUniqueIDsAcrossQueries(t *testing.T) {
	responses := []string{
		`{"tasks": [{"status_code": 20000, "result": [{"items": [{"type": "ai_overview",
			"markdown": "First answer.",
			"references": [{"url": "https://a.example/one", "title": "First Reference"}]}]}]}]}`,
		`{"tasks": [{"status_code": 20000, "result": [{"items": [{"type": "ai_overview",
			"markdown": "Second answer.",
			"references": [
				{"url": "https://A.example/one/", "title": "Same URL Again"},
				{"url": "https://b.example/two", "title": "Second Reference"}
			]}]}]}]}`,
	}
	var calls atomic.Int32
	initStubbed(t, func(req *http.Request) (*http.Response, error) {
		n := calls.Add(1)
		require.LessOrEqual(t, n, int32(len(responses)))
		return stubResponse(http.StatusOK, responses[n-1]), nil
	})
	engine.Cfg.DataForSEOLogin = "login"
	engine.Cfg.DataForSEOPassword = "secret"

	items, overview, err := SearchWeb(context.Background(), "electric bikes", "2025-01-01", "default")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load(), "default depth issues two queries")

	require.Len(t, items, 2, "cross-query duplicate collapses")
	assert.Equal(t, "D1", items[0].ID)
	assert.Equal(t, "First Reference", items[0].Title, "first occurrence wins")
	assert.Equal(t, "D2", items[1].ID)
	assert.Equal(t, "https://b.example/two", items[1].URL)
	assert.Contains(t, overview, "First answer.\n\n---\n\nSecond answer.")
}

func TestDFSNormalizeTaskError(t *testing.T) {
	raw := `{"tasks": [{"status_code": 40401, "status_message": "Authentication failed.", "result": []}]}`
	var resp dfsResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))

	items, overview := dfsNormalize(&resp)
	assert.Empty(t, items)
	assert.Empty(t, overview)
}

func TestDFSNormalizeEmptyTasks(t *testing.T) {
	var resp dfsResponse
	require.NoError(t, json.Unmarshal([]byte(`{"tasks": []}`), &resp))

	items, overview := dfsNormalize(&resp)
	assert.Empty(t, items)
	assert.Empty(t, overview)
}

func TestExtractMention(t *testing.T) {
	overview := "E-bike sales keep growing this year.\nBikeRadar recommends checking motor wattage. Commuter models dominate sales this spring."

	t.Run("site name match wins over title", func(t *testing.T) {
		got := extractMention(overview, "Commuter models dominate sales charts", "bikeradar.com")
		assert.Equal(t, "BikeRadar recommends checking motor wattage", got)
	})

	t.Run("title phrase fallback", func(t *testing.T) {
		got := extractMention(overview, "Commuter models dominate sales charts", "velonews.example.org")
		assert.Equal(t, "Commuter models dominate sales this spring", got)
	})

	t.Run("case insensitive", func(t *testing.T) {
		got := extractMention(overview, "COMMUTER MODELS DOMINATE SALES", "nomatch.example")
		assert.Equal(t, "Commuter models dominate sales this spring", got)
	})

	t.Run("single-word title ignored", func(t *testing.T) {
		got := extractMention(overview, "Commuter", "nomatch.example")
		assert.Empty(t, got)
	})

	t.Run("no overview", func(t *testing.T) {
		assert.Empty(t, extractMention("", "Any Title Here", "bikeradar.com"))
	})

	t.Run("no match", func(t *testing.T) {
		assert.Empty(t, extractMention(overview, "totally unrelated words here", "nomatch.example"))
	})
}

func TestOverviewText(t *testing.T) {
	t.Run("markdown preferred", func(t *testing.T) {
		entry := dfsResultItem{Markdown: "**md**", Text: "plain"}
		assert.Equal(t, "**md**", overviewText(entry))
	})

	t.Run("plain text fallback", func(t *testing.T) {
		entry := dfsResultItem{Text: "plain summary"}
		assert.Equal(t, "plain summary", overviewText(entry))
	})

	t.Run("html converted", func(t *testing.T) {
		entry := dfsResultItem{Text: "<p>Sales are <strong>rising</strong></p>"}
		got := overviewText(entry)
		assert.NotContains(t, got, "<p>")
		assert.Contains(t, got, "rising")
	})
}

func TestRefDomain(t *testing.T) {
	tests := []struct {
		name string
		ref  dfsReference
		want string
	}{
		{"from url", dfsReference{URL: "https://WWW.Example.com/page"}, "www.example.com"},
		{"fallback to field", dfsReference{URL: "://broken", Domain: "Fallback.com"}, "fallback.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, refDomain(tt.ref))
		})
	}
}
