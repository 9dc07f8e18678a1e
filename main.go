// go_trend — multi-source trend aggregation MCP server.
//
// Aggregates "what's trending" signal for a topic across Google AI Mode
// (DataForSEO), YouTube Data API v3 and the Supadata transcript service.
// Exposes three MCP tools: trend_search, video_search, transcript_fetch.
// Runs as HTTP MCP server or stdio transport.
package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-mcpserver"
	"github.com/anatolykoptev/go_trend/internal/engine"
	"github.com/anatolykoptev/go_trend/internal/trendserver"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var (
	version = "dev"
	mcpPort = env.Str("MCP_PORT", "8893")
)

func main() {
	initEngine()

	slog.Info("starting go_trend",
		slog.String("port", mcpPort),
	)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_trend",
		Version: version,
	}, nil)

	trendserver.RegisterTools(server)
	slog.Info("tools registered", slog.Int("count", 3))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_trend",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 600 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}

func initEngine() {
	c := engine.Config{
		DataForSEOLogin:       env.Str("DATAFORSEO_LOGIN", ""),
		DataForSEOPassword:    env.Str("DATAFORSEO_PASSWORD", ""),
		YouTubeAPIKey:         env.Str("YOUTUBE_API_KEY", ""),
		YouTubeAPIKeyFallback: env.Str("YOUTUBE_API_KEY_FALLBACK", ""),
		SupadataAPIKey:        env.Str("SUPADATA_API_KEY", ""),
		TranscriptsEnabled:    env.Str("TRANSCRIPTS_ENABLED", "true") == "true",
		TranscriptWorkers:     env.Int("TRANSCRIPT_WORKERS", 5),
		SupadataWorkers:       env.Int("SUPADATA_WORKERS", 3),
		SupadataRateLimit:     env.Float("SUPADATA_RATE_LIMIT", 2.0),
		PollInterval:          env.Duration("TRANSCRIBE_POLL_INTERVAL", 3*time.Second),
		PollMaxWait:           env.Duration("TRANSCRIBE_POLL_MAX_WAIT", 60*time.Second),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}

	// Watch-page caption scraping needs a browser TLS fingerprint.
	if c.TranscriptsEnabled {
		bc, err := engine.NewBrowserClient()
		if err != nil {
			slog.Warn("browser client init failed, caption scraping via plain client", slog.Any("error", err))
		} else {
			c.BrowserClient = bc
			slog.Info("browser client initialized")
		}
	}

	engine.Init(c)
}
