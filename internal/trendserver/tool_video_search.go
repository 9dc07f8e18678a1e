package trendserver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anatolykoptev/go_trend/internal/engine"
	"github.com/anatolykoptev/go_trend/internal/engine/sources"
	"github.com/anatolykoptev/go_trend/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type VideoSearchInput struct {
	Topic       string `json:"topic" jsonschema:"Topic to search videos for"`
	FromDate    string `json:"from_date,omitempty" jsonschema:"Recency window start, YYYY-MM-DD (default: 30 days ago)"`
	Depth       string `json:"depth,omitempty" jsonschema:"Search depth: quick (10 videos), default (20), deep (40)"`
	Transcripts bool   `json:"transcripts,omitempty" jsonschema:"Attach transcript snippets to the top videos by views"`
}

type VideoSearchOutput struct {
	Topic string             `json:"topic"`
	Count int                `json:"count"`
	Items []engine.VideoItem `json:"items"`
	Error string             `json:"error,omitempty"`
}

func registerVideoSearch(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_search",
		Description: "Search YouTube for a topic's core subject. Returns videos with engagement stats (views, likes, comments), soft recency filtering and views-descending order. Optionally attaches caption transcript snippets to the top videos.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input VideoSearchInput) (*mcp.CallToolResult, VideoSearchOutput, error) {
		if input.Topic == "" {
			return nil, VideoSearchOutput{}, fmt.Errorf("topic is required")
		}

		depth := toolutil.NormDepth(input.Depth)
		fromDate := toolutil.NormFromDate(input.FromDate)

		var items []engine.VideoItem
		var err error
		if input.Transcripts && engine.Cfg.TranscriptsEnabled {
			items, err = sources.SearchAndTranscribe(ctx, input.Topic, fromDate, depth)
		} else {
			items, err = sources.SearchVideos(ctx, input.Topic, fromDate, depth)
		}

		out := VideoSearchOutput{
			Topic: input.Topic,
			Count: len(items),
			Items: items,
		}
		if err != nil {
			slog.Warn("video_search degraded", slog.Any("error", err))
			out.Error = err.Error()
		}
		return nil, out, nil
	})
}
