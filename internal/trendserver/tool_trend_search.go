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

type TrendSearchInput struct {
	Topic    string `json:"topic" jsonschema:"Topic to aggregate trending signal for (e.g. electric bikes)"`
	FromDate string `json:"from_date,omitempty" jsonschema:"Recency window start, YYYY-MM-DD (default: 30 days ago)"`
	Depth    string `json:"depth,omitempty" jsonschema:"Search depth: quick (1 query), default (2), deep (3)"`
}

type TrendSearchOutput struct {
	Topic    string           `json:"topic"`
	Count    int              `json:"count"`
	Items    []engine.WebItem `json:"items"`
	Overview string           `json:"overview,omitempty"`
	Error    string           `json:"error,omitempty"`
}

func registerTrendSearch(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "trend_search",
		Description: "Search what's trending for a topic via Google AI Mode. Returns the AI overview (synthesized answer) plus deduplicated reference URLs as structured web items (title, url, domain, snippet, relevance, why_relevant). Depth controls how many derived question queries are issued.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input TrendSearchInput) (*mcp.CallToolResult, TrendSearchOutput, error) {
		if input.Topic == "" {
			return nil, TrendSearchOutput{}, fmt.Errorf("topic is required")
		}

		depth := toolutil.NormDepth(input.Depth)
		fromDate := toolutil.NormFromDate(input.FromDate)

		items, overview, err := sources.SearchWeb(ctx, input.Topic, fromDate, depth)
		out := TrendSearchOutput{
			Topic:    input.Topic,
			Count:    len(items),
			Items:    items,
			Overview: overview,
		}
		if err != nil {
			// A fully-failed source degrades to an empty contribution,
			// never a tool error.
			slog.Warn("trend_search degraded", slog.Any("error", err))
			out.Error = err.Error()
		}
		return nil, out, nil
	})
}
