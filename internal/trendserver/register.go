// Package trendserver exposes the trend aggregation engine as MCP tools.
package trendserver

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterTools registers all trend aggregation tools on the given MCP
// server: trend_search, video_search, transcript_fetch.
func RegisterTools(server *mcp.Server) {
	registerTrendSearch(server)
	registerVideoSearch(server)
	registerTranscriptFetch(server)
}
