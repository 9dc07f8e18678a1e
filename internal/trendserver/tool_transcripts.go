package trendserver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anatolykoptev/go_trend/internal/engine/sources"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// maxTranscriptURLs caps one batch to keep provider cost bounded.
const maxTranscriptURLs = 20

type TranscriptFetchInput struct {
	URLs []string `json:"urls" jsonschema:"Video URLs to transcribe (YouTube or X/Twitter), max 20"`
}

type TranscriptFetchOutput struct {
	Fetched     int               `json:"fetched"`
	Total       int               `json:"total"`
	Transcripts map[string]string `json:"transcripts"` // url → transcript, empty string on failure
	Error       string            `json:"error,omitempty"`
}

func registerTranscriptFetch(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "transcript_fetch",
		Description: "Fetch transcripts for video URLs via the Supadata transcript service (captions with AI speech-to-text fallback). Fetches run in parallel with a worker cap; async jobs are polled until done. Each transcript is truncated to 500 words.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input TranscriptFetchInput) (*mcp.CallToolResult, TranscriptFetchOutput, error) {
		if len(input.URLs) == 0 {
			return nil, TranscriptFetchOutput{}, fmt.Errorf("urls is required")
		}
		urls := input.URLs
		if len(urls) > maxTranscriptURLs {
			urls = urls[:maxTranscriptURLs]
		}

		transcripts, err := sources.FetchTranscriptsBatch(ctx, urls)

		fetched := 0
		for _, t := range transcripts {
			if t != "" {
				fetched++
			}
		}
		out := TranscriptFetchOutput{
			Fetched:     fetched,
			Total:       len(urls),
			Transcripts: transcripts,
		}
		if err != nil {
			slog.Warn("transcript_fetch degraded", slog.Any("error", err))
			out.Error = err.Error()
		}
		return nil, out, nil
	})
}
