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
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/strutil"
	"github.com/anatolykoptev/go_trend/internal/engine"
	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"
)

// Supadata transcript API client. Fetches transcripts with mode=auto
// (captions, falling back to AI speech-to-text on the provider side).
// Supports YouTube and X/Twitter URLs. Long jobs come back as 202 + jobId
// and are polled until completion or budget exhaustion.

const supadataAPIBase = "https://api.supadata.ai/v1"

// Transcript job terminal statuses.
const (
	jobStatusCompleted = "completed"
	jobStatusFailed    = "failed"
)

// transcriptJob is the ephemeral state of one async transcription job.
// Created on a 202 response, resolved inside the poller, then discarded.
type transcriptJob struct {
	JobID   string `json:"jobId"`
	Status  string `json:"status"`
	Content string `json:"content"`
	Error   string `json:"error"`
}

// FetchTranscript fetches a transcript for a video URL. Synchronous 200
// responses return content directly; 202 responses hand off to the job
// poller. The text is truncated to the word budget. Any failure returns an
// error — callers treat it as "no transcript", never as fatal.
func FetchTranscript(ctx context.Context, videoURL string) (string, error) {
	if engine.Cfg.SupadataAPIKey == "" {
		return "", errors.New("SUPADATA_API_KEY not set")
	}
	engine.IncrTranscribe()

	slog.Debug("supadata: fetching transcript", slog.String("url", shortURL(videoURL)))

	params := url.Values{}
	params.Set("url", videoURL)
	params.Set("mode", "auto")

	status, body, err := supGet(ctx, supadataAPIBase+"/transcribe?"+params.Encode())
	if err != nil {
		return "", err
	}

	var resp transcriptJob
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode transcribe response: %w", err)
	}

	switch status {
	case http.StatusOK:
		// Sync response — transcript ready.
		content := strings.TrimSpace(resp.Content)
		if content == "" {
			return "", errors.New("empty transcript content")
		}
		return engine.TruncateWords(content, transcriptMaxWords), nil

	case http.StatusAccepted:
		if resp.JobID == "" {
			return "", errors.New("202 response without jobId")
		}
		slog.Debug("supadata: async job started", slog.String("job", resp.JobID))
		content, err := pollJob(ctx, resp.JobID, func(ctx context.Context) (transcriptJob, error) {
			return fetchJobStatus(ctx, resp.JobID)
		})
		if err != nil {
			return "", err
		}
		return engine.TruncateWords(strings.TrimSpace(content), transcriptMaxWords), nil

	default:
		return "", fmt.Errorf("unexpected status %d", status)
	}
}

// FetchTranscriptsBatch fetches transcripts for multiple URLs in parallel
// through the bounded coordinator, pacing requests when a rate limit is
// configured. The map has one entry per URL; failures are empty strings.
func FetchTranscriptsBatch(ctx context.Context, urls []string) (map[string]string, error) {
	if engine.Cfg.SupadataAPIKey == "" {
		return map[string]string{}, errors.New("SUPADATA_API_KEY not set")
	}
	if len(urls) == 0 {
		return map[string]string{}, nil
	}

	slog.Info("supadata: batch fetching transcripts", slog.Int("urls", len(urls)))

	var limiter *rate.Limiter
	if engine.Cfg.SupadataRateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(engine.Cfg.SupadataRateLimit), 1)
	}

	results := engine.FetchParallel(ctx, urls, engine.Cfg.SupadataWorkers, limiter,
		"supadata", FetchTranscript)
	return results, nil
}

// pollJob polls an async job on a fixed interval until a terminal status or
// the max-wait budget runs out. A transport error during polling aborts the
// loop entirely and yields no transcript.
func pollJob(ctx context.Context, jobID string, check func(context.Context) (transcriptJob, error)) (string, error) {
	interval := engine.Cfg.PollInterval
	maxWait := engine.Cfg.PollMaxWait

	for elapsed := time.Duration(0); elapsed < maxWait; elapsed += interval {
		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return "", ctx.Err()
		}

		engine.IncrTranscribePoll()
		job, err := check(ctx)
		if err != nil {
			slog.Warn("supadata: poll error", slog.String("job", jobID), slog.Any("error", err))
			return "", err
		}

		content, done, err := resolveJobStatus(job)
		if done {
			if err != nil {
				slog.Warn("supadata: job failed", slog.String("job", jobID), slog.Any("error", err))
			}
			return content, err
		}
		// still processing, keep polling
	}

	engine.IncrTranscribeTimeout()
	slog.Warn("supadata: job timed out", slog.String("job", jobID), slog.Duration("max_wait", maxWait))
	return "", fmt.Errorf("job %s timed out after %s", jobID, maxWait)
}

// resolveJobStatus maps one status response onto the poll outcome.
// completed with empty content counts as a failure.
func resolveJobStatus(job transcriptJob) (content string, done bool, err error) {
	switch job.Status {
	case jobStatusCompleted:
		if strings.TrimSpace(job.Content) == "" {
			return "", true, errors.New("completed with empty content")
		}
		return job.Content, true, nil
	case jobStatusFailed:
		reason := job.Error
		if reason == "" {
			reason = "unknown"
		}
		return "", true, fmt.Errorf("job failed: %s", reason)
	default:
		return "", false, nil
	}
}

// fetchJobStatus queries the job status endpoint once, no retries.
func fetchJobStatus(ctx context.Context, jobID string) (transcriptJob, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, supadataAPIBase+"/transcribe/status/"+jobID, nil)
	if err != nil {
		return transcriptJob{}, err
	}
	req.Header.Set("x-api-key", engine.Cfg.SupadataAPIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := engine.Cfg.HTTPClient.Do(req)
	if err != nil {
		return transcriptJob{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return transcriptJob{}, fmt.Errorf("status endpoint %d", resp.StatusCode)
	}

	var job transcriptJob
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return transcriptJob{}, fmt.Errorf("decode status response: %w", err)
	}
	return job, nil
}

// supGet performs an authenticated GET with exponential-backoff retries on
// retryable statuses. 200 and 202 both count as success — the caller
// dispatches on the status code.
func supGet(ctx context.Context, apiURL string) (int, []byte, error) {
	type supResponse struct {
		status int
		body   []byte
	}

	operation := func() (supResponse, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
		if err != nil {
			return supResponse{}, backoff.Permanent(err)
		}
		req.Header.Set("x-api-key", engine.Cfg.SupadataAPIKey)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", engine.UserAgentBot)

		resp, err := engine.Cfg.HTTPClient.Do(req)
		if err != nil {
			return supResponse{}, backoff.Permanent(err)
		}
		defer resp.Body.Close()

		if engine.IsRetryableStatus(resp.StatusCode) {
			return supResponse{}, fmt.Errorf("status %d", resp.StatusCode)
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, 2*1024*1024))
		if err != nil {
			return supResponse{}, backoff.Permanent(err)
		}
		return supResponse{status: resp.StatusCode, body: body}, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 1 * time.Second
	bo.MaxInterval = 10 * time.Second

	result, err := backoff.Retry(ctx, operation, backoff.WithBackOff(bo), backoff.WithMaxTries(3), backoff.WithMaxElapsedTime(30*time.Second))
	if err != nil {
		return 0, nil, fmt.Errorf("supadata API: %w", err)
	}
	return result.status, result.body, nil
}

// shortURL trims a URL for log lines.
func shortURL(u string) string {
	return strutil.TruncateWith(u, 60, "…")
}
