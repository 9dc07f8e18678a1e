package sources

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/anatolykoptev/go_trend/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// roundTripFunc stubs HTTP transports in tests without a live server.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func stubResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// initStubbed points the engine at a stubbed transport with fast poll timing.
func initStubbed(t *testing.T, rt roundTripFunc) {
	t.Helper()
	engine.Init(engine.Config{
		SupadataAPIKey: "test-key",
		YouTubeAPIKey:  "test-key",
		PollInterval:   2 * time.Millisecond,
		PollMaxWait:    20 * time.Millisecond,
		HTTPClient:     &http.Client{Transport: rt},
	})
}

func TestResolveJobStatus(t *testing.T) {
	tests := []struct {
		name        string
		job         transcriptJob
		wantContent string
		wantDone    bool
		wantErr     string
	}{
		{"completed", transcriptJob{Status: "completed", Content: "hello world"}, "hello world", true, ""},
		{"completed empty content", transcriptJob{Status: "completed", Content: "  "}, "", true, "empty content"},
		{"failed with reason", transcriptJob{Status: "failed", Error: "no captions"}, "", true, "no captions"},
		{"failed without reason", transcriptJob{Status: "failed"}, "", true, "unknown"},
		{"still pending", transcriptJob{Status: "pending"}, "", false, ""},
		{"unknown status treated as pending", transcriptJob{Status: "queued"}, "", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, done, err := resolveJobStatus(tt.job)
			assert.Equal(t, tt.wantContent, content)
			assert.Equal(t, tt.wantDone, done)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestPollJob(t *testing.T) {
	initStubbed(t, nil)

	t.Run("completes after pending polls", func(t *testing.T) {
		polls := 0
		content, err := pollJob(context.Background(), "j1", func(context.Context) (transcriptJob, error) {
			polls++
			if polls < 3 {
				return transcriptJob{Status: "pending"}, nil
			}
			return transcriptJob{Status: "completed", Content: "the transcript"}, nil
		})
		require.NoError(t, err)
		assert.Equal(t, "the transcript", content)
		assert.Equal(t, 3, polls)
	})

	t.Run("times out", func(t *testing.T) {
		content, err := pollJob(context.Background(), "j2", func(context.Context) (transcriptJob, error) {
			return transcriptJob{Status: "pending"}, nil
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "timed out")
		assert.Empty(t, content)
	})

	t.Run("transport error aborts immediately", func(t *testing.T) {
		polls := 0
		_, err := pollJob(context.Background(), "j3", func(context.Context) (transcriptJob, error) {
			polls++
			return transcriptJob{}, errors.New("connection reset")
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
		assert.Equal(t, 1, polls, "no retry after an unexpected poll error")
	})

	t.Run("failed job yields error", func(t *testing.T) {
		_, err := pollJob(context.Background(), "j4", func(context.Context) (transcriptJob, error) {
			return transcriptJob{Status: "failed", Error: "video is private"}, nil
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "video is private")
	})

	t.Run("completed with empty content yields error", func(t *testing.T) {
		_, err := pollJob(context.Background(), "j5", func(context.Context) (transcriptJob, error) {
			return transcriptJob{Status: "completed", Content: ""}, nil
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty content")
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := pollJob(ctx, "j6", func(context.Context) (transcriptJob, error) {
			t.Fatal("check must not run after cancellation")
			return transcriptJob{}, nil
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestFetchTranscriptSync(t *testing.T) {
	initStubbed(t, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "test-key", req.Header.Get("x-api-key"))
		assert.Equal(t, "auto", req.URL.Query().Get("mode"))
		return stubResponse(http.StatusOK, `{"content": "  spoken words here  "}`), nil
	})

	got, err := FetchTranscript(context.Background(), "https://www.youtube.com/watch?v=abc12345678")
	require.NoError(t, err)
	assert.Equal(t, "spoken words here", got)
}

func TestFetchTranscriptSyncEmpty(t *testing.T) {
	initStubbed(t, func(*http.Request) (*http.Response, error) {
		return stubResponse(http.StatusOK, `{"content": ""}`), nil
	})

	_, err := FetchTranscript(context.Background(), "https://www.youtube.com/watch?v=abc12345678")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty transcript")
}

func TestFetchTranscriptAsync(t *testing.T) {
	initStubbed(t, func(req *http.Request) (*http.Response, error) {
		if strings.Contains(req.URL.Path, "/transcribe/status/") {
			assert.True(t, strings.HasSuffix(req.URL.Path, "/job-42"))
			return stubResponse(http.StatusOK, `{"status": "completed", "content": "async words"}`), nil
		}
		return stubResponse(http.StatusAccepted, `{"jobId": "job-42"}`), nil
	})

	got, err := FetchTranscript(context.Background(), "https://www.youtube.com/watch?v=abc12345678")
	require.NoError(t, err)
	assert.Equal(t, "async words", got)
}

func TestFetchTranscriptAsyncNoJobID(t *testing.T) {
	initStubbed(t, func(*http.Request) (*http.Response, error) {
		return stubResponse(http.StatusAccepted, `{}`), nil
	})

	_, err := FetchTranscript(context.Background(), "https://www.youtube.com/watch?v=abc12345678")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without jobId")
}

func TestFetchTranscriptNoAPIKey(t *testing.T) {
	engine.Init(engine.Config{})
	_, err := FetchTranscript(context.Background(), "https://www.youtube.com/watch?v=abc12345678")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SUPADATA_API_KEY")
}

func TestFetchTranscriptsBatch(t *testing.T) {
	initStubbed(t, func(req *http.Request) (*http.Response, error) {
		u := req.URL.Query().Get("url")
		if strings.Contains(u, "bad") {
			return stubResponse(http.StatusNotFound, `{"error": "not found"}`), nil
		}
		return stubResponse(http.StatusOK, `{"content": "transcript for `+u+`"}`), nil
	})

	urls := []string{
		"https://www.youtube.com/watch?v=good0000001",
		"https://www.youtube.com/watch?v=bad00000002",
		"https://www.youtube.com/watch?v=good0000003",
	}
	results, err := FetchTranscriptsBatch(context.Background(), urls)
	require.NoError(t, err)
	require.Len(t, results, 3, "one entry per URL, failures included")
	assert.Contains(t, results[urls[0]], "good0000001")
	assert.Empty(t, results[urls[1]], "failed fetch maps to empty string")
	assert.Contains(t, results[urls[2]], "good0000003")
}

func TestFetchTranscriptsBatchEmpty(t *testing.T) {
	initStubbed(t, nil)
	results, err := FetchTranscriptsBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}
