package engine

import (
	"net/http"
	"time"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	DataForSEOLogin       string
	DataForSEOPassword    string
	YouTubeAPIKey         string
	YouTubeAPIKeyFallback string
	SupadataAPIKey        string
	TranscriptsEnabled    bool
	TranscriptWorkers     int     // worker cap for caption fetching (3-5)
	SupadataWorkers       int     // worker cap for transcript provider fetching
	SupadataRateLimit     float64 // transcript provider requests per second (0 = unlimited)
	PollInterval          time.Duration
	PollMaxWait           time.Duration
	HTTPClient            *http.Client
	BrowserClient         *BrowserClient // nil = watch-page caption scraping disabled
}

var cfg Config

// Cfg exposes the engine configuration for sub-packages (sources, trendserver).
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
func Init(c Config) {
	if c.PollInterval <= 0 {
		c.PollInterval = 3 * time.Second
	}
	if c.PollMaxWait <= 0 {
		c.PollMaxWait = 60 * time.Second
	}
	if c.TranscriptWorkers <= 0 {
		c.TranscriptWorkers = 5
	}
	if c.SupadataWorkers <= 0 {
		c.SupadataWorkers = 3
	}
	cfg = c
	Cfg = &cfg
}
